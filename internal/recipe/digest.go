package recipe

import (
	"fmt"
	"time"

	"CorruptionCorrector/internal/digest"
	"CorruptionCorrector/internal/logging"
	"CorruptionCorrector/internal/progress"
)

// Digest computes the digest of the recipe's output without writing it.
// The uniform-run shortcut is not applied, so the result can be checked
// against an ordinary sum file.
func (r *Recipe) Digest(algorithm string, opts Options) (string, error) {
	sums, err := DigestMany([]*Recipe{r}, algorithm, opts)
	if err != nil {
		return "", err
	}
	return sums[0], nil
}

// DigestMany digests several recipes that share segment boundaries and
// differ only in the sources they read. For every segment index each
// distinct source is read once and its bytes feed every recipe using it.
func DigestMany(recipes []*Recipe, algorithm string, opts Options) ([]string, error) {
	if len(recipes) == 0 {
		return nil, nil
	}
	if err := compatible(recipes); err != nil {
		return nil, err
	}

	log := logging.OrDiscard(opts.Logger)
	digests := make([]digest.Digest, len(recipes))
	for i := range recipes {
		digests[i] = digest.NewPlain(algorithm)
	}

	base := recipes[0]
	groups := make([][]sourceGroup, len(base.Segments))
	var total int64
	for i, s := range base.Segments {
		groups[i] = groupBySource(recipes, i)
		total += s.Length() * int64(len(groups[i]))
	}

	log.Info("digesting recipes", "recipes", len(recipes), "algorithm", digests[0].Name(), "bytes_to_read", total)
	started := time.Now()

	buf := make([]byte, opts.bufferSize())
	tracker := progress.NewTracker(opts.Monitor, total)

	for i := range base.Segments {
		for _, g := range groups[i] {
			seg := recipes[g.members[0]].Segments[i]
			err := readSegment(seg, buf, func(p []byte) error {
				for _, m := range g.members {
					digests[m].Update(p)
				}
				return tracker.Advance(int64(len(p)))
			})
			if err != nil {
				return nil, err
			}
			opts.Stats.AddBytesRead(seg.Length())
		}
	}
	tracker.Finish()

	out := make([]string, len(recipes))
	for i, d := range digests {
		out[i] = d.HexValue()
	}

	log.Info("recipes digested", "recipes", len(recipes), "elapsed", time.Since(started))
	return out, nil
}

type sourceGroup struct {
	source  string
	members []int
}

// groupBySource groups recipe indexes by the source of segment i, in
// order of first appearance.
func groupBySource(recipes []*Recipe, i int) []sourceGroup {
	var groups []sourceGroup
	index := make(map[string]int)
	for ri, r := range recipes {
		src := r.Segments[i].Source
		gi, ok := index[src]
		if !ok {
			gi = len(groups)
			index[src] = gi
			groups = append(groups, sourceGroup{source: src})
		}
		groups[gi].members = append(groups[gi].members, ri)
	}
	return groups
}

func compatible(recipes []*Recipe) error {
	base := recipes[0]
	if err := base.Validate(); err != nil {
		return err
	}
	for ri, r := range recipes[1:] {
		if len(r.Segments) != len(base.Segments) {
			return fmt.Errorf("%w: recipe %d has %d segments, want %d",
				ErrIncompatible, ri+1, len(r.Segments), len(base.Segments))
		}
		for i, s := range r.Segments {
			b := base.Segments[i]
			if s.Start != b.Start || s.End != b.End {
				return fmt.Errorf("%w: recipe %d segment %d is [%d, %d], want [%d, %d]",
					ErrIncompatible, ri+1, i, s.Start, s.End, b.Start, b.End)
			}
			if s.Source == "" {
				return fmt.Errorf("recipe %d segment %d: empty source", ri+1, i)
			}
		}
	}
	return nil
}
