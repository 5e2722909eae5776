package verify

import (
	"errors"
	"strings"

	"golang.org/x/sync/errgroup"

	"CorruptionCorrector/internal/logging"
	"CorruptionCorrector/internal/metrics"
	"CorruptionCorrector/internal/progress"
	"CorruptionCorrector/internal/recipe"
)

// Candidates digests every recipe with algorithm and returns those whose
// digest equals expected, in recipe order. Recipes sharing segment
// boundaries are digested in one pass over the sources; otherwise each
// recipe is digested on its own by opts.Workers workers.
func Candidates(recipes []*recipe.Recipe, algorithm, expected string, opts Options, ropts recipe.Options, stats *metrics.Stats) ([]Candidate, error) {
	log := logging.OrDiscard(opts.Logger)
	expected = strings.TrimSpace(expected)

	ropts.Monitor = opts.Monitor
	ropts.Logger = opts.Logger
	ropts.Stats = stats

	sums, err := recipe.DigestMany(recipes, algorithm, ropts)
	if errors.Is(err, recipe.ErrIncompatible) {
		log.Debug("recipes do not share boundaries, digesting one by one", "err", err)
		sums, err = digestEach(recipes, algorithm, opts, ropts)
	}
	if err != nil {
		return nil, err
	}

	var found []Candidate
	for i, sum := range sums {
		if strings.EqualFold(sum, expected) {
			stats.AddMatches(1)
			found = append(found, Candidate{Index: i, Digest: sum})
			continue
		}
		stats.AddMismatches(1)
	}

	log.Info("candidates checked", "recipes", len(recipes), "matching", len(found))
	return found, nil
}

func digestEach(recipes []*recipe.Recipe, algorithm string, opts Options, ropts recipe.Options) ([]string, error) {
	tracker := newSharedTracker(opts.Monitor, int64(len(recipes)))
	ropts.Monitor = nil

	sums := make([]string, len(recipes))
	var g errgroup.Group
	g.SetLimit(opts.workers())
	for i, r := range recipes {
		g.Go(func() error {
			if tracker.cancelled() {
				return progress.ErrCancelled
			}
			sum, err := r.Digest(algorithm, ropts)
			if err != nil {
				return err
			}
			sums[i] = sum
			tracker.advance(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if tracker.cancelled() {
		return nil, progress.ErrCancelled
	}
	tracker.finish()
	return sums, nil
}
