// Package recipe describes a repaired file as an ordered list of byte
// ranges taken from source copies, and materializes or digests it.
package recipe

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"CorruptionCorrector/internal/metrics"
	"CorruptionCorrector/internal/progress"
)

const (
	DefaultBufferSize  = 1 << 20
	DefaultWriteBuffer = 2 << 20
)

// ErrIncompatible is returned by DigestMany when the recipes do not
// share segment boundaries.
var ErrIncompatible = errors.New("recipes have different segment boundaries")

// Segment is the inclusive byte range [Start, End] read from Source.
type Segment struct {
	Source string `json:"source" yaml:"source"`
	Start  int64  `json:"start" yaml:"start"`
	End    int64  `json:"end" yaml:"end"`
}

func (s Segment) Length() int64 {
	return s.End - s.Start + 1
}

type Recipe struct {
	Segments []Segment `json:"segments" yaml:"segments"`
}

type Options struct {
	Monitor     progress.Monitor
	Logger      *slog.Logger
	BufferSize  int
	WriteBuffer int
	Stats       *metrics.Stats
}

func (o Options) bufferSize() int {
	if o.BufferSize <= 0 {
		return DefaultBufferSize
	}
	return o.BufferSize
}

func (o Options) writeBuffer() int {
	if o.WriteBuffer <= 0 {
		return DefaultWriteBuffer
	}
	return o.WriteBuffer
}

// Add appends [start, end] from source. The segment must begin right
// after the current end and hold at least one byte.
func (r *Recipe) Add(source string, start, end int64) bool {
	if source == "" || start > end || start != r.Length() {
		return false
	}
	r.Segments = append(r.Segments, Segment{Source: source, Start: start, End: end})
	return true
}

// Length is the size of the output in bytes.
func (r *Recipe) Length() int64 {
	if len(r.Segments) == 0 {
		return 0
	}
	return r.Segments[len(r.Segments)-1].End + 1
}

// Validate checks that the segments tile [0, Length()) without gaps or
// overlaps.
func (r *Recipe) Validate() error {
	var next int64
	for i, s := range r.Segments {
		if s.Source == "" {
			return fmt.Errorf("segment %d: empty source", i)
		}
		if s.Start != next {
			return fmt.Errorf("segment %d: starts at %d, want %d", i, s.Start, next)
		}
		if s.Start > s.End {
			return fmt.Errorf("segment %d: start %d after end %d", i, s.Start, s.End)
		}
		next = s.End + 1
	}
	return nil
}

// Sources lists the distinct source paths in order of first use.
func (r *Recipe) Sources() []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range r.Segments {
		if !seen[s.Source] {
			seen[s.Source] = true
			out = append(out, s.Source)
		}
	}
	return out
}

func (r *Recipe) String() string {
	var b strings.Builder
	for i, s := range r.Segments {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "[%d, %d] %s", s.Start, s.End, s.Source)
	}
	return b.String()
}
