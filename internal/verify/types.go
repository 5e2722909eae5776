package verify

import (
	"log/slog"

	"CorruptionCorrector/internal/progress"
)

// Mismatch is one file whose digest or length differs from its sum
// file entry. Computed is empty when only the length was compared.
type Mismatch struct {
	Path     string
	Expected string
	Computed string
	Reason   string
}

type Result struct {
	Mismatches []Mismatch
}

type Options struct {
	Workers int
	Monitor progress.Monitor
	Logger  *slog.Logger
}

func (o Options) workers() int {
	if o.Workers <= 0 {
		return 1
	}
	return o.Workers
}

// Candidate is a recipe whose output digest matched the expected value.
type Candidate struct {
	Index  int
	Digest string
}
