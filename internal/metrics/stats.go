package metrics

import (
	"sync/atomic"
	"time"
)

// Stats counts work done by one CLI run. Methods are safe on a nil
// receiver so core packages can take an optional *Stats.
type Stats struct {
	TotalBytes int64

	Processed      int64
	Skipped        int64
	Tables         int64
	ChunksDigested int64
	Differences    int64
	Recipes        int64
	Matches        int64
	Mismatches     int64
	Errors         int64

	BytesRead    int64
	BytesWritten int64
	Started      time.Time
	Finished     time.Time
}

func (s *Stats) Start() { s.Started = time.Now() }
func (s *Stats) Stop()  { s.Finished = time.Now() }
func (s *Stats) Duration() time.Duration {
	if s.Finished.IsZero() {
		return time.Since(s.Started)
	}
	return s.Finished.Sub(s.Started)
}

func (s *Stats) add(field *int64, n int64) {
	if n == 0 {
		return
	}
	atomic.AddInt64(field, n)
}

func (s *Stats) AddBytesRead(n int64) {
	if s != nil {
		s.add(&s.BytesRead, n)
	}
}

func (s *Stats) AddBytesWritten(n int64) {
	if s != nil {
		s.add(&s.BytesWritten, n)
	}
}

func (s *Stats) AddChunks(n int64) {
	if s != nil {
		s.add(&s.ChunksDigested, n)
	}
}

func (s *Stats) AddTables(n int64) {
	if s != nil {
		s.add(&s.Tables, n)
	}
}

func (s *Stats) AddRecipes(n int64) {
	if s != nil {
		s.add(&s.Recipes, n)
	}
}

func (s *Stats) AddMatches(n int64) {
	if s != nil {
		s.add(&s.Matches, n)
	}
}

func (s *Stats) AddMismatches(n int64) {
	if s != nil {
		s.add(&s.Mismatches, n)
	}
}

func (s *Stats) AddErrors(n int64) {
	if s != nil {
		s.add(&s.Errors, n)
	}
}

func (s *Stats) SetDifferences(n int64) {
	if s != nil {
		atomic.StoreInt64(&s.Differences, n)
	}
}

func (s *Stats) AddProcessed(n int64) {
	if s != nil {
		s.add(&s.Processed, n)
	}
}

func (s *Stats) AddSkipped(n int64) {
	if s != nil {
		s.add(&s.Skipped, n)
	}
}
