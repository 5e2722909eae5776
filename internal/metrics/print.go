package metrics

import (
	"fmt"
	"io"
	"sync/atomic"
)

type Snapshot struct {
	DurationMs     int64
	Processed      int64
	Skipped        int64
	Tables         int64
	ChunksDigested int64
	Differences    int64
	Recipes        int64
	Matches        int64
	Mismatches     int64
	Errors         int64
	BytesRead      int64
	BytesWritten   int64
	TotalBytes     int64
}

func (s *Stats) Snapshot() Snapshot {
	dur := s.Duration()

	return Snapshot{
		DurationMs:     dur.Milliseconds(),
		Processed:      atomic.LoadInt64(&s.Processed),
		Skipped:        atomic.LoadInt64(&s.Skipped),
		Tables:         atomic.LoadInt64(&s.Tables),
		ChunksDigested: atomic.LoadInt64(&s.ChunksDigested),
		Differences:    atomic.LoadInt64(&s.Differences),
		Recipes:        atomic.LoadInt64(&s.Recipes),
		Matches:        atomic.LoadInt64(&s.Matches),
		Mismatches:     atomic.LoadInt64(&s.Mismatches),
		Errors:         atomic.LoadInt64(&s.Errors),
		BytesRead:      atomic.LoadInt64(&s.BytesRead),
		BytesWritten:   atomic.LoadInt64(&s.BytesWritten),
		TotalBytes:     atomic.LoadInt64(&s.TotalBytes),
	}
}

func Print(w io.Writer, s *Stats) {
	snap := s.Snapshot()

	fmt.Fprintln(w, "--- stats ---")
	fmt.Fprintln(w, "duration_ms:", snap.DurationMs)
	fmt.Fprintln(w, "processed:", snap.Processed)
	fmt.Fprintln(w, "skipped:", snap.Skipped)
	fmt.Fprintln(w, "tables:", snap.Tables)
	fmt.Fprintln(w, "chunks_digested:", snap.ChunksDigested)
	fmt.Fprintln(w, "differences:", snap.Differences)
	fmt.Fprintln(w, "recipes:", snap.Recipes)
	fmt.Fprintln(w, "matches:", snap.Matches)
	fmt.Fprintln(w, "mismatches:", snap.Mismatches)
	fmt.Fprintln(w, "errors:", snap.Errors)
	fmt.Fprintln(w, "bytes_read:", snap.BytesRead)
	fmt.Fprintln(w, "bytes_written:", snap.BytesWritten)
	fmt.Fprintln(w, "total_bytes:", snap.TotalBytes)

	if snap.DurationMs > 0 {
		secs := float64(snap.DurationMs) / 1000.0
		bps := float64(snap.BytesRead+snap.BytesWritten) / secs
		fmt.Fprintln(w, "throughput_bytes_per_sec:", bps)
		fmt.Fprintln(w, "throughput_mb_per_sec:", bps/1_000_000.0)
	}
}
