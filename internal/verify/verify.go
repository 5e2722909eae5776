// Package verify checks files and repair candidates against digests
// listed in sum files.
package verify

import (
	"os"
	"strings"
	"sync"
	"time"

	"CorruptionCorrector/internal/index"
	"CorruptionCorrector/internal/logging"
	"CorruptionCorrector/internal/metrics"
	"CorruptionCorrector/internal/progress"
)

// Verify digests every present item with the algorithm named in its
// sum file entry and collects the mismatches. Items that could not be
// found when the sum file was loaded are skipped.
func Verify(items []index.FileItem, opts Options, stats *metrics.Stats) (*Result, error) {
	workers := opts.workers()
	log := logging.OrDiscard(opts.Logger)
	res := &Result{}
	var mu sync.Mutex

	var total int64
	for _, fi := range items {
		total += fi.Length
	}
	tracker := newSharedTracker(opts.Monitor, total)

	jobs := make(chan index.FileItem)
	var wg sync.WaitGroup

	mismatch := func(m Mismatch) {
		stats.AddMismatches(1)
		mu.Lock()
		res.Mismatches = append(res.Mismatches, m)
		mu.Unlock()
	}

	worker := func() {
		defer wg.Done()

		for fi := range jobs {
			if tracker.cancelled() {
				continue
			}
			stats.AddProcessed(1)

			if fi.Error != nil {
				stats.AddSkipped(1)
				tracker.advance(fi.Length)
				continue
			}

			info, err := os.Stat(fi.Path)
			if err != nil {
				log.Warn("stat failed", "path", fi.Path, "err", err)
				stats.AddErrors(1)
				tracker.advance(fi.Length)
				continue
			}
			if info.Size() != fi.Length {
				mismatch(Mismatch{Path: fi.Path, Expected: fi.Hash, Reason: "length changed"})
				tracker.advance(fi.Length)
				continue
			}

			var bytesSent int64
			computed, err := FileHashHex(fi.Path, fi.Algorithm, func(n int64) {
				stats.AddBytesRead(n)
				bytesSent += n
				tracker.advance(n)
			})
			tracker.advance(fi.Length - bytesSent)
			if err != nil {
				log.Warn("hash failed", "path", fi.Path, "err", err)
				stats.AddErrors(1)
				continue
			}

			if !strings.EqualFold(computed, strings.TrimSpace(fi.Hash)) {
				log.Debug("digest mismatch", "path", fi.Path, "expected", fi.Hash, "computed", computed)
				mismatch(Mismatch{Path: fi.Path, Expected: fi.Hash, Computed: computed, Reason: "digest differs"})
				continue
			}

			stats.AddMatches(1)
		}
	}

	log.Info("verifying", "files", len(items), "bytes", total, "workers", workers)
	started := time.Now()

	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go worker()
	}

	for _, fi := range items {
		jobs <- fi
	}
	close(jobs)

	wg.Wait()

	if tracker.cancelled() {
		return nil, progress.ErrCancelled
	}
	tracker.finish()

	log.Info("verify finished", "mismatches", len(res.Mismatches), "elapsed", time.Since(started))
	return res, nil
}

// sharedTracker serialises progress from several workers onto one
// Monitor.
type sharedTracker struct {
	mu   sync.Mutex
	t    *progress.Tracker
	stop bool
}

func newSharedTracker(m progress.Monitor, total int64) *sharedTracker {
	return &sharedTracker{t: progress.NewTracker(m, total)}
}

func (s *sharedTracker) advance(n int64) {
	if n <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.t.Advance(n); err != nil {
		s.stop = true
	}
}

func (s *sharedTracker) cancelled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stop
}

func (s *sharedTracker) finish() {
	s.mu.Lock()
	s.t.Finish()
	s.mu.Unlock()
}
