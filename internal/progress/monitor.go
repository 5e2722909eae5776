// Package progress carries progress reporting and cooperative
// cancellation for long-running operations.
//
// Operations receive a Monitor, report a 0-100 percentage with a short
// note, and poll Cancelled between I/O chunks. A cancelled operation
// returns ErrCancelled and publishes no partial result.
package progress

import (
	"errors"
	"fmt"
)

var ErrCancelled = errors.New("cancelled by user")

// Monitor receives progress from one long-running operation.
type Monitor interface {
	SetRange(min, max int)
	SetProgress(n int)
	SetNote(note string)
	Cancelled() bool
}

type nop struct{}

func (nop) SetRange(int, int) {}
func (nop) SetProgress(int)   {}
func (nop) SetNote(string)    {}
func (nop) Cancelled() bool   { return false }

// Nop is a Monitor that ignores progress and never cancels.
var Nop Monitor = nop{}

// OrNop returns m, or Nop when m is nil.
func OrNop(m Monitor) Monitor {
	if m == nil {
		return Nop
	}
	return m
}

// Tracker converts work units into percentage updates on a Monitor,
// reporting only when the percentage changes.
type Tracker struct {
	m     Monitor
	total int64
	done  int64
	last  int
}

func NewTracker(m Monitor, total int64) *Tracker {
	m = OrNop(m)
	m.SetRange(0, 100)
	return &Tracker{m: m, total: total, last: -1}
}

// Advance records n more units of work. It returns ErrCancelled when
// the monitor has been cancelled.
func (t *Tracker) Advance(n int64) error {
	t.done += n

	pct := 100
	if t.total > 0 {
		pct = int(t.done * 100 / t.total)
		if pct > 100 {
			pct = 100
		}
	}
	if pct != t.last {
		t.last = pct
		t.m.SetProgress(pct)
		t.m.SetNote(fmt.Sprintf("Completed %d%%", pct))
	}

	if t.m.Cancelled() {
		return ErrCancelled
	}
	return nil
}

// Finish moves the monitor to its maximum.
func (t *Tracker) Finish() {
	t.m.SetProgress(100)
}
