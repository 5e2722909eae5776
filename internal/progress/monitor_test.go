package progress

import (
	"context"
	"errors"
	"io"
	"testing"
)

type recorder struct {
	values    []int
	notes     []string
	cancelAt  int
	minV, max int
}

func (r *recorder) SetRange(min, max int) { r.minV, r.max = min, max }
func (r *recorder) SetProgress(n int)     { r.values = append(r.values, n) }
func (r *recorder) SetNote(note string)   { r.notes = append(r.notes, note) }
func (r *recorder) Cancelled() bool {
	return r.cancelAt > 0 && len(r.values) > 0 && r.values[len(r.values)-1] >= r.cancelAt
}

func TestTracker_ReportsOnlyChanges(t *testing.T) {
	r := &recorder{}
	tr := NewTracker(r, 1000)

	for i := 0; i < 1000; i++ {
		if err := tr.Advance(1); err != nil {
			t.Fatalf("Advance: %v", err)
		}
	}

	if r.max != 100 {
		t.Fatalf("range max: got %d, want 100", r.max)
	}
	if len(r.values) != 101 {
		t.Fatalf("updates: got %d, want 101", len(r.values))
	}
	if r.values[len(r.values)-1] != 100 {
		t.Fatalf("last value: got %d, want 100", r.values[len(r.values)-1])
	}
	if r.notes[len(r.notes)-1] != "Completed 100%" {
		t.Fatalf("last note: got %q", r.notes[len(r.notes)-1])
	}
}

func TestTracker_Cancel(t *testing.T) {
	r := &recorder{cancelAt: 50}
	tr := NewTracker(r, 100)

	var err error
	steps := 0
	for steps < 100 {
		steps++
		if err = tr.Advance(1); err != nil {
			break
		}
	}
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
	if steps != 50 {
		t.Fatalf("cancelled after %d steps, want 50", steps)
	}
}

func TestTracker_ZeroTotal(t *testing.T) {
	r := &recorder{}
	tr := NewTracker(r, 0)
	if err := tr.Advance(0); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if len(r.values) != 1 || r.values[0] != 100 {
		t.Fatalf("got %v, want [100]", r.values)
	}
}

func TestOrNop(t *testing.T) {
	if OrNop(nil) != Nop {
		t.Fatalf("expected Nop for nil monitor")
	}
	if Nop.Cancelled() {
		t.Fatalf("Nop must never cancel")
	}
}

func TestBar_CancelledFollowsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	b := NewBar(ctx, io.Discard, "testing")
	defer b.Close()

	b.SetRange(0, 100)
	b.SetProgress(10)
	b.SetNote("halfway")
	if b.Cancelled() {
		t.Fatalf("bar cancelled before context")
	}
	cancel()
	if !b.Cancelled() {
		t.Fatalf("bar not cancelled after context cancel")
	}
}

func TestBar_NoteKeepsLabel(t *testing.T) {
	b := NewBar(context.Background(), io.Discard, "writing out.bin")
	defer b.Close()

	tests := map[string]string{
		"Completed 5%": "writing out.bin: Completed 5%",
		"":             "writing out.bin",
	}
	for note, want := range tests {
		if got := b.describe(note); got != want {
			t.Fatalf("describe(%q) = %q, want %q", note, got, want)
		}
	}

	unlabelled := NewBar(context.Background(), io.Discard, "")
	defer unlabelled.Close()
	if got := unlabelled.describe("reading a.bin"); got != "reading a.bin" {
		t.Fatalf("describe without label = %q", got)
	}
}
