package progress

import (
	"context"
	"io"
	"time"

	"github.com/schollz/progressbar/v3"
)

// Bar renders a Monitor on a terminal. Cancellation follows ctx.
type Bar struct {
	bar   *progressbar.ProgressBar
	ctx   context.Context
	label string

	min  int
	last int
}

func NewBar(ctx context.Context, w io.Writer, description string) *Bar {
	b := &Bar{
		ctx:   ctx,
		label: description,
		last:  -1,
	}

	b.bar = progressbar.NewOptions(
		100,
		progressbar.OptionSetWriter(w),
		progressbar.OptionUseANSICodes(true),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionThrottle(120*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
	_ = b.bar.RenderBlank()

	return b
}

func (b *Bar) SetRange(min, max int) {
	if max <= min {
		max = min + 1
	}
	b.min = min
	b.last = -1
	b.bar.Reset()
	b.bar.ChangeMax(max - min)
}

func (b *Bar) SetProgress(n int) {
	if n == b.last {
		return
	}
	b.last = n
	_ = b.bar.Set(n - b.min)
}

// SetNote shows note after the label given to NewBar.
func (b *Bar) SetNote(note string) {
	b.bar.Describe(b.describe(note))
}

func (b *Bar) describe(note string) string {
	switch {
	case note == "":
		return b.label
	case b.label == "":
		return note
	default:
		return b.label + ": " + note
	}
}

func (b *Bar) Cancelled() bool {
	return b.ctx != nil && b.ctx.Err() != nil
}

func (b *Bar) Close() {
	_ = b.bar.Finish()
}
