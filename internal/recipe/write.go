package recipe

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"CorruptionCorrector/internal/logging"
	"CorruptionCorrector/internal/progress"
)

// WriteFile materializes the recipe at path. Any read or write error,
// a source shorter than its segment, or cancellation aborts the write
// and leaves the partial file in place.
func (r *Recipe) WriteFile(path string, opts Options) error {
	log := logging.OrDiscard(opts.Logger).With("output", path)

	if err := r.Validate(); err != nil {
		return err
	}

	out, err := os.Create(path) // #nosec G304
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		_ = out.Close()
	}()

	log.Info("writing", "segments", len(r.Segments), "bytes", r.Length())
	started := time.Now()

	w := bufio.NewWriterSize(out, opts.writeBuffer())
	buf := make([]byte, opts.bufferSize())
	tracker := progress.NewTracker(opts.Monitor, r.Length())

	for _, s := range r.Segments {
		err := readSegment(s, buf, func(p []byte) error {
			if _, err := w.Write(p); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
			opts.Stats.AddBytesWritten(int64(len(p)))
			return tracker.Advance(int64(len(p)))
		})
		if err != nil {
			log.Warn("write aborted", "source", s.Source, "error", err)
			return err
		}
		opts.Stats.AddBytesRead(s.Length())
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	tracker.Finish()

	log.Info("written", "bytes", r.Length(), "elapsed", time.Since(started))
	return nil
}

// readSegment streams the bytes of s through buf, calling fn for every
// read. It fails when the source ends before s.End.
func readSegment(s Segment, buf []byte, fn func(p []byte) error) error {
	f, err := os.Open(s.Source) // #nosec G304
	if err != nil {
		return fmt.Errorf("open %s: %w", s.Source, err)
	}
	defer func() {
		_ = f.Close()
	}()

	if _, err := f.Seek(s.Start, io.SeekStart); err != nil {
		return fmt.Errorf("seek %s to %d: %w", s.Source, s.Start, err)
	}

	remain := s.Length()
	for remain > 0 {
		want := int64(len(buf))
		if remain < want {
			want = remain
		}
		n, err := io.ReadFull(f, buf[:want])
		if n > 0 {
			if ferr := fn(buf[:n]); ferr != nil {
				return ferr
			}
			remain -= int64(n)
		}
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return fmt.Errorf("read %s: source ends %d bytes before offset %d", s.Source, remain, s.End+1)
		}
		if err != nil {
			return fmt.Errorf("read %s: %w", s.Source, err)
		}
	}
	return nil
}
