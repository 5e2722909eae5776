package checksum

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"CorruptionCorrector/internal/digest"
	"CorruptionCorrector/internal/logging"
	"CorruptionCorrector/internal/metrics"
	"CorruptionCorrector/internal/progress"
)

const DefaultReadBuffer = 512 << 10

type Options struct {
	Monitor    progress.Monitor
	Logger     *slog.Logger
	ReadBuffer int
	Stats      *metrics.Stats
}

// Build digests path in chunks of chunkSize bytes. chunkSize is clamped
// to [MinChunkSize, MaxChunkSize] and an unknown algorithm falls back to
// digest.Default. On error or cancellation no table is returned.
func Build(path string, chunkSize int64, algorithm string, opts Options) (*Table, error) {
	chunkSize = ClampChunkSize(chunkSize)
	d := digest.New(algorithm)

	digests, length, err := scan(path, chunkSize, d, opts)
	if err != nil {
		return nil, err
	}

	opts.Stats.AddTables(1)
	return &Table{
		ID:           uuid.NewString(),
		SourcePath:   path,
		SourceLength: length,
		ChunkSize:    chunkSize,
		Algorithm:    d.Name(),
		Digests:      digests,
	}, nil
}

// Rebuild digests the source again with the stored chunk size and
// algorithm. The previous digests are kept when it fails.
func (t *Table) Rebuild(opts Options) error {
	digests, length, err := scan(t.SourcePath, t.ChunkSize, digest.New(t.Algorithm), opts)
	if err != nil {
		return err
	}
	t.Digests = digests
	t.SourceLength = length
	return nil
}

func scan(path string, chunkSize int64, d digest.Digest, opts Options) ([]string, int64, error) {
	log := logging.OrDiscard(opts.Logger).With("path", path)
	readBuffer := opts.ReadBuffer
	if readBuffer <= 0 {
		readBuffer = DefaultReadBuffer
	}

	f, err := os.Open(path) // #nosec G304
	if err != nil {
		return nil, 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() {
		_ = f.Close()
	}()

	info, err := f.Stat()
	if err != nil {
		return nil, 0, fmt.Errorf("stat %s: %w", path, err)
	}

	expected := (info.Size() + chunkSize - 1) / chunkSize
	tracker := progress.NewTracker(opts.Monitor, expected)

	log.Debug("digesting", "size", info.Size(), "chunk_size", chunkSize, "algorithm", d.Name())
	started := time.Now()

	r := bufio.NewReaderSize(f, readBuffer)
	buf := make([]byte, chunkSize)
	digests := make([]string, 0, expected)
	var length int64

	for {
		n, rerr := io.ReadFull(r, buf)
		if n > 0 {
			d.Reset()
			d.Update(buf[:n])
			digests = append(digests, d.HexValue())
			length += int64(n)

			opts.Stats.AddBytesRead(int64(n))
			opts.Stats.AddChunks(1)

			if err := tracker.Advance(1); err != nil {
				log.Info("digesting cancelled", "chunks", len(digests))
				return nil, 0, err
			}
		}
		if errors.Is(rerr, io.EOF) || errors.Is(rerr, io.ErrUnexpectedEOF) {
			break
		}
		if rerr != nil {
			return nil, 0, fmt.Errorf("read %s at %d: %w", path, length, rerr)
		}
	}
	tracker.Finish()

	log.Debug("digested", "chunks", len(digests), "bytes", length, "elapsed", time.Since(started))
	return digests, length, nil
}
