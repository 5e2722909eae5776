// Package checksum splits a file into fixed-size chunks and records a
// digest for each of them.
//
// A Table is built by one sequential read of its source. Its digests
// never change afterwards except through Rebuild, which replaces them
// all at once, and its source path only changes through Relocate.
package checksum

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"CorruptionCorrector/internal/store"
)

const (
	MinChunkSize int64 = 1024
	MaxChunkSize int64 = 10 << 20

	DefaultChunkSize int64 = 16 << 10
)

// ErrLengthMismatch is returned by Relocate when the new file has a
// different length than the one the table was built from.
var ErrLengthMismatch = errors.New("file length does not match table")

// Table is the chunk digest list of one source file.
type Table struct {
	ID           string   `cbor:"id" json:"id" yaml:"id"`
	SourcePath   string   `cbor:"source" json:"source" yaml:"source"`
	SourceLength int64    `cbor:"length" json:"length" yaml:"length"`
	ChunkSize    int64    `cbor:"chunk_size" json:"chunk_size" yaml:"chunk_size"`
	Algorithm    string   `cbor:"algorithm" json:"algorithm" yaml:"algorithm"`
	Digests      []string `cbor:"digests" json:"digests" yaml:"digests"`

	// SavedAs is the path the table was last saved to or loaded from.
	SavedAs string `cbor:"-" json:"saved_as,omitempty" yaml:"saved_as,omitempty"`
}

// ClampChunkSize limits n to [MinChunkSize, MaxChunkSize].
func ClampChunkSize(n int64) int64 {
	if n < MinChunkSize {
		return MinChunkSize
	}
	if n > MaxChunkSize {
		return MaxChunkSize
	}
	return n
}

func (t *Table) ChunkCount() int {
	return len(t.Digests)
}

// DigestAt returns the digest of chunk i, or "" past the end.
func (t *Table) DigestAt(i int) string {
	if i < 0 || i >= len(t.Digests) {
		return ""
	}
	return t.Digests[i]
}

func (t *Table) StartOffset(i int) int64 {
	return int64(i) * t.ChunkSize
}

// EndOffset returns the inclusive offset of the last byte of chunk i,
// or -1 when i is out of range.
func (t *Table) EndOffset(i int) int64 {
	if i < 0 || i >= len(t.Digests) {
		return -1
	}
	return min(t.StartOffset(i+1)-1, t.SourceLength-1)
}

func (t *Table) ChunkLength(i int) int64 {
	end := t.EndOffset(i)
	if end < 0 {
		return 0
	}
	return end - t.StartOffset(i) + 1
}

// Name is the base name of the source file.
func (t *Table) Name() string {
	return filepath.Base(t.SourcePath)
}

func (t *Table) String() string {
	return fmt.Sprintf("%s (%d bytes, %d chunks of %d, %s)",
		t.SourcePath, t.SourceLength, t.ChunkCount(), t.ChunkSize, t.Algorithm)
}

// Relocate points the table at another copy of its source. The new
// path must be a regular file of exactly SourceLength bytes. Nothing is
// re-digested.
func (t *Table) Relocate(newPath string) error {
	info, err := os.Stat(newPath)
	if err != nil {
		return fmt.Errorf("relocate: %w", err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("relocate: %s is not a regular file", newPath)
	}
	if info.Size() != t.SourceLength {
		return fmt.Errorf("relocate %s: %w (got %d, want %d)",
			newPath, ErrLengthMismatch, info.Size(), t.SourceLength)
	}
	t.SourcePath = newPath
	return nil
}

// Save writes the table to path and records it in SavedAs.
func (t *Table) Save(path string, c store.Compression) error {
	if err := store.Save(path, t, c); err != nil {
		return err
	}
	t.SavedAs = path
	return nil
}

// Load reads a table saved with Save.
func Load(path string) (*Table, error) {
	t := &Table{}
	if err := store.Load(path, t); err != nil {
		return nil, err
	}
	t.SavedAs = path
	return t, nil
}
