// Package store saves and loads checksum tables and comparison
// projects.
//
// A saved file starts with a six byte header: the magic "CCOR", a
// format version and a Compression tag. The rest is a CBOR body using
// Core Deterministic Encoding, compressed as the tag says. Saves go to
// a temporary file in the destination directory which is renamed into
// place, so a failed save never clobbers the previous file.
package store

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fxamacker/cbor/v2"
)

const (
	// TableExt is the conventional extension of a saved checksum table.
	TableExt = ".ccf"
	// ProjectExt is the conventional extension of a saved comparison.
	ProjectExt = ".ccp"

	formatVersion = 1
	headerLen     = 6
)

var magic = []byte("CCOR")

// ErrFormat reports a file that is not a store file or uses an
// unsupported version or compression.
var ErrFormat = errors.New("store: unrecognised file format")

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error

	encOptions := cbor.CoreDetEncOptions()
	encOptions.TextMarshaler = cbor.TextMarshalerTextString
	encMode, err = encOptions.EncMode()
	if err != nil {
		panic("store: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		TextUnmarshaler: cbor.TextUnmarshalerTextString,
	}.DecMode()
	if err != nil {
		panic("store: CBOR decoder initialization failed: " + err.Error())
	}
}

// Save encodes v and writes it to path.
func Save(path string, v any, c Compression) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", path, err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if err = Encode(tmp, v, c); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", tmpName, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err = os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename %s: %w", tmpName, err)
	}
	return nil
}

// Load reads path and decodes its body into v.
func Load(path string, v any) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if err := Decode(bufio.NewReader(f), v); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Encode writes the header and the compressed body of v to w.
func Encode(w io.Writer, v any, c Compression) error {
	header := append(append([]byte{}, magic...), formatVersion, byte(c))

	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	body, err := compressWriter(w, c)
	if err != nil {
		return err
	}
	if err := encMode.NewEncoder(body).Encode(v); err != nil {
		_ = body.Close()
		return fmt.Errorf("encode: %w", err)
	}
	if err := body.Close(); err != nil {
		return fmt.Errorf("flush body: %w", err)
	}
	return nil
}

// Decode reads a header and body written by Encode into v.
func Decode(r io.Reader, v any) error {
	header := make([]byte, headerLen)
	if _, err := io.ReadFull(r, header); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return ErrFormat
		}
		return fmt.Errorf("read header: %w", err)
	}
	if !bytes.Equal(header[:len(magic)], magic) {
		return ErrFormat
	}
	if header[4] != formatVersion {
		return fmt.Errorf("%w: version %d", ErrFormat, header[4])
	}

	body, err := decompressReader(r, Compression(header[5]))
	if err != nil {
		return err
	}
	defer body.Close()

	if err := decMode.NewDecoder(body).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrFormat, err)
	}
	return nil
}
