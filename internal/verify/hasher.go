package verify

import (
	"fmt"
	"io"
	"os"

	"CorruptionCorrector/internal/digest"
)

const hashBuffer = 1 << 20

// FileHashHex digests the whole file at path. onProgress is called with
// the number of bytes read, roughly once per MiB.
func FileHashHex(path string, algorithm string, onProgress func(n int64)) (string, error) {
	name, ok := digest.Canonical(algorithm)
	if !ok {
		return "", fmt.Errorf("unsupported algorithm: %q", algorithm)
	}
	d := digest.NewPlain(name)

	f, err := os.Open(path) // #nosec G304
	if err != nil {
		return "", err
	}
	defer func() {
		_ = f.Close()
	}()

	buf := make([]byte, hashBuffer)
	var pending int64
	flush := func() {
		if pending > 0 && onProgress != nil {
			onProgress(pending)
			pending = 0
		}
	}

	for {
		n, rerr := f.Read(buf)
		if n > 0 {
			d.Update(buf[:n])
			pending += int64(n)
			if pending >= hashBuffer {
				flush()
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return "", rerr
		}
	}
	flush()

	return d.HexValue(), nil
}
