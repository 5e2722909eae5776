// Package index reads sum files as written by md5sum, sha1sum,
// sha256sum and their BSD-style --tag output.
package index

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"CorruptionCorrector/internal/digest"
)

// byHexLength guesses the algorithm of an untagged line.
var byHexLength = map[int]string{
	8:  digest.CRC32,
	32: digest.MD5,
	40: digest.SHA1,
	64: digest.SHA256,
}

// Load parses the sum file at path. Relative names are resolved
// against the directory of the sum file and each named file is stat'ed
// to fill Length.
func Load(path string) (run RunInfo, items []FileItem, err error) {
	f, err := os.Open(path) // #nosec G304
	if err != nil {
		return RunInfo{}, nil, err
	}
	defer func() {
		_ = f.Close()
	}()

	items, err = Parse(f)
	if err != nil {
		return RunInfo{}, nil, fmt.Errorf("%s: %w", path, err)
	}

	root := filepath.Dir(path)
	run = RunInfo{Root: root, Total: int64(len(items))}

	for i := range items {
		fi := &items[i]
		fi.Path = fi.Name
		if !filepath.IsAbs(fi.Path) {
			fi.Path = filepath.Join(root, fi.Path)
		}

		st, serr := os.Stat(fi.Path)
		if serr != nil {
			msg := serr.Error()
			fi.Error = &msg
			run.ErrorCount++
			continue
		}
		fi.Ok = true
		fi.Length = st.Size()
		run.OkCount++
		run.TotalBytes += fi.Length
	}

	run.Algorithm = commonAlgorithm(items)
	return run, items, nil
}

// Parse reads sum lines from r. Blank lines and lines starting with
// '#' are skipped. Path, Length and Ok are left for the caller.
func Parse(r io.Reader) ([]FileItem, error) {
	items := []FileItem{}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64<<10), 1<<20)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(text) == "" || strings.HasPrefix(text, "#") {
			continue
		}

		fi, err := parseLine(text)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		items = append(items, fi)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func parseLine(text string) (FileItem, error) {
	escaped := strings.HasPrefix(text, "\\")
	if escaped {
		text = text[1:]
	}

	var fi FileItem
	if tag, rest, ok := strings.Cut(text, " ("); ok && isTag(tag) {
		// ALG (name) = hex
		i := strings.LastIndex(rest, ") = ")
		if i < 0 {
			return FileItem{}, fmt.Errorf("malformed tagged line")
		}
		name, ok := digest.Canonical(tag)
		if !ok {
			return FileItem{}, fmt.Errorf("unknown algorithm %q", tag)
		}
		fi = FileItem{Name: rest[:i], Hash: rest[i+4:], Algorithm: name}
	} else {
		// hex  name, or hex *name in binary mode
		hash, rest, ok := strings.Cut(text, " ")
		if !ok || len(rest) < 2 || (rest[0] != ' ' && rest[0] != '*') {
			return FileItem{}, fmt.Errorf("malformed line")
		}
		alg, known := byHexLength[len(hash)]
		if !known {
			return FileItem{}, fmt.Errorf("cannot tell the algorithm of a %d digit digest", len(hash))
		}
		fi = FileItem{Name: rest[1:], Hash: hash, Algorithm: alg}
	}

	if _, err := hex.DecodeString(fi.Hash); err != nil || fi.Hash == "" {
		return FileItem{}, fmt.Errorf("invalid digest %q", fi.Hash)
	}
	fi.Hash = strings.ToLower(fi.Hash)
	if escaped {
		fi.Name = unescape(fi.Name)
	}
	if fi.Name == "" {
		return FileItem{}, fmt.Errorf("missing file name")
	}
	return fi, nil
}

// isTag reports whether s looks like an algorithm tag such as SHA256
// or BLAKE3.
func isTag(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !(r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '-') {
			return false
		}
	}
	_, err := hex.DecodeString(s)
	return err != nil || len(s) < 8
}

func unescape(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			switch s[i+1] {
			case 'n':
				b.WriteByte('\n')
				i++
				continue
			case '\\':
				b.WriteByte('\\')
				i++
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func commonAlgorithm(items []FileItem) string {
	if len(items) == 0 {
		return ""
	}
	alg := items[0].Algorithm
	for _, fi := range items[1:] {
		if fi.Algorithm != alg {
			return ""
		}
	}
	return alg
}

// GuessAlgorithm names the algorithm of a bare hex digest from its
// length.
func GuessAlgorithm(hexDigest string) (string, bool) {
	alg, ok := byHexLength[len(strings.TrimSpace(hexDigest))]
	return alg, ok
}

// Lookup returns the entry whose name has the same base name as name.
func Lookup(items []FileItem, name string) (FileItem, bool) {
	base := filepath.Base(name)
	for _, fi := range items {
		if filepath.Base(fi.Name) == base {
			return fi, true
		}
	}
	return FileItem{}, false
}
