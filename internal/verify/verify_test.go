package verify

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"CorruptionCorrector/internal/digest"
	"CorruptionCorrector/internal/index"
	"CorruptionCorrector/internal/metrics"
	"CorruptionCorrector/internal/progress"
	"CorruptionCorrector/internal/recipe"
)

func sha256Hex(content []byte) string {
	h := sha256.Sum256(content)
	return hex.EncodeToString(h[:])
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, data, 0o600); err != nil {
		t.Fatalf("write file %s: %v", p, err)
	}
	return p
}

type cancelled struct{}

func (cancelled) SetRange(int, int) {}
func (cancelled) SetProgress(int)   {}
func (cancelled) SetNote(string)    {}
func (cancelled) Cancelled() bool   { return true }

func TestVerify_TableDriven(t *testing.T) {
	dir := t.TempDir()

	goodContent := makeTestData(3000)
	badContent := makeTestData(2048)

	goodPath := writeFile(t, dir, "good.bin", goodContent)
	badPath := writeFile(t, dir, "bad.bin", badContent)

	goodHash := strings.ToUpper(sha256Hex(goodContent))
	wrongHash := sha256Hex([]byte("not the file content"))

	item := func(path string, length int64, hash string) index.FileItem {
		return index.FileItem{Ok: true, Path: path, Length: length, Hash: hash, Algorithm: digest.SHA256}
	}

	tests := []struct {
		name    string
		items   []index.FileItem
		want    want
		wantMis []Mismatch
		workers int
	}{
		{
			name:    "all ok",
			workers: 2,
			items:   []index.FileItem{item(goodPath, int64(len(goodContent)), goodHash)},
			want:    want{processed: 1, ok: 1},
		},
		{
			name:    "hash mismatch recorded",
			workers: 2,
			items:   []index.FileItem{item(badPath, int64(len(badContent)), wrongHash)},
			want:    want{processed: 1, mismatches: 1},
			wantMis: []Mismatch{{Path: badPath, Expected: wrongHash}},
		},
		{
			name:    "skip when item has error",
			workers: 2,
			items: []index.FileItem{{
				Path:      goodPath,
				Length:    int64(len(goodContent)),
				Hash:      goodHash,
				Algorithm: digest.SHA256,
				Error:     ptr("some prior error"),
			}},
			want: want{processed: 1, skipped: 1},
		},
		{
			name:    "stat error when file missing",
			workers: 2,
			items:   []index.FileItem{item(filepath.Join(dir, "does-not-exist.bin"), 123, "ABC")},
			want:    want{processed: 1, errors: 1},
		},
		{
			name:    "length change counts as mismatch",
			workers: 1,
			items:   []index.FileItem{item(goodPath, int64(len(goodContent)+1), goodHash)},
			want:    want{processed: 1, mismatches: 1},
		},
		{
			name:    "unknown algorithm is a hash error",
			workers: 1,
			items: []index.FileItem{{
				Ok: true, Path: goodPath, Length: int64(len(goodContent)), Hash: goodHash, Algorithm: "SHA-512",
			}},
			want: want{processed: 1, errors: 1},
		},
		{
			name:    "mixed batch updates all counters",
			workers: 3,
			items: []index.FileItem{
				item(goodPath, int64(len(goodContent)), goodHash),
				item(badPath, int64(len(badContent)), wrongHash),
				{Path: goodPath, Length: int64(len(goodContent)), Hash: goodHash, Error: ptr("prior error")},
				item(filepath.Join(dir, "missing.bin"), 5, "X"),
				item(goodPath, int64(len(goodContent)+10), goodHash),
			},
			want:    want{processed: 5, ok: 1, skipped: 1, errors: 1, mismatches: 2},
			wantMis: []Mismatch{{Path: badPath, Expected: wrongHash}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stats := &metrics.Stats{}

			res, err := Verify(tt.items, Options{Workers: tt.workers}, stats)
			if err != nil {
				t.Fatalf("Verify: %v", err)
			}

			got := want{
				processed:  atomic.LoadInt64(&stats.Processed),
				ok:         atomic.LoadInt64(&stats.Matches),
				skipped:    atomic.LoadInt64(&stats.Skipped),
				errors:     atomic.LoadInt64(&stats.Errors),
				mismatches: atomic.LoadInt64(&stats.Mismatches),
			}
			if got != tt.want {
				t.Fatalf("stats mismatch:\n got: %+v\nwant: %+v", got, tt.want)
			}
			if int64(len(res.Mismatches)) != tt.want.mismatches {
				t.Fatalf("recorded %d mismatches, want %d", len(res.Mismatches), tt.want.mismatches)
			}

			for _, w := range tt.wantMis {
				found := false
				for _, m := range res.Mismatches {
					if m.Path == w.Path && strings.EqualFold(m.Expected, w.Expected) {
						found = true
						if strings.TrimSpace(m.Computed) == "" {
							t.Fatalf("mismatch for %s has empty Computed", m.Path)
						}
						break
					}
				}
				if !found {
					t.Fatalf("expected mismatch for path=%q expected=%q not found; got=%+v", w.Path, w.Expected, res.Mismatches)
				}
			}
		})
	}
}

func TestVerify_DetectsOneBitFlip(t *testing.T) {
	dir := t.TempDir()
	data := makeTestData(64 << 10)
	p := writeFile(t, dir, "a.bin", data)
	items := []index.FileItem{{Ok: true, Path: p, Length: int64(len(data)), Hash: sha256Hex(data), Algorithm: digest.SHA256}}

	res, err := Verify(items, Options{}, nil)
	if err != nil || len(res.Mismatches) != 0 {
		t.Fatalf("before flip: %+v %v", res, err)
	}

	flipOneBitInFile(t, p, int64(len(data)/2), 3)

	res, err = Verify(items, Options{}, nil)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if len(res.Mismatches) != 1 || res.Mismatches[0].Reason != "digest differs" {
		t.Fatalf("after flip: %+v", res.Mismatches)
	}
}

func TestVerify_Cancelled(t *testing.T) {
	dir := t.TempDir()
	data := makeTestData(4096)
	p := writeFile(t, dir, "a.bin", data)
	items := []index.FileItem{{Ok: true, Path: p, Length: int64(len(data)), Hash: sha256Hex(data), Algorithm: digest.SHA256}}

	if _, err := Verify(items, Options{Monitor: cancelled{}}, nil); err != progress.ErrCancelled {
		t.Fatalf("got %v, want ErrCancelled", err)
	}
}

func TestFileHashHex_ReportsProgress(t *testing.T) {
	dir := t.TempDir()
	data := makeTestData(3<<20 + 17)
	p := writeFile(t, dir, "a.bin", data)

	var seen int64
	got, err := FileHashHex(p, "sha256", func(n int64) { seen += n })
	if err != nil {
		t.Fatalf("FileHashHex: %v", err)
	}
	if got != sha256Hex(data) {
		t.Fatalf("digest: got %s, want %s", got, sha256Hex(data))
	}
	if seen != int64(len(data)) {
		t.Fatalf("progress: got %d, want %d", seen, len(data))
	}
}

// corruptedPair writes two copies of a 2048 byte file: a is damaged in
// the first half, b in the second.
func corruptedPair(t *testing.T) (good []byte, g, a, b string) {
	t.Helper()
	dir := t.TempDir()
	good = makeTestData(2048)
	g = writeFile(t, dir, "good.bin", good)
	a = writeFile(t, dir, "a.bin", good)
	b = writeFile(t, dir, "b.bin", good)
	flipOneBitInFile(t, a, 10, 0)
	flipOneBitInFile(t, b, 2000, 7)
	return good, g, a, b
}

func split(first, second string) *recipe.Recipe {
	r := &recipe.Recipe{}
	r.Add(first, 0, 1023)
	r.Add(second, 1024, 2047)
	return r
}

func whole(src string) *recipe.Recipe {
	r := &recipe.Recipe{}
	r.Add(src, 0, 2047)
	return r
}

func TestCandidates_SharedBoundaries(t *testing.T) {
	good, _, a, b := corruptedPair(t)
	recipes := []*recipe.Recipe{split(a, a), split(a, b), split(b, a), split(b, b)}

	stats := &metrics.Stats{}
	found, err := Candidates(recipes, digest.SHA256, strings.ToUpper(sha256Hex(good)), Options{}, recipe.Options{}, stats)
	if err != nil {
		t.Fatalf("Candidates: %v", err)
	}
	if len(found) != 1 || found[0].Index != 2 {
		t.Fatalf("found: %+v, want only recipe 2", found)
	}
	if stats.Matches != 1 || stats.Mismatches != 3 {
		t.Fatalf("stats: matches=%d mismatches=%d", stats.Matches, stats.Mismatches)
	}
	// each source read once per segment
	if stats.BytesRead != 2*2048 {
		t.Fatalf("BytesRead: got %d, want %d", stats.BytesRead, 2*2048)
	}
}

func TestCandidates_MixedBoundaries(t *testing.T) {
	good, g, a, b := corruptedPair(t)
	recipes := []*recipe.Recipe{split(b, a), whole(g), whole(a)}

	found, err := Candidates(recipes, digest.MD5, md5Of(good), Options{Workers: 2}, recipe.Options{}, nil)
	if err != nil {
		t.Fatalf("Candidates: %v", err)
	}
	if len(found) != 2 || found[0].Index != 0 || found[1].Index != 1 {
		t.Fatalf("found: %+v, want recipes 0 and 1", found)
	}
}

func TestCandidates_NoneMatch(t *testing.T) {
	_, _, a, b := corruptedPair(t)

	found, err := Candidates([]*recipe.Recipe{split(a, b)}, digest.SHA256, sha256Hex([]byte("x")), Options{}, recipe.Options{}, nil)
	if err != nil {
		t.Fatalf("Candidates: %v", err)
	}
	if len(found) != 0 {
		t.Fatalf("found: %+v", found)
	}
}

func md5Of(b []byte) string {
	d := digest.NewPlain(digest.MD5)
	d.Update(b)
	return d.HexValue()
}

type want struct {
	processed  int64
	ok         int64
	skipped    int64
	errors     int64
	mismatches int64
}

func ptr(s string) *string { return &s }

func makeTestData(size int) []byte {
	b := make([]byte, size)
	_, _ = rand.Read(b) // fine for tests
	return b
}

func flipOneBitInFile(t *testing.T, path string, offset int64, bit uint8) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		t.Fatalf("open for r/w %s: %v", path, err)
	}
	defer f.Close()

	var one [1]byte
	if _, err := f.ReadAt(one[:], offset); err != nil {
		t.Fatalf("readat %s offset %d: %v", path, offset, err)
	}

	one[0] ^= (1 << bit)

	if _, err := f.WriteAt(one[:], offset); err != nil {
		t.Fatalf("writeat %s offset %d: %v", path, offset, err)
	}
}
