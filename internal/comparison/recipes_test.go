package comparison

import (
	"bytes"
	"crypto/md5" // #nosec G501 -- test vectors only
	"encoding/hex"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"CorruptionCorrector/internal/checksum"
	"CorruptionCorrector/internal/digest"
	"CorruptionCorrector/internal/recipe"
)

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", p, err)
	}
	return p
}

func makeTestData(n int, seed int64) []byte {
	b := make([]byte, n)
	r := rand.New(rand.NewSource(seed))
	_, _ = r.Read(b)
	return b
}

// corruptCopy writes data with one byte flipped in each listed chunk.
func corruptCopy(t *testing.T, dir, name string, data []byte, chunks ...int) string {
	t.Helper()
	b := append([]byte(nil), data...)
	for _, k := range chunks {
		b[k*1024+100] ^= 0xFF
	}
	return writeFile(t, dir, name, b)
}

func build(t *testing.T, path string) *checksum.Table {
	t.Helper()
	tbl, err := checksum.Build(path, 1024, digest.CRC32, checksum.Options{})
	if err != nil {
		t.Fatalf("Build %s: %v", path, err)
	}
	return tbl
}

func segments(r *recipe.Recipe) []recipe.Segment {
	return r.Segments
}

func TestCountPossibleRecipes(t *testing.T) {
	tests := []struct {
		name  string
		marks []Mark
		want  int
	}{
		{"good wins", []Mark{Good, Bad, Unsure}, 1},
		{"unsure and undefined", []Mark{Unsure, Unsure, Bad}, 2},
		{"all open", []Mark{Undefined, Unsure, Undefined}, 3},
		{"all bad", []Mark{Bad, Bad, Bad}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := compared(t, Options{}, table("a", "x"), table("b", "y"), table("c", "z"))
			for col, m := range tt.marks {
				c.SetMark(0, col, m)
			}
			got, err := c.CountPossibleRecipes()
			if err != nil {
				t.Fatalf("CountPossibleRecipes: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCountPossibleRecipes_ZeroStopsEarly(t *testing.T) {
	c := compared(t, Options{}, table("a", "1", "2"), table("b", "X", "Y"))
	c.SetMark(0, 0, Bad)
	c.SetMark(0, 1, Bad)

	if got, _ := c.CountPossibleRecipes(); got != 0 {
		t.Fatalf("got %d, want 0", got)
	}
	if _, err := c.AllRecipes(); !errors.Is(err, ErrIrreconcilable) {
		t.Fatalf("AllRecipes: expected ErrIrreconcilable, got %v", err)
	}
	if _, err := c.GoodRecipe(); !errors.Is(err, ErrIrreconcilable) {
		t.Fatalf("GoodRecipe: expected ErrIrreconcilable, got %v", err)
	}
}

func TestCountPossibleRecipes_Overflow(t *testing.T) {
	var da, db, dc []string
	for k := 0; k < 41; k++ {
		da = append(da, fmt.Sprintf("a%d", k))
		db = append(db, fmt.Sprintf("b%d", k))
		dc = append(dc, fmt.Sprintf("c%d", k))
	}
	c := compared(t, Options{}, table("a", da...), table("b", db...), table("c", dc...))

	if _, err := c.CountPossibleRecipes(); !errors.Is(err, ErrTooManyRecipes) {
		t.Fatalf("expected ErrTooManyRecipes, got %v", err)
	}
}

func TestCountPossibleRecipes_UnrepairableBeatsOverflow(t *testing.T) {
	var da, db, dc []string
	for k := 0; k < 42; k++ {
		da = append(da, fmt.Sprintf("a%d", k))
		db = append(db, fmt.Sprintf("b%d", k))
		dc = append(dc, fmt.Sprintf("c%d", k))
	}
	c := compared(t, Options{}, table("a", da...), table("b", db...), table("c", dc...))
	last := c.Differences() - 1
	for ti := 0; ti < 3; ti++ {
		c.SetMark(last, ti, Bad)
	}

	n, err := c.CountPossibleRecipes()
	if err != nil || n != 0 {
		t.Fatalf("CountPossibleRecipes: got %d, %v, want 0, nil", n, err)
	}
	if _, err := c.AllRecipes(); !errors.Is(err, ErrIrreconcilable) {
		t.Fatalf("AllRecipes: got %v, want ErrIrreconcilable", err)
	}
}

func TestGoodRecipe(t *testing.T) {
	a := table("a", "x0", "x1", "x2", "x3")
	b := table("b", "y0", "x1", "y2", "x3")
	c := compared(t, Options{}, a, b)

	if _, err := c.GoodRecipe(); !errors.Is(err, ErrIrreconcilable) {
		t.Fatalf("unmarked: expected ErrIrreconcilable, got %v", err)
	}

	c.SetMark(0, 1, Good)
	c.SetMark(1, 0, Good)
	r, err := c.GoodRecipe()
	if err != nil {
		t.Fatalf("GoodRecipe: %v", err)
	}

	want := []recipe.Segment{
		{Source: b.SourcePath, Start: 0, End: 1023},
		{Source: a.SourcePath, Start: 1024, End: 4095},
	}
	if !reflect.DeepEqual(segments(r), want) {
		t.Fatalf("got %+v, want %+v", segments(r), want)
	}
	if err := r.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestGoodRecipe_TakesFirstGood(t *testing.T) {
	c := compared(t, Options{}, table("a", "x"), table("b", "y"), table("c", "z"))
	c.SetMark(0, 1, Good)
	c.SetMark(0, 2, Good)

	r, err := c.GoodRecipe()
	if err != nil {
		t.Fatalf("GoodRecipe: %v", err)
	}
	if got := r.Segments[0].Source; got != "/copies/b" {
		t.Fatalf("source: got %s, want /copies/b", got)
	}
}

func TestAllRecipes_EnumeratesCombinations(t *testing.T) {
	a := table("a", "x0", "x1", "x2")
	b := table("b", "y0", "x1", "y2")
	cc := table("c", "z0", "x1", "z2")
	c := compared(t, Options{}, a, b, cc)
	c.SetMark(1, 0, Bad)

	n, err := c.CountPossibleRecipes()
	if err != nil || n != 6 {
		t.Fatalf("CountPossibleRecipes: got %d, %v", n, err)
	}

	recipes, err := c.AllRecipes()
	if err != nil {
		t.Fatalf("AllRecipes: %v", err)
	}
	if len(recipes) != 6 {
		t.Fatalf("got %d recipes, want 6", len(recipes))
	}

	first := []string{a.SourcePath, b.SourcePath, cc.SourcePath}
	second := []string{b.SourcePath, cc.SourcePath}
	seen := make(map[string]bool)
	for i, r := range recipes {
		want := []recipe.Segment{
			{Source: first[i/2], Start: 0, End: 1023},
			{Source: second[i%2], Start: 1024, End: 3071},
		}
		if !reflect.DeepEqual(segments(r), want) {
			t.Fatalf("recipe %d: got %+v, want %+v", i, segments(r), want)
		}
		seen[r.String()] = true
	}
	if len(seen) != 6 {
		t.Fatalf("recipes are not distinct")
	}
}

func TestAllRecipes_GoodOverridesOthers(t *testing.T) {
	c := compared(t, Options{}, table("a", "x", "1"), table("b", "y", "2"), table("c", "z", "3"))
	c.SetMark(0, 2, Good)

	recipes, err := c.AllRecipes()
	if err != nil {
		t.Fatalf("AllRecipes: %v", err)
	}
	if len(recipes) != 3 {
		t.Fatalf("got %d recipes, want 3", len(recipes))
	}
	for i, r := range recipes {
		if r.Segments[0].Source != "/copies/c" {
			t.Fatalf("recipe %d: first segment from %s", i, r.Segments[0].Source)
		}
	}
}

func TestAllRecipes_Limit(t *testing.T) {
	c := compared(t, Options{MaxRecipes: 5},
		table("a", "x0", "x1"), table("b", "y0", "y1"), table("c", "z0", "z1"))

	if _, err := c.AllRecipes(); !errors.Is(err, ErrTooManyRecipes) {
		t.Fatalf("expected ErrTooManyRecipes, got %v", err)
	}
}

func TestGoodRecipe_TwoChunks(t *testing.T) {
	dir := t.TempDir()
	data := makeTestData(2000, 1)
	a := writeFile(t, dir, "a.bin", data)
	b := corruptCopy(t, dir, "b.bin", data, 0)

	c := compared(t, Options{}, build(t, a), build(t, b))
	if c.Differences() != 1 || c.Chunk(0) != 0 {
		t.Fatalf("differences: got %d", c.Differences())
	}
	c.SetMark(0, 0, Good)

	r, err := c.GoodRecipe()
	if err != nil {
		t.Fatalf("GoodRecipe: %v", err)
	}
	first := r.Segments[0]
	if first.Source != a || first.Start != 0 || first.End < 1023 || r.Length() != 2000 {
		t.Fatalf("got %+v", r.Segments)
	}
}

func TestGoodRecipe_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	good := makeTestData(5000, 2)
	a := corruptCopy(t, dir, "a.bin", good, 0)
	b := corruptCopy(t, dir, "b.bin", good, 2, 4)

	c := compared(t, Options{Mirroring: true}, build(t, a), build(t, b))
	if c.Differences() != 3 {
		t.Fatalf("differences: got %d, want 3", c.Differences())
	}
	c.SetMark(0, 1, Good)
	c.SetMark(1, 0, Good)
	c.SetMark(2, 0, Good)

	r, err := c.GoodRecipe()
	if err != nil {
		t.Fatalf("GoodRecipe: %v", err)
	}
	out := filepath.Join(dir, "repaired.bin")
	if err := r.WriteFile(out, recipe.Options{}); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	got, _ := os.ReadFile(out)
	if !bytes.Equal(got, good) {
		t.Fatalf("repaired file differs from the original")
	}

	c.AddTable(build(t, out))
	c.Compare()
	if c.Differences() != 3 {
		t.Fatalf("repaired copy added differences: got %d", c.Differences())
	}
	for d := 0; d < c.Differences(); d++ {
		if cell, _ := c.Cell(d, 2); cell.Mark != Good {
			t.Fatalf("difference %d: repaired copy marked %v", d, cell.Mark)
		}
	}
}

func TestAllRecipes_DigestManyFindsOriginal(t *testing.T) {
	dir := t.TempDir()
	good := makeTestData(4096, 3)
	a := corruptCopy(t, dir, "a.bin", good, 1)
	b := corruptCopy(t, dir, "b.bin", good, 3)

	c := compared(t, Options{}, build(t, a), build(t, b))
	recipes, err := c.AllRecipes()
	if err != nil {
		t.Fatalf("AllRecipes: %v", err)
	}
	if len(recipes) != 4 {
		t.Fatalf("got %d recipes, want 4", len(recipes))
	}

	sums, err := recipe.DigestMany(recipes, digest.MD5, recipe.Options{})
	if err != nil {
		t.Fatalf("DigestMany: %v", err)
	}
	sum := md5.Sum(good) // #nosec G401 -- test vectors only
	want := hex.EncodeToString(sum[:])

	matches := 0
	for _, s := range sums {
		if s == want {
			matches++
		}
	}
	if matches != 1 {
		t.Fatalf("%d recipes reproduce the original, want 1", matches)
	}
}
