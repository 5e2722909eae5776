package comparison

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"CorruptionCorrector/internal/store"
)

func TestSaveLoad(t *testing.T) {
	for _, comp := range []store.Compression{store.CompressionNone, store.CompressionLZ4, store.CompressionZstd} {
		t.Run(comp.String(), func(t *testing.T) {
			c := compared(t, Options{Mirroring: true},
				table("a", "1", "2", "3"), table("b", "1", "X", "3"), table("c", "Y", "2"))
			c.Name = "holiday video"
			c.Comments = "three downloads"
			c.SetMark(0, 2, Bad)
			c.SetMark(1, 1, Good)
			c.SetCaption(1, 1, "verified")

			path := filepath.Join(t.TempDir(), "p"+store.ProjectExt)
			if err := c.Save(path, comp); err != nil {
				t.Fatalf("Save: %v", err)
			}

			got, err := Load(path, Options{Mirroring: true})
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if got.Name != c.Name || got.Comments != c.Comments || got.Dirty() {
				t.Fatalf("header: got %q %q dirty=%v", got.Name, got.Comments, got.Dirty())
			}
			if got.TableCount() != 3 || got.Differences() != c.Differences() {
				t.Fatalf("got %d tables %d differences", got.TableCount(), got.Differences())
			}
			for d := 0; d < c.Differences(); d++ {
				if !reflect.DeepEqual(got.Row(d), c.Row(d)) {
					t.Fatalf("row %d: got %+v, want %+v", d, got.Row(d), c.Row(d))
				}
			}
			if got.Similarity(0, 1) != c.Similarity(0, 1) {
				t.Fatalf("similarity: got %v, want %v", got.Similarity(0, 1), c.Similarity(0, 1))
			}

			// loaded comparisons keep working
			got.Compare()
			if cell, _ := got.Cell(1, 1); cell.Mark != Good || cell.Caption != "verified" {
				t.Fatalf("after recompare: %+v", cell)
			}
		})
	}
}

func TestLoad_RelinksCellsByTableID(t *testing.T) {
	c := compared(t, Options{}, table("a", "1"), table("b", "2"))
	c.SetMark(0, 1, Good)

	// swap the saved cells so the row no longer follows table order
	c.cells[0][0], c.cells[0][1] = c.cells[0][1], c.cells[0][0]

	path := filepath.Join(t.TempDir(), "p"+store.ProjectExt)
	if err := c.Save(path, store.CompressionNone); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path, Options{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cell, _ := got.Cell(0, 1); cell.TableID != "b" || cell.Mark != Good {
		t.Fatalf("cell (0, 1): got %+v", cell)
	}
}

func TestLoad_RejectsUnknownTable(t *testing.T) {
	c := compared(t, Options{}, table("a", "1"), table("b", "2"))
	c.cells[0][1].TableID = "ghost"

	path := filepath.Join(t.TempDir(), "p"+store.ProjectExt)
	if err := c.Save(path, store.CompressionNone); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := Load(path, Options{}); !errors.Is(err, store.ErrFormat) {
		t.Fatalf("expected ErrFormat, got %v", err)
	}
}

func TestLoad_MirroringAppliesOnNextCompare(t *testing.T) {
	c := compared(t, Options{},
		table("a", "1", "X"), table("b", "1", "X"), table("c", "1", "Y"))
	c.SetMark(0, 0, Good)
	if got := marks(c, 0); !reflect.DeepEqual(got, []Mark{Good, Undefined, Undefined}) {
		t.Fatalf("marks without mirroring: %v", got)
	}

	path := filepath.Join(t.TempDir(), "p"+store.ProjectExt)
	if err := c.Save(path, store.CompressionNone); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := Load(path, Options{Mirroring: true})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	// loading alone keeps the saved marks
	if got := marks(loaded, 0); !reflect.DeepEqual(got, []Mark{Good, Undefined, Undefined}) {
		t.Fatalf("marks after load: %v", got)
	}

	// the unmarked sibling must not wipe the Good mark it shares a digest with
	loaded.Compare()
	if got := marks(loaded, 0); !reflect.DeepEqual(got, []Mark{Good, Good, Undefined}) {
		t.Fatalf("marks after compare: %v", got)
	}
}
