package comparison

import (
	"fmt"

	"CorruptionCorrector/internal/checksum"
	"CorruptionCorrector/internal/store"
)

// project is the saved form of a Comparison. Tables are embedded and
// cells name their table by ID.
type project struct {
	Name       string            `cbor:"name"`
	Comments   string            `cbor:"comments,omitempty"`
	Tables     []*checksum.Table `cbor:"tables"`
	Chunks     []int             `cbor:"chunks"`
	Cells      [][]Cell          `cbor:"cells"`
	Similarity [][]float64       `cbor:"similarity"`
	Dirty      bool              `cbor:"dirty"`
}

// Save writes the comparison, including its tables, to path.
func (c *Comparison) Save(path string, compression store.Compression) error {
	p := project{
		Name:       c.Name,
		Comments:   c.Comments,
		Tables:     c.tables,
		Chunks:     c.chunks,
		Cells:      c.cells,
		Similarity: c.similarity,
		Dirty:      c.dirty,
	}
	if err := store.Save(path, p, compression); err != nil {
		return err
	}
	c.log.Info("project saved", "path", path, "tables", len(c.tables), "differences", len(c.chunks))
	return nil
}

// Load reads a comparison saved with Save. Cells are put back in the
// column of the table they name.
func Load(path string, opts Options) (*Comparison, error) {
	var p project
	if err := store.Load(path, &p); err != nil {
		return nil, err
	}

	c := New(opts)
	c.Name = p.Name
	c.Comments = p.Comments
	c.tables = p.Tables
	c.chunks = p.Chunks
	c.similarity = p.Similarity
	c.dirty = p.Dirty

	if len(p.Cells) != len(p.Chunks) {
		return nil, fmt.Errorf("load %s: %w: %d rows for %d differences",
			path, store.ErrFormat, len(p.Cells), len(p.Chunks))
	}

	c.cells = make([][]Cell, len(p.Cells))
	for d, saved := range p.Cells {
		if len(saved) != len(c.tables) {
			return nil, fmt.Errorf("load %s: %w: row %d has %d cells for %d tables",
				path, store.ErrFormat, d, len(saved), len(c.tables))
		}
		row := make([]Cell, len(c.tables))
		for _, cell := range saved {
			t := c.IndexOf(cell.TableID)
			if t < 0 {
				return nil, fmt.Errorf("load %s: %w: cell for unknown table %s",
					path, store.ErrFormat, cell.TableID)
			}
			row[t] = cell
		}
		c.cells[d] = row
	}

	if !c.dirty && len(c.similarity) != len(c.tables) {
		c.dirty = true
	}

	c.log.Info("project loaded", "path", path, "tables", len(c.tables), "differences", len(c.chunks))
	return c, nil
}
