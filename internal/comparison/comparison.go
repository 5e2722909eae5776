// Package comparison finds the chunks on which several checksum tables
// of the same file disagree and keeps a mark for every copy of every
// such chunk.
//
// A Comparison is dirty after a table is added or removed and clean
// after Compare. Queries and mark changes are refused while it is
// dirty. Cells snapshot the table digest at compare time and refer to
// tables by ID, so marks survive a re-compare and a save/load cycle.
package comparison

import (
	"errors"
	"log/slog"
	"slices"
	"time"

	"CorruptionCorrector/internal/checksum"
	"CorruptionCorrector/internal/logging"
)

const DefaultMaxRecipes = 4096

var (
	ErrNotReady       = errors.New("comparison not compared since last change")
	ErrIrreconcilable = errors.New("a difference has no acceptable copy")
	ErrNoDifferences  = errors.New("no differences")
	ErrTooManyRecipes = errors.New("too many possible recipes")
	ErrInvalidRange   = errors.New("invalid difference range")
)

type Options struct {
	// Mirroring copies a mark onto every cell of the row that holds the
	// same digest.
	Mirroring bool
	// MaxRecipes caps AllRecipes. Zero means DefaultMaxRecipes.
	MaxRecipes int
	Logger     *slog.Logger
}

// Cell is one table's copy of one differing chunk.
type Cell struct {
	Chunk   int    `cbor:"chunk" json:"chunk" yaml:"chunk"`
	TableID string `cbor:"table" json:"table" yaml:"table"`
	Digest  string `cbor:"digest" json:"digest" yaml:"digest"`
	Mark    Mark   `cbor:"mark" json:"mark" yaml:"mark"`
	Caption string `cbor:"caption,omitempty" json:"caption,omitempty" yaml:"caption,omitempty"`
}

// Present reports whether the table had this chunk at compare time.
func (c Cell) Present() bool {
	return c.Digest != ""
}

type Comparison struct {
	Name     string
	Comments string

	opts       Options
	log        *slog.Logger
	tables     []*checksum.Table
	chunks     []int
	cells      [][]Cell
	similarity [][]float64
	dirty      bool
}

func New(opts Options) *Comparison {
	if opts.MaxRecipes <= 0 {
		opts.MaxRecipes = DefaultMaxRecipes
	}
	return &Comparison{
		opts: opts,
		log:  logging.OrDiscard(opts.Logger),
	}
}

func (c *Comparison) Options() Options { return c.opts }
func (c *Comparison) Dirty() bool      { return c.dirty }

// AddTable appends t. It is refused when t is nil, already present, or
// uses a different chunk size or algorithm than the tables already
// added.
func (c *Comparison) AddTable(t *checksum.Table) bool {
	if t == nil || c.IndexOf(t.ID) >= 0 {
		return false
	}
	if len(c.tables) > 0 {
		first := c.tables[0]
		if t.ChunkSize != first.ChunkSize || t.Algorithm != first.Algorithm {
			return false
		}
	}
	c.tables = append(c.tables, t)
	c.dirty = true
	return true
}

func (c *Comparison) RemoveTable(id string) bool {
	return c.RemoveTableAt(c.IndexOf(id))
}

func (c *Comparison) RemoveTableAt(i int) bool {
	if i < 0 || i >= len(c.tables) {
		return false
	}
	c.tables = slices.Delete(c.tables, i, i+1)
	c.dirty = true
	return true
}

// IndexOf returns the position of the table with id, or -1.
func (c *Comparison) IndexOf(id string) int {
	return slices.IndexFunc(c.tables, func(t *checksum.Table) bool { return t.ID == id })
}

func (c *Comparison) Tables() []*checksum.Table {
	return slices.Clone(c.tables)
}

func (c *Comparison) Table(i int) *checksum.Table {
	if i < 0 || i >= len(c.tables) {
		return nil
	}
	return c.tables[i]
}

func (c *Comparison) TableCount() int {
	return len(c.tables)
}

// Compare finds the differing chunks and rebuilds the cells, carrying
// marks over from the previous compare where table, chunk and digest
// are unchanged.
func (c *Comparison) Compare() {
	started := time.Now()
	c.log.Info("compare started", "tables", len(c.tables))

	n := len(c.tables)
	diffCount := make([][]int, n)
	for i := range diffCount {
		diffCount[i] = make([]int, n)
	}

	differs := make(map[int]bool)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			ti, tj := c.tables[i], c.tables[j]
			limit := min(ti.ChunkCount(), tj.ChunkCount())
			for k := 0; k < limit; k++ {
				di, dj := ti.DigestAt(k), tj.DigestAt(k)
				if di != "" && dj != "" && di != dj {
					differs[k] = true
					diffCount[i][j]++
					diffCount[j][i]++
				}
			}
		}
	}

	chunks := make([]int, 0, len(differs))
	for k := range differs {
		chunks = append(chunks, k)
	}
	slices.Sort(chunks)

	cells := make([][]Cell, len(chunks))
	for d, k := range chunks {
		row := make([]Cell, n)
		for ti, t := range c.tables {
			row[ti] = Cell{Chunk: k, TableID: t.ID, Digest: t.DigestAt(k)}
			if row[ti].Digest == "" {
				row[ti].Mark = Bad
			}
		}
		cells[d] = row
	}

	carried := c.carryMarks(cells)

	c.similarity = make([][]float64, n)
	for i := 0; i < n; i++ {
		c.similarity[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			if i == j {
				c.similarity[i][j] = 1
				continue
			}
			shortest := min(c.tables[i].ChunkCount(), c.tables[j].ChunkCount())
			if shortest == 0 {
				c.similarity[i][j] = 1
				continue
			}
			c.similarity[i][j] = 1 - float64(diffCount[i][j])/float64(shortest)
		}
	}

	c.chunks = chunks
	c.cells = cells
	c.dirty = false

	if c.opts.Mirroring {
		for _, ti := range carried {
			for d := range c.cells {
				if c.cells[d][ti].Mark != Undefined {
					c.mirror(d, ti)
				}
			}
		}
	}

	c.log.Info("compare finished", "differences", len(chunks), "elapsed", time.Since(started))
}

// carryMarks copies marks and captions from the current cells into
// cells, for every table present in both. It returns the indexes of
// those tables in the new layout.
//
// Rows are matched greedily per table: each new row takes the first
// old row after the previously matched one with the same chunk and
// digest.
func (c *Comparison) carryMarks(cells [][]Cell) []int {
	if len(c.cells) == 0 {
		return nil
	}

	oldIndex := make(map[string]int, len(c.cells[0]))
	for oi, cell := range c.cells[0] {
		oldIndex[cell.TableID] = oi
	}

	var carried []int
	for ti, t := range c.tables {
		oi, ok := oldIndex[t.ID]
		if !ok {
			continue
		}
		carried = append(carried, ti)

		prev := -1
		for d := range cells {
			nc := &cells[d][ti]
			if !nc.Present() {
				continue
			}
			for r := prev + 1; r < len(c.cells); r++ {
				oc := c.cells[r][oi]
				if oc.Chunk == nc.Chunk && oc.Digest == nc.Digest {
					nc.Mark = oc.Mark
					nc.Caption = oc.Caption
					prev = r
					break
				}
			}
		}
	}
	return carried
}
