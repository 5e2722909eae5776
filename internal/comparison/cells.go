package comparison

import (
	"fmt"
	"slices"
)

// Differences returns the number of differing chunks, or -1 while
// dirty.
func (c *Comparison) Differences() int {
	if c.dirty {
		return -1
	}
	return len(c.chunks)
}

// Chunk returns the chunk index of difference d, or -1.
func (c *Comparison) Chunk(d int) int {
	if c.dirty || d < 0 || d >= len(c.chunks) {
		return -1
	}
	return c.chunks[d]
}

func (c *Comparison) Cell(d, t int) (Cell, bool) {
	if !c.valid(d, t) {
		return Cell{}, false
	}
	return c.cells[d][t], true
}

// Row returns a copy of the cells of difference d.
func (c *Comparison) Row(d int) []Cell {
	if c.dirty || d < 0 || d >= len(c.cells) {
		return nil
	}
	return slices.Clone(c.cells[d])
}

// Similarity returns the fraction of shared chunks on which tables i
// and j agree, or -1.
func (c *Comparison) Similarity(i, j int) float64 {
	if c.dirty || i < 0 || j < 0 || i >= len(c.similarity) || j >= len(c.similarity) {
		return -1
	}
	return c.similarity[i][j]
}

// StartOffset returns the first byte of difference d, or -1.
func (c *Comparison) StartOffset(d int) int64 {
	k := c.Chunk(d)
	if k < 0 {
		return -1
	}
	var start int64 = -1
	for _, t := range c.tables {
		start = max(start, t.StartOffset(k))
	}
	return start
}

// EndOffset returns the last byte of difference d across all tables,
// or -1.
func (c *Comparison) EndOffset(d int) int64 {
	k := c.Chunk(d)
	if k < 0 {
		return -1
	}
	var end int64 = -1
	for _, t := range c.tables {
		end = max(end, t.EndOffset(k))
	}
	return end
}

func (c *Comparison) valid(d, t int) bool {
	return !c.dirty && d >= 0 && d < len(c.cells) && t >= 0 && t < len(c.tables)
}

// SetMark sets the mark of cell (d, t). It does nothing and returns
// false while dirty, out of range, or when the table lacks the chunk.
func (c *Comparison) SetMark(d, t int, m Mark) bool {
	if !c.valid(d, t) || !m.valid() || !c.cells[d][t].Present() {
		return false
	}
	c.cells[d][t].Mark = m
	if c.opts.Mirroring {
		c.mirror(d, t)
	}
	return true
}

// NextMark advances the mark of cell (d, t) and returns the new mark.
func (c *Comparison) NextMark(d, t int) (Mark, bool) {
	if !c.valid(d, t) || !c.cells[d][t].Present() {
		return Undefined, false
	}
	m := c.cells[d][t].Mark.Next()
	c.SetMark(d, t, m)
	return m, true
}

// MirrorMark copies the mark of cell (d, t) onto every cell of row d
// with the same digest.
func (c *Comparison) MirrorMark(d, t int) bool {
	if !c.valid(d, t) || !c.cells[d][t].Present() {
		return false
	}
	c.mirror(d, t)
	return true
}

func (c *Comparison) mirror(d, t int) {
	src := c.cells[d][t]
	if !src.Present() {
		return
	}
	for i := range c.cells[d] {
		if c.cells[d][i].Digest == src.Digest {
			c.cells[d][i].Mark = src.Mark
		}
	}
}

func (c *Comparison) SetCaption(d, t int, caption string) bool {
	if !c.valid(d, t) {
		return false
	}
	c.cells[d][t].Caption = caption
	return true
}

// MarkSummary counts what MarkGoodParts did.
type MarkSummary struct {
	Good      int `json:"good" yaml:"good"`
	Unsure    int `json:"unsure" yaml:"unsure"`
	Unchanged int `json:"unchanged" yaml:"unchanged"`
}

// MarkGoodParts guesses marks for differences start..end by majority.
// Rows that already carry a mark are left alone. In the others, the
// digest found in the most copies is marked Good, or Unsure when
// another digest is just as common, and the mark is mirrored to every
// copy with that digest. Rows where no digest repeats are unchanged.
func (c *Comparison) MarkGoodParts(start, end int) (MarkSummary, error) {
	var sum MarkSummary
	if c.dirty {
		return sum, ErrNotReady
	}
	if start < 0 || end >= len(c.cells) || start > end {
		return sum, fmt.Errorf("%w: [%d, %d] of %d", ErrInvalidRange, start, end, len(c.cells))
	}

	for d := start; d <= end; d++ {
		winner, unsure := vote(c.cells[d])
		switch {
		case winner < 0:
			sum.Unchanged++
			continue
		case unsure:
			c.cells[d][winner].Mark = Unsure
			sum.Unsure++
		default:
			c.cells[d][winner].Mark = Good
			sum.Good++
		}
		c.mirror(d, winner)
	}

	c.log.Info("marked by majority", "good", sum.Good, "unsure", sum.Unsure, "unchanged", sum.Unchanged)
	return sum, nil
}

// vote returns the cell whose digest first reaches the highest count
// above one, and whether a later digest reached the same count. It
// returns -1 when any present cell is already marked.
func vote(row []Cell) (int, bool) {
	counts := make(map[string]int, len(row))
	best, winner, unsure := 1, -1, false

	for i, cell := range row {
		if !cell.Present() {
			continue
		}
		if cell.Mark != Undefined {
			return -1, false
		}
		counts[cell.Digest]++
		switch n := counts[cell.Digest]; {
		case n > best:
			best, winner, unsure = n, i, false
		case n == best && n > 1:
			unsure = true
		}
	}
	return winner, unsure
}

// MarkRowsUndefined clears the marks of differences start..end. Cells
// of tables lacking the chunk stay Bad.
func (c *Comparison) MarkRowsUndefined(start, end int) error {
	if c.dirty {
		return ErrNotReady
	}
	if start < 0 || end >= len(c.cells) || start > end {
		return fmt.Errorf("%w: [%d, %d] of %d", ErrInvalidRange, start, end, len(c.cells))
	}
	for d := start; d <= end; d++ {
		for t := range c.cells[d] {
			if c.cells[d][t].Present() {
				c.cells[d][t].Mark = Undefined
			}
		}
	}
	return nil
}
