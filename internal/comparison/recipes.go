package comparison

import (
	"fmt"
	"math"
	"time"

	"CorruptionCorrector/internal/recipe"
)

// GoodRecipe builds the recipe that takes every difference from the
// first copy marked Good. The stretches between differences are equal
// in every copy and are read from the copy chosen for the difference
// that ends them.
func (c *Comparison) GoodRecipe() (*recipe.Recipe, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	c.log.Info("building good recipe", "differences", len(c.chunks))

	r := &recipe.Recipe{}
	for d, row := range c.cells {
		t := firstMarked(row, Good)
		if t < 0 {
			c.log.Info("no good copy", "difference", d, "chunk", c.chunks[d])
			return nil, fmt.Errorf("%w: difference %d (chunk %d)", ErrIrreconcilable, d, c.chunks[d])
		}
		if err := c.appendRow(r, d, t); err != nil {
			return nil, err
		}
	}

	c.log.Info("good recipe built", "segments", len(r.Segments), "bytes", r.Length())
	return r, nil
}

// CountPossibleRecipes multiplies, over all differences, the number of
// candidate copies: one when a copy is marked Good, otherwise the copies
// marked Unsure or Undefined. It returns 0 when any difference has no
// candidate, even if the other differences would overflow the count.
func (c *Comparison) CountPossibleRecipes() (int, error) {
	if err := c.ready(); err != nil {
		return 0, err
	}

	counts := make([]int, len(c.cells))
	for d, row := range c.cells {
		counts[d] = len(candidates(row))
		if counts[d] == 0 {
			return 0, nil
		}
	}

	total := 1
	for _, n := range counts {
		if total > math.MaxInt/n {
			return 0, ErrTooManyRecipes
		}
		total *= n
	}
	return total, nil
}

// AllRecipes builds one recipe for every combination of candidate
// copies. Combinations are enumerated with the first difference
// varying slowest.
func (c *Comparison) AllRecipes() ([]*recipe.Recipe, error) {
	total, err := c.CountPossibleRecipes()
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return nil, ErrIrreconcilable
	}
	if total > c.opts.MaxRecipes {
		return nil, fmt.Errorf("%w: %d exceeds the limit of %d", ErrTooManyRecipes, total, c.opts.MaxRecipes)
	}

	started := time.Now()
	c.log.Info("building recipes", "differences", len(c.chunks), "recipes", total)

	recipes := make([]*recipe.Recipe, total)
	for i := range recipes {
		recipes[i] = &recipe.Recipe{}
	}

	combinations := 1
	for d, row := range c.cells {
		cands := candidates(row)
		repeat := (total / combinations) / len(cands)
		combinations *= len(cands)

		next := newCycle(cands, repeat)
		for _, r := range recipes {
			if err := c.appendRow(r, d, next.next()); err != nil {
				return nil, err
			}
		}
	}

	c.log.Info("recipes built", "recipes", len(recipes), "elapsed", time.Since(started))
	return recipes, nil
}

func (c *Comparison) ready() error {
	if c.dirty {
		return ErrNotReady
	}
	if len(c.cells) == 0 {
		return ErrNoDifferences
	}
	return nil
}

// appendRow adds to r the bytes up to the end of difference d, read
// from table t. The last difference runs to the end of t.
func (c *Comparison) appendRow(r *recipe.Recipe, d, t int) error {
	tbl := c.tables[t]
	end := tbl.EndOffset(c.chunks[d])
	if d == len(c.chunks)-1 {
		end = tbl.SourceLength - 1
	}
	start := r.Length()
	if !r.Add(tbl.SourcePath, start, end) {
		return fmt.Errorf("difference %d: cannot take [%d, %d] from %s", d, start, end, tbl.SourcePath)
	}
	return nil
}

func firstMarked(row []Cell, m Mark) int {
	for t, cell := range row {
		if cell.Present() && cell.Mark == m {
			return t
		}
	}
	return -1
}

// candidates lists the tables that may supply a difference: the first
// Good copy alone, or else every Unsure and Undefined copy.
func candidates(row []Cell) []int {
	if t := firstMarked(row, Good); t >= 0 {
		return []int{t}
	}
	var out []int
	for t, cell := range row {
		if cell.Present() && (cell.Mark == Unsure || cell.Mark == Undefined) {
			out = append(out, t)
		}
	}
	return out
}
