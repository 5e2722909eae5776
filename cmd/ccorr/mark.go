package main

import (
	"fmt"

	"CorruptionCorrector/internal/comparison"
)

func runMark(e *env, args []string) error {
	fs := e.flags("mark", "[flags] PROJECT.ccp DIFF TABLE [good|bad|unsure|undefined]")
	caption := fs.String("caption", "", "note to keep with the cell")
	mirror := fs.Bool("mirror", false, "copy the mark to every copy with the same digest")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() < 3 || fs.NArg() > 4 {
		return usageError("mark: want PROJECT DIFF TABLE [MARK]")
	}
	path := fs.Arg(0)

	c, err := e.loadProject(path)
	if err != nil {
		return err
	}
	if c.Dirty() {
		return comparison.ErrNotReady
	}
	d, err := atoi("difference", fs.Arg(1))
	if err != nil {
		return err
	}
	if d < 0 || d >= c.Differences() {
		return usageError("mark: difference %d out of range, project has %d", d, c.Differences())
	}
	t, err := tableIndex(c, fs.Arg(2))
	if err != nil {
		return err
	}
	if cell, _ := c.Cell(d, t); !cell.Present() {
		return fmt.Errorf("table %d has no chunk %d", t, c.Chunk(d))
	}

	// without a mark the cell steps to the next one
	var mark comparison.Mark
	if fs.NArg() == 4 {
		if mark, err = comparison.ParseMark(fs.Arg(3)); err != nil {
			return usageError("mark: %v", err)
		}
		c.SetMark(d, t, mark)
	} else {
		mark, _ = c.NextMark(d, t)
	}
	if *mirror {
		c.MirrorMark(d, t)
	}
	if fs.Changed("caption") {
		c.SetCaption(d, t, *caption)
	}

	if err := e.saveProject(c, path); err != nil {
		return err
	}
	_, err = fmt.Fprintf(e.stdout, "difference %d, table %d: %s\n", d, t, mark)
	return err
}

func runAutomark(e *env, args []string) error {
	fs := e.flags("automark", "[flags] PROJECT.ccp")
	from := fs.Int("from", 0, "first difference")
	to := fs.Int("to", -1, "last difference (default: the last one)")
	reset := fs.Bool("clear", false, "reset the marks of the range instead")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return usageError("automark: want one project")
	}
	path := fs.Arg(0)

	c, err := e.loadProject(path)
	if err != nil {
		return err
	}
	if c.Dirty() {
		return comparison.ErrNotReady
	}
	if c.Differences() == 0 {
		return comparison.ErrNoDifferences
	}
	end := *to
	if end < 0 {
		end = c.Differences() - 1
	}

	if *reset {
		if err := c.MarkRowsUndefined(*from, end); err != nil {
			return err
		}
		if err := e.saveProject(c, path); err != nil {
			return err
		}
		_, err = fmt.Fprintf(e.stdout, "cleared differences %d to %d\n", *from, end)
		return err
	}

	sum, err := c.MarkGoodParts(*from, end)
	if err != nil {
		return err
	}
	if err := e.saveProject(c, path); err != nil {
		return err
	}
	_, err = fmt.Fprintf(e.stdout, "good %d, unsure %d, unchanged %d\n", sum.Good, sum.Unsure, sum.Unchanged)
	return err
}
