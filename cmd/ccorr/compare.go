package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"CorruptionCorrector/internal/checksum"
	"CorruptionCorrector/internal/comparison"
	"CorruptionCorrector/internal/progress"
)

func runCompare(e *env, args []string) error {
	fs := e.flags("compare", "[flags] TABLE.ccf...")
	output := fs.StringP("output", "o", "", "project file to write (required)")
	name := fs.String("name", "", "project name (default: output file name)")
	comments := fs.String("comments", "", "free text kept with the project")
	update := fs.BoolP("update", "u", false, "add the tables to the existing project, keeping its marks")
	var remove []string
	fs.StringSliceVar(&remove, "remove", nil, "with --update, drop these tables (index or ID) first")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *output == "" {
		return usageError("compare: --output is required")
	}

	var c *comparison.Comparison
	if *update {
		var err error
		if c, err = e.loadProject(*output); err != nil {
			return err
		}
		ids := make([]string, 0, len(remove))
		for _, ref := range remove {
			i, err := tableIndex(c, ref)
			if err != nil {
				return err
			}
			ids = append(ids, c.Table(i).ID)
		}
		for _, id := range ids {
			c.RemoveTable(id)
		}
	} else {
		if len(remove) > 0 {
			return usageError("compare: --remove needs --update")
		}
		if _, err := os.Stat(*output); err == nil {
			return usageError("compare: %s exists, use --update to change it", *output)
		}
		c = comparison.New(e.comparisonOptions())
		c.Name = filepath.Base(*output)
	}
	if *name != "" {
		c.Name = *name
	}
	if *comments != "" {
		c.Comments = *comments
	}

	for _, path := range fs.Args() {
		t, err := checksum.Load(path)
		if err != nil {
			return fmt.Errorf("load table %s: %w", path, err)
		}
		if !c.AddTable(t) {
			return fmt.Errorf("table %s does not fit the project: same table twice, or another chunk size or algorithm", path)
		}
	}
	if c.TableCount() < 2 {
		return usageError("compare: need at least two tables, have %d", c.TableCount())
	}

	c.Compare()
	if err := e.saveProject(c, *output); err != nil {
		return err
	}
	return printCompareSummary(e, c, *output)
}

// runRescan reads every copy of a project again and compares the new
// tables, keeping the marks of chunks whose digest did not change.
func runRescan(e *env, args []string) error {
	fs := e.flags("rescan", "PROJECT.ccp")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return usageError("rescan: want one project")
	}
	path := fs.Arg(0)

	c, err := e.loadProject(path)
	if err != nil {
		return err
	}

	monitor, done := e.monitor(e.ctx, "rescan")
	defer done()

	for _, t := range c.Tables() {
		monitor.SetNote("reading " + t.Name())
		if err := t.Rebuild(e.checksumOptions(monitor)); err != nil {
			if errors.Is(err, progress.ErrCancelled) {
				return err
			}
			return fmt.Errorf("rescan %s: %w", t.SourcePath, err)
		}
	}

	c.Compare()
	if err := e.saveProject(c, path); err != nil {
		return err
	}
	return printCompareSummary(e, c, path)
}

func printCompareSummary(e *env, c *comparison.Comparison, path string) error {
	e.stats.SetDifferences(int64(c.Differences()))
	n, err := c.CountPossibleRecipes()
	switch {
	case errors.Is(err, comparison.ErrNoDifferences):
		_, err = fmt.Fprintf(e.stdout, "%s: %d tables, no differences\n", path, c.TableCount())
		return err
	case errors.Is(err, comparison.ErrTooManyRecipes):
		_, err = fmt.Fprintf(e.stdout, "%s: %d tables, %d differences, too many combinations to count\n",
			path, c.TableCount(), c.Differences())
		return err
	case err != nil:
		return err
	}
	_, err = fmt.Fprintf(e.stdout, "%s: %d tables, %d differences, %d possible recipes\n",
		path, c.TableCount(), c.Differences(), n)
	return err
}
