package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"CorruptionCorrector/internal/checksum"
	"CorruptionCorrector/internal/comparison"
	"CorruptionCorrector/internal/store"
)

type tableReport struct {
	Index     int    `json:"index" yaml:"index"`
	ID        string `json:"id" yaml:"id"`
	Source    string `json:"source" yaml:"source"`
	Length    int64  `json:"length" yaml:"length"`
	ChunkSize int64  `json:"chunk_size" yaml:"chunk_size"`
	Algorithm string `json:"algorithm" yaml:"algorithm"`
	Chunks    int    `json:"chunks" yaml:"chunks"`

	Digests []string `json:"digests,omitempty" yaml:"digests,omitempty"`
}

type differenceReport struct {
	Index int               `json:"index" yaml:"index"`
	Chunk int               `json:"chunk" yaml:"chunk"`
	Start int64             `json:"start" yaml:"start"`
	End   int64             `json:"end" yaml:"end"`
	Cells []comparison.Cell `json:"cells" yaml:"cells"`
}

type projectReport struct {
	Name        string             `json:"name" yaml:"name"`
	Comments    string             `json:"comments,omitempty" yaml:"comments,omitempty"`
	Dirty       bool               `json:"dirty" yaml:"dirty"`
	Tables      []tableReport      `json:"tables" yaml:"tables"`
	Similarity  [][]float64        `json:"similarity,omitempty" yaml:"similarity,omitempty"`
	Differences []differenceReport `json:"differences" yaml:"differences"`
	Recipes     int                `json:"possible_recipes" yaml:"possible_recipes"`
}

func runShow(e *env, args []string) error {
	fs := e.flags("show", "[flags] PROJECT.ccp|TABLE.ccf")
	format := fs.StringP("format", "f", "human", "human, json or yaml")
	digests := fs.Bool("digests", false, "list every chunk digest of a table")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return usageError("show: want one file")
	}
	path := fs.Arg(0)

	switch strings.ToLower(*format) {
	case "human", "json", "yaml":
	default:
		return usageError("show: unknown format %q", *format)
	}

	var (
		report any
		human  func(w io.Writer) error
	)
	if strings.EqualFold(filepath.Ext(path), store.TableExt) {
		t, err := checksum.Load(path)
		if err != nil {
			return fmt.Errorf("load table %s: %w", path, err)
		}
		r := reportTable(0, t)
		if *digests {
			r.Digests = t.Digests
		}
		report, human = r, func(w io.Writer) error { return printTable(w, t, *digests) }
	} else {
		c, err := e.loadProject(path)
		if err != nil {
			return err
		}
		r := reportProject(c)
		report, human = r, func(w io.Writer) error { return printProject(w, r) }
	}

	switch strings.ToLower(*format) {
	case "json":
		enc := json.NewEncoder(e.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case "yaml":
		enc := yaml.NewEncoder(e.stdout)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return err
		}
		return enc.Close()
	default:
		return human(e.stdout)
	}
}

func reportTable(i int, t *checksum.Table) tableReport {
	return tableReport{
		Index:     i,
		ID:        t.ID,
		Source:    t.SourcePath,
		Length:    t.SourceLength,
		ChunkSize: t.ChunkSize,
		Algorithm: t.Algorithm,
		Chunks:    t.ChunkCount(),
	}
}

func reportProject(c *comparison.Comparison) projectReport {
	r := projectReport{
		Name:     c.Name,
		Comments: c.Comments,
		Dirty:    c.Dirty(),
	}
	for i, t := range c.Tables() {
		r.Tables = append(r.Tables, reportTable(i, t))
	}
	if c.Dirty() {
		return r
	}

	n := c.TableCount()
	r.Similarity = make([][]float64, n)
	for i := range n {
		r.Similarity[i] = make([]float64, n)
		for j := range n {
			r.Similarity[i][j] = c.Similarity(i, j)
		}
	}
	r.Differences = make([]differenceReport, c.Differences())
	for d := range r.Differences {
		r.Differences[d] = differenceReport{
			Index: d,
			Chunk: c.Chunk(d),
			Start: c.StartOffset(d),
			End:   c.EndOffset(d),
			Cells: c.Row(d),
		}
	}

	count, err := c.CountPossibleRecipes()
	switch {
	case errors.Is(err, comparison.ErrTooManyRecipes):
		r.Recipes = -1
	case err == nil:
		r.Recipes = count
	}
	return r
}

func printTable(w io.Writer, t *checksum.Table, digests bool) error {
	fmt.Fprintf(w, "table:      %s\n", t.ID)
	fmt.Fprintf(w, "source:     %s\n", t.SourcePath)
	fmt.Fprintf(w, "length:     %d\n", t.SourceLength)
	fmt.Fprintf(w, "chunk size: %d\n", t.ChunkSize)
	fmt.Fprintf(w, "algorithm:  %s\n", t.Algorithm)
	fmt.Fprintf(w, "chunks:     %d\n", t.ChunkCount())
	if !digests {
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "\nCHUNK\tSTART\tEND\tDIGEST")
	for i := range t.ChunkCount() {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%s\n", i, t.StartOffset(i), t.EndOffset(i), t.DigestAt(i))
	}
	return tw.Flush()
}

func printProject(w io.Writer, r projectReport) error {
	fmt.Fprintf(w, "project: %s\n", r.Name)
	if r.Comments != "" {
		fmt.Fprintf(w, "comments: %s\n", r.Comments)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "\n#\tLENGTH\tCHUNKS\tSOURCE")
	for _, t := range r.Tables {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%s\n", t.Index, t.Length, t.Chunks, t.Source)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if len(r.Tables) > 0 {
		fmt.Fprintf(w, "chunk size %d, %s\n", r.Tables[0].ChunkSize, r.Tables[0].Algorithm)
	}

	if r.Dirty {
		fmt.Fprintln(w, "\nnot compared since the last change, run 'ccorr compare --update'")
		return nil
	}

	fmt.Fprintln(w, "\nsimilarity:")
	for i, row := range r.Similarity {
		cols := make([]string, len(row))
		for j, v := range row {
			cols[j] = fmt.Sprintf("%6.2f%%", v*100)
		}
		fmt.Fprintf(w, "  %d %s\n", i, strings.Join(cols, " "))
	}

	if len(r.Differences) == 0 {
		fmt.Fprintln(w, "\nno differences")
		return nil
	}

	tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	header := []string{"DIFF", "CHUNK", "START", "END"}
	for _, t := range r.Tables {
		header = append(header, fmt.Sprintf("T%d", t.Index))
	}
	fmt.Fprintln(tw, "\n"+strings.Join(header, "\t"))
	for _, d := range r.Differences {
		cols := []string{fmt.Sprint(d.Index), fmt.Sprint(d.Chunk), fmt.Sprint(d.Start), fmt.Sprint(d.End)}
		for _, cell := range d.Cells {
			cols = append(cols, cellText(cell))
		}
		fmt.Fprintln(tw, strings.Join(cols, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	switch {
	case r.Recipes < 0:
		fmt.Fprintln(w, "\npossible recipes: too many to count")
	default:
		fmt.Fprintf(w, "\npossible recipes: %d\n", r.Recipes)
	}
	return nil
}

func cellText(c comparison.Cell) string {
	if !c.Present() {
		return "-"
	}
	s := fmt.Sprintf("%s %s", c.Digest, c.Mark)
	if c.Caption != "" {
		s += " (" + c.Caption + ")"
	}
	return s
}
