package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"CorruptionCorrector/internal/checksum"
	"CorruptionCorrector/internal/config"
	"CorruptionCorrector/internal/digest"
	"CorruptionCorrector/internal/progress"
	"CorruptionCorrector/internal/store"
)

func runChecksum(e *env, args []string) error {
	fs := e.flags("checksum", "[flags] FILE...")
	algorithm := fs.StringP("algorithm", "a", e.settings.Algorithm,
		"digest algorithm: "+strings.Join(digest.Supported(), ", "))
	size := fs.StringP("chunk-size", "c", config.FormatHumanSize(e.settings.ChunkSize), "chunk size, e.g. 16K or 1M")
	outDir := fs.StringP("output-dir", "o", "", "write tables here instead of next to each file")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	files := fs.Args()
	if len(files) == 0 {
		return usageError("checksum: no files given")
	}
	chunkSize, err := config.ParseHumanSize(*size)
	if err != nil {
		return usageError("checksum: %v", err)
	}
	if _, ok := digest.Canonical(*algorithm); !ok {
		e.log.Warn("unknown algorithm, using the default", "algorithm", *algorithm, "default", digest.Default)
	}
	comp, err := e.compression()
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(e.ctx)
	g.SetLimit(e.settings.Workers)

	// one bar for a single file, parallel builds only follow cancellation
	var monitor progress.Monitor = ctxMonitor{Monitor: progress.Nop, ctx: ctx}
	if len(files) == 1 {
		m, done := e.monitor(ctx, "checksum "+filepath.Base(files[0]))
		defer done()
		monitor = m
	}

	lines := make([]string, len(files))
	for i, path := range files {
		g.Go(func() error {
			t, err := checksum.Build(path, chunkSize, *algorithm, e.checksumOptions(monitor))
			if err != nil {
				return fmt.Errorf("checksum %s: %w", path, err)
			}
			out := tablePath(path, *outDir)
			if err := t.Save(out, comp); err != nil {
				return fmt.Errorf("save table %s: %w", out, err)
			}
			lines[i] = fmt.Sprintf("%s: %d chunks of %s (%s)",
				out, t.ChunkCount(), config.FormatHumanSize(t.ChunkSize), t.Algorithm)
			return nil
		})
	}
	err = g.Wait()

	for _, line := range lines {
		if line != "" {
			fmt.Fprintln(e.stdout, line)
		}
	}
	return err
}

// tablePath is where the table of source is saved: next to it, or in
// dir when set.
func tablePath(source, dir string) string {
	name := filepath.Base(source) + store.TableExt
	if dir == "" {
		return filepath.Join(filepath.Dir(source), name)
	}
	return filepath.Join(dir, name)
}
