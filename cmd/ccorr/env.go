package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/spf13/pflag"

	"CorruptionCorrector/internal/checksum"
	"CorruptionCorrector/internal/comparison"
	"CorruptionCorrector/internal/config"
	"CorruptionCorrector/internal/logging"
	"CorruptionCorrector/internal/metrics"
	"CorruptionCorrector/internal/progress"
	"CorruptionCorrector/internal/recipe"
	"CorruptionCorrector/internal/store"
)

// env is what every subcommand runs with.
type env struct {
	ctx      context.Context
	cfg      *config.Config
	settings config.Settings
	log      *slog.Logger
	stats    *metrics.Stats
	stdout   io.Writer
	stderr   io.Writer
	quiet    bool
}

// exitError ends the process with code after printing its message.
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }
func (e *exitError) ExitCode() int { return e.code }

func usageError(format string, args ...any) error {
	return &exitError{code: 2, msg: fmt.Sprintf(format, args...)}
}

func (e *env) flags(name, usage string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(e.stderr)
	fs.Usage = func() {
		fmt.Fprintf(e.stderr, "Usage: ccorr %s %s\n\nFlags:\n", name, usage)
		fs.PrintDefaults()
	}
	return fs
}

// parseFlags parses args into fs. Bad flags are usage errors and
// --help is passed through as pflag.ErrHelp.
func parseFlags(fs *pflag.FlagSet, args []string) error {
	err := fs.Parse(args)
	if err == nil || errors.Is(err, pflag.ErrHelp) {
		return err
	}
	return usageError("%s: %v", fs.Name(), err)
}

// ctxMonitor reports no progress and is cancelled with its context.
type ctxMonitor struct {
	progress.Monitor
	ctx context.Context
}

func (m ctxMonitor) Cancelled() bool { return m.ctx.Err() != nil }

// monitor returns a progress bar on an interactive stderr, or a silent
// monitor that still follows cancellation.
func (e *env) monitor(ctx context.Context, description string) (progress.Monitor, func()) {
	if !e.quiet && logging.IsTerminal(e.stderr) {
		bar := progress.NewBar(ctx, e.stderr, description)
		return bar, bar.Close
	}
	return ctxMonitor{Monitor: progress.Nop, ctx: ctx}, func() {}
}

func (e *env) compression() (store.Compression, error) {
	return store.ParseCompression(e.settings.Compression)
}

func (e *env) comparisonOptions() comparison.Options {
	return comparison.Options{
		Mirroring:  e.settings.Mirroring,
		MaxRecipes: e.settings.MaxRecipes,
		Logger:     e.log,
	}
}

func (e *env) checksumOptions(m progress.Monitor) checksum.Options {
	return checksum.Options{
		Monitor:    m,
		Logger:     e.log,
		ReadBuffer: e.settings.ReadBuffer,
		Stats:      e.stats,
	}
}

func (e *env) recipeOptions(m progress.Monitor) recipe.Options {
	return recipe.Options{
		Monitor:     m,
		Logger:      e.log,
		BufferSize:  e.settings.TransferBuffer,
		WriteBuffer: e.settings.WriteBuffer,
		Stats:       e.stats,
	}
}

func (e *env) loadProject(path string) (*comparison.Comparison, error) {
	c, err := comparison.Load(path, e.comparisonOptions())
	if err != nil {
		return nil, fmt.Errorf("load project %s: %w", path, err)
	}
	return c, nil
}

func (e *env) saveProject(c *comparison.Comparison, path string) error {
	comp, err := e.compression()
	if err != nil {
		return err
	}
	if err := c.Save(path, comp); err != nil {
		return fmt.Errorf("save project %s: %w", path, err)
	}
	return nil
}

// tableIndex resolves a table given by position or by ID.
func tableIndex(c *comparison.Comparison, ref string) (int, error) {
	if i, err := strconv.Atoi(ref); err == nil {
		if i < 0 || i >= c.TableCount() {
			return 0, usageError("table %d out of range, project has %d tables", i, c.TableCount())
		}
		return i, nil
	}
	if i := c.IndexOf(ref); i >= 0 {
		return i, nil
	}
	return 0, usageError("no table %q in project", ref)
}

func atoi(name, s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, usageError("%s: %q is not a number", name, s)
	}
	return n, nil
}
