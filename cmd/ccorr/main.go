// ccorr repairs a file from several damaged copies of it.
//
// Each copy is read once into a table of chunk digests. The tables are
// compared, the chunks on which they disagree are marked good or bad,
// either by hand or by majority, and the good chunks are stitched into
// a repaired file. When no copy can be trusted for some chunk, every
// combination can be tried against a known digest of the whole file.
//
// Usage:
//
//	ccorr [global flags] <command> [flags] [args]
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"CorruptionCorrector/internal/config"
	"CorruptionCorrector/internal/logging"
	"CorruptionCorrector/internal/metrics"
)

type command struct {
	name    string
	summary string
	run     func(e *env, args []string) error
}

var commands = []command{
	{"checksum", "build chunk digest tables for copies of a file", runChecksum},
	{"compare", "compare tables and save the differences as a project", runCompare},
	{"rescan", "re-read every copy of a project and compare again", runRescan},
	{"show", "print a project or a table", runShow},
	{"mark", "set the mark of one copy of one difference", runMark},
	{"automark", "mark differences by majority", runAutomark},
	{"relocate", "point a table at a moved copy", runRelocate},
	{"combine", "write the repaired file", runCombine},
	{"verify", "check files against a sum file", runVerify},
	{"config", "print or change the settings file", runConfig},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			os.Exit(coder.ExitCode())
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var (
		configPath string
		logLevel   string
		logFormat  string
		quiet      bool
		showStats  bool
	)

	fs := pflag.NewFlagSet("ccorr", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.SetInterspersed(false)
	fs.StringVar(&configPath, "config", config.DefaultPath(), "settings file")
	fs.StringVar(&logLevel, "log-level", "", "debug, info, warn or error (default from settings)")
	fs.StringVar(&logFormat, "log-format", "", "auto, text or json (default from settings)")
	fs.BoolVarP(&quiet, "quiet", "q", false, "only log errors and hide progress bars")
	fs.BoolVar(&showStats, "stats", false, "print counters when done")
	fs.Usage = func() { printUsage(stderr, fs) }

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return usageError("%v", err)
	}

	rest := fs.Args()
	if len(rest) == 0 || rest[0] == "help" {
		printUsage(stderr, fs)
		if len(rest) == 0 {
			return usageError("no command given")
		}
		return nil
	}

	cmd, ok := lookupCommand(rest[0])
	if !ok {
		return usageError("unknown command %q", rest[0])
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	settings := cfg.Settings()

	if logLevel == "" {
		logLevel = settings.LogLevel
	}
	level, err := logging.ParseLevel(logLevel)
	if err != nil {
		return usageError("%v", err)
	}
	if quiet {
		level = max(level, slog.LevelError)
	}
	if logFormat == "" {
		logFormat = settings.LogFormat
	}

	stats := &metrics.Stats{}
	stats.Start()

	e := &env{
		ctx:      ctx,
		cfg:      cfg,
		settings: settings,
		log:      logging.New(stderr, level, logFormat),
		stats:    stats,
		stdout:   stdout,
		stderr:   stderr,
		quiet:    quiet,
	}

	err = cmd.run(e, rest[1:])
	stats.Stop()

	if errors.Is(err, pflag.ErrHelp) {
		return nil
	}
	if showStats {
		metrics.Print(stderr, stats)
	}
	return err
}

func lookupCommand(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

func printUsage(w io.Writer, fs *pflag.FlagSet) {
	fmt.Fprintf(w, "Usage: ccorr [global flags] <command> [flags] [args]\n\nCommands:\n")
	for _, c := range commands {
		fmt.Fprintf(w, "  %-10s %s\n", c.name, c.summary)
	}
	fmt.Fprintf(w, "\nGlobal flags:\n")
	fs.PrintDefaults()
	fmt.Fprintf(w, "\nRun 'ccorr <command> --help' for the flags of a command.\n")
}
