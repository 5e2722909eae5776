package main

import (
	"fmt"

	"CorruptionCorrector/internal/index"
	"CorruptionCorrector/internal/verify"
)

// runVerify checks every file named in a sum file, typically the copies
// of a project or a freshly combined output.
func runVerify(e *env, args []string) error {
	fs := e.flags("verify", "[flags] SUMFILE")
	workers := fs.IntP("workers", "w", e.settings.Workers, "files hashed in parallel")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return usageError("verify: want one sum file")
	}

	run, items, err := index.Load(fs.Arg(0))
	if err != nil {
		return err
	}
	e.log.Info("sum file loaded", "entries", run.Total, "found", run.OkCount, "missing", run.ErrorCount, "algorithm", run.Algorithm)
	e.stats.TotalBytes = run.TotalBytes

	monitor, done := e.monitor(e.ctx, "verify")
	res, err := verify.Verify(items, verify.Options{Workers: *workers, Monitor: monitor, Logger: e.log}, e.stats)
	done()
	if err != nil {
		return err
	}

	for _, fi := range items {
		if fi.Error != nil {
			fmt.Fprintf(e.stdout, "MISSING  %s\n", fi.Path)
		}
	}
	for _, m := range res.Mismatches {
		fmt.Fprintf(e.stdout, "FAILED   %s (%s)\n", m.Path, m.Reason)
	}

	fmt.Fprintf(e.stdout, "%d of %d files ok\n", e.stats.Matches, run.Total)
	if e.stats.Matches != run.Total {
		return &exitError{code: 1, msg: fmt.Sprintf("%d files failed verification", run.Total-e.stats.Matches)}
	}
	return nil
}
