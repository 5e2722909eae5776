package main

import (
	"fmt"
	"text/tabwriter"

	"CorruptionCorrector/internal/config"
)

// runConfig prints the effective settings, or sets one key when given
// SECTION.KEY VALUE.
func runConfig(e *env, args []string) error {
	fs := e.flags("config", "[SECTION.KEY VALUE]")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	switch fs.NArg() {
	case 0:
	case 2:
		if err := e.cfg.Set(fs.Arg(0), fs.Arg(1)); err != nil {
			return usageError("config: %v", err)
		}
		if err := e.cfg.Save(); err != nil {
			return err
		}
		e.settings = e.cfg.Settings()
	default:
		return usageError("config: want no arguments or SECTION.KEY VALUE")
	}

	s := e.settings
	tw := tabwriter.NewWriter(e.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "file\t%s\n", e.cfg.Path())
	fmt.Fprintf(tw, "digest.algorithm\t%s\n", s.Algorithm)
	fmt.Fprintf(tw, "digest.chunk_size\t%s\n", config.FormatHumanSize(s.ChunkSize))
	fmt.Fprintf(tw, "io.read_buffer\t%s\n", config.FormatHumanSize(int64(s.ReadBuffer)))
	fmt.Fprintf(tw, "io.transfer_buffer\t%s\n", config.FormatHumanSize(int64(s.TransferBuffer)))
	fmt.Fprintf(tw, "io.write_buffer\t%s\n", config.FormatHumanSize(int64(s.WriteBuffer)))
	fmt.Fprintf(tw, "comparison.mirroring\t%t\n", s.Mirroring)
	fmt.Fprintf(tw, "comparison.max_recipes\t%d\n", s.MaxRecipes)
	fmt.Fprintf(tw, "log.level\t%s\n", s.LogLevel)
	fmt.Fprintf(tw, "log.format\t%s\n", s.LogFormat)
	fmt.Fprintf(tw, "store.compression\t%s\n", s.Compression)
	fmt.Fprintf(tw, "verify.workers\t%d\n", s.Workers)
	return tw.Flush()
}
