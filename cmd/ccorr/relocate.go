package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"CorruptionCorrector/internal/checksum"
	"CorruptionCorrector/internal/store"
)

// runRelocate points a table at a copy that was moved or renamed. The
// new file must have the length the table was built from.
func runRelocate(e *env, args []string) error {
	fs := e.flags("relocate", "PROJECT.ccp TABLE NEW_PATH | TABLE.ccf NEW_PATH")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() < 2 {
		return usageError("relocate: missing arguments")
	}
	path := fs.Arg(0)

	if strings.EqualFold(filepath.Ext(path), store.TableExt) {
		if fs.NArg() != 2 {
			return usageError("relocate: want TABLE.ccf NEW_PATH")
		}
		t, err := checksum.Load(path)
		if err != nil {
			return fmt.Errorf("load table %s: %w", path, err)
		}
		if err := t.Relocate(fs.Arg(1)); err != nil {
			return err
		}
		comp, err := e.compression()
		if err != nil {
			return err
		}
		if err := t.Save(path, comp); err != nil {
			return err
		}
		_, err = fmt.Fprintf(e.stdout, "%s now reads %s\n", path, t.SourcePath)
		return err
	}

	if fs.NArg() != 3 {
		return usageError("relocate: want PROJECT.ccp TABLE NEW_PATH")
	}
	c, err := e.loadProject(path)
	if err != nil {
		return err
	}
	i, err := tableIndex(c, fs.Arg(1))
	if err != nil {
		return err
	}
	t := c.Table(i)
	if err := t.Relocate(fs.Arg(2)); err != nil {
		return err
	}
	if err := e.saveProject(c, path); err != nil {
		return err
	}
	_, err = fmt.Fprintf(e.stdout, "table %d now reads %s\n", i, t.SourcePath)
	return err
}
