package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"CorruptionCorrector/internal/comparison"
	"CorruptionCorrector/internal/digest"
	"CorruptionCorrector/internal/index"
	"CorruptionCorrector/internal/recipe"
	"CorruptionCorrector/internal/verify"
)

func runCombine(e *env, args []string) error {
	fs := e.flags("combine", "[flags] PROJECT.ccp OUTPUT")
	all := fs.Bool("all", false, "try every combination of candidate copies against the expected digest")
	expect := fs.String("expect", "", "digest of the intact file")
	algorithm := fs.String("algorithm", "", "algorithm of --expect (default: guessed from its length)")
	sums := fs.String("sums", "", "sum file holding the expected digest")
	name := fs.String("name", "", "entry to use from --sums (default: OUTPUT's name, then the first copy's name)")
	dryRun := fs.BoolP("dry-run", "n", false, "print the recipe instead of writing it")
	force := fs.Bool("force", false, "write the good recipe even when it does not match the expected digest")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return usageError("combine: want PROJECT OUTPUT")
	}
	path, output := fs.Arg(0), fs.Arg(1)

	c, err := e.loadProject(path)
	if err != nil {
		return err
	}

	want, alg, err := expectedDigest(c, output, *expect, *algorithm, *sums, *name)
	if err != nil {
		return err
	}

	var r *recipe.Recipe
	if *all {
		if want == "" {
			return usageError("combine: --all needs --expect or --sums")
		}
		if r, err = findMatching(e, c, alg, want, *dryRun); err != nil || r == nil {
			return err
		}
	} else {
		if r, err = c.GoodRecipe(); err != nil {
			return err
		}
		e.stats.AddRecipes(1)
		if want != "" {
			monitor, done := e.monitor(e.ctx, "checking recipe")
			got, err := r.Digest(alg, e.recipeOptions(monitor))
			done()
			if err != nil {
				return err
			}
			if !strings.EqualFold(got, want) && !*force {
				return &exitError{code: 1, msg: fmt.Sprintf("good recipe digest %s does not match %s (%s); try --all", got, want, alg)}
			}
		}
	}

	if *dryRun {
		_, err := fmt.Fprint(e.stdout, r.String())
		return err
	}

	monitor, done := e.monitor(e.ctx, "writing "+filepath.Base(output))
	defer done()
	if err := r.WriteFile(output, e.recipeOptions(monitor)); err != nil {
		return err
	}
	_, err = fmt.Fprintf(e.stdout, "wrote %s (%d bytes from %d segments)\n", output, r.Length(), len(r.Segments))
	return err
}

// findMatching returns the first candidate recipe whose digest is want.
// With dryRun every matching recipe is printed and nil is returned.
func findMatching(e *env, c *comparison.Comparison, alg, want string, dryRun bool) (*recipe.Recipe, error) {
	recipes, err := c.AllRecipes()
	if err != nil {
		return nil, err
	}
	e.stats.AddRecipes(int64(len(recipes)))

	monitor, done := e.monitor(e.ctx, fmt.Sprintf("trying %d recipes", len(recipes)))
	found, err := verify.Candidates(recipes, alg, want,
		verify.Options{Workers: e.settings.Workers, Monitor: monitor, Logger: e.log},
		e.recipeOptions(nil), e.stats)
	done()
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, &exitError{code: 1, msg: fmt.Sprintf("none of %d recipes matches %s (%s)", len(recipes), want, alg)}
	}
	if len(found) > 1 {
		e.log.Warn("several recipes match, using the first", "matching", len(found))
	}

	if dryRun {
		for _, f := range found {
			fmt.Fprintf(e.stdout, "# recipe %d of %d, %s %s\n%s", f.Index, len(recipes), alg, f.Digest, recipes[f.Index])
		}
		return nil, nil
	}
	return recipes[found[0].Index], nil
}

// expectedDigest picks the digest the repaired file must have, from
// --expect or from a sum file entry. An empty digest means none was
// given.
func expectedDigest(c *comparison.Comparison, output, expect, algorithm, sums, name string) (string, string, error) {
	if expect != "" && sums != "" {
		return "", "", usageError("combine: use --expect or --sums, not both")
	}

	if sums != "" {
		_, items, err := index.Load(sums)
		if err != nil {
			return "", "", err
		}
		names := []string{name}
		if name == "" {
			names = []string{output}
			if t := c.Table(0); t != nil {
				names = append(names, t.SourcePath)
			}
		}
		for _, n := range names {
			if fi, ok := index.Lookup(items, n); ok {
				return fi.Hash, fi.Algorithm, nil
			}
		}
		return "", "", fmt.Errorf("%s has no entry for %s", sums, strings.Join(names, " or "))
	}

	if expect == "" {
		return "", "", nil
	}
	expect = strings.ToLower(strings.TrimSpace(expect))
	if algorithm != "" {
		alg, ok := digest.Canonical(algorithm)
		if !ok {
			return "", "", usageError("combine: unknown algorithm %q", algorithm)
		}
		return expect, alg, nil
	}
	alg, ok := index.GuessAlgorithm(expect)
	if !ok {
		return "", "", usageError("combine: cannot guess the algorithm of %q, use --algorithm", expect)
	}
	return expect, alg, nil
}
