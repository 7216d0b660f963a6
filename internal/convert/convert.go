// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert orchestrates notebook-to-app conversion: it feeds parsed
// notebooks through a script generator and lays the results out as Streamlit
// app directories.
// Implements: prd003-pipeline (R1, R2, R3);
//
//	docs/ARCHITECTURE § Pipeline.
package convert

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/BexTuychiev/strimlitbook/internal/notebook"
	"github.com/BexTuychiev/strimlitbook/internal/script"
	"github.com/BexTuychiev/strimlitbook/pkg/types"
)

// appFile is the script name inside each generated app directory.
const appFile = "app.py"

// Generator renders a parsed notebook into a Streamlit app script. The
// script builder implements it; tests substitute fakes.
type Generator interface {
	Generate(nb *types.Notebook, opts script.Options) (*script.Script, error)
}

// Options configure a conversion run.
type Options struct {
	// AppsDir receives one directory per notebook: <slug>/app.py.
	AppsDir string

	// Flat writes apps as AppsDir/<slug>.py instead of one directory per
	// notebook. Requirements files are skipped in flat mode: they are
	// per-app artifacts and flat apps share a directory.
	Flat bool

	// Force overwrites an existing app instead of skipping the notebook.
	Force bool

	// Requirements writes a requirements.txt next to each generated app.
	Requirements bool

	// SplitAt, when positive, splits each notebook at that cell index and
	// generates <slug>-part1 and <slug>-part2 apps.
	SplitAt int

	// Jobs is the number of notebooks converted concurrently in batch mode;
	// 0 and 1 both mean sequential.
	Jobs int

	// Script carries per-script generation settings (title, layout, version).
	Script script.Options
}

// appPath returns the script location for one app slug.
func (o Options) appPath(slug string) string {
	if o.Flat {
		return filepath.Join(o.AppsDir, slug+".py")
	}
	return filepath.Join(o.AppsDir, slug, appFile)
}

// BatchResult holds the outcome of a batch conversion run.
type BatchResult struct {
	Converted int
	Skipped   int
	Failed    int
}

// Total returns the total number of notebooks processed.
func (r BatchResult) Total() int {
	return r.Converted + r.Skipped + r.Failed
}

// HasFailures reports whether any notebooks failed conversion.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

func (r *BatchResult) add(status types.ConversionStatus) {
	switch status {
	case types.ConversionDone:
		r.Converted++
	case types.ConversionNone:
		r.Skipped++
	case types.ConversionFailed:
		r.Failed++
	}
}

// ConvertNotebook converts a single notebook file into a Streamlit app under
// opts.AppsDir and returns the status of the conversion. If the app already
// exists it skips the notebook and returns ConversionNone, unless Force is
// set. Per-file status lines go to w.
func ConvertNotebook(g Generator, path string, opts Options, w io.Writer) types.ConversionStatus {
	slug := notebook.Slug(path)

	existing := slug
	if opts.SplitAt > 0 {
		existing = slug + "-part1"
	}
	if !opts.Force {
		if _, err := os.Stat(opts.appPath(existing)); err == nil {
			fmt.Fprintf(w, "skipped: %s (already exists)\n", slug)
			return types.ConversionNone
		}
	}

	nb, err := notebook.Read(path)
	if err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", slug, err)
		return types.ConversionFailed
	}

	type part struct {
		slug string
		nb   *types.Notebook
	}
	parts := []part{{slug, nb}}
	if opts.SplitAt > 0 {
		head, tail, err := nb.Split(opts.SplitAt)
		if err != nil {
			fmt.Fprintf(w, "failed:  %s (%v)\n", slug, err)
			return types.ConversionFailed
		}
		parts = []part{{slug + "-part1", head}, {slug + "-part2", tail}}
	}

	var warnings []string
	for _, p := range parts {
		warns, err := writeApp(g, p.nb, path, p.slug, opts)
		if err != nil {
			fmt.Fprintf(w, "failed:  %s (%v)\n", p.slug, err)
			return types.ConversionFailed
		}
		warnings = append(warnings, warns...)
	}

	for _, msg := range warnings {
		fmt.Fprintf(w, "warning: %s: %s\n", slug, msg)
	}
	fmt.Fprintf(w, "converted: %s\n", slug)
	return types.ConversionDone
}

// writeApp generates one app script and writes it (plus requirements.txt when
// requested) under its slug directory. It returns the generator's warnings.
func writeApp(g Generator, nb *types.Notebook, srcPath, slug string, opts Options) ([]string, error) {
	sopts := opts.Script
	if sopts.SourcePath == "" {
		sopts.SourcePath = srcPath
	}

	s, err := g.Generate(nb, sopts)
	if err != nil {
		return nil, err
	}

	appPath := opts.appPath(slug)
	if err := os.MkdirAll(filepath.Dir(appPath), 0o755); err != nil {
		return nil, err
	}
	if err := os.WriteFile(appPath, []byte(s.Source), 0o644); err != nil {
		return nil, err
	}

	if opts.Requirements && !opts.Flat {
		reqPath := filepath.Join(filepath.Dir(appPath), "requirements.txt")
		body := script.RequirementsFile(s.Requirements)
		if err := os.WriteFile(reqPath, []byte(body), 0o644); err != nil {
			return nil, err
		}
	}

	return s.Warnings, nil
}

// ConvertBatch processes a list of notebook paths through the generator,
// printing per-file status to w and returning a summary. With Jobs > 1 the
// notebooks convert concurrently; each notebook's lines stay contiguous.
func ConvertBatch(g Generator, paths []string, opts Options, w io.Writer) BatchResult {
	var result BatchResult
	if opts.Jobs > 1 {
		result = convertParallel(g, paths, opts, w)
	} else {
		for _, p := range paths {
			result.add(ConvertNotebook(g, p, opts, w))
		}
	}
	fmt.Fprintf(w, "\nBatch summary: %d converted, %d skipped, %d failed (total: %d)\n",
		result.Converted, result.Skipped, result.Failed, result.Total())
	return result
}

// convertParallel fans the batch out over an errgroup capped at Jobs workers.
// Each notebook writes into its own buffer which is flushed to w under a
// mutex, so concurrent conversions never interleave their status lines.
func convertParallel(g Generator, paths []string, opts Options, w io.Writer) BatchResult {
	var (
		mu     sync.Mutex
		result BatchResult
	)

	var eg errgroup.Group
	eg.SetLimit(opts.Jobs)
	for _, path := range paths {
		path := path
		eg.Go(func() error {
			var buf bytes.Buffer
			status := ConvertNotebook(g, path, opts, &buf)

			mu.Lock()
			defer mu.Unlock()
			io.Copy(w, &buf)
			result.add(status)
			return nil
		})
	}
	eg.Wait()
	return result
}

// ConvertDir finds every notebook under dir and converts the lot.
func ConvertDir(g Generator, dir string, opts Options, w io.Writer) (BatchResult, error) {
	paths, err := notebook.Find(dir)
	if err != nil {
		return BatchResult{}, err
	}
	if len(paths) == 0 {
		return BatchResult{}, fmt.Errorf("no notebooks found under %s", dir)
	}
	return ConvertBatch(g, paths, opts, w), nil
}
