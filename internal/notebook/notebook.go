// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package notebook reads .ipynb documents and classifies their recorded
// outputs for rendering.
// Implements: prd001-ingest (R1, R2, R3);
//
//	docs/ARCHITECTURE § Ingest.
package notebook

import (
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BexTuychiev/strimlitbook/pkg/types"
)

// CheckpointDir is Jupyter's autosave directory, excluded from scans.
const CheckpointDir = ".ipynb_checkpoints"

// Read loads and decodes the notebook file at path.
func Read(path string) (*types.Notebook, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open notebook: %w", err)
	}
	defer f.Close()

	nb, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return nb, nil
}

// Decode parses an nbformat JSON document from r. Documents older than
// nbformat 4 are rejected; so are documents without a cells list (which is
// what an nbformat 3 file looks like to this decoder).
func Decode(r io.Reader) (*types.Notebook, error) {
	var nb types.Notebook
	if err := json.NewDecoder(r).Decode(&nb); err != nil {
		return nil, fmt.Errorf("parse notebook JSON: %w", err)
	}
	if nb.NBFormat != 0 && nb.NBFormat < 4 {
		return nil, fmt.Errorf("unsupported nbformat %d: version 4 or later required", nb.NBFormat)
	}
	if nb.Cells == nil {
		return nil, fmt.Errorf("notebook has no cells list")
	}
	return &nb, nil
}

// Slug derives a notebook identifier from its filename stem. An empty path
// has no stem and yields "".
func Slug(path string) string {
	if path == "" {
		return ""
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Title returns the notebook's display title: the first level-one heading
// found in its markdown cells, or the filename stem when there is none.
// Headings inside fenced code blocks do not count.
func Title(nb *types.Notebook, path string) string {
	for _, c := range nb.Cells {
		if c.Type != types.CellMarkdown {
			continue
		}
		inFence := false
		for _, line := range strings.Split(string(c.Source), "\n") {
			trimmed := strings.TrimSpace(line)
			if strings.HasPrefix(trimmed, "```") {
				inFence = !inFence
				continue
			}
			if inFence {
				continue
			}
			if strings.HasPrefix(trimmed, "# ") {
				return strings.TrimSpace(strings.TrimPrefix(trimmed, "# "))
			}
		}
	}
	return Slug(path)
}

// Stats summarizes a notebook's cells and renderable outputs.
type Stats struct {
	CodeCells     int
	MarkdownCells int
	RawCells      int

	// Outputs counts classified renderings by kind across all code cells.
	Outputs map[RenderKind]int
}

// Collect walks the notebook once and tallies cell and output counts.
func Collect(nb *types.Notebook) Stats {
	s := Stats{Outputs: make(map[RenderKind]int)}
	for _, c := range nb.Cells {
		switch c.Type {
		case types.CellCode:
			s.CodeCells++
			for _, r := range CellRenderings(c) {
				s.Outputs[r.Kind]++
			}
		case types.CellMarkdown:
			s.MarkdownCells++
		case types.CellRaw:
			s.RawCells++
		}
	}
	return s
}

// Find walks dir and returns the paths of all notebook files, sorted,
// skipping Jupyter checkpoint directories and dotfiles.
func Find(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if name == CheckpointDir || (strings.HasPrefix(name, ".") && path != dir) {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") {
			return nil
		}
		if strings.EqualFold(filepath.Ext(name), ".ipynb") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}
	sort.Strings(paths)
	return paths, nil
}
