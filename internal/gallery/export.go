// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package gallery

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"
)

// ExportEntry holds an indexed cell with notebook metadata for export (R6.3).
type ExportEntry struct {
	NotebookID string          `json:"notebook_id" yaml:"notebook_id"`
	CellIndex  int             `json:"cell_index" yaml:"cell_index"`
	CellType   string          `json:"cell_type" yaml:"cell_type"`
	Source     string          `json:"source" yaml:"source"`
	Tags       []string        `json:"tags" yaml:"tags"`
	Notebook   *ExportNotebook `json:"notebook,omitempty" yaml:"notebook,omitempty"`
}

// ExportNotebook holds the notebook-level fields included in each export entry.
type ExportNotebook struct {
	Title  string `json:"title" yaml:"title"`
	Kernel string `json:"kernel" yaml:"kernel"`
}

const exportLimit = 100000

// ExportYAML writes the gallery index to gallery/index/export.yaml (R6.1).
// It supports the same filters as Retrieve (R6.4).
func (s *Store) ExportYAML(ctx context.Context, opts QueryOptions) error {
	entries, err := s.exportEntries(ctx, opts)
	if err != nil {
		return err
	}

	path := filepath.Join(s.galleryDir, indexDir, "export.yaml")
	data, err := yaml.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ExportJSON writes the gallery index to gallery/index/export.json (R6.2).
// It supports the same filters as Retrieve (R6.4).
func (s *Store) ExportJSON(ctx context.Context, opts QueryOptions) error {
	entries, err := s.exportEntries(ctx, opts)
	if err != nil {
		return err
	}

	path := filepath.Join(s.galleryDir, indexDir, "export.json")
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func (s *Store) exportEntries(ctx context.Context, opts QueryOptions) ([]ExportEntry, error) {
	opts.MaxResults = exportLimit
	results, err := s.Retrieve(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}

	kernels := make(map[string]string)
	records, err := s.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing notebooks for export: %w", err)
	}
	for _, rec := range records {
		kernels[rec.ID] = rec.Kernel
	}

	entries := make([]ExportEntry, len(results))
	for i, r := range results {
		entries[i] = ExportEntry{
			NotebookID: r.NotebookID,
			CellIndex:  r.CellIndex,
			CellType:   string(r.CellType),
			Source:     r.Source,
			Tags:       r.Tags,
		}
		if r.Title != "" || kernels[r.NotebookID] != "" {
			entries[i].Notebook = &ExportNotebook{
				Title:  r.Title,
				Kernel: kernels[r.NotebookID],
			}
		}
	}

	return entries, nil
}
