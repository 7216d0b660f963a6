// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// NotebookRecord is the gallery's indexed view of a single notebook file.
// Per prd004-gallery R2.1-R2.4.
type NotebookRecord struct {
	// ID is a slug derived from the notebook filename (e.g. "sales-analysis").
	ID string `json:"id" yaml:"id"`

	// Path is the notebook file path relative to the notebooks directory.
	Path string `json:"path" yaml:"path"`

	// Title is the first level-one heading of the first markdown cell, or the
	// filename stem when the notebook has none.
	Title string `json:"title" yaml:"title"`

	// Kernel is the notebook's kernel language (e.g. "python", "julia").
	Kernel string `json:"kernel" yaml:"kernel"`

	// NBFormat is the notebook document format major version.
	NBFormat int `json:"nbformat" yaml:"nbformat"`

	// CodeCells and MarkdownCells count the cells by type.
	CodeCells     int `json:"code_cells" yaml:"code_cells"`
	MarkdownCells int `json:"markdown_cells" yaml:"markdown_cells"`

	// SizeBytes is the notebook file size at indexing time.
	SizeBytes int64 `json:"size_bytes" yaml:"size_bytes"`

	// ModTime is the notebook file modification time at indexing time.
	ModTime time.Time `json:"mod_time" yaml:"mod_time"`

	// ConversionStatus tracks whether a Streamlit app has been generated.
	ConversionStatus ConversionStatus `json:"conversion_status" yaml:"conversion_status"`

	// AppPath is the generated app's path, when one exists.
	AppPath string `json:"app_path,omitempty" yaml:"app_path,omitempty"`
}

// CellHit is a single full-text search match within an indexed notebook.
// Per prd004-gallery R3.2-R3.4.
type CellHit struct {
	// NotebookID identifies the containing notebook.
	NotebookID string `json:"notebook_id" yaml:"notebook_id"`

	// Title is the containing notebook's title.
	Title string `json:"title" yaml:"title"`

	// CellIndex is the zero-based cell position within the notebook.
	CellIndex int `json:"cell_index" yaml:"cell_index"`

	// CellType is the matched cell's type.
	CellType CellType `json:"cell_type" yaml:"cell_type"`

	// Source is the matched cell's full text; display layers truncate it.
	Source string `json:"source" yaml:"source"`

	// Tags are the matched cell's tags.
	Tags []string `json:"tags,omitempty" yaml:"tags,omitempty"`
}
