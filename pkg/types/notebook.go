// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the strimlitbook pipeline.
// Implements: prd001-ingest (Notebook, Cell, Output, R1-R3);
//
//	prd002-app-generation (display tags, R2);
//	prd003-pipeline (ConversionStatus);
//	prd004-gallery (NotebookRecord, CellHit, R2-R3).
//
// See docs/ARCHITECTURE.md § Pipeline Interface, § Data Structures.
package types

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ConversionStatus indicates the state of notebook-to-app conversion for a
// single notebook. Per prd003-pipeline R4.2.
type ConversionStatus string

const (
	ConversionNone   ConversionStatus = "none"
	ConversionDone   ConversionStatus = "converted"
	ConversionFailed ConversionStatus = "failed"
)

// CellType identifies the kind of a notebook cell.
// Per prd001-ingest R2.1.
type CellType string

const (
	CellCode     CellType = "code"
	CellMarkdown CellType = "markdown"
	CellRaw      CellType = "raw"
)

// OutputType discriminates the entries of a code cell's outputs list.
// Per prd001-ingest R3.1.
type OutputType string

const (
	OutputStream        OutputType = "stream"
	OutputDisplayData   OutputType = "display_data"
	OutputExecuteResult OutputType = "execute_result"
	OutputError         OutputType = "error"
)

// Display-tag vocabulary. Authors control how a cell renders in the generated
// app by tagging it in Jupyter; every behavior has a long form and a two-letter
// short form. Per prd002-app-generation R2.1-R2.6.
const (
	TagSkip = "skip"

	TagHideInput      = "hide_input"
	TagHideInputShort = "hi"

	TagHideOutput      = "hide_output"
	TagHideOutputShort = "ho"

	TagCollapseInput      = "collapsed_input"
	TagCollapseInputShort = "ci"

	TagCollapseOutput      = "collapsed_output"
	TagCollapseOutputShort = "co"
)

// Source is notebook source text. The on-disk nbformat stores it either as a
// single JSON string or as an array of line fragments; both decode to the
// joined text.
type Source string

// UnmarshalJSON accepts a JSON string, an array of strings, or null.
func (s *Source) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = ""
		return nil
	}
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*s = Source(one)
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("source is neither string nor string array: %w", err)
	}
	*s = Source(strings.Join(many, ""))
	return nil
}

// MarshalJSON always emits the joined single-string form.
func (s Source) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(s))
}

func (s Source) String() string { return string(s) }

// MimeBundle maps MIME types to raw payloads inside a rich output or a
// markdown cell attachment. Values may be JSON strings, arrays of string
// fragments, or structured documents (e.g. a Plotly figure).
type MimeBundle map[string]json.RawMessage

// Has reports whether the bundle carries an entry for mime.
func (m MimeBundle) Has(mime string) bool {
	_, ok := m[mime]
	return ok
}

// Text returns the payload for mime joined into a single string. The second
// return is false when the key is absent or the payload is not textual.
func (m MimeBundle) Text(mime string) (string, bool) {
	raw, ok := m[mime]
	if !ok {
		return "", false
	}
	var s Source
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return string(s), true
}

// JSON returns the raw payload for mime.
func (m MimeBundle) JSON(mime string) (json.RawMessage, bool) {
	raw, ok := m[mime]
	return raw, ok
}

// Output is a single entry in a code cell's outputs list. Exactly one of the
// field groups is populated depending on Type.
// Per prd001-ingest R3.1-R3.4.
type Output struct {
	// Type discriminates the union: stream, display_data, execute_result, error.
	Type OutputType `json:"output_type" yaml:"output_type"`

	// Name is the stream name for stream outputs: "stdout" or "stderr".
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Text is the accumulated stream payload for stream outputs.
	Text Source `json:"text,omitempty" yaml:"text,omitempty"`

	// Data maps MIME types to payloads for display_data and execute_result.
	Data MimeBundle `json:"data,omitempty" yaml:"data,omitempty"`

	// Metadata carries renderer hints keyed by MIME type; passed through untouched.
	Metadata json.RawMessage `json:"metadata,omitempty" yaml:"metadata,omitempty"`

	// ExecutionCount is the prompt number for execute_result outputs.
	ExecutionCount *int `json:"execution_count,omitempty" yaml:"execution_count,omitempty"`

	// EName is the exception class name for error outputs.
	EName string `json:"ename,omitempty" yaml:"ename,omitempty"`

	// EValue is the exception message for error outputs.
	EValue string `json:"evalue,omitempty" yaml:"evalue,omitempty"`

	// Traceback holds the ANSI-colored traceback lines for error outputs.
	Traceback []string `json:"traceback,omitempty" yaml:"traceback,omitempty"`
}

// CellMetadata is the subset of per-cell metadata the converter reads.
type CellMetadata struct {
	// Tags are the author-assigned cell tags; the display-tag vocabulary
	// above controls rendering.
	Tags []string `json:"tags,omitempty" yaml:"tags,omitempty"`

	// Name is an optional author-assigned cell name.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
}

// Cell is a single notebook cell.
// Per prd001-ingest R2.1-R2.5: type, source, tags, recorded outputs on code
// cells, attachments on markdown cells.
type Cell struct {
	// ID is the stable cell identifier (present since nbformat 4.5).
	ID string `json:"id,omitempty" yaml:"id,omitempty"`

	// Type is the cell type: code, markdown, or raw.
	Type CellType `json:"cell_type" yaml:"cell_type"`

	// Source is the cell's text content.
	Source Source `json:"source" yaml:"source"`

	// Metadata holds per-cell metadata; Tags drive display behavior.
	Metadata CellMetadata `json:"metadata" yaml:"metadata"`

	// Outputs holds the recorded outputs of a code cell.
	Outputs []Output `json:"outputs,omitempty" yaml:"outputs,omitempty"`

	// Attachments maps attachment names to MIME bundles on markdown cells
	// (referenced from the source as "attachment:<name>").
	Attachments map[string]MimeBundle `json:"attachments,omitempty" yaml:"attachments,omitempty"`

	// ExecutionCount is the cell's prompt number, if the cell has been run.
	ExecutionCount *int `json:"execution_count,omitempty" yaml:"execution_count,omitempty"`
}

// HasTag reports whether the cell carries any of the given tags.
func (c Cell) HasTag(tags ...string) bool {
	for _, have := range c.Metadata.Tags {
		for _, want := range tags {
			if have == want {
				return true
			}
		}
	}
	return false
}

// Skipped reports whether the cell is excluded from the generated app entirely.
func (c Cell) Skipped() bool { return c.HasTag(TagSkip) }

// HideInput reports whether the cell's source is omitted from the app.
func (c Cell) HideInput() bool { return c.HasTag(TagHideInputShort, TagHideInput) }

// HideOutput reports whether the cell's outputs are omitted from the app.
func (c Cell) HideOutput() bool { return c.HasTag(TagHideOutputShort, TagHideOutput) }

// CollapseInput reports whether the cell's source renders inside an expander.
func (c Cell) CollapseInput() bool { return c.HasTag(TagCollapseInputShort, TagCollapseInput) }

// CollapseOutput reports whether the cell's outputs render inside an expander.
func (c Cell) CollapseOutput() bool { return c.HasTag(TagCollapseOutputShort, TagCollapseOutput) }

// Kernelspec identifies the kernel a notebook was authored against.
type Kernelspec struct {
	Name        string `json:"name" yaml:"name"`
	DisplayName string `json:"display_name,omitempty" yaml:"display_name,omitempty"`
	Language    string `json:"language,omitempty" yaml:"language,omitempty"`
}

// LanguageInfo describes the kernel language as recorded by Jupyter.
type LanguageInfo struct {
	Name          string `json:"name" yaml:"name"`
	Version       string `json:"version,omitempty" yaml:"version,omitempty"`
	FileExtension string `json:"file_extension,omitempty" yaml:"file_extension,omitempty"`
}

// NotebookMetadata is the subset of notebook-level metadata the converter reads.
type NotebookMetadata struct {
	Kernelspec   *Kernelspec   `json:"kernelspec,omitempty" yaml:"kernelspec,omitempty"`
	LanguageInfo *LanguageInfo `json:"language_info,omitempty" yaml:"language_info,omitempty"`
}

// Notebook is a decoded .ipynb document.
// Per prd001-ingest R1.1-R1.4.
type Notebook struct {
	// Cells in document order.
	Cells []Cell `json:"cells" yaml:"cells"`

	// Metadata holds notebook-level metadata.
	Metadata NotebookMetadata `json:"metadata" yaml:"metadata"`

	// NBFormat and NBFormatMinor record the document format version.
	NBFormat      int `json:"nbformat" yaml:"nbformat"`
	NBFormatMinor int `json:"nbformat_minor" yaml:"nbformat_minor"`
}

// DefaultLanguage is assumed when a notebook records no kernel language.
const DefaultLanguage = "python"

// Language returns the notebook's kernel language, falling back to the
// language_info name and finally to DefaultLanguage. Julia and R notebooks
// rely on this for code block highlighting in the generated app.
func (n *Notebook) Language() string {
	if ks := n.Metadata.Kernelspec; ks != nil && ks.Language != "" {
		return ks.Language
	}
	if li := n.Metadata.LanguageInfo; li != nil && li.Name != "" {
		return li.Name
	}
	return DefaultLanguage
}

// NCells counts the cells that participate in conversion: code and markdown.
// Raw cells are carried in the model but never rendered.
func (n *Notebook) NCells() int {
	count := 0
	for _, c := range n.Cells {
		if c.Type == CellCode || c.Type == CellMarkdown {
			count++
		}
	}
	return count
}

// CountCells returns the number of cells of the given type.
func (n *Notebook) CountCells(t CellType) int {
	count := 0
	for _, c := range n.Cells {
		if c.Type == t {
			count++
		}
	}
	return count
}

// Split partitions the notebook at cell index idx into two notebooks sharing
// metadata: the first holds cells [0, idx), the second [idx, len). It returns
// an error when idx would leave either side empty.
func (n *Notebook) Split(idx int) (*Notebook, *Notebook, error) {
	if idx <= 0 || idx >= len(n.Cells) {
		return nil, nil, fmt.Errorf("split index %d out of range 1..%d", idx, len(n.Cells)-1)
	}
	first := &Notebook{
		Cells:         n.Cells[:idx:idx],
		Metadata:      n.Metadata,
		NBFormat:      n.NBFormat,
		NBFormatMinor: n.NBFormatMinor,
	}
	second := &Notebook{
		Cells:         n.Cells[idx:],
		Metadata:      n.Metadata,
		NBFormat:      n.NBFormat,
		NBFormatMinor: n.NBFormatMinor,
	}
	return first, second, nil
}
