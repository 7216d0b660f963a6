// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package validate checks notebook files against the nbformat v4 JSON
// schema, plus decode-level checks the schema cannot express.
// Implements: prd008-validation (R1-R4);
//
//	docs/ARCHITECTURE § Validation.
package validate

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/BexTuychiev/strimlitbook/internal/notebook"
)

//go:embed nbformat.v4.schema.json
var schemaJSON []byte

var (
	schemaOnce sync.Once
	schema     *gojsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaJSON))
	})
	return schema, schemaErr
}

// Issue is a single validation problem found in a notebook file (R2.1).
type Issue struct {
	// Path locates the offending element ("cells.2.outputs.0"); empty for
	// file-level problems such as malformed JSON.
	Path string

	// Message describes the problem.
	Message string
}

func (i Issue) String() string {
	if i.Path == "" {
		return i.Message
	}
	return i.Path + ": " + i.Message
}

// ValidateFile checks one notebook file and returns its issues. A nil
// issue list means the file is a valid v4 notebook (R1.1). The error
// return is reserved for I/O failures.
func ValidateFile(path string) ([]Issue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading notebook: %w", err)
	}
	return ValidateBytes(data)
}

// ValidateBytes checks raw notebook JSON (R1.2, R2).
func ValidateBytes(data []byte) ([]Issue, error) {
	// Syntactic check first so broken JSON yields one clear issue instead
	// of a schema-loader error (R2.2).
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return []Issue{{Message: fmt.Sprintf("not valid JSON: %v", err)}}, nil
	}

	// Only v4 notebooks are supported. Reporting the version directly beats
	// the noise a v3 document produces against the v4 schema (R2.3). A
	// missing or non-numeric nbformat falls through to the schema.
	if obj, ok := doc.(map[string]any); ok {
		if v, ok := obj["nbformat"].(float64); ok && v != 4 {
			return []Issue{{
				Path:    "nbformat",
				Message: fmt.Sprintf("unsupported notebook format version %d (expected 4)", int(v)),
			}}, nil
		}
	}

	s, err := compiledSchema()
	if err != nil {
		return nil, fmt.Errorf("compiling nbformat schema: %w", err)
	}

	result, err := s.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("validating notebook: %w", err)
	}

	var issues []Issue
	for _, re := range result.Errors() {
		issues = append(issues, Issue{Path: re.Field(), Message: re.Description()})
	}
	if len(issues) > 0 {
		return issues, nil
	}

	// The document is schema-valid; make sure it also loads into the
	// conversion model (R2.4).
	if _, err := notebook.Decode(bytes.NewReader(data)); err != nil {
		issues = append(issues, Issue{Message: fmt.Sprintf("decoding notebook: %v", err)})
	}

	return issues, nil
}

// BatchSummary holds counts from a batch validation run (R3.3).
type BatchSummary struct {
	Valid   int
	Invalid int
	Failed  int
}

// Total returns the number of files checked.
func (s BatchSummary) Total() int {
	return s.Valid + s.Invalid + s.Failed
}

// HasProblems reports whether any file was invalid or unreadable.
func (s BatchSummary) HasProblems() bool {
	return s.Invalid > 0 || s.Failed > 0
}

// ValidateBatch checks each file, writing per-file status lines and a
// closing summary to w (R3.1, R3.2).
func ValidateBatch(paths []string, w io.Writer) BatchSummary {
	var summary BatchSummary

	for _, path := range paths {
		slug := notebook.Slug(path)

		issues, err := ValidateFile(path)
		switch {
		case err != nil:
			fmt.Fprintf(w, "failed:  %s (%v)\n", slug, err)
			summary.Failed++
		case len(issues) > 0:
			fmt.Fprintf(w, "invalid: %s (%d issues)\n", slug, len(issues))
			for _, issue := range issues {
				fmt.Fprintf(w, "  %s\n", issue)
			}
			summary.Invalid++
		default:
			fmt.Fprintf(w, "valid:   %s\n", slug)
			summary.Valid++
		}
	}

	fmt.Fprintf(w, "\nValidation summary: %d valid, %d invalid, %d failed (total: %d)\n",
		summary.Valid, summary.Invalid, summary.Failed, summary.Total())

	return summary
}

// ValidateDir scans dir for notebooks and validates them all (R3.4).
func ValidateDir(dir string, w io.Writer) (BatchSummary, error) {
	paths, err := notebook.Find(dir)
	if err != nil {
		return BatchSummary{}, err
	}
	if len(paths) == 0 {
		return BatchSummary{}, fmt.Errorf("no notebooks found under %s", dir)
	}
	return ValidateBatch(paths, w), nil
}
