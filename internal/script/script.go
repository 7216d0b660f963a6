// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package script generates Streamlit application scripts from notebook
// documents: cell sources and markdown become st.code and st.markdown calls,
// recorded outputs are re-rendered through the matching Streamlit primitive,
// and display tags turn into expanders or omissions.
// Implements: prd002-app-generation (R1-R6);
//
//	docs/ARCHITECTURE § App Generation.
package script

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/BexTuychiev/strimlitbook/internal/notebook"
	"github.com/BexTuychiev/strimlitbook/pkg/types"
)

// streamlitRequirement pins the oldest Streamlit carrying every call the
// generator emits (expanders and st.vega_lite_chart).
const streamlitRequirement = "streamlit>=0.80.0"

// Options configure a single script generation.
type Options struct {
	// SourcePath is the notebook path recorded in the generated header.
	SourcePath string

	// Title is the st.set_page_config page title. When empty it is derived
	// from the notebook's first heading, then from the filename.
	Title string

	// Layout is the Streamlit page layout: wide (default) or centered.
	Layout types.PageLayout

	// Version is the tool version recorded in the generated header.
	Version string

	// Now supplies the header timestamp; time.Now when nil.
	Now func() time.Time
}

// Script is a generated Streamlit application.
type Script struct {
	// Source is the complete Python text of the app.
	Source string

	// Requirements lists the app's Python dependencies, one requirements.txt
	// line per entry.
	Requirements []string

	// Warnings records cell parts that could not be converted faithfully.
	Warnings []string
}

// Builder renders notebooks into Streamlit scripts.
type Builder struct{}

// NewBuilder returns a ready Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// needs tracks which imports the generated body requires.
type needs struct {
	json   bool
	plotly bool
	base64 bool
	pandas bool
}

// Generate renders nb into a complete Streamlit app script.
func (b *Builder) Generate(nb *types.Notebook, opts Options) (*Script, error) {
	if nb == nil {
		return nil, fmt.Errorf("nil notebook")
	}

	lang := nb.Language()
	var need needs
	var warnings []string
	warnf := func(format string, args ...any) {
		warnings = append(warnings, fmt.Sprintf(format, args...))
	}

	body := &writer{}
	emitted := false
	for i, cell := range nb.Cells {
		cw := &writer{}
		b.emitCell(cw, cell, i, lang, &need, warnf)
		if cw.b.Len() == 0 {
			continue
		}
		if emitted {
			body.line("")
		}
		body.b.WriteString(cw.String())
		emitted = true
	}

	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	title := opts.Title
	if title == "" {
		title = notebook.Title(nb, opts.SourcePath)
	}
	if title == "" {
		title = "app"
	}
	layout := opts.Layout
	if layout == "" {
		layout = types.LayoutWide
	}
	version := opts.Version
	if version == "" {
		version = "dev"
	}

	out := &writer{}
	out.linef("# Generated by strimlitbook %s. DO NOT EDIT.", version)
	if opts.SourcePath != "" {
		out.linef("# Source: %s", opts.SourcePath)
	}
	if nb.NBFormat > 0 {
		out.linef("# Kernel: %s (nbformat %d.%d)", lang, nb.NBFormat, nb.NBFormatMinor)
	} else {
		out.linef("# Kernel: %s", lang)
	}
	out.linef("# Converted: %s", now().UTC().Format(time.RFC3339))
	out.line("")

	var std []string
	if need.base64 {
		std = append(std, "base64")
	}
	if need.json {
		std = append(std, "json")
	}
	for _, mod := range std {
		out.linef("import %s", mod)
	}
	if len(std) > 0 {
		out.line("")
	}
	if need.pandas {
		out.line("import pandas as pd")
	}
	if need.plotly {
		out.line("import plotly.graph_objects as go")
	}
	out.line("import streamlit as st")
	out.line("")
	out.linef("st.set_page_config(page_title=%s, layout=%s)", pyEscape(title), pyEscape(string(layout)))

	if emitted {
		out.line("")
		out.b.WriteString(body.String())
	}

	return &Script{
		Source:       out.String(),
		Requirements: requirements(need),
		Warnings:     warnings,
	}, nil
}

// requirements lists the Python packages the generated script imports.
func requirements(need needs) []string {
	reqs := []string{streamlitRequirement}
	if need.pandas {
		reqs = append(reqs, "pandas")
	}
	if need.plotly {
		reqs = append(reqs, "plotly")
	}
	return reqs
}

// RequirementsFile renders requirement entries as a requirements.txt body.
func RequirementsFile(reqs []string) string {
	return strings.Join(reqs, "\n") + "\n"
}

// plotlyFigureJSON reassembles the figure document handed to go.Figure from
// the raw data and layout payloads, preserving their bytes.
func plotlyFigureJSON(r notebook.Rendering) json.RawMessage {
	var b strings.Builder
	b.WriteString(`{"data": `)
	if len(r.Data) > 0 {
		b.Write(r.Data)
	} else {
		b.WriteString("[]")
	}
	b.WriteString(`, "layout": `)
	if len(r.Layout) > 0 {
		b.Write(r.Layout)
	} else {
		b.WriteString("{}")
	}
	b.WriteString(`}`)
	return json.RawMessage(b.String())
}
