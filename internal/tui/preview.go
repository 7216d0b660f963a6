// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/BexTuychiev/strimlitbook/internal/notebook"
	"github.com/BexTuychiev/strimlitbook/pkg/types"
)

// renderPreview renders the notebook through the markdown renderer, falling
// back to the raw projection when the renderer is unavailable or fails.
func renderPreview(renderer *glamour.TermRenderer, nb *types.Notebook) string {
	doc := notebookMarkdown(nb)
	if renderer != nil && doc != "" {
		if rendered, err := renderer.Render(doc); err == nil {
			return rendered
		}
	}
	return doc
}

// notebookMarkdown projects a notebook onto a single markdown document:
// markdown cells pass through, code cells become fenced blocks followed by
// their outputs, raw cells are dropped.
func notebookMarkdown(nb *types.Notebook) string {
	lang := nb.Language()
	var sb strings.Builder
	for _, cell := range nb.Cells {
		switch cell.Type {
		case types.CellMarkdown:
			sb.WriteString(strings.TrimRight(cell.Source.String(), "\n"))
			sb.WriteString("\n\n")
		case types.CellCode:
			source := strings.TrimRight(cell.Source.String(), "\n")
			if source != "" {
				fmt.Fprintf(&sb, "```%s\n%s\n```\n\n", lang, source)
			}
			for _, rd := range notebook.CellRenderings(cell) {
				sb.WriteString(renderingMarkdown(rd))
			}
		}
	}
	return strings.TrimRight(sb.String(), "\n") + "\n"
}

// renderingMarkdown projects one output rendering onto markdown. Charts and
// images cannot draw in a terminal, so they become labeled placeholders.
func renderingMarkdown(rd notebook.Rendering) string {
	switch rd.Kind {
	case notebook.RenderStream, notebook.RenderText:
		text := strings.TrimRight(rd.Text, "\n")
		if text == "" {
			return ""
		}
		return fmt.Sprintf("```\n%s\n```\n\n", text)
	case notebook.RenderError:
		return fmt.Sprintf("**%s**: %s\n\n", rd.EName, rd.EValue)
	case notebook.RenderPlotly:
		return "*[plotly chart]*\n\n"
	case notebook.RenderVegaLite:
		return "*[vega-lite chart]*\n\n"
	case notebook.RenderImage:
		alt := strings.TrimSpace(rd.AltText)
		if alt == "" {
			alt = "image output"
		}
		if i := strings.IndexByte(alt, '\n'); i >= 0 {
			alt = alt[:i]
		}
		return fmt.Sprintf("*[image: %s]*\n\n", alt)
	case notebook.RenderHTML:
		return "*[html output]*\n\n"
	}
	return ""
}
