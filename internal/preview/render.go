// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package preview

import (
	"bytes"
	"fmt"
	"html"
	"html/template"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/BexTuychiev/strimlitbook/internal/notebook"
	"github.com/BexTuychiev/strimlitbook/pkg/types"
)

// Renderer turns notebook cells into static HTML fragments (R3).
type Renderer struct {
	md goldmark.Markdown
}

// NewRenderer builds the markdown converter. GFM tables are on because
// pandas-flavored notebooks lean on them; raw HTML passes through the way
// Jupyter renders it.
func NewRenderer() *Renderer {
	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(goldmarkhtml.WithUnsafe()),
		),
	}
}

// Markdown converts one markdown cell source to HTML (R3.1).
func (r *Renderer) Markdown(source string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return template.HTML(buf.String()), nil
}

// renderedCell is one cell prepared for the notebook template.
type renderedCell struct {
	Type     types.CellType
	Source   string
	Markdown template.HTML
	Outputs  []template.HTML
}

// notebookPage is the data handed to the notebook template.
type notebookPage struct {
	Slug        string
	Title       string
	Language    string
	Cells       []renderedCell
	MTime       int64
	NeedsPlotly bool
	NeedsVega   bool
}

// RenderNotebook prepares a full page model for one notebook (R3.2-R3.4).
// Raw cells are dropped, matching the conversion pipeline.
func (r *Renderer) RenderNotebook(nb *types.Notebook, slug, path string, mtime int64) (*notebookPage, error) {
	page := &notebookPage{
		Slug:     slug,
		Title:    notebook.Title(nb, path),
		Language: nb.Language(),
		MTime:    mtime,
	}

	for i, cell := range nb.Cells {
		switch cell.Type {
		case types.CellMarkdown:
			md, err := r.Markdown(string(cell.Source))
			if err != nil {
				return nil, fmt.Errorf("cell %d: %w", i+1, err)
			}
			page.Cells = append(page.Cells, renderedCell{Type: cell.Type, Markdown: md})

		case types.CellCode:
			rc := renderedCell{Type: cell.Type, Source: string(cell.Source)}
			for oi, rd := range notebook.CellRenderings(cell) {
				rc.Outputs = append(rc.Outputs, renderOutput(rd, i, oi))
				switch rd.Kind {
				case notebook.RenderPlotly:
					page.NeedsPlotly = true
				case notebook.RenderVegaLite:
					page.NeedsVega = true
				}
			}
			page.Cells = append(page.Cells, rc)
		}
	}

	return page, nil
}

// renderOutput maps one classified output to an HTML fragment (R3.3).
// Notebook-embedded HTML and chart payloads are passed through untouched:
// the preview serves local files to a local browser.
func renderOutput(rd notebook.Rendering, cellIdx, outIdx int) template.HTML {
	switch rd.Kind {
	case notebook.RenderStream:
		class := "output-stream"
		if rd.StreamName == "stderr" {
			class += " output-stderr"
		}
		return template.HTML(fmt.Sprintf(`<pre class="%s">%s</pre>`, class, html.EscapeString(rd.Text)))

	case notebook.RenderText:
		return template.HTML(fmt.Sprintf(`<pre class="output-text">%s</pre>`, html.EscapeString(rd.Text)))

	case notebook.RenderHTML:
		return template.HTML(rd.Text)

	case notebook.RenderImage:
		alt := rd.AltText
		if alt == "" {
			alt = "notebook output"
		}
		return template.HTML(fmt.Sprintf(
			`<img class="output-image" src="data:image/png;base64,%s" alt="%s">`,
			rd.ImageB64, html.EscapeString(firstLine(alt)),
		))

	case notebook.RenderPlotly:
		id := fmt.Sprintf("plotly-%d-%d", cellIdx, outIdx)
		data, layout, config := orJSON(rd.Data, "[]"), orJSON(rd.Layout, "{}"), orJSON(rd.Config, "{}")
		return template.HTML(fmt.Sprintf(
			`<div class="output-plotly" id="%s"></div>
<script>Plotly.newPlot("%s", %s, %s, %s);</script>`,
			id, id, data, layout, config,
		))

	case notebook.RenderVegaLite:
		id := fmt.Sprintf("vega-%d-%d", cellIdx, outIdx)
		return template.HTML(fmt.Sprintf(
			`<div class="output-vega" id="%s"></div>
<script>vegaEmbed("#%s", %s);</script>`,
			id, id, string(rd.Spec),
		))

	case notebook.RenderError:
		return template.HTML(fmt.Sprintf(
			`<div class="output-error"><strong>%s</strong>: %s</div>`,
			html.EscapeString(rd.EName), html.EscapeString(rd.EValue),
		))
	}
	return ""
}

func orJSON(raw []byte, fallback string) string {
	if len(raw) == 0 {
		return fallback
	}
	return string(raw)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
