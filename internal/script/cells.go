// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package script

import (
	"regexp"
	"strings"

	"github.com/BexTuychiev/strimlitbook/internal/notebook"
	"github.com/BexTuychiev/strimlitbook/pkg/types"
)

// Expander labels shown in the generated app.
const (
	labelCollapsedCell   = "See collapsed cell"
	labelCollapsedSource = "See hidden source code..."
	labelCollapsedOutput = "See hidden output..."
)

// attachmentRef matches inline image references to cell attachments:
// ![alt](attachment:name). The capture group is the attachment name.
var attachmentRef = regexp.MustCompile(`!\[[^\]]*\]\(attachment:([^)\s]+)\)`)

func (b *Builder) emitCell(w *writer, cell types.Cell, idx int, lang string, need *needs, warnf func(string, ...any)) {
	switch cell.Type {
	case types.CellMarkdown:
		b.emitMarkdown(w, cell, idx, need, warnf)
	case types.CellCode:
		b.emitCode(w, cell, idx, lang, need, warnf)
	}
	// Raw cells render nothing.
}

func (b *Builder) emitMarkdown(w *writer, cell types.Cell, idx int, need *needs, warnf func(string, ...any)) {
	if cell.Skipped() {
		return
	}

	collapse := cell.CollapseInput()
	body := &writer{indent: w.indent}
	if collapse {
		body.indent++
	}
	b.emitMarkdownBody(body, cell, idx, need, warnf)
	if body.b.Len() == 0 {
		return
	}

	if collapse {
		w.linef("with st.expander(%s):", pyEscape(labelCollapsedCell))
	}
	w.splice(body)
}

// emitMarkdownBody writes the cell text, splitting around attachment image
// references so the referenced images render inline between the text parts.
func (b *Builder) emitMarkdownBody(w *writer, cell types.Cell, idx int, need *needs, warnf func(string, ...any)) {
	src := string(cell.Source)
	refs := attachmentRef.FindAllStringSubmatchIndex(src, -1)
	if len(refs) == 0 || len(cell.Attachments) == 0 {
		emitMarkdownText(w, src)
		return
	}

	pos := 0
	for _, m := range refs {
		emitMarkdownText(w, src[pos:m[0]])
		name := src[m[2]:m[3]]
		b.emitAttachment(w, cell, idx, name, src[m[0]:m[1]], need, warnf)
		pos = m[1]
	}
	emitMarkdownText(w, src[pos:])
}

func emitMarkdownText(w *writer, text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	w.linef("st.markdown(%s, unsafe_allow_html=True)", pyString(text))
}

// emitAttachment resolves one attachment reference by name. PNG payloads are
// flattened onto a white background; JPEG and GIF pass through untouched. An
// unresolvable reference stays in the text as ordinary markdown.
func (b *Builder) emitAttachment(w *writer, cell types.Cell, idx int, name, ref string, need *needs, warnf func(string, ...any)) {
	media, ok := cell.Attachments[name]
	if !ok {
		warnf("cell %d: attachment %q not found", idx, name)
		emitMarkdownText(w, ref)
		return
	}

	if b64, ok := media.Text("image/png"); ok {
		data, err := preparePNG(b64)
		if err != nil {
			warnf("cell %d: attachment %q: %v", idx, name, err)
			emitMarkdownText(w, ref)
			return
		}
		need.base64 = true
		emitImage(w, data)
		return
	}

	for _, mime := range []string{"image/jpeg", "image/gif"} {
		if b64, ok := media.Text(mime); ok {
			data, err := decodeBase64(b64)
			if err != nil {
				warnf("cell %d: attachment %q: %v", idx, name, err)
				emitMarkdownText(w, ref)
				return
			}
			need.base64 = true
			emitImage(w, data)
			return
		}
	}

	warnf("cell %d: attachment %q has no supported image type", idx, name)
	emitMarkdownText(w, ref)
}

// emitCode renders a code cell. Display tags form a precedence ladder and
// only the first matching tag applies: skip, then hide input, hide output,
// collapse input, collapse output. A cell tagged both hi and ho therefore
// hides its source and still shows its outputs.
func (b *Builder) emitCode(w *writer, cell types.Cell, idx int, lang string, need *needs, warnf func(string, ...any)) {
	switch {
	case cell.Skipped():
	case cell.HideInput():
		b.emitCodeOutputs(w, cell, idx, lang, false, need, warnf)
	case cell.HideOutput():
		emitCodeSource(w, cell, lang, false)
	case cell.CollapseInput():
		emitCodeSource(w, cell, lang, true)
		b.emitCodeOutputs(w, cell, idx, lang, false, need, warnf)
	case cell.CollapseOutput():
		emitCodeSource(w, cell, lang, false)
		b.emitCodeOutputs(w, cell, idx, lang, true, need, warnf)
	default:
		emitCodeSource(w, cell, lang, false)
		b.emitCodeOutputs(w, cell, idx, lang, false, need, warnf)
	}
}

func emitCodeSource(w *writer, cell types.Cell, lang string, collapse bool) {
	if strings.TrimSpace(string(cell.Source)) == "" {
		return
	}
	if collapse {
		w.linef("with st.expander(%s):", pyEscape(labelCollapsedSource))
		w.in()
		w.linef("st.code(%s, language=%s)", pyString(string(cell.Source)), pyEscape(lang))
		w.out()
		return
	}
	w.linef("st.code(%s, language=%s)", pyString(string(cell.Source)), pyEscape(lang))
}

func (b *Builder) emitCodeOutputs(w *writer, cell types.Cell, idx int, lang string, collapse bool, need *needs, warnf func(string, ...any)) {
	outputs := &writer{indent: w.indent}
	if collapse {
		outputs.indent++
	}
	for _, r := range notebook.CellRenderings(cell) {
		b.emitRendering(outputs, r, idx, lang, need, warnf)
	}
	if outputs.b.Len() == 0 {
		return
	}

	if collapse {
		w.linef("with st.expander(%s):", pyEscape(labelCollapsedOutput))
	}
	w.splice(outputs)
}

func (b *Builder) emitRendering(w *writer, r notebook.Rendering, idx int, lang string, need *needs, warnf func(string, ...any)) {
	switch r.Kind {
	case notebook.RenderStream, notebook.RenderText:
		w.linef("st.code(%s, language=%s)", pyString(r.Text), pyEscape(lang))

	case notebook.RenderPlotly:
		need.json = true
		need.plotly = true
		w.linef("_fig = go.Figure(%s)", pyJSON(plotlyFigureJSON(r)))
		if len(r.Config) > 0 {
			w.linef("st.plotly_chart(_fig, config=%s)", pyJSON(r.Config))
		} else {
			w.line("st.plotly_chart(_fig)")
		}

	case notebook.RenderVegaLite:
		need.json = true
		w.linef("st.vega_lite_chart(%s)", pyJSON(r.Spec))

	case notebook.RenderHTML:
		if tbl, ok := extractTable(r.Text); ok {
			need.pandas = true
			emitDataFrame(w, tbl)
		} else {
			w.linef("st.markdown(%s, unsafe_allow_html=True)", pyString(r.Text))
		}

	case notebook.RenderImage:
		data, err := preparePNG(r.ImageB64)
		if err != nil {
			warnf("cell %d: image output: %v", idx, err)
			if r.AltText != "" {
				w.linef("st.code(%s, language=%s)", pyString(r.AltText), pyEscape(lang))
			}
			return
		}
		need.base64 = true
		emitImage(w, data)

	case notebook.RenderError:
		msg := r.EName
		if r.EValue != "" {
			msg = r.EName + ": " + r.EValue
		}
		w.linef("st.error(%s)", pyString(msg))
	}
}
