// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package notebook

import (
	"encoding/json"
	"strings"

	"github.com/BexTuychiev/strimlitbook/pkg/types"
)

// MIME types the classifier understands.
const (
	mimePlotly     = "application/vnd.plotly.v1+json"
	mimeHTML       = "text/html"
	mimePNG        = "image/png"
	mimePlain      = "text/plain"
	vegaLitePrefix = "application/vnd.vegalite.v"
)

// RenderKind identifies how a classified output renders in the generated app.
type RenderKind string

const (
	RenderStream   RenderKind = "stream"
	RenderPlotly   RenderKind = "plotly"
	RenderVegaLite RenderKind = "vega_lite"
	RenderHTML     RenderKind = "html"
	RenderImage    RenderKind = "image"
	RenderText     RenderKind = "text"
	RenderError    RenderKind = "error"
)

// Rendering is a single display instruction derived from one recorded output.
// Kind selects which payload fields are set.
type Rendering struct {
	Kind RenderKind

	// Text holds stream output, plain text, or HTML markup.
	Text string

	// StreamName is "stdout" or "stderr" for stream renderings.
	StreamName string

	// Data, Layout, Config hold the raw Plotly figure JSON.
	Data   json.RawMessage
	Layout json.RawMessage
	Config json.RawMessage

	// Spec holds a raw Vega-Lite chart specification.
	Spec json.RawMessage

	// ImageB64 is the base64 PNG payload, whitespace stripped. AltText holds
	// the text/plain sibling used as a fallback when the payload is unusable.
	ImageB64 string
	AltText  string

	// EName and EValue describe an error output.
	EName  string
	EValue string
}

// plotlyFigure is the wire shape of a Plotly MIME payload.
type plotlyFigure struct {
	Data   json.RawMessage `json:"data"`
	Layout json.RawMessage `json:"layout"`
	Config json.RawMessage `json:"config"`
}

// Classify maps one recorded output to at most one rendering. Rich outputs
// resolve to their single richest representation, in the order Plotly,
// Vega-Lite, HTML, PNG, plain text, which is what the notebook showed on
// screen. The second return is false when nothing is renderable.
func Classify(out types.Output) (Rendering, bool) {
	switch out.Type {
	case types.OutputStream:
		name := out.Name
		if name == "" {
			name = "stdout"
		}
		return Rendering{Kind: RenderStream, Text: string(out.Text), StreamName: name}, true

	case types.OutputError:
		return Rendering{Kind: RenderError, EName: out.EName, EValue: out.EValue}, true

	case types.OutputDisplayData, types.OutputExecuteResult:
		return classifyData(out.Data)
	}
	return Rendering{}, false
}

func classifyData(data types.MimeBundle) (Rendering, bool) {
	if raw, ok := data.JSON(mimePlotly); ok {
		var fig plotlyFigure
		if err := json.Unmarshal(raw, &fig); err == nil && (len(fig.Data) > 0 || len(fig.Layout) > 0) {
			return Rendering{Kind: RenderPlotly, Data: fig.Data, Layout: fig.Layout, Config: fig.Config}, true
		}
	}

	if raw, ok := vegaLitePayload(data); ok {
		return Rendering{Kind: RenderVegaLite, Spec: raw}, true
	}

	if html, ok := data.Text(mimeHTML); ok {
		return Rendering{Kind: RenderHTML, Text: html}, true
	}

	if b64, ok := data.Text(mimePNG); ok {
		r := Rendering{Kind: RenderImage, ImageB64: stripWhitespace(b64)}
		if alt, ok := data.Text(mimePlain); ok {
			r.AltText = alt
		}
		return r, true
	}

	if text, ok := data.Text(mimePlain); ok {
		return Rendering{Kind: RenderText, Text: text}, true
	}

	return Rendering{}, false
}

// vegaLitePayload returns the raw spec for any vegalite version key
// (application/vnd.vegalite.v4+json, v5, ...).
func vegaLitePayload(data types.MimeBundle) (json.RawMessage, bool) {
	for mime, raw := range data {
		if strings.HasPrefix(mime, vegaLitePrefix) && strings.HasSuffix(mime, "+json") {
			return raw, true
		}
	}
	return nil, false
}

// stripWhitespace removes the line wrapping Jupyter inserts into base64 payloads.
func stripWhitespace(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r':
			return -1
		}
		return r
	}, s)
}

// CellRenderings classifies every output of a code cell, coalescing adjacent
// stream chunks with the same name into one block the way Jupyter shows them.
func CellRenderings(cell types.Cell) []Rendering {
	var out []Rendering
	for _, o := range cell.Outputs {
		r, ok := Classify(o)
		if !ok {
			continue
		}
		if r.Kind == RenderStream && len(out) > 0 {
			last := &out[len(out)-1]
			if last.Kind == RenderStream && last.StreamName == r.StreamName {
				last.Text += r.Text
				continue
			}
		}
		out = append(out, r)
	}
	return out
}
