// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package notebook

import (
	"encoding/json"
	"testing"

	"github.com/BexTuychiev/strimlitbook/pkg/types"
)

func bundle(t *testing.T, pairs map[string]string) types.MimeBundle {
	t.Helper()
	m := make(types.MimeBundle, len(pairs))
	for mime, raw := range pairs {
		if !json.Valid([]byte(raw)) {
			t.Fatalf("fixture payload for %s is not valid JSON: %s", mime, raw)
		}
		m[mime] = json.RawMessage(raw)
	}
	return m
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		out      types.Output
		wantKind RenderKind
		wantOK   bool
		check    func(t *testing.T, r Rendering)
	}{
		{
			name:     "stream defaults to stdout",
			out:      types.Output{Type: types.OutputStream, Text: "hello\n"},
			wantKind: RenderStream,
			wantOK:   true,
			check: func(t *testing.T, r Rendering) {
				if r.StreamName != "stdout" {
					t.Errorf("stream name = %q, want stdout", r.StreamName)
				}
				if r.Text != "hello\n" {
					t.Errorf("text = %q", r.Text)
				}
			},
		},
		{
			name:     "stderr stream keeps its name",
			out:      types.Output{Type: types.OutputStream, Name: "stderr", Text: "warn\n"},
			wantKind: RenderStream,
			wantOK:   true,
			check: func(t *testing.T, r Rendering) {
				if r.StreamName != "stderr" {
					t.Errorf("stream name = %q, want stderr", r.StreamName)
				}
			},
		},
		{
			name: "error carries name and value",
			out: types.Output{
				Type:  types.OutputError,
				EName: "NameError", EValue: "name 'x' is not defined",
				Traceback: []string{"[31mNameError[0m"},
			},
			wantKind: RenderError,
			wantOK:   true,
			check: func(t *testing.T, r Rendering) {
				if r.EName != "NameError" || r.EValue != "name 'x' is not defined" {
					t.Errorf("error fields = %q / %q", r.EName, r.EValue)
				}
			},
		},
		{
			name: "plotly wins over html and text",
			out: types.Output{
				Type: types.OutputDisplayData,
				Data: bundle(t, map[string]string{
					"application/vnd.plotly.v1+json": `{"data": [{"type": "bar"}], "layout": {"title": "t"}, "config": {"responsive": true}}`,
					"text/html":  `"<div>plot</div>"`,
					"text/plain": `"Figure"`,
				}),
			},
			wantKind: RenderPlotly,
			wantOK:   true,
			check: func(t *testing.T, r Rendering) {
				if string(r.Data) != `[{"type": "bar"}]` {
					t.Errorf("data = %s", r.Data)
				}
				if string(r.Layout) != `{"title": "t"}` {
					t.Errorf("layout = %s", r.Layout)
				}
				if string(r.Config) != `{"responsive": true}` {
					t.Errorf("config = %s", r.Config)
				}
			},
		},
		{
			name: "plotly without config",
			out: types.Output{
				Type: types.OutputExecuteResult,
				Data: bundle(t, map[string]string{
					"application/vnd.plotly.v1+json": `{"data": [{"type": "scatter"}], "layout": {}}`,
				}),
			},
			wantKind: RenderPlotly,
			wantOK:   true,
			check: func(t *testing.T, r Rendering) {
				if len(r.Config) != 0 {
					t.Errorf("config should be empty, got %s", r.Config)
				}
			},
		},
		{
			name: "vega-lite spec recognized",
			out: types.Output{
				Type: types.OutputDisplayData,
				Data: bundle(t, map[string]string{
					"application/vnd.vegalite.v5+json": `{"mark": "bar", "data": {"values": []}}`,
					"text/plain":                       `"alt.Chart(...)"`,
				}),
			},
			wantKind: RenderVegaLite,
			wantOK:   true,
			check: func(t *testing.T, r Rendering) {
				if len(r.Spec) == 0 {
					t.Error("spec should be set")
				}
			},
		},
		{
			name: "html wins over text",
			out: types.Output{
				Type: types.OutputExecuteResult,
				Data: bundle(t, map[string]string{
					"text/html":  `["<table>", "</table>"]`,
					"text/plain": `"   a  b"`,
				}),
			},
			wantKind: RenderHTML,
			wantOK:   true,
			check: func(t *testing.T, r Rendering) {
				if r.Text != "<table></table>" {
					t.Errorf("html = %q", r.Text)
				}
			},
		},
		{
			name: "png keeps plain text fallback and drops wrapping",
			out: types.Output{
				Type: types.OutputDisplayData,
				Data: bundle(t, map[string]string{
					"image/png":  `"aGVs\nbG8=\n"`,
					"text/plain": `"<Figure size 640x480>"`,
				}),
			},
			wantKind: RenderImage,
			wantOK:   true,
			check: func(t *testing.T, r Rendering) {
				if r.ImageB64 != "aGVsbG8=" {
					t.Errorf("b64 = %q", r.ImageB64)
				}
				if r.AltText != "<Figure size 640x480>" {
					t.Errorf("alt = %q", r.AltText)
				}
			},
		},
		{
			name: "plain text only",
			out: types.Output{
				Type: types.OutputExecuteResult,
				Data: bundle(t, map[string]string{"text/plain": `["42"]`}),
			},
			wantKind: RenderText,
			wantOK:   true,
			check: func(t *testing.T, r Rendering) {
				if r.Text != "42" {
					t.Errorf("text = %q", r.Text)
				}
			},
		},
		{
			name: "malformed plotly falls through to text",
			out: types.Output{
				Type: types.OutputDisplayData,
				Data: bundle(t, map[string]string{
					"application/vnd.plotly.v1+json": `"not a figure"`,
					"text/plain":                     `"Figure repr"`,
				}),
			},
			wantKind: RenderText,
			wantOK:   true,
		},
		{
			name:   "empty bundle renders nothing",
			out:    types.Output{Type: types.OutputDisplayData, Data: types.MimeBundle{}},
			wantOK: false,
		},
		{
			name:   "unknown mime renders nothing",
			out:    types.Output{Type: types.OutputDisplayData, Data: bundle(t, map[string]string{"application/pdf": `"JVBER"`})},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, ok := Classify(tt.out)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if r.Kind != tt.wantKind {
				t.Fatalf("kind = %q, want %q", r.Kind, tt.wantKind)
			}
			if tt.check != nil {
				tt.check(t, r)
			}
		})
	}
}

func TestCellRenderings_CoalescesStreams(t *testing.T) {
	cell := types.Cell{
		Type: types.CellCode,
		Outputs: []types.Output{
			{Type: types.OutputStream, Name: "stdout", Text: "chunk one\n"},
			{Type: types.OutputStream, Name: "stdout", Text: "chunk two\n"},
			{Type: types.OutputStream, Name: "stderr", Text: "oops\n"},
			{Type: types.OutputExecuteResult, Data: types.MimeBundle{"text/plain": json.RawMessage(`"42"`)}},
			{Type: types.OutputStream, Name: "stdout", Text: "after\n"},
		},
	}

	got := CellRenderings(cell)
	if len(got) != 4 {
		t.Fatalf("renderings = %d, want 4", len(got))
	}
	if got[0].Text != "chunk one\nchunk two\n" {
		t.Errorf("coalesced text = %q", got[0].Text)
	}
	if got[1].StreamName != "stderr" {
		t.Errorf("second rendering should be the stderr block, got %q", got[1].StreamName)
	}
	if got[2].Kind != RenderText {
		t.Errorf("third rendering = %q, want text", got[2].Kind)
	}
	if got[3].Kind != RenderStream || got[3].Text != "after\n" {
		t.Errorf("trailing stream should stay separate, got %+v", got[3])
	}
}
