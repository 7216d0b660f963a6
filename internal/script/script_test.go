// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package script

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/BexTuychiev/strimlitbook/pkg/types"
)

func fixedClock() time.Time {
	return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
}

func pythonNotebook(cells ...types.Cell) *types.Notebook {
	return &types.Notebook{
		Cells:         cells,
		NBFormat:      4,
		NBFormatMinor: 5,
		Metadata: types.NotebookMetadata{
			Kernelspec: &types.Kernelspec{Name: "python3", Language: "python"},
		},
	}
}

func generate(t *testing.T, nb *types.Notebook, opts Options) *Script {
	t.Helper()
	if opts.Now == nil {
		opts.Now = fixedClock
	}
	if opts.Version == "" {
		opts.Version = "1.2.3"
	}
	s, err := NewBuilder().Generate(nb, opts)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return s
}

func TestGenerate_Golden(t *testing.T) {
	nb := pythonNotebook(
		types.Cell{Type: types.CellMarkdown, Source: "# Demo\n\nIntro."},
		types.Cell{Type: types.CellCode, Source: "print('hi')", Outputs: []types.Output{
			{Type: types.OutputStream, Name: "stdout", Text: "hi\n"},
		}},
	)

	s := generate(t, nb, Options{SourcePath: "testdata/demo.ipynb"})

	want := `# Generated by strimlitbook 1.2.3. DO NOT EDIT.
# Source: testdata/demo.ipynb
# Kernel: python (nbformat 4.5)
# Converted: 2026-01-02T03:04:05Z

import streamlit as st

st.set_page_config(page_title="Demo", layout="wide")

st.markdown("""# Demo

Intro.""", unsafe_allow_html=True)

st.code("print('hi')", language="python")
st.code("""hi
""", language="python")
`
	if diff := cmp.Diff(want, s.Source); diff != "" {
		t.Errorf("script mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"streamlit>=0.80.0"}, s.Requirements); diff != "" {
		t.Errorf("requirements mismatch (-want +got):\n%s", diff)
	}
	if len(s.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", s.Warnings)
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	nb := pythonNotebook(
		types.Cell{Type: types.CellMarkdown, Source: "# Same"},
		types.Cell{Type: types.CellCode, Source: "x = 1"},
	)

	a := generate(t, nb, Options{})
	b := generate(t, nb, Options{})
	if a.Source != b.Source {
		t.Error("two generations of the same notebook differ")
	}
}

func TestGenerate_DisplayTags(t *testing.T) {
	codeCell := func(tags ...string) types.Cell {
		return types.Cell{
			Type:     types.CellCode,
			Source:   "x = 1",
			Metadata: types.CellMetadata{Tags: tags},
			Outputs: []types.Output{
				{Type: types.OutputStream, Name: "stdout", Text: "out\n"},
			},
		}
	}

	tests := []struct {
		name        string
		cell        types.Cell
		wantParts   []string
		absentParts []string
	}{
		{
			name: "skip drops the whole cell",
			cell: codeCell("skip"),
			absentParts: []string{
				`st.code("x = 1", language="python")`,
				"st.code(\"\"\"out\n\"\"\", language=\"python\")",
			},
		},
		{
			name:        "hide input keeps outputs only",
			cell:        codeCell("hi"),
			wantParts:   []string{"st.code(\"\"\"out\n\"\"\", language=\"python\")"},
			absentParts: []string{"x = 1"},
		},
		{
			name:        "hide input long form",
			cell:        codeCell("hide_input"),
			absentParts: []string{"x = 1"},
		},
		{
			name:        "hide output keeps source only",
			cell:        codeCell("ho"),
			wantParts:   []string{`st.code("x = 1", language="python")`},
			absentParts: []string{"st.code(\"\"\"out\n\"\"\", language=\"python\")"},
		},
		{
			name: "collapse input wraps source in an expander",
			cell: codeCell("ci"),
			wantParts: []string{
				`with st.expander("See hidden source code..."):`,
				`    st.code("x = 1", language="python")`,
			},
		},
		{
			name: "collapse output wraps outputs in an expander",
			cell: codeCell("co"),
			wantParts: []string{
				`with st.expander("See hidden output..."):`,
				"    st.code(\"\"\"out\n\"\"\", language=\"python\")",
			},
		},
		{
			name:        "hide input wins over hide output",
			cell:        codeCell("hi", "ho"),
			wantParts:   []string{"st.code(\"\"\"out\n\"\"\", language=\"python\")"},
			absentParts: []string{"x = 1"},
		},
		{
			name:      "hide output wins over collapse input",
			cell:      codeCell("ho", "ci"),
			wantParts: []string{`st.code("x = 1", language="python")`},
			absentParts: []string{
				"st.expander",
				"st.code(\"\"\"out\n\"\"\", language=\"python\")",
			},
		},
		{
			name: "collapse input wins over collapse output",
			cell: codeCell("ci", "co"),
			wantParts: []string{
				`with st.expander("See hidden source code..."):`,
				"st.code(\"\"\"out\n\"\"\", language=\"python\")",
			},
			absentParts: []string{`with st.expander("See hidden output..."):`},
		},
		{
			name: "collapsed markdown cell",
			cell: types.Cell{
				Type:     types.CellMarkdown,
				Source:   "note",
				Metadata: types.CellMetadata{Tags: []string{"ci"}},
			},
			wantParts: []string{
				`with st.expander("See collapsed cell"):`,
				`    st.markdown("note", unsafe_allow_html=True)`,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := generate(t, pythonNotebook(tt.cell), Options{})
			for _, part := range tt.wantParts {
				if !strings.Contains(s.Source, part) {
					t.Errorf("script missing %q:\n%s", part, s.Source)
				}
			}
			for _, part := range tt.absentParts {
				if strings.Contains(s.Source, part) {
					t.Errorf("script should not contain %q:\n%s", part, s.Source)
				}
			}
		})
	}
}

func TestGenerate_Plotly(t *testing.T) {
	fig := `{"data": [{"type": "bar"}], "layout": {"title": "T"}, "config": {"responsive": true}}`
	nb := pythonNotebook(types.Cell{
		Type:   types.CellCode,
		Source: "fig.show()",
		Outputs: []types.Output{{
			Type: types.OutputDisplayData,
			Data: types.MimeBundle{"application/vnd.plotly.v1+json": json.RawMessage(fig)},
		}},
	})

	s := generate(t, nb, Options{})

	for _, part := range []string{
		"import json",
		"import plotly.graph_objects as go",
		"_fig = go.Figure(json.loads(",
		"st.plotly_chart(_fig, config=json.loads(",
	} {
		if !strings.Contains(s.Source, part) {
			t.Errorf("script missing %q:\n%s", part, s.Source)
		}
	}

	found := false
	for _, r := range s.Requirements {
		if r == "plotly" {
			found = true
		}
	}
	if !found {
		t.Errorf("requirements should include plotly: %v", s.Requirements)
	}
}

func TestGenerate_PlotlyWithoutConfig(t *testing.T) {
	fig := `{"data": [{"type": "scatter"}], "layout": {}}`
	nb := pythonNotebook(types.Cell{
		Type: types.CellCode,
		Outputs: []types.Output{{
			Type: types.OutputExecuteResult,
			Data: types.MimeBundle{"application/vnd.plotly.v1+json": json.RawMessage(fig)},
		}},
	})

	s := generate(t, nb, Options{})
	if !strings.Contains(s.Source, "st.plotly_chart(_fig)\n") {
		t.Errorf("expected bare plotly_chart call:\n%s", s.Source)
	}
	if strings.Contains(s.Source, "config=") {
		t.Errorf("config should be omitted:\n%s", s.Source)
	}
}

func TestGenerate_PlotlyWithoutLayout(t *testing.T) {
	fig := `{"data": [{"type": "bar"}]}`
	nb := pythonNotebook(types.Cell{
		Type: types.CellCode,
		Outputs: []types.Output{{
			Type: types.OutputDisplayData,
			Data: types.MimeBundle{"application/vnd.plotly.v1+json": json.RawMessage(fig)},
		}},
	})

	s := generate(t, nb, Options{})
	if !strings.Contains(s.Source, `\"layout\": {}`) {
		t.Errorf("figure should default to an empty layout:\n%s", s.Source)
	}
	if !strings.Contains(s.Source, "st.plotly_chart(_fig)\n") {
		t.Errorf("expected plotly_chart call:\n%s", s.Source)
	}
}

func TestGenerate_VegaLite(t *testing.T) {
	spec := `{"mark": "bar", "data": {"values": [{"a": 1}]}}`
	nb := pythonNotebook(types.Cell{
		Type: types.CellCode,
		Outputs: []types.Output{{
			Type: types.OutputDisplayData,
			Data: types.MimeBundle{"application/vnd.vegalite.v5+json": json.RawMessage(spec)},
		}},
	})

	s := generate(t, nb, Options{})
	if !strings.Contains(s.Source, "st.vega_lite_chart(json.loads(") {
		t.Errorf("expected vega_lite_chart call:\n%s", s.Source)
	}
	if !strings.Contains(s.Source, "import json") {
		t.Errorf("json import missing:\n%s", s.Source)
	}
	for _, r := range s.Requirements {
		if r == "plotly" {
			t.Errorf("vega output should not require plotly: %v", s.Requirements)
		}
	}
}

func TestGenerate_HTMLTable(t *testing.T) {
	nb := pythonNotebook(types.Cell{
		Type: types.CellCode,
		Outputs: []types.Output{{
			Type: types.OutputExecuteResult,
			Data: types.MimeBundle{"text/html": json.RawMessage(pyJSONQuote(pandasTable))},
		}},
	})

	s := generate(t, nb, Options{})
	for _, part := range []string{
		"import pandas as pd",
		"_df = pd.DataFrame(",
		"st.dataframe(_df.set_index(_df.columns[0]))",
	} {
		if !strings.Contains(s.Source, part) {
			t.Errorf("script missing %q:\n%s", part, s.Source)
		}
	}

	found := false
	for _, r := range s.Requirements {
		if r == "pandas" {
			found = true
		}
	}
	if !found {
		t.Errorf("requirements should include pandas: %v", s.Requirements)
	}
}

func TestGenerate_NonTableHTML(t *testing.T) {
	nb := pythonNotebook(types.Cell{
		Type: types.CellCode,
		Outputs: []types.Output{{
			Type: types.OutputDisplayData,
			Data: types.MimeBundle{"text/html": json.RawMessage(`"<div class=\"x\">styled</div>"`)},
		}},
	})

	s := generate(t, nb, Options{})
	if !strings.Contains(s.Source, "st.markdown(") || !strings.Contains(s.Source, "unsafe_allow_html=True") {
		t.Errorf("non-table HTML should render as markdown:\n%s", s.Source)
	}
	if strings.Contains(s.Source, "import pandas") {
		t.Errorf("pandas should not be imported:\n%s", s.Source)
	}
}

func TestGenerate_ImageOutput(t *testing.T) {
	b64 := base64.StdEncoding.EncodeToString(encodePNG(t))
	nb := pythonNotebook(types.Cell{
		Type: types.CellCode,
		Outputs: []types.Output{{
			Type: types.OutputDisplayData,
			Data: types.MimeBundle{
				"image/png":  json.RawMessage(`"` + b64 + `"`),
				"text/plain": json.RawMessage(`"<Figure size 640x480>"`),
			},
		}},
	})

	s := generate(t, nb, Options{})
	if !strings.Contains(s.Source, "import base64") {
		t.Errorf("base64 import missing:\n%s", s.Source)
	}
	if !strings.Contains(s.Source, `st.image(base64.b64decode(`) {
		t.Errorf("st.image call missing:\n%s", s.Source)
	}
	if len(s.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", s.Warnings)
	}
}

func TestGenerate_BrokenImageFallsBackToAltText(t *testing.T) {
	nb := pythonNotebook(types.Cell{
		Type: types.CellCode,
		Outputs: []types.Output{{
			Type: types.OutputDisplayData,
			Data: types.MimeBundle{
				"image/png":  json.RawMessage(`"%%%not-base64%%%"`),
				"text/plain": json.RawMessage(`"<Figure size 640x480>"`),
			},
		}},
	})

	s := generate(t, nb, Options{})
	if !strings.Contains(s.Source, `st.code("<Figure size 640x480>", language="python")`) {
		t.Errorf("alt text fallback missing:\n%s", s.Source)
	}
	if len(s.Warnings) != 1 {
		t.Fatalf("warnings = %v, want one", s.Warnings)
	}
	if !strings.Contains(s.Warnings[0], "image output") {
		t.Errorf("warning = %q", s.Warnings[0])
	}
}

func TestGenerate_ErrorOutput(t *testing.T) {
	nb := pythonNotebook(types.Cell{
		Type: types.CellCode,
		Outputs: []types.Output{{
			Type:  types.OutputError,
			EName: "ZeroDivisionError", EValue: "division by zero",
		}},
	})

	s := generate(t, nb, Options{})
	if !strings.Contains(s.Source, `st.error("ZeroDivisionError: division by zero")`) {
		t.Errorf("error rendering missing:\n%s", s.Source)
	}
}

func TestGenerate_Attachments(t *testing.T) {
	b64 := base64.StdEncoding.EncodeToString(encodePNG(t))
	nb := pythonNotebook(types.Cell{
		Type:   types.CellMarkdown,
		Source: "Before text.\n\n![diagram](attachment:diagram.png)\n\nAfter text.",
		Attachments: map[string]types.MimeBundle{
			"diagram.png": {"image/png": json.RawMessage(`"` + b64 + `"`)},
		},
	})

	s := generate(t, nb, Options{})

	beforeIdx := strings.Index(s.Source, `st.markdown("""Before text.`)
	imageIdx := strings.Index(s.Source, "st.image(base64.b64decode(")
	afterIdx := strings.Index(s.Source, "After text.")
	if beforeIdx == -1 || imageIdx == -1 || afterIdx == -1 {
		t.Fatalf("missing segments (%d/%d/%d):\n%s", beforeIdx, imageIdx, afterIdx, s.Source)
	}
	if !(beforeIdx < imageIdx && imageIdx < afterIdx) {
		t.Errorf("segments out of order (%d/%d/%d)", beforeIdx, imageIdx, afterIdx)
	}
}

func TestGenerate_UnresolvedAttachmentKeepsReference(t *testing.T) {
	b64 := base64.StdEncoding.EncodeToString(encodePNG(t))
	nb := pythonNotebook(types.Cell{
		Type:   types.CellMarkdown,
		Source: "![missing](attachment:gone.png)",
		Attachments: map[string]types.MimeBundle{
			"other.png": {"image/png": json.RawMessage(`"` + b64 + `"`)},
		},
	})

	s := generate(t, nb, Options{})
	if !strings.Contains(s.Source, "![missing](attachment:gone.png)") {
		t.Errorf("unresolvable reference should stay in the text:\n%s", s.Source)
	}
	if len(s.Warnings) != 1 {
		t.Errorf("warnings = %v, want one", s.Warnings)
	}
}

func TestGenerate_RawCellsAndEmptyCells(t *testing.T) {
	nb := pythonNotebook(
		types.Cell{Type: types.CellRaw, Source: "reST block"},
		types.Cell{Type: types.CellCode, Source: "   \n"},
		types.Cell{Type: types.CellMarkdown, Source: "  "},
	)

	s := generate(t, nb, Options{SourcePath: "x/empty.ipynb"})
	if strings.Contains(s.Source, "reST") {
		t.Errorf("raw cell leaked into the script:\n%s", s.Source)
	}
	if !strings.HasSuffix(s.Source, "st.set_page_config(page_title=\"empty\", layout=\"wide\")\n") {
		t.Errorf("empty notebook should end at the page config:\n%s", s.Source)
	}
}

func TestGenerate_UntitledNotebookFallsBackToApp(t *testing.T) {
	nb := pythonNotebook(
		types.Cell{Type: types.CellMarkdown, Source: "No heading here."},
	)

	s := generate(t, nb, Options{})
	if !strings.Contains(s.Source, `st.set_page_config(page_title="app", layout="wide")`) {
		t.Errorf("untitled notebook should fall back to the app title:\n%s", s.Source)
	}
}

func TestGenerate_JuliaKernelLanguage(t *testing.T) {
	nb := &types.Notebook{
		NBFormat: 4,
		Metadata: types.NotebookMetadata{
			Kernelspec: &types.Kernelspec{Name: "julia-1.9", Language: "julia"},
		},
		Cells: []types.Cell{{
			Type:   types.CellCode,
			Source: `println("hello")`,
			Outputs: []types.Output{
				{Type: types.OutputStream, Name: "stdout", Text: "hello\n"},
			},
		}},
	}

	s := generate(t, nb, Options{})
	if !strings.Contains(s.Source, `language="julia"`) {
		t.Errorf("kernel language not applied:\n%s", s.Source)
	}
}

func TestGenerate_NilNotebook(t *testing.T) {
	if _, err := NewBuilder().Generate(nil, Options{}); err == nil {
		t.Error("expected error")
	}
}

func TestRequirementsFile(t *testing.T) {
	got := RequirementsFile([]string{"streamlit>=0.80.0", "plotly"})
	want := "streamlit>=0.80.0\nplotly\n"
	if got != want {
		t.Errorf("RequirementsFile = %q, want %q", got, want)
	}
}

// pyJSONQuote encodes s as a JSON string literal for fixture bundles.
func pyJSONQuote(s string) []byte {
	out, _ := json.Marshal(s)
	return out
}
