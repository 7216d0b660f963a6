package tui

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/BexTuychiev/strimlitbook/internal/notebook"
	"github.com/BexTuychiev/strimlitbook/pkg/types"
)

const browseNotebookJSON = `{
 "cells": [
  {
   "cell_type": "markdown",
   "metadata": {},
   "source": ["# Weather Report\n", "\n", "Daily temperature trends.\n"]
  },
  {
   "cell_type": "code",
   "execution_count": 1,
   "metadata": {},
   "outputs": [
    {"output_type": "stream", "name": "stdout", "text": ["sunny\n"]}
   ],
   "source": ["print(\"sunny\")"]
  },
  {
   "cell_type": "raw",
   "metadata": {},
   "source": ["reveal.js directives"]
  }
 ],
 "metadata": {
  "kernelspec": {"display_name": "Python 3", "language": "python", "name": "python3"}
 },
 "nbformat": 4,
 "nbformat_minor": 5
}`

func writeNotebook(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write notebook: %v", err)
	}
	return path
}

func newTestApp(t *testing.T, names ...string) (*App, types.PipelineConfig) {
	t.Helper()
	tmp := t.TempDir()
	notebooks := filepath.Join(tmp, "notebooks")
	if err := os.MkdirAll(notebooks, 0o755); err != nil {
		t.Fatalf("mkdir notebooks: %v", err)
	}
	if len(names) == 0 {
		names = []string{"weather.ipynb"}
	}
	for _, name := range names {
		writeNotebook(t, notebooks, name, browseNotebookJSON)
	}
	cfg := types.PipelineConfig{
		Conversion: types.ConversionConfig{
			NotebooksDir: notebooks,
			AppsDir:      filepath.Join(tmp, "apps"),
		},
	}
	app, err := NewApp(cfg)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	return app, cfg
}

func runCommands(t *testing.T, model tea.Model, cmd tea.Cmd) *App {
	t.Helper()
	app, ok := model.(*App)
	if !ok {
		t.Fatalf("unexpected model type: %T", model)
	}
	for cmd != nil {
		msg := cmd()
		if msg == nil {
			break
		}
		nextModel, nextCmd := app.Update(msg)
		app, ok = nextModel.(*App)
		if !ok {
			t.Fatalf("unexpected model type: %T", nextModel)
		}
		cmd = nextCmd
	}
	return app
}

func TestNewAppListsNotebooks(t *testing.T) {
	app, _ := newTestApp(t, "zebra.ipynb", "alpha.ipynb")
	items := app.browser.Items()
	if len(items) != 2 {
		t.Fatalf("expected 2 notebooks, got %d", len(items))
	}
	first, ok := items[0].(notebookItem)
	if !ok {
		t.Fatalf("unexpected item type: %T", items[0])
	}
	if first.record.ID != "alpha" {
		t.Errorf("expected list sorted by slug, first is %q", first.record.ID)
	}
	if first.Title() != "Weather Report" {
		t.Errorf("item title = %q, want %q", first.Title(), "Weather Report")
	}
	desc := first.Description()
	if !strings.Contains(desc, "1 code / 1 md") {
		t.Errorf("item description should carry cell counts, got %q", desc)
	}
	if strings.Contains(desc, "converted") {
		t.Errorf("unconverted notebook should not be marked converted: %q", desc)
	}
	if !strings.Contains(first.FilterValue(), "alpha") {
		t.Errorf("filter value should include the slug, got %q", first.FilterValue())
	}
}

func TestNotebookMarkdown(t *testing.T) {
	nb, err := notebook.Decode(strings.NewReader(browseNotebookJSON))
	if err != nil {
		t.Fatalf("decode notebook: %v", err)
	}
	doc := notebookMarkdown(nb)
	if !strings.Contains(doc, "# Weather Report") {
		t.Errorf("markdown cells should pass through, got:\n%s", doc)
	}
	if !strings.Contains(doc, "```python\nprint(\"sunny\")\n```") {
		t.Errorf("code cells should become fenced blocks, got:\n%s", doc)
	}
	if !strings.Contains(doc, "```\nsunny\n```") {
		t.Errorf("stream output should become a fenced block, got:\n%s", doc)
	}
	if strings.Contains(doc, "reveal.js") {
		t.Errorf("raw cells should be dropped, got:\n%s", doc)
	}
}

func TestRenderingMarkdown(t *testing.T) {
	tests := []struct {
		name      string
		rendering notebook.Rendering
		want      string
	}{
		{
			name:      "error output",
			rendering: notebook.Rendering{Kind: notebook.RenderError, EName: "ValueError", EValue: "bad input"},
			want:      "**ValueError**: bad input\n\n",
		},
		{
			name:      "plotly placeholder",
			rendering: notebook.Rendering{Kind: notebook.RenderPlotly},
			want:      "*[plotly chart]*\n\n",
		},
		{
			name:      "vega placeholder",
			rendering: notebook.Rendering{Kind: notebook.RenderVegaLite},
			want:      "*[vega-lite chart]*\n\n",
		},
		{
			name:      "html placeholder",
			rendering: notebook.Rendering{Kind: notebook.RenderHTML, Text: "<table></table>"},
			want:      "*[html output]*\n\n",
		},
		{
			name:      "image with alt text",
			rendering: notebook.Rendering{Kind: notebook.RenderImage, AltText: "loss curve\nsecond line"},
			want:      "*[image: loss curve]*\n\n",
		},
		{
			name:      "empty stream dropped",
			rendering: notebook.Rendering{Kind: notebook.RenderStream, Text: "\n"},
			want:      "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := renderingMarkdown(tt.rendering); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEnterOpensPreview(t *testing.T) {
	app, _ := newTestApp(t)
	model, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	app = runCommands(t, model, cmd)
	if app.state != statePreview {
		t.Fatalf("expected preview state, got %d", app.state)
	}
	if app.current.ID != "weather" {
		t.Errorf("previewed notebook = %q, want %q", app.current.ID, "weather")
	}
	if !strings.Contains(app.viewport.View(), "sunny") {
		t.Errorf("preview should show the stream output")
	}
}

func TestPreviewFailureKeepsList(t *testing.T) {
	app, _ := newTestApp(t)
	missing := types.NotebookRecord{ID: "gone", Path: filepath.Join(t.TempDir(), "gone.ipynb")}
	model, cmd := app.Update(previewReadyMsg{record: missing, err: os.ErrNotExist})
	app = runCommands(t, model, cmd)
	if app.state != stateList {
		t.Fatalf("expected list state after failed preview, got %d", app.state)
	}
	if !strings.Contains(app.statusMsg, "preview failed") {
		t.Errorf("status should report the failure, got %q", app.statusMsg)
	}
}

func TestEscReturnsToList(t *testing.T) {
	app, _ := newTestApp(t)
	model, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	app = runCommands(t, model, cmd)
	if app.state != statePreview {
		t.Fatalf("expected preview state, got %d", app.state)
	}
	model, cmd = app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	app = runCommands(t, model, cmd)
	if app.state != stateList {
		t.Fatalf("expected esc to return to the list, got state %d", app.state)
	}
}

func TestQuitFromList(t *testing.T) {
	app, _ := newTestApp(t)
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg, got %T", cmd())
	}
}

func TestConvertHotkeyGeneratesApp(t *testing.T) {
	app, cfg := newTestApp(t)
	model, cmd := app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("c")})
	app = runCommands(t, model, cmd)

	appPath := filepath.Join(cfg.Conversion.AppsDir, "weather", "app.py")
	if _, err := os.Stat(appPath); err != nil {
		t.Fatalf("expected generated app at %s: %v", appPath, err)
	}
	if !strings.Contains(app.statusMsg, "converted weather") {
		t.Errorf("status should report the conversion, got %q", app.statusMsg)
	}
	item, ok := app.browser.Items()[0].(notebookItem)
	if !ok {
		t.Fatalf("unexpected item type: %T", app.browser.Items()[0])
	}
	if item.record.ConversionStatus != types.ConversionDone {
		t.Errorf("list item should be marked converted, got %s", item.record.ConversionStatus)
	}
	if !strings.Contains(item.Description(), "converted") {
		t.Errorf("item description should show converted, got %q", item.Description())
	}
}

func TestWindowResizeRebuildsLayout(t *testing.T) {
	app, _ := newTestApp(t)
	model, cmd := app.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	app = runCommands(t, model, cmd)
	if app.width != 120 || app.height != 40 {
		t.Errorf("window size not recorded: %dx%d", app.width, app.height)
	}
	if app.viewport.Width != 116 {
		t.Errorf("viewport width = %d, want %d", app.viewport.Width, 116)
	}
	if !app.ready {
		t.Error("resize should mark the viewport ready")
	}
}
