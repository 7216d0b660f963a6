// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package tui implements the interactive notebook browser.
// Implements: prd009-browse (R1-R4);
//
//	docs/ARCHITECTURE § Browse.
//
// The browser follows The Elm Architecture: App holds all state, Update
// reacts to messages, View renders the current screen to a string.
package tui

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/BexTuychiev/strimlitbook/internal/convert"
	"github.com/BexTuychiev/strimlitbook/internal/notebook"
	"github.com/BexTuychiev/strimlitbook/internal/script"
	"github.com/BexTuychiev/strimlitbook/pkg/types"
)

// appState represents which screen the browser is on.
type appState int

const (
	stateList    appState = iota // notebook picker
	statePreview                 // cell-by-cell notebook view
)

const (
	appFile = "app.py"

	initialViewWidth  = 80
	initialViewHeight = 20
)

// notebookItem implements list.Item for one discovered notebook.
type notebookItem struct {
	record types.NotebookRecord
}

func (i notebookItem) Title() string { return i.record.Title }

func (i notebookItem) Description() string {
	desc := fmt.Sprintf("%d code / %d md · %s",
		i.record.CodeCells, i.record.MarkdownCells,
		humanize.Bytes(uint64(i.record.SizeBytes)))
	if i.record.ConversionStatus == types.ConversionDone {
		desc += " · converted"
	}
	return desc
}

func (i notebookItem) FilterValue() string { return i.record.Title + " " + i.record.ID }

// previewReadyMsg carries a rendered notebook into the preview screen.
type previewReadyMsg struct {
	record  types.NotebookRecord
	content string
	err     error
}

// convertDoneMsg reports the outcome of the convert hotkey.
type convertDoneMsg struct {
	slug   string
	status types.ConversionStatus
	out    string
}

// AppOption customizes App construction for tests.
type AppOption func(*App)

// WithGenerator overrides the script generator used by the convert hotkey.
func WithGenerator(g convert.Generator) AppOption {
	return func(a *App) {
		if g != nil {
			a.generator = g
		}
	}
}

// App is the main application model. It holds the picker list, the preview
// viewport, and the conversion setup behind the convert hotkey.
type App struct {
	cfg       types.PipelineConfig
	generator convert.Generator

	state    appState
	browser  list.Model
	viewport viewport.Model
	renderer *glamour.TermRenderer

	current   types.NotebookRecord
	statusMsg string
	ready     bool
	width     int
	height    int
}

// NewApp builds the browser over the notebooks directory in cfg.
func NewApp(cfg types.PipelineConfig, opts ...AppOption) (*App, error) {
	records, err := scanNotebooks(cfg.Conversion.NotebooksDir, cfg.Conversion.AppsDir)
	if err != nil {
		return nil, err
	}

	items := make([]list.Item, len(records))
	for i, rec := range records {
		items[i] = notebookItem{record: rec}
	}
	browser := list.New(items, list.NewDefaultDelegate(), 0, 0)
	browser.Title = fmt.Sprintf("Notebooks · %s", cfg.Conversion.NotebooksDir)
	browser.SetShowStatusBar(false)

	renderer, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(initialViewWidth),
	)

	app := &App{
		cfg:       cfg,
		generator: script.NewBuilder(),
		state:     stateList,
		browser:   browser,
		viewport:  viewport.New(initialViewWidth, initialViewHeight),
		renderer:  renderer,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(app)
		}
	}
	return app, nil
}

// scanNotebooks walks the notebooks directory and builds one record per
// parseable notebook, sorted by slug. Unreadable files are dropped.
func scanNotebooks(notebooksDir, appsDir string) ([]types.NotebookRecord, error) {
	paths, err := notebook.Find(notebooksDir)
	if err != nil {
		return nil, err
	}
	records := make([]types.NotebookRecord, 0, len(paths))
	for _, path := range paths {
		nb, err := notebook.Read(path)
		if err != nil {
			continue
		}
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		slug := notebook.Slug(path)
		stats := notebook.Collect(nb)
		rec := types.NotebookRecord{
			ID:               slug,
			Path:             path,
			Title:            notebook.Title(nb, path),
			Kernel:           nb.Language(),
			NBFormat:         nb.NBFormat,
			CodeCells:        stats.CodeCells,
			MarkdownCells:    stats.MarkdownCells,
			SizeBytes:        info.Size(),
			ModTime:          info.ModTime(),
			ConversionStatus: types.ConversionNone,
		}
		if appsDir != "" {
			appPath := filepath.Join(appsDir, slug, appFile)
			if _, err := os.Stat(appPath); err == nil {
				rec.ConversionStatus = types.ConversionDone
				rec.AppPath = appPath
			}
		}
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	return records, nil
}

// Init is called once when the program starts.
func (a *App) Init() tea.Cmd { return nil }

// Update is called when a message is received.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.browser.SetSize(max(0, msg.Width-4), max(0, msg.Height-6))
		if !a.ready {
			a.viewport = viewport.New(max(20, msg.Width-4), max(5, msg.Height-8))
			a.ready = true
		} else {
			a.viewport.Width = max(20, msg.Width-4)
			a.viewport.Height = max(5, msg.Height-8)
		}
		// Rebuild the renderer so word wrap tracks the terminal width.
		if a.renderer != nil {
			a.renderer, _ = glamour.NewTermRenderer(
				glamour.WithAutoStyle(),
				glamour.WithWordWrap(max(40, msg.Width-8)),
			)
		}
		return a, nil

	case previewReadyMsg:
		if msg.err != nil {
			a.statusMsg = fmt.Sprintf("preview failed: %v", msg.err)
			return a, nil
		}
		a.current = msg.record
		a.viewport.SetContent(msg.content)
		a.viewport.GotoTop()
		a.state = statePreview
		a.statusMsg = ""
		return a, nil

	case convertDoneMsg:
		switch msg.status {
		case types.ConversionDone:
			a.statusMsg = fmt.Sprintf("converted %s → %s",
				msg.slug, filepath.Join(a.cfg.Conversion.AppsDir, msg.slug, appFile))
			a.markConverted(msg.slug)
		case types.ConversionNone:
			a.statusMsg = fmt.Sprintf("skipped %s (app already exists)", msg.slug)
		default:
			a.statusMsg = strings.TrimSpace(msg.out)
		}
		return a, nil

	case tea.KeyMsg:
		// The list owns keystrokes while the user is typing a filter.
		if a.state == stateList && a.browser.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "ctrl+c":
			return a, tea.Quit
		case "q":
			if a.state == statePreview {
				a.state = stateList
				return a, nil
			}
			return a, tea.Quit
		case "esc":
			if a.state == statePreview {
				a.state = stateList
				return a, nil
			}
		case "enter":
			if a.state == stateList {
				if item, ok := a.browser.SelectedItem().(notebookItem); ok {
					return a, a.openPreview(item.record)
				}
			}
		case "c":
			if rec, ok := a.selectedRecord(); ok {
				a.statusMsg = fmt.Sprintf("converting %s...", rec.ID)
				return a, a.convertSelected(rec)
			}
		}
	}

	var cmd tea.Cmd
	switch a.state {
	case stateList:
		a.browser, cmd = a.browser.Update(msg)
	case statePreview:
		a.viewport, cmd = a.viewport.Update(msg)
	}
	return a, cmd
}

// selectedRecord resolves the notebook the hotkeys act on: the previewed
// notebook when on the preview screen, the list selection otherwise.
func (a *App) selectedRecord() (types.NotebookRecord, bool) {
	if a.state == statePreview {
		return a.current, true
	}
	if item, ok := a.browser.SelectedItem().(notebookItem); ok {
		return item.record, true
	}
	return types.NotebookRecord{}, false
}

// openPreview loads and renders the notebook in a background command.
func (a *App) openPreview(rec types.NotebookRecord) tea.Cmd {
	renderer := a.renderer
	return func() tea.Msg {
		nb, err := notebook.Read(rec.Path)
		if err != nil {
			return previewReadyMsg{record: rec, err: err}
		}
		return previewReadyMsg{record: rec, content: renderPreview(renderer, nb)}
	}
}

// convertSelected converts one notebook in a background command, forcing
// regeneration so the hotkey always refreshes the app.
func (a *App) convertSelected(rec types.NotebookRecord) tea.Cmd {
	g := a.generator
	opts := convert.Options{
		AppsDir:      a.cfg.Conversion.AppsDir,
		Force:        true,
		Requirements: a.cfg.Conversion.Requirements,
		Script: script.Options{
			SourcePath: rec.Path,
			Layout:     a.cfg.Conversion.PageLayout,
		},
	}
	return func() tea.Msg {
		var out bytes.Buffer
		status := convert.ConvertNotebook(g, rec.Path, opts, &out)
		return convertDoneMsg{slug: rec.ID, status: status, out: out.String()}
	}
}

// markConverted updates the list item and preview header for a slug that
// just gained an app.
func (a *App) markConverted(slug string) {
	appPath := filepath.Join(a.cfg.Conversion.AppsDir, slug, appFile)
	items := a.browser.Items()
	for i, it := range items {
		item, ok := it.(notebookItem)
		if !ok || item.record.ID != slug {
			continue
		}
		item.record.ConversionStatus = types.ConversionDone
		item.record.AppPath = appPath
		items[i] = item
	}
	a.browser.SetItems(items)
	if a.current.ID == slug {
		a.current.ConversionStatus = types.ConversionDone
		a.current.AppPath = appPath
	}
}

// View renders the current state to a string.
func (a *App) View() string {
	var content string
	switch a.state {
	case stateList:
		content = a.browser.View()
	case statePreview:
		content = a.renderPreviewScreen()
	}
	return lipgloss.JoinVertical(lipgloss.Left, content, a.renderFooter())
}

func (a *App) renderPreviewScreen() string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#5B8DEF")).
		Render(a.current.Title)
	meta := fmt.Sprintf("%s · %s · %d code / %d md cells",
		a.current.ID, a.current.Kernel, a.current.CodeCells, a.current.MarkdownCells)
	if a.current.ConversionStatus == types.ConversionDone {
		meta += " · converted"
	}
	metaLine := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888888")).
		Render(meta)
	return lipgloss.JoinVertical(lipgloss.Left, title, metaLine, "", a.viewport.View())
}

func (a *App) renderFooter() string {
	hint := "enter → preview    c → convert    / → filter    q → quit"
	if a.state == statePreview {
		hint = "↑/↓ → scroll    c → convert    esc → back"
	}
	footer := hint
	if a.statusMsg != "" {
		footer = a.statusMsg + "\n" + hint
	}
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("#AAAAAA")).
		MarginTop(1).
		Render(footer)
}

// Run starts the browser and blocks until the user quits.
func Run(cfg types.PipelineConfig) error {
	app, err := NewApp(cfg)
	if err != nil {
		return err
	}
	p := tea.NewProgram(app, tea.WithAltScreen())
	_, err = p.Run()
	return err
}
