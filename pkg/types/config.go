package types

import "time"

// PageLayout selects the Streamlit page layout for generated apps.
// Per prd002-app-generation R5.2.
type PageLayout string

const (
	LayoutWide     PageLayout = "wide"
	LayoutCentered PageLayout = "centered"
)

// ConversionConfig holds settings for the conversion stage.
// Per prd003-pipeline R5.1-R5.4.
type ConversionConfig struct {
	// NotebooksDir is the directory scanned for .ipynb files (default "notebooks").
	NotebooksDir string `json:"notebooks_dir" yaml:"notebooks_dir"`

	// AppsDir is the base directory for generated apps; each notebook becomes
	// apps/<slug>/app.py (default "apps").
	AppsDir string `json:"apps_dir" yaml:"apps_dir"`

	// PageLayout is the st.set_page_config layout for generated apps: wide or centered.
	PageLayout PageLayout `json:"page_layout" yaml:"page_layout"`

	// Requirements controls whether a requirements.txt is written next to each app.
	Requirements bool `json:"requirements" yaml:"requirements"`

	// Jobs is the number of notebooks converted concurrently in batch mode
	// (default 1; sequential).
	Jobs int `json:"jobs" yaml:"jobs"`

	// WatchDebounce is the quiet period after a filesystem event before a
	// changed notebook is reconverted (default 300ms).
	WatchDebounce time.Duration `json:"watch_debounce" yaml:"watch_debounce"`
}

// GalleryConfig holds settings for the gallery index.
// Per prd004-gallery R1.2, R3.5.
type GalleryConfig struct {
	// GalleryDir is the base directory for the gallery (contains index/).
	GalleryDir string `json:"gallery_dir" yaml:"gallery_dir"`

	// NotebooksDir is the directory scanned during indexing.
	NotebooksDir string `json:"notebooks_dir" yaml:"notebooks_dir"`

	// AppsDir is checked during indexing to record each notebook's
	// conversion status and app path.
	AppsDir string `json:"apps_dir" yaml:"apps_dir"`

	// MaxResults is the default maximum number of search results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// PreviewConfig holds settings for the preview server.
// Per prd005-preview R1.1-R1.3, R5.1.
type PreviewConfig struct {
	// Host and Port form the listen address (default 127.0.0.1:8899; kept off
	// 8501 so a preview and a launched app can run side by side).
	Host string `json:"host" yaml:"host"`
	Port int    `json:"port" yaml:"port"`

	// NotebooksDir is the directory served.
	NotebooksDir string `json:"notebooks_dir" yaml:"notebooks_dir"`

	// LogLevel sets the server log verbosity: debug, info, warn, error.
	LogLevel string `json:"log_level" yaml:"log_level"`

	// LogFormat selects the server log encoding: text or json.
	LogFormat string `json:"log_format" yaml:"log_format"`
}

// LauncherConfig holds settings for handing generated apps to streamlit run.
// Per prd007-launcher R2.1-R2.3.
type LauncherConfig struct {
	// Port is passed to streamlit as --server.port (default 8501).
	Port int `json:"port" yaml:"port"`

	// Headless suppresses the browser auto-open (--server.headless).
	Headless bool `json:"headless" yaml:"headless"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Conversion ConversionConfig `json:"conversion" yaml:"conversion"`
	Gallery    GalleryConfig    `json:"gallery" yaml:"gallery"`
	Preview    PreviewConfig    `json:"preview" yaml:"preview"`
	Launcher   LauncherConfig   `json:"launcher" yaml:"launcher"`
}
