package main

import (
	"github.com/spf13/cobra"

	"github.com/BexTuychiev/strimlitbook/internal/tui"
	"github.com/BexTuychiev/strimlitbook/pkg/types"
)

var browseCmd = &cobra.Command{
	Use:   "browse [dir]",
	Short: "Browse notebooks in an interactive terminal UI",
	Long: `Browse opens a terminal UI over the notebooks directory: pick a
notebook to read it cell by cell, and convert it to a Streamlit app
without leaving the browser. An optional directory argument overrides
the configured notebooks directory.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBrowse,
}

func runBrowse(cmd *cobra.Command, args []string) error {
	dir := notebooksDir(cmd)
	if len(args) > 0 {
		dir = args[0]
	}
	cfg := types.PipelineConfig{
		Conversion: types.ConversionConfig{
			NotebooksDir: dir,
			AppsDir:      stringSetting(cmd, "apps-dir", "apps_dir"),
			PageLayout:   types.PageLayout(stringSetting(cmd, "layout", "page_layout")),
			Requirements: boolSetting(cmd, "requirements", "requirements"),
		},
	}
	return tui.Run(cfg)
}

func init() {
	browseCmd.Flags().String("notebooks-dir", "notebooks", "directory scanned for .ipynb files")
	browseCmd.Flags().String("apps-dir", "apps", "directory receiving generated apps")
	browseCmd.Flags().String("layout", "wide", "Streamlit page layout: wide or centered")
	browseCmd.Flags().Bool("requirements", false, "write requirements.txt when converting")

	rootCmd.AddCommand(browseCmd)
}
