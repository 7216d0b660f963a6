package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/BexTuychiev/strimlitbook/internal/convert"
	"github.com/BexTuychiev/strimlitbook/internal/launcher"
	"github.com/BexTuychiev/strimlitbook/internal/notebook"
	"github.com/BexTuychiev/strimlitbook/internal/script"
	"github.com/BexTuychiev/strimlitbook/pkg/types"
)

var runCmd = &cobra.Command{
	Use:   "run <notebook>",
	Short: "Convert a notebook and launch its Streamlit app",
	Long: `Run converts one notebook (skipping conversion when the app already
exists) and launches the generated app with Streamlit. It looks for the
streamlit binary on PATH, falling back to python3 -m streamlit, and
blocks until the app exits.`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	path := args[0]
	force, _ := cmd.Flags().GetBool("force")

	appsDir := stringSetting(cmd, "apps-dir", "apps_dir")
	opts := convert.Options{
		AppsDir: appsDir,
		Force:   force,
		Script: script.Options{
			Layout:  types.PageLayout(stringSetting(cmd, "layout", "page_layout")),
			Version: version,
		},
	}

	if status := convert.ConvertNotebook(script.NewBuilder(), path, opts, os.Stdout); status == types.ConversionFailed {
		return fmt.Errorf("conversion failed for %s", path)
	}

	r, err := launcher.Detect()
	if err != nil {
		return err
	}

	launchCfg := types.LauncherConfig{
		Port:     intSetting(cmd, "port", "launcher.port"),
		Headless: boolSetting(cmd, "headless", "launcher.headless"),
	}
	appPath := filepath.Join(appsDir, notebook.Slug(path), "app.py")
	fmt.Println(color.GreenString("launching %s via %s on port %d", appPath, r.Name(), launchCfg.Port))
	return r.Launch(appPath, launchCfg, os.Stdout, os.Stderr)
}

func init() {
	runCmd.Flags().String("apps-dir", "apps", "directory receiving generated apps")
	runCmd.Flags().String("layout", "wide", "Streamlit page layout: wide or centered")
	runCmd.Flags().Bool("force", false, "reconvert even when the app already exists")
	runCmd.Flags().Int("port", 8501, "port the Streamlit app serves on")
	runCmd.Flags().Bool("headless", false, "run Streamlit without opening a browser")

	rootCmd.AddCommand(runCmd)
}
