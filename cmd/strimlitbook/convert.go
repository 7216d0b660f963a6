package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/BexTuychiev/strimlitbook/internal/convert"
	"github.com/BexTuychiev/strimlitbook/internal/script"
	"github.com/BexTuychiev/strimlitbook/pkg/types"
)

var convertCmd = &cobra.Command{
	Use:   "convert [notebooks...]",
	Short: "Convert notebooks into Streamlit apps",
	Long: `Convert generates one Streamlit app per notebook under the apps
directory. With explicit notebook paths it converts those files; without
arguments it converts every notebook under the notebooks directory.

With --watch it keeps running and reconverts notebooks as they change.`,
	RunE: runConvert,
}

func runConvert(cmd *cobra.Command, args []string) error {
	g := script.NewBuilder()
	opts := conversionOptions(cmd)

	watch, _ := cmd.Flags().GetBool("watch")
	if watch {
		debounce, _ := cmd.Flags().GetDuration("debounce")
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		dir := notebooksDir(cmd)
		fmt.Fprintf(os.Stderr, "watching %s for notebook changes\n", dir)
		w := convert.NewWatcher(g, opts, debounce, os.Stdout)
		if err := w.Watch(ctx, dir); err != nil && ctx.Err() == nil {
			return err
		}
		return nil
	}

	var result convert.BatchResult
	if len(args) > 0 {
		result = convert.ConvertBatch(g, args, opts, os.Stdout)
	} else {
		var err error
		result, err = convert.ConvertDir(g, notebooksDir(cmd), opts, os.Stdout)
		if err != nil {
			return err
		}
	}

	if result.HasFailures() {
		return fmt.Errorf("%d notebook(s) failed conversion", result.Failed)
	}
	return nil
}

// notebooksDir resolves the notebooks directory for commands that scan it.
func notebooksDir(cmd *cobra.Command) string {
	return stringSetting(cmd, "notebooks-dir", "notebooks_dir")
}

// conversionOptions assembles convert.Options from flags and config.
func conversionOptions(cmd *cobra.Command) convert.Options {
	force, _ := cmd.Flags().GetBool("force")
	flat, _ := cmd.Flags().GetBool("flat")
	splitAt, _ := cmd.Flags().GetInt("split-at")

	return convert.Options{
		AppsDir:      stringSetting(cmd, "apps-dir", "apps_dir"),
		Flat:         flat,
		Force:        force,
		Requirements: boolSetting(cmd, "requirements", "requirements"),
		SplitAt:      splitAt,
		Jobs:         intSetting(cmd, "jobs", "jobs"),
		Script: script.Options{
			Layout:  types.PageLayout(stringSetting(cmd, "layout", "page_layout")),
			Version: version,
		},
	}
}

func init() {
	convertCmd.Flags().String("notebooks-dir", "notebooks", "directory scanned for .ipynb files")
	convertCmd.Flags().String("apps-dir", "apps", "directory receiving generated apps (one <slug>/app.py each)")
	convertCmd.Flags().String("layout", "wide", "Streamlit page layout: wide or centered")
	convertCmd.Flags().Bool("flat", false, "write apps as <slug>.py directly under the apps directory")
	convertCmd.Flags().Bool("force", false, "overwrite existing apps instead of skipping")
	convertCmd.Flags().Bool("requirements", false, "write requirements.txt next to each app")
	convertCmd.Flags().Int("split-at", 0, "split each notebook at this cell index into part1/part2 apps")
	convertCmd.Flags().Int("jobs", 0, "notebooks converted concurrently (0 = sequential)")
	convertCmd.Flags().Bool("watch", false, "watch the notebooks directory and reconvert on change")
	convertCmd.Flags().Duration("debounce", 500*time.Millisecond, "settle time before a changed notebook reconverts")

	rootCmd.AddCommand(convertCmd)
}
