package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/BexTuychiev/strimlitbook/internal/validate"
)

var validateCmd = &cobra.Command{
	Use:   "validate [notebooks...]",
	Short: "Check notebooks against the nbformat v4 schema",
	Long: `Validate checks notebook files for well-formed JSON and nbformat v4
schema conformance, and reports each issue with its document path. With
explicit paths it validates those files; without arguments it validates
every notebook under the notebooks directory.`,
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	var summary validate.BatchSummary
	if len(args) > 0 {
		summary = validate.ValidateBatch(args, os.Stdout)
	} else {
		var err error
		summary, err = validate.ValidateDir(notebooksDir(cmd), os.Stdout)
		if err != nil {
			return err
		}
	}

	if summary.HasProblems() {
		return fmt.Errorf("%d notebook(s) failed validation", summary.Invalid+summary.Failed)
	}
	return nil
}

func init() {
	validateCmd.Flags().String("notebooks-dir", "notebooks", "directory scanned for .ipynb files")

	rootCmd.AddCommand(validateCmd)
}
