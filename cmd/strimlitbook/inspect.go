package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/BexTuychiev/strimlitbook/internal/notebook"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <notebook>",
	Short: "Show a notebook's structure and recorded outputs",
	Long: `Inspect parses one notebook and reports its title, kernel, cell counts,
and recorded output kinds. Use --format json or --format yaml for
machine-readable output.`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

// inspectReport is the machine-readable inspect output.
type inspectReport struct {
	ID            string         `json:"id" yaml:"id"`
	Path          string         `json:"path" yaml:"path"`
	Title         string         `json:"title" yaml:"title"`
	Kernel        string         `json:"kernel" yaml:"kernel"`
	NBFormat      int            `json:"nbformat" yaml:"nbformat"`
	CodeCells     int            `json:"code_cells" yaml:"code_cells"`
	MarkdownCells int            `json:"markdown_cells" yaml:"markdown_cells"`
	RawCells      int            `json:"raw_cells" yaml:"raw_cells"`
	SizeBytes     int64          `json:"size_bytes" yaml:"size_bytes"`
	Outputs       map[string]int `json:"outputs" yaml:"outputs"`
}

func runInspect(cmd *cobra.Command, args []string) error {
	path := args[0]
	nb, err := notebook.Read(path)
	if err != nil {
		return err
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	stats := notebook.Collect(nb)
	outputs := make(map[string]int, len(stats.Outputs))
	for kind, n := range stats.Outputs {
		outputs[string(kind)] = n
	}
	report := inspectReport{
		ID:            notebook.Slug(path),
		Path:          path,
		Title:         notebook.Title(nb, path),
		Kernel:        nb.Language(),
		NBFormat:      nb.NBFormat,
		CodeCells:     stats.CodeCells,
		MarkdownCells: stats.MarkdownCells,
		RawCells:      stats.RawCells,
		SizeBytes:     info.Size(),
		Outputs:       outputs,
	}

	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "table", "":
		printInspectTable(report)
		return nil
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case "yaml":
		out, err := yaml.Marshal(report)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(out)
		return err
	default:
		return fmt.Errorf("unsupported format %q: use table, json, or yaml", format)
	}
}

func printInspectTable(r inspectReport) {
	fmt.Printf("%-10s %s\n", "Notebook:", r.ID)
	fmt.Printf("%-10s %s\n", "Title:", r.Title)
	fmt.Printf("%-10s %s\n", "Kernel:", r.Kernel)
	fmt.Printf("%-10s %d\n", "NBFormat:", r.NBFormat)
	fmt.Printf("%-10s %d code, %d markdown, %d raw\n", "Cells:",
		r.CodeCells, r.MarkdownCells, r.RawCells)
	fmt.Printf("%-10s %s\n", "Size:", humanize.Bytes(uint64(r.SizeBytes)))

	if len(r.Outputs) == 0 {
		fmt.Printf("%-10s none recorded\n", "Outputs:")
		return
	}
	kinds := make([]string, 0, len(r.Outputs))
	for kind := range r.Outputs {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	fmt.Printf("%-10s", "Outputs:")
	for _, kind := range kinds {
		fmt.Printf(" %s=%d", kind, r.Outputs[kind])
	}
	fmt.Println()
}

func init() {
	inspectCmd.Flags().String("format", "table", "output format: table, json, or yaml")

	rootCmd.AddCommand(inspectCmd)
}
