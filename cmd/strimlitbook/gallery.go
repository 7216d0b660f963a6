// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/BexTuychiev/strimlitbook/internal/gallery"
	"github.com/BexTuychiev/strimlitbook/pkg/types"
)

var galleryCmd = &cobra.Command{
	Use:   "gallery",
	Short: "Manage the notebook gallery (index, search, list, export)",
	Long: `Gallery manages a local SQLite index built from notebook cells. Use
subcommands to index notebooks, search cells with full-text queries and
filters, list indexed notebooks, or export the index.`,
}

// --- index subcommand ---

var galleryIndexCmd = &cobra.Command{
	Use:   "index",
	Short: "Index notebooks into the gallery database",
	Long: `Index scans the notebooks directory, ingests each notebook's cells into
a SQLite database with FTS5 indexing, and refreshes the YAML export.
Unchanged notebooks are skipped on subsequent runs.`,
	RunE: runGalleryIndex,
}

func runGalleryIndex(cmd *cobra.Command, args []string) error {
	store, err := gallery.NewStore(galleryConfig(cmd))
	if err != nil {
		return err
	}
	defer store.Close()

	summary, err := store.Ingest(context.Background(), os.Stdout)
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d notebook(s) failed indexing", summary.Failed)
	}
	return nil
}

// --- search subcommand ---

var gallerySearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed cells with full-text queries and filters",
	Long: `Search queries the gallery using FTS5 full-text search, structured
filters (cell type, tag, notebook), or a combination of both. Results
include the owning notebook's title.`,
	RunE: runGallerySearch,
}

func runGallerySearch(cmd *cobra.Command, args []string) error {
	store, err := gallery.NewStore(galleryConfig(cmd))
	if err != nil {
		return err
	}
	defer store.Close()

	opts := queryOptsFromFlags(cmd, args)
	if opts.IsEmpty() {
		return fmt.Errorf("query or filter required: provide a search query, --type, --tag, or --notebook")
	}

	results, err := store.Retrieve(context.Background(), opts)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatSearchOutput(results, jsonOutput)
}

func formatSearchOutput(results []types.CellHit, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-4s  %-8s  %-50s  %-20s  %s\n",
		"Rank", "Type", "Source", "Notebook", "Cell")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 96))

	for i, r := range results {
		source := strings.ReplaceAll(r.Source, "\n", " ")
		if len(source) > 50 {
			source = source[:47] + "..."
		}
		nb := r.NotebookID
		if len(nb) > 20 {
			nb = nb[:17] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-4d  %-8s  %-50s  %-20s  %d\n",
			i+1, r.CellType, source, nb, r.CellIndex)
	}

	fmt.Fprintf(os.Stdout, "\n%d results\n", len(results))
	return nil
}

// --- list subcommand ---

var galleryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List indexed notebooks with their conversion status",
	RunE:  runGalleryList,
}

func runGalleryList(cmd *cobra.Command, args []string) error {
	store, err := gallery.NewStore(galleryConfig(cmd))
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.List(context.Background())
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("No notebooks indexed. Run `strimlitbook gallery index` first.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-24s  %-36s  %-8s  %-14s  %-9s  %s\n",
		"ID", "Title", "Kernel", "Cells", "Size", "Status")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 106))
	for _, r := range records {
		title := r.Title
		if len(title) > 36 {
			title = title[:33] + "..."
		}
		cells := fmt.Sprintf("%d code/%d md", r.CodeCells, r.MarkdownCells)
		fmt.Fprintf(os.Stdout, "%-24s  %-36s  %-8s  %-14s  %-9s  %s\n",
			r.ID, title, r.Kernel, cells,
			humanize.Bytes(uint64(r.SizeBytes)),
			colorizeStatus(r.ConversionStatus))
	}
	fmt.Fprintf(os.Stdout, "\n%d notebooks\n", len(records))
	return nil
}

// colorizeStatus colors a conversion status for terminal output.
func colorizeStatus(status types.ConversionStatus) string {
	switch status {
	case types.ConversionDone:
		return color.GreenString(string(status))
	case types.ConversionFailed:
		return color.RedString(string(status))
	default:
		return string(status)
	}
}

// --- export subcommand ---

var galleryExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the gallery index to YAML or JSON",
	Long: `Export writes the full cell index (or a filtered subset) to
gallery/index/export.yaml or export.json. Supports the same filter
flags as search for partial exports.`,
	RunE: runGalleryExport,
}

func runGalleryExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	store, err := gallery.NewStore(galleryConfig(cmd))
	if err != nil {
		return err
	}
	defer store.Close()

	opts := queryOptsFromFlags(cmd, args)

	switch format {
	case "yaml", "":
		if err := store.ExportYAML(context.Background(), opts); err != nil {
			return err
		}
		fmt.Println("Exported to gallery/index/export.yaml")
	case "json":
		if err := store.ExportJSON(context.Background(), opts); err != nil {
			return err
		}
		fmt.Println("Exported to gallery/index/export.json")
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}

	return nil
}

// --- shared helpers ---

func galleryConfig(cmd *cobra.Command) types.GalleryConfig {
	galleryDir, _ := cmd.Flags().GetString("gallery-dir")
	if galleryDir == "" {
		galleryDir = "gallery"
	}
	maxResults, _ := cmd.Flags().GetInt("max-results")

	return types.GalleryConfig{
		GalleryDir:   galleryDir,
		NotebooksDir: stringSetting(cmd, "notebooks-dir", "notebooks_dir"),
		AppsDir:      stringSetting(cmd, "apps-dir", "apps_dir"),
		MaxResults:   maxResults,
	}
}

func queryOptsFromFlags(cmd *cobra.Command, args []string) gallery.QueryOptions {
	queryText, _ := cmd.Flags().GetString("query")
	if queryText == "" && len(args) > 0 {
		queryText = strings.Join(args, " ")
	}

	cellType, _ := cmd.Flags().GetString("type")
	tag, _ := cmd.Flags().GetString("tag")
	notebookID, _ := cmd.Flags().GetString("notebook")
	limit, _ := cmd.Flags().GetInt("limit")

	opts := gallery.QueryOptions{
		Query:      queryText,
		CellType:   types.CellType(cellType),
		NotebookID: notebookID,
		MaxResults: limit,
	}
	if tag != "" {
		opts.Tags = []string{tag}
	}
	return opts
}

func init() {
	// Shared flags on the parent command, inherited by subcommands.
	galleryCmd.PersistentFlags().String("gallery-dir", "gallery", "base directory for the gallery (contains index/)")
	galleryCmd.PersistentFlags().String("notebooks-dir", "notebooks", "directory scanned for .ipynb files")
	galleryCmd.PersistentFlags().String("apps-dir", "apps", "directory checked for generated apps")
	galleryCmd.PersistentFlags().Int("max-results", 20, "maximum number of query results")

	// Search flags.
	gallerySearchCmd.Flags().String("query", "", "full-text search query")
	gallerySearchCmd.Flags().String("type", "", "filter by cell type: code or markdown")
	gallerySearchCmd.Flags().String("tag", "", "filter by cell tag")
	gallerySearchCmd.Flags().String("notebook", "", "filter by notebook ID")
	gallerySearchCmd.Flags().Int("limit", 0, "maximum results (0 = use default)")
	gallerySearchCmd.Flags().Bool("json", false, "output results as JSON")

	// Export flags.
	galleryExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	galleryExportCmd.Flags().String("query", "", "full-text search filter for partial export")
	galleryExportCmd.Flags().String("type", "", "filter by cell type for partial export")
	galleryExportCmd.Flags().String("tag", "", "filter by tag for partial export")
	galleryExportCmd.Flags().String("notebook", "", "filter by notebook ID for partial export")
	galleryExportCmd.Flags().Int("limit", 0, "maximum cells to export (0 = all)")

	// Wire subcommands.
	galleryCmd.AddCommand(galleryIndexCmd)
	galleryCmd.AddCommand(gallerySearchCmd)
	galleryCmd.AddCommand(galleryListCmd)
	galleryCmd.AddCommand(galleryExportCmd)

	rootCmd.AddCommand(galleryCmd)
}
