package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/BexTuychiev/strimlitbook/internal/preview"
	"github.com/BexTuychiev/strimlitbook/pkg/types"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a live HTML preview of the notebooks directory",
	Long: `Serve starts a local web server that lists notebooks and renders each
one as HTML, with recorded charts replayed in the browser. Notebook
pages reload automatically when the file changes on disk.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := types.PreviewConfig{
		Host:         stringSetting(cmd, "host", "preview.host"),
		Port:         intSetting(cmd, "port", "preview.port"),
		NotebooksDir: notebooksDir(cmd),
		LogLevel:     stringSetting(cmd, "log-level", "preview.log_level"),
		LogFormat:    stringSetting(cmd, "log-format", "preview.log_format"),
	}
	preview.InitLogging(cfg.LogLevel, cfg.LogFormat)

	srv, err := preview.NewServer(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return srv.Run(ctx)
}

func init() {
	serveCmd.Flags().String("host", "127.0.0.1", "interface the preview server binds")
	serveCmd.Flags().Int("port", 8899, "preview server port")
	serveCmd.Flags().String("notebooks-dir", "notebooks", "directory scanned for .ipynb files")
	serveCmd.Flags().String("log-level", "info", "log level: debug, info, warn, or error")
	serveCmd.Flags().String("log-format", "text", "log format: text or json")

	rootCmd.AddCommand(serveCmd)
}
