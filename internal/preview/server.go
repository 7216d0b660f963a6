// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package preview serves a notebooks directory as rendered HTML for local
// review before conversion.
// Implements: prd005-preview (R1-R5);
//
//	docs/ARCHITECTURE § Preview.
package preview

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"time"

	"github.com/Masterminds/sprig/v3"
	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/BexTuychiev/strimlitbook/internal/notebook"
	"github.com/BexTuychiev/strimlitbook/pkg/types"
)

//go:embed templates/*.html.tmpl
var templateFS embed.FS

// Server renders and serves notebooks over HTTP (R1).
type Server struct {
	cfg      types.PreviewConfig
	renderer *Renderer
	tmpl     *template.Template
}

// NewServer builds a preview server for the configured notebooks directory.
func NewServer(cfg types.PreviewConfig) (*Server, error) {
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == 0 {
		cfg.Port = 8899
	}

	tmpl, err := template.New("").Funcs(templateFuncs()).ParseFS(templateFS, "templates/*.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}

	return &Server{
		cfg:      cfg,
		renderer: NewRenderer(),
		tmpl:     tmpl,
	}, nil
}

func templateFuncs() template.FuncMap {
	funcs := sprig.HtmlFuncMap()
	funcs["humanizeBytes"] = func(n int64) string { return humanize.Bytes(uint64(n)) }
	return funcs
}

// InitLogging configures the process logger from config (R4.3).
func InitLogging(level, format string) {
	lv, err := log.ParseLevel(level)
	if err != nil {
		lv = log.InfoLevel
	}
	log.SetLevel(lv)

	if format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
}

// Router assembles the gin engine with the middleware chain and all
// routes (R1.1, R2).
func (s *Server) Router() *gin.Engine {
	if s.cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(requestID(), requestLogging(), gin.Recovery())

	r.GET("/", s.index)
	r.GET("/nb/:slug", s.showNotebook)
	r.GET("/nb/:slug/raw", s.rawNotebook)

	api := r.Group("/api")
	api.GET("/notebooks", s.apiNotebooks)
	api.GET("/mtime/:slug", s.apiMtime)

	r.GET("/healthz", s.healthz)

	return r
}

// Run serves until ctx is canceled, then shuts down gracefully (R5.1).
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.Addr(),
		Handler: s.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("preview server listening on http://%s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down preview server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// scan reads the notebooks directory into catalog records. Unreadable
// files are logged and skipped so one corrupt notebook cannot take the
// listing down (R2.2).
func (s *Server) scan() ([]types.NotebookRecord, error) {
	paths, err := notebook.Find(s.cfg.NotebooksDir)
	if err != nil {
		return nil, fmt.Errorf("scanning notebooks: %w", err)
	}

	records := make([]types.NotebookRecord, 0, len(paths))
	for _, path := range paths {
		nb, err := notebook.Read(path)
		if err != nil {
			log.Warnf("skipping %s: %v", path, err)
			continue
		}
		info, err := os.Stat(path)
		if err != nil {
			log.Warnf("skipping %s: %v", path, err)
			continue
		}

		stats := notebook.Collect(nb)
		records = append(records, types.NotebookRecord{
			ID:               notebook.Slug(path),
			Path:             path,
			Title:            notebook.Title(nb, path),
			Kernel:           nb.Language(),
			NBFormat:         nb.NBFormat,
			CodeCells:        stats.CodeCells,
			MarkdownCells:    stats.MarkdownCells,
			SizeBytes:        info.Size(),
			ModTime:          info.ModTime(),
			ConversionStatus: types.ConversionNone,
		})
	}
	return records, nil
}

// resolve maps a slug back to its notebook path (R2.3).
func (s *Server) resolve(slug string) (string, bool) {
	paths, err := notebook.Find(s.cfg.NotebooksDir)
	if err != nil {
		return "", false
	}
	for _, path := range paths {
		if notebook.Slug(path) == slug {
			return path, true
		}
	}
	return "", false
}

func (s *Server) render(c *gin.Context, name string, data any) {
	var buf bytes.Buffer
	if err := s.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		log.Errorf("rendering %s: %v", name, err)
		c.String(http.StatusInternalServerError, "template error: %v", err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

func (s *Server) index(c *gin.Context) {
	records, err := s.scan()
	if err != nil {
		c.String(http.StatusInternalServerError, "%v", err)
		return
	}
	s.render(c, "index.html.tmpl", gin.H{
		"Dir":       s.cfg.NotebooksDir,
		"Notebooks": records,
	})
}

func (s *Server) showNotebook(c *gin.Context) {
	slug := c.Param("slug")
	path, ok := s.resolve(slug)
	if !ok {
		c.String(http.StatusNotFound, "notebook %q not found", slug)
		return
	}

	nb, err := notebook.Read(path)
	if err != nil {
		c.String(http.StatusInternalServerError, "%v", err)
		return
	}
	info, err := os.Stat(path)
	if err != nil {
		c.String(http.StatusInternalServerError, "%v", err)
		return
	}

	page, err := s.renderer.RenderNotebook(nb, slug, path, info.ModTime().UnixMilli())
	if err != nil {
		c.String(http.StatusInternalServerError, "%v", err)
		return
	}
	s.render(c, "notebook.html.tmpl", page)
}

func (s *Server) rawNotebook(c *gin.Context) {
	slug := c.Param("slug")
	path, ok := s.resolve(slug)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("notebook %q not found", slug)})
		return
	}
	c.Header("Content-Type", "application/json; charset=utf-8")
	c.File(path)
}

func (s *Server) apiNotebooks(c *gin.Context) {
	records, err := s.scan()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, records)
}

// apiMtime backs the poll-based auto-reload in the notebook page (R2.4).
func (s *Server) apiMtime(c *gin.Context) {
	slug := c.Param("slug")
	path, ok := s.resolve(slug)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("notebook %q not found", slug)})
		return
	}
	info, err := os.Stat(path)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"slug": slug, "mtime": info.ModTime().UnixMilli()})
}

func (s *Server) healthz(c *gin.Context) {
	if _, err := os.Stat(s.cfg.NotebooksDir); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
