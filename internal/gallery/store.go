// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package gallery indexes notebooks into a searchable SQLite catalog.
// Implements: prd004-gallery (R1-R6);
//
//	docs/ARCHITECTURE § Gallery.
package gallery

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/BexTuychiev/strimlitbook/internal/notebook"
	"github.com/BexTuychiev/strimlitbook/pkg/types"
)

const (
	indexDir = "index"
	dbFile   = "gallery.db"
	appFile  = "app.py"
)

// Store manages the gallery SQLite database.
type Store struct {
	db           *sql.DB
	galleryDir   string
	notebooksDir string
	appsDir      string
	maxResults   int
}

// NewStore opens or creates the gallery SQLite database at
// galleryDir/index/gallery.db, creating the schema if it does not exist
// (R1.2, R1.3).
func NewStore(cfg types.GalleryConfig) (*Store, error) {
	dbDir := filepath.Join(cfg.GalleryDir, indexDir)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(dbDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{
		db:           db,
		galleryDir:   cfg.GalleryDir,
		notebooksDir: cfg.NotebooksDir,
		appsDir:      cfg.AppsDir,
		maxResults:   maxResults,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS notebooks (
			id TEXT PRIMARY KEY,
			path TEXT,
			title TEXT,
			kernel TEXT,
			nbformat INTEGER,
			code_cells INTEGER,
			markdown_cells INTEGER,
			size_bytes INTEGER,
			mod_time TEXT,
			conversion_status TEXT,
			app_path TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS cells (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			notebook_id TEXT NOT NULL REFERENCES notebooks(id),
			idx INTEGER NOT NULL,
			cell_type TEXT NOT NULL,
			source TEXT NOT NULL,
			tags TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_cells_notebook_id ON cells(notebook_id)`,
		`CREATE INDEX IF NOT EXISTS idx_cells_cell_type ON cells(cell_type)`,
		`CREATE TABLE IF NOT EXISTS indexing_status (
			notebook_id TEXT PRIMARY KEY,
			file_mod_time TEXT
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='cells_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE cells_fts USING fts5(source, content=cells, content_rowid=rowid)`,
			`CREATE TRIGGER cells_ai AFTER INSERT ON cells BEGIN
				INSERT INTO cells_fts(rowid, source) VALUES (new.rowid, new.source);
			END`,
			`CREATE TRIGGER cells_ad AFTER DELETE ON cells BEGIN
				INSERT INTO cells_fts(cells_fts, rowid, source) VALUES('delete', old.rowid, old.source);
			END`,
			`CREATE TRIGGER cells_au AFTER UPDATE ON cells BEGIN
				INSERT INTO cells_fts(cells_fts, rowid, source) VALUES('delete', old.rowid, old.source);
				INSERT INTO cells_fts(rowid, source) VALUES (new.rowid, new.source);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				if strings.Contains(err.Error(), "no such module: fts5") {
					return fmt.Errorf("creating FTS infrastructure: %w (rebuild with -tags sqlite_fts5)", err)
				}
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// IngestSummary holds counts from a gallery indexing run (R5.5).
type IngestSummary struct {
	Indexed int
	Updated int
	Skipped int
	Failed  int
}

// Total returns the number of notebooks processed.
func (s IngestSummary) Total() int {
	return s.Indexed + s.Updated + s.Skipped + s.Failed
}

// Ingest scans the notebooks directory and populates the database. It
// detects new, changed, and unchanged files by modification time for
// incremental updates (R1.1, R5.1-R5.5). On success it refreshes
// export.yaml (R1.6).
func (s *Store) Ingest(ctx context.Context, w io.Writer) (IngestSummary, error) {
	paths, err := notebook.Find(s.notebooksDir)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("scanning notebooks: %w", err)
	}

	var summary IngestSummary

	for _, path := range paths {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		slug := notebook.Slug(path)

		info, err := os.Stat(path)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", slug, err)
			summary.Failed++
			continue
		}
		modTime := info.ModTime().UTC().Format(time.RFC3339Nano)

		// Check whether the file has changed since last indexing (R5.1, R5.3).
		var storedModTime string
		err = s.db.QueryRowContext(ctx,
			`SELECT file_mod_time FROM indexing_status WHERE notebook_id = ?`, slug,
		).Scan(&storedModTime)

		if err == nil && storedModTime == modTime {
			fmt.Fprintf(w, "skipped %s\n", slug)
			summary.Skipped++
			continue
		}

		isUpdate := err == nil

		nb, err := notebook.Read(path)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", slug, err)
			summary.Failed++
			continue
		}

		rec := s.record(nb, path, slug, info)

		if err := s.ingestNotebook(ctx, rec, nb, modTime, isUpdate); err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", slug, err)
			summary.Failed++
			continue
		}

		if isUpdate {
			fmt.Fprintf(w, "updated %s (%d cells)\n", slug, nb.NCells())
			summary.Updated++
		} else {
			fmt.Fprintf(w, "indexing %s (%d cells)\n", slug, nb.NCells())
			summary.Indexed++
		}
	}

	fmt.Fprintf(w, "\nindexed: %d, updated: %d, skipped: %d, failed: %d\n",
		summary.Indexed, summary.Updated, summary.Skipped, summary.Failed)

	// Refresh export.yaml after successful ingestion (R1.6).
	if summary.Indexed > 0 || summary.Updated > 0 {
		if err := s.ExportYAML(ctx, QueryOptions{}); err != nil {
			fmt.Fprintf(w, "warning: export.yaml write failed: %v\n", err)
		}
	}

	return summary, nil
}

// record builds the catalog row for one notebook, checking the apps
// directory for its conversion status (R2.4).
func (s *Store) record(nb *types.Notebook, path, slug string, info os.FileInfo) types.NotebookRecord {
	stats := notebook.Collect(nb)

	rel := path
	if r, err := filepath.Rel(s.notebooksDir, path); err == nil {
		rel = r
	}

	rec := types.NotebookRecord{
		ID:               slug,
		Path:             rel,
		Title:            notebook.Title(nb, path),
		Kernel:           nb.Language(),
		NBFormat:         nb.NBFormat,
		CodeCells:        stats.CodeCells,
		MarkdownCells:    stats.MarkdownCells,
		SizeBytes:        info.Size(),
		ModTime:          info.ModTime().UTC(),
		ConversionStatus: types.ConversionNone,
	}

	if s.appsDir != "" {
		appPath := filepath.Join(s.appsDir, slug, appFile)
		if _, err := os.Stat(appPath); err == nil {
			rec.ConversionStatus = types.ConversionDone
			rec.AppPath = appPath
		}
	}

	return rec
}

// ingestNotebook writes one notebook's catalog row and cells in a single
// transaction (R1.4, R1.5, R5.2).
func (s *Store) ingestNotebook(ctx context.Context, rec types.NotebookRecord, nb *types.Notebook, modTime string, isUpdate bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	// Remove old cells if updating (R5.2).
	if isUpdate {
		if _, err := tx.ExecContext(ctx, `DELETE FROM cells WHERE notebook_id = ?`, rec.ID); err != nil {
			return fmt.Errorf("deleting old cells: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO notebooks (id, path, title, kernel, nbformat, code_cells,
			markdown_cells, size_bytes, mod_time, conversion_status, app_path)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			path=excluded.path, title=excluded.title, kernel=excluded.kernel,
			nbformat=excluded.nbformat, code_cells=excluded.code_cells,
			markdown_cells=excluded.markdown_cells, size_bytes=excluded.size_bytes,
			mod_time=excluded.mod_time, conversion_status=excluded.conversion_status,
			app_path=excluded.app_path`,
		rec.ID, rec.Path, rec.Title, rec.Kernel, rec.NBFormat, rec.CodeCells,
		rec.MarkdownCells, rec.SizeBytes, rec.ModTime.Format(time.RFC3339Nano),
		string(rec.ConversionStatus), rec.AppPath,
	)
	if err != nil {
		return fmt.Errorf("upserting notebook: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO cells (notebook_id, idx, cell_type, source, tags)
		 VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, cell := range nb.Cells {
		if cell.Type != types.CellCode && cell.Type != types.CellMarkdown {
			continue
		}
		tagsJSON, _ := json.Marshal(cell.Metadata.Tags)
		_, err := stmt.ExecContext(ctx,
			rec.ID, i, string(cell.Type), string(cell.Source), string(tagsJSON),
		)
		if err != nil {
			return fmt.Errorf("inserting cell %d: %w", i, err)
		}
	}

	// Update indexing status (R5.1).
	_, err = tx.ExecContext(ctx,
		`INSERT INTO indexing_status (notebook_id, file_mod_time) VALUES (?, ?)
		 ON CONFLICT(notebook_id) DO UPDATE SET file_mod_time=excluded.file_mod_time`,
		rec.ID, modTime,
	)
	if err != nil {
		return fmt.Errorf("updating indexing status: %w", err)
	}

	return tx.Commit()
}
