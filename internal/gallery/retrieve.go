// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package gallery

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/BexTuychiev/strimlitbook/pkg/types"
)

// QueryOptions holds parameters for gallery queries (R3, R4).
type QueryOptions struct {
	// Query is the FTS5 full-text search string matched against cell
	// sources (R3.1).
	Query string

	// CellType filters by cell type (R4.1).
	CellType types.CellType

	// Tags filters by one or more cell tags with AND semantics (R4.2).
	Tags []string

	// NotebookID filters by notebook slug (R4.3).
	NotebookID string

	// MaxResults limits result count. Zero uses the store default (R3.5).
	MaxResults int
}

// IsEmpty reports whether the query has no search terms or filters.
func (q QueryOptions) IsEmpty() bool {
	return q.Query == "" && q.CellType == "" && len(q.Tags) == 0 && q.NotebookID == ""
}

// Retrieve queries the cell index with optional full-text search and
// structured filters (R3, R4). Results are ranked by relevance for
// full-text queries or sorted by notebook and cell position for
// structured-only queries (R4.6).
func (s *Store) Retrieve(ctx context.Context, opts QueryOptions) ([]types.CellHit, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb     strings.Builder
		args   []any
		useFTS = opts.Query != ""
	)

	if useFTS {
		qb.WriteString(
			`SELECT c.notebook_id, c.idx, c.cell_type, c.source, c.tags,
				n.title, cells_fts.rank
			FROM cells_fts
			JOIN cells c ON c.rowid = cells_fts.rowid
			LEFT JOIN notebooks n ON c.notebook_id = n.id
			WHERE cells_fts MATCH ?`)
		args = append(args, opts.Query)
	} else {
		qb.WriteString(
			`SELECT c.notebook_id, c.idx, c.cell_type, c.source, c.tags,
				n.title, 0 AS rank
			FROM cells c
			LEFT JOIN notebooks n ON c.notebook_id = n.id
			WHERE 1=1`)
	}

	if opts.CellType != "" {
		qb.WriteString(` AND c.cell_type = ?`)
		args = append(args, string(opts.CellType))
	}

	if opts.NotebookID != "" {
		qb.WriteString(` AND c.notebook_id = ?`)
		args = append(args, opts.NotebookID)
	}

	for _, tag := range opts.Tags {
		qb.WriteString(` AND EXISTS (SELECT 1 FROM json_each(c.tags) WHERE value = ?)`)
		args = append(args, tag)
	}

	if useFTS {
		qb.WriteString(` ORDER BY cells_fts.rank`)
	} else {
		qb.WriteString(` ORDER BY c.notebook_id, c.idx`)
	}

	qb.WriteString(` LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying gallery: %w", err)
	}
	defer rows.Close()

	var hits []types.CellHit
	for rows.Next() {
		var (
			hit      types.CellHit
			cellType string
			tagsJSON sql.NullString
			title    sql.NullString
			rank     float64
		)

		if err := rows.Scan(
			&hit.NotebookID, &hit.CellIndex, &cellType, &hit.Source,
			&tagsJSON, &title, &rank,
		); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		hit.CellType = types.CellType(cellType)
		if tagsJSON.Valid {
			json.Unmarshal([]byte(tagsJSON.String), &hit.Tags)
		}
		if title.Valid {
			hit.Title = title.String
		}

		hits = append(hits, hit)
	}

	return hits, rows.Err()
}

// List returns every indexed notebook, ordered by slug (R2.1).
func (s *Store) List(ctx context.Context) ([]types.NotebookRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, path, title, kernel, nbformat, code_cells, markdown_cells,
			size_bytes, mod_time, conversion_status, app_path
		FROM notebooks ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing notebooks: %w", err)
	}
	defer rows.Close()

	var records []types.NotebookRecord
	for rows.Next() {
		var (
			rec     types.NotebookRecord
			modTime string
			status  string
			appPath sql.NullString
		)
		if err := rows.Scan(
			&rec.ID, &rec.Path, &rec.Title, &rec.Kernel, &rec.NBFormat,
			&rec.CodeCells, &rec.MarkdownCells, &rec.SizeBytes, &modTime,
			&status, &appPath,
		); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		if t, err := time.Parse(time.RFC3339Nano, modTime); err == nil {
			rec.ModTime = t
		}
		rec.ConversionStatus = types.ConversionStatus(status)
		if appPath.Valid {
			rec.AppPath = appPath.String
		}

		records = append(records, rec)
	}

	return records, rows.Err()
}

// Get returns one indexed notebook by slug, or sql.ErrNoRows wrapped in a
// descriptive error when it is not in the catalog.
func (s *Store) Get(ctx context.Context, id string) (types.NotebookRecord, error) {
	var (
		rec     types.NotebookRecord
		modTime string
		status  string
		appPath sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, path, title, kernel, nbformat, code_cells, markdown_cells,
			size_bytes, mod_time, conversion_status, app_path
		FROM notebooks WHERE id = ?`, id,
	).Scan(
		&rec.ID, &rec.Path, &rec.Title, &rec.Kernel, &rec.NBFormat,
		&rec.CodeCells, &rec.MarkdownCells, &rec.SizeBytes, &modTime,
		&status, &appPath,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return rec, fmt.Errorf("notebook %s not found in gallery", id)
		}
		return rec, fmt.Errorf("looking up notebook: %w", err)
	}

	if t, err := time.Parse(time.RFC3339Nano, modTime); err == nil {
		rec.ModTime = t
	}
	rec.ConversionStatus = types.ConversionStatus(status)
	if appPath.Valid {
		rec.AppPath = appPath.String
	}
	return rec, nil
}
