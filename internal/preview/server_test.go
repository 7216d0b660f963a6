// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package preview

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/BexTuychiev/strimlitbook/pkg/types"
)

const previewNotebookJSON = `{
 "cells": [
  {"cell_type": "markdown", "metadata": {}, "source": ["# Sales Analysis\n", "\n", "Quarterly revenue trends by region.\n"]},
  {"cell_type": "code", "execution_count": 1, "metadata": {}, "outputs": [
   {"output_type": "stream", "name": "stdout", "text": ["loading\n"]}
  ], "source": ["import pandas as pd\n", "print(\"loading\")"]}
 ],
 "metadata": {"kernelspec": {"display_name": "Python 3", "language": "python", "name": "python3"}},
 "nbformat": 4,
 "nbformat_minor": 5
}`

func setupServer(t *testing.T) (*Server, *gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	InitLogging("error", "text")

	tmpDir := t.TempDir()
	notebooksDir := filepath.Join(tmpDir, "notebooks")
	if err := os.MkdirAll(notebooksDir, 0o755); err != nil {
		t.Fatal(err)
	}

	srv, err := NewServer(types.PreviewConfig{NotebooksDir: notebooksDir})
	if err != nil {
		t.Fatal(err)
	}
	return srv, srv.Router(), notebooksDir
}

func writeNotebook(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(previewNotebookJSON), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func get(r *gin.Engine, path string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest("GET", path, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIndexListsNotebooks(t *testing.T) {
	_, r, dir := setupServer(t)
	writeNotebook(t, dir, "sales.ipynb")

	w := get(r, "/")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Sales Analysis")
	assert.Contains(t, w.Body.String(), "/nb/sales")
}

func TestIndexEmptyDirectory(t *testing.T) {
	_, r, _ := setupServer(t)

	w := get(r, "/")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "No notebooks found")
}

func TestShowNotebook(t *testing.T) {
	_, r, dir := setupServer(t)
	writeNotebook(t, dir, "sales.ipynb")

	w := get(r, "/nb/sales")

	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "<h1>Sales Analysis</h1>")
	assert.Contains(t, body, "Quarterly revenue trends")
	assert.Contains(t, body, "import pandas as pd")
	assert.Contains(t, body, "loading")
}

func TestShowNotebookNotFound(t *testing.T) {
	_, r, _ := setupServer(t)

	w := get(r, "/nb/ghost")

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRawNotebook(t *testing.T) {
	_, r, dir := setupServer(t)
	writeNotebook(t, dir, "sales.ipynb")

	w := get(r, "/nb/sales/raw")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
	assert.Contains(t, w.Body.String(), `"cells"`)
}

func TestAPINotebooks(t *testing.T) {
	_, r, dir := setupServer(t)
	writeNotebook(t, dir, "sales.ipynb")

	w := get(r, "/api/notebooks")

	assert.Equal(t, http.StatusOK, w.Code)

	var records []types.NotebookRecord
	err := json.Unmarshal(w.Body.Bytes(), &records)
	assert.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, "sales", records[0].ID)
	assert.Equal(t, "Sales Analysis", records[0].Title)
	assert.Equal(t, "python", records[0].Kernel)
	assert.Equal(t, 1, records[0].CodeCells)
}

func TestAPINotebooksSkipsUnreadable(t *testing.T) {
	_, r, dir := setupServer(t)
	writeNotebook(t, dir, "good.ipynb")
	if err := os.WriteFile(filepath.Join(dir, "bad.ipynb"), []byte("{broken"), 0o644); err != nil {
		t.Fatal(err)
	}

	w := get(r, "/api/notebooks")

	assert.Equal(t, http.StatusOK, w.Code)
	var records []types.NotebookRecord
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &records))
	assert.Len(t, records, 1)
}

func TestAPIMtime(t *testing.T) {
	_, r, dir := setupServer(t)
	writeNotebook(t, dir, "sales.ipynb")

	w := get(r, "/api/mtime/sales")

	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "sales", resp["slug"])
	assert.Greater(t, resp["mtime"], float64(0))
}

func TestAPIMtimeNotFound(t *testing.T) {
	_, r, _ := setupServer(t)

	w := get(r, "/api/mtime/ghost")

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthz(t *testing.T) {
	_, r, _ := setupServer(t)

	w := get(r, "/healthz")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestHealthzMissingDirectory(t *testing.T) {
	gin.SetMode(gin.TestMode)
	InitLogging("error", "text")

	srv, err := NewServer(types.PreviewConfig{
		NotebooksDir: filepath.Join(t.TempDir(), "nope"),
	})
	assert.NoError(t, err)

	w := get(srv.Router(), "/healthz")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRequestIDHeader(t *testing.T) {
	_, r, _ := setupServer(t)

	w := get(r, "/healthz")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	// A client-supplied ID is echoed back.
	req, _ := http.NewRequest("GET", "/healthz", nil)
	req.Header.Set("X-Request-ID", "req-42")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "req-42", w.Header().Get("X-Request-ID"))
}

func TestAddrDefaults(t *testing.T) {
	srv, err := NewServer(types.PreviewConfig{NotebooksDir: t.TempDir()})
	assert.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8899", srv.Addr())
}
