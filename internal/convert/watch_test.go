// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/goleak"
)

// startWatcher runs w.Watch in the background and returns its result channel.
func startWatcher(ctx context.Context, w *Watcher, dir string) chan error {
	done := make(chan error, 1)
	go func() { done <- w.Watch(ctx, dir) }()
	return done
}

func waitForFile(t *testing.T, path string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(path); err == nil {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", path)
}

func TestWatch_ConvertsExistingAndNewNotebooks(t *testing.T) {
	defer goleak.VerifyNone(t)

	tmpDir := t.TempDir()
	nbDir := filepath.Join(tmpDir, "notebooks")
	appsDir := filepath.Join(tmpDir, "apps")
	if err := os.MkdirAll(nbDir, 0o755); err != nil {
		t.Fatal(err)
	}
	writeNotebook(t, nbDir, "existing.ipynb")

	gen := &fakeGenerator{}
	var log bytes.Buffer
	w := NewWatcher(gen, Options{AppsDir: appsDir}, 50*time.Millisecond, &log)

	ctx, cancel := context.WithCancel(context.Background())
	done := startWatcher(ctx, w, nbDir)

	// The startup sweep converts what is already on disk.
	waitForFile(t, filepath.Join(appsDir, "existing", "app.py"))

	// A notebook written after startup converts once its events settle.
	writeNotebook(t, nbDir, "fresh.ipynb")
	waitForFile(t, filepath.Join(appsDir, "fresh", "app.py"))

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Watch returned %v, want context.Canceled", err)
	}
}

func TestWatch_ReconvertsOnWrite(t *testing.T) {
	defer goleak.VerifyNone(t)

	tmpDir := t.TempDir()
	nbDir := filepath.Join(tmpDir, "notebooks")
	appsDir := filepath.Join(tmpDir, "apps")
	if err := os.MkdirAll(nbDir, 0o755); err != nil {
		t.Fatal(err)
	}
	nbPath := writeNotebook(t, nbDir, "sales.ipynb")

	gen := &fakeGenerator{}
	var log bytes.Buffer
	w := NewWatcher(gen, Options{AppsDir: appsDir}, 50*time.Millisecond, &log)

	ctx, cancel := context.WithCancel(context.Background())
	done := startWatcher(ctx, w, nbDir)

	waitForFile(t, filepath.Join(appsDir, "sales", "app.py"))
	first := gen.callCount()

	if err := os.WriteFile(nbPath, []byte(notebookJSON), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for gen.callCount() <= first && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
	if gen.callCount() <= first {
		t.Errorf("generator calls stuck at %d after rewrite", first)
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Watch returned %v, want context.Canceled", err)
	}
}

func TestWatch_IgnoresCheckpointsAndForeignFiles(t *testing.T) {
	defer goleak.VerifyNone(t)

	tmpDir := t.TempDir()
	nbDir := filepath.Join(tmpDir, "notebooks")
	appsDir := filepath.Join(tmpDir, "apps")
	ckDir := filepath.Join(nbDir, ".ipynb_checkpoints")
	if err := os.MkdirAll(ckDir, 0o755); err != nil {
		t.Fatal(err)
	}

	gen := &fakeGenerator{}
	var log bytes.Buffer
	w := NewWatcher(gen, Options{AppsDir: appsDir}, 50*time.Millisecond, &log)

	ctx, cancel := context.WithCancel(context.Background())
	done := startWatcher(ctx, w, nbDir)

	writeNotebook(t, ckDir, "sales-checkpoint.ipynb")
	if err := os.WriteFile(filepath.Join(nbDir, "notes.txt"), []byte("hi"), 0o644); err != nil {
		t.Fatal(err)
	}
	writeNotebook(t, nbDir, "real.ipynb")

	// The real notebook converting proves the loop processed the burst.
	waitForFile(t, filepath.Join(appsDir, "real", "app.py"))

	// Give any stray conversions time to land, then confirm none did.
	time.Sleep(200 * time.Millisecond)
	for _, slug := range []string{"sales-checkpoint", "notes"} {
		if _, err := os.Stat(filepath.Join(appsDir, slug)); !os.IsNotExist(err) {
			t.Errorf("unexpected app directory for %s", slug)
		}
	}

	cancel()
	<-done
}
