// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/BexTuychiev/strimlitbook/internal/notebook"
)

// defaultDebounce is the quiet period after the last filesystem event before
// a notebook is reconverted. Editors and Jupyter both save in bursts.
const defaultDebounce = 500 * time.Millisecond

// Watcher reconverts notebooks as they change on disk.
type Watcher struct {
	gen      Generator
	opts     Options
	debounce time.Duration
	out      io.Writer
}

// NewWatcher returns a watcher that converts through g with opts. A
// non-positive debounce falls back to the default. Changed files always
// overwrite their app, regardless of opts.Force.
func NewWatcher(g Generator, opts Options, debounce time.Duration, w io.Writer) *Watcher {
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	opts.Force = true
	return &Watcher{gen: g, opts: opts, debounce: debounce, out: w}
}

// Watch converts every notebook already under dir, then blocks reconverting
// notebooks as they are created or written, until ctx is cancelled.
func (w *Watcher) Watch(ctx context.Context, dir string) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	defer fw.Close()

	if err := watchTree(fw, dir); err != nil {
		return err
	}

	if _, err := ConvertDir(w.gen, dir, w.opts, w.out); err != nil {
		fmt.Fprintf(w.out, "watch: %v\n", err)
	}
	fmt.Fprintf(w.out, "\nWatching %s for notebook changes...\n", dir)

	// Events land in pending and convert once their path has been quiet for
	// the debounce window.
	pending := make(map[string]time.Time)
	tick := time.NewTicker(w.debounce / 2)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(fw, ev, pending)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(w.out, "watch error: %v\n", err)

		case <-tick.C:
			w.flush(pending)
		}
	}
}

// handleEvent records notebook writes for debounced conversion and extends
// the watch into directories created after startup.
func (w *Watcher) handleEvent(fw *fsnotify.Watcher, ev fsnotify.Event, pending map[string]time.Time) {
	if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
		return
	}
	if strings.Contains(ev.Name, notebook.CheckpointDir) {
		return
	}

	if ev.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			watchTree(fw, ev.Name)
			return
		}
	}

	if !strings.EqualFold(filepath.Ext(ev.Name), ".ipynb") {
		return
	}
	pending[ev.Name] = time.Now()
}

// flush converts every pending notebook whose last event has settled.
func (w *Watcher) flush(pending map[string]time.Time) {
	now := time.Now()
	for path, last := range pending {
		if now.Sub(last) < w.debounce {
			continue
		}
		delete(pending, path)

		// A rename-away or delete leaves a stale entry behind.
		if _, err := os.Stat(path); err != nil {
			continue
		}
		ConvertNotebook(w.gen, path, w.opts, w.out)
	}
}

// watchTree registers dir and its non-hidden subdirectories with fw.
func watchTree(fw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		name := d.Name()
		if name == notebook.CheckpointDir || (strings.HasPrefix(name, ".") && path != dir) {
			return filepath.SkipDir
		}
		if err := fw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}
