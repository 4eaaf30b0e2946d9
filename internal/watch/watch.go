// Package watch triggers a callback when the companion's sources change.
package watch

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
	"github.com/sirupsen/logrus"
)

// DefaultDebounce is how long the tree must be quiet before the callback runs
const DefaultDebounce = 500 * time.Millisecond

// Watcher watches a source tree recursively, skipping hidden directories
type Watcher struct {
	root      string
	ext       string
	manifests map[string]bool
	debounce  time.Duration
	log       logrus.FieldLogger
}

// New creates a Watcher for files with extension ext and the named manifests
func New(root, ext string, manifests ...string) *Watcher {
	silent := logrus.New()
	silent.SetOutput(io.Discard)

	m := make(map[string]bool, len(manifests))
	for _, name := range manifests {
		m[name] = true
	}

	return &Watcher{root: root, ext: ext, manifests: m, debounce: DefaultDebounce, log: silent}
}

// WithDebounce sets the quiet period
func (w *Watcher) WithDebounce(d time.Duration) *Watcher {
	w.debounce = d
	return w
}

// WithLogger sets the logger
func (w *Watcher) WithLogger(l logrus.FieldLogger) *Watcher {
	w.log = l
	return w
}

// Run blocks until ctx is done, calling onChange after each burst of
// relevant changes. A callback error is logged and watching continues.
func (w *Watcher) Run(ctx context.Context, onChange func(context.Context) error) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fw.Close()

	if err := w.addRecursive(fw, w.root); err != nil {
		return err
	}

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}

			if w.handle(fw, ev) {
				timer.Reset(w.debounce)
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}

			w.log.WithError(err).Warn("Watcher error")

		case <-timer.C:
			if err := onChange(ctx); err != nil && ctx.Err() == nil {
				w.log.WithError(err).Error("Rebuild failed")
			}
		}
	}
}

// handle reports whether ev should trigger the callback
func (w *Watcher) handle(fw *fsnotify.Watcher, ev fsnotify.Event) bool {
	if ev.Op == fsnotify.Chmod {
		return false
	}

	if hidden(w.root, ev.Name) {
		return false
	}

	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := w.addRecursive(fw, ev.Name); err != nil {
				w.log.WithError(err).WithField("path", ev.Name).Warn("Failed to watch directory")
			}

			return true
		}
	}

	if !w.relevant(ev.Name) {
		return false
	}

	w.log.WithFields(logrus.Fields{"path": ev.Name, "op": ev.Op.String()}).Debug("Source change detected")
	return true
}

func (w *Watcher) relevant(path string) bool {
	if filepath.Ext(path) == w.ext {
		return true
	}

	rel, err := filepath.Rel(w.root, path)
	return err == nil && w.manifests[filepath.ToSlash(rel)]
}

func (w *Watcher) addRecursive(fw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return fmt.Errorf("failed to watch %s: %w", dir, err)
			}

			return nil
		}

		if !d.IsDir() {
			return nil
		}

		if path != w.root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}

		if err := fw.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}

		return nil
	})
}

// hidden reports whether path is, or is inside, a hidden entry below root
func hidden(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}

	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if strings.HasPrefix(part, ".") && part != "." && part != ".." {
			return true
		}
	}

	return false
}
