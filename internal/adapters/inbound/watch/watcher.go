// Package watch re-runs an action when class outputs or the design change.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce batches the burst of events a compiler produces.
const DefaultDebounce = 500 * time.Millisecond

var watchedExts = map[string]bool{
	".class": true,
	".jar":   true,
	".war":   true,
	".zip":   true,
}

// Watcher watches directories recursively and individual files.
type Watcher struct {
	paths    []string
	debounce time.Duration
	logger   *zap.Logger

	files map[string]bool
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period after the last event.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) { w.logger = l }
}

// New watches paths: directories for class output changes, files (such as
// the design) for any change.
func New(paths []string, opts ...Option) *Watcher {
	w := &Watcher{
		paths:    paths,
		debounce: DefaultDebounce,
		logger:   zap.NewNop(),
		files:    make(map[string]bool),
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

// Run blocks until ctx is done, calling onChange once per burst of
// relevant events. Errors from onChange are logged and do not stop the
// watch.
func (w *Watcher) Run(ctx context.Context, onChange func(context.Context) error) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fw.Close()

	for _, p := range w.paths {
		if err := w.add(fw, p); err != nil {
			return err
		}
	}

	var (
		timer   *time.Timer
		timerC  <-chan time.Time
		pending int
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(fw, event.Name); err != nil {
						w.logger.Warn("watching new directory", zap.String("dir", event.Name), zap.Error(err))
					}
					continue
				}
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug("change detected", zap.String("path", event.Name), zap.Stringer("op", event.Op))
			pending++
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			timerC = timer.C

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", zap.Error(err))

		case <-timerC:
			timerC = nil
			w.logger.Debug("re-running", zap.Int("events", pending))
			pending = 0
			if err := onChange(ctx); err != nil {
				w.logger.Warn("run after change failed", zap.Error(err))
			}
		}
	}
}

func (w *Watcher) add(fw *fsnotify.Watcher, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("watching %s: %w", path, err)
	}
	if info.IsDir() {
		return w.addTree(fw, path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	w.files[abs] = true
	// Watch the parent so editors that replace files are still seen.
	return fw.Add(filepath.Dir(abs))
}

func (w *Watcher) addTree(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") && p != root {
			return filepath.SkipDir
		}
		return fw.Add(p)
	})
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
		return false
	}
	if watchedExts[strings.ToLower(filepath.Ext(event.Name))] {
		return true
	}
	abs, err := filepath.Abs(event.Name)
	return err == nil && w.files[abs]
}
