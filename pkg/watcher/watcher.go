// Package watcher reloads the editor when the open store file is replaced on
// disk, e.g. by an external tool regenerating the dataset.
package watcher

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher observes one file and invokes the callback after writes settled.
// SQLite writes arrive in bursts, so events are debounced.
type Watcher struct {
	logger   *zap.Logger
	debounce time.Duration
	onChange func(path string)

	fs   *fsnotify.Watcher
	done chan struct{}

	mu      sync.Mutex
	path    string
	watched string
	timer   *time.Timer
}

// New starts the watch loop. The callback runs on the watcher goroutine.
func New(debounce time.Duration, logger *zap.Logger, onChange func(path string)) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		logger:   logger,
		debounce: debounce,
		onChange: onChange,
		fs:       fs,
		done:     make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

// Watch switches the watcher to the given file, "" stops watching. The
// parent directory is watched because editors and SQLite replace files via
// rename, which drops a watch on the file itself.
func (w *Watcher) Watch(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.watched != "" {
		_ = w.fs.Remove(w.watched)
		w.watched = ""
	}
	w.path = path
	if path == "" {
		return nil
	}

	dir := filepath.Dir(path)
	if err := w.fs.Add(dir); err != nil {
		return err
	}
	w.watched = dir
	return nil
}

// Close stops the watch loop.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fs.Close()
}

func (w *Watcher) loop() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Sugar().Warnw("watch error", "error", err)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.path == "" || filepath.Clean(event.Name) != filepath.Clean(w.path) {
		return
	}

	path := w.path
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		w.logger.Sugar().Infow("store changed on disk", "file", path)
		w.onChange(path)
	})
}
