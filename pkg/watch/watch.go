// Package watch turns pipeline source edits into refresh requests.
//
// Editors save in bursts (write, chmod, rename over a temp file), so events
// are debounced: the trigger fires once, DefaultDebounce after the last
// matching event.
package watch

import (
	"context"
	"io"
	"io/fs"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/matzehuels/layouttester/pkg/errors"
)

const (
	// DefaultDebounce is how long the watcher waits for a burst of saves to settle.
	DefaultDebounce = 250 * time.Millisecond

	// DefaultPattern selects the files that trigger a refresh.
	DefaultPattern = "*.lua"
)

// Options configures a Watcher.
type Options struct {
	Debounce time.Duration
	Pattern  string // filepath.Match pattern against the base name
	Logger   *log.Logger
}

// Watcher watches a directory tree and calls a trigger on settled changes.
type Watcher struct {
	fs       *fsnotify.Watcher
	dir      string
	pattern  string
	debounce time.Duration
	trigger  func(path string)
	logger   *log.Logger

	mu      sync.Mutex
	running bool
	closed  bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// New creates a watcher for dir. trigger receives the last changed path
// of each burst; it runs on the watcher goroutine and must not block long.
func New(dir string, trigger func(path string), opts Options) (*Watcher, error) {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Pattern == "" {
		opts.Pattern = DefaultPattern
	}
	if _, err := filepath.Match(opts.Pattern, ""); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "watch pattern %q", opts.Pattern)
	}
	if opts.Logger == nil {
		opts.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeEnvironment, err, "create file watcher")
	}
	return &Watcher{
		fs:       fw,
		dir:      dir,
		pattern:  opts.Pattern,
		debounce: opts.Debounce,
		trigger:  trigger,
		logger:   opts.Logger,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start adds dir and its subdirectories and begins watching. It does not
// block; call Stop to release the watcher.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}
	if w.closed {
		return errors.New(errors.ErrCodeInvalidInput, "watcher already stopped")
	}

	err := filepath.WalkDir(w.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.fs.Add(path)
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeEnvironment, err, "watch %s", w.dir)
	}

	w.running = true
	w.logger.Debug("watching", "dir", w.dir, "pattern", w.pattern)
	go w.loop(ctx)
	return nil
}

// Stop ends the watch loop and closes the underlying watcher. It is safe to
// call more than once.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	running := w.running
	w.mu.Unlock()

	close(w.stopCh)
	if running {
		<-w.doneCh
	}
	if err := w.fs.Close(); err != nil {
		w.logger.Warn("closing file watcher", "err", err)
	}
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.doneCh)

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()
	var last string

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return

		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !w.relevant(ev) {
				continue
			}
			w.logger.Debug("change", "path", ev.Name, "op", ev.Op.String())
			last = ev.Name
			timer.Reset(w.debounce)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Warn("file watcher error", "err", err)

		case <-timer.C:
			w.logger.Info("pipeline changed", "path", last)
			w.trigger(last)
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) && !ev.Has(fsnotify.Remove) {
		return false
	}
	ok, _ := filepath.Match(w.pattern, filepath.Base(ev.Name))
	return ok
}
