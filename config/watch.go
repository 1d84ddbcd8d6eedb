package config

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce coalesces the event bursts editors produce when
// saving a file.
const DefaultDebounce = 100 * time.Millisecond

// Watcher reloads a config file when it changes on disk and hands the
// result to a callback.
type Watcher struct {
	path     string
	debounce time.Duration
	onChange func(Config)
	onError  func(error)
	logger   *zap.Logger

	fsw       *fsnotify.Watcher
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// WatchOption configures a Watcher.
type WatchOption func(*Watcher)

// WithDebounce sets the quiet period required before a reload fires.
func WithDebounce(d time.Duration) WatchOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithErrorHandler receives reload failures. Without one they are
// logged and the previous configuration stays in effect.
func WithErrorHandler(fn func(error)) WatchOption {
	return func(w *Watcher) {
		w.onError = fn
	}
}

// WithWatchLogger sets the watcher's logger.
func WithWatchLogger(l *zap.Logger) WatchOption {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// Watch starts watching path and calls onChange with each successfully
// reloaded configuration. The parent directory is watched so that
// rename-replace saves are seen.
func Watch(path string, onChange func(Config), opts ...WatchOption) (*Watcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		path:     absPath,
		debounce: DefaultDebounce,
		onChange: onChange,
		logger:   zap.NewNop(),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(absPath)); err != nil {
		fsw.Close()
		return nil, err
	}
	w.fsw = fsw

	w.wg.Add(1)
	go w.loop()

	return w, nil
}

// Close stops watching. Safe to call more than once.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		err = w.fsw.Close()
		w.wg.Wait()
	})
	return err
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}

		case <-timerC:
			w.reload()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.fail(err)
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		w.fail(err)
		return
	}
	w.logger.Info("config reloaded", zap.String("path", w.path))
	if w.onChange != nil {
		w.onChange(cfg)
	}
}

func (w *Watcher) fail(err error) {
	if w.onError != nil {
		w.onError(err)
		return
	}
	w.logger.Warn("config reload failed",
		zap.String("path", w.path),
		zap.Error(err))
}
