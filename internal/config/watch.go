package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultReloadDebounce = 200 * time.Millisecond

// Watcher reloads the config file when it changes on disk and hands every
// valid result to onChange. Invalid edits are logged and skipped.
type Watcher struct {
	path     string
	load     func(path string) (Config, error)
	onChange func(Config)
	logger   *slog.Logger
	debounce time.Duration
}

func NewWatcher(path string, onChange func(Config), logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}

	return &Watcher{
		path:     path,
		load:     LoadFile,
		onChange: onChange,
		logger:   logger.With("component", "config_watcher"),
		debounce: defaultReloadDebounce,
	}
}

// Run blocks until ctx is cancelled. Without a config file there is nothing
// to watch and it returns immediately.
func (w *Watcher) Run(ctx context.Context) error {
	if w.path == "" {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create config watcher: %w", err)
	}
	defer watcher.Close()

	// Editors replace files on save, so watch the directory.
	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch config directory: %w", err)
	}

	target := filepath.Clean(w.path)
	debounce := time.NewTimer(w.debounce)
	if !debounce.Stop() {
		<-debounce.C
	}
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			debounce.Reset(w.debounce)

		case <-debounce.C:
			cfg, err := w.load(w.path)
			if err != nil {
				w.logger.Warn("config reload rejected", "path", w.path, "error", err.Error())
				continue
			}
			w.logger.Info("config reloaded", "path", w.path)
			if w.onChange != nil {
				w.onChange(cfg)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("config watcher error", "error", err.Error())
		}
	}
}
