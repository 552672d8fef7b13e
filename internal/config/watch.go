package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watch reloads the config file on change and calls onChange with each
// valid new configuration. Invalid edits are logged and skipped; the
// previous configuration stays in effect. Editors replace files rather
// than writing in place, so the parent directory is watched and events
// are debounced.
func Watch(ctx context.Context, path string, logger *zap.Logger, onChange func(Config)) error {
	if path == "" {
		path = DefaultPath()
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return err
	}

	go func() {
		defer w.Close()
		var pending <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != filepath.Clean(path) {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				pending = time.After(200 * time.Millisecond)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Warn("config watch error", zap.Error(err))
			case <-pending:
				pending = nil
				cfg, err := Load(path)
				if err != nil {
					logger.Warn("config reload rejected", zap.Error(err))
					continue
				}
				logger.Info("config reloaded", zap.String("path", path))
				onChange(cfg)
			}
		}
	}()
	return nil
}
