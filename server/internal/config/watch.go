package config

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch monitors path for changes and calls onChange with the newly loaded
// Config each time the file is written or replaced. It runs until ctx is
// cancelled.
//
// The parent directory is watched rather than the file itself so that editors
// saving via rename keep triggering reloads. A reload that fails validation is
// logged and the previous config stays active.
func Watch(ctx context.Context, path string, onChange func(*Config)) error {
	return watchFile(ctx, path, func() {
		cfg, err := Load(path)
		if err != nil {
			slog.Error("config: reload failed, keeping previous config",
				"path", path, "err", err)
			return
		}
		slog.Info("config: reloaded", "path", path)
		onChange(cfg)
	})
}

// WatchFile calls onChange whenever path is written or replaced. The catalog
// uses it to pick up edited valve data.
func WatchFile(ctx context.Context, path string, onChange func()) error {
	return watchFile(ctx, path, onChange)
}

func watchFile(ctx context.Context, path string, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return err
	}

	slog.Info("config: watching for changes", "path", abs)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			onChange()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("config: watcher error", "err", err)
		}
	}
}
