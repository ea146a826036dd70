package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceInterval is the quiet period after a file event before the config
// is reloaded. Editors often emit several events per save.
const debounceInterval = 250 * time.Millisecond

// Watch reloads the config file whenever it changes and hands each freshly
// parsed Config to onReload. It blocks until ctx is done.
//
// The parent directory is watched rather than the file itself, so saves
// that replace the file (write to temp, rename over) are still seen. Reload
// failures are logged and the previous configuration stays in effect.
func Watch(ctx context.Context, path string, log *slog.Logger, onReload func(*Config)) error {
	if log == nil {
		log = slog.Default()
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config: creating watcher: %w", err)
	}
	defer w.Close()

	dir := filepath.Dir(path)
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("config: watching %s: %w", dir, err)
	}

	log.Debug("config watcher started", "path", path)

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(path) {
				continue
			}
			if event.Op&fsnotify.Chmod == fsnotify.Chmod {
				continue
			}
			log.Debug("config file event", "op", event.Op.String())
			pending = time.After(debounceInterval)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Error("config watcher error", "error", err)

		case <-pending:
			pending = nil
			cfg, err := Load(path)
			if err != nil {
				log.Error("config reload failed", "path", path, "error", err)
				continue
			}
			log.Info("configuration reloaded", "path", path)
			onReload(cfg)
		}
	}
}
