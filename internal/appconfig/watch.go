package appconfig

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"pkt.systems/pslog"
)

const watchDebounce = 200 * time.Millisecond

// Watch reloads the config at path whenever it is written, created or
// renamed into place and passes the result to onChange. Reload failures are
// logged and the previous config stays in effect. Watch blocks until ctx is
// done.
func Watch(ctx context.Context, path string, onChange func(Config)) error {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return err
		}
		path = defaultPath
	}
	path = filepath.Clean(path)
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	// Editors replace files, so watch the directory and filter by name.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return err
	}
	log := pslog.Ctx(ctx).With("config", path)
	log.Debug("config watch started")

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(watchDebounce)
			} else {
				timer.Reset(watchDebounce)
			}
			fire = timer.C
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("config watch error", "err", err)
		case <-fire:
			fire = nil
			cfg, err := Load(path)
			if err != nil {
				log.Warn("config reload failed", "err", err)
				continue
			}
			log.Info("config reloaded", "tabs", len(cfg.Tabs))
			if onChange != nil {
				onChange(cfg)
			}
		}
	}
}
