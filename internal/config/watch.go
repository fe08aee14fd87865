package config

import (
	"fmt"

	"github.com/fsnotify/fsnotify"
)

// WatchReload watches path for changes and calls onReload with the newly
// parsed Config each time it's rewritten. Per the Configuration section,
// only client-side settings are expected to react live; [server] fields
// like listen_address and uid/gid only take effect at startup, so server
// callers should ignore them here. A blank path (no config file was
// found at startup) is a no-op: there is nothing to watch.
func WatchReload(path string, onReload func(Config)) (*fsnotify.Watcher, error) {
	if path == "" {
		return nil, nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config: creating watcher: %w", err)
	}

	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("config: watching %s: %w", path, err)
	}

	go func() {
		for event := range watcher.Events {
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			cfg := Default()
			if err := decodeInto(path, &cfg); err != nil {
				continue
			}
			onReload(cfg)
		}
	}()

	return watcher, nil
}
