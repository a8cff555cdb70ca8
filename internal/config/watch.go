// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// =============================================================================
// CONFIG FILE WATCHER
// =============================================================================

// watchDebounce collapses the burst of events an editor save produces
// into one reload.
const watchDebounce = 250 * time.Millisecond

// Watcher reloads the config file when it changes on disk and delivers
// each successfully reloaded Config on Changes. Reload failures are
// swallowed: a half-written file must not tear down a running session.
type Watcher struct {
	path    string
	watcher *fsnotify.Watcher
	changes chan *Config
	cancel  context.CancelFunc
}

// NewWatcher starts watching the config file at path. The file does not
// have to exist yet; its directory is watched so creation is seen too.
func NewWatcher(path string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// Watching the directory, not the file: atomic saves replace the
	// file and a file watch would die with the old inode.
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		path:    path,
		watcher: fw,
		changes: make(chan *Config, 1),
		cancel:  cancel,
	}
	go w.run(ctx)
	return w, nil
}

// Changes returns the reloaded-config channel.
func (w *Watcher) Changes() <-chan *Config {
	return w.changes
}

// Close stops watching.
func (w *Watcher) Close() error {
	w.cancel()
	return w.watcher.Close()
}

func (w *Watcher) run(ctx context.Context) {
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Name != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(watchDebounce)
				fire = timer.C
			} else {
				timer.Reset(watchDebounce)
			}

		case <-fire:
			timer = nil
			fire = nil
			cfg, err := LoadFromPath(w.path)
			if err != nil {
				continue
			}
			// Keep only the newest pending config.
			select {
			case <-w.changes:
			default:
			}
			w.changes <- cfg

		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}
