// Copyright (C) 2025 AppLens AI (eng@applens.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package topology

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounceWindow is how long the watcher waits for further
// writes before triggering a reload. Scanner pipelines rewrite the
// topology file in several syscalls; one reload per rewrite is enough.
const DefaultDebounceWindow = 500 * time.Millisecond

// TopologyWatcher reloads the service when the topology file changes.
//
// Description:
//
//	Watches the file's parent directory rather than the file itself:
//	most writers replace the file via rename, which would silently
//	detach a direct file watch. Events for other files in the
//	directory are ignored.
//
// Thread Safety:
//
//	Safe for concurrent use. Reloads run from a single goroutine.
type TopologyWatcher struct {
	svc      *Service
	path     string
	watcher  *fsnotify.Watcher
	debounce time.Duration

	done     chan struct{}
	stopOnce sync.Once

	mu       sync.RWMutex
	watching bool
}

// WatcherOption configures a TopologyWatcher.
type WatcherOption func(*TopologyWatcher)

// WithDebounceWindow overrides the debounce window.
func WithDebounceWindow(d time.Duration) WatcherOption {
	return func(w *TopologyWatcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// NewTopologyWatcher creates a watcher for the given topology file.
func NewTopologyWatcher(svc *Service, path string, opts ...WatcherOption) (*TopologyWatcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &TopologyWatcher{
		svc:      svc,
		path:     filepath.Clean(path),
		watcher:  fsw,
		debounce: DefaultDebounceWindow,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start begins watching. It returns immediately; reloads happen on a
// background goroutine until Stop is called or the context ends.
func (w *TopologyWatcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.watching {
		w.mu.Unlock()
		return nil
	}
	w.watching = true
	w.mu.Unlock()

	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return err
	}

	go w.loop(ctx)
	return nil
}

// Stop stops the watcher. Idempotent.
func (w *TopologyWatcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		w.watcher.Close()

		w.mu.Lock()
		w.watching = false
		w.mu.Unlock()
	})
}

// IsWatching reports whether the watcher is active.
func (w *TopologyWatcher) IsWatching() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.watching
}

func (w *TopologyWatcher) loop(ctx context.Context) {
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			slog.Debug("Topology file changed", "op", event.Op.String(), "path", event.Name)
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
			timer = nil
			timerC = nil
			if _, err := w.svc.Reload(ctx); err != nil {
				slog.Warn("Watcher-triggered reload failed", "error", err)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("Topology watcher error", "error", err)
		}
	}
}

// relevant reports whether an event concerns the watched file with an
// op that can change its contents.
func (w *TopologyWatcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}
