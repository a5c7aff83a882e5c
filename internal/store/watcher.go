// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultWatchDebounce is the debounce duration for template file events.
// Editors often produce several events per save; coalescing avoids
// redundant reloads.
const DefaultWatchDebounce = 500 * time.Millisecond

// TemplateWatcher reloads a TemplateStore when its backing file changes
// on disk, so edits made outside the application appear without a restart.
type TemplateWatcher struct {
	store    *TemplateStore
	watcher  *fsnotify.Watcher
	debounce time.Duration
	onReload func(error)

	mu      sync.Mutex
	pending time.Time
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewTemplateWatcher creates a watcher for the store's backing file.
// onReload, when non-nil, is invoked after each reload attempt with the
// reload result.
func NewTemplateWatcher(store *TemplateStore, debounce time.Duration, onReload func(error)) (*TemplateWatcher, error) {
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &TemplateWatcher{
		store:    store,
		watcher:  watcher,
		debounce: debounce,
		onReload: onReload,
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Watch starts watching for file changes.
func (w *TemplateWatcher) Watch() error {
	// Watch the parent directory: atomic renames replace the file inode,
	// which would silently drop a watch on the file itself.
	if err := w.watcher.Add(filepath.Dir(w.store.Path())); err != nil {
		return err
	}

	go w.processEvents()
	go w.processPending()
	return nil
}

// Close stops watching and releases resources.
func (w *TemplateWatcher) Close() error {
	w.cancel()
	return w.watcher.Close()
}

// processEvents records relevant file system events for debouncing.
func (w *TemplateWatcher) processEvents() {
	target := filepath.Clean(w.store.Path())
	for {
		select {
		case <-w.ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			w.mu.Lock()
			w.pending = time.Now()
			w.mu.Unlock()
		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

// processPending fires a reload once events have settled for the
// debounce duration.
func (w *TemplateWatcher) processPending() {
	ticker := time.NewTicker(w.debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			w.mu.Lock()
			due := !w.pending.IsZero() && time.Since(w.pending) >= w.debounce
			if due {
				w.pending = time.Time{}
			}
			w.mu.Unlock()

			if due {
				err := w.store.Reload()
				if w.onReload != nil {
					w.onReload(err)
				}
			}
		}
	}
}
