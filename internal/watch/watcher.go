// Package watch triggers knowledge base reloads when files in a
// tenant's knowledge directory change. Events are debounced per tenant
// so an editor save burst or a bulk copy causes one reload, not many.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/cleardesk/hrkb/internal/core/domain"
	"github.com/cleardesk/hrkb/internal/logger"
)

// DefaultDebounce is how long the watcher waits after the last event
// before reloading.
const DefaultDebounce = 500 * time.Millisecond

// ReloadFunc is called with the tenant whose directory changed.
type ReloadFunc func(ctx context.Context, tenant domain.TenantID)

// Watcher observes tenant knowledge directories.
type Watcher struct {
	fsw      *fsnotify.Watcher
	debounce time.Duration
	reload   ReloadFunc

	// byDir maps a watched directory to its tenant.
	byDir map[string]domain.TenantID

	mu     sync.Mutex
	timers map[domain.TenantID]*time.Timer
}

// New creates a watcher over the given tenants' knowledge directories.
// A debounce of zero selects the default.
func New(tenants []domain.Tenant, debounce time.Duration, reload ReloadFunc) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	w := &Watcher{
		fsw:      fsw,
		debounce: debounce,
		reload:   reload,
		byDir:    make(map[string]domain.TenantID),
		timers:   make(map[domain.TenantID]*time.Timer),
	}

	for _, t := range tenants {
		dir := filepath.Clean(t.KnowledgeDir)
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return nil, fmt.Errorf("watching %s: %w", dir, err)
		}
		w.byDir[dir] = t.ID
		logger.Debug("Watching %s for tenant %s", dir, t.ID)
	}

	return w, nil
}

// Run processes filesystem events until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.Close()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)
		}
	}
}

// Close stops the watcher and cancels pending reload timers.
func (w *Watcher) Close() error {
	w.mu.Lock()
	for _, timer := range w.timers {
		timer.Stop()
	}
	w.timers = make(map[domain.TenantID]*time.Timer)
	w.mu.Unlock()
	return w.fsw.Close()
}

// handleEvent maps an event to its tenant and schedules a debounced
// reload. Chmod-only events and hidden files are ignored.
func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	if isHidden(event.Name) {
		return
	}

	tenant, ok := w.byDir[filepath.Dir(event.Name)]
	if !ok {
		return
	}
	logger.Debug("Change in tenant %s: %s %s", tenant, event.Op, filepath.Base(event.Name))
	w.schedule(ctx, tenant)
}

// schedule arms (or re-arms) the tenant's debounce timer.
func (w *Watcher) schedule(ctx context.Context, tenant domain.TenantID) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.timers[tenant]; ok {
		timer.Stop()
	}
	w.timers[tenant] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, tenant)
		w.mu.Unlock()
		if ctx.Err() != nil {
			return
		}
		w.reload(ctx, tenant)
	})
}

// isHidden reports whether any path element starts with a dot.
// "." and ".." are not considered hidden.
func isHidden(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == "." || part == ".." {
			continue
		}
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}
