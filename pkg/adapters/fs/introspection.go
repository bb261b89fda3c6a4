package fs

import (
	"time"

	"github.com/aretw0/introspection"
)

// ContentState exposes internal state for observability.
type ContentState struct {
	Root          string     `json:"root"`
	Backend       string     `json:"backend"`
	WatcherActive bool       `json:"watcher_active"`
	LastEvent     *time.Time `json:"last_event,omitempty"`
}

// State implements introspection.Introspectable.
func (c *ContentStore) State() any {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return ContentState{
		Root:          c.root,
		Backend:       c.fs.Name(),
		WatcherActive: c.watcherActive,
		LastEvent:     c.lastEvent,
	}
}

// ComponentType implements introspection.Component.
func (c *ContentStore) ComponentType() string {
	return "fs-content"
}

var _ introspection.Introspectable = (*ContentStore)(nil)
var _ introspection.Component = (*ContentStore)(nil)

func (c *ContentStore) setWatcherActive(active bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.watcherActive = active
}

func (c *ContentStore) recordEvent() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	c.lastEvent = &now
}
