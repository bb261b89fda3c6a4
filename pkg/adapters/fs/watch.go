package fs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/afero"

	"github.com/aretw0/nook/pkg/core"
)

// ErrWatchUnsupported is returned by Watch when the backing filesystem has
// no change notifications.
var ErrWatchUnsupported = errors.New("watch requires the OS filesystem")

// Watch reports changes made to the tree by other processes. Each event
// carries the ID of the node that changed. The channel closes when ctx is
// done or the watcher fails.
func (c *ContentStore) Watch(ctx context.Context) (<-chan core.Event, error) {
	if _, ok := c.fs.(*afero.OsFs); !ok {
		return nil, ErrWatchUnsupported
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := c.recursiveAdd(watcher, c.root); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	events := make(chan core.Event)
	c.setWatcherActive(true)

	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(events)
		defer c.setWatcherActive(false)
		defer watcher.Close()
		return c.watchLoop(ctx, watcher, events)
	}, lifecycle.WithErrorHandler(func(err error) {
		if c.config.ErrorHandler != nil {
			c.config.ErrorHandler(fmt.Errorf("watcher: %w", err))
			return
		}
		var stack string
		if c.config.Logger.Enabled(ctx, slog.LevelDebug) {
			stack = string(debug.Stack())
		}
		if stack != "" {
			c.config.Logger.Error("watcher failed", "error", err, "stack", stack)
		} else {
			c.config.Logger.Error("watcher failed", "error", err)
		}
	}))

	return events, nil
}

func (c *ContentStore) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, events chan<- core.Event) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher events channel closed")
			}
			e, ok := c.translate(watcher, event)
			if !ok {
				continue
			}
			c.recordEvent()
			select {
			case events <- e:
			case <-ctx.Done():
				return nil
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher errors channel closed")
			}
			c.config.Logger.Error("fsnotify error", "error", err)
			if c.config.ErrorHandler != nil {
				c.config.ErrorHandler(err)
			}
		}
	}
}

// translate maps a filesystem event to a core event. New directories are
// added to the watch set so nested changes keep arriving.
func (c *ContentStore) translate(watcher *fsnotify.Watcher, event fsnotify.Event) (core.Event, bool) {
	name := filepath.Base(event.Name)
	if isTempName(name) || filepath.Clean(event.Name) == filepath.Clean(c.root) {
		return core.Event{}, false
	}
	c.config.Logger.Debug("event received", "name", event.Name, "op", event.Op.String())

	var typ core.EventType
	switch {
	case event.Has(fsnotify.Create):
		typ = core.EventCreate
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := c.recursiveAdd(watcher, event.Name); err != nil {
				c.config.Logger.Warn("failed to watch new directory", "path", event.Name, "error", err)
			}
		}
	case event.Has(fsnotify.Write):
		typ = core.EventModify
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		typ = core.EventDelete
	default:
		return core.Event{}, false
	}

	return core.Event{Type: typ, ID: name, Timestamp: time.Now().Unix()}, true
}

func (c *ContentStore) recursiveAdd(watcher *fsnotify.Watcher, dir string) error {
	return afero.Walk(c.fs, dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}
