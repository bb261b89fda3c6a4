package core

import (
	"context"
	"errors"
)

// Watch observes external changes in the content store if supported.
// Handles of deleted nodes are evicted before the event is delivered; the
// record itself stays until the entry is removed or reconciled.
// The returned channel is closed when ctx is done or the source stops.
func (s *Store) Watch(ctx context.Context) (<-chan Event, error) {
	w, ok := s.content.(Watchable)
	if !ok {
		return nil, errors.New("content store does not support watching")
	}

	src, err := w.Watch(ctx)
	if err != nil {
		return nil, err
	}

	out := make(chan Event)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case e, ok := <-src:
				if !ok {
					return
				}
				if e.Type == EventDelete {
					s.cache.EvictHandle(e.ID)
					s.logger.Debug("content node removed externally", "id", e.ID)
				}
				select {
				case out <- e:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
