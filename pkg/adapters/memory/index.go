// Package memory provides an in-memory core.Index.
// It is used by tests and by vaults opened with the "memory" adapter.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/aretw0/nook/pkg/core"
)

// Index implements core.Index with maps. Records do not survive Close.
type Index struct {
	mu     sync.RWMutex
	byID   map[string]core.Entry
	byName map[string]map[string]struct{}
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{
		byID:   make(map[string]core.Entry),
		byName: make(map[string]map[string]struct{}),
	}
}

func (x *Index) Get(ctx context.Context, ids []string) ([]core.Optional[core.Entry], error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	out := make([]core.Optional[core.Entry], len(ids))
	for i, id := range ids {
		if core.IsRoot(id) {
			continue
		}
		if e, ok := x.byID[id]; ok {
			out[i] = core.Some(e)
		}
	}
	return out, nil
}

func (x *Index) GetByName(ctx context.Context, names []string) ([]core.Optional[core.Entry], error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	out := make([]core.Optional[core.Entry], len(names))
	for i, name := range names {
		ids := x.byName[name]
		if len(ids) == 0 {
			continue
		}
		smallest := ""
		for id := range ids {
			if smallest == "" || id < smallest {
				smallest = id
			}
		}
		out[i] = core.Some(x.byID[smallest])
	}
	return out, nil
}

func (x *Index) Put(ctx context.Context, e core.Entry) error {
	if core.IsRoot(e.ID) {
		return core.ErrRootEntry
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	x.put(e)
	return nil
}

func (x *Index) Add(ctx context.Context, e core.Entry) error {
	if core.IsRoot(e.ID) {
		return core.ErrRootEntry
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	if _, ok := x.byID[e.ID]; ok {
		return fmt.Errorf("%w: %s", core.ErrDuplicateID, e.ID)
	}
	x.put(e)
	return nil
}

func (x *Index) put(e core.Entry) {
	if old, ok := x.byID[e.ID]; ok {
		x.unlinkName(old)
	}
	x.byID[e.ID] = e
	names, ok := x.byName[e.Name]
	if !ok {
		names = make(map[string]struct{})
		x.byName[e.Name] = names
	}
	names[e.ID] = struct{}{}
}

func (x *Index) unlinkName(e core.Entry) {
	names := x.byName[e.Name]
	delete(names, e.ID)
	if len(names) == 0 {
		delete(x.byName, e.Name)
	}
}

func (x *Index) Delete(ctx context.Context, id string) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if old, ok := x.byID[id]; ok {
		x.unlinkName(old)
		delete(x.byID, id)
	}
	return nil
}

func (x *Index) All(ctx context.Context) ([]core.Entry, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	out := make([]core.Entry, 0, len(x.byID))
	for _, e := range x.byID {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b core.Entry) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (x *Index) Close() error {
	return nil
}

// Len returns the number of records.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.byID)
}

// ComponentType implements introspection.Component.
func (x *Index) ComponentType() string {
	return "memory-index"
}

var _ core.Index = (*Index)(nil)
