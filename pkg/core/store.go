package core

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// defaultLookupParallelism bounds the concurrent index lookups of one batch.
const defaultLookupParallelism = 8

// Store keeps the metadata index consistent with the content store and
// fronts both with a session cache.
//
// Reads may run concurrently. Mutations are serialized and process their
// inputs one at a time: index, then content, then cache. There is no
// rollback across the three steps.
type Store struct {
	index    Index
	content  ContentStore
	cache    *Cache
	logger   *slog.Logger
	now      func() time.Time
	newID    func() string
	readOnly bool
	parallel int

	mu sync.Mutex
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets the logger for the store.
func WithLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the time source used for created/modified stamps.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides the ID source. IDs must be unique.
func WithIDGenerator(fn func() string) StoreOption {
	return func(s *Store) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// WithReadOnly rejects every mutation with ErrReadOnly.
func WithReadOnly(enabled bool) StoreOption {
	return func(s *Store) {
		s.readOnly = enabled
	}
}

// WithCache shares an existing cache with the store.
func WithCache(c *Cache) StoreOption {
	return func(s *Store) {
		if c != nil {
			s.cache = c
		}
	}
}

// WithLookupParallelism bounds concurrent index lookups within one batch.
func WithLookupParallelism(n int) StoreOption {
	return func(s *Store) {
		if n > 0 {
			s.parallel = n
		}
	}
}

// NewStore creates a Store over an index and a content store.
func NewStore(index Index, content ContentStore, opts ...StoreOption) *Store {
	s := &Store{
		index:    index,
		content:  content,
		cache:    NewCache(),
		logger:   slog.New(slog.DiscardHandler),
		now:      time.Now,
		newID:    uuid.NewString,
		parallel: defaultLookupParallelism,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Cache exposes the session cache.
func (s *Store) Cache() *Cache {
	return s.cache
}

// Close releases the index.
func (s *Store) Close() error {
	return s.index.Close()
}

// --- Lookups ---

// GetEntries returns one slot per id, in input order. Cached entries are
// served directly; misses are fetched concurrently, one task per id, and
// populate the cache.
func (s *Store) GetEntries(ctx context.Context, ids []string) ([]Optional[Entry], error) {
	results := make([]Optional[Entry], len(ids))
	gen := s.cache.Generation()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallel)

	for i, id := range ids {
		if IsRoot(id) {
			continue
		}
		if e, ok := s.cache.Entry(id); ok {
			s.logger.Debug("cache hit", "id", id)
			results[i] = Some(e)
			continue
		}

		s.logger.Debug("cache miss", "id", id)
		g.Go(func() error {
			got, err := s.index.Get(gctx, []string{id})
			if err != nil {
				return fmt.Errorf("get %s: %w", id, err)
			}
			if e, ok := got[0].Get(); ok {
				s.cache.SetEntryIfCurrent(e, gen)
				results[i] = got[0]
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// GetEntry is the single-id form of GetEntries.
func (s *Store) GetEntry(ctx context.Context, id string) (Entry, bool, error) {
	got, err := s.GetEntries(ctx, []string{id})
	if err != nil {
		return Entry{}, false, err
	}
	e, ok := got[0].Get()
	return e, ok, nil
}

// GetEntriesByName returns one slot per name, in input order. Shared names
// resolve to the entry with the smallest ID. Once the cache is complete
// (see Warm) names are answered from it; otherwise the index decides.
func (s *Store) GetEntriesByName(ctx context.Context, names []string) ([]Optional[Entry], error) {
	results := make([]Optional[Entry], len(names))

	if s.cache.Complete() {
		for i, name := range names {
			if e, ok := s.cache.FindByName(name); ok {
				results[i] = Some(e)
			}
		}
		return results, nil
	}

	gen := s.cache.Generation()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallel)

	for i, name := range names {
		g.Go(func() error {
			got, err := s.index.GetByName(gctx, []string{name})
			if err != nil {
				return fmt.Errorf("get by name %q: %w", name, err)
			}
			if e, ok := got[0].Get(); ok {
				s.cache.SetEntryIfCurrent(e, gen)
				results[i] = got[0]
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Warm loads every index record into the cache and marks it complete.
func (s *Store) Warm(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.index.All(ctx)
	if err != nil {
		return fmt.Errorf("warm cache: %w", err)
	}
	s.cache.Fill(all)
	s.logger.Debug("cache warmed", "entries", len(all))
	return nil
}

// Handle returns the content handle of the node named id.
// The root sentinel resolves to the storage root.
func (s *Store) Handle(ctx context.Context, id string) (Handle, bool, error) {
	return s.handle(ctx, id, 0)
}

// maxParentDepth stops parent-chain walks over corrupt (cyclic) records.
const maxParentDepth = 256

func (s *Store) handle(ctx context.Context, id string, depth int) (Handle, bool, error) {
	if IsRoot(id) {
		root, err := s.content.Root(ctx)
		if err != nil {
			return Handle{}, false, err
		}
		return root, true, nil
	}

	if h, ok := s.cache.Handle(id); ok {
		return h, true, nil
	}
	gen := s.cache.Generation()

	// Fast path: follow the recorded parent chain, O(depth).
	e, ok, err := s.GetEntry(ctx, id)
	if err != nil {
		return Handle{}, false, err
	}
	if ok && depth < maxParentDepth {
		parent, pok, err := s.handle(ctx, e.Parent, depth+1)
		if err != nil {
			return Handle{}, false, err
		}
		if pok && parent.IsDir() {
			h, found, err := s.content.Lookup(ctx, parent, id)
			if err != nil {
				return Handle{}, false, err
			}
			if found {
				s.cache.SetHandleIfCurrent(id, h, gen)
				return h, true, nil
			}
		}
	}

	// Slow path: walk the whole tree.
	root, err := s.content.Root(ctx)
	if err != nil {
		return Handle{}, false, err
	}
	match, found, err := s.content.Resolve(ctx, root, id)
	if err != nil || !found {
		return Handle{}, false, err
	}
	h := match
	if match.ID() != id {
		// Leaf: Resolve returned its parent directory.
		h, found, err = s.content.Lookup(ctx, match, id)
		if err != nil || !found {
			return Handle{}, false, err
		}
	}

	s.cache.SetHandleIfCurrent(id, h, gen)
	return h, true, nil
}

// --- Lifecycle ---

// CreateEntries creates one entry per spec below parentID, in order. Each
// entry gets a fresh random ID and is fully committed (index, content,
// cache) before the next begins. On failure the entries created so far are
// returned alongside the error.
func (s *Store) CreateEntries(ctx context.Context, parentID string, specs []EntrySpec) ([]Entry, error) {
	if s.readOnly {
		return nil, ErrReadOnly
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	parent, err := s.directoryHandle(ctx, parentID)
	if err != nil {
		return nil, err
	}
	if IsRoot(parentID) {
		parentID = RootID
	}

	created := make([]Entry, 0, len(specs))
	for _, spec := range specs {
		if err := ctx.Err(); err != nil {
			return created, err
		}
		e, err := s.createEntry(ctx, parent, parentID, spec)
		if err != nil {
			return created, err
		}
		created = append(created, e)
	}
	return created, nil
}

func (s *Store) createEntry(ctx context.Context, parent Handle, parentID string, spec EntrySpec) (Entry, error) {
	if _, err := spec.Type.MarshalText(); err != nil {
		return Entry{}, err
	}

	now := s.stamp()
	e := Entry{
		ID:          s.newID(),
		Name:        spec.Name,
		Icon:        spec.Icon,
		Type:        spec.Type,
		Parent:      parentID,
		Description: spec.Description,
		Created:     now,
		Modified:    now,
	}

	if err := s.index.Add(ctx, e); err != nil {
		return Entry{}, fmt.Errorf("add entry %s: %w", e.ID, err)
	}

	var (
		h   Handle
		err error
	)
	if e.IsDir() {
		h, err = s.content.CreateDirectory(ctx, parent, e.ID)
	} else {
		h, err = s.content.CreateLeaf(ctx, parent, e.ID)
	}
	if err != nil {
		return Entry{}, fmt.Errorf("create content node %s: %w", e.ID, err)
	}

	s.cache.SetEntry(e)
	s.cache.SetHandle(e.ID, h)

	s.logger.Info("created entry", "id", e.ID, "name", e.Name, "type", e.Type.String(), "parent", parentID)
	return e, nil
}

// RemoveEntries removes each id in order: its metadata record and those of
// all descendants, their cache slots, then the content subtree.
// Unknown IDs are a no-op.
func (s *Store) RemoveEntries(ctx context.Context, ids []string) error {
	if s.readOnly {
		return ErrReadOnly
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.removeEntry(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) removeEntry(ctx context.Context, id string) error {
	if IsRoot(id) {
		return ErrRootEntry
	}

	e, hasRecord, err := s.GetEntry(ctx, id)
	if err != nil {
		return err
	}

	parent, hasNode, err := s.parentHandle(ctx, id, e, hasRecord)
	if err != nil {
		return err
	}
	if !hasRecord && !hasNode {
		return nil
	}

	var descendants []string
	if hasNode {
		node, found, err := s.content.Lookup(ctx, parent, id)
		if err != nil {
			return err
		}
		if found && node.IsDir() {
			descendants, err = s.descendants(ctx, node)
			if err != nil {
				return err
			}
		}
	}

	if err := s.index.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete entry %s: %w", id, err)
	}
	for _, d := range descendants {
		if err := s.index.Delete(ctx, d); err != nil {
			return fmt.Errorf("delete descendant %s: %w", d, err)
		}
	}

	s.cache.Evict(append(descendants, id)...)

	if hasNode {
		if err := s.content.Remove(ctx, parent, id, true); err != nil {
			return fmt.Errorf("remove content node %s: %w", id, err)
		}
	}

	s.logger.Info("removed entry", "id", id, "name", e.Name, "descendants", len(descendants))
	return nil
}

// parentHandle locates the directory holding id. It follows the recorded
// parent when available and otherwise searches the tree.
func (s *Store) parentHandle(ctx context.Context, id string, e Entry, hasRecord bool) (Handle, bool, error) {
	if hasRecord {
		parent, ok, err := s.Handle(ctx, e.Parent)
		if err != nil {
			return Handle{}, false, err
		}
		if ok && parent.IsDir() {
			if _, found, err := s.content.Lookup(ctx, parent, id); err != nil {
				return Handle{}, false, err
			} else if found {
				return parent, true, nil
			}
		}
	}

	root, err := s.content.Root(ctx)
	if err != nil {
		return Handle{}, false, err
	}
	return s.findParent(ctx, root, id)
}

func (s *Store) findParent(ctx context.Context, dir Handle, id string) (Handle, bool, error) {
	var subdirs []Handle
	for child, err := range s.content.ListChildren(ctx, dir) {
		if err != nil {
			return Handle{}, false, err
		}
		if child == id {
			return dir, true, nil
		}
		h, found, err := s.content.Lookup(ctx, dir, child)
		if err != nil {
			return Handle{}, false, err
		}
		if found && h.IsDir() {
			subdirs = append(subdirs, h)
		}
	}
	for _, sub := range subdirs {
		parent, found, err := s.findParent(ctx, sub, id)
		if err != nil || found {
			return parent, found, err
		}
	}
	return Handle{}, false, nil
}

// descendants lists the IDs of every node below dir.
func (s *Store) descendants(ctx context.Context, dir Handle) ([]string, error) {
	var out []string
	err := s.walk(ctx, dir, func(_ Handle, node Handle) (bool, error) {
		out = append(out, node.ID())
		return true, nil
	})
	return out, err
}

// walk visits every node below dir depth-first, parents before children.
// visit returns false to skip the children of a directory.
func (s *Store) walk(ctx context.Context, dir Handle, visit func(parent, node Handle) (bool, error)) error {
	for child, err := range s.content.ListChildren(ctx, dir) {
		if err != nil {
			return err
		}
		node, found, err := s.content.Lookup(ctx, dir, child)
		if err != nil {
			return err
		}
		if !found {
			continue
		}
		descend, err := visit(dir, node)
		if err != nil {
			return err
		}
		if descend && node.IsDir() {
			if err := s.walk(ctx, node, visit); err != nil {
				return err
			}
		}
	}
	return nil
}

// UpdateEntry merges patch into the record of id and rewrites it.
// The cache copy is overwritten, not evicted.
func (s *Store) UpdateEntry(ctx context.Context, id string, patch EntryPatch) (Entry, error) {
	if s.readOnly {
		return Entry{}, ErrReadOnly
	}
	if IsRoot(id) {
		return Entry{}, ErrRootEntry
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok, err := s.GetEntry(ctx, id)
	if err != nil {
		return Entry{}, err
	}
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrEntryNotFound, id)
	}

	if patch.Name != "" {
		e.Name = patch.Name
	}
	if patch.Icon != "" {
		e.Icon = patch.Icon
	}
	if patch.Description != "" {
		e.Description = patch.Description
	}

	if err := s.index.Put(ctx, e); err != nil {
		return Entry{}, fmt.Errorf("put entry %s: %w", id, err)
	}
	s.cache.SetEntry(e)
	return e, nil
}

// --- Content ---

// WriteContent replaces the content of leaf id and bumps its modified time.
func (s *Store) WriteContent(ctx context.Context, id string, content []byte) (Entry, error) {
	if s.readOnly {
		return Entry{}, ErrReadOnly
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, h, err := s.leaf(ctx, id)
	if err != nil {
		return Entry{}, err
	}

	if err := s.content.Write(ctx, h, content); err != nil {
		return Entry{}, fmt.Errorf("write content %s: %w", id, err)
	}

	e.Modified = s.touch(e.Modified)
	if err := s.index.Put(ctx, e); err != nil {
		return Entry{}, fmt.Errorf("put entry %s: %w", id, err)
	}
	s.cache.SetEntry(e)

	s.logger.Debug("wrote content", "id", id, "bytes", len(content))
	return e, nil
}

// ReadContent returns the content of leaf id along with its record.
func (s *Store) ReadContent(ctx context.Context, id string) ([]byte, Entry, error) {
	e, h, err := s.leaf(ctx, id)
	if err != nil {
		return nil, Entry{}, err
	}
	data, err := s.content.Read(ctx, h)
	if err != nil {
		return nil, Entry{}, fmt.Errorf("read content %s: %w", id, err)
	}
	return data, e, nil
}

func (s *Store) leaf(ctx context.Context, id string) (Entry, Handle, error) {
	if IsRoot(id) {
		return Entry{}, Handle{}, ErrRootEntry
	}
	e, ok, err := s.GetEntry(ctx, id)
	if err != nil {
		return Entry{}, Handle{}, err
	}
	if !ok {
		return Entry{}, Handle{}, fmt.Errorf("%w: %s", ErrEntryNotFound, id)
	}
	if e.IsDir() {
		return Entry{}, Handle{}, fmt.Errorf("%w: %s is a directory", ErrNodeKindMismatch, id)
	}
	h, ok, err := s.Handle(ctx, id)
	if err != nil {
		return Entry{}, Handle{}, err
	}
	if !ok {
		return Entry{}, Handle{}, fmt.Errorf("%w: %s", ErrHandleMissing, id)
	}
	return e, h, nil
}

// directoryHandle returns the handle of directory id. Non-root IDs must
// have a Directory record.
func (s *Store) directoryHandle(ctx context.Context, id string) (Handle, error) {
	if !IsRoot(id) {
		e, ok, err := s.GetEntry(ctx, id)
		if err != nil {
			return Handle{}, err
		}
		if !ok {
			return Handle{}, fmt.Errorf("%w: %s", ErrParentNotFound, id)
		}
		if !e.IsDir() {
			return Handle{}, fmt.Errorf("%w: %s", ErrNotDirectory, id)
		}
	}

	h, ok, err := s.Handle(ctx, id)
	if err != nil {
		return Handle{}, err
	}
	if !ok {
		return Handle{}, fmt.Errorf("%w: %s", ErrHandleMissing, id)
	}
	if !h.IsDir() {
		return Handle{}, fmt.Errorf("%w: %s", ErrNodeKindMismatch, id)
	}
	return h, nil
}

// Children returns the raw child IDs of directory id as stored in the
// content store, including orphans without a record.
func (s *Store) Children(ctx context.Context, id string) ([]string, error) {
	h, err := s.directoryHandle(ctx, id)
	if err != nil {
		return nil, err
	}
	var ids []string
	for child, err := range s.content.ListChildren(ctx, h) {
		if err != nil {
			return nil, err
		}
		ids = append(ids, child)
	}
	return ids, nil
}

// stamp returns the current time at millisecond precision, the precision
// timestamps are persisted with.
func (s *Store) stamp() time.Time {
	return time.UnixMilli(s.now().UnixMilli()).UTC()
}

// touch returns a modification stamp strictly after prev.
func (s *Store) touch(prev time.Time) time.Time {
	now := s.stamp()
	if !now.After(prev) {
		now = prev.Add(time.Millisecond)
	}
	return now
}
