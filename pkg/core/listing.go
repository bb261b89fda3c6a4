package core

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
)

// Listing is the resolved content of one directory.
type Listing struct {
	Directories []Entry
	Files       []Entry
}

// Child returns the entry called name, the smallest ID winning among
// siblings that share it.
func (l Listing) Child(name string) (Entry, bool) {
	var (
		best  Entry
		found bool
	)
	for _, e := range slices.Concat(l.Directories, l.Files) {
		if e.Name == name && (!found || e.ID < best.ID) {
			best = e
			found = true
		}
	}
	return best, found
}

// ListDirectory resolves the children of directory id. Children without a
// metadata record are silently dropped. Both groups are ordered by name.
func (s *Store) ListDirectory(ctx context.Context, id string) (Listing, error) {
	children, err := s.Children(ctx, id)
	if err != nil {
		return Listing{}, err
	}
	if len(children) == 0 {
		return Listing{}, nil
	}

	resolved, err := s.GetEntries(ctx, children)
	if err != nil {
		return Listing{}, err
	}

	var out Listing
	for i, slot := range resolved {
		e, ok := slot.Get()
		if !ok {
			s.logger.Debug("hiding orphan content node", "id", children[i], "dir", id)
			continue
		}
		switch e.Type {
		case TypeDirectory:
			out.Directories = append(out.Directories, e)
		case TypeNote, TypeImage, TypeVideo, TypeAudio:
			out.Files = append(out.Files, e)
		}
	}

	slices.SortFunc(out.Directories, byName)
	slices.SortFunc(out.Files, byName)
	return out, nil
}

// Find returns every entry whose name matches the doublestar pattern,
// ordered by name then ID. It warms the cache as a side effect.
func (s *Store) Find(ctx context.Context, pattern string) ([]Entry, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid pattern: %q", pattern)
	}

	s.mu.Lock()
	all, err := s.index.All(ctx)
	if err == nil {
		s.cache.Fill(all)
	}
	s.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("find: %w", err)
	}

	var matches []Entry
	for _, e := range all {
		ok, err := doublestar.Match(pattern, e.Name)
		if err != nil {
			return nil, fmt.Errorf("find: %w", err)
		}
		if ok {
			matches = append(matches, e)
		}
	}
	slices.SortFunc(matches, byName)
	return matches, nil
}

func byName(a, b Entry) int {
	if c := cmp.Compare(a.Name, b.Name); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}
