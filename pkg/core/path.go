package core

import "context"

// entryLookup is the subset of Store the resolver needs.
type entryLookup interface {
	GetEntries(ctx context.Context, ids []string) ([]Optional[Entry], error)
	GetEntriesByName(ctx context.Context, names []string) ([]Optional[Entry], error)
	ListDirectory(ctx context.Context, id string) (Listing, error)
}

// PathResolver turns sequences of IDs or names into validated entry chains.
//
// A result shorter than its input means the path diverges from storage at
// that depth. Segments are looked up concurrently; the result always keeps
// input order and is truncated at the first unresolved segment.
type PathResolver struct {
	lookup entryLookup
}

// NewPathResolver creates a resolver over a lookup source, usually a *Store.
func NewPathResolver(lookup entryLookup) *PathResolver {
	return &PathResolver{lookup: lookup}
}

// Paths returns a resolver bound to the store.
func (s *Store) Paths() *PathResolver {
	return NewPathResolver(s)
}

// ResolveByID resolves each ID and returns the valid prefix of the path.
func (p *PathResolver) ResolveByID(ctx context.Context, path []string) ([]Entry, error) {
	if len(path) == 0 {
		return []Entry{}, nil
	}
	slots, err := p.lookup.GetEntries(ctx, path)
	if err != nil {
		return nil, err
	}
	return validPrefix(slots), nil
}

// ResolveByName resolves each name and returns the valid prefix of the path.
func (p *PathResolver) ResolveByName(ctx context.Context, path []string) ([]Entry, error) {
	if len(path) == 0 {
		return []Entry{}, nil
	}
	slots, err := p.lookup.GetEntriesByName(ctx, path)
	if err != nil {
		return nil, err
	}
	return validPrefix(slots), nil
}

// ResolveNamePath walks a name path down from the root, matching each name
// among the children of the previous segment only. Siblings sharing a name
// resolve to the smallest ID. A leaf ends the walk, so segments below it are
// left unresolved.
func (p *PathResolver) ResolveNamePath(ctx context.Context, path []string) ([]Entry, error) {
	out := make([]Entry, 0, len(path))
	parent := RootID
	for _, name := range path {
		listing, err := p.lookup.ListDirectory(ctx, parent)
		if err != nil {
			return nil, err
		}
		e, ok := listing.Child(name)
		if !ok {
			break
		}
		out = append(out, e)
		if !e.IsDir() {
			break
		}
		parent = e.ID
	}
	return out, nil
}

// NamesFromIDs renders the valid prefix of an ID path as display names,
// e.g. for breadcrumbs.
func (p *PathResolver) NamesFromIDs(ctx context.Context, path []string) ([]string, error) {
	entries, err := p.ResolveByID(ctx, path)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	return names, nil
}

// IDsFromNames renders the valid prefix of a name path as IDs.
func (p *PathResolver) IDsFromNames(ctx context.Context, path []string) ([]string, error) {
	entries, err := p.ResolveByName(ctx, path)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	return ids, nil
}

func validPrefix(slots []Optional[Entry]) []Entry {
	out := make([]Entry, 0, len(slots))
	for _, slot := range slots {
		e, ok := slot.Get()
		if !ok {
			break
		}
		out = append(out, e)
	}
	return out
}
