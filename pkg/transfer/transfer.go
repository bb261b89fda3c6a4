package transfer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/nook/pkg/core"
)

// Source is the read side of a store needed by Export.
type Source interface {
	GetEntries(ctx context.Context, ids []string) ([]core.Optional[core.Entry], error)
	Children(ctx context.Context, id string) ([]string, error)
	ReadContent(ctx context.Context, id string) ([]byte, core.Entry, error)
}

// Sink is the write side of a store needed by Import.
type Sink interface {
	CreateEntries(ctx context.Context, parentID string, specs []core.EntrySpec) ([]core.Entry, error)
	WriteContent(ctx context.Context, id string, content []byte) (core.Entry, error)
}

// Option configures Export and Import.
type Option func(*options)

type options struct {
	logger *slog.Logger
	now    func() time.Time
}

// WithLogger sets the logger used for skipped nodes and progress.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithClock sets the time stamped on the synthesized root node.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func newOptions(opts []Option) options {
	o := options{
		logger: slog.New(slog.DiscardHandler),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Export produces the document for directory dirID and everything below it.
// Children without a metadata record are left out. A non-root dirID without
// a record fails with core.ErrParentNotFound.
func Export(ctx context.Context, src Source, dirID string, opts ...Option) (Node, error) {
	o := newOptions(opts)

	var node Node
	if core.IsRoot(dirID) {
		node = Node{
			ID:       core.RootID,
			Name:     core.RootID,
			Type:     core.TypeDirectory,
			Modified: o.now().UnixMilli(),
		}
	} else {
		got, err := src.GetEntries(ctx, []string{dirID})
		if err != nil {
			return Node{}, err
		}
		e, ok := got[0].Get()
		if !ok {
			return Node{}, fmt.Errorf("%w: %s", core.ErrParentNotFound, dirID)
		}
		if !e.IsDir() {
			return Node{}, fmt.Errorf("%w: %s", core.ErrNotDirectory, dirID)
		}
		node = nodeFromEntry(e)
	}

	children, err := exportChildren(ctx, src, node.ID, o)
	if err != nil {
		return Node{}, err
	}
	node.Children = children

	o.logger.Debug("exported subtree", "id", node.ID, "nodes", node.Count())
	return node, nil
}

func exportChildren(ctx context.Context, src Source, dirID string, o options) ([]Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ids, err := src.Children(ctx, dirID)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dirID, err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	entries, err := src.GetEntries(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]Node, 0, len(ids))
	for i, slot := range entries {
		e, ok := slot.Get()
		if !ok {
			o.logger.Debug("skipping orphan content node", "id", ids[i], "dir", dirID)
			continue
		}

		child := nodeFromEntry(e)
		switch e.Type {
		case core.TypeDirectory:
			child.Children, err = exportChildren(ctx, src, e.ID, o)
			if err != nil {
				return nil, err
			}
		case core.TypeNote, core.TypeImage, core.TypeVideo, core.TypeAudio:
			data, _, err := src.ReadContent(ctx, e.ID)
			if err != nil {
				return nil, err
			}
			content := encodeContent(e.Type, data)
			child.Content = &content
		default:
			return nil, fmt.Errorf("%w: entry %s", core.ErrUnknownEntryType, e.ID)
		}
		out = append(out, child)
	}
	return out, nil
}

// Import recreates node below parentID with fresh IDs. A root node has its
// children placed directly under parentID. It returns the entries created at
// the top level of the import.
func Import(ctx context.Context, dst Sink, node Node, parentID string, opts ...Option) ([]core.Entry, error) {
	o := newOptions(opts)

	if node.IsRoot() {
		var created []core.Entry
		for _, child := range node.Children {
			e, err := importNode(ctx, dst, child, parentID, o)
			if err != nil {
				return created, err
			}
			created = append(created, e)
		}
		return created, nil
	}

	e, err := importNode(ctx, dst, node, parentID, o)
	if err != nil {
		return nil, err
	}
	return []core.Entry{e}, nil
}

func importNode(ctx context.Context, dst Sink, node Node, parentID string, o options) (core.Entry, error) {
	if err := ctx.Err(); err != nil {
		return core.Entry{}, err
	}
	if !node.Type.IsContainer() && len(node.Children) > 0 {
		return core.Entry{}, fmt.Errorf("%w: %s %q has children", ErrMalformedNode, node.Type, node.Name)
	}

	created, err := dst.CreateEntries(ctx, parentID, []core.EntrySpec{node.spec()})
	if err != nil {
		return core.Entry{}, fmt.Errorf("import %q: %w", node.Name, err)
	}
	e := created[0]
	o.logger.Debug("imported node", "source_id", node.ID, "id", e.ID, "name", e.Name)

	switch e.Type {
	case core.TypeDirectory:
		for _, child := range node.Children {
			if _, err := importNode(ctx, dst, child, e.ID, o); err != nil {
				return e, err
			}
		}
	case core.TypeNote, core.TypeImage, core.TypeVideo, core.TypeAudio:
		if node.Content == nil {
			return e, nil
		}
		data, err := decodeContent(e.Type, *node.Content)
		if err != nil {
			return e, fmt.Errorf("%w: %q: %v", ErrMalformedNode, node.Name, err)
		}
		written, err := dst.WriteContent(ctx, e.ID, data)
		if err != nil {
			return e, fmt.Errorf("import %q: %w", node.Name, err)
		}
		e = written
	}
	return e, nil
}
