package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/afero"

	"github.com/aretw0/nook/pkg/core"
)

// readdirBatch is how many names ListChildren pulls per directory read.
const readdirBatch = 64

// ContentStore implements core.ContentStore on an afero filesystem.
// Every node is named by its entry ID; directories map to directories and
// leaves to regular files below Root.
type ContentStore struct {
	fs     afero.Fs
	root   string
	config Config

	mu            sync.RWMutex
	watcherActive bool
	lastEvent     *time.Time
}

// Config holds the configuration for the filesystem content store.
type Config struct {
	// Fs is the backing filesystem. Nil means the OS filesystem.
	Fs afero.Fs
	// Root is the directory holding the tree, created by Initialize.
	Root string
	// MustExist makes Initialize fail instead of creating Root.
	MustExist bool
	Logger    *slog.Logger
	// ErrorHandler receives watcher failures that are otherwise only logged.
	ErrorHandler func(error)
}

// NewContentStore creates a content store. No I/O happens until Initialize.
func NewContentStore(config Config) *ContentStore {
	if config.Fs == nil {
		config.Fs = afero.NewOsFs()
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	return &ContentStore{
		fs:     config.Fs,
		root:   config.Root,
		config: config,
	}
}

// Initialize ensures the root directory exists.
func (c *ContentStore) Initialize(ctx context.Context) error {
	if c.config.MustExist {
		info, err := c.fs.Stat(c.root)
		if os.IsNotExist(err) {
			return fmt.Errorf("content root does not exist: %s", c.root)
		}
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return fmt.Errorf("content root is not a directory: %s", c.root)
		}
		return nil
	}

	if err := c.fs.MkdirAll(c.root, 0755); err != nil {
		return fmt.Errorf("failed to create content root: %w", err)
	}
	return nil
}

// Fs returns the backing filesystem.
func (c *ContentStore) Fs() afero.Fs {
	return c.fs
}

func (c *ContentStore) Root(ctx context.Context) (core.Handle, error) {
	return core.NewHandle(core.RootID, "", true), nil
}

func (c *ContentStore) Resolve(ctx context.Context, root core.Handle, id string) (core.Handle, bool, error) {
	if err := validID(id); err != nil {
		return core.Handle{}, false, err
	}
	if !root.IsDir() {
		return core.Handle{}, false, fmt.Errorf("%w: %s", core.ErrNotDirectory, root.ID())
	}
	return c.resolve(ctx, root, id)
}

// resolve is an unindexed depth-first walk, O(total nodes).
func (c *ContentStore) resolve(ctx context.Context, dir core.Handle, id string) (core.Handle, bool, error) {
	if err := ctx.Err(); err != nil {
		return core.Handle{}, false, err
	}

	infos, err := afero.ReadDir(c.fs, c.abs(dir))
	if err != nil {
		return core.Handle{}, false, fmt.Errorf("failed to read %s: %w", dir.ID(), err)
	}

	for _, info := range infos {
		name := info.Name()
		if isTempName(name) {
			continue
		}
		if name == id {
			if info.IsDir() {
				return c.child(dir, name, true), true, nil
			}
			return dir, true, nil
		}
		if !info.IsDir() {
			continue
		}
		h, found, err := c.resolve(ctx, c.child(dir, name, true), id)
		if err != nil || found {
			return h, found, err
		}
	}
	return core.Handle{}, false, nil
}

func (c *ContentStore) Lookup(ctx context.Context, dir core.Handle, id string) (core.Handle, bool, error) {
	if err := validID(id); err != nil {
		return core.Handle{}, false, err
	}
	if !dir.IsDir() {
		return core.Handle{}, false, fmt.Errorf("%w: %s", core.ErrNotDirectory, dir.ID())
	}

	info, err := c.fs.Stat(filepath.Join(c.abs(dir), id))
	if os.IsNotExist(err) {
		return core.Handle{}, false, nil
	}
	if err != nil {
		return core.Handle{}, false, err
	}
	return c.child(dir, id, info.IsDir()), true, nil
}

func (c *ContentStore) CreateDirectory(ctx context.Context, parent core.Handle, id string) (core.Handle, error) {
	return c.create(parent, id, true)
}

func (c *ContentStore) CreateLeaf(ctx context.Context, parent core.Handle, id string) (core.Handle, error) {
	return c.create(parent, id, false)
}

// create makes the node if absent. An existing node of the same kind is
// returned as is.
func (c *ContentStore) create(parent core.Handle, id string, dir bool) (core.Handle, error) {
	if err := validID(id); err != nil {
		return core.Handle{}, err
	}
	if !parent.IsDir() {
		return core.Handle{}, fmt.Errorf("%w: %s", core.ErrNotDirectory, parent.ID())
	}

	full := filepath.Join(c.abs(parent), id)
	info, err := c.fs.Stat(full)
	switch {
	case err == nil:
		if info.IsDir() != dir {
			return core.Handle{}, fmt.Errorf("%w: %s", core.ErrNodeKindMismatch, id)
		}
		return c.child(parent, id, dir), nil
	case !os.IsNotExist(err):
		return core.Handle{}, err
	}

	if dir {
		if err := c.fs.Mkdir(full, 0755); err != nil && !os.IsExist(err) {
			return core.Handle{}, fmt.Errorf("failed to create directory %s: %w", id, err)
		}
	} else {
		f, err := c.fs.OpenFile(full, os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return core.Handle{}, fmt.Errorf("failed to create leaf %s: %w", id, err)
		}
		if err := f.Close(); err != nil {
			return core.Handle{}, err
		}
	}
	return c.child(parent, id, dir), nil
}

func (c *ContentStore) ListChildren(ctx context.Context, dir core.Handle) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if !dir.IsDir() {
			yield("", fmt.Errorf("%w: %s", core.ErrNotDirectory, dir.ID()))
			return
		}

		f, err := c.fs.Open(c.abs(dir))
		if err != nil {
			yield("", fmt.Errorf("failed to open %s: %w", dir.ID(), err))
			return
		}
		defer f.Close()

		for {
			if err := ctx.Err(); err != nil {
				yield("", err)
				return
			}
			names, err := f.Readdirnames(readdirBatch)
			for _, name := range names {
				if isTempName(name) {
					continue
				}
				if !yield(name, nil) {
					return
				}
			}
			if errors.Is(err, io.EOF) || (err == nil && len(names) == 0) {
				return
			}
			if err != nil {
				yield("", fmt.Errorf("failed to list %s: %w", dir.ID(), err))
				return
			}
		}
	}
}

func (c *ContentStore) Read(ctx context.Context, leaf core.Handle) ([]byte, error) {
	if leaf.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", core.ErrNodeKindMismatch, leaf.ID())
	}
	data, err := afero.ReadFile(c.fs, c.abs(leaf))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", leaf.ID(), err)
	}
	return data, nil
}

// Write replaces the leaf content atomically (temp file then rename).
func (c *ContentStore) Write(ctx context.Context, leaf core.Handle, content []byte) error {
	if leaf.IsDir() {
		return fmt.Errorf("%w: %s is a directory", core.ErrNodeKindMismatch, leaf.ID())
	}
	return writeFileAtomic(c.fs, c.abs(leaf), content, 0644)
}

func (c *ContentStore) Remove(ctx context.Context, parent core.Handle, id string, recursive bool) error {
	if err := validID(id); err != nil {
		return err
	}
	if !parent.IsDir() {
		return fmt.Errorf("%w: %s", core.ErrNotDirectory, parent.ID())
	}

	full := filepath.Join(c.abs(parent), id)
	var err error
	if recursive {
		err = c.fs.RemoveAll(full)
	} else {
		err = c.fs.Remove(full)
	}
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove %s: %w", id, err)
	}
	return nil
}

// abs maps a handle to its path in the backing filesystem.
func (c *ContentStore) abs(h core.Handle) string {
	return filepath.Join(c.root, filepath.FromSlash(h.Ref()))
}

func (c *ContentStore) child(parent core.Handle, id string, dir bool) core.Handle {
	return core.NewHandle(id, path.Join(parent.Ref(), id), dir)
}

// validID rejects IDs that are not a single path segment.
func validID(id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) || core.IsRoot(id) {
		return fmt.Errorf("invalid content node id: %q", id)
	}
	return nil
}

var _ core.ContentStore = (*ContentStore)(nil)
