package fs_test

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/nook/pkg/adapters/fs"
	"github.com/aretw0/nook/pkg/core"
)

// setupStore creates an initialized content store on an in-memory filesystem.
func setupStore(t *testing.T, opts ...func(*fs.Config)) (*fs.ContentStore, afero.Fs) {
	t.Helper()

	cfg := fs.Config{
		Fs:   afero.NewMemMapFs(),
		Root: "/vault/content",
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	store := fs.NewContentStore(cfg)
	if err := store.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	return store, cfg.Fs
}

func children(t *testing.T, store *fs.ContentStore, dir core.Handle) []string {
	t.Helper()
	var out []string
	for id, err := range store.ListChildren(context.Background(), dir) {
		require.NoError(t, err)
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

func TestInitialize(t *testing.T) {
	t.Run("Creates Root if Missing", func(t *testing.T) {
		_, fsys := setupStore(t)

		info, err := fsys.Stat("/vault/content")
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("Fails if MustExist and Missing", func(t *testing.T) {
		store := fs.NewContentStore(fs.Config{
			Fs:        afero.NewMemMapFs(),
			Root:      "/missing",
			MustExist: true,
		})

		err := store.Initialize(context.Background())
		if err == nil {
			t.Error("expected Initialize to fail when root is missing and MustExist=true")
		}
	})
}

func TestCreateAndLookup(t *testing.T) {
	ctx := context.Background()
	store, _ := setupStore(t)
	root, err := store.Root(ctx)
	require.NoError(t, err)

	dir, err := store.CreateDirectory(ctx, root, "d1")
	require.NoError(t, err)
	assert.True(t, dir.IsDir())
	assert.Equal(t, "d1", dir.ID())

	leaf, err := store.CreateLeaf(ctx, dir, "n1")
	require.NoError(t, err)
	assert.False(t, leaf.IsDir())

	got, found, err := store.Lookup(ctx, dir, "n1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, leaf, got)

	_, found, err = store.Lookup(ctx, root, "n1")
	require.NoError(t, err)
	assert.False(t, found, "lookup must not search below the directory")

	assert.Equal(t, []string{"d1"}, children(t, store, root))
	assert.Equal(t, []string{"n1"}, children(t, store, dir))
}

func TestCreateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store, fsys := setupStore(t)
	root, _ := store.Root(ctx)

	first, err := store.CreateDirectory(ctx, root, "d1")
	require.NoError(t, err)
	leaf, err := store.CreateLeaf(ctx, first, "n1")
	require.NoError(t, err)
	require.NoError(t, store.Write(ctx, leaf, []byte("keep me")))

	second, err := store.CreateDirectory(ctx, root, "d1")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	_, err = store.CreateLeaf(ctx, first, "n1")
	require.NoError(t, err)

	data, err := afero.ReadFile(fsys, "/vault/content/d1/n1")
	require.NoError(t, err)
	assert.Equal(t, "keep me", string(data), "re-creating a leaf must not truncate it")

	t.Run("Kind Mismatch", func(t *testing.T) {
		_, err := store.CreateLeaf(ctx, root, "d1")
		assert.ErrorIs(t, err, core.ErrNodeKindMismatch)

		_, err = store.CreateDirectory(ctx, first, "n1")
		assert.ErrorIs(t, err, core.ErrNodeKindMismatch)
	})

	t.Run("Parent Must Be Directory", func(t *testing.T) {
		_, err := store.CreateLeaf(ctx, leaf, "x")
		assert.ErrorIs(t, err, core.ErrNotDirectory)
	})

	t.Run("Rejects Path IDs", func(t *testing.T) {
		for _, id := range []string{"", ".", "..", "a/b", `a\b`, "root"} {
			_, err := store.CreateLeaf(ctx, root, id)
			assert.Error(t, err, "id %q", id)
		}
	})
}

func TestResolve(t *testing.T) {
	ctx := context.Background()
	store, _ := setupStore(t)
	root, _ := store.Root(ctx)

	a, err := store.CreateDirectory(ctx, root, "a")
	require.NoError(t, err)
	b, err := store.CreateDirectory(ctx, a, "b")
	require.NoError(t, err)
	_, err = store.CreateLeaf(ctx, b, "leaf")
	require.NoError(t, err)

	t.Run("Directory Resolves To Itself", func(t *testing.T) {
		h, found, err := store.Resolve(ctx, root, "b")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, b, h)
	})

	t.Run("Leaf Resolves To Parent", func(t *testing.T) {
		h, found, err := store.Resolve(ctx, root, "leaf")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, b, h)
	})

	t.Run("Missing", func(t *testing.T) {
		_, found, err := store.Resolve(ctx, root, "nope")
		require.NoError(t, err)
		assert.False(t, found)
	})
}

func TestReadWrite(t *testing.T) {
	ctx := context.Background()
	store, _ := setupStore(t)
	root, _ := store.Root(ctx)

	leaf, err := store.CreateLeaf(ctx, root, "n1")
	require.NoError(t, err)

	data, err := store.Read(ctx, leaf)
	require.NoError(t, err)
	assert.Empty(t, data)

	require.NoError(t, store.Write(ctx, leaf, []byte("buy milk")))
	require.NoError(t, store.Write(ctx, leaf, []byte("buy bread")))

	data, err = store.Read(ctx, leaf)
	require.NoError(t, err)
	assert.Equal(t, "buy bread", string(data))

	assert.Equal(t, []string{"n1"}, children(t, store, root), "temp files must stay hidden")

	_, err = store.Read(ctx, root)
	assert.ErrorIs(t, err, core.ErrNodeKindMismatch)
}

func TestListChildrenHidesTempFiles(t *testing.T) {
	ctx := context.Background()
	store, fsys := setupStore(t)
	root, _ := store.Root(ctx)

	_, err := store.CreateLeaf(ctx, root, "n1")
	require.NoError(t, err)
	require.NoError(t, afero.WriteFile(fsys, "/vault/content/"+fs.TempFilePrefix+"123", nil, 0644))

	assert.Equal(t, []string{"n1"}, children(t, store, root))
}

func TestListChildrenStopsEarly(t *testing.T) {
	ctx := context.Background()
	store, _ := setupStore(t)
	root, _ := store.Root(ctx)

	for _, id := range []string{"a", "b", "c"} {
		_, err := store.CreateLeaf(ctx, root, id)
		require.NoError(t, err)
	}

	n := 0
	for _, err := range store.ListChildren(ctx, root) {
		require.NoError(t, err)
		n++
		break
	}
	assert.Equal(t, 1, n)
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	store, _ := setupStore(t)
	root, _ := store.Root(ctx)

	dir, err := store.CreateDirectory(ctx, root, "d1")
	require.NoError(t, err)
	_, err = store.CreateLeaf(ctx, dir, "n1")
	require.NoError(t, err)

	require.NoError(t, store.Remove(ctx, root, "d1", true))
	assert.Empty(t, children(t, store, root))

	require.NoError(t, store.Remove(ctx, root, "d1", true), "removing a missing node is a no-op")
}

func TestWatch(t *testing.T) {
	t.Run("Requires OS Filesystem", func(t *testing.T) {
		store, _ := setupStore(t)
		_, err := store.Watch(context.Background())
		assert.True(t, errors.Is(err, fs.ErrWatchUnsupported))
	})

	t.Run("Reports New Nodes", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		store, _ := setupStore(t, func(c *fs.Config) {
			c.Fs = afero.NewOsFs()
			c.Root = filepath.Join(t.TempDir(), "content")
		})

		events, err := store.Watch(ctx)
		require.NoError(t, err)

		root, _ := store.Root(ctx)
		_, err = store.CreateLeaf(ctx, root, "n1")
		require.NoError(t, err)

		timeout := time.After(2 * time.Second)
		for {
			select {
			case e := <-events:
				if e.ID == "n1" && e.Type == core.EventCreate {
					return
				}
			case <-timeout:
				t.Fatal("timed out waiting for create event")
			}
		}
	})
}
