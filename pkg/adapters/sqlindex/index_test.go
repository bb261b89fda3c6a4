package sqlindex

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/aretw0/nook/pkg/core"
)

func openTemp(t *testing.T) (*Index, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "index.db")
	x, err := Open(context.Background(), Config{Path: path, PoolSize: 2})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = x.Close() })
	return x, path
}

func entry(id, name string, typ core.EntryType) core.Entry {
	ts := time.UnixMilli(1714980000123)
	return core.Entry{ID: id, Name: name, Type: typ, Parent: core.RootID, Created: ts, Modified: ts}
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open(context.Background(), Config{})
	assert.Error(t, err)
}

func TestSchemaVersion(t *testing.T) {
	ctx := context.Background()
	x, path := openTemp(t)

	conn, err := x.take(ctx)
	require.NoError(t, err)
	version, err := userVersion(conn)
	x.pool.Put(conn)
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, version)

	t.Run("Reopen Is A No-Op", func(t *testing.T) {
		again, err := Open(ctx, Config{Path: path})
		require.NoError(t, err)
		require.NoError(t, again.Close())
	})

	t.Run("Newer Schema Is Rejected", func(t *testing.T) {
		conn, err := x.take(ctx)
		require.NoError(t, err)
		err = sqlitex.ExecuteTransient(conn, "PRAGMA user_version = 99", nil)
		x.pool.Put(conn)
		require.NoError(t, err)

		_, err = Open(ctx, Config{Path: path})
		assert.ErrorContains(t, err, "newer than supported")
	})
}

func TestFieldsRoundTrip(t *testing.T) {
	ctx := context.Background()
	x, _ := openTemp(t)

	want := core.Entry{
		ID:          "3f1c",
		Name:        "cat.png",
		Icon:        "🐱",
		Type:        core.TypeImage,
		Parent:      "photos",
		Description: "the cat, again",
		Created:     time.UnixMilli(1700000000001),
		Modified:    time.UnixMilli(1700000000999),
	}
	require.NoError(t, x.Add(ctx, want))

	got, err := x.Get(ctx, []string{"3f1c"})
	require.NoError(t, err)
	e, ok := got[0].Get()
	require.True(t, ok)
	assert.Equal(t, want.ID, e.ID)
	assert.Equal(t, want.Name, e.Name)
	assert.Equal(t, want.Icon, e.Icon)
	assert.Equal(t, want.Type, e.Type)
	assert.Equal(t, want.Parent, e.Parent)
	assert.Equal(t, want.Description, e.Description)
	assert.True(t, want.Created.Equal(e.Created))
	assert.True(t, want.Modified.Equal(e.Modified))
	assert.Equal(t, time.UTC, e.Created.Location())
}

func TestBatchLookups(t *testing.T) {
	ctx := context.Background()
	x, _ := openTemp(t)

	for _, e := range []core.Entry{
		entry("c", "dup", core.TypeNote),
		entry("a", "dup", core.TypeNote),
		entry("b", "solo", core.TypeDirectory),
	} {
		require.NoError(t, x.Add(ctx, e))
	}

	got, err := x.Get(ctx, []string{"b", "missing", core.RootID, "", "a"})
	require.NoError(t, err)
	require.Len(t, got, 5)
	assert.True(t, got[0].Present())
	assert.False(t, got[1].Present())
	assert.False(t, got[2].Present(), "root never has a record")
	assert.False(t, got[3].Present())
	assert.True(t, got[4].Present())

	byName, err := x.GetByName(ctx, []string{"dup", "nope", "solo"})
	require.NoError(t, err)
	dup, ok := byName[0].Get()
	require.True(t, ok)
	assert.Equal(t, "a", dup.ID, "shared names resolve to the smallest ID")
	assert.False(t, byName[1].Present())
	solo, _ := byName[2].Get()
	assert.Equal(t, core.TypeDirectory, solo.Type)

	empty, err := x.Get(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMutations(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "index.db")
	x, err := Open(ctx, Config{Path: path})
	require.NoError(t, err)

	require.NoError(t, x.Add(ctx, entry("n1", "draft", core.TypeNote)))
	assert.ErrorIs(t, x.Add(ctx, entry("n1", "other", core.TypeNote)), core.ErrDuplicateID)
	assert.ErrorIs(t, x.Add(ctx, entry(core.RootID, "root", core.TypeDirectory)), core.ErrRootEntry)
	assert.ErrorIs(t, x.Put(ctx, entry("", "root", core.TypeDirectory)), core.ErrRootEntry)
	assert.ErrorIs(t, x.Add(ctx, entry("bad", "bad", 0)), core.ErrUnknownEntryType)

	renamed := entry("n1", "final", core.TypeNote)
	require.NoError(t, x.Put(ctx, renamed))
	require.NoError(t, x.Put(ctx, renamed), "put is idempotent")
	require.NoError(t, x.Put(ctx, entry("n2", "fresh", core.TypeAudio)), "put inserts")

	byName, err := x.GetByName(ctx, []string{"draft", "final"})
	require.NoError(t, err)
	assert.False(t, byName[0].Present(), "the old name no longer matches")
	assert.True(t, byName[1].Present())

	require.NoError(t, x.Delete(ctx, "n2"))
	require.NoError(t, x.Delete(ctx, "n2"), "deleting twice is a no-op")

	all, err := x.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "final", all[0].Name)

	t.Run("Persists Across Reopen", func(t *testing.T) {
		require.NoError(t, x.Close())
		reopened, err := Open(ctx, Config{Path: path})
		require.NoError(t, err)
		t.Cleanup(func() { _ = reopened.Close() })

		got, err := reopened.Get(ctx, []string{"n1"})
		require.NoError(t, err)
		e, ok := got[0].Get()
		require.True(t, ok)
		assert.Equal(t, "final", e.Name)
	})
}

func TestConcurrentReads(t *testing.T) {
	ctx := context.Background()
	x, _ := openTemp(t)
	require.NoError(t, x.Add(ctx, entry("x", "x", core.TypeNote)))

	errs := make(chan error, 16)
	for range 16 {
		go func() {
			_, err := x.Get(ctx, []string{"x"})
			errs <- err
		}()
	}
	for range 16 {
		assert.NoError(t, <-errs)
	}
}
