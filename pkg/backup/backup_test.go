package backup_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/webdav"

	"github.com/aretw0/nook/pkg/adapters/fs"
	"github.com/aretw0/nook/pkg/adapters/memory"
	"github.com/aretw0/nook/pkg/backup"
	"github.com/aretw0/nook/pkg/core"
)

func newStore(t *testing.T) *core.Store {
	t.Helper()
	content := fs.NewContentStore(fs.Config{Fs: afero.NewMemMapFs(), Root: "/content"})
	require.NoError(t, content.Initialize(context.Background()))
	return core.NewStore(memory.NewIndex(), content)
}

// seed creates Notes/todo.txt ("buy milk") and returns the Notes entry.
func seed(t *testing.T, s *core.Store) core.Entry {
	t.Helper()
	ctx := context.Background()

	dirs, err := s.CreateEntries(ctx, core.RootID, []core.EntrySpec{{Name: "Notes", Type: core.TypeDirectory}})
	require.NoError(t, err)
	notes, err := s.CreateEntries(ctx, dirs[0].ID, []core.EntrySpec{{Name: "todo.txt", Type: core.TypeNote}})
	require.NoError(t, err)
	_, err = s.WriteContent(ctx, notes[0].ID, []byte("buy milk"))
	require.NoError(t, err)
	return dirs[0]
}

func assertRestored(t *testing.T, s *core.Store) {
	t.Helper()
	ctx := context.Background()

	root, err := s.ListDirectory(ctx, core.RootID)
	require.NoError(t, err)
	require.Len(t, root.Directories, 1)
	assert.Equal(t, "Notes", root.Directories[0].Name)

	inner, err := s.ListDirectory(ctx, root.Directories[0].ID)
	require.NoError(t, err)
	require.Len(t, inner.Files, 1)

	data, _, err := s.ReadContent(ctx, inner.Files[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "buy milk", string(data))
}

func TestLocalBackupRestore(t *testing.T) {
	ctx := context.Background()
	src := newStore(t)
	seed(t, src)

	fixed := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	target := backup.NewLocalTarget(afero.NewMemMapFs(), "/backups")
	mgr := backup.NewManager(target, backup.WithClock(func() time.Time { return fixed }))

	res, err := mgr.Backup(ctx, src, core.RootID, "")
	require.NoError(t, err)
	assert.Equal(t, "nook-20240506T070809Z.json.zst", res.Name)
	assert.Equal(t, 3, res.Nodes)
	assert.Len(t, res.Checksum, 64)

	names, err := mgr.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{res.Name}, names)

	dst := newStore(t)
	created, err := mgr.Restore(ctx, dst, res.Name, core.RootID)
	require.NoError(t, err)
	require.Len(t, created, 1)
	assertRestored(t, dst)
}

func TestRestoreDetectsCorruption(t *testing.T) {
	ctx := context.Background()
	src := newStore(t)
	seed(t, src)

	target := backup.NewLocalTarget(afero.NewMemMapFs(), "/backups")
	mgr := backup.NewManager(target)

	res, err := mgr.Backup(ctx, src, core.RootID, "vault.json")
	require.NoError(t, err)

	data, err := target.Get(ctx, res.Name)
	require.NoError(t, err)
	data[len(data)/2] ^= 0xff
	require.NoError(t, target.Put(ctx, res.Name, data))

	_, err = mgr.Restore(ctx, newStore(t), res.Name, core.RootID)
	assert.ErrorIs(t, err, backup.ErrChecksumMismatch)
}

func TestRestoreMissingArchive(t *testing.T) {
	mgr := backup.NewManager(backup.NewLocalTarget(afero.NewMemMapFs(), "/backups"))
	_, err := mgr.Restore(context.Background(), newStore(t), "nope.json", core.RootID)
	assert.ErrorIs(t, err, backup.ErrArchiveNotFound)
}

func TestBackupSubtree(t *testing.T) {
	ctx := context.Background()
	src := newStore(t)
	notes := seed(t, src)

	mgr := backup.NewManager(backup.NewLocalTarget(afero.NewMemMapFs(), "/backups"))
	res, err := mgr.Backup(ctx, src, notes.ID, "notes.yaml.lz4")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Nodes)

	doc, err := mgr.Load(ctx, res.Name)
	require.NoError(t, err)
	assert.Equal(t, "Notes", doc.Name)
	require.Len(t, doc.Children, 1)
	assert.Equal(t, "buy milk", *doc.Children[0].Content)
}

func TestWebDAVBackupRestore(t *testing.T) {
	ctx := context.Background()

	srv := httptest.NewServer(&webdav.Handler{
		FileSystem: webdav.NewMemFS(),
		LockSystem: webdav.NewMemLS(),
	})
	defer srv.Close()

	target := backup.NewWebDAVTarget(backup.WebDAVConfig{
		BaseURL:  srv.URL,
		BasePath: "/nook/backups",
	})
	mgr := backup.NewManager(target)

	src := newStore(t)
	seed(t, src)

	res, err := mgr.Backup(ctx, src, core.RootID, "vault.cbor.zst")
	require.NoError(t, err)

	names, err := mgr.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"vault.cbor.zst"}, names)

	dst := newStore(t)
	_, err = mgr.Restore(ctx, dst, res.Name, core.RootID)
	require.NoError(t, err)
	assertRestored(t, dst)

	_, err = target.Get(ctx, "missing.json")
	assert.ErrorIs(t, err, backup.ErrArchiveNotFound)
}
