package core_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/nook/pkg/core"
)

func names(entries []core.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Name
	}
	return out
}

func TestListDirectory(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	s := f.store

	mustCreate(t, s, core.RootID,
		note("zebra.md"),
		dir("Music"),
		core.EntrySpec{Name: "avatar.png", Type: core.TypeImage},
		dir("Archive"),
		core.EntrySpec{Name: "clip.mp4", Type: core.TypeVideo},
	)

	root, err := f.content.Root(ctx)
	require.NoError(t, err)
	_, err = f.content.CreateLeaf(ctx, root, "orphan-node")
	require.NoError(t, err)

	listing, err := s.ListDirectory(ctx, core.RootID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Archive", "Music"}, names(listing.Directories))
	assert.Equal(t, []string{"avatar.png", "clip.mp4", "zebra.md"}, names(listing.Files))

	children, err := s.Children(ctx, core.RootID)
	require.NoError(t, err)
	assert.Len(t, children, 6, "raw children include the orphan")
	assert.Contains(t, children, "orphan-node")

	t.Run("Empty Directory", func(t *testing.T) {
		listing, err := s.ListDirectory(ctx, listingDir(t, s, "Music"))
		require.NoError(t, err)
		assert.Empty(t, listing.Directories)
		assert.Empty(t, listing.Files)
	})

	t.Run("Leaf Is Not A Directory", func(t *testing.T) {
		_, err := s.ListDirectory(ctx, listingDir(t, s, "zebra.md"))
		assert.ErrorIs(t, err, core.ErrNotDirectory)
	})
}

func listingDir(t *testing.T, s *core.Store, name string) string {
	t.Helper()
	got, err := s.GetEntriesByName(context.Background(), []string{name})
	require.NoError(t, err)
	e, ok := got[0].Get()
	require.True(t, ok, "no entry named %s", name)
	return e.ID
}

func TestFind(t *testing.T) {
	ctx := context.Background()
	s := setup(t).store

	docs := mustCreate(t, s, core.RootID, dir("docs"), note("todo.txt"))[0]
	mustCreate(t, s, docs.ID, note("b.md"), note("a.md"), note("todo-later.txt"))

	tests := []struct {
		pattern string
		want    []string
	}{
		{pattern: "*.md", want: []string{"a.md", "b.md"}},
		{pattern: "todo*", want: []string{"todo-later.txt", "todo.txt"}},
		{pattern: "{docs,a.md}", want: []string{"a.md", "docs"}},
		{pattern: "nothing", want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			got, err := s.Find(ctx, tt.pattern)
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(got))
		})
	}

	_, err := s.Find(ctx, "[unclosed")
	assert.Error(t, err)

	assert.True(t, s.Cache().Complete(), "find loads every record")
}
