package core_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/nook/pkg/core"
)

func TestPathResolver(t *testing.T) {
	ctx := context.Background()
	s := setup(t).store

	a := mustCreate(t, s, core.RootID, dir("Projects"))[0]
	b := mustCreate(t, s, a.ID, dir("nook"))[0]
	c := mustCreate(t, s, b.ID, note("plan.md"))[0]
	paths := s.Paths()

	ids := func(entries []core.Entry) []string {
		out := make([]string, len(entries))
		for i, e := range entries {
			out[i] = e.ID
		}
		return out
	}

	tests := []struct {
		name string
		path []string
		want []string
	}{
		{name: "Full Path", path: []string{a.ID, b.ID, c.ID}, want: []string{a.ID, b.ID, c.ID}},
		{name: "Invalid Tail", path: []string{a.ID, b.ID, "gone"}, want: []string{a.ID, b.ID}},
		{name: "Gap Truncates", path: []string{a.ID, "gone", c.ID}, want: []string{a.ID}},
		{name: "Invalid Head", path: []string{"gone", b.ID}, want: []string{}},
		{name: "Root Is Not A Record", path: []string{core.RootID, a.ID}, want: []string{}},
		{name: "Empty", path: nil, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := paths.ResolveByID(ctx, tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}

	t.Run("By Name", func(t *testing.T) {
		got, err := paths.IDsFromNames(ctx, []string{"Projects", "nook", "missing.md"})
		require.NoError(t, err)
		assert.Equal(t, []string{a.ID, b.ID}, got)

		got, err = paths.IDsFromNames(ctx, []string{"missing"})
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("Breadcrumbs", func(t *testing.T) {
		names, err := paths.NamesFromIDs(ctx, []string{a.ID, b.ID, c.ID})
		require.NoError(t, err)
		assert.Equal(t, []string{"Projects", "nook", "plan.md"}, names)
	})

	t.Run("Stale After Remove", func(t *testing.T) {
		require.NoError(t, s.RemoveEntries(ctx, []string{b.ID}))
		got, err := paths.ResolveByID(ctx, []string{a.ID, b.ID, c.ID})
		require.NoError(t, err)
		assert.Equal(t, []string{a.ID}, ids(got))
	})
}

func TestResolveNamePath(t *testing.T) {
	ctx := context.Background()
	s := setup(t, core.WithIDGenerator(sequentialIDs())).store

	notes := mustCreate(t, s, core.RootID, dir("Notes"))[0]
	inNotes := mustCreate(t, s, notes.ID, note("todo.txt"))[0]
	work := mustCreate(t, s, core.RootID, dir("Work"))[0]
	inWork := mustCreate(t, s, work.ID, note("todo.txt"))[0]
	require.Less(t, inNotes.ID, inWork.ID)
	paths := s.Paths()

	got, err := paths.ResolveNamePath(ctx, []string{"Work", "todo.txt"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, work.ID, got[0].ID)
	assert.Equal(t, inWork.ID, got[1].ID)

	got, err = paths.ResolveNamePath(ctx, []string{"Notes", "todo.txt"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, inNotes.ID, got[1].ID)

	t.Run("Segment Must Be A Child", func(t *testing.T) {
		got, err := paths.ResolveNamePath(ctx, []string{"todo.txt"})
		require.NoError(t, err)
		assert.Empty(t, got)

		mustCreate(t, s, notes.ID, dir("Archive"))
		got, err = paths.ResolveNamePath(ctx, []string{"Work", "Archive"})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, work.ID, got[0].ID)
	})

	t.Run("Leaf Ends The Walk", func(t *testing.T) {
		got, err := paths.ResolveNamePath(ctx, []string{"Work", "todo.txt", "deeper"})
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})
}
