package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/nook/pkg/adapters/memory"
	"github.com/aretw0/nook/pkg/core"
)

func TestIndex(t *testing.T) {
	ctx := context.Background()
	x := memory.NewIndex()

	require.NoError(t, x.Add(ctx, core.Entry{ID: "b", Name: "dup", Type: core.TypeNote}))
	require.NoError(t, x.Add(ctx, core.Entry{ID: "a", Name: "dup", Type: core.TypeNote}))
	assert.ErrorIs(t, x.Add(ctx, core.Entry{ID: "a", Name: "again"}), core.ErrDuplicateID)
	assert.ErrorIs(t, x.Put(ctx, core.Entry{ID: core.RootID}), core.ErrRootEntry)

	t.Run("Get", func(t *testing.T) {
		got, err := x.Get(ctx, []string{"a", "zzz", core.RootID})
		require.NoError(t, err)
		assert.True(t, got[0].Present())
		assert.False(t, got[1].Present())
		assert.False(t, got[2].Present())
	})

	t.Run("Name Tie Break", func(t *testing.T) {
		got, err := x.GetByName(ctx, []string{"dup"})
		require.NoError(t, err)
		e, ok := got[0].Get()
		require.True(t, ok)
		assert.Equal(t, "a", e.ID)
	})

	t.Run("Rename Moves Name Index", func(t *testing.T) {
		require.NoError(t, x.Put(ctx, core.Entry{ID: "a", Name: "renamed", Type: core.TypeNote}))

		got, err := x.GetByName(ctx, []string{"dup", "renamed"})
		require.NoError(t, err)
		e, _ := got[0].Get()
		assert.Equal(t, "b", e.ID)
		e, _ = got[1].Get()
		assert.Equal(t, "a", e.ID)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, x.Delete(ctx, "b"))
		require.NoError(t, x.Delete(ctx, "b"))

		got, err := x.GetByName(ctx, []string{"dup"})
		require.NoError(t, err)
		assert.False(t, got[0].Present())

		all, err := x.All(ctx)
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, "a", all[0].ID)
		assert.Equal(t, 1, x.Len())
	})
}
