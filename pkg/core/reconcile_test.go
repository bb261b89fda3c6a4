package core_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/nook/pkg/core"
)

func TestReconcile(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	s := f.store

	kept := mustCreate(t, s, core.RootID, dir("Kept"))[0]
	mustCreate(t, s, kept.ID, note("fine.md"))

	root, err := f.content.Root(ctx)
	require.NoError(t, err)

	// Content without a record, with a nested node that must not be listed twice.
	ghost, err := f.content.CreateDirectory(ctx, root, "ghost")
	require.NoError(t, err)
	_, err = f.content.CreateLeaf(ctx, ghost, "ghost-child")
	require.NoError(t, err)

	// A record without content.
	now := time.Now()
	require.NoError(t, f.index.Add(ctx, core.Entry{
		ID: "lost", Name: "lost.md", Type: core.TypeNote, Parent: core.RootID, Created: now, Modified: now,
	}))

	// A record whose type disagrees with its node.
	require.NoError(t, f.index.Add(ctx, core.Entry{
		ID: "shape", Name: "shape", Type: core.TypeNote, Parent: core.RootID, Created: now, Modified: now,
	}))
	_, err = f.content.CreateDirectory(ctx, root, "shape")
	require.NoError(t, err)

	report, err := s.Reconcile(ctx, false)
	require.NoError(t, err)
	assert.False(t, report.Clean())
	assert.False(t, report.Pruned)
	assert.Equal(t, []string{"ghost"}, report.OrphanContent)
	assert.Equal(t, []string{"lost"}, report.OrphanMetadata)
	assert.Equal(t, []string{"shape"}, report.KindMismatch)

	listing, err := s.ListDirectory(ctx, core.RootID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Kept"}, names(listing.Directories), "orphans stay hidden")

	report, err = s.Reconcile(ctx, true)
	require.NoError(t, err)
	assert.True(t, report.Pruned)

	children, err := s.Children(ctx, core.RootID)
	require.NoError(t, err)
	assert.NotContains(t, children, "ghost")

	_, ok, err := s.GetEntry(ctx, "lost")
	require.NoError(t, err)
	assert.False(t, ok)

	report, err = s.Reconcile(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, report.OrphanContent)
	assert.Empty(t, report.OrphanMetadata)
	assert.Equal(t, []string{"shape"}, report.KindMismatch, "mismatches are never pruned")
}
