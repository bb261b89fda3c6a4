package lifecycle_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/nook/pkg/adapters/lifecycle"
	"github.com/aretw0/nook/pkg/core"
)

func collect(t *testing.T, types ...core.EventType) []string {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	in := make(chan core.Event, 3)
	in <- core.Event{Type: core.EventCreate, ID: "a"}
	in <- core.Event{Type: core.EventModify, ID: "a"}
	in <- core.Event{Type: core.EventDelete, ID: "b"}
	close(in)

	src := lifecycle.NewSource(in, types...)
	require.NoError(t, src.Start(ctx))

	var got []string
	timeout := time.After(2 * time.Second)
	for {
		select {
		case e, ok := <-src.Events():
			if !ok {
				return got
			}
			got = append(got, e.String())
		case <-timeout:
			t.Fatal("timed out waiting for events")
		}
	}
}

func TestSourceForwardsEvents(t *testing.T) {
	assert.Equal(t, []string{"CREATE a", "MODIFY a", "DELETE b"}, collect(t))
}

func TestSourceFiltersTypes(t *testing.T) {
	assert.Equal(t, []string{"CREATE a", "DELETE b"}, collect(t, core.EventCreate, core.EventDelete))
}

func TestSourceStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	src := lifecycle.NewSource(make(chan core.Event))
	require.NoError(t, src.Start(ctx))
	cancel()

	select {
	case _, ok := <-src.Events():
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("source did not close after cancel")
	}
}
