package task

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/relaygw/relay/pkg/fault"
	"github.com/relaygw/relay/pkg/storage"

	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T) *Store {
	t.Helper()

	db, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)

	t.Cleanup(func() { db.Close() })

	store, err := NewStore(db)
	require.NoError(t, err)

	return store
}

func testDefinition(id string) Definition {
	return Definition{
		ID: id,

		Title:   "briefing",
		Request: "summarize the news",

		Interval: 5 * time.Minute,

		ExecuteImmediately: true,

		Provider: "anthropic",
		Model:    "claude-sonnet-4-5",

		CreatedAt: time.Now(),
	}
}

func TestSaveAndGet(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	def := testDefinition("t1")

	require.NoError(t, store.Save(ctx, def))

	got, sessionID, err := store.Get(ctx, "t1")
	require.NoError(t, err)

	require.Equal(t, def.Title, got.Title)
	require.Equal(t, def.Request, got.Request)
	require.Equal(t, def.Interval, got.Interval)
	require.True(t, got.ExecuteImmediately)
	require.Equal(t, "anthropic", got.Provider)
	require.Empty(t, sessionID)
}

func TestSavePreservesBinding(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	def := testDefinition("t1")

	require.NoError(t, store.Save(ctx, def))
	require.NoError(t, store.Bind(ctx, "t1", "s1"))

	// A re-save of the definition must not clear the session binding.
	def.Title = "renamed"
	require.NoError(t, store.Save(ctx, def))

	got, sessionID, err := store.Get(ctx, "t1")
	require.NoError(t, err)

	require.Equal(t, "renamed", got.Title)
	require.Equal(t, "s1", sessionID)
}

func TestBindUnknownTask(t *testing.T) {
	store := testStore(t)

	err := store.Bind(context.Background(), "missing", "s1")
	require.Error(t, err)
	require.Equal(t, fault.KindNotFound, fault.KindOf(err))
}

func TestDeleteUnknownTask(t *testing.T) {
	store := testStore(t)

	err := store.Delete(context.Background(), "missing")
	require.Error(t, err)
	require.Equal(t, fault.KindNotFound, fault.KindOf(err))
}

func TestListWithBindings(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, testDefinition("t1")))
	require.NoError(t, store.Save(ctx, testDefinition("t2")))
	require.NoError(t, store.Bind(ctx, "t2", "s2"))

	defs, bindings, err := store.List(ctx)
	require.NoError(t, err)

	require.Len(t, defs, 2)
	require.Len(t, bindings, 1)
	require.Equal(t, "s2", bindings["t2"])
}

func TestValidate(t *testing.T) {
	def := Definition{}

	err := def.Validate()
	require.Error(t, err)
	require.Equal(t, fault.KindValidation, fault.KindOf(err))

	def = testDefinition("t1")
	require.NoError(t, def.Validate())

	def.Interval = 0
	require.Error(t, def.Validate())
}
