package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idealoop/ideas/internal/storage"
	"github.com/idealoop/ideas/internal/types"
)

func newTestStore(t *testing.T) *SQLiteStorage {
	t.Helper()
	store, err := New(context.Background(), filepath.Join(t.TempDir(), "ideas.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func insertIdea(t *testing.T, store *SQLiteStorage, content string, status types.Status) *types.Idea {
	t.Helper()
	idea := &types.Idea{Content: content, Status: status}
	err := store.RunInTransaction(context.Background(), func(tx storage.Transaction) error {
		if err := tx.InsertIdea(context.Background(), idea); err != nil {
			return err
		}
		_, err := tx.AppendMessage(context.Background(), idea.ID, types.KindSystemEvent, "Idea created")
		return err
	})
	require.NoError(t, err)
	return idea
}

func TestInsertAndGetIdea(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	idea := insertIdea(t, store, "write a parser", types.StatusDraft)
	assert.NotZero(t, idea.ID)
	assert.False(t, idea.CreatedAt.IsZero())

	got, err := store.GetIdea(ctx, idea.ID)
	require.NoError(t, err)
	assert.Equal(t, "write a parser", got.Content)
	assert.Equal(t, types.StatusDraft, got.Status)
	assert.Empty(t, got.OwnerAgent)
	assert.True(t, idea.CreatedAt.Equal(got.CreatedAt), "created_at %v != %v", idea.CreatedAt, got.CreatedAt)
}

func TestGetIdeaNotFound(t *testing.T) {
	store := newTestStore(t)
	_, err := store.GetIdea(context.Background(), 999)
	assert.True(t, errors.Is(err, storage.ErrNotFound))
}

func TestInMemoryStoresAreIsolated(t *testing.T) {
	ctx := context.Background()
	open := func() *SQLiteStorage {
		store, err := New(ctx, ":memory:")
		require.NoError(t, err)
		t.Cleanup(func() { _ = store.Close() })
		return store
	}
	a, b := open(), open()

	idea := insertIdea(t, a, "only in a", types.StatusDraft)
	_, err := a.GetIdea(ctx, idea.ID)
	require.NoError(t, err)

	_, err = b.GetIdea(ctx, idea.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestInsertIdeaValidates(t *testing.T) {
	store := newTestStore(t)
	err := store.RunInTransaction(context.Background(), func(tx storage.Transaction) error {
		return tx.InsertIdea(context.Background(), &types.Idea{Content: "  ", Status: types.StatusDraft})
	})
	assert.Error(t, err)
}

func TestRollbackOnError(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	idea := insertIdea(t, store, "x", types.StatusDraft)

	boom := errors.New("boom")
	err := store.RunInTransaction(ctx, func(tx storage.Transaction) error {
		current, err := tx.GetIdeaForUpdate(ctx, idea.ID)
		if err != nil {
			return err
		}
		current.Status = types.StatusPending
		if err := tx.UpdateIdea(ctx, current); err != nil {
			return err
		}
		if _, err := tx.AppendMessage(ctx, idea.ID, types.KindSystemEvent, "[draft -> pending] Execution requested"); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := store.GetIdea(ctx, idea.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusDraft, got.Status)
	msgs, err := store.ListMessages(ctx, idea.ID)
	require.NoError(t, err)
	assert.Len(t, msgs, 1)
}

func TestRollbackOnPanic(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	idea := insertIdea(t, store, "x", types.StatusDraft)

	assert.Panics(t, func() {
		_ = store.RunInTransaction(ctx, func(tx storage.Transaction) error {
			_, _ = tx.AppendMessage(ctx, idea.ID, types.KindUserInput, "lost")
			panic("boom")
		})
	})

	msgs, err := store.ListMessages(ctx, idea.ID)
	require.NoError(t, err)
	assert.Len(t, msgs, 1)
}

func TestUpdateIdeaMissing(t *testing.T) {
	store := newTestStore(t)
	err := store.RunInTransaction(context.Background(), func(tx storage.Transaction) error {
		return tx.UpdateIdea(context.Background(), &types.Idea{ID: 42, Content: "x", Status: types.StatusDraft})
	})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestListMessagesOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	idea := insertIdea(t, store, "x", types.StatusDraft)

	err := store.RunInTransaction(ctx, func(tx storage.Transaction) error {
		for _, c := range []string{"one", "two", "three"} {
			if _, err := tx.AppendMessage(ctx, idea.ID, types.KindUserInput, c); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	first, err := store.ListMessages(ctx, idea.ID)
	require.NoError(t, err)
	second, err := store.ListMessages(ctx, idea.ID)
	require.NoError(t, err)

	var contents []string
	for _, m := range first {
		contents = append(contents, m.Content)
	}
	assert.Equal(t, []string{"Idea created", "one", "two", "three"}, contents)
	assert.Equal(t, first, second)
	for i := 1; i < len(first); i++ {
		assert.Less(t, first[i-1].ID, first[i].ID)
	}
}

func TestAppendMessageRejectsUnknownKind(t *testing.T) {
	store := newTestStore(t)
	idea := insertIdea(t, store, "x", types.StatusDraft)
	err := store.RunInTransaction(context.Background(), func(tx storage.Transaction) error {
		_, err := tx.AppendMessage(context.Background(), idea.ID, types.MessageKind("note"), "x")
		return err
	})
	assert.Error(t, err)
}

func TestListIdeasFilterAndOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	a := insertIdea(t, store, "a", types.StatusDraft)
	b := insertIdea(t, store, "b", types.StatusPending)
	c := insertIdea(t, store, "c", types.StatusWaitingAgent)

	all, err := store.ListIdeas(ctx, types.IdeaFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []int64{c.ID, b.ID, a.ID}, ids(all))

	pending := types.StatusPending
	only, err := store.ListIdeas(ctx, types.IdeaFilter{Status: &pending})
	require.NoError(t, err)
	assert.Equal(t, []int64{b.ID}, ids(only))

	poll, err := store.ListIdeas(ctx, types.IdeaFilter{
		Statuses: []types.Status{types.StatusPending, types.StatusWaitingAgent},
		OrderBy:  types.OrderLeastRecentlyUpdated,
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{b.ID, c.ID}, ids(poll))

	limited, err := store.ListIdeas(ctx, types.IdeaFilter{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, []int64{c.ID}, ids(limited))
}

func TestDeleteIdeaCascades(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	idea := insertIdea(t, store, "x", types.StatusDraft)

	require.NoError(t, store.DeleteIdea(ctx, idea.ID))
	_, err := store.GetIdea(ctx, idea.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	msgs, err := store.ListMessages(ctx, idea.ID)
	require.NoError(t, err)
	assert.Empty(t, msgs)

	assert.ErrorIs(t, store.DeleteIdea(ctx, idea.ID), storage.ErrNotFound)
}

func TestClosedStore(t *testing.T) {
	store, err := New(context.Background(), filepath.Join(t.TempDir(), "ideas.db"))
	require.NoError(t, err)
	require.NoError(t, store.Close())
	require.NoError(t, store.Close())
	assert.ErrorIs(t, store.Ping(context.Background()), storage.ErrClosed)
}

func TestIsBusyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"locked", errors.New("database is locked"), true},
		{"busy code", errors.New("sqlite3: SQLITE_BUSY"), true},
		{"other", errors.New("no such table: ideas"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isBusyError(tt.err))
		})
	}
}

func ids(ideas []*types.Idea) []int64 {
	out := make([]int64, len(ideas))
	for i, idea := range ideas {
		out[i] = idea.ID
	}
	return out
}
