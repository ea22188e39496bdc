package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/and161185/goalkeeper/internal/goals"
	"github.com/and161185/goalkeeper/internal/model"
)

type store interface {
	goals.Cache
	Delete(ctx context.Context, userID uuid.UUID) error
	Close() error
}

var (
	_ goals.Cache = (*SQLite)(nil)
	_ goals.Cache = (*Memory)(nil)
)

func openStores(t *testing.T) map[string]store {
	t.Helper()
	sq, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "nested", "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sq.Close() })
	return map[string]store{"sqlite": sq, "memory": NewMemory()}
}

func sample(uid uuid.UUID) []model.Goal {
	return []model.Goal{
		{ID: uuid.Must(uuid.NewV4()), UserID: uid, Text: "Exercise", Completed: true, CreatedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)},
		{UserID: uid, Text: "Local only"},
	}
}

func TestCache_GetSetDelete(t *testing.T) {
	ctx := context.Background()
	for name, c := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			u1, u2 := uuid.Must(uuid.NewV4()), uuid.Must(uuid.NewV4())

			_, ok, err := c.Get(ctx, u1)
			require.NoError(t, err)
			assert.False(t, ok)

			want := sample(u1)
			require.NoError(t, c.Set(ctx, u1, want))
			got, ok, err := c.Get(ctx, u1)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, want, got)

			_, ok, err = c.Get(ctx, u2)
			require.NoError(t, err)
			assert.False(t, ok, "lists are scoped per user")

			require.NoError(t, c.Set(ctx, u1, want[:1]))
			got, _, err = c.Get(ctx, u1)
			require.NoError(t, err)
			assert.Len(t, got, 1)

			require.NoError(t, c.Set(ctx, u1, nil))
			got, ok, err = c.Get(ctx, u1)
			require.NoError(t, err)
			assert.True(t, ok, "an empty list is still a stored list")
			assert.Empty(t, got)

			require.NoError(t, c.Delete(ctx, u1))
			_, ok, err = c.Get(ctx, u1)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestMemory_CopiesLists(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()
	uid := uuid.Must(uuid.NewV4())
	in := sample(uid)
	require.NoError(t, c.Set(ctx, uid, in))
	in[0].Text = "mutated"

	got, _, err := c.Get(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, "Exercise", got[0].Text)
	got[1].Text = "mutated"

	again, _, err := c.Get(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, "Local only", again[1].Text)
}

func TestSQLite_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.db")
	uid := uuid.Must(uuid.NewV4())

	c, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	require.NoError(t, c.Set(ctx, uid, sample(uid)))
	require.NoError(t, c.Close())

	c, err = OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer c.Close()
	got, ok, err := c.Get(ctx, uid)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, sample(uid)[0].Text, got[0].Text)
	assert.Equal(t, "goals_"+uid.String(), Key(uid))
}
