// Package kvtest holds the behaviour every kv_pairs.Repository backend must
// share. Backend packages call RunRepositoryTests from their own tests.
package kvtest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/horockey/kvstore/internal/model"
	"github.com/horockey/kvstore/internal/repository/kv_pairs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RepoFactory returns a fresh, empty repository. Cleanup is the factory's job.
type RepoFactory func(t *testing.T) kv_pairs.Repository[any]

func RunRepositoryTests(t *testing.T, factory RepoFactory) {
	t.Helper()

	t.Run("GetMissing", func(t *testing.T) { testGetMissing(t, factory(t)) })
	t.Run("SetGetString", func(t *testing.T) { testSetGetString(t, factory(t)) })
	t.Run("SetGetDocument", func(t *testing.T) { testSetGetDocument(t, factory(t)) })
	t.Run("Overwrite", func(t *testing.T) { testOverwrite(t, factory(t)) })
	t.Run("SetIdempotent", func(t *testing.T) { testSetIdempotent(t, factory(t)) })
	t.Run("RemoveThenGet", func(t *testing.T) { testRemoveThenGet(t, factory(t)) })
	t.Run("RemoveMissing", func(t *testing.T) { testRemoveMissing(t, factory(t)) })
	t.Run("GetAllNoValue", func(t *testing.T) { testGetAllNoValue(t, factory(t)) })
	t.Run("Metrics", func(t *testing.T) { testMetrics(t, factory(t)) })
}

func kvp(key string, value any) model.KVPair[any] {
	return model.KVPair[any]{
		Key:      key,
		Value:    value,
		Modified: time.Now().UTC().Truncate(time.Millisecond),
	}
}

func testGetMissing(t *testing.T, repo kv_pairs.Repository[any]) {
	res, err := repo.Get(context.Background(), "nonexistent_key")

	assert.Empty(t, res)
	require.Error(t, err)

	nfErr := model.KeyNotFoundError{}
	require.True(t, errors.As(err, &nfErr))
	assert.Equal(t, "nonexistent_key", nfErr.Key)
}

func testSetGetString(t *testing.T, repo kv_pairs.Repository[any]) {
	ctx := context.Background()
	in := kvp("a", "1")

	require.NoError(t, repo.AddOrUpdate(ctx, in))

	res, err := repo.Get(ctx, "a")
	require.NoError(t, err)

	assert.Equal(t, "a", res.Key)
	assert.Equal(t, "1", res.Value)
	assert.WithinDuration(t, in.Modified, res.Modified, time.Second)
}

func testSetGetDocument(t *testing.T, repo kv_pairs.Repository[any]) {
	ctx := context.Background()
	doc := map[string]any{
		"name": "alice",
		"tags": []any{"x", "y"},
		"nested": map[string]any{
			"ok": true,
		},
	}

	require.NoError(t, repo.AddOrUpdate(ctx, kvp("doc", doc)))

	res, err := repo.Get(ctx, "doc")
	require.NoError(t, err)

	got, ok := res.Value.(map[string]any)
	require.True(t, ok, "document value must come back as map, got %T", res.Value)
	assert.Equal(t, "alice", got["name"])
	assert.ElementsMatch(t, []any{"x", "y"}, got["tags"])

	nested, ok := got["nested"].(map[string]any)
	require.True(t, ok, "nested document must come back as map, got %T", got["nested"])
	assert.Equal(t, true, nested["ok"])
}

func testOverwrite(t *testing.T, repo kv_pairs.Repository[any]) {
	ctx := context.Background()

	require.NoError(t, repo.AddOrUpdate(ctx, kvp("k", "old")))
	require.NoError(t, repo.AddOrUpdate(ctx, kvp("k", "new")))

	res, err := repo.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "new", res.Value)

	all, err := repo.GetAllNoValue(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func testSetIdempotent(t *testing.T, repo kv_pairs.Repository[any]) {
	ctx := context.Background()
	in := kvp("same", "value")

	require.NoError(t, repo.AddOrUpdate(ctx, in))
	first, err := repo.Get(ctx, "same")
	require.NoError(t, err)

	require.NoError(t, repo.AddOrUpdate(ctx, in))
	second, err := repo.Get(ctx, "same")
	require.NoError(t, err)

	assert.Equal(t, first.Value, second.Value)
}

func testRemoveThenGet(t *testing.T, repo kv_pairs.Repository[any]) {
	ctx := context.Background()

	require.NoError(t, repo.AddOrUpdate(ctx, kvp("gone", "soon")))
	require.NoError(t, repo.Remove(ctx, "gone"))

	_, err := repo.Get(ctx, "gone")
	assert.True(t, errors.As(err, &model.KeyNotFoundError{}))
}

func testRemoveMissing(t *testing.T, repo kv_pairs.Repository[any]) {
	assert.NoError(t, repo.Remove(context.Background(), "never_set"))
}

func testGetAllNoValue(t *testing.T, repo kv_pairs.Repository[any]) {
	ctx := context.Background()

	for _, k := range []string{"b", "a", "c"} {
		require.NoError(t, repo.AddOrUpdate(ctx, kvp(k, "v-"+k)))
	}

	all, err := repo.GetAllNoValue(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)

	keys := make([]string, 0, len(all))
	for _, el := range all {
		assert.Nil(t, el.Value)
		assert.False(t, el.Modified.IsZero())
		keys = append(keys, el.Key)
	}
	assert.ElementsMatch(t, []string{"a", "b", "c"}, keys)
}

func testMetrics(t *testing.T, repo kv_pairs.Repository[any]) {
	assert.NotEmpty(t, repo.Metrics())
}
