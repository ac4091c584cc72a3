package processor_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/horockey/kvstore/internal/model"
	"github.com/horockey/kvstore/internal/processor"
	"github.com/horockey/kvstore/internal/repository/kv_pairs"
	"github.com/horockey/kvstore/internal/repository/kv_pairs/inmemory_kv_pairs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingRepo fails every call with the same error.
type failingRepo struct {
	err error
}

var _ kv_pairs.Repository[any] = failingRepo{}

func (r failingRepo) Get(context.Context, string) (model.KVPair[any], error) {
	return model.KVPair[any]{}, r.err
}
func (r failingRepo) AddOrUpdate(context.Context, model.KVPair[any]) error { return r.err }
func (r failingRepo) Remove(context.Context, string) error { return r.err }
func (r failingRepo) GetAllNoValue(context.Context) ([]model.KVPair[any], error) {
	return nil, r.err
}
func (r failingRepo) Close(context.Context) error { return nil }
func (r failingRepo) Metrics() []prometheus.Collector { return nil }

func newProc() *processor.Processor[any] {
	return processor.New[any](inmemory_kv_pairs.New[any](), zerolog.Nop())
}

func Test_SetGet_RoundTrip(t *testing.T) {
	pr := newProc()
	ctx := context.Background()

	for _, v := range []any{"1", 42.0, map[string]any{"a": "b"}, []any{"x"}} {
		stored, err := pr.Set(ctx, "key", v)
		require.NoError(t, err)
		assert.Equal(t, v, stored.Value)
		assert.WithinDuration(t, time.Now(), stored.Modified, time.Second)

		got, err := pr.Get(ctx, "key")
		require.NoError(t, err)
		assert.Equal(t, v, got.Value)
	}
}

func Test_Set_EmptyKey(t *testing.T) {
	pr := newProc()

	for _, key := range []string{"", "   "} {
		_, err := pr.Set(context.Background(), key, "v")
		require.Error(t, err)

		vErr := model.ValidationError{}
		require.True(t, errors.As(err, &vErr))
		assert.Equal(t, "key", vErr.Field)
	}
}

func Test_UnaddressableKey(t *testing.T) {
	pr := newProc()
	ctx := context.Background()

	for _, key := range []string{"a/b", "/", "a/", ".", ".."} {
		t.Run(key, func(t *testing.T) {
			_, err := pr.Set(ctx, key, "v")
			assert.ErrorAs(t, err, &model.ValidationError{})

			_, err = pr.Get(ctx, key)
			assert.ErrorAs(t, err, &model.ValidationError{})

			assert.ErrorAs(t, pr.Remove(ctx, key), &model.ValidationError{})
		})
	}

	keys, err := pr.Keys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)

	_, err = pr.Set(ctx, "a.b", "v")
	assert.NoError(t, err)
}

func Test_Get_Missing(t *testing.T) {
	_, err := newProc().Get(context.Background(), "missing")

	assert.ErrorAs(t, err, &model.KeyNotFoundError{})
	assert.Equal(t, "not_found", processor.ErrKind(err))
}

func Test_Remove_Idempotent(t *testing.T) {
	pr := newProc()
	ctx := context.Background()

	_, err := pr.Set(ctx, "a", "1")
	require.NoError(t, err)

	require.NoError(t, pr.Remove(ctx, "a"))
	require.NoError(t, pr.Remove(ctx, "a"))

	_, err = pr.Get(ctx, "a")
	assert.ErrorAs(t, err, &model.KeyNotFoundError{})
}

func Test_Keys_Sorted(t *testing.T) {
	pr := newProc()
	ctx := context.Background()

	for _, k := range []string{"c", "a", "b"} {
		_, err := pr.Set(ctx, k, k)
		require.NoError(t, err)
	}

	keys, err := pr.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, keys)
}

func Test_StorageFailure_IsUnknown(t *testing.T) {
	boom := errors.New("connection reset")
	pr := processor.New[any](failingRepo{err: boom}, zerolog.Nop())
	ctx := context.Background()

	_, err := pr.Get(ctx, "a")
	assert.ErrorAs(t, err, &model.UnknownError{})
	assert.ErrorIs(t, err, boom)

	_, err = pr.Set(ctx, "a", "1")
	assert.ErrorAs(t, err, &model.UnknownError{})

	err = pr.Remove(ctx, "a")
	assert.ErrorAs(t, err, &model.UnknownError{})
	assert.Equal(t, "unknown", processor.ErrKind(err))

	_, err = pr.Keys(ctx)
	assert.ErrorAs(t, err, &model.UnknownError{})
}

func Test_Metrics(t *testing.T) {
	assert.Len(t, newProc().Metrics(), 2)
}
