package http_kv_service_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/horockey/kvstore/internal/controller/http_controller"
	"github.com/horockey/kvstore/internal/gateway/kv_service/http_kv_service"
	"github.com/horockey/kvstore/internal/model"
	"github.com/horockey/kvstore/internal/processor"
	"github.com/horockey/kvstore/internal/repository/kv_pairs/inmemory_kv_pairs"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, apiKey string) *httptest.Server {
	t.Helper()

	ctrl, err := http_controller.New[any](
		"127.0.0.1:0",
		processor.New[any](inmemory_kv_pairs.New[any](), zerolog.Nop()),
		zerolog.Nop(),
		http_controller.WithAPIKey(apiKey),
	)
	require.NoError(t, err)

	srv := httptest.NewServer(ctrl.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func Test_Gateway_RoundTrip(t *testing.T) {
	srv := newServer(t, "key")
	gw := http_kv_service.New[any](srv.URL, "key", time.Second, zerolog.Nop())
	ctx := context.Background()

	require.NoError(t, gw.Health(ctx))

	stored, err := gw.Set(ctx, "a", "1")
	require.NoError(t, err)
	assert.Equal(t, model.KVPair[any]{Key: "a", Value: "1"}, stored)

	got, err := gw.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "1", got.Value)

	keys, err := gw.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, keys)

	require.NoError(t, gw.Remove(ctx, "a"))

	_, err = gw.Get(ctx, "a")
	assert.ErrorAs(t, err, &model.KeyNotFoundError{})

	assert.NotEmpty(t, gw.Metrics())
}

func Test_Gateway_Validation(t *testing.T) {
	srv := newServer(t, "")
	gw := http_kv_service.New[any](srv.URL, "", time.Second, zerolog.Nop())

	_, err := gw.Set(context.Background(), "", "1")
	assert.ErrorAs(t, err, &model.ValidationError{})

	for _, key := range []string{"a/b", ".."} {
		_, err = gw.Set(context.Background(), key, "1")
		assert.ErrorAs(t, err, &model.ValidationError{})

		_, err = gw.Get(context.Background(), key)
		assert.ErrorAs(t, err, &model.ValidationError{})
		assert.False(t, errors.As(err, &model.KeyNotFoundError{}))

		assert.ErrorAs(t, gw.Remove(context.Background(), key), &model.ValidationError{})
	}
}

func Test_Gateway_WrongAPIKey(t *testing.T) {
	srv := newServer(t, "key")
	gw := http_kv_service.New[any](srv.URL, "other", time.Second, zerolog.Nop())

	_, err := gw.Get(context.Background(), "a")
	require.Error(t, err)
	assert.False(t, errors.As(err, &model.KeyNotFoundError{}))
}

func Test_Gateway_HealthDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	gw := http_kv_service.New[any](srv.URL, "", time.Second, zerolog.Nop())
	assert.Error(t, gw.Health(context.Background()))
}
