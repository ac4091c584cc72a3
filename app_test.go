package kvstore_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/horockey/kvstore"
	"github.com/horockey/kvstore/internal/config"
	"github.com/horockey/kvstore/internal/repository/kv_pairs/inmemory_kv_pairs"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_NewApp_NilRepo(t *testing.T) {
	_, err := kvstore.NewApp[any](nil)
	assert.Error(t, err)
}

func Test_NewApp_BadOpts(t *testing.T) {
	_, err := kvstore.NewApp[any](inmemory_kv_pairs.New[any](), kvstore.WithPort(-1))
	assert.Error(t, err)
}

func Test_App_Metrics(t *testing.T) {
	app, err := kvstore.NewApp[any](
		inmemory_kv_pairs.New[any](),
		kvstore.WithLogger(zerolog.Nop()),
		kvstore.WithAppName("metrics-test"),
	)
	require.NoError(t, err)

	h := app.Controller().Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/store", strings.NewReader(`{"key":"a","value":"1"}`)))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "http_controller_requests_cnt")
	assert.Contains(t, string(body), "inmemory_kv_pairs_repo_size_items_gauge")
}

func Test_App_StartStop(t *testing.T) {
	app, err := kvstore.NewApp[any](
		inmemory_kv_pairs.New[any](),
		kvstore.WithLogger(zerolog.Nop()),
		kvstore.WithPort(freePort(t)),
	)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(200*time.Millisecond, cancel)

	assert.NoError(t, app.Start(ctx))
}

func Test_Connect_Memory(t *testing.T) {
	repo, err := kvstore.Connect[any](context.Background(), config.Config{
		Backend:        config.BackendMemory,
		ConnectTimeout: time.Second,
	}, zerolog.Nop())
	require.NoError(t, err)

	_, err = kvstore.NewApp(repo, kvstore.WithLogger(zerolog.Nop()))
	assert.NoError(t, err)
}

func Test_Connect_Badger(t *testing.T) {
	repo, err := kvstore.Connect[any](context.Background(), config.Config{
		Backend:        config.BackendBadger,
		BadgerDir:      t.TempDir(),
		ConnectTimeout: time.Second,
	}, zerolog.Nop())
	require.NoError(t, err)
	assert.NoError(t, repo.Close(context.Background()))
}

func Test_Connect_MongoUnreachable(t *testing.T) {
	_, err := kvstore.Connect[any](context.Background(), config.Config{
		Backend:        config.BackendMongo,
		MongoHost:      "127.0.0.1:1",
		Database:       "kv",
		Username:       "wrong",
		Password:       "creds",
		Collection:     "keyvalues",
		ConnectTimeout: 300 * time.Millisecond,
	}, zerolog.Nop())

	require.Error(t, err)
	assert.ErrorAs(t, err, &kvstore.ConnectionError{})
}
