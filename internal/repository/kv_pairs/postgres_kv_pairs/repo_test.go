package postgres_kv_pairs_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/horockey/kvstore/internal/model"
	"github.com/horockey/kvstore/internal/repository/kv_pairs"
	"github.com/horockey/kvstore/internal/repository/kv_pairs/kvtest"
	"github.com/horockey/kvstore/internal/repository/kv_pairs/postgres_kv_pairs"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Set KVSTORE_TEST_POSTGRES_HOST, _DB, _USER and _PASSWORD to run against a live server.
const hostEnv = "KVSTORE_TEST_POSTGRES_HOST"

func Test_ConnParams_URI(t *testing.T) {
	p := postgres_kv_pairs.ConnParams{
		Host:     "db:5432",
		Database: "kv",
		Username: "user",
		Password: "p@ss word",
	}
	assert.Equal(t, "postgres://user:p%40ss%20word@db:5432/kv?sslmode=disable", p.URI())
}

func Test_Connect_Unreachable(t *testing.T) {
	_, err := postgres_kv_pairs.Connect(context.Background(), postgres_kv_pairs.ConnParams{
		Host:     "127.0.0.1:1",
		Database: "kv",
		Username: "user",
		Password: "pass",
		Timeout:  300 * time.Millisecond,
	}, zerolog.Nop())

	require.Error(t, err)
	assert.ErrorAs(t, err, &model.ConnectionError{})
}

func Test_Repository(t *testing.T) {
	host := os.Getenv(hostEnv)
	if host == "" {
		t.Skipf("%s not set", hostEnv)
	}

	kvtest.RunRepositoryTests(t, func(t *testing.T) kv_pairs.Repository[any] {
		ctx := context.Background()

		pool, err := postgres_kv_pairs.Connect(ctx, postgres_kv_pairs.ConnParams{
			Host:     host,
			Database: os.Getenv("KVSTORE_TEST_POSTGRES_DB"),
			Username: os.Getenv("KVSTORE_TEST_POSTGRES_USER"),
			Password: os.Getenv("KVSTORE_TEST_POSTGRES_PASSWORD"),
			Timeout:  5 * time.Second,
		}, zerolog.Nop())
		require.NoError(t, err)

		table := fmt.Sprintf("kv_%d", time.Now().UnixNano())
		repo := postgres_kv_pairs.New[any](pool, table)
		require.NoError(t, repo.EnsureSchema(ctx))

		t.Cleanup(func() {
			_, _ = pool.Exec(ctx, "DROP TABLE IF EXISTS "+table)
			_ = repo.Close(ctx)
		})
		return repo
	})
}
