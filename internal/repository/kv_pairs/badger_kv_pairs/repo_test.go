package badger_kv_pairs_test

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/dgraph-io/badger"
	"github.com/horockey/kvstore/internal/model"
	"github.com/horockey/kvstore/internal/repository/kv_pairs"
	"github.com/horockey/kvstore/internal/repository/kv_pairs/badger_kv_pairs"
	"github.com/horockey/kvstore/internal/repository/kv_pairs/kvtest"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupDB(t *testing.T) *badger.DB {
	t.Helper()

	db, err := badger_kv_pairs.Open(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)

	return db
}

func Test_Repository(t *testing.T) {
	kvtest.RunRepositoryTests(t, func(t *testing.T) kv_pairs.Repository[any] {
		repo := badger_kv_pairs.New[any](setupDB(t))
		t.Cleanup(func() {
			_ = repo.Close(context.Background())
		})
		return repo
	})
}

func Test_AddOrUpdate_StoresJSON(t *testing.T) {
	db := setupDB(t)
	defer func() { _ = db.Close() }()

	repo := badger_kv_pairs.New[string](db)
	err := repo.AddOrUpdate(context.Background(), model.KVPair[string]{
		Key:      "test_key",
		Value:    "test_value",
		Modified: time.Now(),
	})
	require.NoError(t, err)

	stored := struct {
		Key   string `json:"key"`
		Value string `json:"value"`
	}{}
	err = db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte("v:test_key"))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &stored)
		})
	})
	require.NoError(t, err)

	assert.Equal(t, "test_key", stored.Key)
	assert.Equal(t, "test_value", stored.Value)
}

func Test_Remove_DeletesBothEntries(t *testing.T) {
	db := setupDB(t)
	defer func() { _ = db.Close() }()

	repo := badger_kv_pairs.New[string](db)
	ctx := context.Background()

	require.NoError(t, repo.AddOrUpdate(ctx, model.KVPair[string]{Key: "test_key", Value: "v", Modified: time.Now()}))
	require.NoError(t, repo.Remove(ctx, "test_key"))

	for _, k := range []string{"v:test_key", "m:test_key"} {
		err := db.View(func(txn *badger.Txn) error {
			_, err := txn.Get([]byte(k))
			return err
		})
		assert.ErrorIs(t, err, badger.ErrKeyNotFound, k)
	}
}

func Test_Open_BadDir(t *testing.T) {
	dir := t.TempDir() + "/file"
	require.NoError(t, os.WriteFile(dir, []byte("not a dir"), 0o600))

	_, err := badger_kv_pairs.Open(dir, zerolog.Nop())
	require.Error(t, err)
	assert.ErrorAs(t, err, &model.ConnectionError{})
}
