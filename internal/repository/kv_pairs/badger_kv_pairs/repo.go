package badger_kv_pairs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger"
	"github.com/horockey/kvstore/internal/model"
	"github.com/horockey/kvstore/internal/repository/kv_pairs"
	"github.com/prometheus/client_golang/prometheus"
)

var _ kv_pairs.Repository[any] = &badgerKVPairs[any]{}

// Every record is kept twice: the full pair under valuePrefix
// and only its metadata under metaPrefix, so listing never touches values.
const (
	valuePrefix = "v:"
	metaPrefix  = "m:"
)

type badgerKVPairs[V any] struct {
	db      *badger.DB
	metrics *metrics
}

type record[V any] struct {
	Key      string    `json:"key"`
	Value    V         `json:"value,omitempty"`
	Modified time.Time `json:"modified"`
}

func New[V any](db *badger.DB) *badgerKVPairs[V] {
	return &badgerKVPairs[V]{
		db:      db,
		metrics: newMetrics(db),
	}
}

func (repo *badgerKVPairs[V]) Metrics() []prometheus.Collector {
	return repo.metrics.list()
}

func (repo *badgerKVPairs[V]) Get(_ context.Context, key string) (resKV model.KVPair[V], resErr error) {
	defer func(ts time.Time) {
		repo.metrics.observe(ts, resErr)
		if resErr == nil {
			repo.metrics.keyHitsCnt.Inc()
		}
	}(time.Now())

	rec := record[V]{}
	if err := repo.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(valuePrefix + key))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return model.KeyNotFoundError{Key: key}
			}
			return fmt.Errorf("getting item: %w", err)
		}

		if err := item.Value(func(val []byte) error {
			if err := json.Unmarshal(val, &rec); err != nil {
				return fmt.Errorf("decoding json: %w", err)
			}
			return nil
		}); err != nil {
			return fmt.Errorf("getting value: %w", err)
		}

		return nil
	}); err != nil {
		return model.KVPair[V]{}, fmt.Errorf("reading from db: %w", err)
	}

	return model.KVPair[V]{
		Key:      key,
		Value:    rec.Value,
		Modified: rec.Modified,
	}, nil
}

func (repo *badgerKVPairs[V]) AddOrUpdate(_ context.Context, kvp model.KVPair[V]) (resErr error) {
	defer func(ts time.Time) {
		repo.metrics.observe(ts, resErr)
	}(time.Now())

	full, err := json.Marshal(record[V]{Key: kvp.Key, Value: kvp.Value, Modified: kvp.Modified})
	if err != nil {
		return fmt.Errorf("encoding json: %w", err)
	}

	meta, err := json.Marshal(record[V]{Key: kvp.Key, Modified: kvp.Modified})
	if err != nil {
		return fmt.Errorf("encoding meta json: %w", err)
	}

	if err := repo.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(valuePrefix+kvp.Key), full); err != nil {
			return fmt.Errorf("setting item to db: %w", err)
		}
		if err := txn.Set([]byte(metaPrefix+kvp.Key), meta); err != nil {
			return fmt.Errorf("setting meta item to db: %w", err)
		}
		return nil
	}); err != nil {
		return fmt.Errorf("performing upd txn: %w", err)
	}

	return nil
}

func (repo *badgerKVPairs[V]) Remove(_ context.Context, key string) (resErr error) {
	defer func(ts time.Time) {
		repo.metrics.observe(ts, resErr)
	}(time.Now())

	if err := repo.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete([]byte(valuePrefix + key)); err != nil {
			return fmt.Errorf("deleting item: %w", err)
		}

		if err := txn.Delete([]byte(metaPrefix + key)); err != nil {
			return fmt.Errorf("deleting meta item: %w", err)
		}

		return nil
	}); err != nil {
		return fmt.Errorf("performing del txn: %w", err)
	}

	return nil
}

func (repo *badgerKVPairs[V]) GetAllNoValue(_ context.Context) (resKVs []model.KVPair[V], resErr error) {
	defer func(ts time.Time) {
		repo.metrics.observe(ts, resErr)
	}(time.Now())

	resKVs = []model.KVPair[V]{}

	err := repo.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(metaPrefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			rec := record[V]{}
			if err := it.Item().Value(func(val []byte) error {
				if err := json.Unmarshal(val, &rec); err != nil {
					return fmt.Errorf("decoding json: %w", err)
				}
				return nil
			}); err != nil {
				return fmt.Errorf("getting value: %w", err)
			}

			resKVs = append(resKVs, model.KVPair[V]{Key: rec.Key, Modified: rec.Modified})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("performing view txn: %w", err)
	}

	return resKVs, nil
}

func (repo *badgerKVPairs[V]) Close(_ context.Context) error {
	if err := repo.db.Close(); err != nil {
		return fmt.Errorf("closing badger: %w", err)
	}
	return nil
}
