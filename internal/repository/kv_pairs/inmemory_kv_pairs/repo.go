package inmemory_kv_pairs

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/horockey/kvstore/internal/model"
	"github.com/horockey/kvstore/internal/repository/kv_pairs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/lo"
)

var _ kv_pairs.Repository[any] = &inmemoryKVPairs[any]{}

type inmemoryKVPairs[V any] struct {
	storage map[string]*item[V]
	mu      sync.RWMutex
	metrics *metrics
}

type item[V any] struct {
	value    V
	modified time.Time
}

func New[V any]() *inmemoryKVPairs[V] {
	repo := inmemoryKVPairs[V]{
		storage: map[string]*item[V]{},
	}

	repo.metrics = newMetrics(&repo)

	return &repo
}

func (repo *inmemoryKVPairs[V]) Get(_ context.Context, key string) (res model.KVPair[V], resErr error) {
	defer func(ts time.Time) {
		repo.metrics.observe(ts, resErr)
	}(time.Now())

	repo.mu.RLock()
	defer repo.mu.RUnlock()

	it, found := repo.storage[key]
	if !found {
		return model.KVPair[V]{}, model.KeyNotFoundError{Key: key}
	}

	return model.KVPair[V]{
		Key:      key,
		Value:    it.value,
		Modified: it.modified,
	}, nil
}

func (repo *inmemoryKVPairs[V]) AddOrUpdate(_ context.Context, kvp model.KVPair[V]) (resErr error) {
	defer func(ts time.Time) {
		repo.metrics.observe(ts, resErr)
	}(time.Now())

	repo.mu.Lock()
	defer repo.mu.Unlock()

	repo.storage[kvp.Key] = &item[V]{value: kvp.Value, modified: kvp.Modified}

	return nil
}

func (repo *inmemoryKVPairs[V]) Remove(_ context.Context, key string) (resErr error) {
	defer func(ts time.Time) {
		repo.metrics.observe(ts, resErr)
	}(time.Now())

	repo.mu.Lock()
	defer repo.mu.Unlock()

	delete(repo.storage, key)
	return nil
}

func (repo *inmemoryKVPairs[V]) GetAllNoValue(_ context.Context) (res []model.KVPair[V], resErr error) {
	defer func(ts time.Time) {
		repo.metrics.observe(ts, resErr)
	}(time.Now())

	repo.mu.RLock()
	defer repo.mu.RUnlock()

	keys := lo.Keys(repo.storage)
	sort.Strings(keys)

	return lo.Map(
			keys,
			func(el string, _ int) model.KVPair[V] {
				return model.KVPair[V]{Key: el, Modified: repo.storage[el].modified}
			}),
		nil
}

func (repo *inmemoryKVPairs[V]) Close(_ context.Context) error {
	return nil
}

func (repo *inmemoryKVPairs[V]) Metrics() []prometheus.Collector {
	return repo.metrics.list()
}
