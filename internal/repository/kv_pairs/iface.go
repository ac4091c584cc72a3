package kv_pairs

import (
	"context"

	"github.com/horockey/kvstore/internal/model"
)

// Repository is the persistence client for key-value records.
// Implementations return model.KeyNotFoundError for absent keys
// and treat Remove of an absent key as success.
type Repository[V any] interface {
	model.MetricsProvider
	Get(ctx context.Context, key string) (model.KVPair[V], error)
	AddOrUpdate(ctx context.Context, kvp model.KVPair[V]) error
	Remove(ctx context.Context, key string) error
	GetAllNoValue(ctx context.Context) ([]model.KVPair[V], error)
	Close(ctx context.Context) error
}
