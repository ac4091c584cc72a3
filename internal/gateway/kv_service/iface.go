package kv_service

import (
	"context"

	"github.com/horockey/kvstore/internal/model"
)

// Gateway talks to a running kvstore service.
type Gateway[V any] interface {
	model.MetricsProvider
	Health(ctx context.Context) error
	Get(ctx context.Context, key string) (model.KVPair[V], error)
	Set(ctx context.Context, key string, value V) (model.KVPair[V], error)
	Remove(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
}
