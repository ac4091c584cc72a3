package kvstore

import (
	"context"
	"net/http"

	"github.com/horockey/kvstore/internal/model"
	"github.com/horockey/kvstore/internal/processor"
	"github.com/horockey/kvstore/internal/repository/kv_pairs"
)

type (
	Processor[V any]  = processor.Processor[V]
	Repository[V any] = kv_pairs.Repository[V]
	KVPair[V any]     = model.KVPair[V]
)

type Controller interface {
	model.MetricsProvider
	Start(ctx context.Context) error
	Handler() http.Handler
}
