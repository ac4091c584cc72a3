package processor

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/horockey/kvstore/internal/model"
	"github.com/horockey/kvstore/internal/repository/kv_pairs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

const (
	opSet    = "set"
	opGet    = "get"
	opRemove = "remove"
	opKeys   = "keys"
)

// Processor validates requests and passes them straight to storage.
// It keeps no state of its own; every call is one storage round-trip.
// Errors returned are always one of model.ValidationError,
// model.KeyNotFoundError or model.UnknownError.
type Processor[V any] struct {
	storage kv_pairs.Repository[V]
	now     func() time.Time
	Logger  zerolog.Logger
	metrics *metrics
}

func New[V any](
	storage kv_pairs.Repository[V],
	logger zerolog.Logger,
) *Processor[V] {
	return &Processor[V]{
		storage: storage,
		now:     time.Now,
		Logger:  logger,
		metrics: newMetrics(),
	}
}

func (pr *Processor[V]) Metrics() []prometheus.Collector {
	return pr.metrics.list()
}

// Set upserts value under key and returns the stored pair.
func (pr *Processor[V]) Set(ctx context.Context, key string, value V) (res model.KVPair[V], resErr error) {
	defer pr.observe(opSet, time.Now(), &resErr)

	pr.Logger.Debug().Str("action", opSet).Str("key", key).Send()

	if err := model.ValidateKey(key); err != nil {
		return model.KVPair[V]{}, err
	}

	kvp := model.KVPair[V]{
		Key:      key,
		Value:    value,
		Modified: pr.now().UTC(),
	}
	if err := pr.storage.AddOrUpdate(ctx, kvp); err != nil {
		return model.KVPair[V]{}, classify(opSet, err)
	}

	return kvp, nil
}

func (pr *Processor[V]) Get(ctx context.Context, key string) (res model.KVPair[V], resErr error) {
	defer pr.observe(opGet, time.Now(), &resErr)

	pr.Logger.Debug().Str("action", opGet).Str("key", key).Send()

	if err := model.ValidateKey(key); err != nil {
		return model.KVPair[V]{}, err
	}

	kvp, err := pr.storage.Get(ctx, key)
	if err != nil {
		return model.KVPair[V]{}, classify(opGet, err)
	}

	return kvp, nil
}

// Remove deletes key. Removing an absent key is not an error.
func (pr *Processor[V]) Remove(ctx context.Context, key string) (resErr error) {
	defer pr.observe(opRemove, time.Now(), &resErr)

	pr.Logger.Debug().Str("action", opRemove).Str("key", key).Send()

	if err := model.ValidateKey(key); err != nil {
		return err
	}

	if err := pr.storage.Remove(ctx, key); err != nil {
		return classify(opRemove, err)
	}

	return nil
}

// Keys lists stored keys in ascending order.
func (pr *Processor[V]) Keys(ctx context.Context) (res []string, resErr error) {
	defer pr.observe(opKeys, time.Now(), &resErr)

	kvps, err := pr.storage.GetAllNoValue(ctx)
	if err != nil {
		return nil, classify(opKeys, err)
	}

	keys := lo.Map(kvps, func(el model.KVPair[V], _ int) string { return el.Key })
	slices.Sort(keys)
	return keys, nil
}

func (pr *Processor[V]) observe(op string, ts time.Time, errPtr *error) {
	pr.metrics.handleTimeHist.WithLabelValues(op).Observe(float64(time.Since(ts)))

	if errPtr == nil || *errPtr == nil {
		return
	}
	pr.metrics.errsCnt.WithLabelValues(op, ErrKind(*errPtr)).Inc()
}

func classify(op string, err error) error {
	if errors.As(err, new(model.KeyNotFoundError)) ||
		errors.As(err, new(model.ValidationError)) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return model.UnknownError{Op: op, Err: err}
}

// ErrKind names the taxonomy bucket of err.
func ErrKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.As(err, new(model.ValidationError)):
		return "validation"
	case errors.As(err, new(model.KeyNotFoundError)):
		return "not_found"
	case errors.As(err, new(model.ConnectionError)):
		return "connection"
	default:
		return "unknown"
	}
}
