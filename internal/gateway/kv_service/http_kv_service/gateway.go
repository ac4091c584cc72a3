package http_kv_service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	controller_dto "github.com/horockey/kvstore/internal/controller/http_controller/dto"
	"github.com/horockey/kvstore/internal/gateway/kv_service"
	"github.com/horockey/kvstore/internal/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

var _ kv_service.Gateway[any] = &httpKVService[any]{}

type httpKVService[V any] struct {
	cl      *resty.Client
	metrics *metrics
	logger  zerolog.Logger
}

// New returns a client for the service at baseURL (e.g. http://localhost:3000).
// apiKey may be empty.
func New[V any](
	baseURL string,
	apiKey string,
	timeout time.Duration,
	logger zerolog.Logger,
) *httpKVService[V] {
	cl := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetRetryCount(0)
	if apiKey != "" {
		cl.SetHeader("X-Api-Key", apiKey)
	}

	return &httpKVService[V]{
		metrics: newMetrics(),
		logger:  logger,
		cl:      cl,
	}
}

func (gw *httpKVService[V]) Metrics() []prometheus.Collector {
	return gw.metrics.list()
}

func (gw *httpKVService[V]) Health(ctx context.Context) (resErr error) {
	defer func(ts time.Time) {
		gw.metrics.observe(ts, resErr)
	}(time.Now())

	resp, err := gw.cl.R().
		SetContext(ctx).
		Get("/health")
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("got non-ok response (%s): %s", resp.Status(), resp.String())
	}

	return nil
}

func (gw *httpKVService[V]) Get(ctx context.Context, key string) (res model.KVPair[V], resErr error) {
	gw.logger.Debug().Str("key", key).Msg("getting KV from service")
	defer func(ts time.Time) {
		gw.metrics.observe(ts, resErr)
	}(time.Now())

	if err := model.ValidateKey(key); err != nil {
		return model.KVPair[V]{}, err
	}

	resp, err := gw.cl.R().
		SetContext(ctx).
		SetPathParam("key", key).
		Get("/store/{key}")
	if err != nil {
		return model.KVPair[V]{}, fmt.Errorf("executing request: %w", err)
	}
	if err := checkResponse(resp, key); err != nil {
		return model.KVPair[V]{}, err
	}

	return decodeKV[V](resp)
}

func (gw *httpKVService[V]) Set(ctx context.Context, key string, value V) (res model.KVPair[V], resErr error) {
	gw.logger.Debug().Str("key", key).Msg("setting KV to service")
	defer func(ts time.Time) {
		gw.metrics.observe(ts, resErr)
	}(time.Now())

	if err := model.ValidateKey(key); err != nil {
		return model.KVPair[V]{}, err
	}

	resp, err := gw.cl.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(controller_dto.KV[V]{Key: key, Value: value}).
		Post("/store")
	if err != nil {
		return model.KVPair[V]{}, fmt.Errorf("executing request: %w", err)
	}
	if err := checkResponse(resp, key); err != nil {
		return model.KVPair[V]{}, err
	}

	return decodeKV[V](resp)
}

func (gw *httpKVService[V]) Remove(ctx context.Context, key string) (resErr error) {
	defer func(ts time.Time) {
		gw.metrics.observe(ts, resErr)
	}(time.Now())

	if err := model.ValidateKey(key); err != nil {
		return err
	}

	resp, err := gw.cl.R().
		SetContext(ctx).
		SetPathParam("key", key).
		Delete("/store/{key}")
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}

	return checkResponse(resp, key)
}

func (gw *httpKVService[V]) Keys(ctx context.Context) (res []string, resErr error) {
	defer func(ts time.Time) {
		gw.metrics.observe(ts, resErr)
	}(time.Now())

	resp, err := gw.cl.R().
		SetContext(ctx).
		Get("/store")
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	if err := checkResponse(resp, ""); err != nil {
		return nil, err
	}

	dtoKeys := controller_dto.Keys{}
	if err := json.Unmarshal(resp.Body(), &dtoKeys); err != nil {
		return nil, fmt.Errorf("unmarshaling json: %w", err)
	}

	return dtoKeys.Keys, nil
}

func checkResponse(resp *resty.Response, key string) error {
	switch resp.StatusCode() {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
		return model.KeyNotFoundError{Key: key}
	case http.StatusBadRequest:
		return model.ValidationError{Field: "request", Reason: resp.String()}
	default:
		return fmt.Errorf("got non-ok response (%s): %s", resp.Status(), resp.String())
	}
}

func decodeKV[V any](resp *resty.Response) (model.KVPair[V], error) {
	dtoKV := controller_dto.KV[V]{}
	if err := json.Unmarshal(resp.Body(), &dtoKV); err != nil {
		return model.KVPair[V]{}, fmt.Errorf("unmarshaling json: %w", err)
	}

	return model.KVPair[V]{Key: dtoKV.Key, Value: dtoKV.Value}, nil
}
