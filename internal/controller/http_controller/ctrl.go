package http_controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/horockey/go-toolbox/http_helpers"
	"github.com/horockey/go-toolbox/options"
	"github.com/horockey/kvstore/internal/controller/http_controller/dto"
	"github.com/horockey/kvstore/internal/model"
	"github.com/horockey/kvstore/internal/processor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

const (
	HealthBody = "up and running"

	apiKeyHeader = "X-Api-Key"
)

type HttpController[V any] struct {
	serv    *http.Server
	params  ctrlParams
	proc    *processor.Processor[V]
	logger  zerolog.Logger
	metrics *metrics
}

func New[V any](
	addr string,
	proc *processor.Processor[V],
	logger zerolog.Logger,
	opts ...options.Option[ctrlParams],
) (*HttpController[V], error) {
	params := ctrlParams{appName: "kvstore"}
	if err := options.ApplyOptions(&params, opts...); err != nil {
		return nil, fmt.Errorf("applying opts: %w", err)
	}

	ctrl := HttpController[V]{
		serv: &http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 5 * time.Second, //nolint: mnd
		},
		params:  params,
		proc:    proc,
		logger:  logger,
		metrics: newMetrics(),
	}

	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = http_helpers.RespondWithErr(w, http.StatusNotFound, fmt.Errorf("no route for %s %s", r.Method, r.URL.Path))
	})

	router.HandleFunc("/", ctrl.getRootHandler).Methods(http.MethodGet)
	router.HandleFunc("/health", ctrl.getHealthHandler).Methods(http.MethodGet)
	if params.metricsHandler != nil {
		router.Handle("/metrics", params.metricsHandler).Methods(http.MethodGet)
	}

	router.Handle("/store", ctrl.authMW(http.HandlerFunc(ctrl.getStoreHandler))).Methods(http.MethodGet)
	router.Handle("/store", ctrl.authMW(http.HandlerFunc(ctrl.postStoreHandler))).Methods(http.MethodPost)
	router.Handle("/store/{key}", ctrl.authMW(http.HandlerFunc(ctrl.getStoreKeyHandler))).Methods(http.MethodGet)
	router.Handle("/store/{key}", ctrl.authMW(http.HandlerFunc(ctrl.putStoreKeyHandler))).Methods(http.MethodPut)
	router.Handle("/store/{key}", ctrl.authMW(http.HandlerFunc(ctrl.deleteStoreKeyHandler))).Methods(http.MethodDelete)

	// Outside the router: unmatched requests get an id and a log line too.
	ctrl.serv.Handler = ctrl.requestIDMW(ctrl.accessLogMW(router))

	return &ctrl, nil
}

func (ctrl *HttpController[V]) Metrics() []prometheus.Collector {
	return ctrl.metrics.list()
}

func (ctrl *HttpController[V]) Handler() http.Handler {
	return ctrl.serv.Handler
}

// Start binds addr and serves until ctx is done, then shuts the server down with a 1s deadline.
func (ctrl *HttpController[V]) Start(ctx context.Context) (resErr error) {
	l, err := net.Listen("tcp", ctrl.serv.Addr)
	if err != nil {
		return fmt.Errorf("binding %s: %w", ctrl.serv.Addr, err)
	}

	var wg sync.WaitGroup
	defer wg.Wait()

	errCh := make(chan error, 1)

	ctrl.logger.Info().Str("addr", l.Addr().String()).Msg("listening")

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := ctrl.serv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		if ctx.Err() != nil && !errors.Is(ctx.Err(), context.Canceled) {
			resErr = errors.Join(resErr, fmt.Errorf("running context: %w", ctx.Err()))
		}

		sdCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		if err := ctrl.serv.Shutdown(sdCtx); err != nil {
			resErr = errors.Join(resErr, fmt.Errorf("shutting down server: %w", err))
		}
		return resErr

	case err := <-errCh:
		return fmt.Errorf("running server: %w", err)
	}
}

func (ctrl *HttpController[V]) getRootHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = fmt.Fprintf(w, "Hello from %s on port %d", ctrl.params.appName, ctrl.params.port)
}

// Liveness only: storage is never consulted.
func (ctrl *HttpController[V]) getHealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(HealthBody))
}

func (ctrl *HttpController[V]) getStoreHandler(w http.ResponseWriter, req *http.Request) {
	keys, err := ctrl.proc.Keys(req.Context())
	if err != nil {
		ctrl.respondErr(w, fmt.Errorf("listing keys from proc: %w", err))
		return
	}

	_ = http_helpers.RespondOK(w, dto.Keys{Keys: keys})
}

func (ctrl *HttpController[V]) getStoreKeyHandler(w http.ResponseWriter, req *http.Request) {
	key := mux.Vars(req)["key"]

	kvp, err := ctrl.proc.Get(req.Context(), key)
	if err != nil {
		ctrl.respondErr(w, fmt.Errorf("getting kvp from proc: %w", err))
		return
	}

	_ = http_helpers.RespondOK(w, dto.NewKV(kvp))
}

func (ctrl *HttpController[V]) postStoreHandler(w http.ResponseWriter, req *http.Request) {
	body := dto.SetKV{}
	if err := decodeBody(req, &body); err != nil {
		ctrl.respondErr(w, err)
		return
	}

	ctrl.set(w, req, body)
}

func (ctrl *HttpController[V]) putStoreKeyHandler(w http.ResponseWriter, req *http.Request) {
	key := mux.Vars(req)["key"]

	body := dto.SetKV{}
	if err := decodeBody(req, &body); err != nil {
		ctrl.respondErr(w, err)
		return
	}

	if body.Key != "" && body.Key != key {
		ctrl.respondErr(w, model.ValidationError{
			Field:  "key",
			Reason: fmt.Sprintf("body key %q does not match path key %q", body.Key, key),
		})
		return
	}
	body.Key = key

	ctrl.set(w, req, body)
}

func (ctrl *HttpController[V]) set(w http.ResponseWriter, req *http.Request, body dto.SetKV) {
	kvp, err := dto.SetKVToModel[V](body)
	if err != nil {
		ctrl.respondErr(w, fmt.Errorf("converting dto to model: %w", err))
		return
	}

	stored, err := ctrl.proc.Set(req.Context(), kvp.Key, kvp.Value)
	if err != nil {
		ctrl.respondErr(w, fmt.Errorf("setting kvp to proc: %w", err))
		return
	}

	_ = http_helpers.RespondOK(w, dto.NewKV(stored))
}

// Absent keys are deleted successfully too.
func (ctrl *HttpController[V]) deleteStoreKeyHandler(w http.ResponseWriter, req *http.Request) {
	key := mux.Vars(req)["key"]

	if err := ctrl.proc.Remove(req.Context(), key); err != nil {
		ctrl.respondErr(w, fmt.Errorf("deleting kvp from proc: %w", err))
		return
	}

	_ = http_helpers.RespondOK(w, nil)
}

// decodeBody reads exactly one JSON document from the request body.
func decodeBody(req *http.Request, target any) error {
	dec := json.NewDecoder(req.Body)
	if err := dec.Decode(target); err != nil {
		return model.ValidationError{Field: "body", Reason: err.Error()}
	}
	if err := dec.Decode(new(json.RawMessage)); !errors.Is(err, io.EOF) {
		return model.ValidationError{Field: "body", Reason: "unexpected data after json document"}
	}
	return nil
}

func (ctrl *HttpController[V]) respondErr(w http.ResponseWriter, err error) {
	switch {
	case errors.As(err, new(model.ValidationError)):
		ctrl.logger.Warn().Err(err).Send()
		_ = http_helpers.RespondWithErr(w, http.StatusBadRequest, err)
	case errors.As(err, new(model.KeyNotFoundError)):
		ctrl.logger.Debug().Err(err).Send()
		_ = http_helpers.RespondWithErr(w, http.StatusNotFound, err)
	default:
		ctrl.logger.Error().Err(err).Send()
		_ = http_helpers.RespondWithErr(w, http.StatusInternalServerError, nil)
	}
}
