package kvstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"time"

	"github.com/horockey/go-toolbox/options"
	"github.com/horockey/kvstore/internal/controller/http_controller"
	"github.com/horockey/kvstore/internal/processor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// App is the application context: built once at startup around an already
// connected repository and handed to the HTTP layer.
type App[V any] struct {
	*processor.Processor[V]
	repo     Repository[V]
	ctrl     Controller
	registry *prometheus.Registry
	logger   zerolog.Logger
}

type createAppParams struct {
	port    int
	appName string
	apiKey  string
	logger  zerolog.Logger
}

func defaultCreateAppParams() createAppParams {
	return createAppParams{
		port:    3000, //nolint: mnd
		appName: "kvstore",
		logger: zerolog.New(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}).With().
			Timestamp().
			Str("scope", "kvstore").
			Logger(),
	}
}

func NewApp[V any](
	repo Repository[V],
	opts ...options.Option[createAppParams],
) (*App[V], error) {
	if repo == nil {
		return nil, errors.New("got nil repository")
	}

	params := defaultCreateAppParams()
	if err := options.ApplyOptions(&params, opts...); err != nil {
		return nil, fmt.Errorf("applying opts: %w", err)
	}

	proc := processor.New(
		repo,
		params.logger.With().Str("subscope", "processor").Logger(),
	)

	registry := prometheus.NewRegistry()

	ctrl, err := http_controller.New(
		"0.0.0.0:"+strconv.Itoa(params.port),
		proc,
		params.logger.With().Str("subscope", "http_controller").Logger(),
		http_controller.WithAPIKey(params.apiKey),
		http_controller.WithGreeting(params.appName, params.port),
		http_controller.WithMetricsHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})),
	)
	if err != nil {
		return nil, fmt.Errorf("creating http controller: %w", err)
	}

	app := &App[V]{
		Processor: proc,
		repo:      repo,
		ctrl:      ctrl,
		registry:  registry,
		logger:    params.logger,
	}

	for _, c := range app.Metrics() {
		if err := registry.Register(c); err != nil {
			return nil, fmt.Errorf("registering metrics: %w", err)
		}
	}

	return app, nil
}

// Start serves HTTP until ctx is done or the server fails,
// then closes the repository.
func (app *App[V]) Start(ctx context.Context) (resErr error) {
	if err := app.ctrl.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		app.logger.
			Error().
			Err(fmt.Errorf("running http controller: %w", err)).
			Send()
		resErr = fmt.Errorf("running http controller: %w", err)
	}

	closeCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := app.repo.Close(closeCtx); err != nil {
		resErr = errors.Join(resErr, fmt.Errorf("closing repository: %w", err))
	}

	return resErr
}

func (app *App[V]) Controller() Controller {
	return app.ctrl
}

func (app *App[V]) Metrics() []prometheus.Collector {
	return slices.Concat(
		app.ctrl.Metrics(),
		app.Processor.Metrics(),
		app.repo.Metrics(),
	)
}
