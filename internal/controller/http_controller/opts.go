package http_controller

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/horockey/go-toolbox/options"
)

type ctrlParams struct {
	apiKey         string
	appName        string
	port           int
	metricsHandler http.Handler
}

// Requires X-Api-Key header on /store routes.
// Default is no auth.
func WithAPIKey(key string) options.Option[ctrlParams] {
	return func(target *ctrlParams) error {
		target.apiKey = key
		return nil
	}
}

// Sets name and port reported by GET /.
func WithGreeting(appName string, port int) options.Option[ctrlParams] {
	return func(target *ctrlParams) error {
		if appName == "" {
			return errors.New("got empty app name")
		}
		if port <= 0 {
			return fmt.Errorf("port must be positive, got: %d", port)
		}
		target.appName = appName
		target.port = port
		return nil
	}
}

// Serves h on GET /metrics.
func WithMetricsHandler(h http.Handler) options.Option[ctrlParams] {
	return func(target *ctrlParams) error {
		if h == nil {
			return errors.New("got nil metrics handler")
		}
		target.metricsHandler = h
		return nil
	}
}
