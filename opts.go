package kvstore

import (
	"errors"
	"fmt"

	"github.com/horockey/go-toolbox/options"
	"github.com/rs/zerolog"
)

// Sets HTTP listen port.
// Default is 3000.
func WithPort(p int) options.Option[createAppParams] {
	return func(target *createAppParams) error {
		if p <= 0 {
			return fmt.Errorf("port must be positive, got: %d", p)
		}
		target.port = p
		return nil
	}
}

// Sets name reported by GET /.
// Default is kvstore.
func WithAppName(name string) options.Option[createAppParams] {
	return func(target *createAppParams) error {
		if name == "" {
			return errors.New("got empty app name")
		}
		target.appName = name
		return nil
	}
}

// Requires X-Api-Key on /store routes.
// Default is no auth.
func WithAPIKey(key string) options.Option[createAppParams] {
	return func(target *createAppParams) error {
		target.apiKey = key
		return nil
	}
}

// Sets custom logger.
// Default is stdout logger.
func WithLogger(l zerolog.Logger) options.Option[createAppParams] {
	return func(target *createAppParams) error {
		target.logger = l
		return nil
	}
}
