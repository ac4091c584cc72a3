package postgres_kv_pairs

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/horockey/kvstore/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const backendName = "postgres"

type ConnParams struct {
	// Host is host[:port] of the server.
	Host     string
	Database string
	Username string
	Password string
	Timeout  time.Duration
}

func (p ConnParams) URI() string {
	u := url.URL{
		Scheme:   "postgres",
		Host:     p.Host,
		Path:     "/" + p.Database,
		RawQuery: "sslmode=disable",
	}
	if p.Username != "" {
		u.User = url.UserPassword(p.Username, p.Password)
	}
	return u.String()
}

// Connect creates the pool and pings the server within p.Timeout.
// Failures are reported as model.ConnectionError.
func Connect(ctx context.Context, p ConnParams, logger zerolog.Logger) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(p.URI())
	if err != nil {
		return nil, model.ConnectionError{
			Backend: backendName,
			Addr:    p.Host,
			Err:     fmt.Errorf("parsing pgx config: %w", err),
		}
	}
	cfg.ConnConfig.ConnectTimeout = p.Timeout

	connCtx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	logger.Info().Str("host", p.Host).Str("db", p.Database).Msg("connecting to db")

	pool, err := pgxpool.NewWithConfig(connCtx, cfg)
	if err != nil {
		return nil, model.ConnectionError{
			Backend: backendName,
			Addr:    p.Host,
			Err:     fmt.Errorf("creating pool: %w", err),
		}
	}

	if err := pool.Ping(connCtx); err != nil {
		pool.Close()
		return nil, model.ConnectionError{
			Backend: backendName,
			Addr:    p.Host,
			Err:     fmt.Errorf("pinging: %w", err),
		}
	}

	logger.Info().Str("host", p.Host).Msg("connected to db")

	return pool, nil
}
