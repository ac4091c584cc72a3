package kvstore

import (
	"context"
	"fmt"

	"github.com/horockey/kvstore/internal/config"
	"github.com/horockey/kvstore/internal/model"
	"github.com/horockey/kvstore/internal/repository/kv_pairs/badger_kv_pairs"
	"github.com/horockey/kvstore/internal/repository/kv_pairs/inmemory_kv_pairs"
	"github.com/horockey/kvstore/internal/repository/kv_pairs/mongo_kv_pairs"
	"github.com/horockey/kvstore/internal/repository/kv_pairs/postgres_kv_pairs"
	"github.com/rs/zerolog"
)

// Connect opens the persistence client selected by cfg.Backend.
// It fails with model.ConnectionError when storage is unreachable,
// rejects credentials or does not answer within cfg.ConnectTimeout.
func Connect[V any](ctx context.Context, cfg config.Config, logger zerolog.Logger) (Repository[V], error) {
	logger = logger.With().Str("backend", string(cfg.Backend)).Logger()

	switch cfg.Backend {
	case config.BackendMongo:
		client, err := mongo_kv_pairs.Connect(ctx, mongo_kv_pairs.ConnParams{
			Host:     cfg.MongoHost,
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
			Timeout:  cfg.ConnectTimeout,
		}, logger)
		if err != nil {
			return nil, err
		}

		repo := mongo_kv_pairs.New[V](client, cfg.Database, cfg.Collection)
		if err := ensure(ctx, cfg, repo.EnsureIndexes); err != nil {
			_ = repo.Close(context.Background())
			return nil, err
		}
		return repo, nil

	case config.BackendPostgres:
		pool, err := postgres_kv_pairs.Connect(ctx, postgres_kv_pairs.ConnParams{
			Host:     cfg.PostgresHost,
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
			Timeout:  cfg.ConnectTimeout,
		}, logger)
		if err != nil {
			return nil, err
		}

		repo := postgres_kv_pairs.New[V](pool, cfg.Collection)
		if err := ensure(ctx, cfg, repo.EnsureSchema); err != nil {
			_ = repo.Close(context.Background())
			return nil, err
		}
		return repo, nil

	case config.BackendBadger:
		db, err := badger_kv_pairs.Open(cfg.BadgerDir, logger)
		if err != nil {
			return nil, err
		}
		return badger_kv_pairs.New[V](db), nil

	case config.BackendMemory:
		logger.Warn().Msg("using in-memory storage, data is lost on exit")
		return inmemory_kv_pairs.New[V](), nil

	default:
		return nil, fmt.Errorf("unknown backend: %q", cfg.Backend)
	}
}

// ensure runs schema setup under the connect timeout; a failure there
// is still a startup connection failure.
func ensure(ctx context.Context, cfg config.Config, fn func(context.Context) error) error {
	ensureCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	if err := fn(ensureCtx); err != nil {
		return model.ConnectionError{
			Backend: string(cfg.Backend),
			Addr:    cfg.DBHost(),
			Err:     err,
		}
	}
	return nil
}
