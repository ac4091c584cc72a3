package postgres_kv_pairs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/horockey/kvstore/internal/model"
	"github.com/horockey/kvstore/internal/repository/kv_pairs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

var _ kv_pairs.Repository[any] = &postgresKVPairs[any]{}

// Values live in a jsonb column, one row per key.
type postgresKVPairs[V any] struct {
	pool    *pgxpool.Pool
	table   string
	metrics *metrics
}

func New[V any](pool *pgxpool.Pool, table string) *postgresKVPairs[V] {
	return &postgresKVPairs[V]{
		pool:    pool,
		table:   pgx.Identifier{table}.Sanitize(),
		metrics: newMetrics(),
	}
}

func (repo *postgresKVPairs[V]) EnsureSchema(ctx context.Context) error {
	q := `CREATE TABLE IF NOT EXISTS ` + repo.table + ` (
		key      text PRIMARY KEY,
		value    jsonb,
		modified timestamptz NOT NULL
	)`
	if _, err := repo.pool.Exec(ctx, q); err != nil {
		return fmt.Errorf("creating table %s: %w", repo.table, err)
	}
	return nil
}

func (repo *postgresKVPairs[V]) Metrics() []prometheus.Collector {
	return repo.metrics.list()
}

func (repo *postgresKVPairs[V]) Get(ctx context.Context, key string) (resKV model.KVPair[V], resErr error) {
	defer func(ts time.Time) {
		repo.metrics.observe(ts, resErr)
	}(time.Now())

	var (
		raw      *string
		modified time.Time
	)
	err := repo.pool.QueryRow(
		ctx,
		`SELECT value::text, modified FROM `+repo.table+` WHERE key = $1`,
		key,
	).Scan(&raw, &modified)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return model.KVPair[V]{}, model.KeyNotFoundError{Key: key}
	case err != nil:
		return model.KVPair[V]{}, fmt.Errorf("selecting row: %w", err)
	}

	res := model.KVPair[V]{Key: key, Modified: modified}
	if raw != nil {
		if err := json.Unmarshal([]byte(*raw), &res.Value); err != nil {
			return model.KVPair[V]{}, fmt.Errorf("decoding json: %w", err)
		}
	}

	return res, nil
}

func (repo *postgresKVPairs[V]) AddOrUpdate(ctx context.Context, kvp model.KVPair[V]) (resErr error) {
	defer func(ts time.Time) {
		repo.metrics.observe(ts, resErr)
	}(time.Now())

	data, err := json.Marshal(kvp.Value)
	if err != nil {
		return fmt.Errorf("encoding json: %w", err)
	}

	if _, err := repo.pool.Exec(
		ctx,
		`INSERT INTO `+repo.table+` (key, value, modified)
		VALUES ($1, $2::jsonb, $3)
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, modified = EXCLUDED.modified`,
		kvp.Key,
		string(data),
		kvp.Modified,
	); err != nil {
		return fmt.Errorf("upserting row: %w", err)
	}

	return nil
}

func (repo *postgresKVPairs[V]) Remove(ctx context.Context, key string) (resErr error) {
	defer func(ts time.Time) {
		repo.metrics.observe(ts, resErr)
	}(time.Now())

	if _, err := repo.pool.Exec(ctx, `DELETE FROM `+repo.table+` WHERE key = $1`, key); err != nil {
		return fmt.Errorf("deleting row: %w", err)
	}

	return nil
}

func (repo *postgresKVPairs[V]) GetAllNoValue(ctx context.Context) (resKVs []model.KVPair[V], resErr error) {
	defer func(ts time.Time) {
		repo.metrics.observe(ts, resErr)
	}(time.Now())

	rows, err := repo.pool.Query(ctx, `SELECT key, modified FROM `+repo.table+` ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("selecting rows: %w", err)
	}

	resKVs, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.KVPair[V], error) {
		kvp := model.KVPair[V]{}
		err := row.Scan(&kvp.Key, &kvp.Modified)
		return kvp, err
	})
	if err != nil {
		return nil, fmt.Errorf("collecting rows: %w", err)
	}

	return resKVs, nil
}

func (repo *postgresKVPairs[V]) Close(_ context.Context) error {
	repo.pool.Close()
	return nil
}
