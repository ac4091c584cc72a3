package badger_kv_pairs

import (
	"fmt"
	"os"

	"github.com/dgraph-io/badger"
	"github.com/dustin/go-humanize"
	"github.com/horockey/kvstore/internal/model"
	"github.com/rs/zerolog"
)

// Open opens (creating if needed) the badger store in dir.
// Any failure is reported as model.ConnectionError.
func Open(dir string, logger zerolog.Logger) (*badger.DB, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil { //nolint: mnd
		return nil, model.ConnectionError{
			Backend: "badger",
			Addr:    dir,
			Err:     fmt.Errorf("creating dir: %w", err),
		}
	}

	opts := badger.DefaultOptions(dir).
		WithLogger(badgerLogger{logger: logger})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, model.ConnectionError{
			Backend: "badger",
			Addr:    dir,
			Err:     fmt.Errorf("opening db: %w", err),
		}
	}

	lsm, vlog := db.Size()
	logger.Info().
		Str("dir", dir).
		Str("size", humanize.Bytes(uint64(lsm+vlog))). //nolint: gosec
		Msg("badger store opened")

	return db, nil
}
