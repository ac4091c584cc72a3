package mongo_kv_pairs

import (
	"context"
	"fmt"
	"time"

	"github.com/horockey/kvstore/internal/model"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const backendName = "mongo"

type ConnParams struct {
	// Host is host[:port] of the server.
	Host     string
	Database string
	Username string
	Password string
	// AuthSource defaults to Database, where the application user lives.
	AuthSource string
	Timeout    time.Duration
}

func (p ConnParams) URI() string {
	return fmt.Sprintf("mongodb://%s/%s", p.Host, p.Database)
}

// Connect opens the client and pings the primary. It succeeds only if the
// authenticated handshake completes within p.Timeout; otherwise a
// model.ConnectionError is returned and nothing is left open.
// Driver-level retries are disabled: failures after startup surface to callers.
func Connect(ctx context.Context, p ConnParams, logger zerolog.Logger) (*mongo.Client, error) {
	opts := options.Client().
		ApplyURI(p.URI()).
		SetConnectTimeout(p.Timeout).
		SetServerSelectionTimeout(p.Timeout).
		SetRetryReads(false).
		SetRetryWrites(false)

	if p.Username != "" {
		authSource := p.AuthSource
		if authSource == "" {
			authSource = p.Database
		}
		opts.SetAuth(options.Credential{
			Username:   p.Username,
			Password:   p.Password,
			AuthSource: authSource,
		})
	}

	connCtx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	logger.Info().Str("host", p.Host).Str("db", p.Database).Msg("connecting to db")

	client, err := mongo.Connect(connCtx, opts)
	if err != nil {
		return nil, model.ConnectionError{
			Backend: backendName,
			Addr:    p.Host,
			Err:     fmt.Errorf("creating client: %w", err),
		}
	}

	if err := client.Ping(connCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, model.ConnectionError{
			Backend: backendName,
			Addr:    p.Host,
			Err:     fmt.Errorf("pinging primary: %w", err),
		}
	}

	logger.Info().Str("host", p.Host).Msg("connected to db")

	return client, nil
}

// CreateUser provisions user with the readWrite role on database.
// client must be authenticated with a role allowed to create users.
func CreateUser(ctx context.Context, client *mongo.Client, database, user, password string) error {
	cmd := bson.D{
		{Key: "createUser", Value: user},
		{Key: "pwd", Value: password},
		{Key: "roles", Value: bson.A{
			bson.D{
				{Key: "role", Value: "readWrite"},
				{Key: "db", Value: database},
			},
		}},
	}

	if err := client.Database(database).RunCommand(ctx, cmd).Err(); err != nil {
		return fmt.Errorf("running createUser on %s: %w", database, err)
	}

	return nil
}
