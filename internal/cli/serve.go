package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/horockey/kvstore"
	"github.com/horockey/kvstore/internal/config"
	"github.com/horockey/kvstore/internal/logging"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the key-value service",
	Long: `Connects to storage and, once connected, starts the HTTP API.
If storage cannot be reached within the connect timeout the process exits
with a non-zero code without binding the port.`,
	RunE: runServe,
}

func init() {
	addServeFlags(serveCmd)
}

func addServeFlags(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.Int(config.KeyPort, 3000, envHelp(config.KeyPort, "HTTP listen port"))
	fs.String(config.KeyAppName, "kvstore", envHelp(config.KeyAppName, "name reported by GET /"))
	fs.String(config.KeyBackend, string(config.BackendMongo), envHelp(config.KeyBackend, "storage backend (mongo, postgres, badger, memory)"))
	fs.String(config.KeyMongoHost, "localhost:27017", envHelp(config.KeyMongoHost, "MongoDB host[:port]"))
	fs.String(config.KeyPostgresHost, "localhost:5432", envHelp(config.KeyPostgresHost, "Postgres host[:port]"))
	fs.String(config.KeyDatabase, "key-value-db", envHelp(config.KeyDatabase, "database name"))
	fs.String(config.KeyUser, "", envHelp(config.KeyUser, "database user"))
	fs.String(config.KeyCollection, "keyvalues", envHelp(config.KeyCollection, "collection (table) name"))
	fs.Duration(config.KeyConnectTimeout, 0, envHelp(config.KeyConnectTimeout, "storage connect timeout (default 500ms)"))
	fs.String(config.KeyBadgerDir, "./badger", envHelp(config.KeyBadgerDir, "badger data directory"))
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	logger = logger.With().Str("scope", "kvstore").Logger()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, err := kvstore.Connect[any](ctx, cfg, logger)
	if err != nil {
		logger.
			Error().
			Err(err).
			Msg("could not connect to storage")
		return fmt.Errorf("connecting to storage: %w", err)
	}

	app, err := kvstore.NewApp(
		repo,
		kvstore.WithPort(cfg.Port),
		kvstore.WithAppName(cfg.AppName),
		kvstore.WithAPIKey(cfg.APIKey),
		kvstore.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("creating app: %w", err)
	}

	return app.Start(ctx)
}
