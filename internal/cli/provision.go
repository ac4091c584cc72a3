package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/horockey/kvstore/internal/config"
	"github.com/horockey/kvstore/internal/logging"
	"github.com/horockey/kvstore/internal/repository/kv_pairs/mongo_kv_pairs"
	"github.com/spf13/cobra"
)

var provisionUserCmd = &cobra.Command{
	Use:   "provision-user",
	Short: "Create the application user in MongoDB",
	Long: `Authenticates as the root user ($MONGO_INITDB_ROOT_USERNAME,
$MONGO_INITDB_ROOT_PASSWORD) and creates $KEY_VALUE_USER with the readWrite
role on $KEY_VALUE_DB.`,
	Args: cobra.NoArgs,
	RunE: runProvisionUser,
}

func init() {
	fs := provisionUserCmd.Flags()
	fs.String(config.KeyMongoHost, "localhost:27017", envHelp(config.KeyMongoHost, "MongoDB host[:port]"))
	fs.String(config.KeyDatabase, "key-value-db", envHelp(config.KeyDatabase, "database to grant readWrite on"))
	fs.String(config.KeyUser, "", envHelp(config.KeyUser, "user to create"))
	fs.String(config.KeyAdminUser, "", envHelp(config.KeyAdminUser, "root user"))
	fs.Duration(config.KeyConnectTimeout, 0, envHelp(config.KeyConnectTimeout, "connect timeout (default 500ms)"))
}

func runProvisionUser(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}

	var errs []error
	if cfg.AdminUser == "" || cfg.AdminPassword == "" {
		errs = append(errs, fmt.Errorf(
			"%s and %s are required",
			config.EnvName(config.KeyAdminUser),
			config.EnvName(config.KeyAdminPassword),
		))
	}
	if cfg.Username == "" || cfg.Password == "" {
		errs = append(errs, fmt.Errorf(
			"%s and %s are required",
			config.EnvName(config.KeyUser),
			config.EnvName(config.KeyPassword),
		))
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	logger = logger.With().Str("scope", "provision-user").Logger()

	client, err := mongo_kv_pairs.Connect(cmd.Context(), mongo_kv_pairs.ConnParams{
		Host:       cfg.MongoHost,
		Database:   cfg.Database,
		Username:   cfg.AdminUser,
		Password:   cfg.AdminPassword,
		AuthSource: "admin",
		Timeout:    cfg.ConnectTimeout,
	}, logger)
	if err != nil {
		return fmt.Errorf("connecting as %s: %w", cfg.AdminUser, err)
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			logger.Error().Err(fmt.Errorf("disconnecting: %w", err)).Send()
		}
	}()

	if err := mongo_kv_pairs.CreateUser(cmd.Context(), client, cfg.Database, cfg.Username, cfg.Password); err != nil {
		return fmt.Errorf("creating user: %w", err)
	}

	logger.Info().
		Str("user", cfg.Username).
		Str("db", cfg.Database).
		Msg("user created")

	return nil
}
