// Package cli implements the kvstore command line. Started without a
// subcommand it runs the service; other commands talk to a running
// instance or prepare its database.
package cli

import (
	"fmt"

	"github.com/horockey/kvstore/internal/config"
	"github.com/spf13/cobra"
)

const Version = "1.0.0"

var (
	v = config.NewViper()

	RootCmd = &cobra.Command{
		Use:   "kvstore",
		Short: "key-value store over a document database",
		Long: fmt.Sprintf(`kvstore (v%s)

HTTP service persisting key-value pairs in MongoDB (or Postgres, badger,
memory). Without a subcommand it behaves like "kvstore serve".
Every flag may be given as an environment variable, see "kvstore serve --help".`, Version),
		SilenceUsage:      true,
		PersistentPreRunE: bindFlags,
		RunE:              runServe,
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of kvstore",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "kvstore v%s\n", Version)
		},
	}
)

func init() {
	cobra.OnInitialize(config.LoadDotEnv)

	RootCmd.PersistentFlags().String(config.KeyLogLevel, "info", envHelp(config.KeyLogLevel, "log level (debug, info, warn, error)"))
	RootCmd.PersistentFlags().String(config.KeyLogFormat, "console", envHelp(config.KeyLogFormat, "log format (console, json)"))

	addServeFlags(RootCmd)

	RootCmd.AddCommand(serveCmd)
	RootCmd.AddCommand(healthcheckCmd)
	RootCmd.AddCommand(kvCmd)
	RootCmd.AddCommand(provisionUserCmd)
	RootCmd.AddCommand(versionCmd)
}

// Execute runs the root command. It is called once by main.main().
func Execute() error {
	return RootCmd.Execute()
}

func bindFlags(cmd *cobra.Command, _ []string) error {
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("binding flags: %w", err)
	}
	return nil
}

func envHelp(key, help string) string {
	return fmt.Sprintf("%s [$%s]", help, config.EnvName(key))
}

