package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/horockey/kvstore/internal/config"
	"github.com/horockey/kvstore/internal/gateway/kv_service/http_kv_service"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const (
	keyEndpoint = "endpoint"
	keyTimeout  = "timeout"
)

var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Probe GET /health of a running service",
	Long: `Exits with code 0 if the service answers GET /health with 200 and a
non-zero code otherwise. Meant for container health checks.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), v.GetDuration(keyTimeout))
		defer cancel()

		gw := http_kv_service.New[any](endpoint(), "", v.GetDuration(keyTimeout), zerolog.Nop())
		if err := gw.Health(ctx); err != nil {
			return fmt.Errorf("checking health: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), "up and running")
		return nil
	},
}

func init() {
	addClientFlags(healthcheckCmd)
}

func addClientFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String(keyEndpoint, "", "service base URL (default http://localhost:$PORT)")
	cmd.PersistentFlags().Duration(keyTimeout, 2*time.Second, "request timeout")
}

func endpoint() string {
	if ep := v.GetString(keyEndpoint); ep != "" {
		return ep
	}
	return fmt.Sprintf("http://localhost:%d", v.GetInt(config.KeyPort))
}
