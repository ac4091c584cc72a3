package cli

import (
	"encoding/json"
	"fmt"

	"github.com/horockey/kvstore/internal/config"
	"github.com/horockey/kvstore/internal/controller/http_controller/dto"
	"github.com/horockey/kvstore/internal/gateway/kv_service"
	"github.com/horockey/kvstore/internal/gateway/kv_service/http_kv_service"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// listParallelism bounds concurrent GETs of kv list --values.
const listParallelism = 8

var (
	kvCmd = &cobra.Command{
		Use:   "kv",
		Short: "Manage pairs of a running service",
	}

	kvSetCmd = &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Create or overwrite a pair",
		Long: `Value is sent as JSON if it parses as JSON (e.g. '{"a":1}', '42'),
otherwise as a plain string.`,
		Args: cobra.ExactArgs(2), //nolint: mnd
		RunE: func(cmd *cobra.Command, args []string) error {
			kvp, err := gateway().Set(cmd.Context(), args[0], parseValue(args[1]))
			if err != nil {
				return fmt.Errorf("setting %q: %w", args[0], err)
			}
			return printJSON(cmd, dto.NewKV(kvp))
		},
	}

	kvGetCmd = &cobra.Command{
		Use:   "get <key>",
		Short: "Print a pair",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kvp, err := gateway().Get(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("getting %q: %w", args[0], err)
			}
			return printJSON(cmd, dto.NewKV(kvp))
		},
	}

	kvDeleteCmd = &cobra.Command{
		Use:     "delete <key>",
		Aliases: []string{"rm"},
		Short:   "Delete a pair, succeeds for absent keys too",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := gateway().Remove(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("deleting %q: %w", args[0], err)
			}
			return nil
		},
	}

	kvListCmd = &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List stored keys",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			gw := gateway()

			keys, err := gw.Keys(cmd.Context())
			if err != nil {
				return fmt.Errorf("listing keys: %w", err)
			}

			withValues, err := cmd.Flags().GetBool("values")
			if err != nil {
				return fmt.Errorf("reading values flag: %w", err)
			}
			if !withValues {
				return printJSON(cmd, dto.Keys{Keys: keys})
			}

			res := make([]dto.KV[any], len(keys))
			eg, ctx := errgroup.WithContext(cmd.Context())
			eg.SetLimit(listParallelism)
			for idx, key := range keys {
				eg.Go(func() error {
					kvp, err := gw.Get(ctx, key)
					if err != nil {
						return fmt.Errorf("getting %q: %w", key, err)
					}
					res[idx] = dto.NewKV(kvp)
					return nil
				})
			}
			if err := eg.Wait(); err != nil {
				return err
			}

			return printJSON(cmd, res)
		},
	}
)

func init() {
	addClientFlags(kvCmd)
	kvCmd.PersistentFlags().String(config.KeyAPIKey, "", envHelp(config.KeyAPIKey, "value for X-Api-Key"))
	kvListCmd.Flags().Bool("values", false, "also fetch values")

	kvCmd.AddCommand(kvSetCmd, kvGetCmd, kvDeleteCmd, kvListCmd)
}

func gateway() kv_service.Gateway[any] {
	return http_kv_service.New[any](
		endpoint(),
		v.GetString(config.KeyAPIKey),
		v.GetDuration(keyTimeout),
		zerolog.Nop(),
	)
}

// parseValue keeps JSON documents structured and falls back to the raw string.
func parseValue(raw string) any {
	var val any
	if err := json.Unmarshal([]byte(raw), &val); err != nil {
		return raw
	}
	return val
}

func printJSON(cmd *cobra.Command, val any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(val); err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	return nil
}
