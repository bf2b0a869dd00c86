package main

import (
	"fmt"
	"time"

	"github.com/JonMunkholm/stockstage/internal/config"
	"github.com/JonMunkholm/stockstage/internal/core"
	"github.com/JonMunkholm/stockstage/internal/inventory"
	"github.com/spf13/cobra"
)

type submitFlags struct {
	stageFlags
	inventoryURL string
	databaseURL  string
	timeout      time.Duration
	ensureSchema bool
}

func submitCmd(env *config.Config) *cobra.Command {
	var flags submitFlags

	cmd := &cobra.Command{
		Use:   "submit FILE",
		Short: "Stage a file and submit its clean rows",
		Long: `Reads FILE and submits every record without a blocking issue in one batch.

The inventory is either a remote API (--inventory-url) or a PostgreSQL
database (--database-url). Without either flag INVENTORY_BACKEND picks the
backend and INVENTORY_URL or DATABASE_URL locates it.

Exits non-zero when any record was skipped or rejected.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			flags.applyEnv(cmd, env.Import)
			inv, db := flags.backendConfig(cmd, *env)

			store, summary, err := stage(args[0], flags.stageFlags)
			if err != nil {
				return err
			}

			backend, err := inventory.Open(ctx, inv, db)
			if err != nil {
				return err
			}
			defer backend.Close()

			result, err := core.NewController(backend).Submit(ctx, store)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderSummary(summary))
			if err := renderResult(out, result, store.ListStaged()); err != nil {
				return err
			}

			if len(result.Failed) > 0 || len(result.Skipped) > 0 {
				return errIncomplete
			}
			return nil
		},
	}
	addStageFlags(cmd, &flags.stageFlags)
	cmd.Flags().StringVar(&flags.inventoryURL, "inventory-url", "", "inventory API base URL (env INVENTORY_URL)")
	cmd.Flags().StringVar(&flags.databaseURL, "database-url", "", "PostgreSQL connection string (env DATABASE_URL)")
	cmd.Flags().DurationVar(&flags.timeout, "timeout", inventory.DefaultTimeout, "inventory request timeout (env INVENTORY_TIMEOUT)")
	cmd.Flags().BoolVar(&flags.ensureSchema, "ensure-schema", true, "create the products table if missing (env DB_ENSURE_SCHEMA)")
	return cmd
}

// backendConfig merges the backend flags over env. An explicit URL flag
// also selects its backend.
func (f submitFlags) backendConfig(cmd *cobra.Command, env config.Config) (config.InventoryConfig, config.DatabaseConfig) {
	inv := env.Inventory
	db := env.Database
	flags := cmd.Flags()

	switch {
	case flags.Changed("inventory-url"):
		inv.Backend = config.BackendHTTP
		inv.URL = f.inventoryURL
	case flags.Changed("database-url"):
		inv.Backend = config.BackendSQL
		db.URL = f.databaseURL
	}
	if flags.Changed("timeout") || inv.Timeout <= 0 {
		inv.Timeout = f.timeout
	}
	if flags.Changed("ensure-schema") {
		db.EnsureSchema = f.ensureSchema
	}

	// One transaction per run.
	db.MaxConns = 2
	db.MinConns = 0
	return inv, db
}
