package main

import (
	"fmt"

	"github.com/JonMunkholm/stockstage/internal/config"
	"github.com/spf13/cobra"
)

func validateCmd(env *config.Config) *cobra.Command {
	var flags stageFlags

	cmd := &cobra.Command{
		Use:   "validate FILE",
		Short: "Stage a file and report rows that need correction",
		Long: `Reads FILE, maps every row onto the product schema, and prints each record
with its issues. Nothing is submitted.

Exits non-zero when any record is blocked.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags.applyEnv(cmd, env.Import)
			store, summary, err := stage(args[0], flags)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if err := renderRecords(out, store.ListStaged()); err != nil {
				return err
			}
			fmt.Fprintln(out, renderSummary(summary))

			if summary.Blocked > 0 {
				return errIncomplete
			}
			return nil
		},
	}
	addStageFlags(cmd, &flags)
	return cmd
}
