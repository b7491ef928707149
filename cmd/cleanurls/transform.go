package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yanizio/cleanurls/internal/engine"
)

type direction func(e *engine.Engine, ctx context.Context, raw string) string

// transformCmd builds the clean and unclean commands, which differ only
// in the direction they call.
func transformCmd(use, short string, do direction) *cobra.Command {
	return &cobra.Command{
		Use:   use + " URL...",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := buildApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			for _, in := range args {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", in, do(a.Engine, ctx, in))
			}
			return nil
		},
	}
}

func init() {
	rootCmd.AddCommand(
		transformCmd("clean", "Print the clean form of each URL", (*engine.Engine).Clean),
		transformCmd("unclean", "Print the unclean form of each URL", (*engine.Engine).Unclean),
	)
}
