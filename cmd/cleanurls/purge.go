package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yanizio/cleanurls/internal/invalidate"
)

var (
	purgeEvent  string
	purgeID     int64
	purgeCourse int64
	purgeMod    string
)

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Empty the URL cache, or evict what one resource event touches",
	Long: `Without flags purge drops every cached URL in both directions.  With
--event it evicts only the entries the named resource event would evict,
exactly as a POST to /events does; deletion events also purge history.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := buildApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		if purgeEvent == "" {
			if err := a.Cache.Purge(ctx); err != nil {
				return fmt.Errorf("purge cache: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "url cache emptied")
			return nil
		}

		n, err := a.Invalidator.Handle(context.WithoutCancel(ctx), invalidate.Event{
			Name:     purgeEvent,
			ObjectID: purgeID,
			CourseID: purgeCourse,
			ModName:  purgeMod,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d entries evicted\n", purgeEvent, n)
		return nil
	},
}

func init() {
	purgeCmd.Flags().StringVar(&purgeEvent, "event", "", "resource event name, e.g. course_updated")
	purgeCmd.Flags().Int64Var(&purgeID, "id", 0, "object id the event is about")
	purgeCmd.Flags().Int64Var(&purgeCourse, "course", 0, "course id, for module and user events")
	purgeCmd.Flags().StringVar(&purgeMod, "mod", "", "module type, for module events")
	rootCmd.AddCommand(purgeCmd)
}
