package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSyncCmd(appOf func() *App) *cobra.Command {
	var full bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Push pending local changes to the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appOf()

			if full {
				n, err := app.Engine.ForceSyncAllData(cmd.Context())
				if err != nil {
					return fmt.Errorf("force sync failed: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Enqueued %d operations for full resync\n", n)
			}

			if err := app.Engine.RunOnce(cmd.Context()); err != nil {
				return fmt.Errorf("sync failed: %w", err)
			}

			status := app.Engine.Status()
			fmt.Fprintf(cmd.OutOrStdout(), "Sync done: %d completed, %d failed, %d pending\n",
				status.Completed, status.Failed, status.Pending)
			return nil
		},
	}

	cmd.Flags().BoolVar(&full, "full", false, "re-enqueue every local entity before syncing")
	return cmd
}

func newStatusCmd(appOf func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show sync status",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appOf()
			status := app.Engine.Status()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Pending operations: %d\n", status.Pending)
			if !status.LastSyncAt.IsZero() {
				fmt.Fprintf(out, "Last sync:          %s\n", status.LastSyncAt.Format("2006-01-02 15:04:05"))
			}
			if status.LastError != "" {
				fmt.Fprintf(out, "Last error:         %s\n", status.LastError)
			}
			fmt.Fprintf(out, "Completed/Failed:   %d/%d\n", status.Completed, status.Failed)
			return nil
		},
	}
}
