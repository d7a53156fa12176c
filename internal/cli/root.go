package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/timevault/timevault/internal/config"
)

// Version information set via ldflags during build.
var (
	Version   = "dev"
	BuildDate = "unknown"
)

// NewRootCmd builds the timevault command tree. The app is constructed
// once in PersistentPreRunE and torn down after the command runs.
func NewRootCmd() *cobra.Command {
	var app *App

	root := &cobra.Command{
		Use:           "timevault",
		Short:         "Offline-first time tracking",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadClient()
			if err != nil {
				return err
			}
			if serverURL, _ := cmd.Flags().GetString("server"); serverURL != "" {
				cfg.ServerURL = serverURL
			}
			if dbPath, _ := cmd.Flags().GetString("db"); dbPath != "" {
				cfg.DBPath = dbPath
			}

			app, err = NewApp(cmd.Context(), cfg)
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app != nil {
				app.Close()
			}
		},
	}

	root.PersistentFlags().String("server", "", "server URL (overrides TIMEVAULT_SERVER_URL)")
	root.PersistentFlags().String("db", "", "local database path (overrides TIMEVAULT_DB)")

	appOf := func() *App { return app }

	root.AddCommand(
		newVersionCmd(),
		newLoginCmd(appOf),
		newStatusCmd(appOf),
		newSyncCmd(appOf),
		newActivityCmd(appOf),
		newSlotCmd(appOf),
		newSettingsCmd(appOf),
	)

	return root
}

// Execute runs the CLI.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		// No app needed; skip the wiring.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "timevault %s (built %s)\n", Version, BuildDate)
		},
	}
}
