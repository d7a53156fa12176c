package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/timevault/timevault/internal/models"
	"github.com/timevault/timevault/internal/repository"
)

func newActivityCmd(appOf func() *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Manage activities",
	}
	cmd.AddCommand(
		newActivityAddCmd(appOf),
		newActivityListCmd(appOf),
		newActivityRemoveCmd(appOf),
	)
	return cmd
}

func newActivityAddCmd(appOf func() *App) *cobra.Command {
	var (
		name   string
		hourly int64
		emoji  string
		color  string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an activity",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appOf()

			activity := models.NewActivity(name, hourly)
			activity.Emoji = emoji
			activity.Color = color

			created, err := app.Activities.Create(cmd.Context(), activity)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created activity %s (%s)\n", created.Name, created.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "activity name")
	cmd.Flags().Int64Var(&hourly, "hourly", 0, "hourly value in cents")
	cmd.Flags().StringVar(&emoji, "emoji", "", "emoji")
	cmd.Flags().StringVar(&color, "color", "", "hex color like #aabbcc")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newActivityListCmd(appOf func() *App) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List activities",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appOf()

			query := repository.Query[*models.Activity]{
				Key: "active",
				Match: func(a *models.Activity) bool {
					return all || !a.Archived
				},
				Less: func(a, b *models.Activity) bool {
					return strings.ToLower(a.Name) < strings.ToLower(b.Name)
				},
			}
			if all {
				query.Key = "all"
			}

			activities, err := app.Activities.FindAll(cmd.Context(), query)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tHOURLY\tBLOCK")
			for _, a := range activities {
				fmt.Fprintf(w, "%s\t%s %s\t%d\t%d\n", a.ID, a.Emoji, a.Name, a.HourlyValue, a.BlockValue)
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "include archived activities")
	return cmd
}

func newActivityRemoveCmd(appOf func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete an activity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appOf()

			if err := app.Activities.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted activity %s\n", args[0])
			return nil
		},
	}
}
