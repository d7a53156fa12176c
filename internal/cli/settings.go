package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/timevault/timevault/internal/models"
	"github.com/timevault/timevault/internal/storage"
)

func newSettingsCmd(appOf func() *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change settings",
	}
	cmd.AddCommand(newSettingsShowCmd(appOf), newSettingsSetCmd(appOf))
	return cmd
}

// loadSettings returns the stored settings or the defaults when none
// were saved yet.
func loadSettings(cmd *cobra.Command, app *App) (*models.Settings, bool, error) {
	settings, err := app.Settings.FindByID(cmd.Context(), models.SettingsID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.DefaultSettings(), false, nil
		}
		return nil, false, err
	}
	return settings, true, nil
}

func newSettingsShowCmd(appOf func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, _, err := loadSettings(cmd, appOf())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Day start hour:    %d\n", settings.DayStartHour)
			fmt.Fprintf(out, "Day end hour:      %d\n", settings.DayEndHour)
			fmt.Fprintf(out, "First day of week: %d\n", settings.FirstDayOfWeek)
			fmt.Fprintf(out, "Reminders:         %v\n", settings.RemindersOn)
			return nil
		},
	}
}

func newSettingsSetCmd(appOf func() *App) *cobra.Command {
	var (
		dayStart  int
		dayEnd    int
		firstDay  int
		reminders bool
	)

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appOf()

			settings, exists, err := loadSettings(cmd, app)
			if err != nil {
				return err
			}

			apply := func(s *models.Settings) {
				if cmd.Flags().Changed("day-start") {
					s.DayStartHour = dayStart
				}
				if cmd.Flags().Changed("day-end") {
					s.DayEndHour = dayEnd
				}
				if cmd.Flags().Changed("first-day") {
					s.FirstDayOfWeek = firstDay
				}
				if cmd.Flags().Changed("reminders") {
					s.RemindersOn = reminders
				}
			}

			if !exists {
				apply(settings)
				_, err = app.Settings.Create(cmd.Context(), settings)
			} else {
				_, err = app.Settings.Update(cmd.Context(), models.SettingsID, func(s *models.Settings) error {
					apply(s)
					return nil
				})
			}
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Settings saved")
			return nil
		},
	}

	cmd.Flags().IntVar(&dayStart, "day-start", 8, "hour the day starts (0-23)")
	cmd.Flags().IntVar(&dayEnd, "day-end", 22, "hour the day ends (1-24)")
	cmd.Flags().IntVar(&firstDay, "first-day", 0, "first day of week (0=Sunday)")
	cmd.Flags().BoolVar(&reminders, "reminders", false, "enable reminders")

	return cmd
}
