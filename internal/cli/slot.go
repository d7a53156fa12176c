package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/timevault/timevault/internal/models"
	"github.com/timevault/timevault/internal/repository"
)

func newSlotCmd(appOf func() *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "slot",
		Short: "Manage time slots",
	}
	cmd.AddCommand(
		newSlotStartCmd(appOf),
		newSlotStopCmd(appOf),
		newSlotListCmd(appOf),
	)
	return cmd
}

func newSlotStartCmd(appOf func() *App) *cobra.Command {
	var note string

	cmd := &cobra.Command{
		Use:   "start <activity-id>",
		Short: "Start tracking time on an activity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appOf()

			// Refuse to start when another slot is still running.
			running, err := app.Slots.FindAll(cmd.Context(), repository.Query[*models.TimeSlot]{
				Key:   "running",
				Match: (*models.TimeSlot).Running,
			})
			if err != nil {
				return err
			}
			if len(running) > 0 {
				return fmt.Errorf("slot %s is already running, stop it first", running[0].ID)
			}

			slot := &models.TimeSlot{
				ActivityID: args[0],
				Start:      time.Now(),
				Note:       note,
			}

			created, err := app.Slots.Create(cmd.Context(), slot)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Started slot %s\n", created.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&note, "note", "", "optional note")
	return cmd
}

func newSlotStopCmd(appOf func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the running time slot",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appOf()

			running, err := app.Slots.FindAll(cmd.Context(), repository.Query[*models.TimeSlot]{
				Key:   "running",
				Match: (*models.TimeSlot).Running,
			})
			if err != nil {
				return err
			}
			if len(running) == 0 {
				return fmt.Errorf("no running slot")
			}

			slot, err := app.Slots.Update(cmd.Context(), running[0].ID, func(s *models.TimeSlot) error {
				s.End = time.Now()
				return nil
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Stopped slot %s after %s\n",
				slot.ID, slot.Duration(time.Now()).Round(time.Second))
			return nil
		},
	}
}

func newSlotListCmd(appOf func() *App) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent time slots",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appOf()

			slots, err := app.Slots.FindAll(cmd.Context(), repository.Query[*models.TimeSlot]{
				Key: "recent",
				Less: func(a, b *models.TimeSlot) bool {
					return a.Start.After(b.Start)
				},
				Limit: limit,
			})
			if err != nil {
				return err
			}

			now := time.Now()
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tACTIVITY\tSTART\tDURATION")
			for _, s := range slots {
				duration := s.Duration(now).Round(time.Second).String()
				if s.Running() {
					duration += " (running)"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					s.ID, s.ActivityID, s.Start.Format("2006-01-02 15:04"), duration)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum slots to show")
	return cmd
}
