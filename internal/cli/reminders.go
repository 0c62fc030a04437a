package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/me/mesas/internal/reminder"
	"github.com/me/mesas/pkg/model"
)

func newRemindersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reminders",
		Short: "Manage board reminders",
	}
	cmd.AddCommand(newRemindersListCmd(), newRemindersAddCmd(), newRemindersRunCmd())
	return cmd
}

func newRemindersListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <board_id>",
		Short: "List the reminders of a board",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := client.Get("/api/v1/boards/" + args[0] + "/reminders")
			if err != nil {
				return fmt.Errorf("list reminders: %w", err)
			}
			var rems []model.Reminder
			if err := resp.Decode(&rems); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(rems) == 0 {
				fmt.Fprintln(out, "No reminders.")
				return nil
			}
			for _, r := range rems {
				state := "pending"
				if r.Sent && r.SentAt != nil {
					state = "sent " + humanize.Time(*r.SentAt)
				}
				fmt.Fprintf(out, "%-40s  %3dh before  %s\n", r.ID, r.HoursBefore, state)
			}
			return nil
		},
	}
}

func newRemindersAddCmd() *cobra.Command {
	var hours int

	cmd := &cobra.Command{
		Use:   "add <board_id>",
		Short: "Schedule a reminder ahead of a board",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := client.Post("/api/v1/boards/"+args[0]+"/reminders", map[string]int{"hours_before": hours})
			if err != nil {
				return fmt.Errorf("schedule reminder: %w", err)
			}
			var r model.Reminder
			if err := resp.Decode(&r); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reminder %s set %dh before board %s\n", r.ID, r.HoursBefore, r.BoardID)
			return nil
		},
	}
	cmd.Flags().IntVar(&hours, "hours", 24, "Hours before the board")
	return cmd
}

func newRemindersRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run one reminder pass now (administrative)",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := client.Post("/api/v1/reminders/run", nil)
			if err != nil {
				return fmt.Errorf("run reminders: %w", err)
			}
			var report reminder.Report
			if err := resp.Decode(&report); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Reminders: %d scanned, %d sent, %d skipped, %d failed\n",
				report.Scanned, report.Sent, report.Skipped, report.Failed)
			printReport(out, report.Delivery)
			return nil
		},
	}
}
