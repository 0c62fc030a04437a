package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/me/mesas/pkg/model"
)

func newAnswerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "answer <board_id> <examiner_id> <accepted|rejected>",
		Short: "Record an examiner's answer",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := client.Post("/api/v1/boards/"+args[0]+"/confirmations", map[string]string{
				"examiner_id": args[1],
				"value":       args[2],
			})
			if err != nil {
				return fmt.Errorf("record answer: %w", err)
			}
			var b model.Board
			if err := resp.Decode(&b); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s board %s\n", args[1], args[2], b.ID)
			if b.AllAccepted() && b.Status == model.BoardStatusPending {
				fmt.Fprintln(cmd.OutOrStdout(), "Both examiners accepted; awaiting department confirmation.")
			}
			return nil
		},
	}
}

// newStatusCmd builds the confirm, cancel and reopen commands, which
// differ only in the action they post.
func newStatusCmd(use, short, action string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <board_id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := client.Post("/api/v1/boards/"+args[0]+"/"+action, nil)
			if err != nil {
				return fmt.Errorf("%s board: %w", use, err)
			}
			var b model.Board
			if err := resp.Decode(&b); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Board %s: %s\n", b.ID, b.Status)
			return nil
		},
	}
}

func newConfirmCmd() *cobra.Command {
	return newStatusCmd("confirm", "Confirm a board (administrative)", "confirm")
}

func newCancelCmd() *cobra.Command {
	return newStatusCmd("cancel", "Cancel a pending board or roll back a confirmed one (administrative)", "cancel")
}

func newReopenCmd() *cobra.Command {
	return newStatusCmd("reopen", "Reopen a cancelled board (administrative)", "reopen")
}
