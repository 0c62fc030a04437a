package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

type notifierState struct {
	Strategy   string   `json:"strategy"`
	Available  []string `json:"available"`
	Listeners  int      `json:"listeners"`
	Recipients int      `json:"recipients"`
}

func newNotifierCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notifier [strategy]",
		Short: "Show the notification strategy, or switch it (administrative)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				resp *apiResponse
				err  error
			)
			if len(args) == 1 {
				resp, err = client.Put("/api/v1/notifier", map[string]string{"strategy": args[0]})
			} else {
				resp, err = client.Get("/api/v1/notifier")
			}
			if err != nil {
				return fmt.Errorf("notifier: %w", err)
			}
			var st notifierState
			if err := resp.Decode(&st); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Strategy:   %s\n", st.Strategy)
			fmt.Fprintf(out, "Available:  %s\n", strings.Join(st.Available, ", "))
			fmt.Fprintf(out, "Listeners:  %d\n", st.Listeners)
			fmt.Fprintf(out, "Recipients: %d\n", st.Recipients)
			return nil
		},
	}
	return cmd
}
