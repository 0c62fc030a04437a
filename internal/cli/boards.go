package cli

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/me/mesas/pkg/model"
)

func newListCmd() *cobra.Command {
	var status, date string
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List boards",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			if status != "" {
				q.Set("status", status)
			}
			if date != "" {
				q.Set("date", date)
			}
			if limit > 0 {
				q.Set("limit", strconv.Itoa(limit))
			}
			if offset > 0 {
				q.Set("offset", strconv.Itoa(offset))
			}
			path := "/api/v1/boards/"
			if len(q) > 0 {
				path += "?" + q.Encode()
			}

			resp, err := client.Get(path)
			if err != nil {
				return fmt.Errorf("list boards: %w", err)
			}
			var boards []model.Board
			if err := resp.Decode(&boards); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(boards) == 0 {
				fmt.Fprintln(out, "No boards found.")
				return nil
			}
			printBoards(out, boards)
			if resp.Pagination != nil && resp.Pagination.HasMore {
				fmt.Fprintf(out, "\n(%d of %d shown)\n", len(boards), resp.Pagination.Total)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Filter by status (pending, confirmed, cancelled)")
	cmd.Flags().StringVar(&date, "date", "", "Filter by date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum boards to return")
	cmd.Flags().IntVar(&offset, "offset", 0, "Boards to skip")
	return cmd
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <board_id>",
		Short: "Show a board",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := client.Get("/api/v1/boards/" + args[0])
			if err != nil {
				return fmt.Errorf("get board: %w", err)
			}
			var b model.Board
			if err := resp.Decode(&b); err != nil {
				return err
			}
			printBoard(cmd.OutOrStdout(), b)
			return nil
		},
	}
}

func newCreateCmd() *cobra.Command {
	var in model.NewBoard

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Schedule a new board",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := client.Post("/api/v1/boards/", in)
			if err != nil {
				return fmt.Errorf("create board: %w", err)
			}
			var b model.Board
			if err := resp.Decode(&b); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Board created: %s\n", b.ID)
			printBoard(cmd.OutOrStdout(), b)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&in.Subject, "subject", "", "Subject being examined")
	f.StringVar(&in.Date, "date", "", "Exam date (YYYY-MM-DD)")
	f.StringVar(&in.Time, "time", "", "Exam time (HH:MM)")
	f.StringVar(&in.Room, "room", "", "Room")
	f.StringVar(&in.TitularID, "titular", "", "Titular examiner id")
	f.StringVar(&in.TitularName, "titular-name", "", "Titular examiner name")
	f.StringVar(&in.VocalID, "vocal", "", "Vocal examiner id")
	f.StringVar(&in.VocalName, "vocal-name", "", "Vocal examiner name")
	return cmd
}

func newUpdateCmd() *cobra.Command {
	var subject, date, tm, room, status, titular, vocal string

	cmd := &cobra.Command{
		Use:   "update <board_id>",
		Short: "Change a board (administrative)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch model.BoardPatch
			set := func(name string, dst **string, v string) {
				if cmd.Flags().Changed(name) {
					*dst = &v
				}
			}
			set("subject", &patch.Subject, subject)
			set("date", &patch.Date, date)
			set("time", &patch.Time, tm)
			set("room", &patch.Room, room)
			set("titular", &patch.TitularID, titular)
			set("vocal", &patch.VocalID, vocal)
			if cmd.Flags().Changed("status") {
				s := model.BoardStatus(status)
				patch.Status = &s
			}

			resp, err := client.Patch("/api/v1/boards/"+args[0], patch)
			if err != nil {
				return fmt.Errorf("update board: %w", err)
			}
			var b model.Board
			if err := resp.Decode(&b); err != nil {
				return err
			}
			printBoard(cmd.OutOrStdout(), b)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&subject, "subject", "", "New subject")
	f.StringVar(&date, "date", "", "New date (YYYY-MM-DD)")
	f.StringVar(&tm, "time", "", "New time (HH:MM)")
	f.StringVar(&room, "room", "", "New room")
	f.StringVar(&status, "status", "", "New status")
	f.StringVar(&titular, "titular", "", "Replace the titular examiner")
	f.StringVar(&vocal, "vocal", "", "Replace the vocal examiner")
	return cmd
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <board_id>",
		Short: "Delete a board (administrative)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := client.Delete("/api/v1/boards/"+args[0], nil); err != nil {
				return fmt.Errorf("delete board: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Board %s deleted\n", args[0])
			return nil
		},
	}
}

func newExaminerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "examiner <examiner_id>",
		Short: "List the boards an examiner sits on",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := client.Get("/api/v1/examiners/" + url.PathEscape(args[0]) + "/boards")
			if err != nil {
				return fmt.Errorf("list examiner boards: %w", err)
			}
			var boards []model.Board
			if err := resp.Decode(&boards); err != nil {
				return err
			}
			if len(boards) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No boards for %s.\n", args[0])
				return nil
			}
			printBoards(cmd.OutOrStdout(), boards)
			return nil
		},
	}
}
