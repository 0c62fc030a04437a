package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/me/mesas/pkg/model"
)

const boardRow = "%-42s  %-10s  %-11s  %-5s  %-20s  %s\n"

func printBoards(w io.Writer, boards []model.Board) {
	fmt.Fprintf(w, boardRow, "ID", "STATUS", "DATE", "TIME", "SUBJECT", "EXAMINERS")
	fmt.Fprintf(w, boardRow, "--", "------", "----", "----", "-------", "---------")
	for _, b := range boards {
		fmt.Fprintf(w, boardRow, b.ID, b.Status, b.Date, b.Time, b.Subject, examinerSummary(b))
	}
}

// examinerSummary renders "doc_a:accepted, doc_b:pending".
func examinerSummary(b model.Board) string {
	s := ""
	for i, a := range b.Examiners {
		if i > 0 {
			s += ", "
		}
		s += a.ExaminerID + ":" + string(a.Confirmation)
	}
	return s
}

func printBoard(w io.Writer, b model.Board) {
	fmt.Fprintf(w, "Board: %s\n", b.ID)
	fmt.Fprintf(w, "  Subject:  %s\n", b.Subject)
	when := b.Date + " " + b.Time
	if at, err := b.ScheduledAt(time.Local); err == nil {
		when += " (" + humanize.Time(at) + ")"
	}
	fmt.Fprintf(w, "  When:     %s\n", when)
	if b.Room != "" {
		fmt.Fprintf(w, "  Room:     %s\n", b.Room)
	}
	fmt.Fprintf(w, "  Status:   %s\n", b.Status)
	for i, a := range b.Examiners {
		name := a.ExaminerID
		if a.Name != "" {
			name += " (" + a.Name + ")"
		}
		fmt.Fprintf(w, "  %-8s  %s: %s\n", model.RoleAt(i), name, a.Confirmation)
	}
	if !b.CreatedAt.IsZero() {
		fmt.Fprintf(w, "  Created:  %s\n", humanize.Time(b.CreatedAt))
	}
}

func printReport(w io.Writer, r model.DeliveryReport) {
	if r.Notifier == "" && r.Attempted == 0 {
		return
	}
	fmt.Fprintf(w, "  Delivery: %s, %d attempted, %d delivered, %d failed",
		r.Notifier, r.Attempted, r.Delivered, r.Failed)
	if r.Pruned > 0 {
		fmt.Fprintf(w, ", %s pruned", humanize.Comma(int64(r.Pruned)))
	}
	fmt.Fprintln(w)
}
