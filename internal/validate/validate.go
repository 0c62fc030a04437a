// Package validate checks candidate exam boards against the calendar of
// existing boards. It is pure: the current moment is always passed in.
package validate

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/me/mesas/pkg/model"
)

// Rules holds the tunable thresholds of the conflict checks.
type Rules struct {
	MinLeadTime    time.Duration // Minimum distance between now and the board (inclusive)
	ConflictWindow int           // Same-day start-hour distance that counts as a clash
}

// DefaultRules returns the standard thresholds: 48h lead time, 4h window.
func DefaultRules() Rules {
	return Rules{MinLeadTime: 48 * time.Hour, ConflictWindow: 4}
}

// Options adjusts a single validation run.
type Options struct {
	// SkipTiming disables the past-date and lead-time rules. Used when an
	// update does not move the board in time.
	SkipTiming bool
}

// Board runs every rule in order and returns the first failure as a
// *model.ValidationError. existing may include candidate itself; boards
// sharing candidate.ID are ignored.
func Board(candidate *model.Board, existing []*model.Board, now time.Time, rules Rules, opts Options) error {
	if err := requiredFields(candidate); err != nil {
		return err
	}
	if !opts.SkipTiming {
		if err := timing(candidate, now, rules); err != nil {
			return err
		}
	}
	return conflicts(candidate, existing, rules)
}

func requiredFields(b *model.Board) error {
	if strings.TrimSpace(b.Subject) == "" {
		return missing("subject", "subject is required")
	}
	if strings.TrimSpace(b.Date) == "" {
		return missing("date", "date is required")
	}
	if _, err := time.Parse(model.DateLayout, b.Date); err != nil {
		return &model.ValidationError{Reason: model.ErrInvalidInput, Field: "date", Message: fmt.Sprintf("date %q is not YYYY-MM-DD", b.Date)}
	}
	if b.Time != "" {
		if _, err := time.Parse(model.TimeLayout, b.Time); err != nil {
			return &model.ValidationError{Reason: model.ErrInvalidInput, Field: "time", Message: fmt.Sprintf("time %q is not HH:MM", b.Time)}
		}
	}
	if len(b.Examiners) < 2 {
		return missing("examiners", "two examiners are required")
	}
	for i, a := range b.Examiners[:2] {
		if strings.TrimSpace(a.ExaminerID) == "" {
			return missing(string(model.RoleAt(i))+"_id", fmt.Sprintf("%s examiner is required", model.RoleAt(i)))
		}
	}
	if b.Examiners[0].ExaminerID == b.Examiners[1].ExaminerID {
		return missing("vocal_id", "titular and vocal must be different examiners")
	}
	return nil
}

func missing(field, msg string) error {
	return &model.ValidationError{Reason: model.ErrMissingField, Field: field, Message: msg}
}

func timing(b *model.Board, now time.Time, rules Rules) error {
	loc := now.Location()
	day, err := b.Day(loc)
	if err != nil {
		return &model.ValidationError{Reason: model.ErrInvalidInput, Field: "date", Message: err.Error()}
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	if day.Before(today) {
		return &model.ValidationError{
			Reason:  model.ErrPastDate,
			Field:   "date",
			Message: fmt.Sprintf("%s is before today (%s)", b.Date, today.Format(model.DateLayout)),
		}
	}

	at, err := b.ScheduledAt(loc)
	if err != nil {
		return &model.ValidationError{Reason: model.ErrInvalidInput, Field: "time", Message: err.Error()}
	}
	lead := at.Sub(now)
	if lead < rules.MinLeadTime {
		return &model.ValidationError{
			Reason:   model.ErrInsufficientLeadTime,
			Field:    "date",
			LeadTime: lead,
			Message: fmt.Sprintf("board starts %s, at least %s of notice is required (lead time %s)",
				humanize.RelTime(at, now, "ago", "from now"), rules.MinLeadTime, lead.Round(time.Minute)),
		}
	}
	return nil
}

func conflicts(b *model.Board, existing []*model.Board, rules Rules) error {
	hour, err := b.Hour()
	if err != nil && b.Time != "" {
		return &model.ValidationError{Reason: model.ErrInvalidInput, Field: "time", Message: err.Error()}
	}

	for _, examinerID := range b.ExaminerIDs() {
		for _, other := range existing {
			if other == nil || other.ID == b.ID || other.Date != b.Date {
				continue
			}
			if other.Status == model.BoardStatusCancelled {
				continue
			}
			if _, assigned := other.Assignment(examinerID); !assigned {
				continue
			}
			otherHour, err := other.Hour()
			if err != nil {
				continue
			}
			if abs(otherHour-hour) < rules.ConflictWindow {
				return &model.ValidationError{
					Reason:       model.ErrScheduleConflict,
					Field:        "examiners",
					Examiner:     examinerID,
					ConflictTime: other.Time,
					Message: fmt.Sprintf("examiner %s already sits on %q at %s on %s",
						examinerID, other.Subject, other.Time, other.Date),
				}
			}
		}
	}
	return nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
