// Package reminder sends reminder notifications for boards that are about
// to take place.
package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/me/mesas/internal/engine"
	"github.com/me/mesas/internal/store"
	"github.com/me/mesas/pkg/model"
)

// Report summarizes one processing pass.
type Report struct {
	Scanned  int                  `json:"scanned"`
	Sent     int                  `json:"sent"`
	Skipped  int                  `json:"skipped"`
	Failed   int                  `json:"failed"`
	Delivery model.DeliveryReport `json:"delivery"`
}

// Processor turns due reminders into reminder events.
type Processor struct {
	mu       sync.Mutex // one pass at a time
	store    store.Store
	notifier engine.Notifier
	loc      *time.Location
	now      func() time.Time
	logger   *slog.Logger
}

// NewProcessor creates a Processor reading board times in loc.
func NewProcessor(st store.Store, n engine.Notifier, loc *time.Location, logger *slog.Logger) *Processor {
	if loc == nil {
		loc = time.Local
	}
	return &Processor{
		store:    st,
		notifier: n,
		loc:      loc,
		now:      time.Now,
		logger:   logger.With("component", "reminder"),
	}
}

// Schedule attaches a reminder to boardID, due hoursBefore hours ahead of
// the board.
func (p *Processor) Schedule(ctx context.Context, boardID string, hoursBefore int) (*model.Reminder, error) {
	if hoursBefore <= 0 {
		return nil, &model.ValidationError{
			Reason: model.ErrInvalidInput, Field: "hours_before",
			Message: fmt.Sprintf("hours_before must be positive, got %d", hoursBefore),
		}
	}
	b, err := p.store.GetBoard(ctx, boardID)
	if err != nil {
		return nil, fmt.Errorf("load board %s: %w", boardID, err)
	}
	if b == nil {
		return nil, model.BoardNotFound(boardID)
	}

	r := &model.Reminder{
		ID:          "rem_" + uuid.New().String(),
		BoardID:     boardID,
		HoursBefore: hoursBefore,
		CreatedAt:   p.now().UTC(),
	}
	if err := p.store.CreateReminder(ctx, r); err != nil {
		return nil, fmt.Errorf("create reminder: %w", err)
	}
	p.logger.Info("reminder scheduled", "reminder_id", r.ID, "board_id", boardID, "hours_before", hoursBefore)
	return r, nil
}

// List returns the reminders attached to boardID.
func (p *Processor) List(ctx context.Context, boardID string) ([]*model.Reminder, error) {
	return p.store.ListReminders(ctx, boardID)
}

// Process scans every unsent reminder once. A reminder fires when the time
// left before its board is at most HoursBefore hours. Reminders of deleted
// or cancelled boards are skipped; per-item failures are counted and the
// scan continues.
func (p *Processor) Process(ctx context.Context) (Report, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var report Report

	pending, err := p.store.ListPendingReminders(ctx)
	if err != nil {
		return report, fmt.Errorf("list pending reminders: %w", err)
	}
	report.Scanned = len(pending)
	now := p.now().In(p.loc)

	for _, r := range pending {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		sent, err := p.processOne(ctx, r, now, &report.Delivery)
		switch {
		case err != nil:
			report.Failed++
			p.logger.Error("reminder failed", "reminder_id", r.ID, "board_id", r.BoardID, "error", err)
		case sent:
			report.Sent++
		default:
			report.Skipped++
		}
	}

	if report.Sent > 0 || report.Failed > 0 {
		p.logger.Info("reminders processed",
			"scanned", report.Scanned, "sent", report.Sent, "skipped", report.Skipped, "failed", report.Failed)
	}
	return report, nil
}

func (p *Processor) processOne(ctx context.Context, r *model.Reminder, now time.Time, delivery *model.DeliveryReport) (bool, error) {
	b, err := p.store.GetBoard(ctx, r.BoardID)
	if err != nil {
		return false, err
	}
	if b == nil {
		p.logger.Debug("reminder board gone", "reminder_id", r.ID, "board_id", r.BoardID)
		return false, nil
	}
	if b.Status == model.BoardStatusCancelled {
		return false, nil
	}

	at, err := b.ScheduledAt(p.loc)
	if err != nil {
		return false, fmt.Errorf("board %s schedule: %w", b.ID, err)
	}
	remaining := at.Sub(now).Hours()
	if remaining > float64(r.HoursBefore) {
		return false, nil
	}

	ev := model.NewEvent(model.EventReminder, b.ID,
		fmt.Sprintf("Reminder: %s takes place %s", b.Describe(), humanize.RelTime(at, now, "ago", "from now")),
		b.ExaminerIDs()...)
	delivery.Merge(p.notifier.Notify(ctx, ev))

	if err := p.store.MarkReminderSent(ctx, r.ID, now); err != nil {
		return false, fmt.Errorf("mark sent: %w", err)
	}
	return true, nil
}
