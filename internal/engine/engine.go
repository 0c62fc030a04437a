// Package engine owns the confirmation state machine of exam boards:
// recording examiner answers, computing aggregate acceptance, and the
// administrative lifecycle transitions.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/me/mesas/internal/store"
	"github.com/me/mesas/pkg/model"
)

// Notifier fans events out to the active delivery strategy. Failures are
// summarized in the report and never returned.
type Notifier interface {
	Notify(ctx context.Context, events ...model.Event) model.DeliveryReport
}

// Engine applies examiner confirmations to boards.
type Engine struct {
	store    store.Store
	notifier Notifier
	locks    *Locks
	logger   *slog.Logger
}

// New creates an Engine. locks is shared with every other writer of boards.
func New(st store.Store, n Notifier, locks *Locks, logger *slog.Logger) *Engine {
	if locks == nil {
		locks = NewLocks()
	}
	return &Engine{
		store:    st,
		notifier: n,
		locks:    locks,
		logger:   logger.With("component", "engine"),
	}
}

// Locks returns the per-board lock table.
func (e *Engine) Locks() *Locks { return e.locks }

// RecordConfirmation stores examinerID's answer on boardID and emits the
// resulting notifications. The answer is persisted before any event is
// sent, and delivery failures never undo it. Status stays pending even
// when both examiners accept: confirming is an administrative step.
func (e *Engine) RecordConfirmation(ctx context.Context, boardID, examinerID string, value model.Confirmation) (*model.Board, error) {
	if value != model.ConfirmationAccepted && value != model.ConfirmationRejected {
		return nil, &model.ValidationError{
			Reason:  model.ErrInvalidInput,
			Field:   "value",
			Message: fmt.Sprintf("confirmation must be %q or %q, got %q", model.ConfirmationAccepted, model.ConfirmationRejected, value),
		}
	}

	b, idx, err := e.persist(ctx, boardID, examinerID, value)
	if err != nil {
		return nil, err
	}

	e.logger.Info("confirmation recorded",
		"board_id", b.ID, "examiner_id", examinerID, "value", value,
		"all_accepted", b.AllAccepted())

	report := e.notifier.Notify(ctx, confirmationEvents(b, idx, value)...)
	if report.Failed > 0 {
		e.logger.Warn("confirmation notifications incomplete",
			"board_id", b.ID, "delivered", report.Delivered, "failed", report.Failed)
	}
	return b, nil
}

// persist runs the load-mutate-write sequence under the board's lock.
func (e *Engine) persist(ctx context.Context, boardID, examinerID string, value model.Confirmation) (*model.Board, int, error) {
	unlock := e.locks.Lock(boardID)
	defer unlock()

	b, err := e.store.GetBoard(ctx, boardID)
	if err != nil {
		return nil, -1, fmt.Errorf("load board %s: %w", boardID, err)
	}
	if b == nil {
		return nil, -1, model.BoardNotFound(boardID)
	}
	idx, ok := b.Assignment(examinerID)
	if !ok {
		return nil, -1, model.ExaminerNotAssigned(boardID, examinerID)
	}
	// Answers only count while the board is pending. Leaving confirmed
	// is an administrative step.
	if b.Status != model.BoardStatusPending {
		return nil, -1, &model.InvalidTransitionError{
			Entity: "board", ID: b.ID, From: string(b.Status), To: "confirmation " + string(value),
		}
	}

	b.Examiners[idx].Confirmation = value
	b.UpdatedAt = time.Now().UTC()
	if err := e.store.UpdateBoard(ctx, b); err != nil {
		return nil, -1, fmt.Errorf("save confirmation: %w", err)
	}
	return b, idx, nil
}

// confirmationEvents builds the fan-out for one recorded answer.
func confirmationEvents(b *model.Board, idx int, value model.Confirmation) []model.Event {
	who := b.Examiners[idx]
	name := displayName(who)
	role := model.RoleAt(idx)

	events := []model.Event{
		model.NewEvent(model.EventConfirmation, b.ID,
			fmt.Sprintf("%s (%s) %s the board %s", name, role, value.Verb(), b.Describe()),
			append(b.ExaminerIDs(), model.DepartmentRecipient)...),
	}

	if b.AllAccepted() {
		events = append(events,
			model.NewEvent(model.EventUpdate, b.ID,
				fmt.Sprintf("Both examiners accepted %s; ready for administrative confirmation", b.Describe()),
				b.ExaminerIDs()...),
			model.NewEvent(model.EventUpdate, b.ID,
				fmt.Sprintf("Board %s has both acceptances and awaits confirmation", b.Describe()),
				model.DepartmentRecipient),
		)
	}

	if value == model.ConfirmationRejected {
		msg := fmt.Sprintf("%s (%s) rejected the board %s", name, role, b.Describe())
		for i, a := range b.Examiners {
			if i != idx && a.ExaminerID != "" {
				events = append(events, model.NewEvent(model.EventUpdate, b.ID, msg, a.ExaminerID))
			}
		}
		events = append(events, model.NewEvent(model.EventUpdate, b.ID, msg, model.DepartmentRecipient))
	}
	return events
}

func displayName(a model.ExaminerAssignment) string {
	if a.Name != "" {
		return a.Name
	}
	return a.ExaminerID
}
