// Package scheduling is the entry point for every board operation exposed
// to the API: creation, partial updates, deletion, and the administrative
// lifecycle (direct confirmation, cancellation, reopening).
package scheduling

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/me/mesas/internal/engine"
	"github.com/me/mesas/internal/store"
	"github.com/me/mesas/internal/validate"
	"github.com/me/mesas/pkg/model"
)

// Service orchestrates board writes. It shares its lock table with the
// confirmation engine so that every load-mutate-persist sequence on a
// board is serialized.
type Service struct {
	store    store.Store
	engine   *engine.Engine
	notifier engine.Notifier
	locks    *engine.Locks
	rules    validate.Rules
	loc      *time.Location
	now      func() time.Time
	logger   *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithRules overrides the validation thresholds.
func WithRules(r validate.Rules) Option {
	return func(s *Service) { s.rules = r }
}

// WithLocation sets the time zone board dates and times are read in.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates a Service on top of eng, reusing its lock table.
func New(st store.Store, eng *engine.Engine, n engine.Notifier, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		store:    st,
		engine:   eng,
		notifier: n,
		locks:    eng.Locks(),
		rules:    validate.DefaultRules(),
		loc:      time.Local,
		now:      time.Now,
		logger:   logger.With("component", "scheduling"),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Service) clock() time.Time {
	return s.now().In(s.loc)
}

// dateKey namespaces calendar-day locks away from board ids.
func dateKey(date string) string { return "date:" + date }

// CreateBoard validates in against the calendar, stores it with both
// assignments pending, and tells each examiner about the assignment.
func (s *Service) CreateBoard(ctx context.Context, in model.NewBoard) (*model.Board, error) {
	b := in.Board()
	b.ID = "mesa_" + uuid.New().String()

	// Validation and insert must see the same calendar day.
	unlock := s.locks.Lock(dateKey(b.Date))
	defer unlock()

	now := s.clock()
	if err := s.validate(ctx, b, now, validate.Options{}); err != nil {
		return nil, err
	}

	b.CreatedAt = now.UTC()
	b.UpdatedAt = b.CreatedAt
	if err := s.store.CreateBoard(ctx, b); err != nil {
		return nil, fmt.Errorf("create board: %w", err)
	}
	s.logger.Info("board created", "board_id", b.ID, "subject", b.Subject, "date", b.Date, "time", b.Time)

	events := make([]model.Event, 0, len(b.Examiners))
	for i, a := range b.Examiners {
		events = append(events, model.NewEvent(model.EventUpdate, b.ID,
			fmt.Sprintf("You were assigned as %s of %s", model.RoleAt(i), b.Describe()),
			a.ExaminerID))
	}
	s.notifier.Notify(ctx, events...)
	return b, nil
}

// validate checks b against the other boards of its day.
func (s *Service) validate(ctx context.Context, b *model.Board, now time.Time, opts validate.Options) error {
	sameDay, err := s.store.ListBoardsByDate(ctx, b.Date)
	if err != nil {
		return fmt.Errorf("load calendar for %s: %w", b.Date, err)
	}
	return validate.Board(b, sameDay, now, s.rules, opts)
}

// GetBoard returns a board or a BoardNotFound error.
func (s *Service) GetBoard(ctx context.Context, id string) (*model.Board, error) {
	b, err := s.store.GetBoard(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get board %s: %w", id, err)
	}
	if b == nil {
		return nil, model.BoardNotFound(id)
	}
	return b, nil
}

// ListBoards returns a page of boards and the total match count.
func (s *Service) ListBoards(ctx context.Context, opts model.ListOptions) ([]*model.Board, int, error) {
	if opts.Status != "" && !model.BoardStatus(opts.Status).Valid() {
		return nil, 0, &model.ValidationError{
			Reason: model.ErrInvalidInput, Field: "status",
			Message: fmt.Sprintf("unknown status %q", opts.Status),
		}
	}
	opts.Clamp()
	return s.store.ListBoards(ctx, opts)
}

// ListExaminerBoards returns every board examinerID sits on.
func (s *Service) ListExaminerBoards(ctx context.Context, examinerID string) ([]*model.Board, error) {
	return s.store.ListBoardsByExaminer(ctx, examinerID)
}

// RecordConfirmation forwards an examiner's answer to the engine.
func (s *Service) RecordConfirmation(ctx context.Context, boardID, examinerID string, value model.Confirmation) (*model.Board, error) {
	return s.engine.RecordConfirmation(ctx, boardID, examinerID, value)
}

// UpdateBoard applies patch to board id. Omitted fields keep their value.
// Moving or reassigning a board re-runs validation; the lead-time rules
// only apply when the date or time change.
func (s *Service) UpdateBoard(ctx context.Context, id string, patch model.BoardPatch) (*model.Board, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	cur, err := s.GetBoard(ctx, id)
	if err != nil {
		return nil, err
	}

	next, err := merge(ctx, cur, patch)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	if patch.ReschedulesOrReassigns() {
		unlockDay := s.locks.Lock(dateKey(next.Date))
		defer unlockDay()
		if err := s.validate(ctx, next, now, validate.Options{SkipTiming: !patch.Reschedules()}); err != nil {
			return nil, err
		}
	}

	next.UpdatedAt = now.UTC()
	if err := s.store.UpdateBoard(ctx, next); err != nil {
		return nil, fmt.Errorf("update board %s: %w", id, err)
	}
	s.logger.Info("board updated", "board_id", id, "status", next.Status)

	s.notifier.Notify(ctx, updateEvents(cur, next)...)
	return next, nil
}

// merge builds the updated board without touching cur.
func merge(ctx context.Context, cur *model.Board, p model.BoardPatch) (*model.Board, error) {
	next := cur.Clone()

	if p.Status != nil && *p.Status != cur.Status {
		if !p.Status.Valid() {
			return nil, &model.ValidationError{
				Reason: model.ErrInvalidInput, Field: "status",
				Message: fmt.Sprintf("unknown status %q", *p.Status),
			}
		}
		// Cancelling a confirmed board rolls it back, as CancelBoard does.
		if cur.Status == model.BoardStatusConfirmed && *p.Status == model.BoardStatusCancelled {
			if err := engine.Fire(ctx, next, engine.EventRollback); err != nil {
				return nil, err
			}
		} else if err := engine.Transition(ctx, next, *p.Status); err != nil {
			return nil, err
		}
	}

	if p.Subject != nil {
		next.Subject = trim(*p.Subject)
	}
	if p.Date != nil {
		next.Date = trim(*p.Date)
	}
	if p.Time != nil {
		next.Time = trim(*p.Time)
	}
	if p.Room != nil {
		next.Room = trim(*p.Room)
	}

	switch {
	case p.Examiners != nil:
		next.Examiners = make([]model.ExaminerAssignment, len(p.Examiners))
		for i, a := range p.Examiners {
			if a.Confirmation == "" {
				a.Confirmation = model.ConfirmationPending
			}
			if !a.Confirmation.Valid() {
				return nil, &model.ValidationError{
					Reason: model.ErrInvalidInput, Field: "examiners",
					Message: fmt.Sprintf("unknown confirmation %q", a.Confirmation),
				}
			}
			a.ExaminerID = trim(a.ExaminerID)
			next.Examiners[i] = a
		}
	default:
		reassign(next, 0, p.TitularID, p.TitularName)
		reassign(next, 1, p.VocalID, p.VocalName)
	}
	return next, nil
}

// reassign updates seat i. A new examiner id starts pending; the same id
// keeps its confirmation.
func reassign(b *model.Board, i int, id, name *string) {
	for len(b.Examiners) <= i {
		b.Examiners = append(b.Examiners, model.ExaminerAssignment{Confirmation: model.ConfirmationPending})
	}
	seat := &b.Examiners[i]
	if id != nil && trim(*id) != seat.ExaminerID {
		seat.ExaminerID = trim(*id)
		seat.Confirmation = model.ConfirmationPending
		seat.Name = ""
	}
	if name != nil {
		seat.Name = *name
	}
}

func trim(s string) string { return strings.TrimSpace(s) }

// updateEvents announces status changes to every examiner and new seats
// to their new holders.
func updateEvents(prev, next *model.Board) []model.Event {
	var events []model.Event
	if prev.Status != next.Status &&
		(next.Status == model.BoardStatusConfirmed || next.Status == model.BoardStatusPending) {
		events = append(events, model.NewEvent(model.EventUpdate, next.ID,
			fmt.Sprintf("Board %s is now %s", next.Describe(), next.Status),
			next.ExaminerIDs()...))
	}
	for i, a := range next.Examiners {
		if a.ExaminerID == "" {
			continue
		}
		if _, had := prev.Assignment(a.ExaminerID); !had {
			events = append(events, model.NewEvent(model.EventUpdate, next.ID,
				fmt.Sprintf("You were assigned as %s of %s", model.RoleAt(i), next.Describe()),
				a.ExaminerID))
		}
	}
	return events
}

// DeleteBoard removes a board and its reminders. No one is notified.
func (s *Service) DeleteBoard(ctx context.Context, id string) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	if err := s.store.DeleteBoard(ctx, id); err != nil {
		return fmt.Errorf("delete board %s: %w", id, err)
	}
	s.logger.Info("board deleted", "board_id", id)
	return nil
}

// ConfirmBoardDirect is the administrative override: every assignment is
// forced to accepted and the board becomes confirmed, whatever the
// examiners answered.
func (s *Service) ConfirmBoardDirect(ctx context.Context, id string) (*model.Board, error) {
	return s.transition(ctx, id, func(b *model.Board) error {
		if b.Status != model.BoardStatusConfirmed {
			if err := engine.Fire(ctx, b, engine.EventConfirm); err != nil {
				return err
			}
		}
		b.SetAllConfirmations(model.ConfirmationAccepted)
		return nil
	}, "The department confirmed the board %s")
}

// CancelBoard cancels a pending board. A confirmed board is rolled back
// to pending instead, with every confirmation reset, so it can be
// confirmed again.
func (s *Service) CancelBoard(ctx context.Context, id string) (*model.Board, error) {
	return s.transition(ctx, id, func(b *model.Board) error {
		if b.Status == model.BoardStatusConfirmed {
			return engine.Fire(ctx, b, engine.EventRollback)
		}
		return engine.Fire(ctx, b, engine.EventCancel)
	}, "The department cancelled the board %s")
}

// ReopenBoard moves a cancelled board back to pending. Its slot is
// checked against the calendar again since others may have taken it.
func (s *Service) ReopenBoard(ctx context.Context, id string) (*model.Board, error) {
	return s.transition(ctx, id, func(b *model.Board) error {
		if err := engine.Fire(ctx, b, engine.EventReopen); err != nil {
			return err
		}
		unlockDay := s.locks.Lock(dateKey(b.Date))
		defer unlockDay()
		return s.validate(ctx, b, s.clock(), validate.Options{SkipTiming: true})
	}, "The department reopened the board %s")
}

// transition runs an administrative change under the board's lock and
// notifies every examiner.
func (s *Service) transition(ctx context.Context, id string, apply func(*model.Board) error, msg string) (*model.Board, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	b, err := s.GetBoard(ctx, id)
	if err != nil {
		return nil, err
	}
	from := b.Status
	if err := apply(b); err != nil {
		return nil, err
	}
	b.UpdatedAt = s.clock().UTC()
	if err := s.store.UpdateBoard(ctx, b); err != nil {
		return nil, fmt.Errorf("update board %s: %w", id, err)
	}
	s.logger.Info("board status changed", "board_id", id, "from", from, "to", b.Status)

	s.notifier.Notify(ctx, model.NewEvent(model.EventUpdate, b.ID,
		fmt.Sprintf(msg, b.Describe()), b.ExaminerIDs()...))
	return b, nil
}
