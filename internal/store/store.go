package store

import (
	"context"
	"time"

	"github.com/me/mesas/pkg/model"
)

// Store defines the persistence layer for boards and reminders.
// Lookups return (nil, nil) when the record does not exist.
// Every failure matches model.ErrStore.
type Store interface {
	// Board CRUD
	CreateBoard(ctx context.Context, b *model.Board) error
	GetBoard(ctx context.Context, id string) (*model.Board, error)
	ListBoards(ctx context.Context, opts model.ListOptions) ([]*model.Board, int, error)
	ListBoardsByDate(ctx context.Context, date string) ([]*model.Board, error)
	ListBoardsByExaminer(ctx context.Context, examinerID string) ([]*model.Board, error)
	UpdateBoard(ctx context.Context, b *model.Board) error
	DeleteBoard(ctx context.Context, id string) error

	// Reminders
	CreateReminder(ctx context.Context, r *model.Reminder) error
	ListReminders(ctx context.Context, boardID string) ([]*model.Reminder, error)
	ListPendingReminders(ctx context.Context) ([]*model.Reminder, error)
	MarkReminderSent(ctx context.Context, id string, at time.Time) error

	// Lifecycle
	Close() error
	Migrate(ctx context.Context) error
}
