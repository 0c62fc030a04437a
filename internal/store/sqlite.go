package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/me/mesas/pkg/model"

	_ "modernc.org/sqlite"
)

const boardColumns = `id, subject, date, time, room, status, examiners, created_at, updated_at`

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and returns a Store.
// Use ":memory:" for an in-memory database (useful in tests).
func NewSQLiteStore(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	// A single connection keeps ":memory:" databases coherent and
	// serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma wal: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		logger: logger.With("component", "store", "driver", "sqlite"),
	}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Migrate creates all required tables and indexes.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	s.logger.Debug("sql", "op", "migrate")
	return model.NewStoreError("migrate", migrate(ctx, s.db.DB))
}

// --- Boards ---

func (s *SQLiteStore) CreateBoard(ctx context.Context, b *model.Board) error {
	s.logger.Debug("sql", "op", "insert", "table", "boards", "id", b.ID)

	row, err := toRow(b)
	if err != nil {
		return model.NewStoreError("insert board", err)
	}
	_, err = s.db.NamedExecContext(ctx,
		`INSERT INTO boards (`+boardColumns+`)
		 VALUES (:id, :subject, :date, :time, :room, :status, :examiners, :created_at, :updated_at)`, row)
	return model.NewStoreError("insert board", err)
}

func (s *SQLiteStore) GetBoard(ctx context.Context, id string) (*model.Board, error) {
	s.logger.Debug("sql", "op", "select", "table", "boards", "id", id)

	var row boardRow
	err := s.db.GetContext(ctx, &row, `SELECT `+boardColumns+` FROM boards WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, model.NewStoreError("get board", err)
	}
	b, err := row.board()
	return b, model.NewStoreError("get board", err)
}

func (s *SQLiteStore) ListBoards(ctx context.Context, opts model.ListOptions) ([]*model.Board, int, error) {
	s.logger.Debug("sql", "op", "list", "table", "boards", "limit", opts.Limit, "offset", opts.Offset, "status", opts.Status)
	opts.Clamp()

	where := ` WHERE 1=1`
	var args []any
	if opts.Status != "" {
		where += ` AND status = ?`
		args = append(args, opts.Status)
	}
	if opts.Date != "" {
		where += ` AND date = ?`
		args = append(args, opts.Date)
	}

	var total int
	if err := s.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM boards`+where, args...); err != nil {
		return nil, 0, model.NewStoreError("count boards", err)
	}

	var rows []boardRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT `+boardColumns+` FROM boards`+where+` ORDER BY date, time, id LIMIT ? OFFSET ?`,
		append(args, opts.Limit, opts.Offset)...)
	if err != nil {
		return nil, 0, model.NewStoreError("list boards", err)
	}
	boards, err := rowsToBoards(rows)
	if err != nil {
		return nil, 0, model.NewStoreError("list boards", err)
	}
	return boards, total, nil
}

func (s *SQLiteStore) ListBoardsByDate(ctx context.Context, date string) ([]*model.Board, error) {
	s.logger.Debug("sql", "op", "list_by_date", "table", "boards", "date", date)

	var rows []boardRow
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT `+boardColumns+` FROM boards WHERE date = ? ORDER BY time, id`, date); err != nil {
		return nil, model.NewStoreError("list boards by date", err)
	}
	boards, err := rowsToBoards(rows)
	return boards, model.NewStoreError("list boards by date", err)
}

func (s *SQLiteStore) ListBoardsByExaminer(ctx context.Context, examinerID string) ([]*model.Board, error) {
	s.logger.Debug("sql", "op", "list_by_examiner", "table", "boards", "examiner_id", examinerID)

	var rows []boardRow
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT `+boardColumns+` FROM boards
		 WHERE EXISTS (
			SELECT 1 FROM json_each(boards.examiners)
			WHERE json_extract(json_each.value, '$.examiner_id') = ?
		 )
		 ORDER BY date, time, id`, examinerID); err != nil {
		return nil, model.NewStoreError("list boards by examiner", err)
	}
	boards, err := rowsToBoards(rows)
	return boards, model.NewStoreError("list boards by examiner", err)
}

func (s *SQLiteStore) UpdateBoard(ctx context.Context, b *model.Board) error {
	s.logger.Debug("sql", "op", "update", "table", "boards", "id", b.ID)

	row, err := toRow(b)
	if err != nil {
		return model.NewStoreError("update board", err)
	}
	res, err := s.db.NamedExecContext(ctx,
		`UPDATE boards SET subject = :subject, date = :date, time = :time, room = :room,
		 status = :status, examiners = :examiners, updated_at = :updated_at
		 WHERE id = :id`, row)
	if err != nil {
		return model.NewStoreError("update board", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.BoardNotFound(b.ID)
	}
	return nil
}

// DeleteBoard removes a board; its reminders go with it.
func (s *SQLiteStore) DeleteBoard(ctx context.Context, id string) error {
	s.logger.Debug("sql", "op", "delete", "table", "boards", "id", id)

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return model.NewStoreError("delete board", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM reminders WHERE board_id = ?`, id); err != nil {
		return model.NewStoreError("delete reminders", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM boards WHERE id = ?`, id)
	if err != nil {
		return model.NewStoreError("delete board", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.BoardNotFound(id)
	}
	return model.NewStoreError("delete board", tx.Commit())
}

// --- Reminders ---

func (s *SQLiteStore) CreateReminder(ctx context.Context, r *model.Reminder) error {
	s.logger.Debug("sql", "op", "insert", "table", "reminders", "id", r.ID, "board_id", r.BoardID)

	var sentAt *string
	if r.SentAt != nil {
		v := r.SentAt.UTC().Format(time.RFC3339Nano)
		sentAt = &v
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reminders (id, board_id, hours_before, sent, created_at, sent_at) VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, r.BoardID, r.HoursBefore, r.Sent, r.CreatedAt.UTC().Format(time.RFC3339Nano), sentAt)
	return model.NewStoreError("insert reminder", err)
}

func (s *SQLiteStore) ListReminders(ctx context.Context, boardID string) ([]*model.Reminder, error) {
	s.logger.Debug("sql", "op", "list", "table", "reminders", "board_id", boardID)
	return s.selectReminders(ctx, "list reminders",
		`SELECT id, board_id, hours_before, sent, created_at, sent_at FROM reminders WHERE board_id = ? ORDER BY hours_before DESC, id`, boardID)
}

func (s *SQLiteStore) ListPendingReminders(ctx context.Context) ([]*model.Reminder, error) {
	s.logger.Debug("sql", "op", "list_pending", "table", "reminders")
	return s.selectReminders(ctx, "list pending reminders",
		`SELECT id, board_id, hours_before, sent, created_at, sent_at FROM reminders WHERE sent = 0 ORDER BY created_at, id`)
}

func (s *SQLiteStore) selectReminders(ctx context.Context, op, query string, args ...any) ([]*model.Reminder, error) {
	var rows []reminderRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, model.NewStoreError(op, err)
	}
	out := make([]*model.Reminder, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.reminder())
	}
	return out, nil
}

func (s *SQLiteStore) MarkReminderSent(ctx context.Context, id string, at time.Time) error {
	s.logger.Debug("sql", "op", "mark_sent", "table", "reminders", "id", id)

	res, err := s.db.ExecContext(ctx,
		`UPDATE reminders SET sent = 1, sent_at = ? WHERE id = ?`, at.UTC().Format(time.RFC3339Nano), id)
	if err != nil {
		return model.NewStoreError("mark reminder sent", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &model.NotFoundError{Reason: model.ErrReminderNotFound, Resource: "reminder", ID: id}
	}
	return nil
}
