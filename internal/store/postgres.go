package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/me/mesas/pkg/model"
)

const (
	dialectPostgres = "postgres"
	tableBoards     = "boards"
	tableReminders  = "reminders"
	castJsonb       = "?::jsonb"
)

var pq = goqu.Dialect(dialectPostgres)

// boardSelect lists the board columns, reading JSONB back as text.
var boardSelect = []any{
	"id", "subject", "date", "time", "room", "status",
	goqu.L("examiners::text").As("examiners"),
	"created_at", "updated_at",
}

var reminderSelect = []any{"id", "board_id", "hours_before", "sent", "created_at", "sent_at"}

// PostgresStore implements Store on a pgx connection pool.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// PoolConfig parses dsn and applies the pool sizing used by the server.
func PoolConfig(dsn string) (*pgxpool.Config, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	cfg.MaxConns = 8
	cfg.MinConns = 1
	cfg.MaxConnLifetime = time.Hour
	cfg.MaxConnIdleTime = 5 * time.Minute
	cfg.HealthCheckPeriod = time.Minute
	cfg.ConnConfig.ConnectTimeout = 5 * time.Second
	return cfg, nil
}

// NewPostgresStore connects to dsn and returns a Store.
func NewPostgresStore(ctx context.Context, dsn string, logger *slog.Logger) (*PostgresStore, error) {
	cfg, err := PoolConfig(dsn)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &PostgresStore{
		pool:   pool,
		logger: logger.With("component", "store", "driver", "postgres"),
	}, nil
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// Migrate creates all required tables and indexes.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	s.logger.Debug("sql", "op", "migrate")
	for _, stmt := range postgresSchema {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return model.NewStoreError("migrate", err)
		}
	}
	return nil
}

func (s *PostgresStore) exec(ctx context.Context, op string, ds interface {
	ToSQL() (string, []any, error)
}) (int64, error) {
	query, args, err := ds.ToSQL()
	if err != nil {
		return 0, model.NewStoreError(op, fmt.Errorf("build query: %w", err))
	}
	s.logger.Debug("sql", "op", op, "query", query)
	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, model.NewStoreError(op, err)
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStore) queryBoards(ctx context.Context, op string, ds *goqu.SelectDataset) ([]*model.Board, error) {
	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, model.NewStoreError(op, fmt.Errorf("build query: %w", err))
	}
	s.logger.Debug("sql", "op", op, "query", query)
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, model.NewStoreError(op, err)
	}
	collected, err := pgx.CollectRows(rows, pgx.RowToStructByName[boardRow])
	if err != nil {
		return nil, model.NewStoreError(op, err)
	}
	boards, err := rowsToBoards(collected)
	return boards, model.NewStoreError(op, err)
}

func (s *PostgresStore) queryReminders(ctx context.Context, op string, ds *goqu.SelectDataset) ([]*model.Reminder, error) {
	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, model.NewStoreError(op, fmt.Errorf("build query: %w", err))
	}
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, model.NewStoreError(op, err)
	}
	collected, err := pgx.CollectRows(rows, pgx.RowToStructByName[reminderRow])
	if err != nil {
		return nil, model.NewStoreError(op, err)
	}
	out := make([]*model.Reminder, 0, len(collected))
	for _, r := range collected {
		out = append(out, r.reminder())
	}
	return out, nil
}

// --- Boards ---

func (s *PostgresStore) CreateBoard(ctx context.Context, b *model.Board) error {
	row, err := toRow(b)
	if err != nil {
		return model.NewStoreError("insert board", err)
	}
	_, err = s.exec(ctx, "insert board", pq.Insert(tableBoards).Prepared(true).Rows(goqu.Record{
		"id":         row.ID,
		"subject":    row.Subject,
		"date":       row.Date,
		"time":       row.Time,
		"room":       row.Room,
		"status":     row.Status,
		"examiners":  goqu.L(castJsonb, row.Examiners),
		"created_at": row.CreatedAt,
		"updated_at": row.UpdatedAt,
	}))
	return err
}

func (s *PostgresStore) GetBoard(ctx context.Context, id string) (*model.Board, error) {
	boards, err := s.queryBoards(ctx, "get board",
		pq.From(tableBoards).Select(boardSelect...).Where(goqu.C("id").Eq(id)).Limit(1))
	if err != nil || len(boards) == 0 {
		return nil, err
	}
	return boards[0], nil
}

func (s *PostgresStore) ListBoards(ctx context.Context, opts model.ListOptions) ([]*model.Board, int, error) {
	opts.Clamp()

	filter := goqu.Ex{}
	if opts.Status != "" {
		filter["status"] = opts.Status
	}
	if opts.Date != "" {
		filter["date"] = opts.Date
	}

	countSQL, countArgs, err := pq.From(tableBoards).Prepared(true).Select(goqu.COUNT("*")).Where(filter).ToSQL()
	if err != nil {
		return nil, 0, model.NewStoreError("count boards", err)
	}
	var total int
	if err := s.pool.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, model.NewStoreError("count boards", err)
	}

	boards, err := s.queryBoards(ctx, "list boards",
		pq.From(tableBoards).Select(boardSelect...).Where(filter).
			Order(goqu.I("date").Asc(), goqu.I("time").Asc(), goqu.I("id").Asc()).
			Limit(uint(opts.Limit)).Offset(uint(opts.Offset)))
	if err != nil {
		return nil, 0, err
	}
	return boards, total, nil
}

func (s *PostgresStore) ListBoardsByDate(ctx context.Context, date string) ([]*model.Board, error) {
	return s.queryBoards(ctx, "list boards by date",
		pq.From(tableBoards).Select(boardSelect...).Where(goqu.C("date").Eq(date)).
			Order(goqu.I("time").Asc(), goqu.I("id").Asc()))
}

func (s *PostgresStore) ListBoardsByExaminer(ctx context.Context, examinerID string) ([]*model.Board, error) {
	probe, err := json.Marshal([]map[string]string{{"examiner_id": examinerID}})
	if err != nil {
		return nil, model.NewStoreError("list boards by examiner", err)
	}
	return s.queryBoards(ctx, "list boards by examiner",
		pq.From(tableBoards).Select(boardSelect...).
			Where(goqu.L("examiners @> ?::jsonb", string(probe))).
			Order(goqu.I("date").Asc(), goqu.I("time").Asc(), goqu.I("id").Asc()))
}

func (s *PostgresStore) UpdateBoard(ctx context.Context, b *model.Board) error {
	row, err := toRow(b)
	if err != nil {
		return model.NewStoreError("update board", err)
	}
	n, err := s.exec(ctx, "update board", pq.Update(tableBoards).Prepared(true).Set(goqu.Record{
		"subject":    row.Subject,
		"date":       row.Date,
		"time":       row.Time,
		"room":       row.Room,
		"status":     row.Status,
		"examiners":  goqu.L(castJsonb, row.Examiners),
		"updated_at": row.UpdatedAt,
	}).Where(goqu.C("id").Eq(row.ID)))
	if err != nil {
		return err
	}
	if n == 0 {
		return model.BoardNotFound(b.ID)
	}
	return nil
}

// DeleteBoard removes a board; the foreign key cascades to its reminders.
func (s *PostgresStore) DeleteBoard(ctx context.Context, id string) error {
	n, err := s.exec(ctx, "delete board", pq.Delete(tableBoards).Prepared(true).Where(goqu.C("id").Eq(id)))
	if err != nil {
		return err
	}
	if n == 0 {
		return model.BoardNotFound(id)
	}
	return nil
}

// --- Reminders ---

func (s *PostgresStore) CreateReminder(ctx context.Context, r *model.Reminder) error {
	var sentAt *string
	if r.SentAt != nil {
		v := r.SentAt.UTC().Format(time.RFC3339Nano)
		sentAt = &v
	}
	_, err := s.exec(ctx, "insert reminder", pq.Insert(tableReminders).Prepared(true).Rows(goqu.Record{
		"id":           r.ID,
		"board_id":     r.BoardID,
		"hours_before": r.HoursBefore,
		"sent":         r.Sent,
		"created_at":   r.CreatedAt.UTC().Format(time.RFC3339Nano),
		"sent_at":      sentAt,
	}))
	return err
}

func (s *PostgresStore) ListReminders(ctx context.Context, boardID string) ([]*model.Reminder, error) {
	return s.queryReminders(ctx, "list reminders",
		pq.From(tableReminders).Select(reminderSelect...).Where(goqu.C("board_id").Eq(boardID)).
			Order(goqu.I("hours_before").Desc(), goqu.I("id").Asc()))
}

func (s *PostgresStore) ListPendingReminders(ctx context.Context) ([]*model.Reminder, error) {
	return s.queryReminders(ctx, "list pending reminders",
		pq.From(tableReminders).Select(reminderSelect...).Where(goqu.C("sent").IsFalse()).
			Order(goqu.I("created_at").Asc(), goqu.I("id").Asc()))
}

func (s *PostgresStore) MarkReminderSent(ctx context.Context, id string, at time.Time) error {
	n, err := s.exec(ctx, "mark reminder sent", pq.Update(tableReminders).Prepared(true).Set(goqu.Record{
		"sent":    true,
		"sent_at": at.UTC().Format(time.RFC3339Nano),
	}).Where(goqu.C("id").Eq(id)))
	if err != nil {
		return err
	}
	if n == 0 {
		return &model.NotFoundError{Reason: model.ErrReminderNotFound, Resource: "reminder", ID: id}
	}
	return nil
}
