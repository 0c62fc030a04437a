package reminder

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/me/mesas/internal/store"
	"github.com/me/mesas/pkg/model"
)

var fixedNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

type recorder struct {
	mu     sync.Mutex
	events []model.Event
	delay  time.Duration
}

func (r *recorder) Notify(_ context.Context, events ...model.Event) model.DeliveryReport {
	time.Sleep(r.delay)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, events...)
	return model.DeliveryReport{Attempted: len(events), Delivered: len(events)}
}

func testProcessor(t *testing.T) (*Processor, store.Store, *recorder) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st, err := store.NewSQLiteStore(":memory:", logger)
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { st.Close() })

	rec := &recorder{}
	p := NewProcessor(st, rec, time.UTC, logger)
	p.now = func() time.Time { return fixedNow }
	return p, st, rec
}

// boardIn stores a board starting d after fixedNow.
func boardIn(t *testing.T, st store.Store, id string, d time.Duration) *model.Board {
	t.Helper()
	at := fixedNow.Add(d)
	b := &model.Board{
		ID:      id,
		Subject: "Algebra",
		Date:    at.Format(model.DateLayout),
		Time:    at.Format(model.TimeLayout),
		Status:  model.BoardStatusPending,
		Examiners: []model.ExaminerAssignment{
			{ExaminerID: "doc_a", Confirmation: model.ConfirmationPending},
			{ExaminerID: "doc_b", Confirmation: model.ConfirmationPending},
		},
		CreatedAt: fixedNow,
		UpdatedAt: fixedNow,
	}
	require.NoError(t, st.CreateBoard(context.Background(), b))
	return b
}

func TestProcess_DueReminderIsSent(t *testing.T) {
	p, st, rec := testProcessor(t)
	ctx := context.Background()
	boardIn(t, st, "mesa_soon", 20*time.Hour)
	r, err := p.Schedule(ctx, "mesa_soon", 24)
	require.NoError(t, err)

	report, err := p.Process(ctx)
	require.NoError(t, err)
	assert.Equal(t, Report{Scanned: 1, Sent: 1, Delivery: model.DeliveryReport{Attempted: 1, Delivered: 1}}, report)

	require.Len(t, rec.events, 1)
	ev := rec.events[0]
	assert.Equal(t, model.EventReminder, ev.Kind)
	assert.Equal(t, []string{"doc_a", "doc_b"}, ev.Recipients)
	assert.Equal(t, "mesa_soon", ev.BoardID)

	reminders, err := p.List(ctx, "mesa_soon")
	require.NoError(t, err)
	require.Len(t, reminders, 1)
	assert.Equal(t, r.ID, reminders[0].ID)
	assert.True(t, reminders[0].Sent)
	require.NotNil(t, reminders[0].SentAt)

	// A second pass has nothing left to do.
	report, err = p.Process(ctx)
	require.NoError(t, err)
	assert.Zero(t, report.Scanned)
	assert.Len(t, rec.events, 1)
}

func TestProcess_ConcurrentPassesSendOnce(t *testing.T) {
	p, st, rec := testProcessor(t)
	rec.delay = 50 * time.Millisecond
	ctx := context.Background()
	boardIn(t, st, "mesa_soon", 20*time.Hour)
	_, err := p.Schedule(ctx, "mesa_soon", 24)
	require.NoError(t, err)

	var wg sync.WaitGroup
	reports := make([]Report, 2)
	for i := range reports {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, err := p.Process(ctx)
			assert.NoError(t, err)
			reports[i] = r
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, reports[0].Sent+reports[1].Sent)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Len(t, rec.events, 1)
}

func TestProcess_FarReminderIsUntouched(t *testing.T) {
	p, st, rec := testProcessor(t)
	ctx := context.Background()
	boardIn(t, st, "mesa_later", 30*time.Hour)
	_, err := p.Schedule(ctx, "mesa_later", 24)
	require.NoError(t, err)

	report, err := p.Process(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Skipped)
	assert.Empty(t, rec.events)

	reminders, err := p.List(ctx, "mesa_later")
	require.NoError(t, err)
	assert.False(t, reminders[0].Sent)
}

func TestProcess_BoundaryIsInclusive(t *testing.T) {
	p, st, _ := testProcessor(t)
	ctx := context.Background()
	boardIn(t, st, "mesa_edge", 24*time.Hour)
	_, err := p.Schedule(ctx, "mesa_edge", 24)
	require.NoError(t, err)

	report, err := p.Process(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Sent)
}

// hidingStore pretends one board no longer exists.
type hidingStore struct {
	store.Store
	hidden string
}

func (h hidingStore) GetBoard(ctx context.Context, id string) (*model.Board, error) {
	if id == h.hidden {
		return nil, nil
	}
	return h.Store.GetBoard(ctx, id)
}

func TestProcess_MissingBoardIsSkipped(t *testing.T) {
	p, st, rec := testProcessor(t)
	ctx := context.Background()
	boardIn(t, st, "mesa_gone", 2*time.Hour)
	boardIn(t, st, "mesa_ok", 2*time.Hour)
	for _, id := range []string{"mesa_gone", "mesa_ok"} {
		_, err := p.Schedule(ctx, id, 24)
		require.NoError(t, err)
	}
	p.store = hidingStore{Store: st, hidden: "mesa_gone"}

	report, err := p.Process(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Scanned)
	assert.Equal(t, 1, report.Sent)
	assert.Equal(t, 1, report.Skipped)
	assert.Zero(t, report.Failed)
	assert.Len(t, rec.events, 1)
}

func TestProcess_CancelledBoardIsSkipped(t *testing.T) {
	p, st, rec := testProcessor(t)
	ctx := context.Background()
	b := boardIn(t, st, "mesa_off", 2*time.Hour)
	_, err := p.Schedule(ctx, b.ID, 24)
	require.NoError(t, err)
	b.Status = model.BoardStatusCancelled
	require.NoError(t, st.UpdateBoard(ctx, b))

	report, err := p.Process(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Skipped)
	assert.Empty(t, rec.events)
}

// failingStore fails every board lookup.
type failingStore struct{ store.Store }

func (failingStore) GetBoard(context.Context, string) (*model.Board, error) {
	return nil, model.NewStoreError("get board", errors.New("disk on fire"))
}

func TestProcess_ContinuesPastFailures(t *testing.T) {
	p, st, _ := testProcessor(t)
	ctx := context.Background()
	boardIn(t, st, "mesa_1", 2*time.Hour)
	boardIn(t, st, "mesa_2", 2*time.Hour)
	for _, id := range []string{"mesa_1", "mesa_2"} {
		_, err := p.Schedule(ctx, id, 24)
		require.NoError(t, err)
	}
	p.store = failingStore{Store: st}

	report, err := p.Process(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Failed)
}

func TestSchedule_Validation(t *testing.T) {
	p, st, _ := testProcessor(t)
	ctx := context.Background()

	_, err := p.Schedule(ctx, "mesa_missing", 24)
	assert.ErrorIs(t, err, model.ErrBoardNotFound)

	boardIn(t, st, "mesa_1", 72*time.Hour)
	_, err = p.Schedule(ctx, "mesa_1", 0)
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}
