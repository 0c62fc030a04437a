package engine

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

// recorder captures every event handed to it.
type recorder struct {
	mu     sync.Mutex
	events []model.Event
	fail   bool
}

func (r *recorder) Notify(_ context.Context, events ...model.Event) model.DeliveryReport {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, events...)
	if r.fail {
		return model.DeliveryReport{Attempted: len(events), Failed: len(events)}
	}
	return model.DeliveryReport{Attempted: len(events), Delivered: len(events)}
}

func (r *recorder) addressedTo(kind model.EventKind, recipient string) []model.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Event
	for _, ev := range r.events {
		if ev.Kind != kind {
			continue
		}
		for _, rc := range ev.Recipients {
			if rc == recipient {
				out = append(out, ev)
				break
			}
		}
	}
	return out
}

func (r *recorder) reset() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}

func newTestEngine(t *testing.T) (*Engine, store.Store, *recorder) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st, err := store.NewSQLiteStore(":memory:", logger)
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { st.Close() })

	rec := &recorder{}
	return New(st, rec, NewLocks(), logger), st, rec
}

func seedBoard(t *testing.T, st store.Store, a, b model.Confirmation) *model.Board {
	t.Helper()
	now := time.Now().UTC()
	board := &model.Board{
		ID:      "mesa_test",
		Subject: "Algebra",
		Date:    now.AddDate(0, 0, 10).Format(model.DateLayout),
		Time:    "10:00",
		Status:  model.BoardStatusPending,
		Examiners: []model.ExaminerAssignment{
			{ExaminerID: "doc_a", Name: "Ana", Confirmation: a},
			{ExaminerID: "doc_b", Name: "Bruno", Confirmation: b},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, st.CreateBoard(context.Background(), board))
	return board
}

func TestRecordConfirmation_BoardNotFound(t *testing.T) {
	e, _, rec := newTestEngine(t)
	_, err := e.RecordConfirmation(context.Background(), "mesa_missing", "doc_a", model.ConfirmationAccepted)
	assert.ErrorIs(t, err, model.ErrBoardNotFound)
	assert.Empty(t, rec.events)
}

func TestRecordConfirmation_ExaminerNotAssigned(t *testing.T) {
	e, st, rec := newTestEngine(t)
	seedBoard(t, st, model.ConfirmationPending, model.ConfirmationPending)

	_, err := e.RecordConfirmation(context.Background(), "mesa_test", "doc_z", model.ConfirmationAccepted)
	assert.ErrorIs(t, err, model.ErrExaminerNotAssigned)
	assert.Empty(t, rec.events)
}

func TestRecordConfirmation_InvalidValue(t *testing.T) {
	e, st, _ := newTestEngine(t)
	seedBoard(t, st, model.ConfirmationPending, model.ConfirmationPending)

	_, err := e.RecordConfirmation(context.Background(), "mesa_test", "doc_a", model.Confirmation("maybe"))
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestRecordConfirmation_OnlyTouchesOneAssignment(t *testing.T) {
	e, st, rec := newTestEngine(t)
	seedBoard(t, st, model.ConfirmationPending, model.ConfirmationPending)

	b, err := e.RecordConfirmation(context.Background(), "mesa_test", "doc_a", model.ConfirmationAccepted)
	require.NoError(t, err)
	assert.Equal(t, model.ConfirmationAccepted, b.Examiners[0].Confirmation)
	assert.Equal(t, model.ConfirmationPending, b.Examiners[1].Confirmation)

	stored, err := st.GetBoard(context.Background(), "mesa_test")
	require.NoError(t, err)
	assert.Equal(t, model.ConfirmationAccepted, stored.Examiners[0].Confirmation)
	assert.Equal(t, model.ConfirmationPending, stored.Examiners[1].Confirmation)

	assert.Len(t, rec.addressedTo(model.EventConfirmation, "doc_b"), 1)
	assert.Empty(t, rec.addressedTo(model.EventUpdate, model.DepartmentRecipient))
}

func TestRecordConfirmation_BothAcceptedStaysPending(t *testing.T) {
	e, st, rec := newTestEngine(t)
	seedBoard(t, st, model.ConfirmationPending, model.ConfirmationPending)
	ctx := context.Background()

	_, err := e.RecordConfirmation(ctx, "mesa_test", "doc_a", model.ConfirmationAccepted)
	require.NoError(t, err)
	b, err := e.RecordConfirmation(ctx, "mesa_test", "doc_b", model.ConfirmationAccepted)
	require.NoError(t, err)

	assert.Equal(t, model.BoardStatusPending, b.Status)
	assert.True(t, b.AllAccepted())

	stored, err := st.GetBoard(ctx, "mesa_test")
	require.NoError(t, err)
	assert.Equal(t, model.BoardStatusPending, stored.Status)
	assert.True(t, stored.AllAccepted())

	assert.Len(t, rec.addressedTo(model.EventUpdate, "doc_a"), 1, "readiness update to examiner")
	assert.Len(t, rec.addressedTo(model.EventUpdate, "doc_b"), 1)
	assert.Len(t, rec.addressedTo(model.EventUpdate, model.DepartmentRecipient), 1)
}

func TestRecordConfirmation_Rejection(t *testing.T) {
	e, st, rec := newTestEngine(t)
	seedBoard(t, st, model.ConfirmationAccepted, model.ConfirmationPending)

	b, err := e.RecordConfirmation(context.Background(), "mesa_test", "doc_b", model.ConfirmationRejected)
	require.NoError(t, err)
	assert.Equal(t, model.ConfirmationAccepted, b.Examiners[0].Confirmation, "other examiner untouched")
	assert.Equal(t, model.ConfirmationRejected, b.Examiners[1].Confirmation)

	toA := rec.addressedTo(model.EventUpdate, "doc_a")
	require.Len(t, toA, 1)
	assert.Contains(t, toA[0].Message, "Bruno")
	assert.Equal(t, []string{"doc_a"}, toA[0].Recipients)

	toDept := rec.addressedTo(model.EventUpdate, model.DepartmentRecipient)
	require.Len(t, toDept, 1)
	assert.Equal(t, []string{model.DepartmentRecipient}, toDept[0].Recipients)

	assert.Empty(t, rec.addressedTo(model.EventUpdate, "doc_b"), "rejecting examiner gets no update")
}

func TestRecordConfirmation_PersistsEvenWhenDeliveryFails(t *testing.T) {
	e, st, rec := newTestEngine(t)
	rec.fail = true
	seedBoard(t, st, model.ConfirmationPending, model.ConfirmationPending)

	_, err := e.RecordConfirmation(context.Background(), "mesa_test", "doc_a", model.ConfirmationRejected)
	require.NoError(t, err)

	stored, err := st.GetBoard(context.Background(), "mesa_test")
	require.NoError(t, err)
	assert.Equal(t, model.ConfirmationRejected, stored.Examiners[0].Confirmation)
}

func TestRecordConfirmation_CancelledBoard(t *testing.T) {
	e, st, _ := newTestEngine(t)
	b := seedBoard(t, st, model.ConfirmationPending, model.ConfirmationPending)
	b.Status = model.BoardStatusCancelled
	require.NoError(t, st.UpdateBoard(context.Background(), b))

	_, err := e.RecordConfirmation(context.Background(), "mesa_test", "doc_a", model.ConfirmationAccepted)
	var ite *model.InvalidTransitionError
	assert.True(t, errors.As(err, &ite))
}

func TestRecordConfirmation_ConfirmedBoard(t *testing.T) {
	e, st, rec := newTestEngine(t)
	b := seedBoard(t, st, model.ConfirmationAccepted, model.ConfirmationAccepted)
	b.Status = model.BoardStatusConfirmed
	require.NoError(t, st.UpdateBoard(context.Background(), b))

	_, err := e.RecordConfirmation(context.Background(), "mesa_test", "doc_b", model.ConfirmationRejected)
	var ite *model.InvalidTransitionError
	require.True(t, errors.As(err, &ite))
	assert.Equal(t, string(model.BoardStatusConfirmed), ite.From)

	stored, err := st.GetBoard(context.Background(), "mesa_test")
	require.NoError(t, err)
	assert.Equal(t, model.BoardStatusConfirmed, stored.Status)
	assert.Equal(t, model.ConfirmationAccepted, stored.Examiners[1].Confirmation)
	assert.Empty(t, rec.addressedTo(model.EventConfirmation, "doc_a"))
}

func TestRecordConfirmation_ConcurrentExaminers(t *testing.T) {
	e, st, _ := newTestEngine(t)
	seedBoard(t, st, model.ConfirmationPending, model.ConfirmationPending)

	var wg sync.WaitGroup
	for _, id := range []string{"doc_a", "doc_b"} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := e.RecordConfirmation(context.Background(), "mesa_test", id, model.ConfirmationAccepted)
			assert.NoError(t, err)
		}(id)
	}
	wg.Wait()

	stored, err := st.GetBoard(context.Background(), "mesa_test")
	require.NoError(t, err)
	assert.True(t, stored.AllAccepted(), "no lost update")
	assert.Zero(t, e.Locks().Len())
}
