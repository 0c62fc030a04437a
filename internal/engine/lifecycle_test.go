package engine

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/me/mesas/pkg/model"
)

func lifecycleBoard(status model.BoardStatus) *model.Board {
	return &model.Board{
		ID:     "mesa_1",
		Status: status,
		Examiners: []model.ExaminerAssignment{
			{ExaminerID: "doc_a", Confirmation: model.ConfirmationAccepted},
			{ExaminerID: "doc_b", Confirmation: model.ConfirmationAccepted},
		},
	}
}

func TestFire(t *testing.T) {
	tests := []struct {
		name    string
		from    model.BoardStatus
		event   string
		want    model.BoardStatus
		wantErr bool
	}{
		{"confirm pending", model.BoardStatusPending, EventConfirm, model.BoardStatusConfirmed, false},
		{"cancel pending", model.BoardStatusPending, EventCancel, model.BoardStatusCancelled, false},
		{"rollback confirmed", model.BoardStatusConfirmed, EventRollback, model.BoardStatusPending, false},
		{"reopen cancelled", model.BoardStatusCancelled, EventReopen, model.BoardStatusPending, false},
		{"cancel confirmed", model.BoardStatusConfirmed, EventCancel, model.BoardStatusConfirmed, true},
		{"confirm cancelled", model.BoardStatusCancelled, EventConfirm, model.BoardStatusCancelled, true},
		{"reopen pending", model.BoardStatusPending, EventReopen, model.BoardStatusPending, true},
		{"unknown event", model.BoardStatusPending, "archive", model.BoardStatusPending, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := lifecycleBoard(tt.from)
			err := Fire(context.Background(), b, tt.event)
			if tt.wantErr {
				var ite *model.InvalidTransitionError
				if !errors.As(err, &ite) {
					t.Fatalf("expected InvalidTransitionError, got %v", err)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if b.Status != tt.want {
				t.Errorf("status = %s, want %s", b.Status, tt.want)
			}
		})
	}
}

func TestFire_RollbackResetsConfirmations(t *testing.T) {
	b := lifecycleBoard(model.BoardStatusConfirmed)
	if err := Fire(context.Background(), b, EventRollback); err != nil {
		t.Fatal(err)
	}
	for _, a := range b.Examiners {
		if a.Confirmation != model.ConfirmationPending {
			t.Errorf("%s confirmation = %s, want pending", a.ExaminerID, a.Confirmation)
		}
	}
}

func TestFire_CancelKeepsConfirmations(t *testing.T) {
	b := lifecycleBoard(model.BoardStatusPending)
	if err := Fire(context.Background(), b, EventCancel); err != nil {
		t.Fatal(err)
	}
	if !b.AllAccepted() {
		t.Error("cancel should not touch confirmations")
	}
}

func TestTransition(t *testing.T) {
	b := lifecycleBoard(model.BoardStatusPending)
	if err := Transition(context.Background(), b, model.BoardStatusPending); err != nil {
		t.Fatalf("same status should be a no-op: %v", err)
	}
	if err := Transition(context.Background(), b, model.BoardStatusConfirmed); err != nil {
		t.Fatal(err)
	}
	if err := Transition(context.Background(), b, model.BoardStatusCancelled); err == nil {
		t.Error("confirmed -> cancelled should be rejected")
	}
}

func TestEventFor(t *testing.T) {
	if ev, ok := EventFor(model.BoardStatusConfirmed, model.BoardStatusPending); !ok || ev != EventRollback {
		t.Errorf("EventFor(confirmed, pending) = %q, %v", ev, ok)
	}
	if _, ok := EventFor(model.BoardStatusConfirmed, model.BoardStatusCancelled); ok {
		t.Error("no single event should lead confirmed -> cancelled")
	}
}

func TestLocks_SerializesSameKey(t *testing.T) {
	locks := NewLocks()
	var (
		wg      sync.WaitGroup
		counter int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock("mesa_1")
			defer unlock()
			v := counter
			v++
			counter = v
		}()
	}
	wg.Wait()
	if counter != 50 {
		t.Errorf("counter = %d, want 50", counter)
	}
	if locks.Len() != 0 {
		t.Errorf("lock table not drained: %d", locks.Len())
	}
}

func TestLocks_IndependentKeys(t *testing.T) {
	locks := NewLocks()
	unlockA := locks.Lock("a")
	done := make(chan struct{})
	go func() {
		unlock := locks.Lock("b")
		unlock()
		close(done)
	}()
	<-done
	unlockA()
	unlockA() // second call is harmless
	if locks.Len() != 0 {
		t.Errorf("lock table not drained: %d", locks.Len())
	}
}
