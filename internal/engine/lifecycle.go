package engine

import (
	"context"
	"errors"

	"github.com/looplab/fsm"

	"github.com/me/mesas/pkg/model"
)

// Lifecycle events.
const (
	EventConfirm  = "confirm"
	EventCancel   = "cancel"
	EventRollback = "rollback"
	EventReopen   = "reopen"
)

var lifecycleEvents = fsm.Events{
	{Name: EventConfirm, Src: []string{string(model.BoardStatusPending)}, Dst: string(model.BoardStatusConfirmed)},
	{Name: EventCancel, Src: []string{string(model.BoardStatusPending)}, Dst: string(model.BoardStatusCancelled)},
	{Name: EventRollback, Src: []string{string(model.BoardStatusConfirmed)}, Dst: string(model.BoardStatusPending)},
	{Name: EventReopen, Src: []string{string(model.BoardStatusCancelled)}, Dst: string(model.BoardStatusPending)},
}

// Fire applies a lifecycle event to b in place. A rollback also resets
// every examiner's confirmation to pending.
func Fire(ctx context.Context, b *model.Board, event string) error {
	machine := fsm.NewFSM(string(b.Status), lifecycleEvents, fsm.Callbacks{
		"after_" + EventRollback: func(_ context.Context, _ *fsm.Event) {
			b.SetAllConfirmations(model.ConfirmationPending)
		},
	})
	if err := machine.Event(ctx, event); err != nil {
		var noop fsm.NoTransitionError
		if errors.As(err, &noop) {
			return nil
		}
		return &model.InvalidTransitionError{
			Entity: "board",
			ID:     b.ID,
			From:   string(b.Status),
			To:     targetOf(event),
		}
	}
	b.Status = model.BoardStatus(machine.Current())
	return nil
}

// EventFor returns the lifecycle event that moves a board from one status
// to another. ok is false when no single event connects them.
func EventFor(from, to model.BoardStatus) (event string, ok bool) {
	for _, e := range lifecycleEvents {
		if e.Dst != string(to) {
			continue
		}
		for _, src := range e.Src {
			if src == string(from) {
				return e.Name, true
			}
		}
	}
	return "", false
}

// Transition moves b to status to through the matching lifecycle event.
// Staying in the same status is a no-op.
func Transition(ctx context.Context, b *model.Board, to model.BoardStatus) error {
	if b.Status == to {
		return nil
	}
	event, ok := EventFor(b.Status, to)
	if !ok {
		return &model.InvalidTransitionError{Entity: "board", ID: b.ID, From: string(b.Status), To: string(to)}
	}
	return Fire(ctx, b, event)
}

func targetOf(event string) string {
	for _, e := range lifecycleEvents {
		if e.Name == event {
			return e.Dst
		}
	}
	return event
}
