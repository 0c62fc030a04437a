package model

import (
	"errors"
	"fmt"
	"testing"
)

func TestAPIError_Error(t *testing.T) {
	err := &APIError{Code: ErrNotFound, Message: "board 'mesa_123' not found"}
	want := "NOT_FOUND: board 'mesa_123' not found"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestNewNotFoundError(t *testing.T) {
	err := NewNotFoundError("board", "mesa_abc")
	if err.Code != ErrNotFound {
		t.Errorf("Code = %q, want %q", err.Code, ErrNotFound)
	}
	if err.Message != "board 'mesa_abc' not found" {
		t.Errorf("Message = %q, want %q", err.Message, "board 'mesa_abc' not found")
	}
}

func TestNewValidationError(t *testing.T) {
	err := NewValidationError("Invalid request",
		FieldError{Field: "subject", Message: "required"},
		FieldError{Field: "date", Message: "expected YYYY-MM-DD"},
	)
	if err.Code != ErrValidation {
		t.Errorf("Code = %q, want %q", err.Code, ErrValidation)
	}
	if len(err.Details) != 2 {
		t.Errorf("Details length = %d, want 2", len(err.Details))
	}
}

func TestInvalidTransitionError(t *testing.T) {
	err := &InvalidTransitionError{
		Entity: "board",
		ID:     "mesa_123",
		From:   "cancelled",
		To:     "confirmed",
	}
	want := "invalid board state transition: cancelled → confirmed (entity mesa_123)"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestNotFoundError_Is(t *testing.T) {
	err := fmt.Errorf("record confirmation: %w", BoardNotFound("mesa_1"))
	if !errors.Is(err, ErrBoardNotFound) {
		t.Errorf("errors.Is(%v, ErrBoardNotFound) = false", err)
	}
	if errors.Is(err, ErrExaminerNotAssigned) {
		t.Errorf("board lookup failure should not match ErrExaminerNotAssigned")
	}
	var nf *NotFoundError
	if !errors.As(ExaminerNotAssigned("mesa_1", "doc_9"), &nf) {
		t.Fatal("errors.As NotFoundError failed")
	}
	if nf.Resource != "examiner" {
		t.Errorf("Resource = %q, want examiner", nf.Resource)
	}
}

func TestValidationError_Is(t *testing.T) {
	err := &ValidationError{Reason: ErrPastDate, Field: "date", Message: "2020-01-01 is before today"}
	if !errors.Is(err, ErrPastDate) {
		t.Error("expected ErrPastDate to match")
	}
	if got := err.Error(); got != "date is in the past: 2020-01-01 is before today" {
		t.Errorf("Error() = %q", got)
	}
}

func TestNewStoreError(t *testing.T) {
	if NewStoreError("get", nil) != nil {
		t.Error("nil error should stay nil")
	}
	base := errors.New("disk full")
	err := NewStoreError("insert board", base)
	if !errors.Is(err, ErrStore) {
		t.Error("expected ErrStore match")
	}
	if !errors.Is(err, base) {
		t.Error("expected underlying error to be reachable")
	}
	if again := NewStoreError("outer", err); again != err {
		t.Error("already-wrapped store errors should not be wrapped twice")
	}
}
