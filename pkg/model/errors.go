package model

import (
	"errors"
	"fmt"
	"time"
)

// ErrorCode represents a structured API error code.
type ErrorCode string

const (
	ErrValidation   ErrorCode = "VALIDATION_ERROR"
	ErrNotFound     ErrorCode = "NOT_FOUND"
	ErrConflict     ErrorCode = "CONFLICT"
	ErrUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrInternal     ErrorCode = "INTERNAL_ERROR"
)

// APIError is a structured error returned by the API.
type APIError struct {
	Code    ErrorCode    `json:"code"`
	Message string       `json:"message"`
	Details []FieldError `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// FieldError describes a validation error on a specific field.
type FieldError struct {
	Field   string `json:"field,omitempty"`
	Path    string `json:"path,omitempty"`
	Message string `json:"message"`
}

// NewValidationError creates an APIError with validation details.
func NewValidationError(msg string, details ...FieldError) *APIError {
	return &APIError{Code: ErrValidation, Message: msg, Details: details}
}

// NewNotFoundError creates a NOT_FOUND APIError.
func NewNotFoundError(resource, id string) *APIError {
	return &APIError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s '%s' not found", resource, id),
	}
}

// NewInternalError creates an INTERNAL_ERROR APIError.
func NewInternalError(msg string) *APIError {
	return &APIError{Code: ErrInternal, Message: msg}
}

// Validation reasons.
var (
	ErrMissingField         = errors.New("missing field")
	ErrPastDate             = errors.New("date is in the past")
	ErrInsufficientLeadTime = errors.New("insufficient lead time")
	ErrScheduleConflict     = errors.New("schedule conflict")
	ErrInvalidInput         = errors.New("invalid input")
)

// Lookup failures.
var (
	ErrBoardNotFound       = errors.New("board not found")
	ErrExaminerNotAssigned = errors.New("examiner not assigned")
	ErrReminderNotFound    = errors.New("reminder not found")
)

// ErrStore marks failures raised by a board store.
var ErrStore = errors.New("store error")

// ValidationError is a caller-correctable rejection of a candidate board.
// Reason is one of the validation sentinels and is matched by errors.Is.
type ValidationError struct {
	Reason       error
	Field        string
	Examiner     string
	ConflictTime string
	LeadTime     time.Duration
	Message      string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%v: %s", e.Reason, e.Message)
	}
	return e.Reason.Error()
}

func (e *ValidationError) Unwrap() error { return e.Reason }

// NotFoundError reports a missing board, or an examiner absent from a board.
type NotFoundError struct {
	Reason   error
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%v: %s '%s'", e.Reason, e.Resource, e.ID)
}

func (e *NotFoundError) Unwrap() error { return e.Reason }

// BoardNotFound returns a NotFoundError for board id.
func BoardNotFound(id string) error {
	return &NotFoundError{Reason: ErrBoardNotFound, Resource: "board", ID: id}
}

// ExaminerNotAssigned returns a NotFoundError for an examiner missing from a board.
func ExaminerNotAssigned(boardID, examinerID string) error {
	return &NotFoundError{Reason: ErrExaminerNotAssigned, Resource: "examiner", ID: examinerID + "@" + boardID}
}

// StoreError wraps a persistence failure.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Is makes every StoreError match ErrStore.
func (e *StoreError) Is(target error) bool { return target == ErrStore }

// NewStoreError wraps err unless it is nil or already a StoreError.
func NewStoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrStore) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}

// InvalidTransitionError is returned when a state transition is invalid.
type InvalidTransitionError struct {
	Entity string
	ID     string
	From   string
	To     string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid %s state transition: %s → %s (entity %s)", e.Entity, e.From, e.To, e.ID)
}
