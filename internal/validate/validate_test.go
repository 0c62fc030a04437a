package validate

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/me/mesas/pkg/model"
)

var now = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func board(id, date, hhmm string, examiners ...string) *model.Board {
	b := &model.Board{ID: id, Subject: "Algebra", Date: date, Time: hhmm, Status: model.BoardStatusPending}
	for _, e := range examiners {
		b.Examiners = append(b.Examiners, model.ExaminerAssignment{ExaminerID: e, Confirmation: model.ConfirmationPending})
	}
	return b
}

func reason(t *testing.T, err error) error {
	t.Helper()
	var verr *model.ValidationError
	require.True(t, errors.As(err, &verr), "expected *model.ValidationError, got %v", err)
	return verr.Reason
}

func TestBoard_MissingFields(t *testing.T) {
	tests := []struct {
		name  string
		board *model.Board
		field string
	}{
		{"no subject", func() *model.Board { b := board("", "2026-11-01", "10:00", "a", "b"); b.Subject = ""; return b }(), "subject"},
		{"no date", board("", "", "10:00", "a", "b"), "date"},
		{"one examiner", board("", "2026-11-01", "10:00", "a"), "examiners"},
		{"blank vocal", board("", "2026-11-01", "10:00", "a", ""), "vocal_id"},
		{"blank titular", board("", "2026-11-01", "10:00", " ", "b"), "titular_id"},
		{"same examiner twice", board("", "2026-11-01", "10:00", "a", "a"), "vocal_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Board(tt.board, nil, now, DefaultRules(), Options{})
			assert.ErrorIs(t, err, model.ErrMissingField)
			var verr *model.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestBoard_MalformedDate(t *testing.T) {
	err := Board(board("", "01/11/2026", "10:00", "a", "b"), nil, now, DefaultRules(), Options{})
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestBoard_PastDate(t *testing.T) {
	for _, date := range []string{"2026-10-18", "2025-12-31", "2000-01-01"} {
		err := Board(board("", date, "23:00", "a", "b"), nil, now, DefaultRules(), Options{})
		assert.ErrorIs(t, err, model.ErrPastDate, date)
	}
}

func TestBoard_TodayIsNotPastButTooSoon(t *testing.T) {
	err := Board(board("", "2026-10-19", "08:00", "a", "b"), nil, now, DefaultRules(), Options{})
	assert.Equal(t, model.ErrInsufficientLeadTime, reason(t, err))
}

func TestBoard_LeadTimeBoundary(t *testing.T) {
	// 47h59m ahead fails, carrying the computed lead time.
	err := Board(board("", "2026-10-21", "11:59", "a", "b"), nil, now, DefaultRules(), Options{})
	require.ErrorIs(t, err, model.ErrInsufficientLeadTime)
	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, 47*time.Hour+59*time.Minute, verr.LeadTime)

	// Exactly 48h passes.
	assert.NoError(t, Board(board("", "2026-10-21", "12:00", "a", "b"), nil, now, DefaultRules(), Options{}))
}

func TestBoard_SkipTiming(t *testing.T) {
	err := Board(board("", "2026-10-18", "10:00", "a", "b"), nil, now, DefaultRules(), Options{SkipTiming: true})
	assert.NoError(t, err)
}

func TestBoard_ScheduleConflict(t *testing.T) {
	existing := []*model.Board{board("mesa_1", "2026-10-25", "10:00", "a", "c")}

	tests := []struct {
		name     string
		date     string
		hhmm     string
		conflict bool
	}{
		{"same hour", "2026-10-25", "10:00", true},
		{"three hours later", "2026-10-25", "13:00", true},
		{"three hours earlier", "2026-10-25", "07:30", true},
		{"minutes ignored", "2026-10-25", "13:59", true},
		{"exactly four hours later", "2026-10-25", "14:00", false},
		{"exactly four hours earlier", "2026-10-25", "06:00", false},
		{"next day same hour", "2026-10-26", "10:00", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Board(board("", tt.date, tt.hhmm, "a", "b"), existing, now, DefaultRules(), Options{})
			if !tt.conflict {
				assert.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, model.ErrScheduleConflict)
			var verr *model.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, "a", verr.Examiner)
			assert.Equal(t, "10:00", verr.ConflictTime)
		})
	}
}

func TestBoard_ConflictIgnoresOthersAndSelf(t *testing.T) {
	cancelled := board("mesa_2", "2026-10-25", "10:00", "a", "c")
	cancelled.Status = model.BoardStatusCancelled
	existing := []*model.Board{
		board("mesa_1", "2026-10-25", "10:00", "x", "y"),
		cancelled,
		board("mesa_self", "2026-10-25", "10:00", "a", "b"),
	}

	err := Board(board("mesa_self", "2026-10-25", "11:00", "a", "b"), existing, now, DefaultRules(), Options{})
	assert.NoError(t, err)
}

func TestBoard_VocalConflict(t *testing.T) {
	existing := []*model.Board{board("mesa_1", "2026-10-25", "09:00", "z", "b")}
	err := Board(board("", "2026-10-25", "11:00", "a", "b"), existing, now, DefaultRules(), Options{})
	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "b", verr.Examiner)
}
