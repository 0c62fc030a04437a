package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Layouts used for the Date and Time fields of a Board.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// DepartmentRecipient is the reserved recipient id for the academic department.
const DepartmentRecipient = "departamento"

// Role identifies an examiner's position on a board.
type Role string

const (
	RoleTitular Role = "titular"
	RoleVocal   Role = "vocal"
)

// RoleAt returns the role for the assignment at index i.
func RoleAt(i int) Role {
	if i == 0 {
		return RoleTitular
	}
	return RoleVocal
}

// ExaminerAssignment is one examiner's seat on a board.
// Name is a snapshot taken at assignment time.
type ExaminerAssignment struct {
	ExaminerID   string       `json:"examiner_id"`
	Name         string       `json:"name"`
	Confirmation Confirmation `json:"confirmation"`
}

// Board is a scheduled exam event requiring two examiners' agreement.
// Examiners[0] is the titular, Examiners[1] the vocal.
type Board struct {
	ID        string               `json:"id"`
	Subject   string               `json:"subject"`
	Date      string               `json:"date"`
	Time      string               `json:"time"`
	Room      string               `json:"room"`
	Status    BoardStatus          `json:"status"`
	Examiners []ExaminerAssignment `json:"examiners"`
	CreatedAt time.Time            `json:"created_at"`
	UpdatedAt time.Time            `json:"updated_at"`
}

// ScheduledAt combines Date and Time into an instant in loc.
// A missing Time is treated as midnight.
func (b *Board) ScheduledAt(loc *time.Location) (time.Time, error) {
	return ParseSchedule(b.Date, b.Time, loc)
}

// Day parses Date in loc at midnight.
func (b *Board) Day(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateLayout, b.Date, loc)
}

// Hour returns the hour component of Time.
func (b *Board) Hour() (int, error) {
	return ParseHour(b.Time)
}

// Assignment returns the index of examinerID in Examiners.
func (b *Board) Assignment(examinerID string) (int, bool) {
	for i, a := range b.Examiners {
		if a.ExaminerID == examinerID {
			return i, true
		}
	}
	return -1, false
}

// ExaminerIDs returns the assigned examiner ids in positional order.
func (b *Board) ExaminerIDs() []string {
	ids := make([]string, 0, len(b.Examiners))
	for _, a := range b.Examiners {
		if a.ExaminerID != "" {
			ids = append(ids, a.ExaminerID)
		}
	}
	return ids
}

// AllAccepted reports aggregate acceptance: every assignment accepted.
func (b *Board) AllAccepted() bool {
	if len(b.Examiners) < 2 {
		return false
	}
	for _, a := range b.Examiners {
		if a.Confirmation != ConfirmationAccepted {
			return false
		}
	}
	return true
}

// SetAllConfirmations overwrites every assignment's confirmation.
func (b *Board) SetAllConfirmations(c Confirmation) {
	for i := range b.Examiners {
		b.Examiners[i].Confirmation = c
	}
}

// Clone returns a deep copy of b.
func (b *Board) Clone() *Board {
	c := *b
	c.Examiners = append([]ExaminerAssignment(nil), b.Examiners...)
	return &c
}

// Describe renders a short human label, e.g. "Algebra 2026-11-03 10:00".
func (b *Board) Describe() string {
	return strings.TrimSpace(fmt.Sprintf("%s %s %s", b.Subject, b.Date, b.Time))
}

// NewBoard is the input accepted when scheduling a board.
type NewBoard struct {
	Subject     string `json:"subject"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Room        string `json:"room"`
	TitularID   string `json:"titular_id"`
	TitularName string `json:"titular_name"`
	VocalID     string `json:"vocal_id"`
	VocalName   string `json:"vocal_name"`
}

// Board builds a pending Board with pending assignments.
func (n NewBoard) Board() *Board {
	return &Board{
		Subject: strings.TrimSpace(n.Subject),
		Date:    strings.TrimSpace(n.Date),
		Time:    strings.TrimSpace(n.Time),
		Room:    strings.TrimSpace(n.Room),
		Status:  BoardStatusPending,
		Examiners: []ExaminerAssignment{
			{ExaminerID: strings.TrimSpace(n.TitularID), Name: n.TitularName, Confirmation: ConfirmationPending},
			{ExaminerID: strings.TrimSpace(n.VocalID), Name: n.VocalName, Confirmation: ConfirmationPending},
		},
	}
}

// BoardPatch is a partial update. Nil fields keep their current value.
// A non-nil Examiners replaces the assignment list verbatim.
type BoardPatch struct {
	Subject     *string              `json:"subject,omitempty"`
	Date        *string              `json:"date,omitempty"`
	Time        *string              `json:"time,omitempty"`
	Room        *string              `json:"room,omitempty"`
	Status      *BoardStatus         `json:"status,omitempty"`
	Examiners   []ExaminerAssignment `json:"examiners,omitempty"`
	TitularID   *string              `json:"titular_id,omitempty"`
	TitularName *string              `json:"titular_name,omitempty"`
	VocalID     *string              `json:"vocal_id,omitempty"`
	VocalName   *string              `json:"vocal_name,omitempty"`
}

// ReschedulesOrReassigns reports whether the patch touches fields that
// participate in conflict validation.
func (p BoardPatch) ReschedulesOrReassigns() bool {
	return p.Date != nil || p.Time != nil || p.Examiners != nil || p.TitularID != nil || p.VocalID != nil
}

// Reschedules reports whether the patch moves the board in time.
func (p BoardPatch) Reschedules() bool {
	return p.Date != nil || p.Time != nil
}

// ParseSchedule combines a date and an optional HH:MM time in loc.
func ParseSchedule(date, hhmm string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	if hhmm == "" {
		return time.ParseInLocation(DateLayout, date, loc)
	}
	return time.ParseInLocation(DateLayout+" "+TimeLayout, date+" "+hhmm, loc)
}

// ParseHour extracts the hour component of an HH:MM string.
func ParseHour(hhmm string) (int, error) {
	h, _, ok := strings.Cut(hhmm, ":")
	if !ok {
		h = hhmm
	}
	n, err := strconv.Atoi(strings.TrimSpace(h))
	if err != nil || n < 0 || n > 23 {
		return 0, fmt.Errorf("invalid time %q", hhmm)
	}
	return n, nil
}
