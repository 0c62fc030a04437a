package model

import (
	"testing"
	"time"
)

func sampleBoard() *Board {
	return &Board{
		ID:      "mesa_1",
		Subject: "Algebra",
		Date:    "2026-11-03",
		Time:    "10:30",
		Room:    "A1",
		Status:  BoardStatusPending,
		Examiners: []ExaminerAssignment{
			{ExaminerID: "doc_a", Name: "Ana", Confirmation: ConfirmationAccepted},
			{ExaminerID: "doc_b", Name: "Bruno", Confirmation: ConfirmationPending},
		},
	}
}

func TestBoard_ScheduledAt(t *testing.T) {
	b := sampleBoard()
	got, err := b.ScheduledAt(time.UTC)
	if err != nil {
		t.Fatalf("ScheduledAt: %v", err)
	}
	want := time.Date(2026, 11, 3, 10, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("ScheduledAt = %v, want %v", got, want)
	}

	b.Time = ""
	got, err = b.ScheduledAt(time.UTC)
	if err != nil {
		t.Fatalf("ScheduledAt without time: %v", err)
	}
	if !got.Equal(time.Date(2026, 11, 3, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("ScheduledAt without time = %v, want midnight", got)
	}
}

func TestBoard_Assignment(t *testing.T) {
	b := sampleBoard()
	if i, ok := b.Assignment("doc_b"); !ok || i != 1 {
		t.Errorf("Assignment(doc_b) = %d, %v; want 1, true", i, ok)
	}
	if _, ok := b.Assignment("doc_z"); ok {
		t.Error("Assignment(doc_z) should not be found")
	}
	if RoleAt(0) != RoleTitular || RoleAt(1) != RoleVocal {
		t.Error("positional roles mismatch")
	}
}

func TestBoard_AllAccepted(t *testing.T) {
	b := sampleBoard()
	if b.AllAccepted() {
		t.Error("AllAccepted with a pending assignment should be false")
	}
	b.SetAllConfirmations(ConfirmationAccepted)
	if !b.AllAccepted() {
		t.Error("AllAccepted after accepting both should be true")
	}
	b.Examiners = b.Examiners[:1]
	if b.AllAccepted() {
		t.Error("a board with one examiner never reaches aggregate acceptance")
	}
}

func TestBoard_CloneIsDeep(t *testing.T) {
	b := sampleBoard()
	c := b.Clone()
	c.Examiners[0].Confirmation = ConfirmationRejected
	if b.Examiners[0].Confirmation != ConfirmationAccepted {
		t.Error("mutating the clone changed the original")
	}
}

func TestNewBoard_Board(t *testing.T) {
	b := NewBoard{
		Subject:   " Fisica ",
		Date:      "2026-12-01",
		Time:      "09:00",
		TitularID: "doc_a",
		VocalID:   "doc_b",
	}.Board()
	if b.Subject != "Fisica" {
		t.Errorf("Subject = %q, want trimmed", b.Subject)
	}
	if b.Status != BoardStatusPending {
		t.Errorf("Status = %q, want pending", b.Status)
	}
	if len(b.Examiners) != 2 || b.Examiners[1].ExaminerID != "doc_b" {
		t.Fatalf("Examiners = %+v", b.Examiners)
	}
	for _, a := range b.Examiners {
		if a.Confirmation != ConfirmationPending {
			t.Errorf("confirmation = %q, want pending", a.Confirmation)
		}
	}
}

func TestParseHour(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"10:00", 10, false},
		{"09:45", 9, false},
		{"23:59", 23, false},
		{"7", 7, false},
		{"24:00", 0, true},
		{"ab:00", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseHour(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseHour(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseHour(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
