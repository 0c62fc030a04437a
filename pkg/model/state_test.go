package model

import "testing"

func TestBoardStatus_Valid(t *testing.T) {
	tests := []struct {
		status BoardStatus
		valid  bool
	}{
		{BoardStatusPending, true},
		{BoardStatusConfirmed, true},
		{BoardStatusCancelled, true},
		{"PENDING", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := tt.status.Valid(); got != tt.valid {
			t.Errorf("BoardStatus(%q).Valid() = %v, want %v", tt.status, got, tt.valid)
		}
	}
}

func TestConfirmation_Valid(t *testing.T) {
	tests := []struct {
		value Confirmation
		valid bool
	}{
		{ConfirmationPending, true},
		{ConfirmationAccepted, true},
		{ConfirmationRejected, true},
		{"maybe", false},
	}
	for _, tt := range tests {
		if got := tt.value.Valid(); got != tt.valid {
			t.Errorf("Confirmation(%q).Valid() = %v, want %v", tt.value, got, tt.valid)
		}
	}
}
