package model

// BoardStatus is the lifecycle status of a Board.
type BoardStatus string

const (
	BoardStatusPending   BoardStatus = "pending"
	BoardStatusConfirmed BoardStatus = "confirmed"
	BoardStatusCancelled BoardStatus = "cancelled"
)

// String returns the string representation of the board status.
func (s BoardStatus) String() string {
	return string(s)
}

// Valid reports whether s is a known status.
func (s BoardStatus) Valid() bool {
	switch s {
	case BoardStatusPending, BoardStatusConfirmed, BoardStatusCancelled:
		return true
	}
	return false
}

// Confirmation is one examiner's answer to an assignment.
type Confirmation string

const (
	ConfirmationPending  Confirmation = "pending"
	ConfirmationAccepted Confirmation = "accepted"
	ConfirmationRejected Confirmation = "rejected"
)

// String returns the string representation of the confirmation.
func (c Confirmation) String() string {
	return string(c)
}

// Valid reports whether c is a known confirmation value.
func (c Confirmation) Valid() bool {
	switch c {
	case ConfirmationPending, ConfirmationAccepted, ConfirmationRejected:
		return true
	}
	return false
}

// Verb renders the confirmation as a past-tense verb for messages.
func (c Confirmation) Verb() string {
	switch c {
	case ConfirmationAccepted:
		return "accepted"
	case ConfirmationRejected:
		return "rejected"
	default:
		return "reset"
	}
}
