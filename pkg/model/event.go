package model

import "time"

// EventKind classifies a notification.
type EventKind string

const (
	EventConfirmation EventKind = "confirmation"
	EventUpdate       EventKind = "update"
	EventReminder     EventKind = "reminder"
)

// Event is a transient notification handed to a notifier. A nil or empty
// Recipients list means every currently subscribed recipient.
type Event struct {
	Kind       EventKind `json:"kind"`
	Message    string    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
	Recipients []string  `json:"recipients,omitempty"`
	BoardID    string    `json:"board_id,omitempty"`
}

// NewEvent stamps an event with the current time.
func NewEvent(kind EventKind, boardID, msg string, recipients ...string) Event {
	return Event{
		Kind:       kind,
		Message:    msg,
		Timestamp:  time.Now().UTC(),
		Recipients: recipients,
		BoardID:    boardID,
	}
}

// Broadcast reports whether the event has no explicit recipients.
func (e Event) Broadcast() bool {
	return len(e.Recipients) == 0
}

// DeliveryFailure records one failed delivery attempt.
type DeliveryFailure struct {
	Recipient string `json:"recipient,omitempty"`
	Endpoint  string `json:"endpoint,omitempty"`
	Error     string `json:"error"`
}

// DeliveryReport summarizes a fan-out.
type DeliveryReport struct {
	Notifier  string            `json:"notifier"`
	Attempted int               `json:"attempted"`
	Delivered int               `json:"delivered"`
	Failed    int               `json:"failed"`
	Pruned    int               `json:"pruned"`
	Failures  []DeliveryFailure `json:"failures,omitempty"`
}

// Merge adds the counts of other into r.
func (r *DeliveryReport) Merge(other DeliveryReport) {
	r.Attempted += other.Attempted
	r.Delivered += other.Delivered
	r.Failed += other.Failed
	r.Pruned += other.Pruned
	r.Failures = append(r.Failures, other.Failures...)
}

// Endpoint is a push delivery target. URL is its identity.
type Endpoint struct {
	URL  string       `json:"endpoint"`
	Keys EndpointKeys `json:"keys"`
}

// EndpointKeys holds the client keys of a browser push subscription.
type EndpointKeys struct {
	P256dh string `json:"p256dh"`
	Auth   string `json:"auth"`
}

// Reminder asks for a reminder event HoursBefore hours ahead of a board.
type Reminder struct {
	ID          string     `json:"id"`
	BoardID     string     `json:"board_id"`
	HoursBefore int        `json:"hours_before"`
	Sent        bool       `json:"sent"`
	CreatedAt   time.Time  `json:"created_at"`
	SentAt      *time.Time `json:"sent_at"`
}
