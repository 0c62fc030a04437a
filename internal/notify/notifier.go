// Package notify fans notification events out to interchangeable delivery
// backends: a websocket broadcast channel, per-recipient web push, and the
// operational log.
package notify

import (
	"context"
	"errors"
	"fmt"

	jsoniter "github.com/json-iterator/go"

	"github.com/me/mesas/pkg/model"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Strategy names accepted by Dispatcher.Use and the server configuration.
const (
	StrategyBroadcast = "broadcast"
	StrategyPush      = "push"
	StrategyLog       = "log"
)

// ErrChannelNotInitialized is returned by Broadcast.Send when no hub is attached.
var ErrChannelNotInitialized = errors.New("broadcast channel not initialized")

// Notifier is a pluggable delivery backend.
type Notifier interface {
	// Name returns the strategy identifier.
	Name() string

	// Send delivers ev and reports per-attempt counts. A non-nil error means
	// the call failed as a whole; individual delivery failures only show up
	// in the report.
	Send(ctx context.Context, ev model.Event) (model.DeliveryReport, error)
}

// DeliveryError describes one failed delivery attempt.
type DeliveryError struct {
	Recipient string
	Endpoint  string
	Err       error
}

func (e *DeliveryError) Error() string {
	if e.Endpoint == "" {
		return fmt.Sprintf("deliver to %s: %v", e.Recipient, e.Err)
	}
	return fmt.Sprintf("deliver to %s (%s): %v", e.Recipient, e.Endpoint, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

func (e *DeliveryError) failure() model.DeliveryFailure {
	return model.DeliveryFailure{Recipient: e.Recipient, Endpoint: e.Endpoint, Error: e.Err.Error()}
}
