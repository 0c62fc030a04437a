package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/me/mesas/pkg/model"
)

// slot wraps the active notifier so it can live in an atomic.Pointer.
type slot struct {
	notifier Notifier
}

// Dispatcher holds the registered strategies and the one currently active.
// Each Send binds to the strategy active at call time, so swapping never
// disturbs sends already in flight.
type Dispatcher struct {
	mu         sync.RWMutex
	strategies map[string]Notifier
	current    atomic.Pointer[slot]
	logger     *slog.Logger
}

// NewDispatcher creates a Dispatcher with initial registered and active.
func NewDispatcher(initial Notifier, logger *slog.Logger) *Dispatcher {
	d := &Dispatcher{
		strategies: make(map[string]Notifier),
		logger:     logger.With("component", "dispatcher"),
	}
	d.Register(initial)
	d.current.Store(&slot{notifier: initial})
	return d
}

// Register makes a strategy available to Use, keyed by its Name().
func (d *Dispatcher) Register(n Notifier) {
	d.mu.Lock()
	d.strategies[n.Name()] = n
	d.mu.Unlock()
	d.logger.Debug("notifier registered", "strategy", n.Name())
}

// Use switches the active strategy by name.
func (d *Dispatcher) Use(name string) error {
	d.mu.RLock()
	n, ok := d.strategies[name]
	d.mu.RUnlock()
	if !ok {
		return fmt.Errorf("no notifier registered for strategy %q", name)
	}
	prev := d.current.Swap(&slot{notifier: n})
	d.logger.Info("notifier switched", "from", prev.notifier.Name(), "to", name)
	return nil
}

// Current returns the active strategy.
func (d *Dispatcher) Current() Notifier {
	return d.current.Load().notifier
}

// Strategies lists the registered strategy names.
func (d *Dispatcher) Strategies() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	names := make([]string, 0, len(d.strategies))
	for name := range d.strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Strategy returns a registered strategy by name.
func (d *Dispatcher) Strategy(name string) (Notifier, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	n, ok := d.strategies[name]
	return n, ok
}

// Send delivers ev through the active strategy. Failures are logged and
// summarized in the report; they are never returned to the caller.
func (d *Dispatcher) Send(ctx context.Context, ev model.Event) model.DeliveryReport {
	n := d.Current()
	report, err := n.Send(ctx, ev)
	report.Notifier = n.Name()
	if err != nil {
		report.Failed++
		report.Failures = append(report.Failures, model.DeliveryFailure{Error: err.Error()})
		d.logger.Warn("notification send failed",
			"strategy", n.Name(), "kind", ev.Kind, "board_id", ev.BoardID, "error", err)
		return report
	}
	for _, f := range report.Failures {
		d.logger.Warn("notification delivery failed",
			"strategy", n.Name(), "kind", ev.Kind, "board_id", ev.BoardID,
			"recipient", f.Recipient, "endpoint", f.Endpoint, "error", f.Error)
	}
	d.logger.Debug("notification sent",
		"strategy", n.Name(), "kind", ev.Kind, "board_id", ev.BoardID,
		"attempted", report.Attempted, "delivered", report.Delivered, "failed", report.Failed)
	return report
}

// Notify sends each event in order and returns the merged report.
func (d *Dispatcher) Notify(ctx context.Context, events ...model.Event) model.DeliveryReport {
	var total model.DeliveryReport
	for _, ev := range events {
		r := d.Send(ctx, ev)
		total.Notifier = r.Notifier
		total.Merge(r)
	}
	return total
}
