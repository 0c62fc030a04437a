package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/me/mesas/pkg/model"
)

// OutcomeStatus classifies a single delivery attempt.
type OutcomeStatus int

const (
	Delivered OutcomeStatus = iota
	Transient
	Gone
)

func (s OutcomeStatus) String() string {
	switch s {
	case Delivered:
		return "delivered"
	case Transient:
		return "transient"
	case Gone:
		return "gone"
	}
	return "unknown"
}

// Outcome is the result of Transport.Deliver.
type Outcome struct {
	Status OutcomeStatus
	Err    error
}

// Transport delivers a payload to one push endpoint.
type Transport interface {
	Deliver(ctx context.Context, ep model.Endpoint, payload []byte) Outcome
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, ep model.Endpoint, payload []byte) Outcome

func (f TransportFunc) Deliver(ctx context.Context, ep model.Endpoint, payload []byte) Outcome {
	return f(ctx, ep, payload)
}

var errEndpointGone = errors.New("endpoint gone")

// probePayload is the trivial message used by Cleanup.
var probePayload = []byte(`{"kind":"probe"}`)

// DefaultDeliveryTimeout bounds each individual delivery attempt.
const DefaultDeliveryTimeout = 10 * time.Second

// Push delivers events to every subscribed endpoint of each recipient.
type Push struct {
	subs      SubscriptionStore
	transport Transport
	timeout   time.Duration
	logger    *slog.Logger
}

// NewPush creates the push strategy. timeout applies to each attempt
// independently; zero means DefaultDeliveryTimeout.
func NewPush(subs SubscriptionStore, transport Transport, timeout time.Duration, logger *slog.Logger) *Push {
	if timeout <= 0 {
		timeout = DefaultDeliveryTimeout
	}
	return &Push{
		subs:      subs,
		transport: transport,
		timeout:   timeout,
		logger:    logger.With("component", "notifier", "strategy", StrategyPush),
	}
}

func (p *Push) Name() string { return StrategyPush }

// Subscribe registers ep for recipient. Repeating a subscription is a no-op.
func (p *Push) Subscribe(recipient string, ep model.Endpoint) bool {
	added := p.subs.Add(recipient, ep)
	if added {
		p.logger.Info("subscription added", "recipient", recipient, "endpoint", ep.URL)
	}
	return added
}

// Unsubscribe removes ep from recipient. Missing subscriptions are ignored.
func (p *Push) Unsubscribe(recipient, url string) bool {
	removed := p.subs.Remove(recipient, url)
	if removed {
		p.logger.Info("subscription removed", "recipient", recipient, "endpoint", url)
	}
	return removed
}

// Subscriptions returns the endpoints registered for recipient.
func (p *Push) Subscriptions(recipient string) []model.Endpoint {
	return p.subs.Endpoints(recipient)
}

// Recipients returns every recipient with at least one endpoint.
func (p *Push) Recipients() []string {
	return p.subs.Recipients()
}

type target struct {
	recipient string
	endpoint  model.Endpoint
}

func (p *Push) targets(recipients []string) []target {
	if len(recipients) == 0 {
		recipients = p.subs.Recipients()
	}
	seen := make(map[string]bool, len(recipients))
	var out []target
	for _, r := range recipients {
		if seen[r] {
			continue
		}
		seen[r] = true
		eps := p.subs.Endpoints(r)
		if len(eps) == 0 {
			p.logger.Debug("recipient has no subscriptions", "recipient", r)
		}
		for _, ep := range eps {
			out = append(out, target{recipient: r, endpoint: ep})
		}
	}
	return out
}

// Send delivers ev to each (recipient, endpoint) pair concurrently. One
// failure never stops the others; gone endpoints are pruned.
func (p *Push) Send(ctx context.Context, ev model.Event) (model.DeliveryReport, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return model.DeliveryReport{}, err
	}
	return p.deliverAll(ctx, p.targets(ev.Recipients), payload, false), nil
}

// Cleanup probes every endpoint and prunes those reporting gone.
// Transient failures are left in place.
func (p *Push) Cleanup(ctx context.Context) model.DeliveryReport {
	report := p.deliverAll(ctx, p.targets(nil), probePayload, true)
	if report.Pruned > 0 {
		p.logger.Info("subscription cleanup", "probed", report.Attempted, "pruned", report.Pruned)
	}
	return report
}

func (p *Push) deliverAll(ctx context.Context, targets []target, payload []byte, probe bool) model.DeliveryReport {
	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		report = model.DeliveryReport{Attempted: len(targets)}
	)
	for _, t := range targets {
		wg.Add(1)
		go func(t target) {
			defer wg.Done()
			attemptCtx, cancel := context.WithTimeout(ctx, p.timeout)
			out := p.transport.Deliver(attemptCtx, t.endpoint, payload)
			cancel()

			mu.Lock()
			defer mu.Unlock()
			switch out.Status {
			case Delivered:
				report.Delivered++
				return
			case Gone:
				if p.subs.Remove(t.recipient, t.endpoint.URL) {
					report.Pruned++
				}
				if out.Err == nil {
					out.Err = errEndpointGone
				}
			}
			if out.Err == nil {
				out.Err = fmt.Errorf("delivery %s", out.Status)
			}
			if probe && out.Status == Transient {
				// Probes only care about gone endpoints.
				return
			}
			report.Failed++
			derr := &DeliveryError{Recipient: t.recipient, Endpoint: t.endpoint.URL, Err: out.Err}
			report.Failures = append(report.Failures, derr.failure())
			p.logger.Debug("push delivery failed",
				"recipient", t.recipient, "endpoint", t.endpoint.URL, "outcome", out.Status, "error", out.Err)
		}(t)
	}
	wg.Wait()
	return report
}
