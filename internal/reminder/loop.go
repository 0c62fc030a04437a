package reminder

import (
	"context"
	"log/slog"
	"time"

	"github.com/me/mesas/pkg/model"
)

// Cleaner prunes dead push subscriptions.
type Cleaner interface {
	Cleanup(ctx context.Context) model.DeliveryReport
}

// Config holds loop intervals.
type Config struct {
	Interval        time.Duration // reminder scan period
	CleanupInterval time.Duration // subscription probe period; 0 disables it
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{Interval: time.Minute, CleanupInterval: time.Hour}
}

// Loop triggers reminder processing on a timer.
type Loop struct {
	processor *Processor
	cleaner   Cleaner
	config    Config
	logger    *slog.Logger
	stopCh    chan struct{}
	doneCh    chan struct{}
}

// NewLoop creates a loop. cleaner may be nil.
func NewLoop(p *Processor, cleaner Cleaner, cfg Config, logger *slog.Logger) *Loop {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultConfig().Interval
	}
	return &Loop{
		processor: p,
		cleaner:   cleaner,
		config:    cfg,
		logger:    logger.With("component", "reminder-loop"),
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// Start runs the loop. Blocks until ctx is cancelled or Stop is called.
func (l *Loop) Start(ctx context.Context) error {
	l.logger.Info("reminder loop started", "interval", l.config.Interval, "cleanup_interval", l.config.CleanupInterval)
	ticker := time.NewTicker(l.config.Interval)
	defer ticker.Stop()

	var cleanupC <-chan time.Time
	if l.cleaner != nil && l.config.CleanupInterval > 0 {
		cleanup := time.NewTicker(l.config.CleanupInterval)
		defer cleanup.Stop()
		cleanupC = cleanup.C
	}

	defer close(l.doneCh)
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("reminder loop stopping (context cancelled)")
			return ctx.Err()
		case <-l.stopCh:
			l.logger.Info("reminder loop stopping (stop called)")
			return nil
		case <-ticker.C:
			if _, err := l.Tick(ctx); err != nil {
				l.logger.Error("tick error", "error", err)
			}
		case <-cleanupC:
			l.Cleanup(ctx)
		}
	}
}

// Stop shuts the loop down and waits for the current tick to finish.
func (l *Loop) Stop() error {
	close(l.stopCh)
	<-l.doneCh
	return nil
}

// Tick runs one reminder pass.
func (l *Loop) Tick(ctx context.Context) (Report, error) {
	return l.processor.Process(ctx)
}

// Cleanup runs one subscription probe pass.
func (l *Loop) Cleanup(ctx context.Context) model.DeliveryReport {
	if l.cleaner == nil {
		return model.DeliveryReport{}
	}
	report := l.cleaner.Cleanup(ctx)
	l.logger.Debug("subscription cleanup", "probed", report.Attempted, "pruned", report.Pruned)
	return report
}
