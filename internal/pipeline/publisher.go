package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/cable-health-service/internal/domain"
	"github.com/couchcryptid/cable-health-service/internal/observability"
)

// SnapshotSource evaluates the current cable health snapshot.
type SnapshotSource interface {
	Snapshot(ctx context.Context) (domain.HealthSnapshot, error)
}

// SnapshotWriter publishes a snapshot downstream and reports how many
// records it wrote.
type SnapshotWriter interface {
	PublishSnapshot(ctx context.Context, snap domain.HealthSnapshot) (int, error)
}

// Publisher periodically evaluates cable health and writes it downstream.
type Publisher struct {
	source   SnapshotSource
	writer   SnapshotWriter
	interval time.Duration
	clock    clockwork.Clock
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewPublisher creates a Publisher. A nil clock uses real time.
func NewPublisher(source SnapshotSource, writer SnapshotWriter, interval time.Duration, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Publisher {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Publisher{
		source:   source,
		writer:   writer,
		interval: interval,
		clock:    clock,
		logger:   logger,
		metrics:  metrics,
	}
}

// Run publishes immediately and then once per interval until the context is
// cancelled. Failed rounds are logged and retried on the next tick.
func (p *Publisher) Run(ctx context.Context) error {
	p.logger.Info("snapshot publisher started", "interval", p.interval)

	ticker := p.clock.NewTicker(p.interval)
	defer ticker.Stop()

	p.publishAndLog(ctx)
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("snapshot publisher stopping", "reason", ctx.Err())
			return nil
		case <-ticker.Chan():
			p.publishAndLog(ctx)
		}
	}
}

// PublishOnce evaluates and writes a single snapshot.
func (p *Publisher) PublishOnce(ctx context.Context) error {
	snap, err := p.source.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("evaluate snapshot: %w", err)
	}
	n, err := p.writer.PublishSnapshot(ctx, snap)
	if err != nil {
		return fmt.Errorf("publish snapshot: %w", err)
	}
	p.metrics.SnapshotsPublished.Inc()
	p.logger.Debug("snapshot published", "cables", n, "generated_at", snap.GeneratedAt)
	return nil
}

func (p *Publisher) publishAndLog(ctx context.Context) {
	if err := p.PublishOnce(ctx); err != nil && ctx.Err() == nil {
		p.logger.Warn("snapshot publish failed", "error", err)
	}
}
