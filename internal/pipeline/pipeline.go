package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/storm-data-shared/retry"

	"github.com/couchcryptid/cable-health-service/internal/domain"
	"github.com/couchcryptid/cable-health-service/internal/observability"
)

const (
	minRetryDelay = 200 * time.Millisecond
	maxRetryDelay = 5 * time.Second
)

// BatchExtractor reads up to batchSize raw events from the source.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawEvent, error)
}

// Transformer decodes a raw event into a warning.
type Transformer interface {
	Transform(ctx context.Context, raw domain.RawEvent) (domain.Warning, error)
}

// BatchLoader stores decoded warnings.
type BatchLoader interface {
	LoadBatch(ctx context.Context, warnings []domain.Warning) error
}

// Pipeline consumes warning messages from the source topic and loads them
// into a warning store. Offsets are committed only after the store accepts
// the batch, so a failed load is retried from the same offsets.
type Pipeline struct {
	extractor   BatchExtractor
	transformer Transformer
	loader      BatchLoader
	logger      *slog.Logger
	metrics     *observability.Metrics
	batchSize   int
	loadedOnce  atomic.Bool
}

// New creates a Pipeline with the given stages and observability.
func New(e BatchExtractor, t Transformer, l BatchLoader, logger *slog.Logger, metrics *observability.Metrics, batchSize int) *Pipeline {
	return &Pipeline{
		extractor:   e,
		transformer: t,
		loader:      l,
		logger:      logger,
		metrics:     metrics,
		batchSize:   batchSize,
	}
}

// CheckReadiness reports ready once at least one warning has been loaded.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if p.loadedOnce.Load() {
		return nil
	}
	return errors.New("pipeline has not loaded any warnings yet")
}

// Run consumes batches until ctx is cancelled. Extract and load failures
// are retried with exponential backoff; they never end the loop.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "batch_size", p.batchSize)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	backoff := minRetryDelay
	for ctx.Err() == nil {
		if err := p.step(ctx); err != nil {
			if ctx.Err() != nil {
				break
			}
			p.logger.Error("warning batch failed", "error", err, "retry_in", backoff)
			if !retry.SleepWithContext(ctx, backoff) {
				break
			}
			backoff = retry.NextBackoff(backoff, maxRetryDelay)
			continue
		}
		backoff = minRetryDelay
	}

	p.logger.Info("pipeline stopping", "reason", ctx.Err())
	return nil
}

// step extracts one batch, decodes it, and loads the decoded warnings.
func (p *Pipeline) step(ctx context.Context) error {
	start := time.Now()

	raws, err := p.extractor.ExtractBatch(ctx, p.batchSize)
	if err != nil {
		return err
	}
	if len(raws) == 0 {
		return nil
	}
	p.metrics.WarningsConsumed.Add(float64(len(raws)))
	p.metrics.BatchSize.Observe(float64(len(raws)))

	warnings, accepted := p.decode(ctx, raws)
	if len(warnings) == 0 {
		return nil
	}
	if err := p.loader.LoadBatch(ctx, warnings); err != nil {
		return err
	}
	for _, raw := range accepted {
		p.commit(ctx, raw)
	}

	p.metrics.BatchProcessingDuration.Observe(time.Since(start).Seconds())
	p.loadedOnce.Store(true)
	p.logger.Debug("warnings loaded", "count", len(warnings))
	return nil
}

// decode transforms each raw event. Undecodable messages are committed
// immediately so a single bad record cannot block the partition.
func (p *Pipeline) decode(ctx context.Context, raws []domain.RawEvent) ([]domain.Warning, []domain.RawEvent) {
	warnings := make([]domain.Warning, 0, len(raws))
	accepted := make([]domain.RawEvent, 0, len(raws))
	for _, raw := range raws {
		w, err := p.transformer.Transform(ctx, raw)
		if err != nil {
			p.metrics.TransformErrors.Inc()
			p.logger.Warn("skipping undecodable warning",
				"error", err,
				"topic", raw.Topic,
				"partition", raw.Partition,
				"offset", raw.Offset,
			)
			p.commit(ctx, raw)
			continue
		}
		warnings = append(warnings, w)
		accepted = append(accepted, raw)
	}
	return warnings, accepted
}

func (p *Pipeline) commit(ctx context.Context, raw domain.RawEvent) {
	if raw.Commit == nil {
		return
	}
	if err := raw.Commit(ctx); err != nil {
		p.logger.Warn("commit offset failed", "error", err,
			"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
	}
}
