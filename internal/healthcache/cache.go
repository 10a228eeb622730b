// Package healthcache caches synthesized signals between warning feed
// fetches and evaluates cable health from them on demand.
//
// Signals are cached rather than health maps: recency weights are computed
// at evaluation time, so the same cached signals keep decaying between
// fetches.
package healthcache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"

	"github.com/couchcryptid/cable-health-service/internal/domain"
	"github.com/couchcryptid/cable-health-service/internal/observability"
)

// ErrUpstreamUnavailable is returned when the warning feed cannot be reached
// and no previously fetched signals exist.
var ErrUpstreamUnavailable = errors.New("warning feed unavailable")

const refreshKey = "signals"

// Options tunes cache timing. Zero values take the defaults.
type Options struct {
	TTL         time.Duration   // default 3m
	NegativeTTL time.Duration   // default 1m
	Clock       clockwork.Clock // default real clock
}

// Cache fetches warnings from a feed, synthesizes signals, and serves them
// until they expire. Concurrent refreshes share a single upstream fetch.
type Cache struct {
	feed        domain.WarningFeed
	synth       *domain.Synthesizer
	ttl         time.Duration
	negativeTTL time.Duration
	clock       clockwork.Clock
	metrics     *observability.Metrics
	logger      *slog.Logger
	group       singleflight.Group

	mu         sync.RWMutex
	signals    []domain.Signal
	loaded     bool
	fetchedAt  time.Time
	failedAt   time.Time
	lastErr    error
	generation uint64
	fetchSeq   uint64 // incremented as each refresh starts
	storedSeq  uint64 // fetchSeq of the refresh that produced signals
}

// New creates a Cache over feed. A nil synthesizer uses the default
// registry and rules.
func New(feed domain.WarningFeed, synth *domain.Synthesizer, opts Options, metrics *observability.Metrics, logger *slog.Logger) *Cache {
	if synth == nil {
		synth = domain.NewSynthesizer(nil, nil)
	}
	if opts.TTL <= 0 {
		opts.TTL = 3 * time.Minute
	}
	if opts.NegativeTTL <= 0 {
		opts.NegativeTTL = time.Minute
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	return &Cache{
		feed:        feed,
		synth:       synth,
		ttl:         opts.TTL,
		negativeTTL: opts.NegativeTTL,
		clock:       opts.Clock,
		metrics:     metrics,
		logger:      logger,
	}
}

// Init performs the first fetch so the service can report ready.
func (c *Cache) Init(ctx context.Context) error {
	_, err := c.Signals(ctx)
	return err
}

// Invalidate marks the cached signals as expired. They remain available as
// a stale fallback until the next successful refresh replaces them.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.fetchedAt = time.Time{}
	c.failedAt = time.Time{}
	c.generation++
	c.mu.Unlock()
	c.group.Forget(refreshKey)
}

// CheckReadiness returns nil once signals have been loaded at least once.
func (c *Cache) CheckReadiness(_ context.Context) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.loaded {
		return errors.New("warning feed has not been loaded yet")
	}
	return nil
}

// Signals returns the cached signals, refreshing them from the feed when
// they are older than the TTL.
func (c *Cache) Signals(ctx context.Context) ([]domain.Signal, error) {
	now := c.clock.Now()

	c.mu.RLock()
	switch {
	case c.loaded && !c.fetchedAt.IsZero() && now.Sub(c.fetchedAt) < c.ttl:
		signals := c.signals
		c.mu.RUnlock()
		c.metrics.CacheLookups.WithLabelValues("hit").Inc()
		return signals, nil
	case !c.failedAt.IsZero() && now.Sub(c.failedAt) < c.negativeTTL:
		signals, loaded, lastErr := c.signals, c.loaded, c.lastErr
		c.mu.RUnlock()
		c.metrics.CacheLookups.WithLabelValues("negative").Inc()
		if loaded {
			return signals, nil
		}
		return nil, fmt.Errorf("%w: %w", ErrUpstreamUnavailable, lastErr)
	}
	c.mu.RUnlock()

	c.metrics.CacheLookups.WithLabelValues("miss").Inc()
	// The shared fetch must not be canceled by whichever caller started it.
	v, err, _ := c.group.Do(refreshKey, func() (any, error) {
		return c.refresh(context.WithoutCancel(ctx))
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.Signal), nil
}

// Snapshot evaluates cable health at the current time from the cached
// signals.
func (c *Cache) Snapshot(ctx context.Context) (domain.HealthSnapshot, error) {
	signals, err := c.Signals(ctx)
	if err != nil {
		return domain.HealthSnapshot{}, err
	}
	snap := domain.EvaluateHealth(signals)
	c.metrics.RecordHealth(snap.Cables)
	return snap, nil
}

func (c *Cache) refresh(ctx context.Context) ([]domain.Signal, error) {
	c.mu.Lock()
	gen := c.generation
	c.fetchSeq++
	seq := c.fetchSeq
	c.mu.Unlock()

	warnings, err := c.feed.FetchWarnings(ctx)
	now := c.clock.Now()

	var (
		signals []domain.Signal
		stats   domain.SynthesisStats
	)
	if err == nil {
		signals, stats = c.synth.BuildSignals(warnings)
		c.metrics.RecordSynthesis(stats)
		if signals == nil {
			signals = []domain.Signal{}
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// A refresh that started later has already stored its result.
	if c.loaded && seq < c.storedSeq {
		c.logger.Debug("discarding superseded warning fetch", "fetch", seq, "stored", c.storedSeq)
		return c.signals, nil
	}

	if err != nil {
		c.failedAt = now
		c.lastErr = err
		if c.loaded {
			c.logger.Warn("warning feed refresh failed, serving stale signals",
				"error", err,
				"age", now.Sub(c.fetchedAt),
			)
			c.metrics.CacheLookups.WithLabelValues("stale").Inc()
			return c.signals, nil
		}
		c.logger.Error("warning feed refresh failed", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
	}

	c.signals = signals
	c.storedSeq = seq
	c.loaded = true
	c.failedAt = time.Time{}
	c.lastErr = nil
	// An invalidation during the fetch means these signals may already be
	// out of date; keep them but force the next lookup to refresh.
	if c.generation == gen {
		c.fetchedAt = now
	}

	c.logger.Info("signals refreshed",
		"warnings", stats.Warnings,
		"cable_related", stats.CableRelated,
		"unresolved", stats.Unresolved,
		"unparseable_dates", stats.UnparseableDates,
		"signals", len(signals),
	)
	return signals, nil
}
