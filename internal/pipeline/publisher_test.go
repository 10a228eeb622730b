package pipeline_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/cable-health-service/internal/domain"
	"github.com/couchcryptid/cable-health-service/internal/pipeline"
)

type stubSource struct {
	snap domain.HealthSnapshot
	err  error
}

func (s *stubSource) Snapshot(_ context.Context) (domain.HealthSnapshot, error) {
	return s.snap, s.err
}

type recordingWriter struct {
	mu       sync.Mutex
	snaps    []domain.HealthSnapshot
	attempts int
	err      error
}

func (w *recordingWriter) PublishSnapshot(_ context.Context, snap domain.HealthSnapshot) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.attempts++
	if w.err != nil {
		return 0, w.err
	}
	w.snaps = append(w.snaps, snap)
	return len(snap.Cables), nil
}

func (w *recordingWriter) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.snaps)
}

func (w *recordingWriter) attemptCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.attempts
}

func testSnapshot() domain.HealthSnapshot {
	return domain.HealthSnapshot{
		GeneratedAt: time.Date(2026, time.February, 15, 13, 0, 0, 0, time.UTC),
		Cables: domain.HealthMap{
			"marea": {Status: domain.StatusFault, Score: 0.89, Confidence: 0.89},
		},
	}
}

func TestPublisher_PublishOnce(t *testing.T) {
	w := &recordingWriter{}
	metrics := newTestMetrics()
	p := pipeline.NewPublisher(&stubSource{snap: testSnapshot()}, w, time.Minute, nil, discardLogger(), metrics)

	require.NoError(t, p.PublishOnce(context.Background()))
	require.Equal(t, 1, w.count())
	assert.Equal(t, domain.StatusFault, w.snaps[0].Cables["marea"].Status)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.SnapshotsPublished), 0)
}

func TestPublisher_PublishOnce_SourceError(t *testing.T) {
	w := &recordingWriter{}
	p := pipeline.NewPublisher(&stubSource{err: errors.New("feed down")}, w, time.Minute, nil, discardLogger(), newTestMetrics())

	err := p.PublishOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "evaluate snapshot")
	assert.Zero(t, w.count())
}

func TestPublisher_PublishOnce_WriterError(t *testing.T) {
	w := &recordingWriter{err: errors.New("broker down")}
	metrics := newTestMetrics()
	p := pipeline.NewPublisher(&stubSource{snap: testSnapshot()}, w, time.Minute, nil, discardLogger(), metrics)

	err := p.PublishOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish snapshot")
	assert.Zero(t, testutil.ToFloat64(metrics.SnapshotsPublished))
}

func TestPublisher_Run_PublishesEveryInterval(t *testing.T) {
	clock := clockwork.NewFakeClock()
	w := &recordingWriter{}
	p := pipeline.NewPublisher(&stubSource{snap: testSnapshot()}, w, time.Minute, clock, discardLogger(), newTestMetrics())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	require.Eventually(t, func() bool { return w.count() == 1 }, time.Second, time.Millisecond)

	blockCtx, blockCancel := context.WithTimeout(context.Background(), time.Second)
	defer blockCancel()
	require.NoError(t, clock.BlockUntilContext(blockCtx, 1))

	clock.Advance(time.Minute)
	require.Eventually(t, func() bool { return w.count() == 2 }, time.Second, time.Millisecond)

	clock.Advance(time.Minute)
	require.Eventually(t, func() bool { return w.count() == 3 }, time.Second, time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestPublisher_Run_ContinuesAfterFailure(t *testing.T) {
	clock := clockwork.NewFakeClock()
	w := &recordingWriter{err: errors.New("broker down")}
	p := pipeline.NewPublisher(&stubSource{snap: testSnapshot()}, w, time.Minute, clock, discardLogger(), newTestMetrics())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	require.Eventually(t, func() bool { return w.attemptCount() == 1 }, time.Second, time.Millisecond)
	blockCtx, blockCancel := context.WithTimeout(context.Background(), time.Second)
	defer blockCancel()
	require.NoError(t, clock.BlockUntilContext(blockCtx, 1))
	assert.Zero(t, w.count())

	w.mu.Lock()
	w.err = nil
	w.mu.Unlock()

	clock.Advance(time.Minute)
	require.Eventually(t, func() bool { return w.count() == 1 }, time.Second, time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}
