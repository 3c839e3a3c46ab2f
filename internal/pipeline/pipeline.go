package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/storm-data-shared/retry"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/DataRozhlas/covid-obce/internal/domain"
	"github.com/DataRozhlas/covid-obce/internal/observability"
)

// ErrNoValidRows is returned when a payload contains rows but none of them
// could be read.
var ErrNoValidRows = errors.New("payload has no valid rows")

// Fetcher downloads the current feed payload.
type Fetcher interface {
	Fetch(ctx context.Context) (domain.Payload, error)
}

// Publisher receives every new snapshot.
type Publisher interface {
	Publish(ctx context.Context, snap *domain.Snapshot) error
}

// Sink is a named Publisher; the name labels its metrics and logs.
type Sink struct {
	Name      string
	Publisher Publisher
}

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// Pipeline orchestrates the fetch-aggregate-publish loop.
type Pipeline struct {
	fetcher  Fetcher
	builder  *Builder
	sinks    []Sink
	interval time.Duration
	clock    clockwork.Clock
	logger   *slog.Logger
	metrics  *observability.Metrics
	ready    atomic.Bool
}

// New creates a Pipeline that refreshes every interval.
func New(f Fetcher, b *Builder, sinks []Sink, interval time.Duration, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		fetcher:  f,
		builder:  b,
		sinks:    sinks,
		interval: interval,
		clock:    clock,
		logger:   logger,
		metrics:  metrics,
	}
}

// CheckReadiness returns nil once a snapshot has been published, or an error
// describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no snapshot has been published yet")
	}
	return nil
}

// Run refreshes immediately and then every interval until the context is
// cancelled. Failed refreshes are retried with exponential backoff.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "interval", p.interval, "sinks", len(p.sinks))
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	backoff := initialBackoff
	for {
		_, err := p.RefreshOnce(ctx)
		if ctx.Err() != nil {
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		}

		wait := p.interval
		if err != nil {
			wait = min(backoff, p.interval)
			p.logger.Error("refresh failed", "error", err, "retry_in", wait)
			backoff = retry.NextBackoff(backoff, maxBackoff)
		} else {
			backoff = initialBackoff
		}

		if !sleepWithContext(ctx, p.clock, wait) {
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		}
	}
}

// RefreshOnce runs one fetch-aggregate-publish cycle. It returns the new
// snapshot, or nil when nothing was published: the feed was unchanged or
// empty. The previous snapshot stays in place in both cases.
func (p *Pipeline) RefreshOnce(ctx context.Context) (*domain.Snapshot, error) {
	start := p.clock.Now()

	payload, err := p.fetcher.Fetch(ctx)
	switch {
	case errors.Is(err, domain.ErrEmptyPayload):
		p.metrics.Refreshes.WithLabelValues("empty").Inc()
		p.logger.Warn("feed delivered no rows, keeping previous snapshot")
		return nil, nil
	case err != nil:
		p.metrics.Refreshes.WithLabelValues("error").Inc()
		return nil, err
	case payload.NotModified && p.ready.Load():
		p.metrics.Refreshes.WithLabelValues("not_modified").Inc()
		p.logger.Debug("feed not modified")
		return nil, nil
	case len(payload.Rows) == 0:
		p.metrics.Refreshes.WithLabelValues("empty").Inc()
		p.logger.Warn("feed delivered no rows, keeping previous snapshot")
		return nil, nil
	}

	snap := p.builder.Build(payload.Rows)
	p.metrics.RowsConsumed.Add(float64(snap.RowsConsumed))
	p.metrics.RowsSkipped.Add(float64(snap.RowsSkipped))
	if len(snap.Districts) == 0 {
		p.metrics.Refreshes.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: %d rows skipped", ErrNoValidRows, snap.RowsSkipped)
	}

	if published := p.publish(ctx, snap); published == 0 {
		p.metrics.Refreshes.WithLabelValues("error").Inc()
		return nil, errors.New("no sink accepted the snapshot")
	}

	p.ready.Store(true)
	p.metrics.Refreshes.WithLabelValues("success").Inc()
	p.metrics.RefreshDuration.Observe(p.clock.Since(start).Seconds())
	p.metrics.Districts.Set(float64(len(snap.Districts)))
	p.metrics.Municipalities.Set(float64(len(snap.Municipalities)))
	p.metrics.LastSuccess.Set(float64(snap.GeneratedAt.Unix()))
	p.logger.Info("snapshot published",
		"snapshot_id", snap.ID,
		"districts", len(snap.Districts),
		"municipalities", len(snap.Municipalities),
		"weeks", snap.Weeks,
		"rows_skipped", snap.RowsSkipped,
	)
	return snap, nil
}

// publish hands the snapshot to every sink concurrently. A failing sink is
// logged and counted; it never stops the others. Returns the number of sinks
// that accepted the snapshot.
func (p *Pipeline) publish(ctx context.Context, snap *domain.Snapshot) int {
	var (
		g         errgroup.Group
		published atomic.Int32
	)
	for _, sink := range p.sinks {
		g.Go(func() error {
			if err := sink.Publisher.Publish(ctx, snap); err != nil {
				p.metrics.PublishErrors.WithLabelValues(sink.Name).Inc()
				p.logger.Error("publish snapshot failed", "sink", sink.Name, "snapshot_id", snap.ID, "error", err)
				return nil
			}
			p.metrics.SnapshotsPublished.WithLabelValues(sink.Name).Inc()
			published.Add(1)
			return nil
		})
	}
	_ = g.Wait()
	return int(published.Load())
}

// sleepWithContext waits on the injected clock so tests can advance it.
func sleepWithContext(ctx context.Context, clock clockwork.Clock, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.Chan():
		return true
	}
}
