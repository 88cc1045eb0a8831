package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/storm-data-shared/retry"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/geo-kpi-service/internal/dashboard"
	"github.com/couchcryptid/geo-kpi-service/internal/observability"
)

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// Refresher rebuilds the Geo page view from the upstream feed.
type Refresher interface {
	Refresh(ctx context.Context) (view dashboard.GeoView, committed bool, err error)
}

// SnapshotLoader publishes a geo snapshot downstream.
type SnapshotLoader interface {
	LoadSnapshot(ctx context.Context, view dashboard.GeoView) error
}

// Poller keeps the Geo page warm and forwards real snapshots to the loader.
type Poller struct {
	refresher Refresher
	loader    SnapshotLoader
	interval  time.Duration
	clock     clockwork.Clock
	logger    *slog.Logger
	metrics   *observability.Metrics
	ready     atomic.Bool
}

// New creates a Poller. loader may be nil, in which case snapshots are only
// kept in memory.
func New(r Refresher, l SnapshotLoader, interval time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Poller {
	return &Poller{
		refresher: r,
		loader:    l,
		interval:  interval,
		clock:     clockwork.NewRealClock(),
		logger:    logger,
		metrics:   metrics,
	}
}

// WithClock replaces the clock driving the poll interval and backoff.
func (p *Poller) WithClock(c clockwork.Clock) *Poller {
	p.clock = c
	return p
}

// CheckReadiness returns nil once a poll cycle has completed without an
// upstream or publish error.
func (p *Poller) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("geo poller has not completed a refresh yet")
	}
	return nil
}

// Ready reports whether CheckReadiness would succeed.
func (p *Poller) Ready() bool {
	return p.ready.Load()
}

// Run polls until the context is cancelled. Failed cycles are retried with
// exponential backoff instead of waiting a full interval.
func (p *Poller) Run(ctx context.Context) error {
	p.logger.Info("geo poller started", "interval", p.interval, "publishing", p.loader != nil)
	p.metrics.PollerRunning.Set(1)
	defer p.metrics.PollerRunning.Set(0)

	backoff := initialBackoff
	for {
		if ctx.Err() != nil {
			p.logger.Info("geo poller stopping", "reason", ctx.Err())
			return nil
		}

		wait := p.interval
		if p.poll(ctx) {
			backoff = initialBackoff
		} else {
			wait = backoff
			backoff = retry.NextBackoff(backoff, maxBackoff)
		}

		if !sleepWithContext(ctx, p.clock, wait) {
			p.logger.Info("geo poller stopping", "reason", ctx.Err())
			return nil
		}
	}
}

// poll runs one refresh-publish cycle and reports whether it succeeded.
func (p *Poller) poll(ctx context.Context) bool {
	start := p.clock.Now()
	defer func() {
		p.metrics.PollDuration.Observe(p.clock.Since(start).Seconds())
	}()

	view, committed, err := p.refresher.Refresh(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return true
		}
		p.logger.Warn("geo refresh failed, serving sample data", "error", err)
		return false
	}

	switch {
	case !committed:
		p.logger.Debug("geo refresh superseded, skipping publish")
	case view.Fallback:
		p.logger.Debug("geo feed empty, skipping publish")
	case p.loader != nil:
		if err := p.loader.LoadSnapshot(ctx, view); err != nil {
			if ctx.Err() != nil {
				return true
			}
			p.metrics.PublishErrors.Inc()
			p.logger.Error("publish geo snapshot failed", "error", err, "entries", len(view.Entries))
			return false
		}
		p.metrics.SnapshotsPublished.Inc()
		p.metrics.MessagesProduced.Add(float64(len(view.Entries)))
		p.logger.Debug("geo snapshot published", "entries", len(view.Entries))
	}

	p.ready.Store(true)
	return true
}

// sleepWithContext mirrors retry.SleepWithContext on an injectable clock.
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
