// Package pipeline scores batches of near-Earth objects and runs the
// periodic fetch-score-publish hazard alert loop.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/cosmic-watch-service/internal/domain"
	"github.com/couchcryptid/cosmic-watch-service/internal/observability"
	"github.com/couchcryptid/storm-data-shared/retry"
	"github.com/jonboulle/clockwork"
)

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second

	// DedupeTTL bounds how long an alerted approach is remembered.
	DedupeTTL = 48 * time.Hour
)

// AlertPublisher delivers hazard alerts downstream.
type AlertPublisher interface {
	PublishAlerts(ctx context.Context, alerts []domain.HazardAlert) error
}

// SeenStore remembers which approaches have already been alerted.
type SeenStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Options tunes the alert loop.
type Options struct {
	// Interval between successful scans.
	Interval time.Duration
	// WindowDays is how many days past today each scan covers.
	WindowDays int
	// Clock drives the scan ticker; defaults to the real clock.
	Clock clockwork.Clock
}

// Pipeline orchestrates the fetch-score-publish alert loop.
type Pipeline struct {
	feed      domain.FeedSource
	scorer    *Scorer
	publisher AlertPublisher
	seen      SeenStore
	logger    *slog.Logger
	metrics   *observability.Metrics
	clock     clockwork.Clock
	interval  time.Duration
	window    int
	ready     atomic.Bool
}

// New creates an alert Pipeline.
func New(feed domain.FeedSource, scorer *Scorer, publisher AlertPublisher, seen SeenStore, logger *slog.Logger, metrics *observability.Metrics, opts Options) *Pipeline {
	clk := opts.Clock
	if clk == nil {
		clk = clockwork.NewRealClock()
	}
	return &Pipeline{
		feed:      feed,
		scorer:    scorer,
		publisher: publisher,
		seen:      seen,
		logger:    logger,
		metrics:   metrics,
		clock:     clk,
		interval:  opts.Interval,
		window:    opts.WindowDays,
	}
}

// CheckReadiness returns nil once the first scan has completed.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("alert scanner has not completed a scan yet")
	}
	return nil
}

// Run scans immediately and then every interval until the context is
// cancelled. A failed scan is retried with exponential backoff.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("alert scanner started", "interval", p.interval, "window_days", p.window)
	p.metrics.ScannerRunning.Set(1)
	defer p.metrics.ScannerRunning.Set(0)

	ticker := p.clock.NewTicker(p.interval)
	defer ticker.Stop()

	backoff := initialBackoff
	for {
		if _, err := p.Scan(ctx); err != nil {
			if ctx.Err() != nil {
				p.logger.Info("alert scanner stopping", "reason", ctx.Err())
				return nil
			}
			p.metrics.AlertScanErrors.Inc()
			p.logger.Error("alert scan failed", "error", err, "retry_in", backoff)
			if !retry.SleepWithContext(ctx, backoff) {
				p.logger.Info("alert scanner stopping", "reason", ctx.Err())
				return nil
			}
			backoff = retry.NextBackoff(backoff, maxBackoff)
			continue
		}
		backoff = initialBackoff

		select {
		case <-ctx.Done():
			p.logger.Info("alert scanner stopping", "reason", ctx.Err())
			return nil
		case <-ticker.Chan():
		}
	}
}

// Scan fetches the alert window, scores it, and publishes alerts for
// high-risk approaches not alerted before. It returns the number published.
// Approaches are remembered only after a successful publish.
func (p *Pipeline) Scan(ctx context.Context) (int, error) {
	start := p.clock.Now()
	from := start.UTC().Truncate(24 * time.Hour)
	to := from.AddDate(0, 0, p.window)

	objs, err := p.feed.Feed(ctx, from, to)
	if err != nil {
		return 0, fmt.Errorf("fetch feed %s..%s: %w", from.Format(domain.DateLayout), to.Format(domain.DateLayout), err)
	}

	alerts := p.pending(ctx, p.scorer.ScoreFeed(objs))
	if len(alerts) > 0 {
		if err := p.publisher.PublishAlerts(ctx, alerts); err != nil {
			return 0, fmt.Errorf("publish %d alerts: %w", len(alerts), err)
		}
		for _, a := range alerts {
			if err := p.seen.Set(ctx, seenKey(a), []byte(a.DetectedAt.Format(time.RFC3339)), DedupeTTL); err != nil {
				p.logger.Warn("remember alert failed", "error", err, "asteroid_id", a.AsteroidID)
			}
		}
		p.metrics.AlertsPublished.Add(float64(len(alerts)))
	}

	p.metrics.AlertScanDuration.Observe(p.clock.Since(start).Seconds())
	p.ready.Store(true)
	p.logger.Info("alert scan complete",
		"from", from.Format(domain.DateLayout),
		"to", to.Format(domain.DateLayout),
		"objects", len(objs),
		"published", len(alerts),
	)
	return len(alerts), nil
}

// pending selects high-risk objects whose approach has not been alerted.
func (p *Pipeline) pending(ctx context.Context, scored []domain.NearEarthObject) []domain.HazardAlert {
	var alerts []domain.HazardAlert
	batch := make(map[string]struct{})
	for _, neo := range scored {
		if !neo.HighRisk {
			continue
		}
		a := domain.NewHazardAlert(neo)
		key := seenKey(a)
		if _, dup := batch[key]; dup {
			continue
		}
		batch[key] = struct{}{}

		_, seen, err := p.seen.Get(ctx, key)
		if err != nil {
			p.logger.Warn("alert dedupe lookup failed", "error", err, "asteroid_id", a.AsteroidID)
		}
		if seen {
			continue
		}
		alerts = append(alerts, a)
	}
	return alerts
}

func seenKey(a domain.HazardAlert) string {
	return "alert:" + a.DedupeKey()
}
