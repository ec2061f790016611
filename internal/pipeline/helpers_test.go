package pipeline_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/couchcryptid/cosmic-watch-service/internal/domain"
	"github.com/couchcryptid/cosmic-watch-service/internal/observability"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestMetrics() *observability.Metrics {
	return observability.NewMetricsForTesting()
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, g.Write(&m))
	return m.GetGauge().GetValue()
}

// feedObject builds a NeoWs object; meters, au, and kps are raw JSON values.
func feedObject(t *testing.T, id, date, meters, au, kps string, hazardous bool) domain.FeedObject {
	t.Helper()
	raw := fmt.Sprintf(`{
		"id": %q,
		"name": "(%s)",
		"estimated_diameter": {"meters": {"estimated_diameter_min": 1, "estimated_diameter_max": %s}},
		"is_potentially_hazardous_asteroid": %t,
		"close_approach_data": [{
			"close_approach_date": %q,
			"relative_velocity": {"kilometers_per_second": %s},
			"miss_distance": {"astronomical": %s}
		}]
	}`, id, "NEO "+id, meters, hazardous, date, kps, au)
	obj, err := domain.DecodeFeedObject([]byte(raw))
	require.NoError(t, err)
	return obj
}

// fakeFeed returns its objects and records every requested range.
type fakeFeed struct {
	mu     sync.Mutex
	objs   []domain.FeedObject
	errs   []error
	ranges [][2]time.Time
}

func (f *fakeFeed) Feed(_ context.Context, start, end time.Time) ([]domain.FeedObject, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ranges = append(f.ranges, [2]time.Time{start, end})
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return f.objs, nil
}

func (f *fakeFeed) Lookup(context.Context, string) (domain.FeedObject, error) {
	return domain.FeedObject{}, domain.ErrNotFound
}

func (f *fakeFeed) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.ranges)
}

// recordingPublisher captures published alerts and can fail on demand.
type recordingPublisher struct {
	mu        sync.Mutex
	err       error
	published []domain.HazardAlert
	notify    chan struct{}
}

func newRecordingPublisher() *recordingPublisher {
	return &recordingPublisher{notify: make(chan struct{}, 16)}
}

func (p *recordingPublisher) PublishAlerts(_ context.Context, alerts []domain.HazardAlert) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, alerts...)
	p.notify <- struct{}{}
	return nil
}

func (p *recordingPublisher) alerts() []domain.HazardAlert {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.HazardAlert(nil), p.published...)
}
