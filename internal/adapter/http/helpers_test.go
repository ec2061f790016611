package httpadapter_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/couchcryptid/cosmic-watch-service/internal/adapter/chat"
	httpadapter "github.com/couchcryptid/cosmic-watch-service/internal/adapter/http"
	"github.com/couchcryptid/cosmic-watch-service/internal/adapter/store"
	"github.com/couchcryptid/cosmic-watch-service/internal/auth"
	"github.com/couchcryptid/cosmic-watch-service/internal/domain"
	"github.com/couchcryptid/cosmic-watch-service/internal/observability"
	"github.com/couchcryptid/cosmic-watch-service/internal/pipeline"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

const testSecret = "http-test-secret"

var testNow = time.Date(2024, time.January, 1, 10, 0, 0, 0, time.UTC)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

// fakeFeed serves a fixed object list and looks objects up by id.
type fakeFeed struct {
	mu     sync.Mutex
	objs   []domain.FeedObject
	err    error
	ranges [][2]time.Time
}

func (f *fakeFeed) Feed(_ context.Context, start, end time.Time) ([]domain.FeedObject, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ranges = append(f.ranges, [2]time.Time{start, end})
	if f.err != nil {
		return nil, f.err
	}
	return f.objs, nil
}

func (f *fakeFeed) Lookup(_ context.Context, id string) (domain.FeedObject, error) {
	if f.err != nil {
		return domain.FeedObject{}, f.err
	}
	for _, o := range f.objs {
		if o.ID == id {
			return o, nil
		}
	}
	return domain.FeedObject{}, fmt.Errorf("lookup %s: %w", id, domain.ErrNotFound)
}

type testEnv struct {
	srv     *httpadapter.Server
	feed    *fakeFeed
	store   *store.SQLite
	metrics *observability.Metrics
	ready   *mockReadiness
}

type envOption func(*httpadapter.Config)

func withRateLimit(rps float64, burst int) envOption {
	return func(c *httpadapter.Config) {
		c.RateLimitRPS = rps
		c.RateLimitBurst = burst
	}
}

func withOrigins(origins ...string) envOption {
	return func(c *httpadapter.Config) { c.CORSAllowedOrigins = origins }
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()
	domain.SetClock(clockwork.NewFakeClockAt(testNow))
	t.Cleanup(func() { domain.SetClock(nil) })

	st, err := store.OpenSQLite(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	verifier, err := auth.NewVerifier(auth.Config{Secret: testSecret})
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := observability.NewMetricsForTesting()
	env := &testEnv{
		feed:    &fakeFeed{objs: testObjects(t)},
		store:   st,
		metrics: m,
		ready:   &mockReadiness{},
	}

	cfg := httpadapter.Config{Addr: ":0", CORSAllowedOrigins: []string{"*"}}
	for _, o := range opts {
		o(&cfg)
	}
	env.srv = httpadapter.NewServer(cfg, httpadapter.Deps{
		Feed:      env.feed,
		Scorer:    pipeline.NewScorer(logger, m),
		Watchlist: st,
		Users:     st,
		Verifier:  verifier,
		Chat:      chat.NewHub(100, 8, logger, m),
		Metrics:   m,
	}, env.ready, logger)
	return env
}

func (e *testEnv) do(t *testing.T, method, target, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.srv.ServeHTTP(rec, req)
	return rec
}

func token(t *testing.T, uid, email, name string) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uid,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Email: email,
		Name:  name,
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return tok
}

func feedObject(t *testing.T, id, name, meters, au, kps string, hazardous bool) domain.FeedObject {
	t.Helper()
	raw := fmt.Sprintf(`{
		"id": %q,
		"name": %q,
		"estimated_diameter": {"meters": {"estimated_diameter_min": 1, "estimated_diameter_max": %s}},
		"is_potentially_hazardous_asteroid": %t,
		"close_approach_data": [{
			"close_approach_date": "2024-01-01",
			"relative_velocity": {"kilometers_per_second": %q},
			"miss_distance": {"astronomical": %q}
		}]
	}`, id, name, meters, hazardous, kps, au)
	obj, err := domain.DecodeFeedObject([]byte(raw))
	require.NoError(t, err)
	return obj
}

// testObjects score 50, 97, and 3.
func testObjects(t *testing.T) []domain.FeedObject {
	return []domain.FeedObject{
		feedObject(t, "2000433", "433 Eros (A898 PA)", "500", "0.025", "20", false),
		feedObject(t, "3542519", "(2010 PK9)", "1000", "0.001", "35", true),
		feedObject(t, "54016834", "(2020 BZ14)", "10", "0.3", "5", false),
	}
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

var errUpstream = errors.New("neows API error: status 503")
