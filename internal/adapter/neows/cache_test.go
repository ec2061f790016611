package neows

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/couchcryptid/cosmic-watch-service/internal/adapter/cache"
	"github.com/couchcryptid/cosmic-watch-service/internal/domain"
	"github.com/couchcryptid/cosmic-watch-service/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mock for cache tests ---

type countingSource struct {
	feedCalls   int
	lookupCalls int
	objs        []domain.FeedObject
	err         error
}

func (m *countingSource) Feed(_ context.Context, _, _ time.Time) ([]domain.FeedObject, error) {
	m.feedCalls++
	return m.objs, m.err
}

func (m *countingSource) Lookup(_ context.Context, id string) (domain.FeedObject, error) {
	m.lookupCalls++
	if m.err != nil {
		return domain.FeedObject{}, m.err
	}
	for _, o := range m.objs {
		if o.ID == id {
			return o, nil
		}
	}
	return domain.FeedObject{}, domain.ErrNotFound
}

type failingStore struct{}

func (failingStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("connection refused")
}

func (failingStore) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("connection refused")
}

func mustDecode(t *testing.T, body string) domain.FeedObject {
	t.Helper()
	obj, err := domain.DecodeFeedObject([]byte(body))
	require.NoError(t, err)
	return obj
}

func newCached(inner domain.FeedSource, store cache.Store) *CachedFeed {
	return NewCachedFeed(inner, store, time.Minute, observability.NewMetricsForTesting(), discardLogger())
}

// --- CachedFeed tests ---

func TestCachedFeed_FeedCacheHit(t *testing.T) {
	inner := &countingSource{objs: []domain.FeedObject{mustDecode(t, testLookupBody)}}
	cached := newCached(inner, cache.NewMemory(time.Minute, time.Minute))

	r1, err := cached.Feed(context.Background(), day1, day2)
	require.NoError(t, err)
	r2, err := cached.Feed(context.Background(), day1, day2)
	require.NoError(t, err)

	assert.Equal(t, 1, inner.feedCalls, "should only call inner once")
	require.Len(t, r2, 1)
	assert.Equal(t, r1[0].ID, r2[0].ID)
	assert.Equal(t, domain.NewNearEarthObject(r1[0]), domain.NewNearEarthObject(r2[0]))
	assert.Equal(t, 1.0, counterValue(t, cached.metrics.FeedCache.WithLabelValues("feed", "hit")))
	assert.Equal(t, 1.0, counterValue(t, cached.metrics.FeedCache.WithLabelValues("feed", "miss")))
}

func TestCachedFeed_DistinctRanges(t *testing.T) {
	inner := &countingSource{objs: []domain.FeedObject{mustDecode(t, testLookupBody)}}
	cached := newCached(inner, cache.NewMemory(time.Minute, time.Minute))

	_, err := cached.Feed(context.Background(), day1, day1)
	require.NoError(t, err)
	_, err = cached.Feed(context.Background(), day1, day2)
	require.NoError(t, err)

	assert.Equal(t, 2, inner.feedCalls)
}

func TestCachedFeed_EmptyNotCached(t *testing.T) {
	inner := &countingSource{}
	cached := newCached(inner, cache.NewMemory(time.Minute, time.Minute))

	_, _ = cached.Feed(context.Background(), day1, day2)
	_, _ = cached.Feed(context.Background(), day1, day2)

	assert.Equal(t, 2, inner.feedCalls, "empty results should not be cached")
}

func TestCachedFeed_ErrorNotCached(t *testing.T) {
	inner := &countingSource{err: errors.New("upstream down")}
	cached := newCached(inner, cache.NewMemory(time.Minute, time.Minute))

	_, err := cached.Feed(context.Background(), day1, day2)
	require.Error(t, err)
	_, err = cached.Lookup(context.Background(), "1")
	require.Error(t, err)

	inner.err = nil
	inner.objs = []domain.FeedObject{mustDecode(t, testLookupBody)}
	_, err = cached.Feed(context.Background(), day1, day2)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.feedCalls)
}

func TestCachedFeed_LookupCacheHit(t *testing.T) {
	inner := &countingSource{objs: []domain.FeedObject{mustDecode(t, testLookupBody)}}
	cached := newCached(inner, cache.NewMemory(time.Minute, time.Minute))

	o1, err := cached.Lookup(context.Background(), "2000433")
	require.NoError(t, err)
	o2, err := cached.Lookup(context.Background(), "2000433")
	require.NoError(t, err)

	assert.Equal(t, 1, inner.lookupCalls)
	assert.Equal(t, o1.Name, o2.Name)

	_, err = cached.Lookup(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCachedFeed_StoreFailureFallsThrough(t *testing.T) {
	inner := &countingSource{objs: []domain.FeedObject{mustDecode(t, testLookupBody)}}
	cached := newCached(inner, failingStore{})

	objs, err := cached.Feed(context.Background(), day1, day2)
	require.NoError(t, err)
	assert.Len(t, objs, 1)
}
