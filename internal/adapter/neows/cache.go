package neows

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/cosmic-watch-service/internal/adapter/cache"
	"github.com/couchcryptid/cosmic-watch-service/internal/domain"
	"github.com/couchcryptid/cosmic-watch-service/internal/observability"
)

// CachedFeed wraps a FeedSource with a response cache. Entries hold the raw
// NeoWs payloads, so a cache hit decodes and scores exactly like a fresh
// response.
type CachedFeed struct {
	inner   domain.FeedSource
	store   cache.Store
	ttl     time.Duration
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewCachedFeed creates a cache decorator around a feed source.
func NewCachedFeed(inner domain.FeedSource, store cache.Store, ttl time.Duration, metrics *observability.Metrics, logger *slog.Logger) *CachedFeed {
	return &CachedFeed{
		inner:   inner,
		store:   store,
		ttl:     ttl,
		metrics: metrics,
		logger:  logger,
	}
}

func (c *CachedFeed) Feed(ctx context.Context, start, end time.Time) ([]domain.FeedObject, error) {
	key := fmt.Sprintf("neows:feed:%s:%s", start.Format(domain.DateLayout), end.Format(domain.DateLayout))
	if raws, ok := c.lookup(ctx, key, "feed"); ok {
		var payloads []json.RawMessage
		if err := json.Unmarshal(raws, &payloads); err == nil {
			return decodeAll(payloads), nil
		}
		c.logger.Warn("discarding corrupt feed cache entry", "key", key)
	}

	objs, err := c.inner.Feed(ctx, start, end)
	if err != nil {
		return nil, err
	}
	// Only cache non-empty results so an empty day can be refetched.
	if len(objs) > 0 {
		payloads := make([]json.RawMessage, 0, len(objs))
		for _, o := range objs {
			if len(o.Raw) > 0 {
				payloads = append(payloads, o.Raw)
			}
		}
		if b, err := json.Marshal(payloads); err == nil {
			c.put(ctx, key, b)
		}
	}
	return objs, nil
}

func (c *CachedFeed) Lookup(ctx context.Context, id string) (domain.FeedObject, error) {
	key := "neows:neo:" + id
	if raw, ok := c.lookup(ctx, key, "lookup"); ok {
		if obj, err := domain.DecodeFeedObject(raw); err == nil {
			return obj, nil
		}
		c.logger.Warn("discarding corrupt lookup cache entry", "key", key)
	}

	obj, err := c.inner.Lookup(ctx, id)
	if err != nil {
		return obj, err
	}
	if len(obj.Raw) > 0 {
		c.put(ctx, key, obj.Raw)
	}
	return obj, nil
}

func (c *CachedFeed) lookup(ctx context.Context, key, endpoint string) ([]byte, bool) {
	b, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warn("feed cache read failed", "key", key, "error", err)
	}
	if err != nil || !ok {
		c.metrics.FeedCache.WithLabelValues(endpoint, "miss").Inc()
		return nil, false
	}
	c.metrics.FeedCache.WithLabelValues(endpoint, "hit").Inc()
	return b, true
}

func (c *CachedFeed) put(ctx context.Context, key string, value []byte) {
	if err := c.store.Set(ctx, key, value, c.ttl); err != nil {
		c.logger.Warn("feed cache write failed", "key", key, "error", err)
	}
}

func decodeAll(payloads []json.RawMessage) []domain.FeedObject {
	objs := make([]domain.FeedObject, 0, len(payloads))
	for _, p := range payloads {
		if obj, err := domain.DecodeFeedObject(p); err == nil {
			objs = append(objs, obj)
		}
	}
	return objs
}
