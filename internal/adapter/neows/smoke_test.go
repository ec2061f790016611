//go:build neows

package neows

import (
	"context"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/couchcryptid/cosmic-watch-service/internal/domain"
	"github.com/couchcryptid/cosmic-watch-service/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests hit the real NeoWs API. NASA_API_KEY is optional; DEMO_KEY is
// heavily rate limited.
// Run with: go test -tags=neows ./internal/adapter/neows/ -v -count=1

func smokeClient(t *testing.T) *Client {
	t.Helper()
	key := os.Getenv("NASA_API_KEY")
	if key == "" {
		key = "DEMO_KEY"
	}
	return &Client{
		apiKey:     key,
		httpClient: &http.Client{Timeout: 20 * time.Second},
		baseURL:    "https://api.nasa.gov/neo/rest/v1",
		metrics:    observability.NewMetricsForTesting(),
		logger:     discardLogger(),
	}
}

func TestSmoke_Feed(t *testing.T) {
	c := smokeClient(t)
	today := time.Now().UTC()

	objs, err := c.Feed(context.Background(), today, today)
	require.NoError(t, err)
	require.NotEmpty(t, objs)

	for _, o := range objs {
		neo := domain.NewNearEarthObject(o)
		assert.GreaterOrEqual(t, neo.RiskScore, 0)
		assert.LessOrEqual(t, neo.RiskScore, 100)
		assert.Empty(t, neo.Anomalies, "live objects should be well formed: %s", o.ID)
	}
}

func TestSmoke_Lookup(t *testing.T) {
	c := smokeClient(t)

	// 433 Eros.
	obj, err := c.Lookup(context.Background(), "2000433")
	require.NoError(t, err)
	assert.Contains(t, obj.Name, "Eros")
}
