package neows

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/couchcryptid/cosmic-watch-service/internal/domain"
	"github.com/couchcryptid/cosmic-watch-service/internal/observability"
)

// Client implements domain.FeedSource using the NASA NeoWs REST API.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a NeoWs client. baseURL has no trailing slash, e.g.
// https://api.nasa.gov/neo/rest/v1.
func NewClient(baseURL, apiKey string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		metrics: metrics,
		logger:  logger,
	}
}

// Feed returns all objects approaching between start and end, ordered by
// approach date. Objects that are not JSON objects are skipped and logged.
func (c *Client) Feed(ctx context.Context, start, end time.Time) ([]domain.FeedObject, error) {
	if err := domain.ValidateRange(start, end); err != nil {
		return nil, err
	}

	params := url.Values{
		"start_date": {start.Format(domain.DateLayout)},
		"end_date":   {end.Format(domain.DateLayout)},
		"api_key":    {c.apiKey},
	}

	var resp feedResponse
	if err := c.doRequest(ctx, c.baseURL+"/feed?"+params.Encode(), "feed", &resp); err != nil {
		return nil, err
	}

	// element_count is advisory; capacity comes from what was decoded.
	dates := make([]string, 0, len(resp.NearEarthObjects))
	total := 0
	for d, day := range resp.NearEarthObjects {
		dates = append(dates, d)
		total += len(day)
	}
	sort.Strings(dates)

	objs := make([]domain.FeedObject, 0, total)
	for _, d := range dates {
		for _, raw := range resp.NearEarthObjects[d] {
			obj, err := domain.DecodeFeedObject(raw)
			if err != nil {
				c.logger.Warn("skipping undecodable feed object", "date", d, "error", err)
				continue
			}
			objs = append(objs, obj)
		}
	}
	return objs, nil
}

// Lookup returns one object by NeoWs id. Unknown ids yield domain.ErrNotFound.
func (c *Client) Lookup(ctx context.Context, id string) (domain.FeedObject, error) {
	params := url.Values{"api_key": {c.apiKey}}
	u := fmt.Sprintf("%s/neo/%s?%s", c.baseURL, url.PathEscape(id), params.Encode())

	var raw json.RawMessage
	if err := c.doRequest(ctx, u, "lookup", &raw); err != nil {
		return domain.FeedObject{}, err
	}
	return domain.DecodeFeedObject(raw)
}

func (c *Client) doRequest(ctx context.Context, fullURL, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.FeedAPIDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.FeedRequests.WithLabelValues(endpoint, "error").Inc()
		return fmt.Errorf("neows %s request: %w", endpoint, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		c.metrics.FeedRequests.WithLabelValues(endpoint, "not_found").Inc()
		return domain.ErrNotFound
	case resp.StatusCode == http.StatusBadRequest && endpoint == "feed":
		c.metrics.FeedRequests.WithLabelValues(endpoint, "error").Inc()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: neows rejected range: %s", domain.ErrInvalidRange, body)
	case resp.StatusCode != http.StatusOK:
		c.metrics.FeedRequests.WithLabelValues(endpoint, "error").Inc()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("neows API error: status %d: %s", resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.metrics.FeedRequests.WithLabelValues(endpoint, "error").Inc()
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	c.metrics.FeedRequests.WithLabelValues(endpoint, "success").Inc()
	return nil
}

// NeoWs API response types.

type feedResponse struct {
	ElementCount     int                          `json:"element_count"`
	NearEarthObjects map[string][]json.RawMessage `json:"near_earth_objects"`
}
