package nga

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/couchcryptid/cable-health-service/internal/domain"
	"github.com/couchcryptid/cable-health-service/internal/observability"
)

// Client implements domain.WarningFeed against the NGA Maritime Safety
// Information broadcast warning endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an NGA broadcast warning client.
func NewClient(baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		metrics: metrics,
		logger:  logger,
	}
}

// FetchWarnings downloads all active broadcast warnings.
func (c *Client) FetchWarnings(ctx context.Context) ([]domain.Warning, error) {
	start := time.Now()
	warnings, err := c.fetch(ctx)
	c.metrics.FeedDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.FeedRequests.WithLabelValues("nga", "error").Inc()
		return nil, err
	}
	c.metrics.FeedRequests.WithLabelValues("nga", "success").Inc()
	c.logger.Debug("fetched nga warnings", "count", len(warnings), "duration", time.Since(start))
	return warnings, nil
}

func (c *Client) fetch(ctx context.Context) ([]domain.Warning, error) {
	params := url.Values{
		"output": {"json"},
		"status": {"A"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("nga warning request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("nga API error: status %d: %s", resp.StatusCode, body)
	}

	var ngaResp response
	if err := json.NewDecoder(resp.Body).Decode(&ngaResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	warnings := make([]domain.Warning, 0, len(ngaResp.Warnings))
	for _, rec := range ngaResp.Warnings {
		w := rec.Warning()
		if w.Text == "" {
			continue
		}
		warnings = append(warnings, w)
	}
	return warnings, nil
}

// NGA API response types.

type response struct {
	Warnings []domain.RawWarningRecord `json:"broadcast-warn"`
}
