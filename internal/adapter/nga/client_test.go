package nga

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/cable-health-service/internal/domain"
	"github.com/couchcryptid/cable-health-service/internal/observability"
)

const (
	contentTypeJSON   = "application/json"
	headerContentType = "Content-Type"
)

const sampleFeed = `{
  "broadcast-warn": [
    {
      "msgYear": 2026,
      "msgNumber": 123,
      "navArea": "4",
      "subregion": "11",
      "text": "WESTERN NORTH ATLANTIC.\nSUBMARINE CABLE FAULT ON MAREA.\n36-50N 075-58W.\n",
      "status": "A",
      "issueDate": "151200Z FEB 2026",
      "authority": "NAVAREA IV 123/26"
    },
    {
      "msgYear": 2026,
      "msgNumber": 124,
      "navArea": "4",
      "text": "   ",
      "status": "A",
      "issueDate": "151300Z FEB 2026"
    },
    {
      "msgYear": "2026",
      "msgNumber": "77",
      "navArea": "XI",
      "text": "CABLESHIP RESOLUTE ON STATION.",
      "status": "A",
      "issueDate": "160800Z FEB 2026"
    }
  ]
}`

func testClient(baseURL string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    baseURL,
		metrics:    observability.NewMetricsForTesting(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestClient_FetchWarnings_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "json", r.URL.Query().Get("output"))
		assert.Equal(t, "A", r.URL.Query().Get("status"))
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(sampleFeed))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	warnings, err := c.FetchWarnings(context.Background())
	require.NoError(t, err)

	require.Len(t, warnings, 2, "blank warning should be skipped")
	assert.Equal(t, domain.Warning{
		Text:      "WESTERN NORTH ATLANTIC.\nSUBMARINE CABLE FAULT ON MAREA.\n36-50N 075-58W.",
		IssueDate: "151200Z FEB 2026",
		NavArea:   "4",
		MsgYear:   "2026",
		MsgNumber: "123",
	}, warnings[0])
	assert.Equal(t, "XI-2026-77", warnings[1].ID())
	assert.InDelta(t, 1, testutil.ToFloat64(c.metrics.FeedRequests.WithLabelValues("nga", "success")), 0)
}

func TestClient_FetchWarnings_EmptyFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(`{"broadcast-warn": []}`))
	}))
	defer srv.Close()

	warnings, err := testClient(srv.URL).FetchWarnings(context.Background())
	require.NoError(t, err)
	assert.Empty(t, warnings)
}

func TestClient_FetchWarnings_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`maintenance`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.FetchWarnings(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
	assert.InDelta(t, 1, testutil.ToFloat64(c.metrics.FeedRequests.WithLabelValues("nga", "error")), 0)
}

func TestClient_FetchWarnings_InvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html>not json</html>`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).FetchWarnings(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")
}

func TestClient_FetchWarnings_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	c.httpClient.Timeout = 50 * time.Millisecond

	_, err := c.FetchWarnings(context.Background())
	require.Error(t, err)
}

func TestClient_FetchWarnings_CanceledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testClient(srv.URL).FetchWarnings(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
