package trends

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/milkesa2013/Agentic-Infrastructure/pkg/resilience"
)

// APIFetcher retrieves trends from an external HTTP trend service.
// Transient failures are retried with exponential backoff.
type APIFetcher struct {
	endpoint string
	apiKey   string
	client   *http.Client
	retry    resilience.RetryConfig
}

// APIFetcherOption configures an APIFetcher.
type APIFetcherOption func(*APIFetcher)

// WithHTTPClient overrides the HTTP client (tests).
func WithHTTPClient(client *http.Client) APIFetcherOption {
	return func(f *APIFetcher) {
		if client != nil {
			f.client = client
		}
	}
}

// WithAPIKey sets the bearer token sent with each request.
func WithAPIKey(key string) APIFetcherOption {
	return func(f *APIFetcher) {
		f.apiKey = key
	}
}

// WithRetry overrides the retry policy.
func WithRetry(retry resilience.RetryConfig) APIFetcherOption {
	return func(f *APIFetcher) {
		f.retry = retry
	}
}

// NewAPIFetcher creates a fetcher against the given endpoint.
func NewAPIFetcher(endpoint string, opts ...APIFetcherOption) *APIFetcher {
	f := &APIFetcher{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 30 * time.Second},
		retry:    resilience.DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

type apiTrendsResponse struct {
	Trends []RawTrend `json:"trends"`
}

// FetchTrends queries the trend service for the selector's source and window.
func (f *APIFetcher) FetchTrends(ctx context.Context, sel Selector) ([]RawTrend, error) {
	query := url.Values{}
	if sel.Source != "" {
		query.Set("source", sel.Source)
	}
	if sel.TimeWindow != "" {
		query.Set("time_window", sel.TimeWindow)
	}

	var out []RawTrend
	err := f.retry.Do(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.endpoint+"?"+query.Encode(), nil)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		if f.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+f.apiKey)
		}

		resp, err := f.client.Do(req)
		if err != nil {
			return fmt.Errorf("trend api call failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("trend api returned status: %d", resp.StatusCode)
		}

		var decoded apiTrendsResponse
		if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
			return fmt.Errorf("failed to decode trend response: %w", err)
		}
		out = decoded.Trends
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
