package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	agerr "github.com/milkesa2013/Agentic-Infrastructure/pkg/errors"
	"github.com/milkesa2013/Agentic-Infrastructure/pkg/resilience"
)

// MoltbookAdapter publishes to a moltbook-compatible HTTP API.
type MoltbookAdapter struct {
	baseURL string
	apiKey  string
	client  *http.Client
	retry   resilience.RetryConfig
}

// MoltbookOption configures a MoltbookAdapter.
type MoltbookOption func(*MoltbookAdapter)

// WithClient overrides the HTTP client (tests).
func WithClient(client *http.Client) MoltbookOption {
	return func(a *MoltbookAdapter) {
		if client != nil {
			a.client = client
		}
	}
}

// WithRetry overrides the retry policy.
func WithRetry(retry resilience.RetryConfig) MoltbookOption {
	return func(a *MoltbookAdapter) { a.retry = retry }
}

func NewMoltbookAdapter(baseURL, apiKey string, opts ...MoltbookOption) *MoltbookAdapter {
	a := &MoltbookAdapter{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 30 * time.Second},
		retry:   resilience.DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *MoltbookAdapter) Name() string { return "moltbook" }

// Authenticate verifies the credential against the identity endpoint.
func (a *MoltbookAdapter) Authenticate(ctx context.Context) error {
	return a.retry.Do(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/api/v1/me", nil)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+a.apiKey)
		resp, err := a.client.Do(req)
		if err != nil {
			return fmt.Errorf("moltbook auth call failed: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return agerr.New(agerr.CodeInvalidInput, "moltbook credential rejected", nil).
				WithContext("status", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("moltbook auth returned status: %d", resp.StatusCode)
		}
		return nil
	})
}

type moltbookPostResponse struct {
	ID       string    `json:"id"`
	URL      string    `json:"url"`
	PostedAt time.Time `json:"posted_at"`
}

// Publish submits a post. A non-2xx response fails the publish after retries.
func (a *MoltbookAdapter) Publish(ctx context.Context, post Post) (Receipt, error) {
	body, err := json.Marshal(post)
	if err != nil {
		return Receipt{}, err
	}
	var receipt Receipt
	err = a.retry.Do(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/api/v1/posts", bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+a.apiKey)
		req.Header.Set("Content-Type", "application/json")
		resp, err := a.client.Do(req)
		if err != nil {
			return fmt.Errorf("moltbook publish call failed: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
			return fmt.Errorf("moltbook publish returned status: %d", resp.StatusCode)
		}
		var decoded moltbookPostResponse
		if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
			return fmt.Errorf("failed to decode publish response: %w", err)
		}
		receipt = Receipt{PostID: decoded.ID, URL: decoded.URL, PostedAt: decoded.PostedAt}
		return nil
	})
	if err != nil {
		return Receipt{}, err
	}
	return receipt, nil
}

// Analytics fetches the engagement snapshot for a post.
func (a *MoltbookAdapter) Analytics(ctx context.Context, postID string) (Metrics, error) {
	var metrics Metrics
	err := a.retry.Do(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/api/v1/posts/"+postID+"/metrics", nil)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+a.apiKey)
		resp, err := a.client.Do(req)
		if err != nil {
			return fmt.Errorf("moltbook analytics call failed: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode == http.StatusNotFound {
			return agerr.New(agerr.CodeNotFound, "post not found", nil).
				WithContext("post_id", postID)
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("moltbook analytics returned status: %d", resp.StatusCode)
		}
		return json.NewDecoder(resp.Body).Decode(&metrics)
	})
	if err != nil {
		return Metrics{}, err
	}
	return metrics, nil
}
