package platform

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// StaticAdapter is an in-process adapter for tests and dry runs. It records
// every published post and serves canned analytics.
type StaticAdapter struct {
	name string

	mu        sync.Mutex
	posts     []Post
	metrics   map[string]Metrics
	authErr   error
	pubErr    error
	authCalls int
}

// StaticOption configures a StaticAdapter.
type StaticOption func(*StaticAdapter)

// WithAuthError makes Authenticate fail.
func WithAuthError(err error) StaticOption {
	return func(a *StaticAdapter) { a.authErr = err }
}

// WithPublishError makes Publish fail.
func WithPublishError(err error) StaticOption {
	return func(a *StaticAdapter) { a.pubErr = err }
}

func NewStaticAdapter(name string, opts ...StaticOption) *StaticAdapter {
	a := &StaticAdapter{
		name:    name,
		metrics: make(map[string]Metrics),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *StaticAdapter) Name() string { return a.name }

func (a *StaticAdapter) Authenticate(_ context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.authCalls++
	return a.authErr
}

// AuthCalls reports how many times Authenticate has been invoked.
func (a *StaticAdapter) AuthCalls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.authCalls
}

func (a *StaticAdapter) Publish(_ context.Context, post Post) (Receipt, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.pubErr != nil {
		return Receipt{}, a.pubErr
	}
	a.posts = append(a.posts, post)
	id := fmt.Sprintf("post-%04d", len(a.posts))
	a.metrics[id] = Metrics{}
	return Receipt{
		PostID:   id,
		URL:      fmt.Sprintf("https://%s.example/%s", a.name, id),
		PostedAt: time.Now().UTC(),
	}, nil
}

func (a *StaticAdapter) Analytics(_ context.Context, postID string) (Metrics, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	m, ok := a.metrics[postID]
	if !ok {
		return Metrics{}, fmt.Errorf("post %q not found", postID)
	}
	return m, nil
}

// SetMetrics seeds the analytics snapshot for a post.
func (a *StaticAdapter) SetMetrics(postID string, m Metrics) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.metrics[postID] = m
}

// Posts returns a snapshot of everything published so far.
func (a *StaticAdapter) Posts() []Post {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Post(nil), a.posts...)
}
