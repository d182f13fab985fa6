package trends

import (
	"context"
	"fmt"
	"time"
)

// Selector narrows a fetch to one source and time window. Source "all" asks
// the fetcher for every platform it covers.
type Selector struct {
	Source     string
	TimeWindow string
}

// RawTrend is a record as a fetch source reports it, before shaping into the
// canonical Trend schema. Velocity defaults to zero when the source omits it.
type RawTrend struct {
	Keyword   string         `json:"keyword"`
	Velocity  int            `json:"velocity"`
	Sentiment *float64       `json:"sentiment,omitempty"`
	Source    string         `json:"source,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Fetcher retrieves raw trend records from a data source. The fetch-trends
// skill shapes the records, assigns trend ids, and applies the velocity
// filter; a Fetcher does none of that.
type Fetcher interface {
	FetchTrends(ctx context.Context, sel Selector) ([]RawTrend, error)
}

// Shape converts raw records into canonical Trends: trend ids are assigned
// sequentially (1-based, zero-padded to 3 digits), the source defaults to
// moltbook, and detection timestamps are stamped at shaping time.
func Shape(raw []RawTrend, now time.Time) []Trend {
	out := make([]Trend, 0, len(raw))
	for i, r := range raw {
		source := Source(r.Source)
		if r.Source == "" {
			source = SourceMoltbook
		}
		sentiment := 0.0
		if r.Sentiment != nil {
			sentiment = *r.Sentiment
		}
		out = append(out, Trend{
			TrendID:    fmt.Sprintf("trend_%03d", i+1),
			Keyword:    r.Keyword,
			Velocity:   r.Velocity,
			Sentiment:  sentiment,
			Source:     source,
			DetectedAt: now.UTC(),
			Metadata:   r.Metadata,
		})
	}
	return out
}

// InMemoryFetcher returns a fixed list of raw trends. Useful for tests and
// local development.
type InMemoryFetcher struct {
	trends []RawTrend
}

// NewInMemoryFetcher creates a fetcher over a fixed record set.
func NewInMemoryFetcher(trends []RawTrend) *InMemoryFetcher {
	return &InMemoryFetcher{trends: append([]RawTrend(nil), trends...)}
}

// FetchTrends returns the configured records regardless of selector.
func (f *InMemoryFetcher) FetchTrends(_ context.Context, _ Selector) ([]RawTrend, error) {
	return append([]RawTrend(nil), f.trends...), nil
}
