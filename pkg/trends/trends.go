// Package trends provides the canonical trend schema, the velocity
// detection engine, and the skill that exposes both through the skill
// contract.
package trends

import (
	"fmt"
	"regexp"
	"time"
	"unicode/utf8"
)

// Source identifies a platform a trend was observed on.
type Source string

const (
	SourceTwitter   Source = "twitter"
	SourceMoltbook  Source = "moltbook"
	SourceInstagram Source = "instagram"
)

var trendIDPattern = regexp.MustCompile(`^trend_[0-9]{3}$`)

// Trend is one observed trend record. TrendID is assigned sequentially at
// fetch time and is not stable across fetches.
type Trend struct {
	TrendID    string         `json:"trend_id"`
	Keyword    string         `json:"keyword"`
	Velocity   int            `json:"velocity"`
	Sentiment  float64        `json:"sentiment"`
	Source     Source         `json:"source"`
	DetectedAt time.Time      `json:"detected_at"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// Validate checks the trend against the canonical schema.
func (t Trend) Validate() error {
	if !trendIDPattern.MatchString(t.TrendID) {
		return fmt.Errorf("trend_id %q does not match %s", t.TrendID, trendIDPattern.String())
	}
	if utf8.RuneCountInString(t.Keyword) > 255 {
		return fmt.Errorf("keyword exceeds 255 characters")
	}
	if t.Velocity < 0 {
		return fmt.Errorf("velocity must be >= 0, got %d", t.Velocity)
	}
	if t.Sentiment < -1 || t.Sentiment > 1 {
		return fmt.Errorf("sentiment %v outside [-1, 1]", t.Sentiment)
	}
	switch t.Source {
	case SourceTwitter, SourceMoltbook, SourceInstagram:
	default:
		return fmt.Errorf("unknown source %q", t.Source)
	}
	return nil
}

// DetectHighVelocity returns the trends whose velocity meets the threshold.
// The boundary is inclusive, input order is preserved, and no deduplication
// happens here. Pure and side-effect free; truncation to max_results is the
// calling skill's job and happens strictly after this filter.
func DetectHighVelocity(trends []Trend, threshold int) []Trend {
	out := make([]Trend, 0, len(trends))
	for _, t := range trends {
		if t.Velocity >= threshold {
			out = append(out, t)
		}
	}
	return out
}
