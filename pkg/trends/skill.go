package trends

import (
	"context"
	"encoding/json"
	"time"

	"github.com/milkesa2013/Agentic-Infrastructure/pkg/skills"
)

// FetchSkill exposes trend fetching through the skill contract.
type FetchSkill struct {
	fetcher          Fetcher
	defaultThreshold int
}

// FetchSkillOption configures a FetchSkill.
type FetchSkillOption func(*FetchSkill)

// WithDefaultThreshold overrides the fallback velocity threshold.
func WithDefaultThreshold(threshold int) FetchSkillOption {
	return func(s *FetchSkill) {
		s.defaultThreshold = threshold
	}
}

// NewFetchSkill creates the skill over the given fetcher.
func NewFetchSkill(fetcher Fetcher, opts ...FetchSkillOption) *FetchSkill {
	if fetcher == nil {
		fetcher = NewInMemoryFetcher(nil)
	}
	s := &FetchSkill{fetcher: fetcher, defaultThreshold: 100}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Descriptor implements skills.Skill.
func (s *FetchSkill) Descriptor() skills.Descriptor {
	return skills.Descriptor{SkillID: "skill_fetch_trends", Version: "0.1.0"}
}

// Schema implements skills.Skill.
func (s *FetchSkill) Schema() skills.Schema {
	return skills.Schema{
		"source": {
			Type:     skills.TypeString,
			Required: true,
			Enum:     []any{"moltbook", "twitter", "instagram", "all"},
		},
		"time_window": {
			Type:    skills.TypeString,
			Default: "1h",
			Enum:    []any{"1h", "6h", "24h", "7d"},
		},
		"velocity_threshold": {Type: skills.TypeInteger, Default: s.defaultThreshold},
		"max_results":        {Type: skills.TypeInteger, Default: 50},
		"include_sentiment":  {Type: skills.TypeBoolean, Default: true},
	}
}

// Execute fetches raw trends, shapes them into the canonical schema, filters
// by velocity, and only then truncates to max_results. Truncating before
// filtering would bias results toward the source's natural ordering.
func (s *FetchSkill) Execute(ctx context.Context, in skills.Input) skills.Output {
	startedAt := time.Now()
	params := in.Parameters

	sel := Selector{
		Source:     stringParam(params, "source", "moltbook"),
		TimeWindow: stringParam(params, "time_window", "1h"),
	}
	threshold := intParam(params, "velocity_threshold", s.defaultThreshold)
	maxResults := intParam(params, "max_results", 50)
	includeSentiment := boolParam(params, "include_sentiment", true)

	raw, err := s.fetcher.FetchTrends(ctx, sel)
	if err != nil {
		out := skills.ErrorOutput(skills.ErrorKindExecution, err.Error(), startedAt)
		out.Metadata["total_scanned"] = 0
		return out
	}

	shaped := Shape(raw, time.Now())
	if !includeSentiment {
		for i := range shaped {
			shaped[i].Sentiment = 0
		}
	}

	filtered := DetectHighVelocity(shaped, threshold)
	if maxResults > 0 && len(filtered) > maxResults {
		filtered = filtered[:maxResults]
	}

	out := skills.SuccessOutput(map[string]any{"trends": filtered}, startedAt)
	out.Metadata["total_scanned"] = len(raw)
	return out
}

func stringParam(params map[string]any, key, fallback string) string {
	if v, ok := params[key].(string); ok {
		return v
	}
	return fallback
}

func boolParam(params map[string]any, key string, fallback bool) bool {
	if v, ok := params[key].(bool); ok {
		return v
	}
	return fallback
}

func intParam(params map[string]any, key string, fallback int) int {
	switch v := params[key].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	case float64:
		return int(v)
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n)
		}
	}
	return fallback
}
