package trends

import (
	"strings"
	"testing"
	"time"
)

func makeTrend(id string, keyword string, velocity int) Trend {
	return Trend{
		TrendID:    id,
		Keyword:    keyword,
		Velocity:   velocity,
		Source:     SourceMoltbook,
		DetectedAt: time.Now().UTC(),
	}
}

func TestDetectHighVelocityInclusiveBoundary(t *testing.T) {
	trends := []Trend{
		makeTrend("trend_001", "below", 9),
		makeTrend("trend_002", "exact", 10),
		makeTrend("trend_003", "above", 11),
	}

	got := DetectHighVelocity(trends, 10)
	if len(got) != 2 {
		t.Fatalf("expected 2 trends, got %d", len(got))
	}
	if got[0].Keyword != "exact" {
		t.Errorf("a trend at exactly the threshold must be included")
	}
}

func TestDetectHighVelocityPreservesOrderNoDedup(t *testing.T) {
	trends := []Trend{
		makeTrend("trend_001", "z", 50),
		makeTrend("trend_002", "a", 70),
		makeTrend("trend_003", "z", 50),
	}

	got := DetectHighVelocity(trends, 40)
	if len(got) != 3 {
		t.Fatalf("expected no deduplication, got %d trends", len(got))
	}
	for i, want := range []string{"z", "a", "z"} {
		if got[i].Keyword != want {
			t.Errorf("position %d: expected %q, got %q", i, want, got[i].Keyword)
		}
	}
}

func TestDetectHighVelocityMonotonic(t *testing.T) {
	trends := []Trend{
		makeTrend("trend_001", "a", 5),
		makeTrend("trend_002", "b", 15),
		makeTrend("trend_003", "c", 25),
		makeTrend("trend_004", "d", 35),
	}

	// For t1 <= t2 the result for t2 must be a subset of the result for t1.
	for t1 := 0; t1 <= 40; t1 += 5 {
		lower := DetectHighVelocity(trends, t1)
		member := make(map[string]bool, len(lower))
		for _, tr := range lower {
			member[tr.TrendID] = true
		}
		for t2 := t1; t2 <= 40; t2 += 5 {
			for _, tr := range DetectHighVelocity(trends, t2) {
				if !member[tr.TrendID] {
					t.Fatalf("threshold %d result contains %s missing from threshold %d result", t2, tr.TrendID, t1)
				}
			}
		}
	}
}

func TestDetectHighVelocityMissingVelocityIsZero(t *testing.T) {
	trends := []Trend{{TrendID: "trend_001", Keyword: "quiet", Source: SourceMoltbook}}
	if got := DetectHighVelocity(trends, 1); len(got) != 0 {
		t.Errorf("zero-velocity trend must not pass a positive threshold")
	}
	if got := DetectHighVelocity(trends, 0); len(got) != 1 {
		t.Errorf("zero-velocity trend passes a zero threshold (inclusive)")
	}
}

func TestTrendValidate(t *testing.T) {
	sentiment := 0.5
	valid := Trend{
		TrendID:    "trend_007",
		Keyword:    "go generics",
		Velocity:   120,
		Sentiment:  sentiment,
		Source:     SourceTwitter,
		DetectedAt: time.Now().UTC(),
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid trend, got %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Trend)
	}{
		{"bad id", func(tr *Trend) { tr.TrendID = "trend_1" }},
		{"long keyword", func(tr *Trend) { tr.Keyword = strings.Repeat("k", 256) }},
		{"negative velocity", func(tr *Trend) { tr.Velocity = -1 }},
		{"sentiment too high", func(tr *Trend) { tr.Sentiment = 1.5 }},
		{"unknown source", func(tr *Trend) { tr.Source = "myspace" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := valid
			tt.mutate(&tr)
			if err := tr.Validate(); err == nil {
				t.Errorf("expected validation error")
			}
		})
	}
}

func TestShapeAssignsSequentialIDs(t *testing.T) {
	raw := []RawTrend{
		{Keyword: "first", Velocity: 10},
		{Keyword: "second", Velocity: 20, Source: "twitter"},
	}
	shaped := Shape(raw, time.Now())
	if shaped[0].TrendID != "trend_001" || shaped[1].TrendID != "trend_002" {
		t.Errorf("expected sequential zero-padded ids, got %q, %q", shaped[0].TrendID, shaped[1].TrendID)
	}
	if shaped[0].Source != SourceMoltbook {
		t.Errorf("expected default source moltbook, got %q", shaped[0].Source)
	}
	if shaped[1].Source != SourceTwitter {
		t.Errorf("expected declared source preserved, got %q", shaped[1].Source)
	}
	for _, tr := range shaped {
		if err := tr.Validate(); err != nil {
			t.Errorf("shaped trend invalid: %v", err)
		}
	}
}
