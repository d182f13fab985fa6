// Copyright 2026 © The Agentic Infrastructure Authors
// SPDX-License-Identifier: Apache-2.0

// Package agents assembles the planner, worker, judge, and delivery roles
// into a runnable content pipeline.
package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/milkesa2013/Agentic-Infrastructure/pkg/guardian"
	"github.com/milkesa2013/Agentic-Infrastructure/pkg/trends"
)

// ContentGenerator drafts a content artifact for a detected trend.
type ContentGenerator interface {
	Generate(ctx context.Context, trend trends.Trend) (guardian.Artifact, error)
}

// TemplateGenerator produces deterministic drafts from a format string. The
// format receives the trend keyword; a sentiment-dependent suffix is added.
type TemplateGenerator struct {
	format string
}

// NewTemplateGenerator creates a generator. An empty format uses the default.
func NewTemplateGenerator(format string) *TemplateGenerator {
	if format == "" {
		format = "%s is moving fast right now."
	}
	return &TemplateGenerator{format: format}
}

func (g *TemplateGenerator) Generate(_ context.Context, trend trends.Trend) (guardian.Artifact, error) {
	if trend.Keyword == "" {
		return guardian.Artifact{}, fmt.Errorf("trend has no keyword")
	}
	text := fmt.Sprintf(g.format, trend.Keyword)
	switch {
	case trend.Sentiment > 0.3:
		text += " The crowd likes what it sees."
	case trend.Sentiment < -0.3:
		text += " Sentiment is rough, tread carefully."
	}
	return guardian.Artifact{
		Type: "post",
		Content: map[string]any{
			"text":     text,
			"keyword":  trend.Keyword,
			"trend_id": trend.TrendID,
			"source":   trend.Source,
			"tags":     []string{strings.ReplaceAll(strings.ToLower(trend.Keyword), " ", "_")},
		},
	}, nil
}
