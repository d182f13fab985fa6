// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// PipelineMetrics tracks the counters and histograms the pipeline emits:
// skill executions, clearance decisions, escalations, and gate notifications.
type PipelineMetrics struct {
	skillExecutions metric.Int64Counter
	skillDurationMs metric.Float64Histogram
	decisions       metric.Int64Counter
	escalations     metric.Int64Counter
	gateNotified    metric.Int64Counter
	publishedPosts  metric.Int64Counter
}

// NewPipelineMetrics registers the pipeline instruments on the global meter.
func NewPipelineMetrics() (*PipelineMetrics, error) {
	meter := otel.Meter("agentic/pipeline")

	skillExecutions, err := meter.Int64Counter(
		"agentic.skill.executions",
		metric.WithDescription("Skill executions by skill id and status"),
	)
	if err != nil {
		return nil, err
	}
	skillDurationMs, err := meter.Float64Histogram(
		"agentic.skill.duration_ms",
		metric.WithDescription("Skill execution latency in milliseconds"),
	)
	if err != nil {
		return nil, err
	}
	decisions, err := meter.Int64Counter(
		"agentic.guardian.decisions",
		metric.WithDescription("Clearance decisions by outcome"),
	)
	if err != nil {
		return nil, err
	}
	escalations, err := meter.Int64Counter(
		"agentic.guardian.escalations",
		metric.WithDescription("Decisions escalated to a human"),
	)
	if err != nil {
		return nil, err
	}
	gateNotified, err := meter.Int64Counter(
		"agentic.gate.notifications",
		metric.WithDescription("Transactions flagged for human approval"),
	)
	if err != nil {
		return nil, err
	}
	publishedPosts, err := meter.Int64Counter(
		"agentic.platform.published",
		metric.WithDescription("Posts published by platform"),
	)
	if err != nil {
		return nil, err
	}

	return &PipelineMetrics{
		skillExecutions: skillExecutions,
		skillDurationMs: skillDurationMs,
		decisions:       decisions,
		escalations:     escalations,
		gateNotified:    gateNotified,
		publishedPosts:  publishedPosts,
	}, nil
}

// RecordSkillExecution counts one skill run and its latency.
func (m *PipelineMetrics) RecordSkillExecution(ctx context.Context, skillID, status string, durationMs float64) {
	attrs := metric.WithAttributes(
		attribute.String("skill_id", skillID),
		attribute.String("status", status),
	)
	m.skillExecutions.Add(ctx, 1, attrs)
	m.skillDurationMs.Record(ctx, durationMs, attrs)
}

// RecordDecision counts one clearance decision, and an escalation when the
// decision requires a human.
func (m *PipelineMetrics) RecordDecision(ctx context.Context, outcome string, requiresHuman bool) {
	m.decisions.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	if requiresHuman {
		m.escalations.Add(ctx, 1)
	}
}

// RecordGateNotification counts one transaction flagged for approval.
func (m *PipelineMetrics) RecordGateNotification(ctx context.Context, currency string) {
	m.gateNotified.Add(ctx, 1, metric.WithAttributes(attribute.String("currency", currency)))
}

// RecordPublished counts one published post.
func (m *PipelineMetrics) RecordPublished(ctx context.Context, platform string) {
	m.publishedPosts.Add(ctx, 1, metric.WithAttributes(attribute.String("platform", platform)))
}
