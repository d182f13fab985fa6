// Copyright 2026 © The Agentic Infrastructure Authors
// SPDX-License-Identifier: Apache-2.0

// Package guardian fuses independent safety evaluations over a content
// artifact into a single clearance decision.
//
// Each validator scores one dimension (brand safety, security, compliance)
// in [0,1] and reports issue strings. The engine compares every score
// against the dimension's policy and emits approve, escalate, or reject.
// Boundary scores resolve toward the safer outcome: a score exactly at a
// threshold passes, a score exactly at the auto-reject floor escalates.
// Uncertainty never silently auto-approves.
package guardian

import (
	"context"
	"fmt"
)

// Outcome is the fused verdict over an artifact.
type Outcome string

const (
	OutcomeApprove  Outcome = "approve"
	OutcomeEscalate Outcome = "escalate"
	OutcomeReject   Outcome = "reject"
)

// Artifact is a content item under evaluation.
type Artifact struct {
	Type    string         `json:"type"`
	Content map[string]any `json:"content"`
}

// Text returns the artifact's primary text field, empty if absent.
func (a Artifact) Text() string {
	for _, key := range []string{"text", "script", "body", "caption"} {
		if s, ok := a.Content[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// Evaluation is one validator's verdict over one dimension.
type Evaluation struct {
	Score  float64  `json:"score"`
	Issues []string `json:"issues,omitempty"`
}

// Validator scores an artifact along a single rule dimension.
type Validator interface {
	Name() string
	Validate(ctx context.Context, artifact Artifact) Evaluation
}

// Policy sets the acceptance bounds for one dimension. Threshold is the
// minimum acceptable score; Floor is the auto-reject line below which even a
// soft dimension rejects outright; HardFail rejects immediately on any score
// below Threshold.
type Policy struct {
	Threshold float64 `koanf:"threshold" json:"threshold"`
	Floor     float64 `koanf:"floor" json:"floor"`
	HardFail  bool    `koanf:"hard_fail" json:"hard_fail"`
}

// Decision is the fused clearance decision. RequiresHuman is true exactly
// when the outcome is escalate.
type Decision struct {
	Outcome       Outcome            `json:"decision"`
	Scores        map[string]float64 `json:"scores"`
	Issues        []string           `json:"issues"`
	RequiresHuman bool               `json:"requires_human"`
}

type dimension struct {
	validator Validator
	policy    Policy
}

// Engine runs validators in registration order and fuses their scores.
type Engine struct {
	dimensions []dimension
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithValidator registers a validator under the given policy. Evaluation
// order equals registration order, which fixes the ordering of the issues
// audit trail.
func WithValidator(v Validator, policy Policy) EngineOption {
	return func(e *Engine) {
		e.dimensions = append(e.dimensions, dimension{validator: v, policy: policy})
	}
}

// NewEngine creates an engine from the given options.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Decide evaluates every dimension and fuses the scores. The algorithm,
// checked in spread order over the collected evaluations:
//
//  1. any hard-fail dimension below its threshold: reject, no human needed
//  2. any dimension below its floor: reject
//  3. any dimension in the gray zone (below threshold, at or above floor):
//     escalate, human required
//  4. otherwise: approve
//
// Given identical scores the result is always identical; there is no
// randomness and no dependence on map iteration order.
func (e *Engine) Decide(ctx context.Context, artifact Artifact) Decision {
	scores := make(map[string]float64, len(e.dimensions))
	issues := make([]string, 0)

	reject := false
	escalate := false
	for _, dim := range e.dimensions {
		eval := dim.validator.Validate(ctx, artifact)
		name := dim.validator.Name()
		scores[name] = eval.Score
		issues = append(issues, eval.Issues...)

		switch {
		case eval.Score >= dim.policy.Threshold:
			// At or above the threshold passes.
		case dim.policy.HardFail:
			reject = true
			issues = append(issues, fmt.Sprintf("%s: score %.2f below hard-fail threshold %.2f", name, eval.Score, dim.policy.Threshold))
		case eval.Score < dim.policy.Floor:
			reject = true
			issues = append(issues, fmt.Sprintf("%s: score %.2f below auto-reject floor %.2f", name, eval.Score, dim.policy.Floor))
		default:
			// Gray zone: below threshold, at or above the floor.
			escalate = true
			issues = append(issues, fmt.Sprintf("%s: score %.2f in gray zone below threshold %.2f", name, eval.Score, dim.policy.Threshold))
		}
	}

	decision := Decision{Scores: scores, Issues: issues}
	switch {
	case reject:
		decision.Outcome = OutcomeReject
	case escalate:
		decision.Outcome = OutcomeEscalate
		decision.RequiresHuman = true
	default:
		decision.Outcome = OutcomeApprove
	}
	return decision
}

// Dimensions returns the registered dimension names in evaluation order.
func (e *Engine) Dimensions() []string {
	out := make([]string, 0, len(e.dimensions))
	for _, dim := range e.dimensions {
		out = append(out, dim.validator.Name())
	}
	return out
}
