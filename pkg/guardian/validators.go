// Copyright 2026 © The Agentic Infrastructure Authors
// SPDX-License-Identifier: Apache-2.0

package guardian

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Pattern tables are conservative and English-focused. Production
// deployments can swap any validator for an ML-backed one; the engine only
// sees the Validator interface.

var brandSafetyPatterns = map[string][]*regexp.Regexp{
	"profanity": compilePatterns(
		`(?i)\b(damn|hell no|wtf|stfu)\b`,
	),
	"violence": compilePatterns(
		`(?i)\b(kill|murder|assault|attack)\s+(them|him|her|people)\b`,
		`(?i)incite\s+violence`,
	),
	"hate": compilePatterns(
		`(?i)\b(hate|despise)\s+(all\s+)?(people|group|community)\b`,
	),
	"dangerous": compilePatterns(
		`(?i)how\s+to\s+(make|build|create)\s+(a\s+)?(bomb|explosive|weapon)`,
		`(?i)synthesize\s+(drugs?|chemicals?)`,
	),
}

var securityPatterns = []*regexp.Regexp{
	// Instruction override and persona manipulation
	regexp.MustCompile(`(?i)ignore\s+(all\s+)?(previous|prior|above)\s+(instructions?|prompts?|rules?)`),
	regexp.MustCompile(`(?i)disregard\s+(all\s+)?(previous|prior|above)\s+(instructions?|prompts?|rules?)`),
	regexp.MustCompile(`(?i)you\s+are\s+now\s+(a|an)\s+`),
	regexp.MustCompile(`(?i)jailbreak`),
	regexp.MustCompile(`(?i)bypass\s+(safety|content|filter)`),
	// Credential and secret leakage
	regexp.MustCompile(`(?i)(api[_-]?key|secret[_-]?key|seed\s+phrase|private\s+key)\s*[:=]\s*\S+`),
	regexp.MustCompile(`(?i)-----BEGIN\s+(RSA\s+)?PRIVATE\s+KEY-----`),
}

var compliancePatterns = map[string]*regexp.Regexp{
	"sponsored content without disclosure": regexp.MustCompile(`(?i)\b(sponsored|paid\s+partnership|brand\s+deal)\b`),
	"financial advice without disclaimer":  regexp.MustCompile(`(?i)\b(guaranteed\s+returns?|can'?t\s+lose|financial\s+advice|buy\s+this\s+(coin|token|stock))\b`),
}

var complianceDisclosures = map[string]*regexp.Regexp{
	"sponsored content without disclosure": regexp.MustCompile(`(?i)(#ad\b|#sponsored\b|paid\s+promotion\s+disclosed)`),
	"financial advice without disclaimer":  regexp.MustCompile(`(?i)(not\s+financial\s+advice|do\s+your\s+own\s+research|dyor)`),
}

func compilePatterns(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, regexp.MustCompile(p))
	}
	return out
}

// BrandSafetyValidator scores content against brand-risk categories. Each
// offending category costs a fixed penalty; a clean artifact scores 1.0.
type BrandSafetyValidator struct {
	penalty float64
}

// NewBrandSafetyValidator creates the validator with a 0.3 per-category
// penalty.
func NewBrandSafetyValidator() *BrandSafetyValidator {
	return &BrandSafetyValidator{penalty: 0.3}
}

// Name implements Validator.
func (v *BrandSafetyValidator) Name() string { return "brand_safety" }

// Validate implements Validator.
func (v *BrandSafetyValidator) Validate(_ context.Context, artifact Artifact) Evaluation {
	text := artifact.Text()
	score := 1.0
	var issues []string

	for category, patterns := range brandSafetyPatterns {
		for _, pattern := range patterns {
			if match := pattern.FindString(text); match != "" {
				score -= v.penalty
				issues = append(issues, fmt.Sprintf("brand_safety: %s content detected (%q)", category, strings.TrimSpace(match)))
				break
			}
		}
	}
	if score < 0 {
		score = 0
	}
	// Map iteration order is not deterministic; the audit trail must be.
	sortIssues(issues)
	return Evaluation{Score: score, Issues: issues}
}

// SecurityValidator detects prompt-injection payloads and secret leakage in
// outbound content. Any hit is scored as a full failure: security findings
// are binary, not graded.
type SecurityValidator struct{}

// NewSecurityValidator creates the validator.
func NewSecurityValidator() *SecurityValidator { return &SecurityValidator{} }

// Name implements Validator.
func (v *SecurityValidator) Name() string { return "security" }

// Validate implements Validator.
func (v *SecurityValidator) Validate(_ context.Context, artifact Artifact) Evaluation {
	text := artifact.Text()
	for _, pattern := range securityPatterns {
		if pattern.MatchString(text) {
			return Evaluation{
				Score:  0,
				Issues: []string{"security: injection or secret-leak pattern detected"},
			}
		}
	}
	return Evaluation{Score: 1.0}
}

// ComplianceValidator checks that regulated content carries its required
// disclosure. Content that triggers a rule without the matching disclosure
// is penalized per finding.
type ComplianceValidator struct {
	penalty float64
}

// NewComplianceValidator creates the validator with a 0.25 per-finding
// penalty.
func NewComplianceValidator() *ComplianceValidator {
	return &ComplianceValidator{penalty: 0.25}
}

// Name implements Validator.
func (v *ComplianceValidator) Name() string { return "compliance" }

// Validate implements Validator.
func (v *ComplianceValidator) Validate(_ context.Context, artifact Artifact) Evaluation {
	text := artifact.Text()
	score := 1.0
	var issues []string

	for finding, trigger := range compliancePatterns {
		if !trigger.MatchString(text) {
			continue
		}
		if disclosure, ok := complianceDisclosures[finding]; ok && disclosure.MatchString(text) {
			continue
		}
		score -= v.penalty
		issues = append(issues, "compliance: "+finding)
	}
	if score < 0 {
		score = 0
	}
	sortIssues(issues)
	return Evaluation{Score: score, Issues: issues}
}

func sortIssues(issues []string) {
	sort.Strings(issues)
}
