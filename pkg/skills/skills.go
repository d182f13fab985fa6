// Package skills defines the uniform execution contract shared by every
// autonomous skill: a descriptor, a declarative parameter schema, and an
// Execute method that reports failure as data rather than control flow.
package skills

import (
	"context"
	"time"
)

// Status reports the outcome of a skill execution.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
	StatusPartial Status = "partial"
)

// Error kinds carried in Output metadata so callers can distinguish
// caller-fault validation failures from downstream execution failures
// and deadline overruns.
const (
	ErrorKindValidation = "validation"
	ErrorKindExecution  = "execution"
	ErrorKindTimeout    = "timeout"
)

// Descriptor identifies a registered skill. Immutable once registered.
type Descriptor struct {
	SkillID string `json:"skill_id"`
	Version string `json:"version"`
}

// Input is the request shape every skill accepts. Parameters are
// skill-specific; unknown keys are ignored, missing required keys fail
// validation before execution begins.
type Input struct {
	SkillID    string         `json:"skill_id"`
	Version    string         `json:"version"`
	Parameters map[string]any `json:"parameters"`
}

// Output is the response shape every skill returns. Metadata always carries
// a timestamp and a duration_ms measurement.
type Output struct {
	Status   Status         `json:"status"`
	Result   map[string]any `json:"result"`
	Metadata map[string]any `json:"metadata"`
}

// Skill is the polymorphic capability contract. Execute must never panic or
// return control-flow errors to the caller: any internal failure is caught
// and translated into an Output with StatusError. Callers branch on Status.
type Skill interface {
	Descriptor() Descriptor
	Schema() Schema
	Execute(ctx context.Context, in Input) Output
}

// SuccessOutput builds a success output stamped with execution metadata.
func SuccessOutput(result map[string]any, startedAt time.Time) Output {
	return Output{
		Status:   StatusSuccess,
		Result:   result,
		Metadata: executionMetadata(startedAt),
	}
}

// ErrorOutput builds an error output of the given kind. The failure message
// lands in result.error so callers have it without unwrapping anything.
func ErrorOutput(kind, message string, startedAt time.Time) Output {
	md := executionMetadata(startedAt)
	md["error_kind"] = kind
	return Output{
		Status:   StatusError,
		Result:   map[string]any{"error": message},
		Metadata: md,
	}
}

func executionMetadata(startedAt time.Time) map[string]any {
	return map[string]any{
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
		"duration_ms": time.Since(startedAt).Milliseconds(),
	}
}

// ErrorKind returns the error_kind recorded in the output metadata, or the
// empty string for non-error outputs.
func (o Output) ErrorKind() string {
	if o.Status != StatusError || o.Metadata == nil {
		return ""
	}
	kind, _ := o.Metadata["error_kind"].(string)
	return kind
}
