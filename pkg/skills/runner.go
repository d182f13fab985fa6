package skills

import (
	"context"
	"fmt"
	"time"

	"github.com/milkesa2013/Agentic-Infrastructure/pkg/errors"
	"github.com/milkesa2013/Agentic-Infrastructure/pkg/resilience"
)

// Runner executes skill invocations under the full contract: defaults
// applied, parameters validated, a per-invocation deadline enforced, and
// panics translated into error outputs. Nothing escapes Run as a Go error;
// failure is always data in the returned Output.
type Runner struct {
	timeout time.Duration
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithTimeout sets the per-invocation deadline. Zero disables it.
func WithTimeout(d time.Duration) RunnerOption {
	return func(r *Runner) {
		r.timeout = d
	}
}

// NewRunner creates a Runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run validates the input against the skill's schema and executes it.
// Timeouts apply per invocation, not per task; a timed-out invocation
// yields an error output of kind timeout, not a surfaced error.
func (r *Runner) Run(ctx context.Context, skill Skill, in Input) Output {
	startedAt := time.Now()

	schema := skill.Schema()
	in.Parameters = schema.ApplyDefaults(in.Parameters)
	if err := schema.Validate(in.Parameters); err != nil {
		ae := errors.AsAgenticError(err)
		out := ErrorOutput(ErrorKindValidation, ae.Message, startedAt)
		if violations, ok := ae.Context["violations"].([]string); ok {
			out.Result["violations"] = violations
		}
		return out
	}

	value, err := resilience.WithTimeoutResult(ctx, resilience.TimeoutConfig{Duration: r.timeout}, func(ctx context.Context) (out any, err error) {
		defer func() {
			if rec := recover(); rec != nil {
				err = errors.New(errors.CodeExecution, fmt.Sprintf("skill panicked: %v", rec), nil)
			}
		}()
		return skill.Execute(ctx, in), nil
	})
	if err != nil {
		ae := errors.AsAgenticError(err)
		return ErrorOutput(ae.Kind(), ae.Message, startedAt)
	}

	out, ok := value.(Output)
	if !ok {
		return ErrorOutput(ErrorKindExecution, "skill returned malformed output", startedAt)
	}
	return ensureMetadata(out, startedAt)
}

// ensureMetadata guarantees the timestamp and duration_ms fields the output
// contract promises, without overwriting what the skill already recorded.
func ensureMetadata(out Output, startedAt time.Time) Output {
	if out.Metadata == nil {
		out.Metadata = make(map[string]any)
	}
	if _, ok := out.Metadata["timestamp"]; !ok {
		out.Metadata["timestamp"] = time.Now().UTC().Format(time.RFC3339)
	}
	if _, ok := out.Metadata["duration_ms"]; !ok {
		out.Metadata["duration_ms"] = time.Since(startedAt).Milliseconds()
	}
	return out
}
