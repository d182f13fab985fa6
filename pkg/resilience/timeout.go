// SPDX-License-Identifier: Apache-2.0
package resilience

import (
	"context"
	"time"

	"github.com/milkesa2013/Agentic-Infrastructure/pkg/errors"
)

// TimeoutConfig controls timeout behavior for a single invocation.
type TimeoutConfig struct {
	// Duration is the maximum time allowed for the operation.
	// Zero disables the timeout boundary.
	Duration time.Duration
}

// WithTimeoutResult executes fn with a timeout boundary, returning both
// result and error. A deadline overrun yields errors.CodeTimeout; the
// in-flight fn is signalled through its context, never abandoned silently.
func WithTimeoutResult(ctx context.Context, config TimeoutConfig, fn func(ctx context.Context) (any, error)) (any, error) {
	if config.Duration == 0 {
		return fn(ctx)
	}

	ctx, cancel := context.WithTimeout(ctx, config.Duration)
	defer cancel()

	type result struct {
		value any
		err   error
	}

	done := make(chan result, 1)
	go func() {
		value, err := fn(ctx)
		done <- result{value, err}
	}()

	select {
	case <-ctx.Done():
		return nil, errors.New(errors.CodeTimeout, "operation exceeded timeout", ctx.Err()).
			WithContext("timeout", config.Duration.String()).
			WithRecoverable(true)
	case res := <-done:
		return res.value, res.err
	}
}
