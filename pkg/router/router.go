// Copyright 2026 © The Agentic Infrastructure Authors
// SPDX-License-Identifier: Apache-2.0

package router

import (
	"context"
	"log/slog"

	agerr "github.com/milkesa2013/Agentic-Infrastructure/pkg/errors"
	"github.com/milkesa2013/Agentic-Infrastructure/pkg/guardian"
	"github.com/milkesa2013/Agentic-Infrastructure/pkg/skills"
)

// Router dispatches task messages to registered skills and drives the task
// lifecycle. A dispatched task whose skill returned a usable output is parked
// in awaiting_result; the caller either completes it or resolves it with a
// clearance decision.
type Router struct {
	registry *skills.Registry
	runner   *skills.Runner
	store    *TaskStore
	logger   *slog.Logger
}

// Option configures a Router.
type Option func(*Router)

// WithRunner overrides the skill runner, usually to set an execution timeout.
func WithRunner(r *skills.Runner) Option {
	return func(rt *Router) { rt.runner = r }
}

// WithTaskStore shares a task store between routers.
func WithTaskStore(s *TaskStore) Option {
	return func(rt *Router) { rt.store = s }
}

// WithLogger overrides the default logger.
func WithLogger(l *slog.Logger) Option {
	return func(rt *Router) { rt.logger = l }
}

func New(registry *skills.Registry, opts ...Option) *Router {
	rt := &Router{
		registry: registry,
		runner:   skills.NewRunner(),
		store:    NewTaskStore(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

// Tasks exposes the router's task store.
func (rt *Router) Tasks() *TaskStore { return rt.store }

// Dispatch routes a task request to the skill named by its recipient and
// executes it. On success the task is left in awaiting_result and a
// task_result reply carrying the output is returned; the output is data even
// when the skill reported an error status, except that execution-level error
// outputs fail the task. Unknown recipients and invalid envelopes fail the
// task with a routing error reply.
func (rt *Router) Dispatch(ctx context.Context, msg Envelope) Envelope {
	taskID := msg.Payload.TaskID
	if taskID == "" {
		return rt.errorReply(msg, "payload.task_id is required")
	}
	if _, err := rt.store.Create(taskID, msg.TraceID, msg.Recipient, msg.Payload.Action); err != nil {
		return rt.errorReply(msg, err.Error())
	}
	if err := msg.Validate(); err != nil {
		rt.failTask(taskID, err.Error())
		return rt.errorReply(msg, err.Error())
	}

	skill, ok := rt.registry.Get(msg.Recipient)
	if !ok {
		reason := agerr.New(agerr.CodeRouting, "no skill registered for recipient", nil).
			WithContext("recipient", msg.Recipient).Error()
		rt.failTask(taskID, reason)
		rt.logger.WarnContext(ctx, "routing failed",
			"task_id", taskID, "trace_id", msg.TraceID, "recipient", msg.Recipient)
		return rt.errorReply(msg, reason)
	}

	if _, err := rt.store.Transition(taskID, StateDispatched); err != nil {
		return rt.errorReply(msg, err.Error())
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	rt.store.attachCancel(taskID, cancel)

	if _, err := rt.store.Transition(taskID, StateAwaitingResult); err != nil {
		return rt.errorReply(msg, err.Error())
	}

	out := rt.runner.Run(runCtx, skill, skills.Input{
		SkillID:    msg.Recipient,
		Parameters: msg.Payload.Parameters,
	})
	rt.store.SetOutput(taskID, out)
	// Execution finished; the task is no longer cancelable.
	rt.store.attachCancel(taskID, nil)

	if out.Status == skills.StatusError {
		kind := out.ErrorKind()
		rt.failTask(taskID, "skill reported "+kind+" error")
		rt.logger.WarnContext(ctx, "task failed",
			"task_id", taskID, "trace_id", msg.TraceID,
			"recipient", msg.Recipient, "error_kind", kind)
		return msg.Reply(MessageError, []any{out})
	}

	rt.logger.InfoContext(ctx, "task awaiting result",
		"task_id", taskID, "trace_id", msg.TraceID, "recipient", msg.Recipient)
	return msg.Reply(MessageTaskResult, []any{out})
}

// Complete resolves a task that needs no clearance decision.
func (rt *Router) Complete(taskID string) (Task, error) {
	return rt.store.Transition(taskID, StateResolved)
}

// ResolveDecision applies a clearance decision to a task awaiting one.
// Approve resolves the task, escalate parks it in escalated for a human,
// reject fails it. The trace id on the task is untouched.
func (rt *Router) ResolveDecision(ctx context.Context, taskID string, decision guardian.Decision) (Task, error) {
	var to TaskState
	switch decision.Outcome {
	case guardian.OutcomeApprove:
		to = StateResolved
	case guardian.OutcomeEscalate:
		to = StateEscalated
	case guardian.OutcomeReject:
		to = StateFailed
	default:
		return Task{}, agerr.New(agerr.CodeInvalidInput, "unknown decision outcome", nil).
			WithContext("outcome", string(decision.Outcome))
	}
	task, err := rt.store.Transition(taskID, to)
	if err != nil {
		return Task{}, err
	}
	if to == StateFailed {
		rt.store.SetError(taskID, "rejected by clearance decision")
		task, _ = rt.store.Get(taskID)
	}
	rt.logger.InfoContext(ctx, "clearance decision applied",
		"task_id", taskID, "trace_id", task.TraceID,
		"decision", string(decision.Outcome), "requires_human", decision.RequiresHuman)
	return task, nil
}

// Cancel aborts an in-flight task. Notifications or other side effects that
// already happened stay happened.
func (rt *Router) Cancel(taskID string) bool {
	return rt.store.Cancel(taskID)
}

// Fail marks a live task failed with the given reason.
func (rt *Router) Fail(taskID, reason string) {
	rt.failTask(taskID, reason)
}

func (rt *Router) failTask(taskID, reason string) {
	rt.store.SetError(taskID, reason)
	// Failed is reachable from every non-terminal state; a transition error
	// here means the task already terminated.
	_, _ = rt.store.Transition(taskID, StateFailed)
}

func (rt *Router) errorReply(msg Envelope, reason string) Envelope {
	reply := msg.Reply(MessageError, []any{})
	reply.Payload.Parameters = map[string]any{"error": reason}
	return reply
}
