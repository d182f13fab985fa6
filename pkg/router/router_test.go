package router

import (
	"context"
	"testing"
	"time"

	"github.com/milkesa2013/Agentic-Infrastructure/pkg/guardian"
	"github.com/milkesa2013/Agentic-Infrastructure/pkg/skills"
)

type echoSkill struct {
	id      string
	execute func(ctx context.Context, in skills.Input) skills.Output
}

func (s *echoSkill) Descriptor() skills.Descriptor {
	return skills.Descriptor{SkillID: s.id, Version: "0.1.0"}
}

func (s *echoSkill) Schema() skills.Schema { return skills.Schema{} }

func (s *echoSkill) Execute(ctx context.Context, in skills.Input) skills.Output {
	if s.execute != nil {
		return s.execute(ctx, in)
	}
	return skills.SuccessOutput(map[string]any{"echo": in.Parameters}, time.Now())
}

func TestEnvelopeValidate(t *testing.T) {
	base := NewTaskRequest("planner", "worker", "fetch_trends", map[string]any{"source": "all"})
	if err := base.Validate(); err != nil {
		t.Fatalf("valid envelope rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Envelope)
	}{
		{"missing protocol_version", func(e *Envelope) { e.ProtocolVersion = "" }},
		{"missing message_type", func(e *Envelope) { e.MessageType = "" }},
		{"missing sender", func(e *Envelope) { e.Sender = "" }},
		{"missing recipient", func(e *Envelope) { e.Recipient = "" }},
		{"zero timestamp", func(e *Envelope) { e.Timestamp = time.Time{} }},
		{"missing task_id", func(e *Envelope) { e.Payload.TaskID = "" }},
		{"missing action", func(e *Envelope) { e.Payload.Action = "" }},
		{"nil artifacts", func(e *Envelope) { e.Payload.Artifacts = nil }},
		{"missing trace_id", func(e *Envelope) { e.TraceID = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := base
			tc.mutate(&e)
			if err := e.Validate(); err == nil {
				t.Errorf("expected validation error")
			}
		})
	}
}

func TestReplyPreservesTraceAndTask(t *testing.T) {
	req := NewTaskRequest("planner", "worker", "generate", nil)
	reply := req.Reply(MessageTaskResult, []any{"artifact"})

	if reply.TraceID != req.TraceID {
		t.Errorf("trace id changed: %q != %q", reply.TraceID, req.TraceID)
	}
	if reply.Payload.TaskID != req.Payload.TaskID {
		t.Errorf("task id changed")
	}
	if reply.Sender != "worker" || reply.Recipient != "planner" {
		t.Errorf("sender/recipient not swapped: %s -> %s", reply.Sender, reply.Recipient)
	}
	if reply.MessageType != MessageTaskResult {
		t.Errorf("message type = %s", reply.MessageType)
	}
	if err := reply.Validate(); err != nil {
		t.Errorf("reply invalid: %v", err)
	}
}

func TestTaskStoreTransitions(t *testing.T) {
	store := NewTaskStore()
	if _, err := store.Create("task-1", "trace-1", "worker", "generate"); err != nil {
		t.Fatalf("create: %v", err)
	}

	// created → awaiting_result skips dispatched and must be rejected.
	if _, err := store.Transition("task-1", StateAwaitingResult); err == nil {
		t.Fatalf("expected illegal transition error")
	}

	for _, to := range []TaskState{StateDispatched, StateAwaitingResult, StateResolved} {
		if _, err := store.Transition("task-1", to); err != nil {
			t.Fatalf("transition to %s: %v", to, err)
		}
	}

	// Terminal states never transition again.
	if _, err := store.Transition("task-1", StateFailed); err == nil {
		t.Fatalf("transition out of resolved must fail")
	}

	if _, err := store.Create("task-1", "trace-1", "worker", "generate"); err == nil {
		t.Fatalf("duplicate task id must be rejected")
	}
}

func TestDispatchUnknownRecipient(t *testing.T) {
	rt := New(skills.NewRegistry())
	msg := NewTaskRequest("planner", "nope", "generate", nil)

	reply := rt.Dispatch(context.Background(), msg)

	if reply.MessageType != MessageError {
		t.Fatalf("expected error reply, got %s", reply.MessageType)
	}
	if reply.TraceID != msg.TraceID {
		t.Errorf("trace id not preserved on error reply")
	}
	task, ok := rt.Tasks().Get(msg.Payload.TaskID)
	if !ok {
		t.Fatalf("task not tracked")
	}
	if task.State != StateFailed {
		t.Errorf("state = %s, want failed", task.State)
	}
	if task.Error == "" {
		t.Errorf("expected routing error recorded on task")
	}
}

func TestDispatchSuccessAwaitsResult(t *testing.T) {
	registry := skills.NewRegistry()
	registry.Register(&echoSkill{id: "worker"})
	rt := New(registry)

	msg := NewTaskRequest("planner", "worker", "generate", map[string]any{"k": "v"})
	reply := rt.Dispatch(context.Background(), msg)

	if reply.MessageType != MessageTaskResult {
		t.Fatalf("reply type = %s, want task_result", reply.MessageType)
	}
	if len(reply.Payload.Artifacts) != 1 {
		t.Fatalf("artifacts = %d, want 1", len(reply.Payload.Artifacts))
	}
	out, ok := reply.Payload.Artifacts[0].(skills.Output)
	if !ok {
		t.Fatalf("artifact is %T, want skills.Output", reply.Payload.Artifacts[0])
	}
	if out.Status != skills.StatusSuccess {
		t.Errorf("output status = %s", out.Status)
	}

	task, _ := rt.Tasks().Get(msg.Payload.TaskID)
	if task.State != StateAwaitingResult {
		t.Errorf("state = %s, want awaiting_result", task.State)
	}

	if _, err := rt.Complete(msg.Payload.TaskID); err != nil {
		t.Fatalf("complete: %v", err)
	}
	task, _ = rt.Tasks().Get(msg.Payload.TaskID)
	if task.State != StateResolved {
		t.Errorf("state = %s, want resolved", task.State)
	}
}

func TestDispatchSkillErrorFailsTask(t *testing.T) {
	registry := skills.NewRegistry()
	registry.Register(&echoSkill{
		id: "worker",
		execute: func(ctx context.Context, in skills.Input) skills.Output {
			return skills.ErrorOutput(skills.ErrorKindExecution, "upstream down", time.Now())
		},
	})
	rt := New(registry)

	msg := NewTaskRequest("planner", "worker", "generate", nil)
	reply := rt.Dispatch(context.Background(), msg)

	if reply.MessageType != MessageError {
		t.Fatalf("reply type = %s, want error", reply.MessageType)
	}
	task, _ := rt.Tasks().Get(msg.Payload.TaskID)
	if task.State != StateFailed {
		t.Errorf("state = %s, want failed", task.State)
	}
	if task.Output == nil || task.Output.ErrorKind() != skills.ErrorKindExecution {
		t.Errorf("execution error kind not preserved on task output")
	}
}

func TestEscalationKeepsTraceID(t *testing.T) {
	registry := skills.NewRegistry()
	registry.Register(&echoSkill{id: "worker"})
	rt := New(registry)

	msg := NewTaskRequest("planner", "worker", "generate", nil)
	msg.TraceID = "t-1"
	rt.Dispatch(context.Background(), msg)

	decision := guardian.Decision{
		Outcome:       guardian.OutcomeEscalate,
		Issues:        []string{"brand_safety: flagged term"},
		RequiresHuman: true,
	}
	task, err := rt.ResolveDecision(context.Background(), msg.Payload.TaskID, decision)
	if err != nil {
		t.Fatalf("resolve decision: %v", err)
	}
	if task.State != StateEscalated {
		t.Fatalf("state = %s, want escalated", task.State)
	}
	if task.TraceID != "t-1" {
		t.Errorf("trace id = %q, want t-1", task.TraceID)
	}

	// Escalated is terminal; the task can never become resolved afterwards.
	if _, err := rt.Complete(msg.Payload.TaskID); err == nil {
		t.Fatalf("escalated task must not resolve")
	}
}

func TestRejectDecisionFailsTask(t *testing.T) {
	registry := skills.NewRegistry()
	registry.Register(&echoSkill{id: "worker"})
	rt := New(registry)

	msg := NewTaskRequest("planner", "worker", "generate", nil)
	rt.Dispatch(context.Background(), msg)

	task, err := rt.ResolveDecision(context.Background(), msg.Payload.TaskID,
		guardian.Decision{Outcome: guardian.OutcomeReject})
	if err != nil {
		t.Fatalf("resolve decision: %v", err)
	}
	if task.State != StateFailed {
		t.Errorf("state = %s, want failed", task.State)
	}
	if task.Error == "" {
		t.Errorf("expected rejection reason on task")
	}
}

func TestCancelAbortsInFlightTask(t *testing.T) {
	started := make(chan struct{})
	registry := skills.NewRegistry()
	registry.Register(&echoSkill{
		id: "worker",
		execute: func(ctx context.Context, in skills.Input) skills.Output {
			close(started)
			<-ctx.Done()
			return skills.ErrorOutput(skills.ErrorKindExecution, ctx.Err().Error(), time.Now())
		},
	})
	rt := New(registry)

	msg := NewTaskRequest("planner", "worker", "generate", nil)
	done := make(chan Envelope, 1)
	go func() {
		done <- rt.Dispatch(context.Background(), msg)
	}()

	<-started
	if !rt.Cancel(msg.Payload.TaskID) {
		t.Fatalf("cancel returned false for in-flight task")
	}

	select {
	case reply := <-done:
		if reply.MessageType != MessageError {
			t.Errorf("reply type = %s, want error", reply.MessageType)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("dispatch did not return after cancel")
	}

	task, _ := rt.Tasks().Get(msg.Payload.TaskID)
	if task.State != StateFailed {
		t.Errorf("state = %s, want failed", task.State)
	}
	if rt.Cancel(msg.Payload.TaskID) {
		t.Errorf("cancel on terminal task must report false")
	}
}
