// Copyright 2026 © The Agentic Infrastructure Authors
// SPDX-License-Identifier: Apache-2.0

package agents

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/milkesa2013/Agentic-Infrastructure/pkg/approval"
	"github.com/milkesa2013/Agentic-Infrastructure/pkg/engagement"
	agerr "github.com/milkesa2013/Agentic-Infrastructure/pkg/errors"
	"github.com/milkesa2013/Agentic-Infrastructure/pkg/guardian"
	"github.com/milkesa2013/Agentic-Infrastructure/pkg/memory"
	"github.com/milkesa2013/Agentic-Infrastructure/pkg/platform"
	"github.com/milkesa2013/Agentic-Infrastructure/pkg/router"
	"github.com/milkesa2013/Agentic-Infrastructure/pkg/skills"
	"github.com/milkesa2013/Agentic-Infrastructure/pkg/telemetry"
	"github.com/milkesa2013/Agentic-Infrastructure/pkg/trends"
	"github.com/milkesa2013/Agentic-Infrastructure/pkg/wallet"
)

// RunStatus is the terminal status of one pipeline run.
type RunStatus string

const (
	RunPublished       RunStatus = "published"
	RunPendingApproval RunStatus = "pending_approval"
	RunRejected        RunStatus = "rejected"
	RunSkipped         RunStatus = "skipped"
	RunFailed          RunStatus = "failed"
)

// Result summarizes one pipeline run.
type Result struct {
	TaskID     string             `json:"task_id"`
	TraceID    string             `json:"trace_id"`
	Status     RunStatus          `json:"status"`
	Reason     string             `json:"reason,omitempty"`
	Trend      *trends.Trend      `json:"trend,omitempty"`
	Decision   *guardian.Decision `json:"decision,omitempty"`
	ApprovalID string             `json:"approval_id,omitempty"`
	Receipt    *platform.Receipt  `json:"receipt,omitempty"`
}

// Pipeline drives one task from trend scan through clearance to delivery.
type Pipeline struct {
	planner   *Planner
	router    *router.Router
	engine    *guardian.Engine
	generator ContentGenerator
	approvals approval.Store
	gate      *wallet.Gate
	provider  wallet.Provider
	adapter   platform.Adapter
	archive   *memory.Archive
	metrics   *telemetry.PipelineMetrics
	logger    *slog.Logger

	approvalTTL     time.Duration
	repeatThreshold float32
	engagePolicy    engagement.Policy
	tracker         *engagement.Tracker

	authOnce sync.Once
	authErr  error
}

// authenticate runs the adapter's credential check once, before the first
// publish. A failed check is sticky for the pipeline's lifetime.
func (p *Pipeline) authenticate(ctx context.Context) error {
	p.authOnce.Do(func() { p.authErr = p.adapter.Authenticate(ctx) })
	return p.authErr
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithApprovals persists escalations to the given store.
func WithApprovals(store approval.Store) PipelineOption {
	return func(p *Pipeline) { p.approvals = store }
}

// WithGate routes economic actions through the transaction gate.
func WithGate(gate *wallet.Gate, provider wallet.Provider) PipelineOption {
	return func(p *Pipeline) {
		p.gate = gate
		p.provider = provider
	}
}

// WithArchive enables repetition checks against published content.
func WithArchive(archive *memory.Archive) PipelineOption {
	return func(p *Pipeline) { p.archive = archive }
}

// WithRepeatThreshold sets the similarity score above which a draft counts
// as a repeat of published content.
func WithRepeatThreshold(threshold float32) PipelineOption {
	return func(p *Pipeline) { p.repeatThreshold = threshold }
}

// WithMetrics attaches pipeline instruments.
func WithMetrics(m *telemetry.PipelineMetrics) PipelineOption {
	return func(p *Pipeline) { p.metrics = m }
}

// WithApprovalTTL bounds how long an escalation waits for a human.
func WithApprovalTTL(ttl time.Duration) PipelineOption {
	return func(p *Pipeline) { p.approvalTTL = ttl }
}

// WithPipelineLogger overrides the default logger.
func WithPipelineLogger(l *slog.Logger) PipelineOption {
	return func(p *Pipeline) { p.logger = l }
}

func NewPipeline(rt *router.Router, engine *guardian.Engine, generator ContentGenerator, adapter platform.Adapter, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		planner:         NewPlanner("planner"),
		router:          rt,
		engine:          engine,
		generator:       generator,
		adapter:         adapter,
		approvals:       approval.NewMemoryStore(),
		logger:          slog.Default(),
		approvalTTL:     24 * time.Hour,
		repeatThreshold: 0.9,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes one cycle: scan trends, draft content for the hottest trend,
// judge it, and either publish, escalate to a human, or reject. The trace id
// minted at planning follows the task into its terminal state.
func (p *Pipeline) Run(ctx context.Context, goal Goal) (Result, error) {
	msg := p.planner.PlanTrendScan(goal)
	ctx, span := otel.Tracer("agentic/pipeline").Start(ctx, "pipeline.run")
	defer span.End()
	span.SetAttributes(
		attribute.String("task_id", msg.Payload.TaskID),
		attribute.String("trace_id", msg.TraceID),
	)
	result := Result{TaskID: msg.Payload.TaskID, TraceID: msg.TraceID}

	reply := p.router.Dispatch(ctx, msg)
	if reply.MessageType == router.MessageError {
		result.Status = RunFailed
		result.Reason = failureReason(reply)
		return result, nil
	}

	out, ok := firstOutput(reply)
	if !ok {
		result.Status = RunFailed
		result.Reason = "trend scan returned no output"
		p.router.Fail(msg.Payload.TaskID, result.Reason)
		return result, nil
	}
	if p.metrics != nil {
		p.metrics.RecordSkillExecution(ctx, "skill_fetch_trends", string(out.Status), durationMs(out))
	}

	trend, ok := hottestTrend(out)
	if !ok {
		result.Status = RunSkipped
		result.Reason = "no trend met the velocity threshold"
		if _, err := p.router.Complete(msg.Payload.TaskID); err != nil {
			return result, err
		}
		p.logger.InfoContext(ctx, "pipeline idle", "trace_id", msg.TraceID, "reason", result.Reason)
		return result, nil
	}
	result.Trend = &trend

	artifact, err := p.generator.Generate(ctx, trend)
	if err != nil {
		result.Status = RunFailed
		result.Reason = err.Error()
		p.router.Fail(msg.Payload.TaskID, result.Reason)
		return result, nil
	}

	if skip, reason, err := p.isRepeat(ctx, artifact); err != nil {
		return result, err
	} else if skip {
		result.Status = RunSkipped
		result.Reason = reason
		if _, err := p.router.Complete(msg.Payload.TaskID); err != nil {
			return result, err
		}
		return result, nil
	}

	decision := p.engine.Decide(ctx, artifact)
	result.Decision = &decision
	if p.metrics != nil {
		p.metrics.RecordDecision(ctx, string(decision.Outcome), decision.RequiresHuman)
	}
	if _, err := p.router.ResolveDecision(ctx, msg.Payload.TaskID, decision); err != nil {
		return result, err
	}

	switch decision.Outcome {
	case guardian.OutcomeApprove:
		return p.deliver(ctx, result, artifact)
	case guardian.OutcomeEscalate:
		record, err := p.escalate(ctx, msg.Payload.TaskID, msg.TraceID, approval.KindContent, decision)
		if err != nil {
			return result, err
		}
		result.Status = RunPendingApproval
		result.ApprovalID = record.ID
		result.Reason = "clearance requires a human"
		return result, nil
	default:
		result.Status = RunRejected
		result.Reason = "clearance rejected the draft"
		p.logger.WarnContext(ctx, "draft rejected",
			"trace_id", msg.TraceID, "issues", decision.Issues)
		return result, nil
	}
}

// Transfer runs an economic action through the gate. Flagged transactions
// notify a human and wait in the approval store; unflagged ones execute
// immediately against the wallet provider.
func (p *Pipeline) Transfer(ctx context.Context, tx wallet.Transaction) (string, *approval.Record, error) {
	if p.gate == nil || p.provider == nil {
		return "", nil, agerr.New(agerr.CodeInvalidInput, "pipeline has no wallet gate configured", nil)
	}
	flagged, err := p.gate.VerifyTransaction(ctx, tx)
	if err != nil {
		return "", nil, err
	}
	if flagged {
		if p.metrics != nil {
			p.metrics.RecordGateNotification(ctx, tx.Currency)
		}
		record, err := p.approvals.Create(ctx, approval.Record{
			TaskID:    tx.ID,
			Kind:      approval.KindTransaction,
			Reason:    fmt.Sprintf("transfer of %v %s to %s exceeds gate threshold", tx.Amount, tx.Currency, tx.Recipient),
			ExpiresAt: p.deadline(),
		})
		if err != nil {
			return "", nil, err
		}
		return "", record, nil
	}
	ref, err := p.provider.Transfer(ctx, tx)
	if err != nil {
		return "", nil, err
	}
	return ref, nil, nil
}

func (p *Pipeline) deliver(ctx context.Context, result Result, artifact guardian.Artifact) (Result, error) {
	if err := p.authenticate(ctx); err != nil {
		result.Status = RunFailed
		result.Reason = "platform authentication failed: " + err.Error()
		return result, nil
	}
	post := platform.Post{
		Body: artifact.Text(),
	}
	if tags, ok := artifact.Content["tags"].([]string); ok {
		post.Tags = tags
	}
	receipt, err := p.adapter.Publish(ctx, post)
	if err != nil {
		result.Status = RunFailed
		result.Reason = "publish failed: " + err.Error()
		return result, nil
	}
	if p.metrics != nil {
		p.metrics.RecordPublished(ctx, p.adapter.Name())
	}
	if p.archive != nil {
		if _, err := p.archive.Remember(ctx, artifact.Text(), map[string]any{
			"post_id":  receipt.PostID,
			"platform": p.adapter.Name(),
		}); err != nil {
			p.logger.WarnContext(ctx, "failed to archive published content", "error", err)
		}
	}
	result.Status = RunPublished
	result.Receipt = &receipt
	p.logger.InfoContext(ctx, "content published",
		"trace_id", result.TraceID, "post_id", receipt.PostID, "platform", p.adapter.Name())
	return result, nil
}

func (p *Pipeline) escalate(ctx context.Context, taskID, traceID string, kind approval.Kind, decision guardian.Decision) (*approval.Record, error) {
	record, err := p.approvals.Create(ctx, approval.Record{
		TaskID:    taskID,
		TraceID:   traceID,
		Kind:      kind,
		Reason:    "clearance decision requires human review",
		Issues:    decision.Issues,
		Scores:    decision.Scores,
		ExpiresAt: p.deadline(),
	})
	if err != nil {
		return nil, err
	}
	p.logger.InfoContext(ctx, "escalated for human review",
		"trace_id", traceID, "approval_id", record.ID, "issues", decision.Issues)
	return record, nil
}

func (p *Pipeline) isRepeat(ctx context.Context, artifact guardian.Artifact) (bool, string, error) {
	if p.archive == nil {
		return false, "", nil
	}
	matches, err := p.archive.Similar(ctx, artifact.Text(), 1, p.repeatThreshold)
	if err != nil {
		return false, "", err
	}
	if len(matches) == 0 {
		return false, "", nil
	}
	return true, fmt.Sprintf("draft repeats published content (similarity %.2f)", matches[0].Score), nil
}

func (p *Pipeline) deadline() time.Time {
	if p.approvalTTL <= 0 {
		return time.Time{}
	}
	return time.Now().UTC().Add(p.approvalTTL)
}


func firstOutput(reply router.Envelope) (skills.Output, bool) {
	if len(reply.Payload.Artifacts) == 0 {
		return skills.Output{}, false
	}
	out, ok := reply.Payload.Artifacts[0].(skills.Output)
	return out, ok
}

func hottestTrend(out skills.Output) (trends.Trend, bool) {
	list, ok := out.Result["trends"].([]trends.Trend)
	if !ok || len(list) == 0 {
		return trends.Trend{}, false
	}
	best := list[0]
	for _, t := range list[1:] {
		if t.Velocity > best.Velocity {
			best = t
		}
	}
	return best, true
}

func durationMs(out skills.Output) float64 {
	if out.Metadata == nil {
		return 0
	}
	if ms, ok := out.Metadata["duration_ms"].(int64); ok {
		return float64(ms)
	}
	if ms, ok := out.Metadata["duration_ms"].(float64); ok {
		return ms
	}
	return 0
}

func failureReason(reply router.Envelope) string {
	if reason, ok := reply.Payload.Parameters["error"].(string); ok && reason != "" {
		return reason
	}
	if out, ok := firstOutput(reply); ok {
		if msg, ok := out.Result["error"].(string); ok {
			return msg
		}
	}
	return "task failed"
}
