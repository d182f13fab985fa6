package agents

import (
	"context"
	stderrors "errors"
	"strings"
	"testing"

	"github.com/milkesa2013/Agentic-Infrastructure/pkg/approval"
	"github.com/milkesa2013/Agentic-Infrastructure/pkg/guardian"
	"github.com/milkesa2013/Agentic-Infrastructure/pkg/memory"
	"github.com/milkesa2013/Agentic-Infrastructure/pkg/platform"
	"github.com/milkesa2013/Agentic-Infrastructure/pkg/router"
	"github.com/milkesa2013/Agentic-Infrastructure/pkg/skills"
	"github.com/milkesa2013/Agentic-Infrastructure/pkg/trends"
	"github.com/milkesa2013/Agentic-Infrastructure/pkg/wallet"
)

type fixedValidator struct {
	name  string
	score float64
}

func (v fixedValidator) Name() string { return v.name }

func (v fixedValidator) Validate(_ context.Context, _ guardian.Artifact) guardian.Evaluation {
	return guardian.Evaluation{Score: v.score}
}

type prefixEmbedder struct{}

func (prefixEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, 8)
	for i, r := range strings.ToLower(text) {
		if i >= len(vec) {
			break
		}
		vec[i] = float32(r)
	}
	return vec, nil
}

func testRouter(t *testing.T, raw []trends.RawTrend) *router.Router {
	t.Helper()
	registry := skills.NewRegistry()
	registry.Register(trends.NewFetchSkill(trends.NewInMemoryFetcher(raw)))
	return router.New(registry)
}

func hotTrend() []trends.RawTrend {
	sentiment := 0.6
	return []trends.RawTrend{
		{Keyword: "solana gaming", Velocity: 250, Sentiment: &sentiment, Source: "moltbook"},
	}
}

func passingEngine() *guardian.Engine {
	return guardian.NewEngine(
		guardian.WithValidator(fixedValidator{"brand_safety", 0.95}, guardian.Policy{Threshold: 0.8, Floor: 0.5}),
		guardian.WithValidator(fixedValidator{"security", 1.0}, guardian.Policy{Threshold: 0.9, Floor: 0.5, HardFail: true}),
	)
}

func TestPipelinePublishesApprovedContent(t *testing.T) {
	ctx := context.Background()
	rt := testRouter(t, hotTrend())
	adapter := platform.NewStaticAdapter("moltbook")
	pipeline := NewPipeline(rt, passingEngine(), NewTemplateGenerator(""), adapter)

	result, err := pipeline.Run(ctx, Goal{Source: "moltbook", VelocityThreshold: 100})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Status != RunPublished {
		t.Fatalf("status = %s (%s), want published", result.Status, result.Reason)
	}
	if result.Receipt == nil || result.Receipt.PostID == "" {
		t.Fatalf("missing receipt: %+v", result)
	}
	if result.Trend == nil || result.Trend.Keyword != "solana gaming" {
		t.Errorf("trend = %+v", result.Trend)
	}

	posts := adapter.Posts()
	if len(posts) != 1 {
		t.Fatalf("posts = %d, want 1", len(posts))
	}
	if !strings.Contains(posts[0].Body, "solana gaming") {
		t.Errorf("post body = %q", posts[0].Body)
	}

	task, ok := rt.Tasks().Get(result.TaskID)
	if !ok || task.State != router.StateResolved {
		t.Errorf("task state = %v, want resolved", task.State)
	}
}

func TestPipelineAuthenticatesOnceBeforePublishing(t *testing.T) {
	ctx := context.Background()
	adapter := platform.NewStaticAdapter("moltbook")
	pipeline := NewPipeline(testRouter(t, hotTrend()), passingEngine(), NewTemplateGenerator(""), adapter)

	goal := Goal{Source: "moltbook", VelocityThreshold: 100}
	for i := 0; i < 2; i++ {
		result, err := pipeline.Run(ctx, goal)
		if err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
		if result.Status != RunPublished {
			t.Fatalf("run %d status = %s (%s)", i, result.Status, result.Reason)
		}
	}
	if calls := adapter.AuthCalls(); calls != 1 {
		t.Errorf("authenticate calls = %d, want 1", calls)
	}
}

func TestPipelineFailsRunWhenAuthenticationFails(t *testing.T) {
	ctx := context.Background()
	adapter := platform.NewStaticAdapter("moltbook",
		platform.WithAuthError(stderrors.New("credential rejected")))
	pipeline := NewPipeline(testRouter(t, hotTrend()), passingEngine(), NewTemplateGenerator(""), adapter)

	result, err := pipeline.Run(ctx, Goal{Source: "moltbook", VelocityThreshold: 100})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Status != RunFailed {
		t.Fatalf("status = %s, want failed", result.Status)
	}
	if !strings.Contains(result.Reason, "authentication") {
		t.Errorf("reason = %q", result.Reason)
	}
	if len(adapter.Posts()) != 0 {
		t.Errorf("nothing should publish without credentials")
	}
}

func TestPipelineEscalatesGrayZone(t *testing.T) {
	ctx := context.Background()
	rt := testRouter(t, hotTrend())
	engine := guardian.NewEngine(
		guardian.WithValidator(fixedValidator{"brand_safety", 0.65}, guardian.Policy{Threshold: 0.8, Floor: 0.5}),
	)
	store := approval.NewMemoryStore()
	adapter := platform.NewStaticAdapter("moltbook")
	pipeline := NewPipeline(rt, engine, NewTemplateGenerator(""), adapter, WithApprovals(store))

	result, err := pipeline.Run(ctx, Goal{Source: "moltbook", VelocityThreshold: 100})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Status != RunPendingApproval {
		t.Fatalf("status = %s, want pending_approval", result.Status)
	}
	if len(adapter.Posts()) != 0 {
		t.Fatalf("escalated draft must not publish")
	}

	record, err := store.Get(ctx, result.ApprovalID)
	if err != nil {
		t.Fatalf("approval record missing: %v", err)
	}
	if record.Kind != approval.KindContent || record.Status != approval.StatusPending {
		t.Errorf("record = %+v", record)
	}
	if record.TraceID != result.TraceID {
		t.Errorf("trace id not carried into approval record")
	}
	if len(record.Issues) == 0 {
		t.Errorf("expected gray-zone issue in record")
	}

	task, _ := rt.Tasks().Get(result.TaskID)
	if task.State != router.StateEscalated {
		t.Errorf("task state = %s, want escalated", task.State)
	}
	if task.TraceID != result.TraceID {
		t.Errorf("task trace id changed")
	}
}

func TestPipelineRejectsHardFail(t *testing.T) {
	ctx := context.Background()
	rt := testRouter(t, hotTrend())
	engine := guardian.NewEngine(
		guardian.WithValidator(fixedValidator{"security", 0.2}, guardian.Policy{Threshold: 0.9, Floor: 0.5, HardFail: true}),
	)
	adapter := platform.NewStaticAdapter("moltbook")
	pipeline := NewPipeline(rt, engine, NewTemplateGenerator(""), adapter)

	result, err := pipeline.Run(ctx, Goal{Source: "moltbook", VelocityThreshold: 100})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Status != RunRejected {
		t.Fatalf("status = %s, want rejected", result.Status)
	}
	if result.Decision == nil || result.Decision.RequiresHuman {
		t.Errorf("hard fail must not ask for a human: %+v", result.Decision)
	}
	if len(adapter.Posts()) != 0 {
		t.Errorf("rejected draft must not publish")
	}

	task, _ := rt.Tasks().Get(result.TaskID)
	if task.State != router.StateFailed {
		t.Errorf("task state = %s, want failed", task.State)
	}
}

func TestPipelineSkipsWhenNoTrendQualifies(t *testing.T) {
	ctx := context.Background()
	sentiment := 0.1
	rt := testRouter(t, []trends.RawTrend{
		{Keyword: "quiet topic", Velocity: 5, Sentiment: &sentiment, Source: "moltbook"},
	})
	pipeline := NewPipeline(rt, passingEngine(), NewTemplateGenerator(""), platform.NewStaticAdapter("moltbook"))

	result, err := pipeline.Run(ctx, Goal{Source: "moltbook", VelocityThreshold: 100})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Status != RunSkipped {
		t.Fatalf("status = %s, want skipped", result.Status)
	}

	task, _ := rt.Tasks().Get(result.TaskID)
	if task.State != router.StateResolved {
		t.Errorf("idle cycle must still resolve its task, got %s", task.State)
	}
}

func TestPipelineSkipsRepeatedContent(t *testing.T) {
	ctx := context.Background()
	archive := memory.NewArchive(memory.NewInMemoryVectorStore(), prefixEmbedder{}, memory.WithVectorSize(8))
	if err := archive.Init(ctx); err != nil {
		t.Fatalf("archive init: %v", err)
	}

	adapter := platform.NewStaticAdapter("moltbook")
	first := NewPipeline(testRouter(t, hotTrend()), passingEngine(), NewTemplateGenerator(""), adapter,
		WithArchive(archive), WithRepeatThreshold(0.99))
	if result, err := first.Run(ctx, Goal{Source: "moltbook", VelocityThreshold: 100}); err != nil || result.Status != RunPublished {
		t.Fatalf("first run = %+v, err %v", result, err)
	}

	second := NewPipeline(testRouter(t, hotTrend()), passingEngine(), NewTemplateGenerator(""), adapter,
		WithArchive(archive), WithRepeatThreshold(0.99))
	result, err := second.Run(ctx, Goal{Source: "moltbook", VelocityThreshold: 100})
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if result.Status != RunSkipped {
		t.Fatalf("status = %s, want skipped (repeat)", result.Status)
	}
	if len(adapter.Posts()) != 1 {
		t.Errorf("repeat draft must not publish again")
	}
}

func TestPipelineTransferGating(t *testing.T) {
	ctx := context.Background()
	notifier := wallet.NewRecorderNotifier(nil)
	gate := wallet.NewGate(notifier)
	provider := wallet.NewInMemoryProvider(map[string]float64{"USDC": 100})
	store := approval.NewMemoryStore()
	pipeline := NewPipeline(testRouter(t, nil), passingEngine(), NewTemplateGenerator(""), platform.NewStaticAdapter("moltbook"),
		WithGate(gate, provider), WithApprovals(store))

	// Above the gate threshold: flagged, notified, no transfer.
	ref, record, err := pipeline.Transfer(ctx, wallet.Transaction{
		ID: "tx-1", Recipient: "addr", Amount: 50.0, Currency: "USDC",
	})
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if ref != "" || record == nil {
		t.Fatalf("expected flagged transfer, got ref %q record %v", ref, record)
	}
	if record.Kind != approval.KindTransaction {
		t.Errorf("record kind = %s", record.Kind)
	}
	if len(notifier.Calls()) != 1 {
		t.Errorf("notifier calls = %d, want 1", len(notifier.Calls()))
	}
	balances, _ := provider.Balance(ctx)
	if balances["USDC"] != 100 {
		t.Errorf("flagged transfer must not move funds: %v", balances)
	}

	// At or below the threshold: executes immediately.
	ref, record, err = pipeline.Transfer(ctx, wallet.Transaction{
		ID: "tx-2", Recipient: "addr", Amount: 10.0, Currency: "USDC",
	})
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if ref == "" || record != nil {
		t.Fatalf("expected executed transfer, got ref %q record %v", ref, record)
	}
	balances, _ = provider.Balance(ctx)
	if balances["USDC"] != 90 {
		t.Errorf("balance = %v, want 90", balances["USDC"])
	}
}
