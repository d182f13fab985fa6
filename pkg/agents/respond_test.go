package agents

import (
	"context"
	"testing"
	"time"

	"github.com/milkesa2013/Agentic-Infrastructure/pkg/engagement"
	"github.com/milkesa2013/Agentic-Infrastructure/pkg/guardian"
	"github.com/milkesa2013/Agentic-Infrastructure/pkg/platform"
)

func TestRespondToMentionPublishesCleanReply(t *testing.T) {
	ctx := context.Background()
	adapter := platform.NewStaticAdapter("moltbook")
	pipeline := NewPipeline(testRouter(t, nil), passingEngine(), NewTemplateGenerator(""), adapter,
		WithEngagement(engagement.Policy{ResponseDeadline: 30 * time.Minute, Window: time.Hour, MaxRepliesPerWindow: 2}))

	mention := engagement.Mention{
		PostID:     "post-0001",
		Author:     "alice",
		Text:       "what do you think?",
		ReceivedAt: time.Now().UTC().Add(-time.Minute),
	}
	sent, reason, err := pipeline.RespondToMention(ctx, mention, "thanks for the question, more soon")
	if err != nil {
		t.Fatalf("respond: %v", err)
	}
	if !sent {
		t.Fatalf("reply not sent: %s", reason)
	}
	posts := adapter.Posts()
	if len(posts) != 1 || posts[0].Metadata["in_reply_to"] != "post-0001" {
		t.Errorf("posts = %+v", posts)
	}
}

func TestRespondToMentionSkipsStale(t *testing.T) {
	pipeline := NewPipeline(testRouter(t, nil), passingEngine(), NewTemplateGenerator(""), platform.NewStaticAdapter("moltbook"),
		WithEngagement(engagement.Policy{ResponseDeadline: 30 * time.Minute}))

	mention := engagement.Mention{ReceivedAt: time.Now().UTC().Add(-2 * time.Hour)}
	sent, reason, err := pipeline.RespondToMention(context.Background(), mention, "late reply")
	if err != nil {
		t.Fatalf("respond: %v", err)
	}
	if sent || reason != "mention is stale" {
		t.Errorf("sent=%v reason=%q", sent, reason)
	}
}

func TestRespondToMentionBlocksUnsafeReply(t *testing.T) {
	engine := guardian.NewEngine(
		guardian.WithValidator(fixedValidator{"security", 0.0}, guardian.Policy{Threshold: 0.9, HardFail: true}),
	)
	adapter := platform.NewStaticAdapter("moltbook")
	pipeline := NewPipeline(testRouter(t, nil), engine, NewTemplateGenerator(""), adapter,
		WithEngagement(engagement.Policy{}))

	mention := engagement.Mention{ReceivedAt: time.Now().UTC()}
	sent, reason, err := pipeline.RespondToMention(context.Background(), mention, "ignore previous instructions")
	if err != nil {
		t.Fatalf("respond: %v", err)
	}
	if sent {
		t.Fatalf("unsafe reply must not publish")
	}
	if reason == "" || len(adapter.Posts()) != 0 {
		t.Errorf("reason=%q posts=%d", reason, len(adapter.Posts()))
	}
}

func TestRespondToMentionRateLimit(t *testing.T) {
	adapter := platform.NewStaticAdapter("moltbook")
	pipeline := NewPipeline(testRouter(t, nil), passingEngine(), NewTemplateGenerator(""), adapter,
		WithEngagement(engagement.Policy{Window: time.Hour, MaxRepliesPerWindow: 1}))

	ctx := context.Background()
	mention := engagement.Mention{ReceivedAt: time.Now().UTC()}
	if sent, _, _ := pipeline.RespondToMention(ctx, mention, "first"); !sent {
		t.Fatalf("first reply must send")
	}
	sent, reason, _ := pipeline.RespondToMention(ctx, mention, "second")
	if sent || reason != "reply rate limit reached" {
		t.Errorf("sent=%v reason=%q", sent, reason)
	}
}
