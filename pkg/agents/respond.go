package agents

import (
	"context"
	"time"

	"github.com/milkesa2013/Agentic-Infrastructure/pkg/engagement"
	"github.com/milkesa2013/Agentic-Infrastructure/pkg/guardian"
	"github.com/milkesa2013/Agentic-Infrastructure/pkg/platform"
)

// WithEngagement bounds mention replies with the given policy.
func WithEngagement(policy engagement.Policy) PipelineOption {
	return func(p *Pipeline) {
		p.engagePolicy = policy
		p.tracker = engagement.NewTracker(policy)
	}
}

// RespondToMention publishes a reply to a mention if the engagement policy
// allows it and the draft clears the same safety clearance as regular posts.
// It reports whether a reply went out and, when it didn't, why.
func (p *Pipeline) RespondToMention(ctx context.Context, mention engagement.Mention, draft string) (bool, string, error) {
	now := time.Now().UTC()
	if !p.engagePolicy.ShouldRespondNow(mention.ReceivedAt, now) {
		return false, "mention is stale", nil
	}
	if p.tracker != nil && !p.tracker.Allow(now) {
		return false, "reply rate limit reached", nil
	}

	artifact := guardian.Artifact{
		Type: "reply",
		Content: map[string]any{
			"text":    draft,
			"post_id": mention.PostID,
			"author":  mention.Author,
		},
	}
	decision := p.engine.Decide(ctx, artifact)
	if p.metrics != nil {
		p.metrics.RecordDecision(ctx, string(decision.Outcome), decision.RequiresHuman)
	}
	if decision.Outcome != guardian.OutcomeApprove {
		return false, "reply did not clear safety review", nil
	}

	if err := p.authenticate(ctx); err != nil {
		return false, "", err
	}
	if _, err := p.adapter.Publish(ctx, platform.Post{
		Body:     draft,
		Metadata: map[string]any{"in_reply_to": mention.PostID},
	}); err != nil {
		return false, "", err
	}
	if p.metrics != nil {
		p.metrics.RecordPublished(ctx, p.adapter.Name())
	}
	p.logger.InfoContext(ctx, "replied to mention",
		"post_id", mention.PostID, "author", mention.Author)
	return true, "", nil
}
