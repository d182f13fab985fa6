// Package engagement decides when the agent replies to mentions and comments
// on published posts.
package engagement

import (
	"sync"
	"time"
)

// Mention is a comment or reply on a published post that may deserve an
// answer.
type Mention struct {
	PostID     string    `json:"post_id"`
	Author     string    `json:"author"`
	Text       string    `json:"text"`
	ReceivedAt time.Time `json:"received_at"`
}

// Policy bounds reply behavior. A mention older than ResponseDeadline is
// stale and skipped; replies are rate limited per rolling window.
type Policy struct {
	ResponseDeadline    time.Duration `koanf:"response_deadline" json:"response_deadline"`
	Window              time.Duration `koanf:"window" json:"window"`
	MaxRepliesPerWindow int           `koanf:"max_replies_per_window" json:"max_replies_per_window"`
}

// DefaultPolicy mirrors the operating defaults: reply within 30 minutes,
// at most 10 replies per hour.
func DefaultPolicy() Policy {
	return Policy{
		ResponseDeadline:    30 * time.Minute,
		Window:              time.Hour,
		MaxRepliesPerWindow: 10,
	}
}

// ShouldRespondNow reports whether a mention received at receivedAt is still
// worth answering at now. A mention exactly at the deadline still qualifies.
func (p Policy) ShouldRespondNow(receivedAt, now time.Time) bool {
	if p.ResponseDeadline <= 0 {
		return true
	}
	age := now.Sub(receivedAt)
	return age >= 0 && age <= p.ResponseDeadline
}

// Tracker enforces the policy's reply rate limit.
type Tracker struct {
	policy Policy

	mu      sync.Mutex
	replies []time.Time
}

func NewTracker(policy Policy) *Tracker {
	return &Tracker{policy: policy}
}

// Allow reports whether another reply fits inside the rolling window and, if
// so, records it.
func (t *Tracker) Allow(now time.Time) bool {
	if t.policy.MaxRepliesPerWindow <= 0 || t.policy.Window <= 0 {
		return true
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	cutoff := now.Add(-t.policy.Window)
	kept := t.replies[:0]
	for _, ts := range t.replies {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	t.replies = kept
	if len(t.replies) >= t.policy.MaxRepliesPerWindow {
		return false
	}
	t.replies = append(t.replies, now)
	return true
}
