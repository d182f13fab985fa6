// Copyright 2026 © The Agentic Infrastructure Authors
// SPDX-License-Identifier: Apache-2.0

// Package platform abstracts the social platforms the pipeline publishes to.
package platform

import (
	"context"
	"time"
)

// Post is a piece of content ready for publication.
type Post struct {
	Title    string         `json:"title,omitempty"`
	Body     string         `json:"body"`
	Tags     []string       `json:"tags,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Receipt identifies a published post.
type Receipt struct {
	PostID   string    `json:"post_id"`
	URL      string    `json:"url,omitempty"`
	PostedAt time.Time `json:"posted_at"`
}

// Metrics is a point-in-time engagement snapshot for a post.
type Metrics struct {
	Views   int `json:"views"`
	Likes   int `json:"likes"`
	Replies int `json:"replies"`
}

// Adapter is implemented per platform. Authenticate is called once before
// the first publish; adapters are expected to be safe for concurrent use.
type Adapter interface {
	Name() string
	Authenticate(ctx context.Context) error
	Publish(ctx context.Context, post Post) (Receipt, error)
	Analytics(ctx context.Context, postID string) (Metrics, error)
}
