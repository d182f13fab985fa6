// Copyright 2026 © The Agentic Infrastructure Authors
// SPDX-License-Identifier: Apache-2.0

// Package approval persists human-in-the-loop approval requests raised by
// escalated clearance decisions and gated transactions.
package approval

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	agerr "github.com/milkesa2013/Agentic-Infrastructure/pkg/errors"
)

// Kind distinguishes what is waiting for a human.
type Kind string

const (
	KindContent     Kind = "content"
	KindTransaction Kind = "transaction"
)

// Status captures the lifecycle of a human approval.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusExpired  Status = "expired"
)

// Record is one pending approval. Issues and Scores carry the clearance
// context that caused the escalation so a reviewer sees what tripped.
type Record struct {
	ID        string             `json:"id"`
	TaskID    string             `json:"task_id"`
	TraceID   string             `json:"trace_id"`
	Kind      Kind               `json:"kind"`
	Status    Status             `json:"status"`
	Reason    string             `json:"reason,omitempty"`
	Issues    []string           `json:"issues,omitempty"`
	Scores    map[string]float64 `json:"scores,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
	ExpiresAt time.Time          `json:"expires_at,omitempty"`
}

// Filter limits approval queries. Zero values match everything.
type Filter struct {
	TaskID         string
	Kind           Kind
	Status         Status
	Limit          int
	ExpiringBefore time.Time
}

// Store persists approval records.
type Store interface {
	Create(ctx context.Context, record Record) (*Record, error)
	Get(ctx context.Context, id string) (*Record, error)
	List(ctx context.Context, filter Filter) ([]*Record, error)
	UpdateStatus(ctx context.Context, id string, status Status, reason string) (*Record, error)
	// ExpireApprovals moves every pending record past its deadline to
	// expired and returns how many it moved.
	ExpireApprovals(ctx context.Context) (int, error)
}

// MemoryStore keeps approvals in memory.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*Record)}
}

func (s *MemoryStore) Create(_ context.Context, record Record) (*Record, error) {
	if err := normalize(&record); err != nil {
		return nil, err
	}
	copied := cloneRecord(&record)
	s.mu.Lock()
	s.records[record.ID] = copied
	s.mu.Unlock()
	return cloneRecord(copied), nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Record, error) {
	s.mu.RLock()
	record, ok := s.records[id]
	s.mu.RUnlock()
	if !ok {
		return nil, notFound(id)
	}
	return cloneRecord(record), nil
}

func (s *MemoryStore) List(_ context.Context, filter Filter) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Record, 0)
	for _, record := range s.records {
		if !filter.matches(record) {
			continue
		}
		out = append(out, cloneRecord(record))
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}

func (s *MemoryStore) UpdateStatus(_ context.Context, id string, status Status, reason string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[id]
	if !ok {
		return nil, notFound(id)
	}
	record.Status = status
	record.Reason = reason
	record.UpdatedAt = time.Now().UTC()
	return cloneRecord(record), nil
}

func (s *MemoryStore) ExpireApprovals(_ context.Context) (int, error) {
	now := time.Now().UTC()
	s.mu.Lock()
	defer s.mu.Unlock()
	expired := 0
	for _, record := range s.records {
		if record.Status != StatusPending || record.ExpiresAt.IsZero() || record.ExpiresAt.After(now) {
			continue
		}
		record.Status = StatusExpired
		record.UpdatedAt = now
		expired++
	}
	return expired, nil
}

func (f Filter) matches(record *Record) bool {
	if f.TaskID != "" && record.TaskID != f.TaskID {
		return false
	}
	if f.Kind != "" && record.Kind != f.Kind {
		return false
	}
	if f.Status != "" && record.Status != f.Status {
		return false
	}
	if !f.ExpiringBefore.IsZero() {
		if record.ExpiresAt.IsZero() || record.ExpiresAt.After(f.ExpiringBefore) {
			return false
		}
	}
	return true
}

func normalize(record *Record) error {
	if record.TaskID == "" {
		return agerr.New(agerr.CodeInvalidInput, "task_id is required", nil)
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.Kind == "" {
		record.Kind = KindContent
	}
	if record.Status == "" {
		record.Status = StatusPending
	}
	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now
	return nil
}

func notFound(id string) error {
	return agerr.New(agerr.CodeNotFound, "approval not found", nil).WithContext("id", id)
}

func cloneRecord(record *Record) *Record {
	if record == nil {
		return nil
	}
	out := *record
	if record.Issues != nil {
		out.Issues = append([]string(nil), record.Issues...)
	}
	if record.Scores != nil {
		out.Scores = make(map[string]float64, len(record.Scores))
		for k, v := range record.Scores {
			out.Scores[k] = v
		}
	}
	return &out
}
