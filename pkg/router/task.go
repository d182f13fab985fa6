// Copyright 2026 © The Agentic Infrastructure Authors
// SPDX-License-Identifier: Apache-2.0

package router

import (
	"context"
	"sync"
	"time"

	agerr "github.com/milkesa2013/Agentic-Infrastructure/pkg/errors"
	"github.com/milkesa2013/Agentic-Infrastructure/pkg/skills"
)

// TaskState is a node of the task lifecycle graph.
//
//	created → dispatched → awaiting_result → {resolved, escalated, failed}
//
// Terminal states are never left. The escalated state is reachable only
// through a clearance decision that requires a human.
type TaskState string

const (
	StateCreated        TaskState = "created"
	StateDispatched     TaskState = "dispatched"
	StateAwaitingResult TaskState = "awaiting_result"
	StateResolved       TaskState = "resolved"
	StateEscalated      TaskState = "escalated"
	StateFailed         TaskState = "failed"
)

// Terminal reports whether no further transitions are allowed from s.
func (s TaskState) Terminal() bool {
	return s == StateResolved || s == StateEscalated || s == StateFailed
}

var taskTransitions = map[TaskState][]TaskState{
	StateCreated:        {StateDispatched, StateFailed},
	StateDispatched:     {StateAwaitingResult, StateFailed},
	StateAwaitingResult: {StateResolved, StateEscalated, StateFailed},
}

func canTransition(from, to TaskState) bool {
	for _, s := range taskTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Task is the tracked lifecycle record for one routed message.
type Task struct {
	TaskID    string         `json:"task_id"`
	TraceID   string         `json:"trace_id"`
	Recipient string         `json:"recipient"`
	Action    string         `json:"action"`
	State     TaskState      `json:"state"`
	Output    *skills.Output `json:"output,omitempty"`
	Error     string         `json:"error,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

type taskRecord struct {
	task   Task
	cancel context.CancelFunc
}

// TaskStore is an in-memory task registry safe for concurrent use. Reads
// return copies so callers never observe in-place mutation.
type TaskStore struct {
	mu    sync.RWMutex
	tasks map[string]*taskRecord
}

func NewTaskStore() *TaskStore {
	return &TaskStore{tasks: make(map[string]*taskRecord)}
}

// Create registers a new task in the created state.
func (s *TaskStore) Create(taskID, traceID, recipient, action string) (Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tasks[taskID]; exists {
		return Task{}, agerr.New(agerr.CodeInvalidInput, "task already exists", nil).
			WithContext("task_id", taskID)
	}
	now := time.Now().UTC()
	rec := &taskRecord{task: Task{
		TaskID:    taskID,
		TraceID:   traceID,
		Recipient: recipient,
		Action:    action,
		State:     StateCreated,
		CreatedAt: now,
		UpdatedAt: now,
	}}
	s.tasks[taskID] = rec
	return rec.task, nil
}

// Get returns a copy of the task, or false when unknown.
func (s *TaskStore) Get(taskID string) (Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.tasks[taskID]
	if !ok {
		return Task{}, false
	}
	return rec.task, true
}

// List returns a snapshot of all tracked tasks.
func (s *TaskStore) List() []Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Task, 0, len(s.tasks))
	for _, rec := range s.tasks {
		out = append(out, rec.task)
	}
	return out
}

// Transition moves the task to the given state, enforcing the lifecycle
// graph. Illegal transitions leave the task untouched and return an error.
func (s *TaskStore) Transition(taskID string, to TaskState) (Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.tasks[taskID]
	if !ok {
		return Task{}, agerr.New(agerr.CodeNotFound, "unknown task", nil).
			WithContext("task_id", taskID)
	}
	if !canTransition(rec.task.State, to) {
		return Task{}, agerr.New(agerr.CodeRouting, "illegal task transition", nil).
			WithContext("task_id", taskID).
			WithContext("from", string(rec.task.State)).
			WithContext("to", string(to))
	}
	rec.task.State = to
	rec.task.UpdatedAt = time.Now().UTC()
	if to.Terminal() && rec.cancel != nil {
		rec.cancel()
		rec.cancel = nil
	}
	return rec.task, nil
}

// SetOutput attaches a skill output to the task record.
func (s *TaskStore) SetOutput(taskID string, out skills.Output) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.tasks[taskID]; ok {
		cp := out
		rec.task.Output = &cp
		rec.task.UpdatedAt = time.Now().UTC()
	}
}

// SetError records a failure reason on the task.
func (s *TaskStore) SetError(taskID, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.tasks[taskID]; ok {
		rec.task.Error = reason
		rec.task.UpdatedAt = time.Now().UTC()
	}
}

func (s *TaskStore) attachCancel(taskID string, cancel context.CancelFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.tasks[taskID]; ok && !rec.task.State.Terminal() {
		rec.cancel = cancel
	}
}

// Cancel aborts an in-flight task. It reports whether a cancellation was
// delivered. Side effects already performed by the task, such as an approval
// notification that went out, are not retracted.
func (s *TaskStore) Cancel(taskID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.tasks[taskID]
	if !ok || rec.cancel == nil || rec.task.State.Terminal() {
		return false
	}
	rec.cancel()
	rec.cancel = nil
	return true
}
