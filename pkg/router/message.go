// Package router routes structured task messages between agents and tracks
// each task's lifecycle from creation through resolution, escalation, or
// failure.
package router

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ProtocolVersion is the envelope protocol version this router speaks.
const ProtocolVersion = "1.0"

// MessageType identifies the semantic kind of an envelope.
type MessageType string

const (
	MessageTaskRequest MessageType = "task_request"
	MessageTaskResult  MessageType = "task_result"
	MessageEscalation  MessageType = "escalation"
	MessageError       MessageType = "error"
)

// Payload is the task body carried by an envelope. Artifacts is ordered and
// may be empty, never nil on the wire.
type Payload struct {
	TaskID     string         `json:"task_id"`
	Action     string         `json:"action"`
	Parameters map[string]any `json:"parameters"`
	Artifacts  []any          `json:"artifacts"`
}

// Envelope is the wire-level agent message. The trace id is created once at
// task origination and propagated unchanged through every hop; it is never
// regenerated mid-pipeline.
type Envelope struct {
	ProtocolVersion string      `json:"protocol_version"`
	MessageType     MessageType `json:"message_type"`
	Sender          string      `json:"sender"`
	Recipient       string      `json:"recipient"`
	Timestamp       time.Time   `json:"timestamp"`
	Payload         Payload     `json:"payload"`
	TraceID         string      `json:"trace_id"`
}

// NewTaskRequest originates a task: fresh task id, fresh trace id.
func NewTaskRequest(sender, recipient, action string, parameters map[string]any) Envelope {
	if parameters == nil {
		parameters = make(map[string]any)
	}
	return Envelope{
		ProtocolVersion: ProtocolVersion,
		MessageType:     MessageTaskRequest,
		Sender:          sender,
		Recipient:       recipient,
		Timestamp:       time.Now().UTC(),
		Payload: Payload{
			TaskID:     uuid.NewString(),
			Action:     action,
			Parameters: parameters,
			Artifacts:  []any{},
		},
		TraceID: uuid.NewString(),
	}
}

// Reply builds a descendant envelope: fresh message identity and timestamp,
// same task id and trace id, sender and recipient swapped.
func (e Envelope) Reply(messageType MessageType, artifacts []any) Envelope {
	if artifacts == nil {
		artifacts = []any{}
	}
	return Envelope{
		ProtocolVersion: ProtocolVersion,
		MessageType:     messageType,
		Sender:          e.Recipient,
		Recipient:       e.Sender,
		Timestamp:       time.Now().UTC(),
		Payload: Payload{
			TaskID:     e.Payload.TaskID,
			Action:     e.Payload.Action,
			Parameters: e.Payload.Parameters,
			Artifacts:  artifacts,
		},
		TraceID: e.TraceID,
	}
}

// Validate checks that every required envelope field is present.
func (e Envelope) Validate() error {
	switch {
	case e.ProtocolVersion == "":
		return fmt.Errorf("protocol_version is required")
	case e.MessageType == "":
		return fmt.Errorf("message_type is required")
	case e.Sender == "":
		return fmt.Errorf("sender is required")
	case e.Recipient == "":
		return fmt.Errorf("recipient is required")
	case e.Timestamp.IsZero():
		return fmt.Errorf("timestamp is required")
	case e.Payload.TaskID == "":
		return fmt.Errorf("payload.task_id is required")
	case e.Payload.Action == "":
		return fmt.Errorf("payload.action is required")
	case e.Payload.Artifacts == nil:
		return fmt.Errorf("payload.artifacts must be present (empty allowed)")
	case e.TraceID == "":
		return fmt.Errorf("trace_id is required")
	}
	return nil
}
