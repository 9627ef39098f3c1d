package models

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNoMessage is returned when the queue is empty
var ErrNoMessage = errors.New("no messages in queue")

// QueueMessage is the work descriptor stored in the queue.
// Keep it small - just enough to route the job. Kind-specific arguments
// ride in Payload and are decoded by the handler.
type QueueMessage struct {
	JobID   string          `json:"job_id"`
	Kind    JobKind         `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// NewQueueMessage builds a message for a job with a kind-specific payload.
func NewQueueMessage(jobID string, kind JobKind, payload interface{}) (*QueueMessage, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return &QueueMessage{
		JobID:   jobID,
		Kind:    kind,
		Payload: data,
	}, nil
}

// ToJSON serializes the message for queue storage.
func (m *QueueMessage) ToJSON() ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal queue message: %w", err)
	}
	return data, nil
}

// QueueMessageFromJSON deserializes a message received from the queue.
func QueueMessageFromJSON(data []byte) (*QueueMessage, error) {
	var msg QueueMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal queue message: %w", err)
	}
	if msg.Kind == "" {
		return nil, fmt.Errorf("queue message kind is required")
	}
	return &msg, nil
}
