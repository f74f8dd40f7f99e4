package audit

import (
	"time"

	"github.com/google/uuid"
)

// EventStatus is the outcome of the audited action
type EventStatus string

const (
	StatusSuccess EventStatus = "success"
	StatusFailed  EventStatus = "failed"
	StatusPending EventStatus = "pending"
)

// Event is one entry in the automation audit trail
type Event struct {
	ID         uuid.UUID   `json:"id" db:"id"`
	WorkflowID string      `json:"workflow_id" db:"workflow_id"`
	ReturnID   uuid.UUID   `json:"return_id" db:"return_id"`
	Action     string      `json:"action" db:"action"`
	Status     EventStatus `json:"status" db:"status"`
	Details    string      `json:"details" db:"details"`
	Timestamp  time.Time   `json:"timestamp" db:"timestamp"`
}

// ListFilter narrows audit queries
type ListFilter struct {
	ReturnID   *uuid.UUID
	WorkflowID string
	Action     string
	Limit      int
	Offset     int
}
