package events

import (
	"time"

	"github.com/spec-kit/tokenchain/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventStageCompleted EventType = "stage_completed"
	EventStageFailed    EventType = "stage_failed"
	EventRunFinished    EventType = "run_finished"
)

// Event represents something the chain reports while it runs.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	RunID     string      `json:"run_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// StagePayload is attached to stage_completed and stage_failed.
type StagePayload struct {
	Result domain.StageResult `json:"result"`
}

// RunFinishedPayload payload.
type RunFinishedPayload struct {
	State     domain.RunState `json:"state"`
	ErrorCode string          `json:"error_code,omitempty"`
}
