// internal/notify/notify.go
package notify

import (
	"context"
	"time"
)

// Event types emitted by the engine.
const (
	TypeApplicationSubmitted = "application_submitted"
	TypeApplicationSkipped   = "application_skipped"
	TypeApplicationFailed    = "application_failed"
	TypeCredentialReset      = "credential_reset"
	TypeBatchCompleted       = "batch_completed"
)

// Priorities. SMS is only attempted for high-priority events.
const (
	PriorityNormal = "normal"
	PriorityHigh   = "high"
)

// Event is one user-facing notification. Metadata values are rendered
// into the template body.
type Event struct {
	Type      string                 `json:"type"`
	Recipient string                 `json:"recipient"`
	Phone     string                 `json:"phone,omitempty"`
	Priority  string                 `json:"priority,omitempty"`
	JobID     string                 `json:"jobId,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// Dispatcher delivers events. Implementations may fail; callers that
// must not be affected by delivery problems wrap with BestEffort.
type Dispatcher interface {
	Dispatch(ctx context.Context, event Event) error
}
