package audit

import (
	"time"

	domain "assistance-backend/internal/domain/audit"
)

type RecordInput struct {
	SubjectType domain.SubjectType
	SubjectID   string
	EventType   domain.EventType
	Description string
	// Before and After are marshalled to JSON; nil is stored as empty.
	Before  any
	After   any
	ActorID string
}

type EventDTO struct {
	EventID     string    `json:"event_id"`
	SubjectType string    `json:"subject_type"`
	SubjectID   string    `json:"subject_id"`
	EventType   string    `json:"event_type"`
	Description string    `json:"description"`
	Before      any       `json:"before,omitempty"`
	After       any       `json:"after,omitempty"`
	ActorID     string    `json:"actor_id"`
	CreatedAt   time.Time `json:"created_at"`
}
