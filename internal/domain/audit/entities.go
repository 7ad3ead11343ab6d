package audit

import (
	"context"
	"time"

	"assistance-backend/pkg/domainerrors"
)

type EventType string

const (
	EventCreated       EventType = "created"
	EventModified      EventType = "modified"
	EventValidated     EventType = "validated"
	EventRejected      EventType = "rejected"
	EventPaid          EventType = "paid"
	EventCompleted     EventType = "completed"
	EventReminder      EventType = "reminder"
	EventFeedback      EventType = "feedback"
	EventDocumentAdded EventType = "document_added"
	EventStatusChanged EventType = "status_changed"
)

// Critical events move money or decide a case; losing one is treated as
// losing the transition itself.
func (t EventType) Critical() bool {
	switch t {
	case EventCreated, EventValidated, EventRejected, EventPaid:
		return true
	}
	return false
}

type SubjectType string

const (
	SubjectAssistance  SubjectType = "assistance"
	SubjectCampaign    SubjectType = "campaign"
	SubjectBeneficiary SubjectType = "beneficiary"
)

var ErrInvalidEvent = domainerrors.New(domainerrors.CodeValidation, "audit event needs a subject, a type and an actor")

// Event is append-only. Before and After hold JSON snapshots of the subject.
type Event struct {
	ID          uint64      `gorm:"primaryKey;column:id" json:"-"`
	EventID     string      `gorm:"column:event_id;size:32;not null;uniqueIndex:ux_audit_events_event_id" json:"event_id"`
	SubjectType SubjectType `gorm:"column:subject_type;size:16;not null" json:"subject_type"`
	SubjectID   string      `gorm:"column:subject_id;size:32;not null;index:idx_audit_events_subject,priority:1" json:"subject_id"`
	EventType   EventType   `gorm:"column:event_type;size:32;not null" json:"event_type"`
	Description string      `gorm:"column:description;type:text" json:"description"`
	Before      string      `gorm:"column:before_snapshot;type:text" json:"before,omitempty"`
	After       string      `gorm:"column:after_snapshot;type:text" json:"after,omitempty"`
	ActorID     string      `gorm:"column:actor_id;size:32;not null" json:"actor_id"`
	CreatedAt   time.Time   `gorm:"column:created_at;not null;index:idx_audit_events_subject,priority:2" json:"created_at"`
}

func (Event) TableName() string { return "audit_events" }

type Repository interface {
	Append(ctx context.Context, e *Event) error
	// ListBySubject is oldest first.
	ListBySubject(ctx context.Context, subjectID string) ([]Event, error)
}
