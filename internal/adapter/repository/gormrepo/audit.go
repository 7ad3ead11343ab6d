package gormrepo

import (
	"context"

	"gorm.io/gorm"

	"assistance-backend/internal/domain/audit"
	"assistance-backend/pkg/domainerrors"
)

type AuditRepository struct{ db *gorm.DB }

func NewAuditRepository(db *gorm.DB) *AuditRepository { return &AuditRepository{db: db} }

// Append runs in its own nested transaction: a savepoint when the repository
// is bound to an open tx, so a failed insert leaves the outer tx usable.
func (r *AuditRepository) Append(ctx context.Context, e *audit.Event) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(e).Error
	})
	if err != nil {
		return domainerrors.Storage(err, "append audit event")
	}
	return nil
}

func (r *AuditRepository) ListBySubject(ctx context.Context, subjectID string) ([]audit.Event, error) {
	var out []audit.Event
	err := r.db.WithContext(ctx).
		Where("subject_id = ?", subjectID).
		Order("created_at ASC, id ASC").
		Find(&out).Error
	if err != nil {
		return nil, domainerrors.Storage(err, "list audit events")
	}
	return out, nil
}
