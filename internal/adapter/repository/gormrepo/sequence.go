package gormrepo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"assistance-backend/internal/domain/sequence"
	"assistance-backend/pkg/domainerrors"
)

type SequenceRepository struct{ db *gorm.DB }

func NewSequenceRepository(db *gorm.DB) *SequenceRepository { return &SequenceRepository{db: db} }

func (r *SequenceRepository) lock(ctx context.Context, name string, seed int64) (*sequence.Sequence, error) {
	db := r.db.WithContext(ctx)
	err := db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&sequence.Sequence{Name: name, Value: seed}).Error
	if err != nil {
		return nil, domainerrors.Storage(err, "ensure sequence "+name)
	}
	var s sequence.Sequence
	if err := db.Clauses(forUpdate).Where("name = ?", name).First(&s).Error; err != nil {
		return nil, domainerrors.Storage(err, "lock sequence "+name)
	}
	return &s, nil
}

func (r *SequenceRepository) Next(ctx context.Context, name string, seed int64) (int64, error) {
	s, err := r.lock(ctx, name, seed)
	if err != nil {
		return 0, err
	}
	next := s.Value + 1
	err = r.db.WithContext(ctx).
		Model(&sequence.Sequence{}).
		Where("name = ?", name).
		Update("value", next).Error
	if err != nil {
		return 0, domainerrors.Storage(err, "advance sequence "+name)
	}
	return next, nil
}

func (r *SequenceRepository) Lock(ctx context.Context, name string) error {
	_, err := r.lock(ctx, name, 0)
	return err
}
