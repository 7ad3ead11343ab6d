package gormrepo

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"assistance-backend/internal/domain/assistance"
	"assistance-backend/pkg/clock"
	"assistance-backend/pkg/domainerrors"
)

type AssistanceRepository struct{ db *gorm.DB }

func NewAssistanceRepository(db *gorm.DB) *AssistanceRepository {
	return &AssistanceRepository{db: db}
}

func (r *AssistanceRepository) Create(ctx context.Context, a *assistance.Record) error {
	if a.Version == 0 {
		a.Version = 1
	}
	if err := r.db.WithContext(ctx).Create(a).Error; err != nil {
		return domainerrors.Storage(err, "create assistance")
	}
	return nil
}

func (r *AssistanceRepository) GetByAssistanceID(ctx context.Context, assistanceID string) (*assistance.Record, error) {
	var out assistance.Record
	if err := r.db.WithContext(ctx).Where("assistance_id = ?", assistanceID).First(&out).Error; err != nil {
		return nil, lookupErr(err, assistance.ErrNotFound, "get assistance")
	}
	return &out, nil
}

func (r *AssistanceRepository) GetByAssistanceIDForUpdate(ctx context.Context, assistanceID string) (*assistance.Record, error) {
	var out assistance.Record
	err := r.db.WithContext(ctx).
		Clauses(forUpdate).
		Where("assistance_id = ?", assistanceID).
		First(&out).Error
	if err != nil {
		return nil, lookupErr(err, assistance.ErrNotFound, "lock assistance")
	}
	return &out, nil
}

func (r *AssistanceRepository) Update(ctx context.Context, a *assistance.Record) error {
	return versionedUpdate(r.db.WithContext(ctx), a, &a.Version)
}

// MaxCaseSequence counts tombstoned records too so numbers are never reused.
func (r *AssistanceRepository) MaxCaseSequence(ctx context.Context, year int) (int64, error) {
	var nums []string
	err := r.db.WithContext(ctx).
		Model(&assistance.Record{}).
		Where("case_number LIKE ?", fmt.Sprintf("%04d%%", year)).
		Order("LENGTH(case_number) DESC, case_number DESC").
		Limit(1).
		Pluck("case_number", &nums).Error
	if err != nil {
		return 0, domainerrors.Storage(err, "max case number")
	}
	if len(nums) == 0 {
		return 0, nil
	}
	seq, ok := assistance.CaseSequence(nums[0], year)
	if !ok {
		return 0, nil
	}
	return seq, nil
}

func (r *AssistanceRepository) ListOpenLoans(ctx context.Context, assistanceType string, dueBefore time.Time) ([]assistance.Record, error) {
	var out []assistance.Record
	err := r.db.WithContext(ctx).
		Where("assistance_type = ? AND tombstoned = ? AND rejected = ? AND returned = ?", assistanceType, false, false, false).
		Where("due_date IS NOT NULL AND due_date < ?", clock.Date(dueBefore)).
		Order("due_date ASC, id ASC").
		Find(&out).Error
	if err != nil {
		return nil, domainerrors.Storage(err, "list open loans")
	}
	return out, nil
}

func (r *AssistanceRepository) CountCampaignBeneficiaries(ctx context.Context, campaignID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&assistance.Record{}).
		Where("campaign_id = ? AND tombstoned = ? AND rejected = ?", campaignID, false, false).
		Distinct("beneficiary_id").
		Count(&n).Error
	if err != nil {
		return 0, domainerrors.Storage(err, "count campaign beneficiaries")
	}
	return n, nil
}
