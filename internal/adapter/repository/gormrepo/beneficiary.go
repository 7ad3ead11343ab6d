package gormrepo

import (
	"context"

	"gorm.io/gorm"

	"assistance-backend/internal/domain/beneficiary"
	"assistance-backend/pkg/domainerrors"
)

type BeneficiaryRepository struct{ db *gorm.DB }

func NewBeneficiaryRepository(db *gorm.DB) *BeneficiaryRepository {
	return &BeneficiaryRepository{db: db}
}

func (r *BeneficiaryRepository) Create(ctx context.Context, b *beneficiary.Beneficiary) error {
	if b.Version == 0 {
		b.Version = 1
	}
	if err := r.db.WithContext(ctx).Create(b).Error; err != nil {
		return domainerrors.Storage(err, "create beneficiary")
	}
	return nil
}

// GetBeneficiary returns tombstoned entries too; see Beneficiary.Active.
func (r *BeneficiaryRepository) GetBeneficiary(ctx context.Context, beneficiaryID string) (*beneficiary.Beneficiary, error) {
	var out beneficiary.Beneficiary
	if err := r.db.WithContext(ctx).Where("beneficiary_id = ?", beneficiaryID).First(&out).Error; err != nil {
		return nil, lookupErr(err, beneficiary.ErrNotFound, "get beneficiary")
	}
	return &out, nil
}

func (r *BeneficiaryRepository) Update(ctx context.Context, b *beneficiary.Beneficiary) error {
	return versionedUpdate(r.db.WithContext(ctx), b, &b.Version)
}

func (r *BeneficiaryRepository) ListAfter(ctx context.Context, afterID uint64, limit int) ([]beneficiary.Beneficiary, error) {
	var out []beneficiary.Beneficiary
	err := r.db.WithContext(ctx).
		Where("id > ?", afterID).
		Order("id ASC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, domainerrors.Storage(err, "list beneficiaries")
	}
	return out, nil
}
