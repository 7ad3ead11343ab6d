package assistancemock

import (
	"context"
	"time"

	domain "assistance-backend/internal/domain/assistance"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
type Repo struct {
	CreateFn                     func(ctx context.Context, r *domain.Record) error
	GetByAssistanceIDFn          func(ctx context.Context, assistanceID string) (*domain.Record, error)
	GetByAssistanceIDForUpdateFn func(ctx context.Context, assistanceID string) (*domain.Record, error)
	UpdateFn                     func(ctx context.Context, r *domain.Record) error
	MaxCaseSequenceFn            func(ctx context.Context, year int) (int64, error)
	ListOpenLoansFn              func(ctx context.Context, assistanceType string, dueBefore time.Time) ([]domain.Record, error)
	CountCampaignBeneficiariesFn func(ctx context.Context, campaignID string) (int64, error)
}

func (m *Repo) Create(ctx context.Context, r *domain.Record) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, r)
	}
	return nil
}

func (m *Repo) GetByAssistanceID(ctx context.Context, assistanceID string) (*domain.Record, error) {
	if m.GetByAssistanceIDFn != nil {
		return m.GetByAssistanceIDFn(ctx, assistanceID)
	}
	return nil, domain.ErrNotFound
}

func (m *Repo) GetByAssistanceIDForUpdate(ctx context.Context, assistanceID string) (*domain.Record, error) {
	if m.GetByAssistanceIDForUpdateFn != nil {
		return m.GetByAssistanceIDForUpdateFn(ctx, assistanceID)
	}
	return nil, domain.ErrNotFound
}

func (m *Repo) Update(ctx context.Context, r *domain.Record) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, r)
	}
	r.Version++
	return nil
}

func (m *Repo) MaxCaseSequence(ctx context.Context, year int) (int64, error) {
	if m.MaxCaseSequenceFn != nil {
		return m.MaxCaseSequenceFn(ctx, year)
	}
	return 0, nil
}

func (m *Repo) ListOpenLoans(ctx context.Context, assistanceType string, dueBefore time.Time) ([]domain.Record, error) {
	if m.ListOpenLoansFn != nil {
		return m.ListOpenLoansFn(ctx, assistanceType, dueBefore)
	}
	return nil, nil
}

func (m *Repo) CountCampaignBeneficiaries(ctx context.Context, campaignID string) (int64, error) {
	if m.CountCampaignBeneficiariesFn != nil {
		return m.CountCampaignBeneficiariesFn(ctx, campaignID)
	}
	return 0, nil
}
