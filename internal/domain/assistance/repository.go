package assistance

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, r *Record) error
	GetByAssistanceID(ctx context.Context, assistanceID string) (*Record, error)
	GetByAssistanceIDForUpdate(ctx context.Context, assistanceID string) (*Record, error)
	// Update fails with domainerrors.ErrStaleWrite when r.Version is outdated.
	Update(ctx context.Context, r *Record) error
	// MaxCaseSequence is the highest sequence already used for the year, 0 if none.
	MaxCaseSequence(ctx context.Context, year int) (int64, error)
	// ListOpenLoans returns live, unreturned records of the type whose due
	// date is strictly before the given day.
	ListOpenLoans(ctx context.Context, assistanceType string, dueBefore time.Time) ([]Record, error)
	// CountCampaignBeneficiaries counts distinct beneficiaries holding a live,
	// non-rejected record in the campaign.
	CountCampaignBeneficiaries(ctx context.Context, campaignID string) (int64, error)
}
