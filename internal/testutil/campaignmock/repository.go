package campaignmock

import (
	"context"
	"time"

	domain "assistance-backend/internal/domain/campaign"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
// Unset lookups report ErrNotFound; unset writes succeed.
type Repo struct {
	CreateFn                   func(ctx context.Context, c *domain.Campaign) error
	GetByCampaignIDFn          func(ctx context.Context, campaignID string) (*domain.Campaign, error)
	GetByCampaignIDForUpdateFn func(ctx context.Context, campaignID string) (*domain.Campaign, error)
	FindOverlappingFn          func(ctx context.Context, assistanceType string, start, end time.Time) ([]domain.Campaign, error)
	UpdateFn                   func(ctx context.Context, c *domain.Campaign) error
}

func (m *Repo) Create(ctx context.Context, c *domain.Campaign) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, c)
	}
	return nil
}

func (m *Repo) GetByCampaignID(ctx context.Context, campaignID string) (*domain.Campaign, error) {
	if m.GetByCampaignIDFn != nil {
		return m.GetByCampaignIDFn(ctx, campaignID)
	}
	return nil, domain.ErrNotFound
}

func (m *Repo) GetByCampaignIDForUpdate(ctx context.Context, campaignID string) (*domain.Campaign, error) {
	if m.GetByCampaignIDForUpdateFn != nil {
		return m.GetByCampaignIDForUpdateFn(ctx, campaignID)
	}
	return nil, domain.ErrNotFound
}

func (m *Repo) FindOverlapping(ctx context.Context, assistanceType string, start, end time.Time) ([]domain.Campaign, error) {
	if m.FindOverlappingFn != nil {
		return m.FindOverlappingFn(ctx, assistanceType, start, end)
	}
	return nil, nil
}

func (m *Repo) Update(ctx context.Context, c *domain.Campaign) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, c)
	}
	c.Version++
	return nil
}
