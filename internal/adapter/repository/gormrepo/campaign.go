package gormrepo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"assistance-backend/internal/domain/campaign"
	"assistance-backend/pkg/clock"
	"assistance-backend/pkg/domainerrors"
)

type CampaignRepository struct{ db *gorm.DB }

func NewCampaignRepository(db *gorm.DB) *CampaignRepository { return &CampaignRepository{db: db} }

func (r *CampaignRepository) Create(ctx context.Context, c *campaign.Campaign) error {
	if c.Version == 0 {
		c.Version = 1
	}
	if err := r.db.WithContext(ctx).Create(c).Error; err != nil {
		return domainerrors.Storage(err, "create campaign")
	}
	return nil
}

func (r *CampaignRepository) GetByCampaignID(ctx context.Context, campaignID string) (*campaign.Campaign, error) {
	var out campaign.Campaign
	if err := r.db.WithContext(ctx).Where("campaign_id = ?", campaignID).First(&out).Error; err != nil {
		return nil, lookupErr(err, campaign.ErrNotFound, "get campaign")
	}
	return &out, nil
}

// GetByCampaignIDForUpdate takes the row lock (SELECT ... FOR UPDATE).
func (r *CampaignRepository) GetByCampaignIDForUpdate(ctx context.Context, campaignID string) (*campaign.Campaign, error) {
	var out campaign.Campaign
	err := r.db.WithContext(ctx).
		Clauses(forUpdate).
		Where("campaign_id = ?", campaignID).
		First(&out).Error
	if err != nil {
		return nil, lookupErr(err, campaign.ErrNotFound, "lock campaign")
	}
	return &out, nil
}

func (r *CampaignRepository) FindOverlapping(ctx context.Context, assistanceType string, start, end time.Time) ([]campaign.Campaign, error) {
	var out []campaign.Campaign
	err := r.db.WithContext(ctx).
		Where("assistance_type = ? AND tombstoned = ? AND status <> ?", assistanceType, false, campaign.StatusCancelled).
		Where("start_date <= ? AND end_date >= ?", clock.Date(end), clock.Date(start)).
		Order("start_date ASC, id ASC").
		Find(&out).Error
	if err != nil {
		return nil, domainerrors.Storage(err, "find overlapping campaigns")
	}
	return out, nil
}

func (r *CampaignRepository) Update(ctx context.Context, c *campaign.Campaign) error {
	return versionedUpdate(r.db.WithContext(ctx), c, &c.Version)
}
