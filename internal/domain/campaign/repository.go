package campaign

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, c *Campaign) error
	// GetByCampaignID returns tombstoned campaigns too; callers decide.
	GetByCampaignID(ctx context.Context, campaignID string) (*Campaign, error)
	GetByCampaignIDForUpdate(ctx context.Context, campaignID string) (*Campaign, error)
	// FindOverlapping lists schedulable campaigns of the type whose window
	// intersects [start, end].
	FindOverlapping(ctx context.Context, assistanceType string, start, end time.Time) ([]Campaign, error)
	// Update is a versioned write; it fails with domainerrors.ErrStaleWrite
	// when c.Version no longer matches and bumps c.Version on success.
	Update(ctx context.Context, c *Campaign) error
}
