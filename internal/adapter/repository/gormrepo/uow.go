package gormrepo

import (
	"context"

	"gorm.io/gorm"

	"assistance-backend/internal/domain/assistance"
	"assistance-backend/internal/domain/campaign"
	"assistance-backend/internal/domain/uow"
)

type GormUoW struct{ db *gorm.DB }

func NewGormUoW(db *gorm.DB) *GormUoW { return &GormUoW{db: db} }

func reposFor(tx *gorm.DB) uow.Repos {
	return uow.Repos{
		Campaigns:     &CampaignRepository{db: tx},
		Assistances:   &AssistanceRepository{db: tx},
		Audits:        &AuditRepository{db: tx},
		Beneficiaries: &BeneficiaryRepository{db: tx},
		Sequences:     &SequenceRepository{db: tx},
	}
}

func (u *GormUoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(reposFor(tx))
	})
}

func (u *GormUoW) WithinCampaignTx(ctx context.Context, campaignID string, fn func(r uow.Repos, c *campaign.Campaign) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r := reposFor(tx)
		// lock the campaign row up-front to prevent races
		c, err := r.Campaigns.GetByCampaignIDForUpdate(ctx, campaignID)
		if err != nil {
			return err
		}
		return fn(r, c)
	})
}

func (u *GormUoW) WithinAssistanceTx(ctx context.Context, assistanceID string, fn func(r uow.Repos, a *assistance.Record) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r := reposFor(tx)
		a, err := r.Assistances.GetByAssistanceIDForUpdate(ctx, assistanceID)
		if err != nil {
			return err
		}
		return fn(r, a)
	})
}
