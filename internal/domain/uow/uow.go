package uow

import (
	"context"

	"assistance-backend/internal/domain/assistance"
	"assistance-backend/internal/domain/audit"
	"assistance-backend/internal/domain/beneficiary"
	"assistance-backend/internal/domain/campaign"
	"assistance-backend/internal/domain/sequence"
)

// domain/uow/uow.go
type Repos struct {
	Campaigns     campaign.Repository
	Assistances   assistance.Repository
	Audits        audit.Repository
	Beneficiaries beneficiary.Repository
	Sequences     sequence.Repository
}

type UnitOfWork interface {
	// plain tx
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// lock the campaign row first, then pass it in
	WithinCampaignTx(ctx context.Context, campaignID string, fn func(r Repos, c *campaign.Campaign) error) error
	// same for one assistance record
	WithinAssistanceTx(ctx context.Context, assistanceID string, fn func(r Repos, a *assistance.Record) error) error
}
