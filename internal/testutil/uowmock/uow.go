package uowmock

import (
	"context"
	"errors"

	"assistance-backend/internal/domain/assistance"
	"assistance-backend/internal/domain/campaign"
	"assistance-backend/internal/domain/uow"
)

// Ensure compile-time compliance
var _ uow.UnitOfWork = (*UoW)(nil)

var errUnimplemented = errors.New("uowmock: method not implemented")

// UoW is a function-backed mock that satisfies uow.UnitOfWork.
// Fill in the function fields you need in a test; unfilled ones return errUnimplemented.
type UoW struct {
	WithinTxFn           func(ctx context.Context, fn func(r uow.Repos) error) error
	WithinCampaignTxFn   func(ctx context.Context, campaignID string, fn func(r uow.Repos, c *campaign.Campaign) error) error
	WithinAssistanceTxFn func(ctx context.Context, assistanceID string, fn func(r uow.Repos, a *assistance.Record) error) error
}

// Passthrough runs every callback against repos, loading the locked row
// through the repos themselves.
func Passthrough(repos uow.Repos) *UoW {
	return &UoW{
		WithinTxFn: func(ctx context.Context, fn func(uow.Repos) error) error {
			return fn(repos)
		},
		WithinCampaignTxFn: func(ctx context.Context, campaignID string, fn func(uow.Repos, *campaign.Campaign) error) error {
			c, err := repos.Campaigns.GetByCampaignIDForUpdate(ctx, campaignID)
			if err != nil {
				return err
			}
			return fn(repos, c)
		},
		WithinAssistanceTxFn: func(ctx context.Context, assistanceID string, fn func(uow.Repos, *assistance.Record) error) error {
			a, err := repos.Assistances.GetByAssistanceIDForUpdate(ctx, assistanceID)
			if err != nil {
				return err
			}
			return fn(repos, a)
		},
	}
}

func (m *UoW) Reset() { *m = UoW{} }

// Methods implementing UnitOfWork
func (m *UoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	if m.WithinTxFn != nil {
		return m.WithinTxFn(ctx, fn)
	}
	return errUnimplemented
}

func (m *UoW) WithinCampaignTx(ctx context.Context, campaignID string, fn func(r uow.Repos, c *campaign.Campaign) error) error {
	if m.WithinCampaignTxFn != nil {
		return m.WithinCampaignTxFn(ctx, campaignID, fn)
	}
	return errUnimplemented
}

func (m *UoW) WithinAssistanceTx(ctx context.Context, assistanceID string, fn func(r uow.Repos, a *assistance.Record) error) error {
	if m.WithinAssistanceTxFn != nil {
		return m.WithinAssistanceTxFn(ctx, assistanceID, fn)
	}
	return errUnimplemented
}
