package campaign

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"assistance-backend/internal/domain/assistance"
	"assistance-backend/internal/domain/audit"
	domain "assistance-backend/internal/domain/campaign"
	"assistance-backend/internal/domain/catalog"
	"assistance-backend/internal/domain/sequence"
	"assistance-backend/internal/domain/uow"
	"assistance-backend/internal/infrastructure/metrics"
	audittrail "assistance-backend/internal/usecase/audit"
	"assistance-backend/internal/usecase/retry"
	"assistance-backend/pkg/clock"
	"assistance-backend/pkg/domainerrors"
	"assistance-backend/pkg/id"
)

var ErrInvalidInput = domainerrors.New(domainerrors.CodeValidation, "invalid campaign input")

// Allocator owns campaign scheduling and the budget check-and-update.
type Allocator struct {
	campaigns   domain.Repository
	assistances assistance.Repository
	uow         uow.UnitOfWork
	catalog     catalog.Catalog
	trail       *audittrail.Trail

	clock   clock.Clock
	metrics *metrics.Metrics
	log     *slog.Logger
	retry   retry.Policy
}

type Option func(*Allocator)

func WithClock(c clock.Clock) Option        { return func(a *Allocator) { a.clock = c } }
func WithMetrics(m *metrics.Metrics) Option { return func(a *Allocator) { a.metrics = m } }
func WithLogger(l *slog.Logger) Option      { return func(a *Allocator) { a.log = l } }
func WithRetryPolicy(p retry.Policy) Option { return func(a *Allocator) { a.retry = p } }

func NewAllocator(campaigns domain.Repository, assistances assistance.Repository, tx uow.UnitOfWork, cat catalog.Catalog, trail *audittrail.Trail, opts ...Option) *Allocator {
	a := &Allocator{
		campaigns:   campaigns,
		assistances: assistances,
		uow:         tx,
		catalog:     cat,
		trail:       trail,
		clock:       clock.System(),
		log:         slog.Default(),
		retry:       retry.DefaultPolicy(),
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

func (a *Allocator) CreateCampaign(ctx context.Context, in CreateCampaignInput, actor string) (*CampaignDTO, error) {
	c, err := a.newCampaign(in, actor)
	if err != nil {
		return nil, err
	}

	err = a.uow.WithinTx(ctx, func(r uow.Repos) error {
		// one schedule check per assistance type at a time
		if err := r.Sequences.Lock(ctx, sequence.CampaignScheduleKey(c.AssistanceType)); err != nil {
			return err
		}
		overlapping, err := r.Campaigns.FindOverlapping(ctx, c.AssistanceType, c.StartDate, c.EndDate)
		if err != nil {
			return err
		}
		if len(overlapping) > 0 {
			return domainerrors.Wrap(domain.ErrScheduleConflict, domainerrors.CodeConflict,
				fmt.Sprintf("overlaps campaign %s", overlapping[0].CampaignID))
		}
		if err := r.Campaigns.Create(ctx, c); err != nil {
			return err
		}
		_, err = a.trail.Record(ctx, r.Audits, audittrail.RecordInput{
			SubjectType: audit.SubjectCampaign,
			SubjectID:   c.CampaignID,
			EventType:   audit.EventCreated,
			Description: "campaign created",
			After:       c,
			ActorID:     actor,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	a.log.InfoContext(ctx, "campaign created",
		"campaign_id", c.CampaignID, "assistance_type", c.AssistanceType, "actor", actor)
	return toDTO(c), nil
}

func (a *Allocator) newCampaign(in CreateCampaignInput, actor string) (*domain.Campaign, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" || strings.TrimSpace(actor) == "" {
		return nil, ErrInvalidInput
	}
	if _, ok := a.catalog.Lookup(in.AssistanceType); !ok {
		return nil, assistance.ErrUnknownType
	}
	start, end := clock.Date(in.StartDate), clock.Date(in.EndDate)
	if in.StartDate.IsZero() || in.EndDate.IsZero() || !end.After(start) {
		return nil, domain.ErrInvalidWindow
	}
	if in.Budget.IsNegative() || in.UnitPrice.IsNegative() || in.PlannedParticipants < 0 {
		return nil, domain.ErrInvalidBudget
	}
	return &domain.Campaign{
		CampaignID:          id.NewID32(),
		Name:                name,
		AssistanceType:      in.AssistanceType,
		StartDate:           start,
		EndDate:             end,
		Budget:              in.Budget,
		BudgetConsumed:      decimal.Zero,
		UnitPrice:           in.UnitPrice,
		PlannedParticipants: in.PlannedParticipants,
		Status:              domain.StatusActive,
		CreatedBy:           actor,
		Version:             1,
	}, nil
}

// ReserveBudget consumes amount from the campaign under its row lock.
func (a *Allocator) ReserveBudget(ctx context.Context, campaignID string, amount decimal.Decimal, actor string) (*CampaignDTO, error) {
	var out *CampaignDTO
	err := a.withRetry(ctx, func() error {
		return a.uow.WithinCampaignTx(ctx, campaignID, func(r uow.Repos, c *domain.Campaign) error {
			if c.Tombstoned || c.Status == domain.StatusCancelled {
				return domain.ErrInactive
			}
			if err := a.ReserveInTx(ctx, r, c, amount, actor, "budget reserved"); err != nil {
				return err
			}
			out = toDTO(c)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ReleaseBudget gives amount back; consumption never drops below zero.
func (a *Allocator) ReleaseBudget(ctx context.Context, campaignID string, amount decimal.Decimal, actor string) (*CampaignDTO, error) {
	var out *CampaignDTO
	err := a.withRetry(ctx, func() error {
		return a.uow.WithinCampaignTx(ctx, campaignID, func(r uow.Repos, c *domain.Campaign) error {
			if _, err := a.ReleaseInTx(ctx, r, c, amount, actor, "budget released"); err != nil {
				return err
			}
			out = toDTO(c)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ReserveInTx is the check-and-update for callers that already hold the
// campaign row lock inside their own transaction.
func (a *Allocator) ReserveInTx(ctx context.Context, r uow.Repos, c *domain.Campaign, amount decimal.Decimal, actor, note string) error {
	before := *c
	if err := c.Reserve(amount); err != nil {
		if domainerrors.HasCode(err, domainerrors.CodeConflict) {
			a.metrics.IncBudget("exceeded")
			a.log.WarnContext(ctx, "campaign budget exceeded",
				"campaign_id", c.CampaignID, "amount", amount.String(), "remaining", c.Remaining().String())
		}
		return err
	}
	if err := a.persistBudget(ctx, r, &before, c, actor, fmt.Sprintf("%s: %s", note, amount.StringFixed(2))); err != nil {
		*c = before
		return err
	}
	a.metrics.IncBudget("reserved")
	return nil
}

// ReleaseInTx returns what was actually released.
func (a *Allocator) ReleaseInTx(ctx context.Context, r uow.Repos, c *domain.Campaign, amount decimal.Decimal, actor, note string) (decimal.Decimal, error) {
	before := *c
	released, err := c.Release(amount)
	if err != nil {
		return decimal.Zero, err
	}
	if err := a.persistBudget(ctx, r, &before, c, actor, fmt.Sprintf("%s: %s", note, released.StringFixed(2))); err != nil {
		*c = before
		return decimal.Zero, err
	}
	a.metrics.IncBudget("released")
	return released, nil
}

func (a *Allocator) persistBudget(ctx context.Context, r uow.Repos, before, after *domain.Campaign, actor, desc string) error {
	if err := r.Campaigns.Update(ctx, after); err != nil {
		return err
	}
	_, err := a.trail.Record(ctx, r.Audits, audittrail.RecordInput{
		SubjectType: audit.SubjectCampaign,
		SubjectID:   after.CampaignID,
		EventType:   audit.EventModified,
		Description: desc,
		Before:      before,
		After:       after,
		ActorID:     actor,
	})
	return err
}

// CanAcceptMoreParticipants is advisory. Zero planned participants means no cap.
func (a *Allocator) CanAcceptMoreParticipants(ctx context.Context, campaignID string) (bool, error) {
	c, err := a.live(ctx, campaignID)
	if err != nil {
		return false, err
	}
	if c.PlannedParticipants == 0 {
		return true, nil
	}
	n, err := a.assistances.CountCampaignBeneficiaries(ctx, campaignID)
	if err != nil {
		return false, err
	}
	return n < int64(c.PlannedParticipants), nil
}

func (a *Allocator) GetCampaign(ctx context.Context, campaignID string) (*CampaignDTO, error) {
	c, err := a.live(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	return toDTO(c), nil
}

func (a *Allocator) RemainingBudget(ctx context.Context, campaignID string) (decimal.Decimal, error) {
	c, err := a.live(ctx, campaignID)
	if err != nil {
		return decimal.Zero, err
	}
	return c.Remaining(), nil
}

func (a *Allocator) ChangeStatus(ctx context.Context, campaignID string, next domain.Status, actor string) (*CampaignDTO, error) {
	var out *CampaignDTO
	err := a.withRetry(ctx, func() error {
		return a.uow.WithinCampaignTx(ctx, campaignID, func(r uow.Repos, c *domain.Campaign) error {
			before := *c
			if err := c.TransitionTo(next); err != nil {
				return err
			}
			if err := r.Campaigns.Update(ctx, c); err != nil {
				return err
			}
			_, err := a.trail.Record(ctx, r.Audits, audittrail.RecordInput{
				SubjectType: audit.SubjectCampaign,
				SubjectID:   c.CampaignID,
				EventType:   audit.EventStatusChanged,
				Description: fmt.Sprintf("status %s -> %s", before.Status, c.Status),
				Before:      &before,
				After:       c,
				ActorID:     actor,
			})
			out = toDTO(c)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Tombstone soft-deletes the campaign. Its window stops blocking new
// campaigns of the same type.
func (a *Allocator) Tombstone(ctx context.Context, campaignID, actor string) error {
	return a.withRetry(ctx, func() error {
		return a.uow.WithinCampaignTx(ctx, campaignID, func(r uow.Repos, c *domain.Campaign) error {
			if c.Tombstoned {
				return domain.ErrInactive
			}
			before := *c
			c.Tombstone(actor, a.clock.Now())
			if err := r.Campaigns.Update(ctx, c); err != nil {
				return err
			}
			_, err := a.trail.Record(ctx, r.Audits, audittrail.RecordInput{
				SubjectType: audit.SubjectCampaign,
				SubjectID:   c.CampaignID,
				EventType:   audit.EventModified,
				Description: "campaign deleted",
				Before:      &before,
				After:       c,
				ActorID:     actor,
			})
			return err
		})
	})
}

func (a *Allocator) live(ctx context.Context, campaignID string) (*domain.Campaign, error) {
	c, err := a.campaigns.GetByCampaignID(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if c.Tombstoned {
		return nil, domain.ErrNotFound
	}
	return c, nil
}

func (a *Allocator) withRetry(ctx context.Context, op func() error) error {
	return retry.OnStaleWrite(ctx, a.retry, func(err error) {
		a.metrics.IncBudgetRetry()
		a.log.DebugContext(ctx, "campaign write retried", "error", err)
	}, op)
}
