package assistance

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	domain "assistance-backend/internal/domain/assistance"
	"assistance-backend/internal/domain/audit"
	"assistance-backend/internal/domain/beneficiary"
	"assistance-backend/internal/domain/catalog"
	"assistance-backend/internal/domain/decision"
	"assistance-backend/internal/domain/equipment"
	"assistance-backend/internal/domain/sequence"
	"assistance-backend/internal/domain/uow"
	"assistance-backend/internal/infrastructure/metrics"
	audittrail "assistance-backend/internal/usecase/audit"
	campaignuc "assistance-backend/internal/usecase/campaign"
	equipmentuc "assistance-backend/internal/usecase/equipment"
	"assistance-backend/internal/usecase/retry"
	"assistance-backend/pkg/clock"
	"assistance-backend/pkg/domainerrors"
	"assistance-backend/pkg/id"
)

// Lifecycle drives an assistance record from registration to completion.
// Every transition locks the record, checks its version and writes exactly
// one audit event for it in the same transaction.
type Lifecycle struct {
	assistances domain.Repository
	uow         uow.UnitOfWork
	directory   beneficiary.Directory
	catalog     catalog.Catalog
	allocator   *campaignuc.Allocator
	tracker     *equipmentuc.Tracker
	trail       *audittrail.Trail

	clock               clock.Clock
	metrics             *metrics.Metrics
	log                 *slog.Logger
	retry               retry.Policy
	reminderConcurrency int
}

type Option func(*Lifecycle)

func WithClock(c clock.Clock) Option        { return func(l *Lifecycle) { l.clock = c } }
func WithMetrics(m *metrics.Metrics) Option { return func(l *Lifecycle) { l.metrics = m } }
func WithLogger(lg *slog.Logger) Option     { return func(l *Lifecycle) { l.log = lg } }
func WithRetryPolicy(p retry.Policy) Option { return func(l *Lifecycle) { l.retry = p } }
func WithReminderConcurrency(n int) Option  { return func(l *Lifecycle) { l.reminderConcurrency = n } }

func NewLifecycle(
	assistances domain.Repository,
	tx uow.UnitOfWork,
	directory beneficiary.Directory,
	cat catalog.Catalog,
	allocator *campaignuc.Allocator,
	tracker *equipmentuc.Tracker,
	trail *audittrail.Trail,
	opts ...Option,
) *Lifecycle {
	l := &Lifecycle{
		assistances:         assistances,
		uow:                 tx,
		directory:           directory,
		catalog:             cat,
		allocator:           allocator,
		tracker:             tracker,
		trail:               trail,
		clock:               clock.System(),
		log:                 slog.Default(),
		retry:               retry.DefaultPolicy(),
		reminderConcurrency: 8,
	}
	for _, o := range opts {
		o(l)
	}
	if l.tracker == nil {
		l.tracker = equipmentuc.NewTracker(l.clock)
	}
	if l.reminderConcurrency < 1 {
		l.reminderConcurrency = 1
	}
	return l
}

func (l *Lifecycle) Create(ctx context.Context, in CreateInput, actor string) (*AssistanceDTO, error) {
	if strings.TrimSpace(actor) == "" {
		return nil, domain.ErrInvalidInput
	}
	// directory and catalog are read before the transaction opens
	b, err := l.directory.GetBeneficiary(ctx, in.BeneficiaryID)
	if err != nil {
		return nil, err
	}
	if !b.Active() {
		return nil, domain.ErrBeneficiaryInactive
	}
	draft, err := l.draft(in, actor)
	if err != nil {
		return nil, err
	}

	var created *domain.Record
	err = retry.OnStaleWrite(ctx, l.retry, l.onRetry(ctx), func() error {
		rec := *draft
		return l.uow.WithinTx(ctx, func(r uow.Repos) error {
			if rec.CampaignID != nil {
				if err := l.attachCampaign(ctx, r, &rec, actor); err != nil {
					return err
				}
			}
			year := l.clock.Now().Year()
			seed, err := r.Assistances.MaxCaseSequence(ctx, year)
			if err != nil {
				return err
			}
			seq, err := r.Sequences.Next(ctx, sequence.CaseNumberKey(year), seed)
			if err != nil {
				return err
			}
			rec.CaseNumber = domain.FormatCaseNumber(year, seq)

			if err := r.Assistances.Create(ctx, &rec); err != nil {
				return err
			}
			if _, err := l.trail.Record(ctx, r.Audits, audittrail.RecordInput{
				SubjectType: audit.SubjectAssistance,
				SubjectID:   rec.AssistanceID,
				EventType:   audit.EventCreated,
				Description: "assistance " + rec.CaseNumber + " registered",
				After:       &rec,
				ActorID:     actor,
			}); err != nil {
				return err
			}
			created = &rec
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	l.metrics.IncTransition(string(audit.EventCreated))
	l.log.InfoContext(ctx, "assistance created",
		"assistance_id", created.AssistanceID, "case_number", created.CaseNumber, "actor", actor)
	return l.toDTO(created, l.clock.Now()), nil
}

// draft validates the input and builds the record without touching storage.
func (l *Lifecycle) draft(in CreateInput, actor string) (*domain.Record, error) {
	t, ok := l.catalog.Lookup(in.AssistanceType)
	if !ok {
		return nil, domain.ErrUnknownType
	}
	detail := strings.TrimSpace(in.TypeDetailID)
	if !l.catalog.Coherent(t.Tag, detail) {
		return nil, domain.ErrIncoherentDetail
	}
	dec, err := decision.Normalize(in.Decision)
	if err != nil {
		return nil, err
	}
	if in.Amount.IsNegative() {
		return nil, domainerrors.Wrap(domain.ErrInvalidInput, domainerrors.CodeValidation, "amount must not be negative")
	}
	priority := domain.Priority(strings.TrimSpace(in.Priority))
	if priority == "" {
		priority = domain.PriorityNormal
	}
	if !priority.Valid() {
		return nil, domainerrors.Wrap(domain.ErrInvalidInput, domainerrors.CodeValidation, "unknown priority")
	}
	date := in.AssistanceDate
	if date.IsZero() {
		date = l.clock.Now()
	}

	rec := &domain.Record{
		AssistanceID:   id.NewID32(),
		BeneficiaryID:  in.BeneficiaryID,
		AssistanceType: t.Tag,
		AssistanceDate: clock.Date(date),
		Amount:         in.Amount,
		ReservedAmount: decimal.Zero,
		Priority:       priority,
		Observations:   strings.TrimSpace(in.Observations),
		Decision:       dec,
		CreatedBy:      actor,
		Version:        1,
	}
	if detail != "" {
		rec.TypeDetailID = &detail
	}
	if cid := strings.TrimSpace(in.CampaignID); cid != "" {
		rec.CampaignID = &cid
	}

	if t.Equipment {
		rec.NatureTag = strings.TrimSpace(in.NatureTag)
		rec.SetPerformer(in.PerformedBySelf, in.PerformedByStaff)
		rec.LoanDurationDays = in.LoanDurationDays
		if err := rec.ValidateTerms(rec.AssistanceType); err != nil {
			return nil, err
		}
		rec.ApplyTerms(rec.AssistanceDate)
	} else if in.LoanDurationDays != nil {
		return nil, domainerrors.Wrap(domain.ErrInvalidInput, domainerrors.CodeValidation, "loan duration only applies to equipment")
	}
	return rec, nil
}

// attachCampaign locks the campaign, checks it accepts the record and
// reserves the record's amount (or the campaign unit price for in-kind aid).
func (l *Lifecycle) attachCampaign(ctx context.Context, r uow.Repos, rec *domain.Record, actor string) error {
	c, err := r.Campaigns.GetByCampaignIDForUpdate(ctx, *rec.CampaignID)
	if err != nil {
		return err
	}
	if err := c.AcceptsAssistanceOn(rec.AssistanceDate); err != nil {
		return err
	}
	if c.AssistanceType != rec.AssistanceType {
		return domain.ErrCampaignTypeMismatch
	}
	amount := rec.Amount
	if !amount.IsPositive() {
		amount = c.UnitPrice
	}
	if !amount.IsPositive() {
		return nil
	}
	if err := l.allocator.ReserveInTx(ctx, r, c, amount, actor, "reserved for assistance "+rec.AssistanceID); err != nil {
		return err
	}
	rec.ReservedAmount = amount
	return nil
}

func (l *Lifecycle) Validate(ctx context.Context, assistanceID, actor, comment string) (*AssistanceDTO, error) {
	return l.transition(ctx, assistanceID, actor, audit.EventValidated, "assistance validated",
		func(_ uow.Repos, rec *domain.Record, now time.Time) error {
			return rec.Validate(actor, comment, now)
		})
}

// Reject also gives any reserved budget back to the campaign.
func (l *Lifecycle) Reject(ctx context.Context, assistanceID, actor, reason string) (*AssistanceDTO, error) {
	return l.transition(ctx, assistanceID, actor, audit.EventRejected, "assistance rejected",
		func(r uow.Repos, rec *domain.Record, now time.Time) error {
			if err := rec.Reject(actor, reason, now); err != nil {
				return err
			}
			return l.releaseReserved(ctx, r, rec, actor, "released by rejection")
		})
}

func (l *Lifecycle) RecordPayment(ctx context.Context, assistanceID string, in PaymentInput, actor string) (*AssistanceDTO, error) {
	return l.transition(ctx, assistanceID, actor, audit.EventPaid, "payment recorded",
		func(_ uow.Repos, rec *domain.Record, now time.Time) error {
			mode := domain.PaymentMode(strings.ToLower(strings.TrimSpace(in.Mode)))
			return rec.RecordPayment(in.Amount, mode, in.Reference, now)
		})
}

func (l *Lifecycle) Complete(ctx context.Context, assistanceID, actor string) (*AssistanceDTO, error) {
	return l.transition(ctx, assistanceID, actor, audit.EventCompleted, "assistance completed",
		func(_ uow.Repos, rec *domain.Record, now time.Time) error {
			return rec.Complete(actor, now)
		})
}

func (l *Lifecycle) RecordFeedback(ctx context.Context, assistanceID string, satisfaction int, text, actor string) (*AssistanceDTO, error) {
	return l.transition(ctx, assistanceID, actor, audit.EventFeedback, "feedback recorded",
		func(_ uow.Repos, rec *domain.Record, now time.Time) error {
			return rec.RecordFeedback(satisfaction, text, now)
		})
}

// RecordEquipmentReturn marks a loaned item as back. Repeating it updates the
// return date and observation.
func (l *Lifecycle) RecordEquipmentReturn(ctx context.Context, assistanceID string, returnedAt time.Time, observation, actor string) (*AssistanceDTO, error) {
	return l.transition(ctx, assistanceID, actor, audit.EventModified, "equipment returned",
		func(_ uow.Repos, rec *domain.Record, _ time.Time) error {
			if rec.Tombstoned {
				return domain.ErrTombstoned
			}
			if !rec.IsLoan() {
				return equipment.ErrNotLoan
			}
			l.tracker.RecordReturn(&rec.Loan, returnedAt, strings.TrimSpace(observation))
			return nil
		})
}

// UpdateLoanTerms edits the date, duration or performer of a loan. The due
// date is recomputed from the result.
func (l *Lifecycle) UpdateLoanTerms(ctx context.Context, assistanceID string, in LoanTermsInput, actor string) (*AssistanceDTO, error) {
	return l.transition(ctx, assistanceID, actor, audit.EventModified, "loan terms updated",
		func(r uow.Repos, rec *domain.Record, _ time.Time) error {
			if rec.Tombstoned {
				return domain.ErrTombstoned
			}
			if !rec.IsLoan() {
				return equipment.ErrNotLoan
			}
			if in.AssistanceDate != nil {
				day := clock.Date(*in.AssistanceDate)
				if rec.CampaignID != nil && !day.Equal(clock.Date(rec.AssistanceDate)) {
					c, err := r.Campaigns.GetByCampaignID(ctx, *rec.CampaignID)
					if err != nil {
						return err
					}
					if err := c.AcceptsAssistanceOn(day); err != nil {
						return err
					}
				}
				rec.AssistanceDate = day
			}
			if in.LoanDurationDays != nil {
				days := *in.LoanDurationDays
				rec.LoanDurationDays = &days
			}
			if in.PerformedBySelf != nil || in.PerformedByStaff != nil {
				self := rec.PerformedBySelf
				if in.PerformedBySelf != nil {
					self = *in.PerformedBySelf
				}
				staff := ""
				if rec.PerformedByStaff != nil {
					staff = *rec.PerformedByStaff
				}
				if in.PerformedByStaff != nil {
					staff = *in.PerformedByStaff
				}
				rec.SetPerformer(self, staff)
			}
			if err := rec.ValidateTerms(rec.AssistanceType); err != nil {
				return err
			}
			rec.ApplyTerms(rec.AssistanceDate)
			return nil
		})
}

// Tombstone soft-deletes the record. Budget still held for an unpaid record
// goes back to its campaign.
func (l *Lifecycle) Tombstone(ctx context.Context, assistanceID, actor string) error {
	_, err := l.transition(ctx, assistanceID, actor, audit.EventModified, "assistance deleted",
		func(r uow.Repos, rec *domain.Record, now time.Time) error {
			if err := rec.Tombstone(actor, now); err != nil {
				return err
			}
			if rec.PaidAt != nil {
				return nil
			}
			return l.releaseReserved(ctx, r, rec, actor, "released by deletion")
		})
	return err
}

func (l *Lifecycle) releaseReserved(ctx context.Context, r uow.Repos, rec *domain.Record, actor, note string) error {
	if rec.CampaignID == nil || !rec.ReservedAmount.IsPositive() {
		return nil
	}
	c, err := r.Campaigns.GetByCampaignIDForUpdate(ctx, *rec.CampaignID)
	if err != nil {
		return err
	}
	if _, err := l.allocator.ReleaseInTx(ctx, r, c, rec.ReservedAmount, actor, note+" "+rec.CaseNumber); err != nil {
		return err
	}
	rec.ReservedAmount = decimal.Zero
	return nil
}

type mutation func(r uow.Repos, rec *domain.Record, now time.Time) error

func (l *Lifecycle) transition(ctx context.Context, assistanceID, actor string, event audit.EventType, desc string, mutate mutation) (*AssistanceDTO, error) {
	if strings.TrimSpace(actor) == "" {
		return nil, domain.ErrInvalidInput
	}
	var out *domain.Record
	err := retry.OnStaleWrite(ctx, l.retry, l.onRetry(ctx), func() error {
		return l.uow.WithinAssistanceTx(ctx, assistanceID, func(r uow.Repos, rec *domain.Record) error {
			before := *rec
			if err := mutate(r, rec, l.clock.Now()); err != nil {
				return err
			}
			if err := r.Assistances.Update(ctx, rec); err != nil {
				return err
			}
			if _, err := l.trail.Record(ctx, r.Audits, audittrail.RecordInput{
				SubjectType: audit.SubjectAssistance,
				SubjectID:   rec.AssistanceID,
				EventType:   event,
				Description: desc,
				Before:      &before,
				After:       rec,
				ActorID:     actor,
			}); err != nil {
				return err
			}
			out = rec
			return nil
		})
	})
	if err != nil {
		l.log.DebugContext(ctx, "assistance transition refused",
			"assistance_id", assistanceID, "event", event, "error", err)
		return nil, err
	}
	l.metrics.IncTransition(string(event))
	l.log.InfoContext(ctx, "assistance "+desc,
		"assistance_id", out.AssistanceID, "state", out.State(), "actor", actor)
	return l.toDTO(out, l.clock.Now()), nil
}

func (l *Lifecycle) onRetry(ctx context.Context) func(error) {
	return func(err error) {
		l.log.DebugContext(ctx, "assistance write retried", "error", err)
	}
}

func (l *Lifecycle) Get(ctx context.Context, assistanceID string) (*AssistanceDTO, error) {
	rec, err := l.assistances.GetByAssistanceID(ctx, assistanceID)
	if err != nil {
		return nil, err
	}
	if rec.Tombstoned {
		return nil, domain.ErrNotFound
	}
	return l.toDTO(rec, l.clock.Now()), nil
}

// ListOverdueLoans returns unreturned fixed-term loans past their due date
// as of the given day (today when zero).
func (l *Lifecycle) ListOverdueLoans(ctx context.Context, asOf time.Time) ([]AssistanceDTO, error) {
	recs, err := l.overdue(ctx, asOf)
	if err != nil {
		return nil, err
	}
	if asOf.IsZero() {
		asOf = l.clock.Now()
	}
	out := make([]AssistanceDTO, 0, len(recs))
	for i := range recs {
		out = append(out, *l.toDTO(&recs[i], asOf))
	}
	return out, nil
}

func (l *Lifecycle) overdue(ctx context.Context, asOf time.Time) ([]domain.Record, error) {
	if asOf.IsZero() {
		asOf = l.clock.Now()
	}
	candidates, err := l.assistances.ListOpenLoans(ctx, catalog.TypeEquipment, asOf)
	if err != nil {
		return nil, err
	}
	out := candidates[:0]
	for _, rec := range candidates {
		if l.tracker.IsOverdueAt(rec.AssistanceType, rec.Loan, asOf) {
			out = append(out, rec)
		}
	}
	l.metrics.SetOverdueLoans(len(out))
	return out, nil
}

func (l *Lifecycle) GetAuditTrail(ctx context.Context, subjectID string) ([]audittrail.EventDTO, error) {
	return l.trail.List(ctx, subjectID)
}

// SendOverdueReminders records one reminder event per overdue loan and
// returns how many were written. Reminders are independent: one failing
// does not roll back the others, the first error is returned.
func (l *Lifecycle) SendOverdueReminders(ctx context.Context, asOf time.Time, actor string) (int, error) {
	if strings.TrimSpace(actor) == "" {
		return 0, domain.ErrInvalidInput
	}
	if asOf.IsZero() {
		asOf = l.clock.Now()
	}
	recs, err := l.overdue(ctx, asOf)
	if err != nil {
		return 0, err
	}

	var (
		sent atomic.Int64
		g    errgroup.Group
	)
	g.SetLimit(l.reminderConcurrency)
	for i := range recs {
		rec := &recs[i]
		g.Go(func() error {
			days := l.tracker.DaysOverdueAt(rec.Loan, asOf)
			err := l.uow.WithinTx(ctx, func(r uow.Repos) error {
				_, err := l.trail.Record(ctx, r.Audits, audittrail.RecordInput{
					SubjectType: audit.SubjectAssistance,
					SubjectID:   rec.AssistanceID,
					EventType:   audit.EventReminder,
					Description: describeOverdue(rec, days),
					After:       map[string]any{"days_overdue": days, "due_date": rec.DueDate},
					ActorID:     actor,
				})
				return err
			})
			if err != nil {
				l.log.WarnContext(ctx, "overdue reminder failed", "assistance_id", rec.AssistanceID, "error", err)
				return err
			}
			sent.Add(1)
			l.metrics.IncTransition(string(audit.EventReminder))
			return nil
		})
	}
	err = g.Wait()
	l.log.InfoContext(ctx, "overdue reminders sent", "count", sent.Load(), "overdue", len(recs))
	return int(sent.Load()), err
}

func describeOverdue(rec *domain.Record, days int) string {
	return fmt.Sprintf("loan %s overdue by %d day(s), due %s", rec.CaseNumber, days, rec.DueDate.UTC().Format(dateLayout))
}
