package beneficiary

import (
	"context"
	"log/slog"
	"strings"

	"assistance-backend/internal/domain/audit"
	domain "assistance-backend/internal/domain/beneficiary"
	"assistance-backend/internal/domain/decision"
	"assistance-backend/internal/domain/uow"
	audittrail "assistance-backend/internal/usecase/audit"
	"assistance-backend/internal/usecase/retry"
	"assistance-backend/pkg/id"
)

const pageSize = 200

// Registry keeps the beneficiary directory's decision column canonical.
type Registry struct {
	beneficiaries domain.Repository
	uow           uow.UnitOfWork
	trail         *audittrail.Trail
	log           *slog.Logger
	retry         retry.Policy
}

func NewRegistry(beneficiaries domain.Repository, tx uow.UnitOfWork, trail *audittrail.Trail, log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	return &Registry{
		beneficiaries: beneficiaries,
		uow:           tx,
		trail:         trail,
		log:           log,
		retry:         retry.DefaultPolicy(),
	}
}

func (r *Registry) Register(ctx context.Context, fullName, rawDecision, actor string) (*BeneficiaryDTO, error) {
	fullName = strings.TrimSpace(fullName)
	if fullName == "" || strings.TrimSpace(actor) == "" {
		return nil, domain.ErrInvalidInput
	}
	dec, err := decision.Normalize(rawDecision)
	if err != nil {
		return nil, err
	}
	b := &domain.Beneficiary{
		BeneficiaryID: id.NewID32(),
		FullName:      fullName,
		Decision:      dec,
		CreatedBy:     actor,
		Version:       1,
	}
	err = r.uow.WithinTx(ctx, func(repos uow.Repos) error {
		if err := repos.Beneficiaries.Create(ctx, b); err != nil {
			return err
		}
		_, err := r.trail.Record(ctx, repos.Audits, audittrail.RecordInput{
			SubjectType: audit.SubjectBeneficiary,
			SubjectID:   b.BeneficiaryID,
			EventType:   audit.EventCreated,
			Description: "beneficiary registered",
			After:       b,
			ActorID:     actor,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return toDTO(b), nil
}

func (r *Registry) ChangeDecision(ctx context.Context, beneficiaryID, rawDecision, actor string) (*BeneficiaryDTO, error) {
	if strings.TrimSpace(actor) == "" {
		return nil, domain.ErrInvalidInput
	}
	dec, err := decision.Normalize(rawDecision)
	if err != nil {
		return nil, err
	}
	var out *domain.Beneficiary
	err = retry.OnStaleWrite(ctx, r.retry, nil, func() error {
		return r.uow.WithinTx(ctx, func(repos uow.Repos) error {
			b, err := repos.Beneficiaries.GetBeneficiary(ctx, beneficiaryID)
			if err != nil {
				return err
			}
			if !b.Active() {
				return domain.ErrNotFound
			}
			if b.Decision == dec {
				out = b
				return nil
			}
			out, err = r.rewrite(ctx, repos, b, dec, actor, "decision changed")
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return toDTO(out), nil
}

// MigrateDecisions rewrites every stored legacy spelling to its canonical
// value. Spellings the normalizer does not know are left in place and
// reported.
func (r *Registry) MigrateDecisions(ctx context.Context, actor string) (*MigrationReport, error) {
	if strings.TrimSpace(actor) == "" {
		return nil, domain.ErrInvalidInput
	}
	report := &MigrationReport{Unknown: []Unknown{}}
	var after uint64
	for {
		page, err := r.beneficiaries.ListAfter(ctx, after, pageSize)
		if err != nil {
			return report, err
		}
		if len(page) == 0 {
			break
		}
		for i := range page {
			b := &page[i]
			after = b.ID
			report.Scanned++

			canonical, changed, ok := decision.MigrateLegacy(string(b.Decision))
			switch {
			case !ok:
				report.Unknown = append(report.Unknown, Unknown{BeneficiaryID: b.BeneficiaryID, Raw: string(b.Decision)})
				continue
			case !changed:
				report.Unchanged++
				continue
			}
			err := r.uow.WithinTx(ctx, func(repos uow.Repos) error {
				_, err := r.rewrite(ctx, repos, b, canonical, actor, "legacy decision migrated")
				return err
			})
			if err != nil {
				return report, err
			}
			report.Changed++
		}
	}
	r.log.InfoContext(ctx, "decision migration done",
		"scanned", report.Scanned, "changed", report.Changed, "unknown", len(report.Unknown))
	return report, nil
}

func (r *Registry) rewrite(ctx context.Context, repos uow.Repos, b *domain.Beneficiary, dec decision.State, actor, desc string) (*domain.Beneficiary, error) {
	before := *b
	b.Decision = dec
	if err := repos.Beneficiaries.Update(ctx, b); err != nil {
		return nil, err
	}
	if _, err := r.trail.Record(ctx, repos.Audits, audittrail.RecordInput{
		SubjectType: audit.SubjectBeneficiary,
		SubjectID:   b.BeneficiaryID,
		EventType:   audit.EventModified,
		Description: desc,
		Before:      map[string]string{"decision": string(before.Decision)},
		After:       map[string]string{"decision": string(dec)},
		ActorID:     actor,
	}); err != nil {
		return nil, err
	}
	return b, nil
}
