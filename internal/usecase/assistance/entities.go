package assistance

import (
	"time"

	"github.com/shopspring/decimal"

	domain "assistance-backend/internal/domain/assistance"
	"assistance-backend/internal/domain/catalog"
	"assistance-backend/internal/domain/equipment"
)

type CreateInput struct {
	BeneficiaryID  string
	AssistanceType string
	CampaignID     string
	TypeDetailID   string
	// zero means today
	AssistanceDate time.Time
	Amount         decimal.Decimal
	Priority       string
	Observations   string
	Decision       string

	// equipment only
	NatureTag        string
	PerformedBySelf  bool
	PerformedByStaff string
	LoanDurationDays *int
}

type PaymentInput struct {
	Amount    decimal.Decimal
	Mode      string
	Reference string
}

// LoanTermsInput edits a loan; nil fields are left unchanged.
type LoanTermsInput struct {
	AssistanceDate   *time.Time
	LoanDurationDays *int
	PerformedBySelf  *bool
	PerformedByStaff *string
}

type LoanDTO struct {
	NatureTag         string     `json:"nature_tag"`
	PerformedBySelf   bool       `json:"performed_by_self"`
	PerformedByStaff  *string    `json:"performed_by_staff"`
	LoanDurationDays  *int       `json:"loan_duration_days"`
	DueDate           *string    `json:"due_date"`
	Returned          bool       `json:"returned"`
	ReturnedAt        *time.Time `json:"returned_at"`
	ReturnObservation string     `json:"return_observation,omitempty"`
	Status            string     `json:"status"`
	DaysOverdue       int        `json:"days_overdue"`
}

type AssistanceDTO struct {
	AssistanceID      string              `json:"assistance_id"`
	CaseNumber        string              `json:"case_number"`
	BeneficiaryID     string              `json:"beneficiary_id"`
	AssistanceType    string              `json:"assistance_type"`
	CampaignID        *string             `json:"campaign_id"`
	TypeDetailID      *string             `json:"type_detail_id"`
	AssistanceDate    string              `json:"assistance_date"`
	Amount            decimal.Decimal     `json:"amount"`
	ReservedAmount    decimal.Decimal     `json:"reserved_amount"`
	Priority          string              `json:"priority"`
	Observations      string              `json:"observations,omitempty"`
	Decision          string              `json:"decision,omitempty"`
	State             string              `json:"state"`
	ValidatedAt       *time.Time          `json:"validated_at"`
	ValidatedBy       *string             `json:"validated_by"`
	ValidationComment string              `json:"validation_comment,omitempty"`
	RejectedAt        *time.Time          `json:"rejected_at"`
	RejectedBy        *string             `json:"rejected_by"`
	RejectionReason   string              `json:"rejection_reason,omitempty"`
	AmountPaid        decimal.NullDecimal `json:"amount_paid"`
	PaidAt            *time.Time          `json:"paid_at"`
	PaymentMode       string              `json:"payment_mode,omitempty"`
	PaymentReference  string              `json:"payment_reference,omitempty"`
	CompletedAt       *time.Time          `json:"completed_at"`
	Satisfaction      *int                `json:"satisfaction"`
	FeedbackText      string              `json:"feedback_text,omitempty"`
	FeedbackAt        *time.Time          `json:"feedback_at"`
	Loan              *LoanDTO            `json:"loan,omitempty"`
	Version           uint64              `json:"version"`
	CreatedAt         time.Time           `json:"created_at"`
}

const dateLayout = "2006-01-02"

func (l *Lifecycle) toDTO(r *domain.Record, asOf time.Time) *AssistanceDTO {
	dto := &AssistanceDTO{
		AssistanceID:      r.AssistanceID,
		CaseNumber:        r.CaseNumber,
		BeneficiaryID:     r.BeneficiaryID,
		AssistanceType:    r.AssistanceType,
		CampaignID:        r.CampaignID,
		TypeDetailID:      r.TypeDetailID,
		AssistanceDate:    r.AssistanceDate.UTC().Format(dateLayout),
		Amount:            r.Amount,
		ReservedAmount:    r.ReservedAmount,
		Priority:          string(r.Priority),
		Observations:      r.Observations,
		Decision:          string(r.Decision),
		State:             string(r.State()),
		ValidatedAt:       r.ValidatedAt,
		ValidatedBy:       r.ValidatedBy,
		ValidationComment: r.ValidationComment,
		RejectedAt:        r.RejectedAt,
		RejectedBy:        r.RejectedBy,
		RejectionReason:   r.RejectionReason,
		AmountPaid:        r.AmountPaid,
		PaidAt:            r.PaidAt,
		PaymentMode:       string(r.PaymentMode),
		PaymentReference:  r.PaymentReference,
		CompletedAt:       r.CompletedAt,
		Satisfaction:      r.Satisfaction,
		FeedbackText:      r.FeedbackText,
		FeedbackAt:        r.FeedbackAt,
		Version:           r.Version,
		CreatedAt:         r.CreatedAt,
	}
	if r.AssistanceType == catalog.TypeEquipment {
		dto.Loan = l.loanDTO(r, asOf)
	}
	return dto
}

func (l *Lifecycle) loanDTO(r *domain.Record, asOf time.Time) *LoanDTO {
	out := &LoanDTO{
		NatureTag:         r.NatureTag,
		PerformedBySelf:   r.PerformedBySelf,
		PerformedByStaff:  r.PerformedByStaff,
		LoanDurationDays:  r.LoanDurationDays,
		Returned:          r.Returned,
		ReturnedAt:        r.ReturnedAt,
		ReturnObservation: r.ReturnObservation,
		Status:            string(l.tracker.LoanStatusAt(r.AssistanceType, r.Loan, asOf)),
	}
	if r.DueDate != nil {
		d := r.DueDate.UTC().Format(dateLayout)
		out.DueDate = &d
	}
	if out.Status == string(equipment.StatusOverdue) {
		out.DaysOverdue = l.tracker.DaysOverdueAt(r.Loan, asOf)
	}
	return out
}
