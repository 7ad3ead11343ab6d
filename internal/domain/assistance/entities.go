package assistance

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"assistance-backend/internal/domain/campaign"
	"assistance-backend/internal/domain/decision"
	"assistance-backend/internal/domain/equipment"
	"assistance-backend/pkg/domainerrors"
)

type State string

const (
	StateRegistered State = "registered"
	StateValidated  State = "validated"
	StateRejected   State = "rejected"
	StatePaid       State = "paid"
	StateCompleted  State = "completed"
)

type PaymentMode string

const (
	PaymentCash     PaymentMode = "cash"
	PaymentCheck    PaymentMode = "check"
	PaymentTransfer PaymentMode = "transfer"
	PaymentMandate  PaymentMode = "mandate"
)

func (m PaymentMode) Valid() bool {
	switch m {
	case PaymentCash, PaymentCheck, PaymentTransfer, PaymentMandate:
		return true
	}
	return false
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

const (
	MinSatisfaction = 1
	MaxSatisfaction = 5
)

var (
	ErrNotFound             = domainerrors.New(domainerrors.CodeNotFound, "assistance not found")
	ErrInvalidInput         = domainerrors.New(domainerrors.CodeValidation, "invalid assistance input")
	ErrUnknownType          = domainerrors.New(domainerrors.CodeValidation, "unknown assistance type")
	ErrIncoherentDetail     = domainerrors.New(domainerrors.CodeValidation, "type detail does not belong to the assistance type")
	ErrCampaignTypeMismatch = domainerrors.New(domainerrors.CodeValidation, "campaign is for another assistance type")
	ErrInvalidPaymentMode   = domainerrors.New(domainerrors.CodeValidation, "payment mode must be cash, check, transfer or mandate")
	ErrInvalidSatisfaction  = domainerrors.New(domainerrors.CodeValidation, "satisfaction must be between 1 and 5")
	ErrAlreadyDecided       = domainerrors.New(domainerrors.CodeConflict, "assistance already validated or rejected")
	ErrAlreadyPaid          = domainerrors.New(domainerrors.CodeConflict, "payment already recorded")
	ErrNotValidated         = domainerrors.New(domainerrors.CodeState, "assistance is not validated")
	ErrNotPaid              = domainerrors.New(domainerrors.CodeState, "assistance has no recorded payment")
	ErrNotCompleted         = domainerrors.New(domainerrors.CodeState, "assistance is not completed")
	ErrAlreadyCompleted     = domainerrors.New(domainerrors.CodeState, "assistance already completed")
	ErrTombstoned           = domainerrors.New(domainerrors.CodeState, "assistance was deleted")
	ErrBeneficiaryInactive  = domainerrors.New(domainerrors.CodeState, "beneficiary is not active")

	ErrCampaignInactive = campaign.ErrInactive
)

// Record is one assistance granted (or requested) for a beneficiary. The
// lifecycle state is derived from the flags, see State.
type Record struct {
	ID             uint64          `gorm:"primaryKey;column:id" json:"-"`
	AssistanceID   string          `gorm:"column:assistance_id;size:32;not null;uniqueIndex:ux_assistances_assistance_id" json:"assistance_id"`
	CaseNumber     string          `gorm:"column:case_number;size:16;not null;uniqueIndex:ux_assistances_case_number" json:"case_number"`
	BeneficiaryID  string          `gorm:"column:beneficiary_id;size:32;not null;index" json:"beneficiary_id"`
	AssistanceType string          `gorm:"column:assistance_type;size:64;not null;index" json:"assistance_type"`
	CampaignID     *string         `gorm:"column:campaign_id;size:32;index" json:"campaign_id"`
	TypeDetailID   *string         `gorm:"column:type_detail_id;size:64" json:"type_detail_id"`
	AssistanceDate time.Time       `gorm:"column:assistance_date;type:date;not null" json:"assistance_date"`
	Amount         decimal.Decimal `gorm:"column:amount;type:decimal(18,2);not null;default:0" json:"amount"`
	ReservedAmount decimal.Decimal `gorm:"column:reserved_amount;type:decimal(18,2);not null;default:0" json:"reserved_amount"`
	Priority       Priority        `gorm:"column:priority;size:16;not null;default:'normal'" json:"priority"`
	Observations   string          `gorm:"column:observations;type:text" json:"observations,omitempty"`
	Decision       decision.State  `gorm:"column:decision;size:64" json:"decision,omitempty"`

	Validated         bool       `gorm:"column:validated;not null;default:false" json:"validated"`
	ValidatedAt       *time.Time `gorm:"column:validated_at" json:"validated_at"`
	ValidatedBy       *string    `gorm:"column:validated_by;size:32" json:"validated_by"`
	ValidationComment string     `gorm:"column:validation_comment;type:text" json:"validation_comment,omitempty"`

	Rejected        bool       `gorm:"column:rejected;not null;default:false" json:"rejected"`
	RejectedAt      *time.Time `gorm:"column:rejected_at" json:"rejected_at"`
	RejectedBy      *string    `gorm:"column:rejected_by;size:32" json:"rejected_by"`
	RejectionReason string     `gorm:"column:rejection_reason;type:text" json:"rejection_reason,omitempty"`

	AmountPaid       decimal.NullDecimal `gorm:"column:amount_paid;type:decimal(18,2)" json:"amount_paid"`
	PaidAt           *time.Time          `gorm:"column:paid_at" json:"paid_at"`
	PaymentMode      PaymentMode         `gorm:"column:payment_mode;size:16" json:"payment_mode,omitempty"`
	PaymentReference string              `gorm:"column:payment_reference;size:128" json:"payment_reference,omitempty"`

	Completed   bool       `gorm:"column:completed;not null;default:false" json:"completed"`
	CompletedAt *time.Time `gorm:"column:completed_at" json:"completed_at"`
	CompletedBy *string    `gorm:"column:completed_by;size:32" json:"completed_by"`

	Satisfaction *int       `gorm:"column:satisfaction" json:"satisfaction"`
	FeedbackText string     `gorm:"column:feedback_text;type:text" json:"feedback_text,omitempty"`
	FeedbackAt   *time.Time `gorm:"column:feedback_at" json:"feedback_at"`

	equipment.Loan

	CreatedBy    string     `gorm:"column:created_by;size:32" json:"created_by"`
	Version      uint64     `gorm:"column:version;not null;default:1" json:"version"`
	Tombstoned   bool       `gorm:"column:tombstoned;not null;default:false;index" json:"tombstoned"`
	TombstonedAt *time.Time `gorm:"column:tombstoned_at" json:"tombstoned_at,omitempty"`
	TombstonedBy *string    `gorm:"column:tombstoned_by;size:32" json:"tombstoned_by,omitempty"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Record) TableName() string { return "assistances" }

func (r *Record) State() State {
	switch {
	case r.Rejected:
		return StateRejected
	case r.Completed:
		return StateCompleted
	case r.PaidAt != nil:
		return StatePaid
	case r.Validated:
		return StateValidated
	default:
		return StateRegistered
	}
}

func (r *Record) IsLoan() bool {
	return equipment.IsLoanType(r.AssistanceType, r.NatureTag)
}

// Monetary is false for in-kind assistance recorded with no amount.
func (r *Record) Monetary() bool {
	return r.Amount.IsPositive()
}

func (r *Record) Validate(actor, comment string, at time.Time) error {
	if err := r.decidable(); err != nil {
		return err
	}
	at = at.UTC()
	r.Validated = true
	r.ValidatedAt = &at
	r.ValidatedBy = &actor
	r.ValidationComment = strings.TrimSpace(comment)
	return nil
}

// Reject marks the record rejected. The caller releases ReservedAmount.
func (r *Record) Reject(actor, reason string, at time.Time) error {
	if err := r.decidable(); err != nil {
		return err
	}
	at = at.UTC()
	r.Rejected = true
	r.RejectedAt = &at
	r.RejectedBy = &actor
	r.RejectionReason = strings.TrimSpace(reason)
	return nil
}

func (r *Record) decidable() error {
	if r.Tombstoned {
		return ErrTombstoned
	}
	if r.Validated || r.Rejected {
		return ErrAlreadyDecided
	}
	return nil
}

func (r *Record) RecordPayment(amount decimal.Decimal, mode PaymentMode, reference string, at time.Time) error {
	if r.Tombstoned {
		return ErrTombstoned
	}
	if !r.Validated || r.Rejected {
		return ErrNotValidated
	}
	if r.PaidAt != nil {
		return ErrAlreadyPaid
	}
	if !amount.IsPositive() {
		return domainerrors.Wrap(ErrInvalidInput, domainerrors.CodeValidation, "payment amount must be positive")
	}
	if !mode.Valid() {
		return ErrInvalidPaymentMode
	}
	at = at.UTC()
	r.AmountPaid = decimal.NewNullDecimal(amount)
	r.PaidAt = &at
	r.PaymentMode = mode
	r.PaymentReference = strings.TrimSpace(reference)
	return nil
}

// Complete closes the record after payment, or after validation alone when
// nothing is to be paid.
func (r *Record) Complete(actor string, at time.Time) error {
	if r.Tombstoned {
		return ErrTombstoned
	}
	if r.Completed {
		return ErrAlreadyCompleted
	}
	if !r.Validated || r.Rejected {
		return ErrNotValidated
	}
	if r.PaidAt == nil && r.Monetary() {
		return ErrNotPaid
	}
	at = at.UTC()
	r.Completed = true
	r.CompletedAt = &at
	r.CompletedBy = &actor
	return nil
}

func (r *Record) RecordFeedback(satisfaction int, text string, at time.Time) error {
	if r.Tombstoned {
		return ErrTombstoned
	}
	if !r.Completed {
		return ErrNotCompleted
	}
	if satisfaction < MinSatisfaction || satisfaction > MaxSatisfaction {
		return ErrInvalidSatisfaction
	}
	at = at.UTC()
	r.Satisfaction = &satisfaction
	r.FeedbackText = strings.TrimSpace(text)
	r.FeedbackAt = &at
	return nil
}

func (r *Record) Tombstone(actor string, at time.Time) error {
	if r.Tombstoned {
		return ErrTombstoned
	}
	at = at.UTC()
	r.Tombstoned = true
	r.TombstonedAt = &at
	r.TombstonedBy = &actor
	return nil
}

// FormatCaseNumber renders the year-scoped case number, e.g. 20240007.
func FormatCaseNumber(year int, seq int64) string {
	return fmt.Sprintf("%04d%04d", year, seq)
}

// CaseSequence extracts the sequence part of a case number for the given
// year. ok is false when the number belongs to another year or is malformed.
func CaseSequence(caseNumber string, year int) (int64, bool) {
	prefix := fmt.Sprintf("%04d", year)
	if len(caseNumber) <= len(prefix) || !strings.HasPrefix(caseNumber, prefix) {
		return 0, false
	}
	n, err := strconv.ParseInt(caseNumber[len(prefix):], 10, 64)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}
