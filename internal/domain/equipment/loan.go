package equipment

import (
	"strings"
	"time"

	"assistance-backend/internal/domain/catalog"
	"assistance-backend/pkg/clock"
	"assistance-backend/pkg/domainerrors"
	"assistance-backend/pkg/textfold"
)

// MaxDurationDays bounds loan_duration_days.
const MaxDurationDays = 3650

var (
	ErrDurationRequired = domainerrors.New(domainerrors.CodeValidation, "loan duration is required for a fixed-term loan")
	ErrInvalidDuration  = domainerrors.New(domainerrors.CodeValidation, "loan duration must be between 1 and 3650 days")
	ErrNotLoan          = domainerrors.New(domainerrors.CodeState, "assistance is not an equipment loan")
)

type Status string

const (
	StatusNotApplicable Status = "not_applicable"
	StatusPending       Status = "pending"
	StatusInProgress    Status = "in_progress"
	StatusOverdue       Status = "overdue"
	StatusReturned      Status = "returned"
)

var (
	loanMarkers     = []string{"pret", "loan"}
	durationMarkers = []string{"duree", "for a duration", "temporaire", "temporary", "fixed term", "fixed_term"}
)

// Loan is the equipment-only part of an assistance record. It is embedded in
// the record's table; every column is empty for other assistance types.
type Loan struct {
	NatureTag         string     `gorm:"column:nature_tag;size:64" json:"nature_tag,omitempty"`
	PerformedBySelf   bool       `gorm:"column:performed_by_self;not null;default:false" json:"performed_by_self"`
	PerformedByStaff  *string    `gorm:"column:performed_by_staff;size:128" json:"performed_by_staff"`
	LoanDurationDays  *int       `gorm:"column:loan_duration_days" json:"loan_duration_days"`
	DueDate           *time.Time `gorm:"column:due_date;type:date;index:idx_assistances_due_date" json:"due_date"`
	Returned          bool       `gorm:"column:returned;not null;default:false" json:"returned"`
	ReturnedAt        *time.Time `gorm:"column:returned_at" json:"returned_at"`
	ReturnObservation string     `gorm:"column:return_observation;type:text" json:"return_observation,omitempty"`
}

// IsLoanType is true for equipment whose nature of donation is a loan, as
// opposed to a permanent donation.
func IsLoanType(assistanceTypeTag, natureTag string) bool {
	return assistanceTypeTag == catalog.TypeEquipment && textfold.ContainsAny(natureTag, loanMarkers...)
}

// RequiresDuration is true when the nature of donation is a fixed-term or
// temporary loan.
func RequiresDuration(natureTag string) bool {
	return textfold.ContainsAny(natureTag, durationMarkers...)
}

// ComputeDueDate adds calendar days to the assistance date.
func ComputeDueDate(assistanceDate time.Time, durationDays int) time.Time {
	return clock.Date(assistanceDate).AddDate(0, 0, durationDays)
}

// SetPerformer applies the performed-by rule: self-performed clears staff.
func (l *Loan) SetPerformer(self bool, staff string) {
	l.PerformedBySelf = self
	staff = strings.TrimSpace(staff)
	if self || staff == "" {
		l.PerformedByStaff = nil
		return
	}
	l.PerformedByStaff = &staff
}

// ApplyTerms recomputes the due date from the assistance date and the
// duration. The due date is set exactly when the duration is.
func (l *Loan) ApplyTerms(assistanceDate time.Time) {
	if l.LoanDurationDays == nil {
		l.DueDate = nil
		return
	}
	due := ComputeDueDate(assistanceDate, *l.LoanDurationDays)
	l.DueDate = &due
}

// ValidateTerms checks the duration against the nature of donation for an
// assistance of the given type.
func (l Loan) ValidateTerms(assistanceTypeTag string) error {
	if l.LoanDurationDays != nil {
		if d := *l.LoanDurationDays; d < 1 || d > MaxDurationDays {
			return ErrInvalidDuration
		}
	}
	if IsLoanType(assistanceTypeTag, l.NatureTag) && RequiresDuration(l.NatureTag) && l.LoanDurationDays == nil {
		return ErrDurationRequired
	}
	return nil
}
