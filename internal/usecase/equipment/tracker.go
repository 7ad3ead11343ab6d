package equipment

import (
	"time"

	domain "assistance-backend/internal/domain/equipment"
	"assistance-backend/pkg/clock"
)

// Tracker answers due-date questions about equipment loans against an
// injected clock.
type Tracker struct{ clock clock.Clock }

func NewTracker(c clock.Clock) *Tracker {
	if c == nil {
		c = clock.System()
	}
	return &Tracker{clock: c}
}

func (t *Tracker) Now() time.Time { return t.clock.Now() }

func (t *Tracker) IsOverdue(assistanceType string, l domain.Loan) bool {
	return t.IsOverdueAt(assistanceType, l, t.clock.Now())
}

// IsOverdueAt compares calendar days: a loan is not overdue on its due date,
// only from the day after.
func (t *Tracker) IsOverdueAt(assistanceType string, l domain.Loan, asOf time.Time) bool {
	if !domain.IsLoanType(assistanceType, l.NatureTag) || !domain.RequiresDuration(l.NatureTag) {
		return false
	}
	if l.Returned || l.DueDate == nil {
		return false
	}
	return clock.Date(asOf).After(clock.Date(*l.DueDate))
}

func (t *Tracker) DaysOverdue(l domain.Loan) int {
	return t.DaysOverdueAt(l, t.clock.Now())
}

func (t *Tracker) DaysOverdueAt(l domain.Loan, asOf time.Time) int {
	if l.DueDate == nil {
		return 0
	}
	days := int(clock.Date(asOf).Sub(clock.Date(*l.DueDate)).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// RecordReturn marks the loan returned. A zero returnedAt means now. Calling
// it again overwrites the timestamp and observation.
func (t *Tracker) RecordReturn(l *domain.Loan, returnedAt time.Time, observation string) {
	if returnedAt.IsZero() {
		returnedAt = t.clock.Now()
	}
	returnedAt = returnedAt.UTC()
	l.Returned = true
	l.ReturnedAt = &returnedAt
	l.ReturnObservation = observation
}

func (t *Tracker) LoanStatus(assistanceType string, l domain.Loan) domain.Status {
	return t.LoanStatusAt(assistanceType, l, t.clock.Now())
}

func (t *Tracker) LoanStatusAt(assistanceType string, l domain.Loan, asOf time.Time) domain.Status {
	switch {
	case !domain.IsLoanType(assistanceType, l.NatureTag):
		return domain.StatusNotApplicable
	case l.Returned:
		return domain.StatusReturned
	case t.IsOverdueAt(assistanceType, l, asOf):
		return domain.StatusOverdue
	case domain.RequiresDuration(l.NatureTag) && l.DueDate == nil:
		return domain.StatusPending
	}
	return domain.StatusInProgress
}
