package campaign

import (
	"time"

	"github.com/shopspring/decimal"

	"assistance-backend/pkg/clock"
	"assistance-backend/pkg/domainerrors"
)

type Status string

const (
	StatusActive     Status = "active"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

var (
	ErrNotFound          = domainerrors.New(domainerrors.CodeNotFound, "campaign not found")
	ErrInvalidWindow     = domainerrors.New(domainerrors.CodeValidation, "campaign end date must be after its start date")
	ErrInvalidBudget     = domainerrors.New(domainerrors.CodeValidation, "campaign budget, unit price and participants must not be negative")
	ErrInvalidAmount     = domainerrors.New(domainerrors.CodeValidation, "amount must be positive")
	ErrInvalidStatus     = domainerrors.New(domainerrors.CodeValidation, "unknown campaign status")
	ErrScheduleConflict  = domainerrors.New(domainerrors.CodeConflict, "campaign window overlaps another campaign of the same assistance type")
	ErrBudgetExceeded    = domainerrors.New(domainerrors.CodeConflict, "campaign budget exceeded")
	ErrInactive          = domainerrors.New(domainerrors.CodeState, "campaign is not active")
	ErrInvalidTransition = domainerrors.New(domainerrors.CodeState, "invalid campaign status transition")
)

// Campaign is a time-boxed, budgeted drive for one assistance type. Budget
// columns change only through Reserve and Release.
type Campaign struct {
	ID                  uint64          `gorm:"primaryKey;column:id" json:"-"`
	CampaignID          string          `gorm:"column:campaign_id;size:32;not null;uniqueIndex:ux_campaigns_campaign_id" json:"campaign_id"`
	Name                string          `gorm:"column:name;size:255;not null" json:"name"`
	AssistanceType      string          `gorm:"column:assistance_type;size:64;not null;index:idx_campaigns_type_window,priority:1" json:"assistance_type"`
	StartDate           time.Time       `gorm:"column:start_date;type:date;not null;index:idx_campaigns_type_window,priority:2" json:"start_date"`
	EndDate             time.Time       `gorm:"column:end_date;type:date;not null;index:idx_campaigns_type_window,priority:3" json:"end_date"`
	Budget              decimal.Decimal `gorm:"column:budget;type:decimal(18,2);not null" json:"budget"`
	BudgetConsumed      decimal.Decimal `gorm:"column:budget_consumed;type:decimal(18,2);not null;default:0" json:"budget_consumed"`
	UnitPrice           decimal.Decimal `gorm:"column:unit_price;type:decimal(18,2);not null;default:0" json:"unit_price"`
	PlannedParticipants int             `gorm:"column:planned_participants;not null;default:0" json:"planned_participants"`
	Status              Status          `gorm:"column:status;size:16;not null;default:'active'" json:"status"`
	CreatedBy           string          `gorm:"column:created_by;size:32" json:"created_by"`
	Version             uint64          `gorm:"column:version;not null;default:1" json:"version"`
	Tombstoned          bool            `gorm:"column:tombstoned;not null;default:false;index" json:"tombstoned"`
	TombstonedAt        *time.Time      `gorm:"column:tombstoned_at" json:"tombstoned_at,omitempty"`
	TombstonedBy        *string         `gorm:"column:tombstoned_by;size:32" json:"tombstoned_by,omitempty"`
	CreatedAt           time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Campaign) TableName() string { return "campaigns" }

// Overlaps uses closed intervals: [a,b] and [c,d] overlap iff a <= d && c <= b.
func Overlaps(a, b, c, d time.Time) bool {
	a, b, c, d = clock.Date(a), clock.Date(b), clock.Date(c), clock.Date(d)
	return !a.After(d) && !c.After(b)
}

func (c *Campaign) Overlaps(start, end time.Time) bool {
	return Overlaps(c.StartDate, c.EndDate, start, end)
}

// Schedulable reports whether the campaign still occupies its window for
// overlap purposes.
func (c *Campaign) Schedulable() bool {
	return !c.Tombstoned && c.Status != StatusCancelled
}

func (c *Campaign) Remaining() decimal.Decimal {
	r := c.Budget.Sub(c.BudgetConsumed)
	if r.IsNegative() {
		return decimal.Zero
	}
	return r
}

// Reserve checks consumed+amount <= budget and consumes amount.
func (c *Campaign) Reserve(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if c.BudgetConsumed.Add(amount).GreaterThan(c.Budget) {
		return ErrBudgetExceeded
	}
	c.BudgetConsumed = c.BudgetConsumed.Add(amount)
	return nil
}

// Release gives amount back, never going below zero, and returns what was
// actually released.
func (c *Campaign) Release(amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	if amount.GreaterThan(c.BudgetConsumed) {
		amount = c.BudgetConsumed
	}
	c.BudgetConsumed = c.BudgetConsumed.Sub(amount)
	return amount, nil
}

// AcceptsAssistanceOn is the guard applied before an assistance is attached:
// the campaign must be live and the date inside its window.
func (c *Campaign) AcceptsAssistanceOn(day time.Time) error {
	if c.Tombstoned || c.Status == StatusCancelled || c.Status == StatusCompleted {
		return ErrInactive
	}
	if !c.Covers(day) {
		return ErrInactive
	}
	return nil
}

// Covers reports whether day falls inside the closed campaign window.
func (c *Campaign) Covers(day time.Time) bool {
	d := clock.Date(day)
	return !d.Before(clock.Date(c.StartDate)) && !d.After(clock.Date(c.EndDate))
}

// TransitionTo moves the lifecycle status. Completed and cancelled are final.
func (c *Campaign) TransitionTo(next Status) error {
	if !next.Valid() {
		return ErrInvalidStatus
	}
	if c.Tombstoned {
		return ErrInactive
	}
	switch c.Status {
	case StatusCompleted, StatusCancelled:
		return ErrInvalidTransition
	}
	if next == c.Status || (next == StatusActive && c.Status == StatusInProgress) {
		return ErrInvalidTransition
	}
	c.Status = next
	return nil
}

func (c *Campaign) Tombstone(actor string, at time.Time) {
	at = at.UTC()
	c.Tombstoned = true
	c.TombstonedAt = &at
	c.TombstonedBy = &actor
}
