package beneficiary

import (
	"context"
	"time"

	"assistance-backend/internal/domain/decision"
	"assistance-backend/pkg/domainerrors"
)

var (
	ErrNotFound     = domainerrors.New(domainerrors.CodeNotFound, "beneficiary not found")
	ErrInvalidInput = domainerrors.New(domainerrors.CodeValidation, "beneficiary full name is required")
)

// Beneficiary is the directory entry an assistance refers to. Decision may
// still hold a legacy spelling until MigrateDecisions has run.
type Beneficiary struct {
	ID            uint64         `gorm:"primaryKey;column:id" json:"-"`
	BeneficiaryID string         `gorm:"column:beneficiary_id;size:32;not null;uniqueIndex:ux_beneficiaries_beneficiary_id" json:"beneficiary_id"`
	FullName      string         `gorm:"column:full_name;size:255;not null" json:"full_name"`
	Decision      decision.State `gorm:"column:decision;size:64" json:"decision,omitempty"`
	CreatedBy     string         `gorm:"column:created_by;size:32" json:"created_by"`
	Version       uint64         `gorm:"column:version;not null;default:1" json:"version"`
	Tombstoned    bool           `gorm:"column:tombstoned;not null;default:false;index" json:"tombstoned"`
	TombstonedAt  *time.Time     `gorm:"column:tombstoned_at" json:"tombstoned_at,omitempty"`
	CreatedAt     time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Beneficiary) TableName() string { return "beneficiaries" }

func (b *Beneficiary) Active() bool { return !b.Tombstoned }

// Directory is the read side used at assistance intake.
type Directory interface {
	GetBeneficiary(ctx context.Context, beneficiaryID string) (*Beneficiary, error)
}

type Repository interface {
	Directory
	Create(ctx context.Context, b *Beneficiary) error
	Update(ctx context.Context, b *Beneficiary) error
	// ListAfter pages by internal id, ascending.
	ListAfter(ctx context.Context, afterID uint64, limit int) ([]Beneficiary, error)
}
