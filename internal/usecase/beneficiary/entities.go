package beneficiary

import (
	"time"

	domain "assistance-backend/internal/domain/beneficiary"
)

type BeneficiaryDTO struct {
	BeneficiaryID string    `json:"beneficiary_id"`
	FullName      string    `json:"full_name"`
	Decision      string    `json:"decision,omitempty"`
	Active        bool      `json:"active"`
	Version       uint64    `json:"version"`
	CreatedAt     time.Time `json:"created_at"`
}

// Unknown is a stored decision the normalizer could not map.
type Unknown struct {
	BeneficiaryID string `json:"beneficiary_id"`
	Raw           string `json:"raw"`
}

// MigrationReport tallies one MigrateDecisions run.
type MigrationReport struct {
	Scanned   int       `json:"scanned"`
	Changed   int       `json:"changed"`
	Unchanged int       `json:"unchanged"`
	Unknown   []Unknown `json:"unknown"`
}

func toDTO(b *domain.Beneficiary) *BeneficiaryDTO {
	return &BeneficiaryDTO{
		BeneficiaryID: b.BeneficiaryID,
		FullName:      b.FullName,
		Decision:      string(b.Decision),
		Active:        b.Active(),
		Version:       b.Version,
		CreatedAt:     b.CreatedAt,
	}
}
