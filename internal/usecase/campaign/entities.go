package campaign

import (
	"time"

	"github.com/shopspring/decimal"

	domain "assistance-backend/internal/domain/campaign"
)

type CreateCampaignInput struct {
	Name                string
	AssistanceType      string
	StartDate           time.Time
	EndDate             time.Time
	Budget              decimal.Decimal
	UnitPrice           decimal.Decimal
	PlannedParticipants int
}

type CampaignDTO struct {
	CampaignID          string          `json:"campaign_id"`
	Name                string          `json:"name"`
	AssistanceType      string          `json:"assistance_type"`
	StartDate           string          `json:"start_date"` // YYYY-MM-DD
	EndDate             string          `json:"end_date"`
	Budget              decimal.Decimal `json:"budget"`
	BudgetConsumed      decimal.Decimal `json:"budget_consumed"`
	Remaining           decimal.Decimal `json:"remaining"`
	UnitPrice           decimal.Decimal `json:"unit_price"`
	PlannedParticipants int             `json:"planned_participants"`
	Status              string          `json:"status"`
	CreatedAt           time.Time       `json:"created_at"`
}

const dateLayout = "2006-01-02"

func toDTO(c *domain.Campaign) *CampaignDTO {
	return &CampaignDTO{
		CampaignID:          c.CampaignID,
		Name:                c.Name,
		AssistanceType:      c.AssistanceType,
		StartDate:           c.StartDate.UTC().Format(dateLayout),
		EndDate:             c.EndDate.UTC().Format(dateLayout),
		Budget:              c.Budget,
		BudgetConsumed:      c.BudgetConsumed,
		Remaining:           c.Remaining(),
		UnitPrice:           c.UnitPrice,
		PlannedParticipants: c.PlannedParticipants,
		Status:              string(c.Status),
		CreatedAt:           c.CreatedAt,
	}
}
