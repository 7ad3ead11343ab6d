package gormrepo

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"assistance-backend/internal/domain/assistance"
	"assistance-backend/internal/domain/campaign"
	"assistance-backend/internal/testutil"
	"assistance-backend/pkg/id"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	return testutil.OpenSQLite(t, Models()...)
}

func day(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func makeCampaign(typ string, start, end time.Time, budget int64) *campaign.Campaign {
	return &campaign.Campaign{
		CampaignID:     id.NewID32(),
		Name:           "campaign " + typ,
		AssistanceType: typ,
		StartDate:      start,
		EndDate:        end,
		Budget:         decimal.NewFromInt(budget),
		Status:         campaign.StatusActive,
	}
}

func makeRecord(caseNumber string) *assistance.Record {
	return &assistance.Record{
		AssistanceID:   id.NewID32(),
		CaseNumber:     caseNumber,
		BeneficiaryID:  id.NewID32(),
		AssistanceType: "lunettes",
		AssistanceDate: day(2024, 6, 1),
		Amount:         decimal.NewFromInt(100),
		Priority:       assistance.PriorityNormal,
	}
}
