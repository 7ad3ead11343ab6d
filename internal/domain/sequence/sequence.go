package sequence

import (
	"context"
	"fmt"
)

// Sequence is a named counter row. Locking it serializes writers that share
// the name, whether or not they use the value.
type Sequence struct {
	Name  string `gorm:"primaryKey;column:name;size:64"`
	Value int64  `gorm:"column:value;not null;default:0"`
}

func (Sequence) TableName() string { return "sequences" }

type Repository interface {
	// Next locks the row (creating it at seed when missing) and returns the
	// incremented value. Must run inside a transaction.
	Next(ctx context.Context, name string, seed int64) (int64, error)
	// Lock takes the row lock without changing the value.
	Lock(ctx context.Context, name string) error
}

func CaseNumberKey(year int) string { return fmt.Sprintf("case:%04d", year) }

func CampaignScheduleKey(assistanceType string) string {
	return "campaign-schedule:" + assistanceType
}
