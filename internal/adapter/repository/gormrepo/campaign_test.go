package gormrepo

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"assistance-backend/internal/domain/campaign"
	"assistance-backend/pkg/domainerrors"
)

func TestCampaignRepository_CreateGet(t *testing.T) {
	db := openTestDB(t)
	repo := NewCampaignRepository(db)
	ctx := context.Background()

	c := makeCampaign("lunettes", day(2024, 1, 1), day(2024, 3, 1), 1000)
	if err := repo.Create(ctx, c); err != nil {
		t.Fatalf("create: %v", err)
	}
	if c.ID == 0 || c.Version != 1 {
		t.Fatalf("expected id and version 1, got id=%d version=%d", c.ID, c.Version)
	}

	got, err := repo.GetByCampaignID(ctx, c.CampaignID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.Budget.Equal(decimal.NewFromInt(1000)) || got.Status != campaign.StatusActive {
		t.Fatalf("unexpected campaign: %+v", got)
	}
	if !got.StartDate.Equal(day(2024, 1, 1)) {
		t.Fatalf("start date round trip: %v", got.StartDate)
	}

	if _, err := repo.GetByCampaignID(ctx, "missing"); !errors.Is(err, campaign.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := repo.GetByCampaignIDForUpdate(ctx, "missing"); !errors.Is(err, campaign.ErrNotFound) {
		t.Fatalf("expected ErrNotFound under lock, got %v", err)
	}
}

func TestCampaignRepository_FindOverlapping(t *testing.T) {
	db := openTestDB(t)
	repo := NewCampaignRepository(db)
	ctx := context.Background()

	a := makeCampaign("lunettes", day(2024, 1, 1), day(2024, 3, 1), 1000)
	other := makeCampaign("transport", day(2024, 1, 1), day(2024, 3, 1), 1000)
	cancelled := makeCampaign("lunettes", day(2024, 2, 1), day(2024, 2, 10), 1000)
	cancelled.Status = campaign.StatusCancelled
	gone := makeCampaign("lunettes", day(2024, 2, 1), day(2024, 2, 10), 1000)
	gone.Tombstoned = true
	for _, c := range []*campaign.Campaign{a, other, cancelled, gone} {
		if err := repo.Create(ctx, c); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	cases := []struct {
		name       string
		start, end int // days of March 2024
		want       int
	}{
		{"touches end day", 1, 10, 1},
		{"after end", 2, 10, 0},
	}
	for _, tc := range cases {
		got, err := repo.FindOverlapping(ctx, "lunettes", day(2024, 3, tc.start), day(2024, 3, tc.end))
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if len(got) != tc.want {
			t.Fatalf("%s: want %d overlapping, got %d", tc.name, tc.want, len(got))
		}
	}

	got, err := repo.FindOverlapping(ctx, "lunettes", day(2023, 12, 1), day(2024, 1, 1))
	if err != nil || len(got) != 1 || got[0].CampaignID != a.CampaignID {
		t.Fatalf("start-day overlap: got %v err %v", got, err)
	}
}

func TestCampaignRepository_VersionedUpdate(t *testing.T) {
	db := openTestDB(t)
	repo := NewCampaignRepository(db)
	ctx := context.Background()

	c := makeCampaign("lunettes", day(2024, 1, 1), day(2024, 3, 1), 1000)
	if err := repo.Create(ctx, c); err != nil {
		t.Fatalf("create: %v", err)
	}

	first, _ := repo.GetByCampaignID(ctx, c.CampaignID)
	second, _ := repo.GetByCampaignID(ctx, c.CampaignID)

	if err := first.Reserve(decimal.NewFromInt(300)); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if err := repo.Update(ctx, first); err != nil {
		t.Fatalf("update first: %v", err)
	}
	if first.Version != 2 {
		t.Fatalf("expected version 2, got %d", first.Version)
	}

	if err := second.Reserve(decimal.NewFromInt(900)); err != nil {
		t.Fatalf("reserve second: %v", err)
	}
	err := repo.Update(ctx, second)
	if !errors.Is(err, domainerrors.ErrStaleWrite) {
		t.Fatalf("expected ErrStaleWrite, got %v", err)
	}
	if second.Version != 1 {
		t.Fatalf("stale write must not bump version, got %d", second.Version)
	}

	stored, _ := repo.GetByCampaignID(ctx, c.CampaignID)
	if !stored.BudgetConsumed.Equal(decimal.NewFromInt(300)) || stored.Version != 2 {
		t.Fatalf("unexpected stored state: consumed=%s version=%d", stored.BudgetConsumed, stored.Version)
	}
	if !stored.CreatedAt.Equal(first.CreatedAt) {
		t.Fatalf("created_at must not change on update")
	}
}
