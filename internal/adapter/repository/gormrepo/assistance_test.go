package gormrepo

import (
	"context"
	"errors"
	"testing"

	"assistance-backend/internal/domain/assistance"
	"assistance-backend/internal/domain/catalog"
	"assistance-backend/internal/domain/equipment"
	"assistance-backend/pkg/domainerrors"
)

func TestAssistanceRepository_CreateGetUpdate(t *testing.T) {
	db := openTestDB(t)
	repo := NewAssistanceRepository(db)
	ctx := context.Background()

	rec := makeRecord("20240001")
	days := 30
	rec.AssistanceType = catalog.TypeEquipment
	rec.Loan = equipment.Loan{NatureTag: catalog.NatureLoanFixedTerm, LoanDurationDays: &days}
	rec.ApplyTerms(rec.AssistanceDate)
	if err := repo.Create(ctx, rec); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.GetByAssistanceIDForUpdate(ctx, rec.AssistanceID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.DueDate == nil || !got.DueDate.Equal(day(2024, 7, 1)) {
		t.Fatalf("due date round trip: %v", got.DueDate)
	}
	if got.State() != assistance.StateRegistered {
		t.Fatalf("expected registered, got %s", got.State())
	}

	if err := got.Validate("actor", "fine", day(2024, 6, 2)); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if err := repo.Update(ctx, got); err != nil {
		t.Fatalf("update: %v", err)
	}

	stale := *rec
	stale.Rejected = true
	if err := repo.Update(ctx, &stale); !errors.Is(err, domainerrors.ErrStaleWrite) {
		t.Fatalf("expected ErrStaleWrite, got %v", err)
	}

	after, _ := repo.GetByAssistanceID(ctx, rec.AssistanceID)
	if !after.Validated || after.Rejected || after.Version != 2 {
		t.Fatalf("unexpected stored record: validated=%v rejected=%v version=%d", after.Validated, after.Rejected, after.Version)
	}

	if _, err := repo.GetByAssistanceID(ctx, "nope"); !errors.Is(err, assistance.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAssistanceRepository_MaxCaseSequence(t *testing.T) {
	db := openTestDB(t)
	repo := NewAssistanceRepository(db)
	ctx := context.Background()

	if n, err := repo.MaxCaseSequence(ctx, 2024); err != nil || n != 0 {
		t.Fatalf("empty year: n=%d err=%v", n, err)
	}
	for _, cn := range []string{"20240009", "202410000", "20240042", "20259999"} {
		if err := repo.Create(ctx, makeRecord(cn)); err != nil {
			t.Fatalf("seed %s: %v", cn, err)
		}
	}
	n, err := repo.MaxCaseSequence(ctx, 2024)
	if err != nil {
		t.Fatalf("max: %v", err)
	}
	if n != 10000 {
		t.Fatalf("expected 10000 (longer number wins), got %d", n)
	}
	if n, _ := repo.MaxCaseSequence(ctx, 2025); n != 9999 {
		t.Fatalf("2025: expected 9999, got %d", n)
	}
}

func TestAssistanceRepository_ListOpenLoans(t *testing.T) {
	db := openTestDB(t)
	repo := NewAssistanceRepository(db)
	ctx := context.Background()

	mk := func(cn string, dueDay int, returned bool) {
		r := makeRecord(cn)
		r.AssistanceType = catalog.TypeEquipment
		days := dueDay
		r.Loan = equipment.Loan{NatureTag: catalog.NatureLoanTemporary, LoanDurationDays: &days, Returned: returned}
		r.ApplyTerms(day(2024, 6, 1))
		if err := repo.Create(ctx, r); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	mk("20240001", 5, false)  // due 06-06
	mk("20240002", 10, false) // due 06-11
	mk("20240003", 5, true)   // returned

	got, err := repo.ListOpenLoans(ctx, catalog.TypeEquipment, day(2024, 6, 11))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].CaseNumber != "20240001" {
		t.Fatalf("expected only 20240001, got %+v", got)
	}
}

func TestAssistanceRepository_CountCampaignBeneficiaries(t *testing.T) {
	db := openTestDB(t)
	repo := NewAssistanceRepository(db)
	ctx := context.Background()

	campaignID := "c1"
	ben := "b1"
	for i, cn := range []string{"20240001", "20240002", "20240003", "20240004"} {
		r := makeRecord(cn)
		r.CampaignID = &campaignID
		switch i {
		case 0, 1:
			r.BeneficiaryID = ben // same beneficiary twice
		case 2:
			r.Rejected = true
		}
		if err := repo.Create(ctx, r); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	n, err := repo.CountCampaignBeneficiaries(ctx, campaignID)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 distinct live beneficiaries, got %d", n)
	}
}
