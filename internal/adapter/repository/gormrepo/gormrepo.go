package gormrepo

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"assistance-backend/internal/domain/assistance"
	"assistance-backend/internal/domain/audit"
	"assistance-backend/internal/domain/beneficiary"
	"assistance-backend/internal/domain/campaign"
	"assistance-backend/internal/domain/sequence"
	"assistance-backend/pkg/domainerrors"
)

// Models lists every table owned by this package, in migration order.
func Models() []any {
	return []any{
		&campaign.Campaign{},
		&assistance.Record{},
		&audit.Event{},
		&beneficiary.Beneficiary{},
		&sequence.Sequence{},
	}
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}

var forUpdate = clause.Locking{Strength: "UPDATE"}

// lookupErr maps a missing row to notFound and anything else to a storage error.
func lookupErr(err, notFound error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return domainerrors.Storage(err, msg)
}

// versionedUpdate writes every column of row where its id and version still
// match. On success the version is bumped in place.
func versionedUpdate(db *gorm.DB, row any, version *uint64) error {
	prev := *version
	*version = prev + 1
	res := db.Model(row).
		Where("version = ?", prev).
		Select("*").Omit("id", "created_at").
		Updates(row)
	if res.Error != nil {
		*version = prev
		return domainerrors.Storage(res.Error, "versioned update")
	}
	if res.RowsAffected == 0 {
		*version = prev
		return domainerrors.ErrStaleWrite
	}
	return nil
}
