package testutil

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"assistance-backend/pkg/domainerrors"
)

var (
	errConflict = domainerrors.New(domainerrors.CodeConflict, "conflict")
	errMissing  = domainerrors.New(domainerrors.CodeNotFound, "missing")
	errOther    = errors.New("boom")
)

func TestRunConcurrent_Tallies(t *testing.T) {
	res := RunConcurrent(40, func(idx int) error {
		switch idx % 4 {
		case 0:
			return nil
		case 1:
			return errConflict
		case 2:
			return errMissing
		default:
			return errOther
		}
	})
	assert.Equal(t, int32(10), res.Successes)
	assert.Equal(t, int32(10), res.Conflicts)
	assert.Equal(t, int32(10), res.NotFounds)
	assert.Equal(t, int32(10), res.Errors)
}

func TestRunConcurrentCollect(t *testing.T) {
	ok, errs := RunConcurrentCollect(6, func(idx int) error {
		if idx%2 == 0 {
			return errConflict
		}
		return nil
	})
	assert.Equal(t, int32(3), ok)
	assert.Len(t, errs, 3)
	assert.Equal(t, 3, CountIs(errs, errConflict))
	assert.Equal(t, 0, CountIs(errs, errOther))
}

func TestOpenSQLite_Isolated(t *testing.T) {
	type row struct {
		ID   uint64 `gorm:"primaryKey"`
		Name string
	}
	db := OpenSQLite(t, &row{})
	assert.NoError(t, db.Create(&row{Name: "a"}).Error)

	var n int64
	assert.NoError(t, db.Model(&row{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}
