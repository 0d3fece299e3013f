package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	pkgerrors "github.com/marketly/marketly-backend/pkg/errors"
	"github.com/marketly/marketly-backend/pkg/pagination"
)

// Base provides a shared foundation for domain repositories.
type Base struct {
	db *gorm.DB
}

// NewBase constructs a Base repository backed by the provided GORM connection.
func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB returns the GORM connection bound to the supplied context (if any).
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// Raw returns the unbound connection, used to build WithTx variants.
func (b Base) Raw() *gorm.DB {
	return b.db
}

// NotFound converts gorm's sentinel into a typed not-found error and wraps
// anything else as internal.
func NotFound(err error, message string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, message)
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "database error")
}

// FindPage counts q and loads one page of it into T.
func FindPage[T any](q *gorm.DB, params pagination.Params) ([]T, int64, error) {
	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	params = params.Normalize()
	rows := []T{}
	if err := q.Session(&gorm.Session{}).Offset(params.Offset()).Limit(params.Limit).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
