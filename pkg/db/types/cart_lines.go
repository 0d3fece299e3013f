package dbtypes

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

type CartLine struct {
	ProductID         uuid.UUID       `json:"product_id"`
	Quantity          int             `json:"quantity"`
	AddedAt           time.Time       `json:"added_at"`
	UnitPriceSnapshot decimal.Decimal `json:"unit_price_snapshot"`
}

// CartLines holds at most one line per product.
type CartLines []CartLine

func (l *CartLines) Scan(src any) error {
	out := []CartLine{}
	if err := scanJSON("CartLines", src, &out); err != nil {
		return err
	}
	*l = out
	return nil
}

func (l CartLines) Value() (driver.Value, error) {
	if l == nil {
		return jsonValue([]CartLine{})
	}
	return jsonValue([]CartLine(l))
}

func (CartLines) GormDataType() string {
	return gormJSONType
}

func (CartLines) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	return jsonDBDataType(db)
}

// Index returns the position of the line for productID or -1.
func (l CartLines) Index(productID uuid.UUID) int {
	for i, line := range l {
		if line.ProductID == productID {
			return i
		}
	}
	return -1
}
