package dbtypes

import (
	"database/sql/driver"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// AddressSnapshot is the delivery address copied onto an order.
type AddressSnapshot struct {
	FullName   string `json:"full_name"`
	Phone      string `json:"phone"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	Landmark   string `json:"landmark,omitempty"`
}

func (a *AddressSnapshot) Scan(src any) error {
	out := AddressSnapshot{}
	if err := scanJSON("AddressSnapshot", src, &out); err != nil {
		return err
	}
	*a = out
	return nil
}

func (a AddressSnapshot) Value() (driver.Value, error) {
	return jsonValue(a)
}

func (AddressSnapshot) GormDataType() string {
	return gormJSONType
}

func (AddressSnapshot) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	return jsonDBDataType(db)
}
