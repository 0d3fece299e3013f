package dbtypes

import (
	"database/sql/driver"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

type StatusEntry struct {
	Status string    `json:"status"`
	At     time.Time `json:"at"`
	Note   string    `json:"note,omitempty"`
}

// StatusHistory is append-only.
type StatusHistory []StatusEntry

func (h *StatusHistory) Scan(src any) error {
	out := []StatusEntry{}
	if err := scanJSON("StatusHistory", src, &out); err != nil {
		return err
	}
	*h = out
	return nil
}

func (h StatusHistory) Value() (driver.Value, error) {
	if h == nil {
		return jsonValue([]StatusEntry{})
	}
	return jsonValue([]StatusEntry(h))
}

func (StatusHistory) GormDataType() string {
	return gormJSONType
}

func (StatusHistory) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	return jsonDBDataType(db)
}
