package dbtypes

import (
	"database/sql/driver"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// UUIDList is a set-like list of ids stored as a JSON array (followers, likes, product ids).
type UUIDList []uuid.UUID

func (l *UUIDList) Scan(src any) error {
	out := []uuid.UUID{}
	if err := scanJSON("UUIDList", src, &out); err != nil {
		return err
	}
	*l = out
	return nil
}

func (l UUIDList) Value() (driver.Value, error) {
	if l == nil {
		return jsonValue([]uuid.UUID{})
	}
	return jsonValue([]uuid.UUID(l))
}

func (UUIDList) GormDataType() string {
	return gormJSONType
}

func (UUIDList) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	return jsonDBDataType(db)
}

func (l UUIDList) Contains(id uuid.UUID) bool {
	for _, existing := range l {
		if existing == id {
			return true
		}
	}
	return false
}

// Toggle adds id when absent and removes it when present. It reports the
// membership after the call.
func (l UUIDList) Toggle(id uuid.UUID) (UUIDList, bool) {
	if l.Contains(id) {
		return l.Remove(id), false
	}
	return append(l, id), true
}

func (l UUIDList) Add(id uuid.UUID) UUIDList {
	if l.Contains(id) {
		return l
	}
	return append(l, id)
}

func (l UUIDList) Remove(id uuid.UUID) UUIDList {
	out := make(UUIDList, 0, len(l))
	for _, existing := range l {
		if existing != id {
			out = append(out, existing)
		}
	}
	return out
}

// StringList stores free-form strings such as image URLs.
type StringList []string

func (l *StringList) Scan(src any) error {
	out := []string{}
	if err := scanJSON("StringList", src, &out); err != nil {
		return err
	}
	*l = out
	return nil
}

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return jsonValue([]string{})
	}
	return jsonValue([]string(l))
}

func (StringList) GormDataType() string {
	return gormJSONType
}

func (StringList) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	return jsonDBDataType(db)
}
