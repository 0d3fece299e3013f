package dbtypes

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"
)

// JSON columns are jsonb on Postgres and text everywhere else.
func jsonDBDataType(db *gorm.DB) string {
	if db != nil && db.Dialector != nil && db.Dialector.Name() == "postgres" {
		return "jsonb"
	}
	return "text"
}

func jsonValue(v any) (driver.Value, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

func scanJSON(name string, src any, dest any) error {
	switch v := src.(type) {
	case nil:
		return nil
	case string:
		if v == "" {
			return nil
		}
		return json.Unmarshal([]byte(v), dest)
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, dest)
	default:
		return fmt.Errorf("%s: unsupported Scan type %T", name, src)
	}
}

// gormJSONType is the generic GORM data type shared by every JSON column.
const gormJSONType = "json"
