// Package types defines named column types: reusable value conversions
// applied when rows move between the database and the application.
package types

import (
	"encoding/json"
	"fmt"
	"time"
)

// Handler converts one column value. FromDB handlers run while rows are
// materialized; ToDB handlers run on values headed into the database.
type Handler func(interface{}) (interface{}, error)

// ColumnType groups value handlers under a reusable name. Only FromDB
// participates in row materialization.
type ColumnType struct {
	Name   string
	FromDB Handler
	ToDB   Handler
}

// ISODate converts "YYYY-MM-DD" or RFC 3339 strings into time.Time.
func ISODate() *ColumnType {
	return &ColumnType{
		Name:   "ISODate",
		FromDB: parseISODate,
		ToDB:   formatISODate,
	}
}

// Bool01 converts the 0/1 integers many databases store into Go bools.
func Bool01() *ColumnType {
	return &ColumnType{
		Name:   "Bool01",
		FromDB: parseBool01,
		ToDB:   formatBool01,
	}
}

// JSON decodes TEXT columns holding JSON documents.
func JSON() *ColumnType {
	return &ColumnType{
		Name:   "JSON",
		FromDB: decodeJSON,
		ToDB:   encodeJSON,
	}
}

func parseISODate(v interface{}) (interface{}, error) {
	var s string
	switch val := v.(type) {
	case nil:
		return nil, nil
	case time.Time:
		return val, nil
	case string:
		s = val
	case []byte:
		s = string(val)
	default:
		return nil, fmt.Errorf("types: ISODate cannot convert %T", v)
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339, "2006-01-02 15:04:05"} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return nil, fmt.Errorf("types: ISODate cannot parse %q", s)
}

func formatISODate(v interface{}) (interface{}, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case time.Time:
		return val.Format("2006-01-02"), nil
	case string:
		return val, nil
	default:
		return nil, fmt.Errorf("types: ISODate cannot format %T", v)
	}
}

func parseBool01(v interface{}) (interface{}, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case bool:
		return val, nil
	case int:
		return val != 0, nil
	case int32:
		return val != 0, nil
	case int64:
		return val != 0, nil
	case string:
		return val != "0" && val != "", nil
	case []byte:
		return len(val) > 0 && string(val) != "0", nil
	default:
		return nil, fmt.Errorf("types: Bool01 cannot convert %T", v)
	}
}

func formatBool01(v interface{}) (interface{}, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case bool:
		if val {
			return 1, nil
		}
		return 0, nil
	default:
		return v, nil
	}
}

func decodeJSON(v interface{}) (interface{}, error) {
	var data []byte
	switch val := v.(type) {
	case nil:
		return nil, nil
	case string:
		data = []byte(val)
	case []byte:
		data = val
	default:
		return nil, fmt.Errorf("types: JSON cannot convert %T", v)
	}
	var out interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("types: JSON decode: %w", err)
	}
	return out, nil
}

func encodeJSON(v interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("types: JSON encode: %w", err)
	}
	return string(data), nil
}
