package store

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// Row is a single procedure result row keyed by column name. Accessors
// are null-safe: absent columns and SQL NULLs yield zero values rather
// than errors, matching how the procedures are written.
type Row map[string]any

// String returns the column as a string, or "" when NULL or absent.
func (r Row) String(col string) string {
	if v, ok := r[col].(string); ok {
		return v
	}
	return ""
}

// Int returns the column as an int.
func (r Row) Int(col string) int {
	return int(r.Int64(col))
}

// Int64 returns the column as an int64, converting smaller integer widths.
func (r Row) Int64(col string) int64 {
	switch v := r[col].(type) {
	case int64:
		return v
	case int32:
		return int64(v)
	case int16:
		return int64(v)
	case int:
		return int64(v)
	}
	return 0
}

// Int64Ptr returns the column as *int64, nil when NULL.
func (r Row) Int64Ptr(col string) *int64 {
	if r[col] == nil {
		return nil
	}
	v := r.Int64(col)
	return &v
}

// Bool returns the column as a bool, false when NULL.
func (r Row) Bool(col string) bool {
	if v, ok := r[col].(bool); ok {
		return v
	}
	return false
}

// Time returns the column as a time.Time, zero when NULL.
func (r Row) Time(col string) time.Time {
	if v, ok := r[col].(time.Time); ok {
		return v
	}
	return time.Time{}
}

// TimePtr returns the column as *time.Time, nil when NULL.
func (r Row) TimePtr(col string) *time.Time {
	if v, ok := r[col].(time.Time); ok {
		return &v
	}
	return nil
}

// Float returns the column as a float64. Numeric columns come back from
// pgx as pgtype.Numeric and are converted here.
func (r Row) Float(col string) float64 {
	switch v := r[col].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int64:
		return float64(v)
	case pgtype.Numeric:
		f, err := v.Float64Value()
		if err != nil || !f.Valid {
			return 0
		}
		return f.Float64
	}
	return 0
}

// FloatPtr returns the column as *float64, nil when NULL.
func (r Row) FloatPtr(col string) *float64 {
	if r[col] == nil {
		return nil
	}
	if n, ok := r[col].(pgtype.Numeric); ok && !n.Valid {
		return nil
	}
	v := r.Float(col)
	return &v
}
