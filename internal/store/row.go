package store

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// timeLayouts are the textual timestamp forms SQLite and PostgreSQL hand back.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Has reports whether col is present in the row, even when null.
func (r Row) Has(col string) bool {
	_, ok := r[col]
	return ok
}

// String returns col as text. Null and missing columns give "".
func (r Row) String(col string) string {
	switch v := r[col].(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case time.Time:
		return v.Format(time.RFC3339)
	default:
		return fmt.Sprint(v)
	}
}

// Float returns col as a float64. Unparseable values give 0.
func (r Row) Float(col string) float64 {
	switch v := r[col].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int64:
		return float64(v)
	case int32:
		return float64(v)
	case int:
		return float64(v)
	case bool:
		if v {
			return 1
		}
		return 0
	case string, []byte:
		f, _ := strconv.ParseFloat(strings.TrimSpace(r.String(col)), 64)
		return f
	default:
		return 0
	}
}

// Int returns col as an int64, truncating fractional values.
func (r Row) Int(col string) int64 {
	switch v := r[col].(type) {
	case int64:
		return v
	case int32:
		return int64(v)
	case int:
		return int64(v)
	default:
		return int64(r.Float(col))
	}
}

// Bool returns col as a bool. SQLite stores booleans as 0 and 1.
func (r Row) Bool(col string) bool {
	switch v := r[col].(type) {
	case bool:
		return v
	case string, []byte:
		b, err := strconv.ParseBool(strings.TrimSpace(r.String(col)))
		if err != nil {
			return r.Float(col) != 0
		}
		return b
	default:
		return r.Float(col) != 0
	}
}

// Time returns col as a time. Unparseable values give the zero time.
func (r Row) Time(col string) time.Time {
	switch v := r[col].(type) {
	case time.Time:
		return v
	case string, []byte:
		s := strings.TrimSpace(r.String(col))
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t
			}
		}
	}
	return time.Time{}
}
