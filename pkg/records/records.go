// Package records defines the row representation shared by the parser,
// pipeline stages, and exporters. A Record is a flat map from canonical
// column name to a value; nil marks a missing value, which keeps "missing"
// distinct from zero for downstream aggregation.
package records

import (
	"fmt"
	"strconv"
	"time"
)

// Record is one logical row keyed by canonical column names.
type Record map[string]any

// Clone returns a shallow copy of r. Values are shared; stages that derive
// new columns clone first so earlier stage outputs stay immutable.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Has reports whether key is present with a non-nil value.
func (r Record) Has(key string) bool {
	v, ok := r[key]
	return ok && v != nil
}

// String returns the value for key rendered as a string, and whether a
// non-nil value was present. Non-string scalars are formatted with fmt.
func (r Record) String(key string) (string, bool) {
	v, ok := r[key]
	if !ok || v == nil {
		return "", false
	}
	if s, ok := v.(string); ok {
		return s, true
	}
	return fmt.Sprint(v), true
}

// Float returns the value for key as a float64. Strings are parsed; a value
// that is present but unparseable counts as missing.
func (r Record) Float(key string) (float64, bool) {
	v, ok := r[key]
	if !ok || v == nil {
		return 0, false
	}
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// Int returns the value for key as an int, with the same coercion rules as
// Float. Fractional floats truncate.
func (r Record) Int(key string) (int, bool) {
	f, ok := r.Float(key)
	if !ok {
		return 0, false
	}
	return int(f), true
}

// Time returns the value for key as a time.Time when it already holds one.
// String-to-time coercion is a pipeline concern, not a Record concern.
func (r Record) Time(key string) (time.Time, bool) {
	v, ok := r[key]
	if !ok || v == nil {
		return time.Time{}, false
	}
	t, ok := v.(time.Time)
	return t, ok
}
