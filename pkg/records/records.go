// Package records defines the generic record type passed between the parser
// and the typed projection layers.
//
// A Record is a decoded JSON object. Numeric values are json.Number (the
// parser decodes with UseNumber) so callers control how numbers map onto Go
// types; the accessors here perform that mapping in one place.
package records

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Record is a single decoded input object keyed by field name.
type Record map[string]any

// String returns the string value for key, or "" when the key is missing,
// null, or not a string. Text fields in the raw feeds are either strings or
// null; "" is the canonical null for text downstream.
func (r Record) String(key string) string {
	if v, ok := r[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// Int returns the integer value for key. The second result is false when the
// key is missing, null, or the value cannot be represented as an int64.
// Fractional JSON numbers are truncated toward zero.
func (r Record) Int(key string) (int64, bool) {
	v, ok := r[key]
	if !ok || v == nil {
		return 0, false
	}
	switch t := v.(type) {
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n, true
		}
		if f, err := t.Float64(); err == nil {
			return int64(f), true
		}
	case float64:
		return int64(t), true
	case int:
		return int64(t), true
	case int64:
		return t, true
	}
	return 0, false
}

// Float returns a pointer to the float value for key, or nil when the key is
// missing, null, or non-numeric. The pointer form preserves the distinction
// between null and 0.
func (r Record) Float(key string) *float64 {
	v, ok := r[key]
	if !ok || v == nil {
		return nil
	}
	switch t := v.(type) {
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return &f
		}
	case float64:
		f := t
		return &f
	case int:
		f := float64(t)
		return &f
	case string:
		if f, err := strconv.ParseFloat(t, 64); err == nil {
			return &f
		}
	}
	return nil
}

// MustInt is Int with an error instead of a bool, for fields the caller
// treats as mandatory.
func (r Record) MustInt(key string) (int64, error) {
	n, ok := r.Int(key)
	if !ok {
		return 0, fmt.Errorf("records: field %q is missing or not numeric (got %T)", key, r[key])
	}
	return n, nil
}
