package models

import (
	"math"
	"strconv"
	"strings"
)

// LeadRecord is one property as returned by the leads API. The upstream
// payload is loosely typed and uses several near-synonymous field names for
// the same value, so records stay generic maps and readers go through the
// ordered-accessor helpers below.
type LeadRecord map[string]any

// Address holds the address components of a lead, carried into every
// exported row.
type Address struct {
	Street string
	City   string
	State  string
	Zip    string
}

func (r LeadRecord) Address() Address {
	return Address{
		Street: r.String("property_address"),
		City:   r.String("property_address_city"),
		State:  r.String("property_address_state"),
		Zip:    r.String("property_address_zip"),
	}
}

// String returns the first non-empty value among keys, stringified.
func (r LeadRecord) String(keys ...string) string {
	for _, key := range keys {
		if s := Stringify(r[key]); s != "" {
			return s
		}
	}
	return ""
}

// Entries returns the first present list-of-objects value among keys.
// Entries that are not objects are skipped.
func (r LeadRecord) Entries(keys ...string) []LeadRecord {
	for _, key := range keys {
		list, ok := r[key].([]any)
		if !ok || len(list) == 0 {
			continue
		}
		var out []LeadRecord
		for _, item := range list {
			if m, ok := item.(map[string]any); ok {
				out = append(out, LeadRecord(m))
			}
		}
		return out
	}
	return nil
}

// Object returns a nested object value, or nil.
func (r LeadRecord) Object(key string) LeadRecord {
	if m, ok := r[key].(map[string]any); ok {
		return LeadRecord(m)
	}
	return nil
}

func (r LeadRecord) Bool(key string) bool {
	b, _ := r[key].(bool)
	return b
}

// Number returns a numeric field value. Upstream sometimes sends numbers
// as strings, so both forms are accepted.
func (r LeadRecord) Number(key string) (float64, bool) {
	switch v := r[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// Stringify renders a raw JSON value as a string. Numeric identifiers come
// through json.Unmarshal as float64 and must not pick up exponent notation.
func Stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		if val == math.Trunc(val) && math.Abs(val) < 1e15 {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		if val {
			return "true"
		}
		return "false"
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	}
	return ""
}
