package integration

import "github.com/shopspring/decimal"

// RawRecord is the wire shape of an ERP record before it is mapped into a
// typed entity. The ERP serializes absent values as boolean false, so every
// accessor below treats false as "no value".
type RawRecord map[string]any

// Str returns the string value for key, or "" when the field is absent or
// carries the ERP's false placeholder.
func (r RawRecord) Str(key string) string {
	v, ok := r[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}

// Int returns the integer value for key, tolerating the numeric types the
// XML-RPC layer may produce. Absent or false fields yield 0.
func (r RawRecord) Int(key string) int64 {
	switch v := r[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	default:
		return 0
	}
}

// Decimal returns the decimal value for key, or zero when absent.
func (r RawRecord) Decimal(key string) decimal.Decimal {
	switch v := r[key].(type) {
	case float64:
		return decimal.NewFromFloat(v)
	case int64:
		return decimal.NewFromInt(v)
	case int:
		return decimal.NewFromInt(int64(v))
	case string:
		d, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.Zero
		}
		return d
	default:
		return decimal.Zero
	}
}

// Bool returns the boolean value for key.
func (r RawRecord) Bool(key string) bool {
	v, ok := r[key].(bool)
	return ok && v
}

// Has reports whether key holds a usable value. The ERP's false placeholder
// counts as absent.
func (r RawRecord) Has(key string) bool {
	v, ok := r[key]
	if !ok {
		return false
	}
	if b, isBool := v.(bool); isBool && !b {
		return false
	}
	return true
}

// Ref returns the id of a many2one field, which the ERP serializes as a
// two-element [id, display_name] tuple. Returns 0 when the field is unset.
func (r RawRecord) Ref(key string) int64 {
	switch v := r[key].(type) {
	case []any:
		if len(v) == 0 {
			return 0
		}
		switch id := v[0].(type) {
		case int64:
			return id
		case int:
			return int64(id)
		case float64:
			return int64(id)
		}
		return 0
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	default:
		return 0
	}
}

// Refs returns the ids of a many2many field, serialized as a list of ids.
func (r RawRecord) Refs(key string) []int64 {
	list, ok := r[key].([]any)
	if !ok {
		return nil
	}
	ids := make([]int64, 0, len(list))
	for _, item := range list {
		switch id := item.(type) {
		case int64:
			ids = append(ids, id)
		case int:
			ids = append(ids, int64(id))
		case float64:
			ids = append(ids, int64(id))
		}
	}
	return ids
}
