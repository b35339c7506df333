package record

// Row is a single domain record as returned by the record source. Field sets
// vary by table; every row carries an "id" plus zero or more foreign-key
// columns referencing rows in other tables.
type Row map[string]any

// Unavailable marks a foreign key that referenced a record the lookup could
// not resolve. It is deliberately distinct from a nil/absent field, which
// means the relation does not apply to the row at all.
type Unavailable struct{}

// MarshalJSON renders the marker so clients can tell "lookup failed" apart
// from "no value".
func (Unavailable) MarshalJSON() ([]byte, error) {
	return []byte(`{"_unavailable":true}`), nil
}

// IsUnavailable reports whether v is the unresolved-reference marker.
func IsUnavailable(v any) bool {
	_, ok := v.(Unavailable)
	return ok
}

// RoleContext identifies the caller for role-based row restriction.
type RoleContext struct {
	UserID     string
	Role       string
	Privileged bool
}

// Clone returns a shallow copy of the row.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// String reads a string field. The second result is false when the field is
// absent, nil, or not a string.
func (r Row) String(key string) (string, bool) {
	v, ok := r[key]
	if !ok || v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Float reads a numeric field. JSON decoding yields float64 for all numbers;
// integer values produced by SQL scans are converted.
func (r Row) Float(key string) (float64, bool) {
	v, ok := r[key]
	if !ok || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case int:
		return float64(n), true
	}
	return 0, false
}
