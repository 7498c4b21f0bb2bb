package knowledge

import "github.com/cssvb94/vectorlitedb/pkg/convert"

// Metadata is a flat key/value map attached to a KnowledgeEntry. Values are
// restricted to the closed set string/float64/bool — the same set
// encoding/json produces when unmarshalling a JSON object into
// map[string]any, which keeps import/export round-trips exact.
type Metadata map[string]any

// ValidateValue reports whether v belongs to the closed MetadataValue sum
// type (string, float64, bool). Integers are accepted and normalized to
// float64, via convert.ToFloat64, so that values built in Go code (where an
// int literal is the natural spelling) validate the same way as values
// decoded from JSON.
func ValidateValue(v any) (any, bool) {
	switch t := v.(type) {
	case string, bool, float64:
		return t, true
	case int, int32, int64, float32, uint, uint32, uint64:
		return convert.ToFloat64(t)
	default:
		return nil, false
	}
}

// Validate checks every value in m against the closed MetadataValue set,
// normalizing integer types to float64 in place.
func (m Metadata) Validate() error {
	for k, v := range m {
		norm, ok := ValidateValue(v)
		if !ok {
			return ErrInvalidValue
		}
		m[k] = norm
	}
	return nil
}

// Equal reports whether m[key] is present and value-equal to want, per the
// closed MetadataValue set's own equality (Go's == over string/float64/bool
// comparable values).
func (m Metadata) Equal(key string, want any) bool {
	got, ok := m[key]
	if !ok {
		return false
	}
	wantNorm, ok := ValidateValue(want)
	if !ok {
		return false
	}
	gotNorm, ok := ValidateValue(got)
	if !ok {
		return false
	}
	return gotNorm == wantNorm
}
