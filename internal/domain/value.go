package domain

// ValueKind discriminates entity value payloads.
type ValueKind string

const (
	KindText   ValueKind = "text"
	KindNumber ValueKind = "number"
)

// Value is one extracted applicant attribute. Absent fields are simply
// missing from the entity map; a zero Value never stands in for "unknown".
type Value struct {
	Kind   ValueKind `json:"kind"`
	Text   string    `json:"text,omitempty"`
	Number float64   `json:"number,omitempty"`
}

// TextValue builds a text-valued entity.
func TextValue(s string) Value {
	return Value{Kind: KindText, Text: s}
}

// NumberValue builds a numeric entity.
func NumberValue(f float64) Value {
	return Value{Kind: KindNumber, Number: f}
}

// IsSet reports whether the value carries a payload.
func (v Value) IsSet() bool {
	switch v.Kind {
	case KindText:
		return v.Text != ""
	case KindNumber:
		return true
	default:
		return false
	}
}
