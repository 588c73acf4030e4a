package cast

import "strconv"

//go:generate go tool stringer -type=Kind -linecomment -output=kind_string.go

// Kind tags the representation held by a Value.
type Kind int

const (
	KindAbsent Kind = iota // absent
	KindNull               // null
	KindText               // text
	KindInteger            // integer
	KindFloat              // float
)

// Value is a single dissected value. The zero Value is absent.
type Value struct {
	kind Kind
	s    string
	i    int64
	f    float64
}

func Absent() Value { return Value{} }

func Null() Value { return Value{kind: KindNull} }

func TextValue(s string) Value { return Value{kind: KindText, s: s} }

func IntegerValue(i int64) Value { return Value{kind: KindInteger, i: i} }

func FloatValue(f float64) Value { return Value{kind: KindFloat, f: f} }

func (v Value) Kind() Kind { return v.kind }

// IsPresent is true for every value a dissector actually produced, null included.
func (v Value) IsPresent() bool { return v.kind != KindAbsent }

// IsNull is true for both null and absent values.
func (v Value) IsNull() bool { return v.kind == KindAbsent || v.kind == KindNull }

// IsEmpty is true for null, absent and empty text.
func (v Value) IsEmpty() bool {
	return v.IsNull() || (v.kind == KindText && v.s == "")
}

// Native returns the cast the value was produced as, or false for null and absent.
func (v Value) Native() (Cast, bool) {
	switch v.kind {
	case KindText:
		return Text, true
	case KindInteger:
		return Integer, true
	case KindFloat:
		return Float, true
	default:
		return 0, false
	}
}

func (v Value) Text() (string, bool) {
	if v.kind != KindText {
		return "", false
	}

	return v.s, true
}

func (v Value) Integer() (int64, bool) {
	if v.kind != KindInteger {
		return 0, false
	}

	return v.i, true
}

func (v Value) Float() (float64, bool) {
	if v.kind != KindFloat {
		return 0, false
	}

	return v.f, true
}

// String renders the value for logs and diagnostics.
func (v Value) String() string {
	switch v.kind {
	case KindText:
		return v.s
	case KindInteger:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return formatFloat(v.f)
	default:
		return "<" + v.kind.String() + ">"
	}
}

// Interface returns the value as a plain Go value (string, int64, float64 or nil).
func (v Value) Interface() any {
	switch v.kind {
	case KindText:
		return v.s
	case KindInteger:
		return v.i
	case KindFloat:
		return v.f
	default:
		return nil
	}
}
