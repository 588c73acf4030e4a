package cast

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

var (
	ErrIncompatible = errors.New("no implicit conversion between integer and float")
	ErrNotNumeric   = errors.New("text is not a number")
	ErrInvalidCast  = errors.New("invalid cast")
)

// Coerce converts v into the requested representation.
//
// Supported: text->integer, text->float, integer->text, float->text.
// Integer and float are never converted into each other. Any conversion that
// cannot be made yields a null value; absent and null pass through unchanged.
func Coerce(v Value, to Cast) Value {
	out, err := CoerceStrict(v, to)
	if err != nil {
		return Null()
	}

	return out
}

// CoerceStrict is Coerce with the reason for a failed conversion.
func CoerceStrict(v Value, to Cast) (Value, error) {
	if v.IsNull() {
		return v, nil
	}

	switch to {
	case Text:
		switch v.kind {
		case KindInteger:
			return TextValue(strconv.FormatInt(v.i, 10)), nil
		case KindFloat:
			return TextValue(formatFloat(v.f)), nil
		default:
			return v, nil
		}

	case Integer:
		switch v.kind {
		case KindText:
			i, err := strconv.ParseInt(strings.TrimSpace(v.s), 10, 64)
			if err != nil {
				return Null(), ErrNotNumeric
			}

			return IntegerValue(i), nil
		case KindFloat:
			return Null(), ErrIncompatible
		default:
			return v, nil
		}

	case Float:
		switch v.kind {
		case KindText:
			f, err := strconv.ParseFloat(strings.TrimSpace(v.s), 64)
			if err != nil {
				return Null(), ErrNotNumeric
			}

			return FloatValue(f), nil
		case KindInteger:
			return Null(), ErrIncompatible
		default:
			return v, nil
		}

	default:
		return Null(), ErrInvalidCast
	}
}

// formatFloat keeps a fractional part on integral values ("42.0"), so a float
// rendered as text can always be told apart from an integer.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return s
	}

	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}

	return s
}
