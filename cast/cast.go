// Package cast defines the value representations a dissected field may be
// requested or produced as, and the rules for moving between them.
package cast

import (
	"fmt"
	"strings"
)

type Cast int

const (
	_ Cast = iota // skip zero value, use it as the invalid cast

	Text
	Integer
	Float

	castTotal = int(iota)
)

func (c Cast) String() string {
	switch c {
	case Text:
		return "text"
	case Integer:
		return "integer"
	case Float:
		return "float"
	default:
		return "unknown"
	}
}

func (c Cast) IsNumber() bool {
	return c == Integer || c == Float
}

// Set is a bitmask of casts.
type Set int

const (
	TextOnly             = Set(1 << Text)
	IntegerOnly          = Set(1 << Integer)
	FloatOnly            = Set(1 << Float)
	TextOrInteger        = TextOnly | IntegerOnly
	TextOrFloat          = TextOnly | FloatOnly
	TextOrIntegerOrFloat = TextOnly | IntegerOnly | FloatOnly

	None = Set(0)
)

// Of builds a Set from individual casts.
func Of(casts ...Cast) Set {
	var s Set
	for _, c := range casts {
		s |= Set(1 << c)
	}

	return s
}

func (s Set) Has(c Cast) bool {
	return c > 0 && int(c) < castTotal && s&Set(1<<c) != 0
}

func (s Set) IsEmpty() bool {
	return s == None
}

func (s Set) Union(other Set) Set {
	return s | other
}

func (s Set) Intersect(other Set) Set {
	return s & other
}

// Casts returns the members of the set in lattice order (text, integer, float).
func (s Set) Casts() []Cast {
	var casts []Cast

	for c := Text; int(c) < castTotal; c++ {
		if s.Has(c) {
			casts = append(casts, c)
		}
	}

	return casts
}

func (s Set) String() string {
	casts := s.Casts()
	if len(casts) == 0 {
		return "none"
	}

	names := make([]string, len(casts))
	for i, c := range casts {
		names[i] = c.String()
	}

	return strings.Join(names, "|")
}

// Compatible reports whether a producer offering one set can satisfy a
// consumer wanting the other.
func Compatible(offered, wanted Set) bool {
	return !offered.Intersect(wanted).IsEmpty()
}

// Parse accepts the names used in configuration files. Both the engine names
// (text, integer, float) and the traditional ones (string, long, double) work.
func Parse(name string) (Cast, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "text", "string":
		return Text, nil
	case "integer", "int", "long":
		return Integer, nil
	case "float", "double":
		return Float, nil
	default:
		return 0, fmt.Errorf("unknown cast %q", name)
	}
}

// ParseSet parses every name and returns their union.
func ParseSet(names ...string) (Set, error) {
	var s Set

	for _, name := range names {
		c, err := Parse(name)
		if err != nil {
			return None, err
		}

		s |= Of(c)
	}

	if s.IsEmpty() {
		return None, fmt.Errorf("empty cast set")
	}

	return s, nil
}
