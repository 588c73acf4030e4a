package dissector

import (
	"logdissect/cast"
)

// Base implements the descriptive half of Template from a declared output
// table. Concrete templates embed it and add Configure and Instantiate.
type Base struct {
	TemplateName string
	Input        string
	Outputs      []Output
}

func (b Base) Name() string {
	return b.TemplateName
}

func (b Base) InputType() string {
	return b.Input
}

func (b Base) PossibleOutputs() []Output {
	out := make([]Output, len(b.Outputs))
	copy(out, b.Outputs)

	return out
}

// Activate returns the union of the casts declared for leaf. When no output
// carries that exact name a declared Wildcard output answers for it.
func (b Base) Activate(leaf string) (cast.Set, bool) {
	var (
		casts cast.Set
		found bool
	)

	for _, o := range b.Outputs {
		if o.Name == leaf {
			casts = casts.Union(o.Casts)
			found = true
		}
	}

	if found {
		return casts, true
	}

	for _, o := range b.Outputs {
		if o.IsWildcard() {
			casts = casts.Union(o.Casts)
			found = true
		}
	}

	return casts, found
}

// Declares reports whether the template lists typ:leaf among its outputs,
// directly or through a wildcard output of the same type.
func Declares(t Template, typ, leaf string) bool {
	for _, o := range t.PossibleOutputs() {
		if o.Type != typ {
			continue
		}

		if o.Name == leaf || o.IsWildcard() {
			return true
		}
	}

	return false
}
