// Package dissector defines the contract between the dissection engine and
// the leaf units that decode one typed value into typed child values.
//
// A Template is registered once and never mutated. Planning configures it
// (Configure), asks which of its outputs can be produced (Activate) and then
// builds one Dissector per input field (Instantiate) with a frozen Activation
// that tells the instance which outputs were requested.
package dissector

import (
	"logdissect/cast"
)

// Wildcard is the output name a template declares when the concrete leaf
// names are only known while dissecting (query string parameters, cookies).
const Wildcard = "*"

// Output is one producible child value.
type Output struct {
	Type  string
	Name  string
	Casts cast.Set
}

// String renders the output as TYPE:name.
func (o Output) String() string {
	return o.Type + ":" + o.Name
}

// IsWildcard reports whether the output stands for dynamically named leaves.
func (o Output) IsWildcard() bool {
	return o.Name == Wildcard
}

// Template is the stateless, registrable side of a dissector.
type Template interface {
	// Name identifies the template in disambiguation directives and errors.
	Name() string
	// InputType is the type name of the value this template consumes.
	InputType() string
	// PossibleOutputs lists every child this template can ever emit.
	PossibleOutputs() []Output
	// Configure returns a copy of the template configured from settings.
	// Malformed settings yield a *ConfigError.
	Configure(settings string) (Template, error)
	// Activate reports the casts the engine should expect for a requested
	// leaf, or false if the leaf is not produced by this template.
	Activate(leaf string) (cast.Set, bool)
	// Instantiate builds the instance that will run against one input field.
	Instantiate(act Activation) (Dissector, error)
}

// Emitter receives the children produced while dissecting one value.
type Emitter func(typ, leaf string, v cast.Value)

// Dissector is a configured, activated instance. Dissect must be pure: the
// same input always produces the same children. Returning a *Failure (or any
// error) marks the record as not dissectable.
type Dissector interface {
	Dissect(in cast.Value, emit Emitter) error
}

// Func adapts a plain function to the Dissector interface.
type Func func(in cast.Value, emit Emitter) error

func (f Func) Dissect(in cast.Value, emit Emitter) error {
	return f(in, emit)
}
