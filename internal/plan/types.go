package plan

import (
	"fmt"
	"sort"
	"strings"

	"logdissect/cast"
	"logdissect/dissector"
	"logdissect/internal/field"
	"logdissect/internal/request"
)

// OutputKey identifies one activated output of a step.
type OutputKey struct {
	Type string
	Leaf string
}

func (k OutputKey) String() string {
	return k.Type + ":" + k.Leaf
}

// Step is one dissector instance bound to the concrete field it reads.
type Step struct {
	Template   dissector.Template
	Input      field.ID
	Activation dissector.Activation
	Dissector  dissector.Dissector

	outputs map[OutputKey]cast.Set
	leaves  map[string]cast.Set
	deps    []int
}

// Name is the name of the template behind the step.
func (s *Step) Name() string {
	return s.Template.Name()
}

// Activated returns the casts expected for typ:leaf, or false when the output
// was not requested. A requested wildcard output of the same type answers for
// every leaf.
func (s *Step) Activated(typ, leaf string) (cast.Set, bool) {
	if c, ok := s.outputs[OutputKey{Type: typ, Leaf: leaf}]; ok {
		return c, true
	}

	c, ok := s.outputs[OutputKey{Type: typ, Leaf: dissector.Wildcard}]

	return c, ok
}

// Outputs returns the activated outputs sorted by type then leaf.
func (s *Step) Outputs() []OutputKey {
	keys := make([]OutputKey, 0, len(s.outputs))
	for k := range s.outputs {
		keys = append(keys, k)
	}

	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Type != keys[j].Type {
			return keys[i].Type < keys[j].Type
		}

		return keys[i].Leaf < keys[j].Leaf
	})

	return keys
}

func (s *Step) String() string {
	outs := make([]string, 0, len(s.outputs))
	for _, k := range s.Outputs() {
		outs = append(outs, fmt.Sprintf("%s:%s [%s]", k.Type, field.Child(s.Input.Path, k.Leaf), s.outputs[k]))
	}

	return fmt.Sprintf("%s %s -> %s", s.Name(), s.Input, strings.Join(outs, ", "))
}

// Target is one demand entry resolved to the step that produces it.
type Target struct {
	Entry *request.Entry
	// Field is the concrete field, or the parent for a wildcard entry.
	Field field.ID
	Step  *Step
	// Casts are the casts the producer was activated with.
	Casts cast.Set
}

// Plan is the immutable result of resolution. It is shared read-only by every
// record that is parsed with it.
type Plan struct {
	Root    field.ID
	Steps   []*Step
	Targets []Target

	targets map[string]int
}

// Target returns the resolution of a normalized TYPE:path entry.
func (p *Plan) Target(key string) (Target, bool) {
	i, ok := p.targets[key]
	if !ok {
		return Target{}, false
	}

	return p.Targets[i], true
}

// StepDescription is a comparable rendering of a step.
type StepDescription struct {
	Dissector string
	Input     string
	Outputs   []string
	Leaves    []string
}

// Describe returns one description per step in execution order.
func (p *Plan) Describe() []StepDescription {
	out := make([]StepDescription, 0, len(p.Steps))

	for _, s := range p.Steps {
		desc := StepDescription{
			Dissector: s.Name(),
			Input:     s.Input.String(),
			Leaves:    s.Activation.Leaves(),
		}

		for _, k := range s.Outputs() {
			desc.Outputs = append(desc.Outputs, fmt.Sprintf("%s [%s]", k, s.outputs[k]))
		}

		out = append(out, desc)
	}

	return out
}

func (p *Plan) String() string {
	var b strings.Builder

	fmt.Fprintf(&b, "root %s\n", p.Root)

	for i, s := range p.Steps {
		fmt.Fprintf(&b, "%d. %s\n", i+1, s)
	}

	return b.String()
}

// AmbiguousResolutionError is returned when more than one chain can produce a
// requested field and no prefer directive picks one.
type AmbiguousResolutionError struct {
	Field      string
	Input      string
	Candidates []string
}

func (e *AmbiguousResolutionError) Error() string {
	return fmt.Sprintf("ambiguous resolution of %s: dissectors %s can all consume %s; add a prefer directive",
		e.Field, strings.Join(e.Candidates, ", "), e.Input)
}

// UnreachableFieldError is returned when no chain of dissectors leads from
// the record root to a requested field.
type UnreachableFieldError struct {
	Field       string
	Suggestions []string
}

func (e *UnreachableFieldError) Error() string {
	return "no dissector chain produces " + e.Field
}
