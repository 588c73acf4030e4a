// Package bind delivers the values of a parsed record to the caller's sinks.
//
// Every binding is evaluated on its own: several sinks bound to one field
// with different casts and policies never influence each other.
package bind

import (
	"fmt"
	"strings"

	"logdissect/cast"
	"logdissect/internal/field"
	"logdissect/internal/plan"
	"logdissect/internal/record"
)

//go:generate go tool stringer -type=Policy -linecomment -output=policy_string.go

// Policy decides whether a missing or empty value still reaches a sink.
type Policy int

const (
	// Always delivers exactly once per record, an absent marker included.
	Always Policy = iota // always
	// NotNull delivers only values that were produced and are not null.
	NotNull // not_null
	// NotEmpty additionally skips empty text.
	NotEmpty // not_empty
)

// ParsePolicy accepts the names used in configuration files. An empty name
// is Always.
func ParsePolicy(name string) (Policy, error) {
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), "-", "_")) {
	case "", "always":
		return Always, nil
	case "not_null", "notnull":
		return NotNull, nil
	case "not_empty", "notempty":
		return NotEmpty, nil
	default:
		return Always, fmt.Errorf("unknown delivery policy %q", name)
	}
}

// Admits reports whether v may be delivered under the policy.
func (p Policy) Admits(v cast.Value) bool {
	switch p {
	case NotNull:
		return !v.IsNull()
	case NotEmpty:
		return !v.IsEmpty()
	default:
		return true
	}
}

// Sink receives one value for a record. field is the concrete TYPE:path.
type Sink[R any] func(rec R, field string, v cast.Value)

// Text adapts a sink taking *string; nil stands for null or absent.
func Text[R any](fn func(rec R, field string, v *string)) Sink[R] {
	return func(rec R, f string, v cast.Value) {
		s, ok := v.Text()
		if !ok {
			fn(rec, f, nil)
			return
		}

		fn(rec, f, &s)
	}
}

// Integer adapts a sink taking *int64; nil stands for null or absent.
func Integer[R any](fn func(rec R, field string, v *int64)) Sink[R] {
	return func(rec R, f string, v cast.Value) {
		i, ok := v.Integer()
		if !ok {
			fn(rec, f, nil)
			return
		}

		fn(rec, f, &i)
	}
}

// Float adapts a sink taking *float64; nil stands for null or absent.
func Float[R any](fn func(rec R, field string, v *float64)) Sink[R] {
	return func(rec R, f string, v cast.Value) {
		x, ok := v.Float()
		if !ok {
			fn(rec, f, nil)
			return
		}

		fn(rec, f, &x)
	}
}

// Binding ties a requested field to a sink.
type Binding[R any] struct {
	Spec   field.Spec
	Casts  cast.Set
	Policy Policy
	Sink   Sink[R]
}

type bound[R any] struct {
	Binding[R]
	target plan.Target
}

// Binder delivers stored values to bindings. It is immutable and may be
// shared by every worker.
type Binder[R any] struct {
	bindings []bound[R]
}

// New resolves each binding against the plan.
func New[R any](p *plan.Plan, bindings []Binding[R]) (*Binder[R], error) {
	b := &Binder[R]{bindings: make([]bound[R], 0, len(bindings))}

	for _, binding := range bindings {
		if binding.Sink == nil {
			return nil, fmt.Errorf("binding %s: nil sink", binding.Spec)
		}

		t, ok := p.Target(binding.Spec.String())
		if !ok {
			return nil, fmt.Errorf("binding %s: field was not planned", binding.Spec)
		}

		b.bindings = append(b.bindings, bound[R]{Binding: binding, target: t})
	}

	return b, nil
}

// Deliver hands the values of s to every binding and returns the number of
// deliveries made.
func (b *Binder[R]) Deliver(s *record.Store, rec R) int {
	delivered := 0

	var fields []field.ID

	for _, bb := range b.bindings {
		if !bb.Spec.IsWildcard() {
			entry, ok := s.Lookup(bb.target.Field)
			if !ok {
				entry = record.Entry{Value: cast.Absent(), Casts: bb.target.Casts}
			}

			if deliver(bb.Binding, rec, bb.Spec.String(), entry) {
				delivered++
			}

			continue
		}

		if fields == nil {
			fields = s.Fields()
		}

		for _, id := range fields {
			if !bb.Spec.Matches(id) {
				continue
			}

			entry, _ := s.Lookup(id)
			if deliver(bb.Binding, rec, id.String(), entry) {
				delivered++
			}
		}
	}

	return delivered
}

func deliver[R any](b Binding[R], rec R, name string, entry record.Entry) bool {
	c, ok := DeliveryCast(b.Casts, entry.Casts, entry.Value)
	if !ok {
		return false
	}

	v := entry.Value
	if v.IsPresent() {
		v = cast.Coerce(v, c)
	}

	if !b.Policy.Admits(v) {
		return false
	}

	b.Sink(rec, name, v)

	return true
}

// DeliveryCast picks the cast a value is delivered as: the native cast when
// both sides accept it, otherwise the first shared cast in lattice order.
// There is none when the binding and the producer share no cast.
func DeliveryCast(wanted, produced cast.Set, v cast.Value) (cast.Cast, bool) {
	shared := wanted.Intersect(produced)
	if shared.IsEmpty() {
		return 0, false
	}

	if native, ok := v.Native(); ok && shared.Has(native) {
		return native, true
	}

	return shared.Casts()[0], true
}
