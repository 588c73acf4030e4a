// Package request compiles the caller's field registrations into a demand:
// the deduplicated, ordered set of fields the planner has to make reachable.
package request

import (
	"errors"
	"fmt"

	"logdissect/cast"
	"logdissect/internal/diagnostic"
	"logdissect/internal/field"
)

var ErrEmptyRequest = errors.New("no fields requested")

// Registration is one caller request for a field in a set of casts.
type Registration struct {
	Field string
	Casts cast.Set
}

// Producers is the part of the registry the compiler needs.
type Producers interface {
	ProducibleCasts(typeName string) cast.Set
	Produces(typeName string) bool
}

// UncastableFieldError is returned when no registered dissector can ever
// produce a field in any of the requested casts.
type UncastableFieldError struct {
	Field      string
	Requested  cast.Set
	Producible cast.Set
}

func (e *UncastableFieldError) Error() string {
	return fmt.Sprintf("field %s requested as %s but only producible as %s",
		e.Field, e.Requested, e.Producible)
}

// Entry is one distinct requested field.
type Entry struct {
	Spec field.Spec
	// Casts is the union of every registration's casts.
	Casts cast.Set
	// Registrations are indexes into the compiled registration list.
	Registrations []int
}

// Key is the normalized TYPE:path of the entry.
func (e *Entry) Key() string {
	return e.Spec.String()
}

// Demand is the compiled request set, in first-seen order.
type Demand struct {
	Entries []*Entry
	index   map[string]int
}

// Lookup returns the entry for a normalized TYPE:path.
func (d *Demand) Lookup(key string) (*Entry, bool) {
	i, ok := d.index[key]
	if !ok {
		return nil, false
	}

	return d.Entries[i], true
}

func (d *Demand) Len() int {
	return len(d.Entries)
}

// Compile groups registrations by normalized field. Every problem is
// collected; the demand is only usable when the diagnostics carry no error.
func Compile(regs []Registration, producers Producers) (*Demand, diagnostic.Diagnostics) {
	var diags diagnostic.Diagnostics

	d := &Demand{index: make(map[string]int)}

	if len(regs) == 0 {
		diags.AddErr(diagnostic.CodeEmptyRequest, "", ErrEmptyRequest)
		return d, diags
	}

	for i, reg := range regs {
		spec, err := field.ParseSpec(reg.Field)
		if err != nil {
			diags.AddError(diagnostic.CodeMalformedField, err.Error(), reg.Field)
			continue
		}

		if reg.Casts.IsEmpty() {
			diags.AddError(diagnostic.CodeMalformedField, "no casts requested", spec.String())
			continue
		}

		key := spec.String()
		if at, ok := d.index[key]; ok {
			e := d.Entries[at]
			e.Casts = e.Casts.Union(reg.Casts)
			e.Registrations = append(e.Registrations, i)

			continue
		}

		d.index[key] = len(d.Entries)
		d.Entries = append(d.Entries, &Entry{
			Spec:          spec,
			Casts:         reg.Casts,
			Registrations: []int{i},
		})
	}

	if producers == nil {
		return d, diags
	}

	for _, e := range d.Entries {
		checkCasts(&diags, e, producers)
	}

	return d, diags
}

// checkCasts is optimistic: it only rejects an entry when the union over all
// producers of its type misses every requested cast. Unknown types are left
// to the resolver, which reports them as unreachable. Wildcard entries are
// checked per concrete field at delivery.
func checkCasts(diags *diagnostic.Diagnostics, e *Entry, producers Producers) {
	if e.Spec.IsWildcard() || !producers.Produces(e.Spec.Type) {
		return
	}

	producible := producers.ProducibleCasts(e.Spec.Type)
	if cast.Compatible(producible, e.Casts) {
		return
	}

	diags.AddErr(diagnostic.CodeUncastable, e.Key(), &UncastableFieldError{
		Field:      e.Key(),
		Requested:  e.Casts,
		Producible: producible,
	})
}
