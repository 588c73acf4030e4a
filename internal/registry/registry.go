// Package registry holds the dissector templates known to a parser, indexed
// by the type name they consume.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"logdissect/cast"
	"logdissect/dissector"
)

var (
	ErrDuplicateName = errors.New("duplicate dissector name")
	ErrInvalid       = errors.New("invalid dissector")
)

// Registry holds configured templates. It is filled during setup and only
// read afterwards, so it needs no locking.
type Registry struct {
	byName  map[string]dissector.Template
	byInput map[string][]dissector.Template
	order   []dissector.Template
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		byName:  make(map[string]dissector.Template),
		byInput: make(map[string][]dissector.Template),
	}
}

// Register adds a template as is.
func (r *Registry) Register(t dissector.Template) error {
	if t == nil {
		return fmt.Errorf("%w: nil template", ErrInvalid)
	}

	if err := validate(t); err != nil {
		return err
	}

	name := t.Name()
	if _, exists := r.byName[name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateName, name)
	}

	r.byName[name] = t
	r.byInput[t.InputType()] = append(r.byInput[t.InputType()], t)
	r.order = append(r.order, t)

	return nil
}

// RegisterWithSettings configures t from settings and registers the result.
// A configuration failure is returned as a *dissector.ConfigError.
func (r *Registry) RegisterWithSettings(t dissector.Template, settings string) error {
	if t == nil {
		return fmt.Errorf("%w: nil template", ErrInvalid)
	}

	configured, err := t.Configure(settings)
	if err != nil {
		var ce *dissector.ConfigError
		if errors.As(err, &ce) {
			return err
		}

		return &dissector.ConfigError{Template: t.Name(), Settings: settings, Err: err}
	}

	return r.Register(configured)
}

func validate(t dissector.Template) error {
	name := t.Name()
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: empty name", ErrInvalid)
	}

	if strings.TrimSpace(t.InputType()) == "" {
		return fmt.Errorf("%w: %q has an empty input type", ErrInvalid, name)
	}

	for _, o := range t.PossibleOutputs() {
		if strings.TrimSpace(o.Type) == "" {
			return fmt.Errorf("%w: %q declares an output with an empty type", ErrInvalid, name)
		}

		if strings.TrimSpace(o.Name) == "" {
			return fmt.Errorf("%w: %q declares an output of type %s with an empty name", ErrInvalid, name, o.Type)
		}

		if strings.Contains(o.Name, ".") && !o.IsWildcard() {
			return fmt.Errorf("%w: %q output %s: leaf names cannot contain '.'", ErrInvalid, name, o)
		}

		if o.Casts.IsEmpty() {
			return fmt.Errorf("%w: %q output %s has no casts", ErrInvalid, name, o)
		}
	}

	return nil
}

// Lookup returns the templates consuming inputType in registration order.
// An empty result is valid.
func (r *Registry) Lookup(inputType string) []dissector.Template {
	found := r.byInput[inputType]
	out := make([]dissector.Template, len(found))
	copy(out, found)

	return out
}

// Get returns a template by name, or nil if not found.
func (r *Registry) Get(name string) dissector.Template {
	return r.byName[name]
}

// Has returns true if a template with the given name exists.
func (r *Registry) Has(name string) bool {
	_, exists := r.byName[name]
	return exists
}

// All returns every template in registration order.
func (r *Registry) All() []dissector.Template {
	out := make([]dissector.Template, len(r.order))
	copy(out, r.order)

	return out
}

// Outputs returns the declared outputs of the named template, or nil.
func (r *Registry) Outputs(name string) []dissector.Output {
	t := r.Get(name)
	if t == nil {
		return nil
	}

	return t.PossibleOutputs()
}

// Types returns the consumed type names, sorted.
func (r *Registry) Types() []string {
	types := make([]string, 0, len(r.byInput))
	for typ := range r.byInput {
		types = append(types, typ)
	}

	sort.Strings(types)

	return types
}

// ProducibleCasts is the union of the casts every template declares for
// outputs of typeName.
func (r *Registry) ProducibleCasts(typeName string) cast.Set {
	var casts cast.Set

	for _, t := range r.order {
		for _, o := range t.PossibleOutputs() {
			if o.Type == typeName {
				casts = casts.Union(o.Casts)
			}
		}
	}

	return casts
}

// Produces reports whether any template declares an output of typeName.
func (r *Registry) Produces(typeName string) bool {
	for _, t := range r.order {
		for _, o := range t.PossibleOutputs() {
			if o.Type == typeName {
				return true
			}
		}
	}

	return false
}

func (r *Registry) Len() int {
	return len(r.order)
}
