// Package record executes a plan against one input record and keeps the
// values it produces.
//
// A Store is owned by a single goroutine. Workers that parse in parallel each
// hold their own Store and share the plan read-only.
package record

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"logdissect/cast"
	"logdissect/dissector"
	"logdissect/internal/field"
	"logdissect/internal/plan"
)

var ErrBusy = errors.New("store is already holding a record")

//go:generate go tool stringer -type=State -linecomment -output=state_string.go

// State is the lifecycle position of a Store.
type State int

const (
	Fresh State = iota // fresh
	Running            // running
	Complete           // complete
	Discarded          // discarded
)

// Entry is one stored value with the casts its producer was activated with.
type Entry struct {
	Value cast.Value
	Casts cast.Set
}

// DissectionFailure is the per-record "cannot dissect this value" outcome.
// It never affects other records.
type DissectionFailure struct {
	Field     string
	Fragment  string
	Dissector string
	Message   string
	Err       error
}

func (e *DissectionFailure) Error() string {
	return fmt.Sprintf("dissector %q failed on %s (%q): %s", e.Dissector, e.Field, e.Fragment, e.Message)
}

func (e *DissectionFailure) Unwrap() error {
	return e.Err
}

// InternalConsistencyError reports a dissector that broke its declared
// contract: it wrote a field twice or emitted an undeclared output.
type InternalConsistencyError struct {
	Field     string
	Dissector string
	Reason    string
}

func (e *InternalConsistencyError) Error() string {
	if e.Dissector == "" {
		return fmt.Sprintf("internal consistency: %s: %s", e.Field, e.Reason)
	}

	return fmt.Sprintf("internal consistency: dissector %q: %s: %s", e.Dissector, e.Field, e.Reason)
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for per-record debug output.
func WithLogger(log *zap.Logger) Option {
	return func(s *Store) {
		if log != nil {
			s.log = log
		}
	}
}

// Store maps the fields of one record to their values.
type Store struct {
	state   State
	values  map[field.ID]Entry
	order   []field.ID
	skipped int
	log     *zap.Logger
}

// NewStore creates an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		values: make(map[field.ID]Entry),
		log:    zap.NewNop(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *Store) State() State {
	return s.state
}

// Put stores v at id. Writing the same field twice is an
// *InternalConsistencyError.
func (s *Store) Put(id field.ID, v cast.Value, casts cast.Set) error {
	if _, exists := s.values[id]; exists {
		return &InternalConsistencyError{Field: id.String(), Reason: "field written twice"}
	}

	s.values[id] = Entry{Value: v, Casts: casts}
	s.order = append(s.order, id)

	return nil
}

// Get returns the value at id, absent when nothing was produced.
func (s *Store) Get(id field.ID) cast.Value {
	return s.values[id].Value
}

// Lookup returns the stored entry at id.
func (s *Store) Lookup(id field.ID) (Entry, bool) {
	e, ok := s.values[id]
	return e, ok
}

// Fields returns the stored fields in production order, root first.
func (s *Store) Fields() []field.ID {
	out := make([]field.ID, len(s.order))
	copy(out, s.order)

	return out
}

// Skipped is the number of steps not run because their input was missing.
func (s *Store) Skipped() int {
	return s.skipped
}

// Reset discards the record. The store can then run the next one.
func (s *Store) Reset() {
	clear(s.values)
	s.order = s.order[:0]
	s.skipped = 0
	s.state = Discarded
}

// Run executes p against input. A *DissectionFailure or an
// *InternalConsistencyError stops the record; values produced before the
// failure stay readable.
func (s *Store) Run(p *plan.Plan, input string) error {
	if s.state == Running || s.state == Complete {
		return ErrBusy
	}

	s.state = Running
	defer func() { s.state = Complete }()

	if err := s.Put(p.Root, cast.TextValue(input), cast.TextOnly); err != nil {
		return err
	}

	for _, step := range p.Steps {
		in := s.values[step.Input].Value
		if in.IsNull() {
			s.skipped++
			continue
		}

		if err := s.runStep(step, in); err != nil {
			return err
		}
	}

	return nil
}

func (s *Store) runStep(step *plan.Step, in cast.Value) error {
	var broken error

	emit := func(typ, leaf string, v cast.Value) {
		if broken != nil {
			return
		}

		id := field.ID{Type: typ, Path: field.Child(step.Input.Path, leaf)}

		if !dissector.Declares(step.Template, typ, leaf) {
			broken = &InternalConsistencyError{
				Field:     id.String(),
				Dissector: step.Name(),
				Reason:    "output not declared",
			}

			return
		}

		casts, ok := step.Activated(typ, leaf)
		if !ok {
			return
		}

		if err := s.Put(id, v, casts); err != nil {
			var ice *InternalConsistencyError
			if errors.As(err, &ice) {
				ice.Dissector = step.Name()
			}

			broken = err
		}
	}

	err := step.Dissector.Dissect(in, emit)

	if broken != nil {
		return broken
	}

	if err != nil {
		failure := &DissectionFailure{
			Field:     step.Input.String(),
			Fragment:  in.String(),
			Dissector: step.Name(),
			Message:   err.Error(),
			Err:       err,
		}

		s.log.Debug("dissection failed",
			zap.String("field", failure.Field),
			zap.String("dissector", failure.Dissector),
			zap.Error(err))

		return failure
	}

	return nil
}
