package plan

import (
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"logdissect/cast"
	"logdissect/dissector"
	"logdissect/internal/diagnostic"
	"logdissect/internal/field"
	"logdissect/internal/match"
	"logdissect/internal/request"
)

var ErrNoDemand = errors.New("demand is required")

// Catalog is the part of the registry the resolver reads.
type Catalog interface {
	Lookup(inputType string) []dissector.Template
}

// Config holds configuration for the resolution process.
type Config struct {
	// StrictCasts fails an entry whose chosen producer cannot deliver any of
	// the requested casts. Otherwise it is only warned about.
	StrictCasts bool
	// MaxDepth bounds PossiblePaths when suggesting alternatives.
	MaxDepth int
	// MaxSuggestions is the maximum number of "did you mean" entries.
	MaxSuggestions int
	Logger         *zap.Logger
}

// DefaultConfig returns the default resolution configuration.
func DefaultConfig() Config {
	return Config{
		StrictCasts:    false,
		MaxDepth:       10,
		MaxSuggestions: 3,
	}
}

// Resolver performs the resolution pipeline.
type Resolver struct {
	catalog Catalog
	root    field.ID
	prefer  map[string]string
	config  Config
	log     *zap.Logger
}

// NewResolver creates a resolver for records of rootType.
func NewResolver(catalog Catalog, rootType string, config Config) *Resolver {
	log := config.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &Resolver{
		catalog: catalog,
		root:    field.Root(rootType),
		prefer:  make(map[string]string),
		config:  config,
		log:     log.Named("plan"),
	}
}

// Prefer directs the resolver to use templateName whenever several templates
// consume inputType. A later directive for the same type replaces the earlier.
func (r *Resolver) Prefer(inputType, templateName string) {
	r.prefer[inputType] = templateName
}

type hop struct {
	template dissector.Template
	input    field.ID
	leaf     string
	out      string
	casts    cast.Set
	wildcard bool
}

func (h hop) output() field.ID {
	return field.ID{Type: h.out, Path: field.Child(h.input.Path, h.leaf)}
}

type chain []hop

type stepKey struct {
	template string
	input    field.ID
}

// build accumulates the chosen chains into steps.
type build struct {
	steps []*Step
	index map[stepKey]int
}

// Resolve runs the full resolution pipeline. The returned error is a
// *diagnostic.PlanningError carrying every problem found; the diagnostics
// are also returned so warnings survive a successful resolution.
func (r *Resolver) Resolve(demand *request.Demand) (*Plan, diagnostic.Diagnostics, error) {
	var diags diagnostic.Diagnostics

	if demand == nil {
		return nil, diags, ErrNoDemand
	}

	r.checkPrefer(&diags)

	b := &build{index: make(map[stepKey]int)}

	type resolved struct {
		entry *request.Entry
		last  int
		field field.ID
		casts cast.Set
	}

	var targets []resolved

	for _, e := range demand.Entries {
		chains := r.chainsFor(e.Spec)

		switch {
		case len(chains) == 0:
			err := &UnreachableFieldError{Field: e.Key()}
			err.Suggestions = match.Suggest(e.Key(), PossiblePaths(r.catalog, r.root.Type, r.config.MaxDepth), r.config.MaxSuggestions)
			diags.AddErr(diagnostic.CodeUnreachable, e.Key(), err, err.Suggestions...)

			continue
		case len(chains) > 1:
			diags.AddErr(diagnostic.CodeAmbiguous, e.Key(), ambiguity(e.Key(), chains))

			continue
		}

		c := chains[0]
		last := c[len(c)-1]

		if !cast.Compatible(last.casts, e.Casts) {
			err := &request.UncastableFieldError{Field: e.Key(), Requested: e.Casts, Producible: last.casts}
			if r.config.StrictCasts {
				diags.AddErr(diagnostic.CodeUncastable, e.Key(), err)

				continue
			}

			diags.AddWarning(diagnostic.CodeUncastable, err.Error(), e.Key())
		}

		f := last.output()
		if last.wildcard {
			f = last.input
		}

		targets = append(targets, resolved{entry: e, last: b.add(c, e.Spec), field: f, casts: last.casts})
	}

	if diags.HasErrors() {
		return nil, diags, diags.Error()
	}

	order, err := topoSort(len(b.steps), func(i int) []int { return b.steps[i].deps })
	if err != nil {
		diags.AddErr(diagnostic.CodeCycle, "", err)
		return nil, diags, diags.Error()
	}

	p := &Plan{Root: r.root, targets: make(map[string]int)}

	for _, i := range order {
		s := b.steps[i]
		s.Activation = dissector.NewActivation(s.Input.String(), s.leaves)

		d, err := s.Template.Instantiate(s.Activation)
		if err != nil {
			diags.AddErr(diagnostic.CodeConfig, s.Input.String(),
				fmt.Errorf("instantiate %s on %s: %w", s.Name(), s.Input, err))

			continue
		}

		s.Dissector = d
		p.Steps = append(p.Steps, s)
	}

	if diags.HasErrors() {
		return nil, diags, diags.Error()
	}

	for _, t := range targets {
		p.targets[t.entry.Key()] = len(p.Targets)
		p.Targets = append(p.Targets, Target{
			Entry: t.entry,
			Field: t.field,
			Step:  b.steps[t.last],
			Casts: t.casts,
		})
	}

	for i, s := range p.Steps {
		r.log.Debug("planned step",
			zap.Int("index", i+1),
			zap.String("dissector", s.Name()),
			zap.String("input", s.Input.String()),
			zap.Strings("leaves", s.Activation.Leaves()))
	}

	for _, w := range diags.Warnings {
		r.log.Warn(w.Message, zap.String("code", w.Code), zap.String("field", w.Field))
	}

	return p, diags, nil
}

func (r *Resolver) checkPrefer(diags *diagnostic.Diagnostics) {
	types := make([]string, 0, len(r.prefer))
	for inputType := range r.prefer {
		types = append(types, inputType)
	}

	sort.Strings(types)

	for _, inputType := range types {
		name := r.prefer[inputType]
		found := false

		for _, t := range r.catalog.Lookup(inputType) {
			if t.Name() == name {
				found = true
				break
			}
		}

		if !found {
			diags.AddWarning(diagnostic.CodeUnusedPrefer,
				fmt.Sprintf("prefer %q names no dissector consuming %s", name, inputType), "")
		}
	}
}

// candidates applies the prefer directive for inputType, if any.
func (r *Resolver) candidates(inputType string) []dissector.Template {
	all := r.catalog.Lookup(inputType)

	name, ok := r.prefer[inputType]
	if !ok {
		return all
	}

	for _, t := range all {
		if t.Name() == name {
			return []dissector.Template{t}
		}
	}

	return all
}

// chainsFor enumerates every chain from the root that produces spec.
func (r *Resolver) chainsFor(spec field.Spec) []chain {
	if !spec.IsWildcard() {
		return r.walk(r.root, spec.Segments, spec.Type)
	}

	parents := r.walk(r.root, spec.Segments[:len(spec.Segments)-1], "")

	var out []chain

	for _, parent := range parents {
		node := r.root
		if len(parent) > 0 {
			node = parent[len(parent)-1].output()
		}

		for _, t := range r.candidates(node.Type) {
			casts, ok := wildcardCasts(t, spec.Type)
			if !ok {
				continue
			}

			h := hop{template: t, input: node, leaf: dissector.Wildcard, out: spec.Type, casts: casts, wildcard: true}
			out = append(out, append(append(chain{}, parent...), h))
		}
	}

	return out
}

// walk follows segs from node. The last hop must produce final unless final
// is empty.
func (r *Resolver) walk(node field.ID, segs []string, final string) []chain {
	if len(segs) == 0 {
		return []chain{nil}
	}

	leaf := segs[0]
	last := len(segs) == 1

	var out []chain

	for _, t := range r.candidates(node.Type) {
		casts, ok := t.Activate(leaf)
		if !ok {
			continue
		}

		for _, typ := range outputTypes(t, leaf) {
			if last && final != "" && typ != final {
				continue
			}

			h := hop{template: t, input: node, leaf: leaf, out: typ, casts: casts}

			for _, rest := range r.walk(h.output(), segs[1:], final) {
				out = append(out, append(chain{h}, rest...))
			}
		}
	}

	return out
}

// outputTypes lists the distinct types t emits for leaf, in declaration
// order. Exact names win over wildcard outputs.
func outputTypes(t dissector.Template, leaf string) []string {
	outs := t.PossibleOutputs()

	var types []string

	seen := make(map[string]bool)

	for _, o := range outs {
		if o.Name == leaf && !seen[o.Type] {
			seen[o.Type] = true
			types = append(types, o.Type)
		}
	}

	if len(types) > 0 {
		return types
	}

	for _, o := range outs {
		if o.IsWildcard() && !seen[o.Type] {
			seen[o.Type] = true
			types = append(types, o.Type)
		}
	}

	return types
}

// wildcardCasts is the union of the activated casts of every output of typ.
func wildcardCasts(t dissector.Template, typ string) (cast.Set, bool) {
	var (
		casts cast.Set
		found bool
	)

	for _, o := range t.PossibleOutputs() {
		if o.Type != typ {
			continue
		}

		if c, ok := t.Activate(o.Name); ok {
			casts = casts.Union(c)
			found = true
		}
	}

	return casts, found
}

// ambiguity names the templates at the first hop where the chains diverge.
func ambiguity(key string, chains []chain) *AmbiguousResolutionError {
	at := 0

	for ; at < len(chains[0]); at++ {
		h := chains[0][at]
		same := true

		for _, c := range chains[1:] {
			if c[at].template.Name() != h.template.Name() || c[at].out != h.out {
				same = false
				break
			}
		}

		if !same {
			break
		}
	}

	if at >= len(chains[0]) {
		at = len(chains[0]) - 1
	}

	err := &AmbiguousResolutionError{Field: key, Input: chains[0][at].input.String()}

	typeOnly := true

	for _, c := range chains {
		if c[at].template.Name() != chains[0][at].template.Name() {
			typeOnly = false
			break
		}
	}

	seen := make(map[string]bool)

	for _, c := range chains {
		name := c[at].template.Name()
		if typeOnly {
			name = fmt.Sprintf("%s (%s)", name, c[at].out)
		}

		if !seen[name] {
			seen[name] = true
			err.Candidates = append(err.Candidates, name)
		}
	}

	return err
}

// add merges a chain into the steps and returns the index of its last step.
func (b *build) add(c chain, spec field.Spec) int {
	prev := -1

	for _, h := range c {
		key := stepKey{template: h.template.Name(), input: h.input}

		i, ok := b.index[key]
		if !ok {
			i = len(b.steps)
			b.index[key] = i
			b.steps = append(b.steps, &Step{
				Template: h.template,
				Input:    h.input,
				outputs:  make(map[OutputKey]cast.Set),
				leaves:   make(map[string]cast.Set),
			})
		}

		s := b.steps[i]

		if prev >= 0 && !containsInt(s.deps, prev) {
			s.deps = append(s.deps, prev)
		}

		if h.wildcard {
			for _, o := range h.template.PossibleOutputs() {
				if o.Type != spec.Type {
					continue
				}

				if casts, ok := h.template.Activate(o.Name); ok {
					s.activate(o.Type, o.Name, casts)
				}
			}
		} else {
			s.activate(h.out, h.leaf, h.casts)
		}

		prev = i
	}

	return prev
}

func (s *Step) activate(typ, leaf string, casts cast.Set) {
	k := OutputKey{Type: typ, Leaf: leaf}
	s.outputs[k] = s.outputs[k].Union(casts)
	s.leaves[leaf] = s.leaves[leaf].Union(casts)
}

func containsInt(s []int, v int) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}

	return false
}
