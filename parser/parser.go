// Package parser is the entry point of the engine. A Parser collects
// dissectors and field requests, plans once on Build and then dissects
// records into caller owned values of type R.
//
//	p := parser.New[*Visit]("LINE")
//	p.AddDissectorWithSettings(columns.New(), "sep=|;fields=MOD_UNIQUE_ID:id")
//	p.AddDissector(uniqueid.New())
//	p.WantInteger("TIME.EPOCH:id.epoch", parser.NotNull, func(v *Visit, _ string, epoch *int64) { ... })
//	if err := p.Build(); err != nil { ... }
//	err := p.Parse(line, &Visit{})
package parser

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"logdissect/cast"
	"logdissect/dissector"
	"logdissect/internal/bind"
	"logdissect/internal/diagnostic"
	"logdissect/internal/field"
	"logdissect/internal/metric"
	"logdissect/internal/plan"
	"logdissect/internal/record"
	"logdissect/internal/registry"
	"logdissect/internal/request"
)

var (
	ErrFrozen   = errors.New("parser is already built")
	ErrNotBuilt = errors.New("parser is not built")

	ErrEmptyRequest = request.ErrEmptyRequest
)

type (
	ConfigError              = dissector.ConfigError
	AmbiguousResolutionError = plan.AmbiguousResolutionError
	UnreachableFieldError    = plan.UnreachableFieldError
	UncastableFieldError     = request.UncastableFieldError
	DissectionFailure        = record.DissectionFailure
	InternalConsistencyError = record.InternalConsistencyError
	PlanningError            = diagnostic.PlanningError
)

// Policy decides whether a value reaches its sink.
type Policy = bind.Policy

const (
	Always   = bind.Always
	NotNull  = bind.NotNull
	NotEmpty = bind.NotEmpty
)

// Option configures a Parser.
type Option func(*options)

type options struct {
	log        *zap.Logger
	registerer prometheus.Registerer
	strict     bool
	maxDepth   int
}

func WithLogger(log *zap.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

// WithMetrics registers the parser metrics on reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = reg
	}
}

// WithStrictCasts makes Build fail when the dissector chosen for a field
// cannot deliver any of the casts requested for it.
func WithStrictCasts() Option {
	return func(o *options) {
		o.strict = true
	}
}

// WithMaxDepth bounds the path enumeration used for suggestions.
func WithMaxDepth(depth int) Option {
	return func(o *options) {
		if depth > 0 {
			o.maxDepth = depth
		}
	}
}

type want[R any] struct {
	spec   string
	casts  cast.Set
	policy Policy
	sink   bind.Sink[R]
}

// Parser dissects records of one root type. It is configured from a single
// goroutine; once built, Parse and ParseBatch are safe for concurrent use.
type Parser[R any] struct {
	root     string
	opts     options
	registry *registry.Registry
	prefer   [][2]string
	wants    []want[R]
	setupErr []error

	log     *zap.Logger
	metrics *metric.Metrics

	plan   *plan.Plan
	binder *bind.Binder[R]
	diags  diagnostic.Diagnostics
	stores sync.Pool
}

// New creates a parser for records of rootType.
func New[R any](rootType string, opts ...Option) *Parser[R] {
	o := options{log: zap.NewNop(), maxDepth: plan.DefaultConfig().MaxDepth}
	for _, opt := range opts {
		opt(&o)
	}

	p := &Parser[R]{
		root:     rootType,
		opts:     o,
		registry: registry.New(),
		log:      o.log.Named("parser"),
	}

	if o.registerer != nil {
		m, err := metric.New(o.registerer)
		if err != nil {
			p.setupErr = append(p.setupErr, fmt.Errorf("metrics: %w", err))
		}

		p.metrics = m
	}

	p.stores.New = func() any {
		return record.NewStore(record.WithLogger(p.log))
	}

	return p
}

// RootType is the type of the record text.
func (p *Parser[R]) RootType() string {
	return p.root
}

func (p *Parser[R]) AddDissector(t dissector.Template) error {
	if p.plan != nil {
		return ErrFrozen
	}

	return p.registry.Register(t)
}

// AddDissectorWithSettings configures t and registers the result. Malformed
// settings are returned as a *ConfigError.
func (p *Parser[R]) AddDissectorWithSettings(t dissector.Template, settings string) error {
	if p.plan != nil {
		return ErrFrozen
	}

	return p.registry.RegisterWithSettings(t, settings)
}

// Prefer picks templateName whenever several dissectors consume inputType.
func (p *Parser[R]) Prefer(inputType, templateName string) error {
	if p.plan != nil {
		return ErrFrozen
	}

	p.prefer = append(p.prefer, [2]string{inputType, templateName})

	return nil
}

// Want requests spec in the given casts. The field is handed to sink for
// every record where policy admits it. Problems with spec are reported by
// Build.
func (p *Parser[R]) Want(spec string, casts cast.Set, policy Policy, sink func(rec R, field string, v cast.Value)) error {
	if p.plan != nil {
		return ErrFrozen
	}

	if sink == nil {
		return fmt.Errorf("want %s: nil sink", spec)
	}

	p.wants = append(p.wants, want[R]{spec: spec, casts: casts, policy: policy, sink: sink})

	return nil
}

func (p *Parser[R]) WantText(spec string, policy Policy, fn func(rec R, field string, v *string)) error {
	return p.Want(spec, cast.TextOnly, policy, bind.Text(fn))
}

func (p *Parser[R]) WantInteger(spec string, policy Policy, fn func(rec R, field string, v *int64)) error {
	return p.Want(spec, cast.IntegerOnly, policy, bind.Integer(fn))
}

func (p *Parser[R]) WantFloat(spec string, policy Policy, fn func(rec R, field string, v *float64)) error {
	return p.Want(spec, cast.FloatOnly, policy, bind.Float(fn))
}

// Build compiles the requests and plans the dissection. Every problem found
// is returned at once. A built parser cannot be reconfigured.
func (p *Parser[R]) Build() error {
	if p.plan != nil {
		return ErrFrozen
	}

	if len(p.setupErr) > 0 {
		return errors.Join(p.setupErr...)
	}

	regs := make([]request.Registration, len(p.wants))
	for i, w := range p.wants {
		regs[i] = request.Registration{Field: w.spec, Casts: w.casts}
	}

	demand, diags := request.Compile(regs, p.registry)
	if diags.HasErrors() {
		p.diags = diags
		return diags.Error()
	}

	cfg := plan.DefaultConfig()
	cfg.StrictCasts = p.opts.strict
	cfg.MaxDepth = p.opts.maxDepth
	cfg.Logger = p.log

	resolver := plan.NewResolver(p.registry, p.root, cfg)
	for _, pr := range p.prefer {
		resolver.Prefer(pr[0], pr[1])
	}

	pl, planDiags, err := resolver.Resolve(demand)
	diags.Merge(planDiags)
	p.diags = diags

	if err != nil {
		return err
	}

	used := make(map[string]bool, len(pl.Steps))
	for _, s := range pl.Steps {
		used[s.Name()] = true
	}

	for _, t := range p.registry.All() {
		if !used[t.Name()] {
			diags.AddInfo(diagnostic.CodeUnusedDissector,
				fmt.Sprintf("dissector %q is not needed for the requested fields", t.Name()), "")
		}
	}

	p.diags = diags

	bindings := make([]bind.Binding[R], len(p.wants))
	for i, w := range p.wants {
		bindings[i] = bind.Binding[R]{
			Spec:   field.MustParseSpec(w.spec),
			Casts:  w.casts,
			Policy: w.policy,
			Sink:   w.sink,
		}
	}

	binder, err := bind.New(pl, bindings)
	if err != nil {
		return err
	}

	p.plan = pl
	p.binder = binder

	p.log.Info("parser built",
		zap.String("root", p.root),
		zap.Int("dissectors", p.registry.Len()),
		zap.Int("steps", len(pl.Steps)),
		zap.Int("fields", len(pl.Targets)),
		zap.Int("warnings", len(diags.Warnings)))

	return nil
}

// Plan returns the execution plan, nil before Build.
func (p *Parser[R]) Plan() *plan.Plan {
	return p.plan
}

// Diagnostics returns what the last Build found, warnings included.
func (p *Parser[R]) Diagnostics() diagnostic.Diagnostics {
	return p.diags
}

// Dissectors returns the registered templates in registration order.
func (p *Parser[R]) Dissectors() []dissector.Template {
	return p.registry.All()
}

// Outputs returns what the named dissector can emit. It reports false when
// no dissector is registered under name.
func (p *Parser[R]) Outputs(name string) ([]dissector.Output, bool) {
	if !p.registry.Has(name) {
		return nil, false
	}

	return p.registry.Outputs(name), true
}

// InputTypes lists every type some registered dissector consumes, sorted.
func (p *Parser[R]) InputTypes() []string {
	return p.registry.Types()
}

// PossiblePaths lists every TYPE:path reachable from the root with the
// registered dissectors, down to maxDepth segments.
func (p *Parser[R]) PossiblePaths(maxDepth int) []string {
	return plan.PossiblePaths(p.registry, p.root, maxDepth)
}

// Parse dissects one record into rec. A value that cannot be dissected is
// reported as a *DissectionFailure and nothing is delivered.
func (p *Parser[R]) Parse(line string, rec R) error {
	if p.plan == nil {
		return ErrNotBuilt
	}

	s := p.stores.Get().(*record.Store)
	defer func() {
		s.Reset()
		p.stores.Put(s)
	}()

	return p.parse(s, line, rec)
}

func (p *Parser[R]) parse(s *record.Store, line string, rec R) error {
	start := time.Now()

	if err := s.Run(p.plan, line); err != nil {
		status := metric.StatusInternal

		var failure *DissectionFailure
		if errors.As(err, &failure) {
			status = metric.StatusFailed
			p.metrics.RecordFailure(failure.Dissector)
		}

		p.metrics.RecordParsed(status, s.Skipped(), 0, time.Since(start))

		return err
	}

	delivered := p.binder.Deliver(s, rec)
	p.metrics.RecordParsed(metric.StatusOK, s.Skipped(), delivered, time.Since(start))

	return nil
}
