package main

import (
	"fmt"
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"logdissect/cast"
	"logdissect/dissectors"
	"logdissect/internal/config"
	"logdissect/parser"
)

// output is one dissected line keyed by the concrete TYPE:path.
type output struct {
	values map[string]any
}

func newOutput() *output {
	return &output{values: make(map[string]any)}
}

func (o *output) set(field string, v cast.Value) {
	o.values[field] = v.Interface()
}

func (a *app) loadConfig() (*config.File, error) {
	return config.Load(a.configPath)
}

// newParser registers the configured dissectors and prefer directives.
func (a *app) newParser(f *config.File, reg prometheus.Registerer) (*parser.Parser[*output], error) {
	opts := []parser.Option{parser.WithLogger(a.log)}
	if reg != nil {
		opts = append(opts, parser.WithMetrics(reg))
	}

	p := parser.New[*output](f.Root, opts...)

	for _, d := range f.Dissectors {
		tmpl, err := dissectors.New(d.Name, dissectors.Def{As: d.As, Input: d.Input, Locale: d.Locale})
		if err != nil {
			return nil, err
		}

		if err := p.AddDissectorWithSettings(tmpl, d.Settings); err != nil {
			return nil, err
		}
	}

	inputs := make([]string, 0, len(f.Prefer))
	for input := range f.Prefer {
		inputs = append(inputs, input)
	}

	sort.Strings(inputs)

	for _, input := range inputs {
		if err := p.Prefer(input, f.Prefer[input]); err != nil {
			return nil, err
		}
	}

	return p, nil
}

// buildParser loads, validates and builds the configured parser.
func (a *app) buildParser(reg prometheus.Registerer) (*parser.Parser[*output], error) {
	f, err := a.loadConfig()
	if err != nil {
		return nil, err
	}

	diags := f.Validate()
	for _, w := range diags.Warnings {
		a.log.Warn(w.Message, zap.String("code", w.Code))
	}

	if err := diags.Error(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", a.configPath, err)
	}

	p, err := a.newParser(f, reg)
	if err != nil {
		return nil, err
	}

	for _, fd := range f.Fields {
		casts, _ := fd.CastSet()
		policy, _ := fd.DeliveryPolicy()

		err := p.Want(fd.Field, casts, policy, func(rec *output, field string, v cast.Value) {
			rec.set(field, v)
		})
		if err != nil {
			return nil, err
		}
	}

	if err := p.Build(); err != nil {
		return nil, err
	}

	return p, nil
}
