// Package columns splits a delimited line into named, typed columns.
//
// Settings use the form
//
//	sep=|;fields=IP:host,TIME.STAMP:time,MOD_UNIQUE_ID:id
//
// The separator accepts \t for a tab and \s for a space. The last column
// takes the rest of the line. A column holding "-" or nothing is emitted as
// null.
package columns

import (
	"fmt"
	"strings"

	"logdissect/cast"
	"logdissect/dissector"
)

const (
	Name      = "columns"
	InputType = "LINE"
)

// DefaultSeparator is used when the settings do not name one.
const DefaultSeparator = "\t"

var unescape = strings.NewReplacer(`\t`, "\t", `\s`, " ")

// Column is one named position in the line.
type Column struct {
	Type string
	Name string
}

// Template is the registrable splitter. It declares no outputs until it is
// configured with a field list.
type Template struct {
	dissector.Base

	sep     string
	columns []Column
}

type Option func(*Template)

// WithInputType makes the template consume another type than LINE.
func WithInputType(typ string) Option {
	return func(t *Template) {
		t.Input = typ
	}
}

// WithName registers the template under another name.
func WithName(name string) Option {
	return func(t *Template) {
		t.TemplateName = name
	}
}

func New(opts ...Option) Template {
	t := Template{
		Base: dissector.Base{TemplateName: Name, Input: InputType},
		sep:  DefaultSeparator,
	}

	for _, opt := range opts {
		opt(&t)
	}

	return t
}

// Columns returns the configured columns in line order.
func (t Template) Columns() []Column {
	out := make([]Column, len(t.columns))
	copy(out, t.columns)

	return out
}

func (t Template) Separator() string {
	return t.sep
}

func (t Template) Configure(settings string) (dissector.Template, error) {
	sep, columns, err := parseSettings(settings)
	if err != nil {
		return nil, &dissector.ConfigError{Template: t.Name(), Settings: settings, Err: err}
	}

	t.sep = sep
	t.columns = columns
	t.Outputs = make([]dissector.Output, len(columns))

	for i, c := range columns {
		t.Outputs[i] = dissector.Output{Type: c.Type, Name: c.Name, Casts: cast.TextOnly}
	}

	return t, nil
}

func parseSettings(settings string) (string, []Column, error) {
	sep := DefaultSeparator

	var (
		columns []Column
		seen    = make(map[string]bool)
	)

	for _, item := range strings.Split(settings, ";") {
		if strings.TrimSpace(item) == "" {
			continue
		}

		key, value, ok := strings.Cut(item, "=")
		if !ok {
			return "", nil, fmt.Errorf("%w: expected key=value, got %q", dissector.ErrBadSettings, item)
		}

		switch strings.TrimSpace(key) {
		case "sep":
			sep = unescape.Replace(value)
			if sep == "" {
				return "", nil, fmt.Errorf("%w: empty separator", dissector.ErrBadSettings)
			}
		case "fields":
			for _, f := range strings.Split(value, ",") {
				typ, name, ok := strings.Cut(strings.TrimSpace(f), ":")
				typ, name = strings.TrimSpace(typ), strings.TrimSpace(name)

				if !ok || typ == "" || name == "" {
					return "", nil, fmt.Errorf("%w: column %q is not TYPE:name", dissector.ErrBadSettings, f)
				}

				if strings.ContainsAny(name, ".*") {
					return "", nil, fmt.Errorf("%w: column name %q must be a single segment", dissector.ErrBadSettings, name)
				}

				if seen[name] {
					return "", nil, fmt.Errorf("%w: duplicate column %q", dissector.ErrBadSettings, name)
				}

				seen[name] = true
				columns = append(columns, Column{Type: typ, Name: name})
			}
		default:
			return "", nil, fmt.Errorf("%w: unknown key %q", dissector.ErrBadSettings, key)
		}
	}

	if len(columns) == 0 {
		return "", nil, fmt.Errorf("%w: no fields", dissector.ErrBadSettings)
	}

	return sep, columns, nil
}

func (t Template) Instantiate(act dissector.Activation) (dissector.Dissector, error) {
	inst := &instance{sep: t.sep, wanted: make([]bool, len(t.columns)), columns: t.columns}

	for i, c := range t.columns {
		inst.wanted[i] = act.Wants(c.Name)
	}

	return inst, nil
}

type instance struct {
	sep     string
	columns []Column
	wanted  []bool
}

func (i *instance) Dissect(in cast.Value, emit dissector.Emitter) error {
	s, ok := in.Text()
	if !ok {
		return nil
	}

	parts := strings.SplitN(s, i.sep, len(i.columns))

	for n, part := range parts {
		if !i.wanted[n] {
			continue
		}

		c := i.columns[n]
		if part == "" || part == "-" {
			emit(c.Type, c.Name, cast.Null())

			continue
		}

		emit(c.Type, c.Name, cast.TextValue(part))
	}

	return nil
}
