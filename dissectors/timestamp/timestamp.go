// Package timestamp parses a textual timestamp and splits it into calendar
// parts, both as written (in the zone of the input) and projected to UTC.
package timestamp

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"

	"logdissect/cast"
	"logdissect/dissector"
)

const (
	Name      = "timestamp"
	InputType = "TIME.STAMP"
)

const utcSuffix = "_utc"

// DefaultLocale numbers weeks the ISO way.
var DefaultLocale = language.BritishEnglish

type part struct {
	typ   string
	name  string
	casts cast.Set
	value func(t time.Time, w weekRule) cast.Value
}

// zoned parts are emitted twice: as parsed and with the utc suffix.
var zoned = []part{
	{"TIME.DAY", "day", cast.TextOrInteger, func(t time.Time, _ weekRule) cast.Value {
		return cast.IntegerValue(int64(t.Day()))
	}},
	{"TIME.MONTHNAME", "monthname", cast.TextOnly, func(t time.Time, _ weekRule) cast.Value {
		return cast.TextValue(t.Month().String())
	}},
	{"TIME.MONTH", "month", cast.TextOrInteger, func(t time.Time, _ weekRule) cast.Value {
		return cast.IntegerValue(int64(t.Month()))
	}},
	{"TIME.WEEK", "weekofweekyear", cast.TextOrInteger, func(t time.Time, w weekRule) cast.Value {
		_, week := w.week(t)
		return cast.IntegerValue(int64(week))
	}},
	{"TIME.YEAR", "weekyear", cast.TextOrInteger, func(t time.Time, w weekRule) cast.Value {
		year, _ := w.week(t)
		return cast.IntegerValue(int64(year))
	}},
	{"TIME.YEAR", "year", cast.TextOrInteger, func(t time.Time, _ weekRule) cast.Value {
		return cast.IntegerValue(int64(t.Year()))
	}},
	{"TIME.HOUR", "hour", cast.TextOrInteger, func(t time.Time, _ weekRule) cast.Value {
		return cast.IntegerValue(int64(t.Hour()))
	}},
	{"TIME.MINUTE", "minute", cast.TextOrInteger, func(t time.Time, _ weekRule) cast.Value {
		return cast.IntegerValue(int64(t.Minute()))
	}},
	{"TIME.SECOND", "second", cast.TextOrInteger, func(t time.Time, _ weekRule) cast.Value {
		return cast.IntegerValue(int64(t.Second()))
	}},
	{"TIME.MILLISECOND", "millisecond", cast.TextOrInteger, func(t time.Time, _ weekRule) cast.Value {
		return cast.IntegerValue(int64(t.Nanosecond() / int(time.Millisecond)))
	}},
	{"TIME.DATE", "date", cast.TextOnly, func(t time.Time, _ weekRule) cast.Value {
		return cast.TextValue(t.Format(time.DateOnly))
	}},
	{"TIME.TIME", "time", cast.TextOnly, func(t time.Time, _ weekRule) cast.Value {
		return cast.TextValue(t.Format(time.TimeOnly))
	}},
}

var absolute = []part{
	{"TIME.ZONE", "timezone", cast.TextOnly, func(t time.Time, _ weekRule) cast.Value {
		return cast.TextValue(t.Format("Z07:00"))
	}},
	{"TIME.EPOCH", "epoch", cast.TextOrInteger, func(t time.Time, _ weekRule) cast.Value {
		return cast.IntegerValue(t.UnixMilli())
	}},
}

func outputs() []dissector.Output {
	out := make([]dissector.Output, 0, 2*len(zoned)+len(absolute))

	for _, p := range zoned {
		out = append(out, dissector.Output{Type: p.typ, Name: p.name, Casts: p.casts})
	}

	for _, p := range absolute {
		out = append(out, dissector.Output{Type: p.typ, Name: p.name, Casts: p.casts})
	}

	for _, p := range zoned {
		out = append(out, dissector.Output{Type: p.typ, Name: p.name + utcSuffix, Casts: p.casts})
	}

	return out
}

// Template is the registrable timestamp dissector.
type Template struct {
	dissector.Base

	pattern string
	layout  string
	locale  language.Tag
}

type Option func(*Template)

// WithLocale selects the week numbering of the parts as written. The utc
// parts always number weeks the ISO way.
func WithLocale(tag language.Tag) Option {
	return func(t *Template) {
		t.locale = tag
	}
}

// WithInputType makes the template consume another type than TIME.STAMP.
func WithInputType(typ string) Option {
	return func(t *Template) {
		t.Input = typ
	}
}

// WithName registers the template under another name, needed when more than
// one timestamp format is in use.
func WithName(name string) Option {
	return func(t *Template) {
		t.TemplateName = name
	}
}

// New returns a template for DefaultPattern.
func New(opts ...Option) Template {
	t := Template{
		Base: dissector.Base{
			TemplateName: Name,
			Input:        InputType,
			Outputs:      outputs(),
		},
		pattern: DefaultPattern,
		layout:  "02/Jan/2006:15:04:05 -0700",
		locale:  DefaultLocale,
	}

	for _, opt := range opts {
		opt(&t)
	}

	return t
}

// Pattern returns the configured date pattern.
func (t Template) Pattern() string {
	return t.pattern
}

// Configure takes a date pattern. Empty settings select DefaultPattern.
func (t Template) Configure(settings string) (dissector.Template, error) {
	pattern := strings.TrimSpace(settings)
	if pattern == "" {
		pattern = DefaultPattern
	}

	layout, err := Layout(pattern)
	if err != nil {
		return nil, &dissector.ConfigError{Template: t.Name(), Settings: settings, Err: err}
	}

	t.pattern = pattern
	t.layout = layout

	return t, nil
}

func (t Template) Instantiate(act dissector.Activation) (dissector.Dissector, error) {
	inst := &instance{
		pattern: t.pattern,
		layouts: []string{t.layout},
		named:   strings.Contains(t.layout, "MST"),
		week:    weekRuleFor(t.locale),
	}

	// time.Parse only reads an upper case AM/PM for "PM".
	if strings.Contains(t.layout, "PM") {
		inst.layouts = append(inst.layouts, strings.ReplaceAll(t.layout, "PM", "pm"))
	}

	for _, p := range zoned {
		if act.Wants(p.name) {
			inst.local = append(inst.local, p)
		}

		if act.Wants(p.name + utcSuffix) {
			inst.utc = append(inst.utc, p)
		}
	}

	for _, p := range absolute {
		if act.Wants(p.name) {
			inst.absolute = append(inst.absolute, p)
		}
	}

	return inst, nil
}

type instance struct {
	pattern  string
	layouts  []string
	named    bool
	week     weekRule
	local    []part
	utc      []part
	absolute []part
}

func (i *instance) Dissect(in cast.Value, emit dissector.Emitter) error {
	s, ok := in.Text()
	if !ok || s == "" {
		return nil
	}

	if len(i.local)+len(i.utc)+len(i.absolute) == 0 {
		return nil
	}

	t, err := i.parse(s)
	if err != nil {
		return dissector.Fail(s, fmt.Errorf("timestamp does not match %q: %w", i.pattern, err))
	}

	for _, p := range i.local {
		emit(p.typ, p.name, p.value(t, i.week))
	}

	for _, p := range i.absolute {
		emit(p.typ, p.name, p.value(t, i.week))
	}

	utc := t.UTC()
	for _, p := range i.utc {
		emit(p.typ, p.name+utcSuffix, p.value(utc, isoWeek))
	}

	return nil
}

func (i *instance) parse(s string) (time.Time, error) {
	t, err := time.Parse(i.layouts[0], s)
	for _, layout := range i.layouts[1:] {
		if err == nil {
			break
		}

		if alt, altErr := time.Parse(layout, s); altErr == nil {
			t, err = alt, nil
		}
	}

	if err != nil {
		return t, err
	}

	if i.named {
		return resolveZone(t)
	}

	return t, nil
}
