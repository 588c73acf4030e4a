// Package dissectors is the catalog of built-in dissectors that parser
// descriptions can refer to by name.
package dissectors

import (
	"fmt"
	"sort"

	"golang.org/x/text/language"

	"logdissect/dissector"
	"logdissect/dissectors/columns"
	"logdissect/dissectors/timestamp"
	"logdissect/dissectors/uniqueid"
)

// Def tunes a catalog dissector. Empty fields keep the dissector's defaults.
type Def struct {
	// As registers the template under another name, so one dissector can be
	// used several times and picked by prefer directives.
	As     string
	Input  string
	Locale string
}

// Factory builds an unconfigured template.
type Factory func(def Def) (dissector.Template, error)

var catalog = map[string]Factory{
	columns.Name: func(def Def) (dissector.Template, error) {
		if def.Locale != "" {
			return nil, errNoLocale(columns.Name)
		}

		var opts []columns.Option
		if def.Input != "" {
			opts = append(opts, columns.WithInputType(def.Input))
		}

		if def.As != "" {
			opts = append(opts, columns.WithName(def.As))
		}

		return columns.New(opts...), nil
	},
	timestamp.Name: func(def Def) (dissector.Template, error) {
		var opts []timestamp.Option
		if def.Input != "" {
			opts = append(opts, timestamp.WithInputType(def.Input))
		}

		if def.As != "" {
			opts = append(opts, timestamp.WithName(def.As))
		}

		if def.Locale != "" {
			tag, err := language.Parse(def.Locale)
			if err != nil {
				return nil, fmt.Errorf("dissector %q: locale %q: %w", timestamp.Name, def.Locale, err)
			}

			opts = append(opts, timestamp.WithLocale(tag))
		}

		return timestamp.New(opts...), nil
	},
	uniqueid.Name: func(def Def) (dissector.Template, error) {
		if def.Locale != "" {
			return nil, errNoLocale(uniqueid.Name)
		}

		var opts []uniqueid.Option
		if def.Input != "" {
			opts = append(opts, uniqueid.WithInputType(def.Input))
		}

		if def.As != "" {
			opts = append(opts, uniqueid.WithName(def.As))
		}

		return uniqueid.New(opts...), nil
	},
}

func errNoLocale(name string) error {
	return fmt.Errorf("dissector %q does not take a locale", name)
}

// Lookup returns the factory registered under name.
func Lookup(name string) (Factory, bool) {
	f, ok := catalog[name]
	return f, ok
}

// New builds the named template.
func New(name string, def Def) (dissector.Template, error) {
	f, ok := Lookup(name)
	if !ok {
		return nil, fmt.Errorf("unknown dissector %q (known: %v)", name, Names())
	}

	return f(def)
}

// Names lists the catalog, sorted.
func Names() []string {
	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
