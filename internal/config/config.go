package config

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"logdissect/cast"
	"logdissect/internal/bind"
	"logdissect/internal/diagnostic"
	"logdissect/internal/field"
)

const CurrentVersion = "1"

// File is a complete parser description.
type File struct {
	Version    string            `yaml:"version"`
	Root       string            `yaml:"root"`
	Dissectors []DissectorDef    `yaml:"dissectors"`
	Prefer     map[string]string `yaml:"prefer,omitempty"`
	Fields     []FieldDef        `yaml:"fields"`
}

// DissectorDef selects a dissector from the catalog.
type DissectorDef struct {
	// Name is the catalog name.
	Name string `yaml:"name"`
	// As registers the dissector under its own template name, needed to use
	// one catalog dissector twice and to refer to it from prefer.
	As string `yaml:"as,omitempty"`
	// Input overrides the input type for dissectors that allow it.
	Input    string `yaml:"input,omitempty"`
	Locale   string `yaml:"locale,omitempty"`
	Settings string `yaml:"settings,omitempty"`
}

// TemplateName is the name the dissector is registered under.
func (d DissectorDef) TemplateName() string {
	if d.As != "" {
		return d.As
	}

	return d.Name
}

// FieldDef requests one output field.
type FieldDef struct {
	Field  string        `yaml:"field"`
	Casts  StringOrArray `yaml:"casts,omitempty"`
	Policy string        `yaml:"policy,omitempty"`
}

// CastSet parses the requested casts.
func (f FieldDef) CastSet() (cast.Set, error) {
	return cast.ParseSet(f.Casts...)
}

// DeliveryPolicy parses the delivery policy.
func (f FieldDef) DeliveryPolicy() (bind.Policy, error) {
	return bind.ParsePolicy(f.Policy)
}

// StringOrArray accepts either a single string or a list of strings.
type StringOrArray []string

func (s *StringOrArray) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var str string
		if err := node.Decode(&str); err != nil {
			return err
		}

		if str != "" {
			*s = StringOrArray{str}
		} else {
			*s = StringOrArray{}
		}

		return nil

	case yaml.SequenceNode:
		var arr []string
		if err := node.Decode(&arr); err != nil {
			return err
		}

		*s = arr

		return nil

	default:
		return fmt.Errorf("expected string or array, got %v", node.Kind)
	}
}

// MarshalYAML outputs a single string if length is 1, otherwise an array.
func (s StringOrArray) MarshalYAML() (any, error) {
	if len(s) == 1 {
		return s[0], nil
	}

	return []string(s), nil
}

// Load loads and parses a YAML parser description from the given path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return Parse(data)
}

// Parse parses YAML data into a File.
func Parse(data []byte) (*File, error) {
	var f File

	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}

	applyDefaults(&f)

	return &f, nil
}

// applyDefaults fills in default values for optional fields.
func applyDefaults(f *File) {
	if f.Version == "" {
		f.Version = CurrentVersion
	}

	for i := range f.Fields {
		fd := &f.Fields[i]
		if len(fd.Casts) == 0 {
			fd.Casts = StringOrArray{cast.Text.String()}
		}

		if fd.Policy == "" {
			fd.Policy = bind.Always.String()
		}
	}
}

// Validate checks the description structurally. Whether the fields are
// reachable is only known once the dissectors are planned.
func (f *File) Validate() diagnostic.Diagnostics {
	var res diagnostic.Diagnostics

	if f.Version != CurrentVersion {
		res.AddError(diagnostic.CodeConfig, fmt.Sprintf("unsupported version %q", f.Version), "")
	}

	if f.Root == "" {
		res.AddError(diagnostic.CodeConfig, "root type is required", "")
	}

	if len(f.Dissectors) == 0 {
		res.AddWarning(diagnostic.CodeConfig, "no dissectors configured", "")
	}

	seen := make(map[string]int, len(f.Dissectors))

	for i, d := range f.Dissectors {
		if d.Name == "" {
			res.AddError(diagnostic.CodeConfig, fmt.Sprintf("dissector #%d has no name", i+1), "")
			continue
		}

		name := d.TemplateName()
		if first, dup := seen[name]; dup {
			res.AddError(diagnostic.CodeConfig,
				fmt.Sprintf("dissector #%d is named %q like #%d; set as: to tell them apart", i+1, name, first), "")

			continue
		}

		seen[name] = i + 1
	}

	inputs := make([]string, 0, len(f.Prefer))
	for input := range f.Prefer {
		inputs = append(inputs, input)
	}

	sort.Strings(inputs)

	for _, input := range inputs {
		if input == "" || f.Prefer[input] == "" {
			res.AddError(diagnostic.CodeConfig, fmt.Sprintf("prefer %q: %q needs both a type and a dissector", input, f.Prefer[input]), "")
		}
	}

	if len(f.Fields) == 0 {
		res.AddErr(diagnostic.CodeEmptyRequest, "", errors.New("no fields requested"))
	}

	for _, fd := range f.Fields {
		if _, err := field.ParseSpec(fd.Field); err != nil {
			res.AddError(diagnostic.CodeMalformedField, err.Error(), fd.Field)
		}

		if _, err := fd.CastSet(); err != nil {
			res.AddError(diagnostic.CodeConfig, err.Error(), fd.Field)
		}

		if _, err := fd.DeliveryPolicy(); err != nil {
			res.AddError(diagnostic.CodeConfig, err.Error(), fd.Field)
		}
	}

	return res
}

// Starter is the description written by "logdissect init": Apache access
// log lines holding a mod_unique_id and a %t timestamp separated by '|'.
func Starter() *File {
	return &File{
		Version: CurrentVersion,
		Root:    "LINE",
		Dissectors: []DissectorDef{
			{Name: "columns", Settings: "sep=|;fields=MOD_UNIQUE_ID:id,TIME.STAMP:time"},
			{Name: "uniqueid"},
			{Name: "timestamp"},
		},
		Fields: []FieldDef{
			{Field: "TIME.EPOCH:time.epoch", Casts: StringOrArray{"integer"}, Policy: "not_null"},
			{Field: "TIME.HOUR:time.hour_utc", Casts: StringOrArray{"integer"}, Policy: "not_null"},
			{Field: "IP:id.ip", Casts: StringOrArray{"text"}, Policy: "not_null"},
		},
	}
}

// Marshal serializes a File to YAML.
func Marshal(f *File) ([]byte, error) {
	return yaml.Marshal(f)
}

// WriteFile writes a File to the given path.
func WriteFile(f *File, path string) error {
	data, err := Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}

	return nil
}
