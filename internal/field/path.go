package field

import (
	"errors"
	"fmt"
	"strings"
)

// Separator joins path segments.
const Separator = "."

// Wildcard as the last segment of a requested path stands for every leaf the
// producing dissector emits under the parent.
const Wildcard = "*"

// ID names one value inside a record: a type and a hierarchical path.
// The record itself is the root, with an empty path.
type ID struct {
	Type string
	Path string
}

// Root returns the ID of the record itself.
func Root(typ string) ID {
	return ID{Type: typ}
}

func (id ID) String() string {
	return id.Type + ":" + id.Path
}

func (id ID) IsRoot() bool {
	return id.Path == ""
}

// Child joins a leaf name onto a parent path.
func Child(parent, leaf string) string {
	if parent == "" {
		return leaf
	}

	return parent + Separator + leaf
}

// Leaf returns the last segment of a path.
func Leaf(path string) string {
	if i := strings.LastIndex(path, Separator); i >= 0 {
		return path[i+1:]
	}

	return path
}

// Spec is a parsed TYPE:path request.
type Spec struct {
	Type     string
	Segments []string
}

// ParseSpec parses "TYPE:a.b.c" or "TYPE:a.b.*".
func ParseSpec(s string) (Spec, error) {
	if strings.TrimSpace(s) == "" {
		return Spec{}, errors.New("empty field")
	}

	typ, path, ok := strings.Cut(s, ":")
	if !ok {
		return Spec{}, fmt.Errorf("invalid field %q: expected TYPE:path", s)
	}

	typ = strings.TrimSpace(typ)
	if typ == "" {
		return Spec{}, fmt.Errorf("invalid field %q: empty type", s)
	}

	path = strings.TrimSpace(path)
	if path == "" {
		return Spec{}, fmt.Errorf("invalid field %q: empty path", s)
	}

	parts := strings.Split(path, Separator)
	segments := make([]string, 0, len(parts))

	for i, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			return Spec{}, fmt.Errorf("invalid field %q: empty segment", s)
		}

		if part == Wildcard && i != len(parts)-1 {
			return Spec{}, fmt.Errorf("invalid field %q: wildcard is only allowed as the last segment", s)
		}

		if strings.Contains(part, ":") {
			return Spec{}, fmt.Errorf("invalid field %q: unexpected ':' in segment %q", s, part)
		}

		segments = append(segments, part)
	}

	return Spec{Type: typ, Segments: segments}, nil
}

// MustParseSpec is ParseSpec for literals in tests and tables.
func MustParseSpec(s string) Spec {
	spec, err := ParseSpec(s)
	if err != nil {
		panic(err)
	}

	return spec
}

// Path joins the segments back together.
func (s Spec) Path() string {
	return strings.Join(s.Segments, Separator)
}

// String returns the normalized TYPE:path form used as the demand key.
func (s Spec) String() string {
	return s.Type + ":" + s.Path()
}

func (s Spec) IsWildcard() bool {
	return len(s.Segments) > 0 && s.Segments[len(s.Segments)-1] == Wildcard
}

// Parent returns the path above the last segment.
func (s Spec) Parent() string {
	if len(s.Segments) <= 1 {
		return ""
	}

	return strings.Join(s.Segments[:len(s.Segments)-1], Separator)
}

// ID returns the exact field a non-wildcard spec names.
func (s Spec) ID() ID {
	return ID{Type: s.Type, Path: s.Path()}
}

// Matches reports whether id is selected by the spec. A wildcard spec
// selects every direct child of its parent with the same type.
func (s Spec) Matches(id ID) bool {
	if id.Type != s.Type {
		return false
	}

	if !s.IsWildcard() {
		return id.Path == s.Path()
	}

	parent := s.Parent()
	if parent == "" {
		return id.Path != "" && !strings.Contains(id.Path, Separator)
	}

	prefix := parent + Separator
	if !strings.HasPrefix(id.Path, prefix) {
		return false
	}

	rest := id.Path[len(prefix):]

	return rest != "" && !strings.Contains(rest, Separator)
}
