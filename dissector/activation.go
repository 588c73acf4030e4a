package dissector

import (
	"sort"

	"logdissect/cast"
)

// Activation is the immutable record of which outputs of an instance were
// requested. It is computed by the planner and never changes afterwards.
type Activation struct {
	input  string
	leaves map[string]cast.Set
}

// NewActivation copies leaves so later changes to the map cannot leak in.
func NewActivation(input string, leaves map[string]cast.Set) Activation {
	copied := make(map[string]cast.Set, len(leaves))
	for leaf, casts := range leaves {
		copied[leaf] = casts
	}

	return Activation{input: input, leaves: copied}
}

// Input is the TYPE:path of the field the instance reads.
func (a Activation) Input() string {
	return a.input
}

// Wants reports whether leaf was requested. A requested Wildcard makes every
// leaf wanted.
func (a Activation) Wants(leaf string) bool {
	if _, ok := a.leaves[leaf]; ok {
		return true
	}

	_, ok := a.leaves[Wildcard]

	return ok
}

// WantsAny reports whether at least one of the leaves was requested.
func (a Activation) WantsAny(leaves ...string) bool {
	for _, leaf := range leaves {
		if a.Wants(leaf) {
			return true
		}
	}

	return false
}

// Casts returns the casts the planner expects for leaf.
func (a Activation) Casts(leaf string) (cast.Set, bool) {
	if c, ok := a.leaves[leaf]; ok {
		return c, true
	}

	c, ok := a.leaves[Wildcard]

	return c, ok
}

// Leaves returns the requested leaf names in sorted order.
func (a Activation) Leaves() []string {
	names := make([]string, 0, len(a.leaves))
	for leaf := range a.leaves {
		names = append(names, leaf)
	}

	sort.Strings(names)

	return names
}

func (a Activation) IsEmpty() bool {
	return len(a.leaves) == 0
}
