package plan

import (
	"sort"

	"logdissect/internal/field"
)

// PossiblePaths lists every TYPE:path reachable from the root within
// maxDepth hops, sorted. A wildcard output is listed as parent.* and not
// followed further.
func PossiblePaths(catalog Catalog, rootType string, maxDepth int) []string {
	if maxDepth <= 0 {
		maxDepth = DefaultConfig().MaxDepth
	}

	seen := make(map[string]bool)

	var walk func(node field.ID, depth int)

	walk = func(node field.ID, depth int) {
		if depth >= maxDepth {
			return
		}

		for _, t := range catalog.Lookup(node.Type) {
			for _, o := range t.PossibleOutputs() {
				child := field.ID{Type: o.Type, Path: field.Child(node.Path, o.Name)}
				if seen[child.String()] {
					continue
				}

				seen[child.String()] = true

				if !o.IsWildcard() {
					walk(child, depth+1)
				}
			}
		}
	}

	walk(field.Root(rootType), 0)

	paths := make([]string, 0, len(seen))
	for p := range seen {
		paths = append(paths, p)
	}

	sort.Strings(paths)

	return paths
}
