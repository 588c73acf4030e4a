// Package plan resolves a compiled demand against the registered dissector
// templates and produces the ordered, immutable execution plan.
//
// Resolution pipeline:
//  1. Start from the record root (the root type with an empty path)
//  2. For each demand entry, in first-seen order:
//     - enumerate every producing chain from the root, one hop per segment
//     - apply the caller's prefer directives
//     - fail on zero chains (unreachable) or more than one (ambiguous)
//  3. Merge the chosen hops into steps keyed by (dissector, input field)
//  4. Order the steps producer first, ties broken by first-seen order
//  5. Instantiate every step once with its frozen activation
//
// Every problem is collected into diagnostics; no plan is returned unless
// all entries resolve.
package plan
