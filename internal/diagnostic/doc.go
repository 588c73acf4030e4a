// Package diagnostic collects the problems found while compiling field
// requests and planning the dissection graph.
//
// Planning is all-or-nothing: every problem is recorded first and the caller
// receives them together instead of failing on the first one.
//
// Key capabilities:
//   - Unreachable field errors with "did you mean" suggestions
//   - Ambiguity reports naming every candidate dissector
//   - Cast mismatch errors and warnings
package diagnostic
