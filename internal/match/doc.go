// Package match ranks known field paths against a requested one so that an
// unreachable request can be answered with "did you mean" suggestions.
//
// Key functions:
//   - Normalize: folds a TYPE:path for fuzzy comparison
//   - Levenshtein: computes edit distance between strings
//   - Suggest: ranks the closest known paths
package match
