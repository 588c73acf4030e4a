package match

import (
	"sort"
	"strings"
)

// MinSimilarity is the lowest normalized similarity a suggestion may have.
const MinSimilarity = 0.6

type candidate struct {
	path  string
	score float64
	index int
}

// Suggest returns up to limit entries of known that are close to want, best
// first. Ties keep the order of known.
func Suggest(want string, known []string, limit int) []string {
	if limit <= 0 {
		return nil
	}

	target := Normalize(want)
	_, wantPath, _ := strings.Cut(target, ":")

	var candidates []candidate

	for i, k := range known {
		norm := Normalize(k)
		if norm == target {
			continue
		}

		score := Similarity(norm, target)

		// A path that only differs in its type is always worth naming.
		if _, p, ok := strings.Cut(norm, ":"); ok && p == wantPath {
			score = max(score, 0.9)
		}

		if score < MinSimilarity {
			continue
		}

		candidates = append(candidates, candidate{path: k, score: score, index: i})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}

		return candidates[i].index < candidates[j].index
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, c.path)
	}

	return out
}
