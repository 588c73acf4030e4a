package match

import (
	"strings"
)

// Normalize folds a TYPE:path for fuzzy comparison: lower case, with '_' and
// '-' removed. Dots and the type separator are kept so that the structure of
// the path still weighs in the distance.
func Normalize(s string) string {
	var b strings.Builder

	b.Grow(len(s))

	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if r == '_' || r == '-' || r == ' ' {
			continue
		}

		b.WriteRune(r)
	}

	return b.String()
}
