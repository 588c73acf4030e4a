package timestamp

import (
	"fmt"
	"strings"

	"logdissect/dissector"
)

// DefaultPattern is the Apache httpd %t format without the brackets.
const DefaultPattern = "dd/MMM/yyyy:HH:mm:ss ZZ"

// goLayoutWords are reference-time tokens a literal must not contain, or
// time.Parse would read them as fields.
var goLayoutWords = []string{"Jan", "Mon", "MST", "PM", "pm", "Z07"}

// Layout translates a DateTimeFormatter style pattern into a time package
// layout. Quoted text ('T') is literal and '' is a single quote.
func Layout(pattern string) (string, error) {
	var (
		out     strings.Builder
		literal strings.Builder
	)

	flush := func() error {
		lit := literal.String()
		literal.Reset()

		if strings.ContainsAny(lit, "0123456789") {
			return fmt.Errorf("%w: digits in literal %q", dissector.ErrBadSettings, lit)
		}

		for _, w := range goLayoutWords {
			if strings.Contains(lit, w) {
				return fmt.Errorf("%w: literal %q is ambiguous", dissector.ErrBadSettings, lit)
			}
		}

		out.WriteString(lit)

		return nil
	}

	runes := []rune(pattern)

	for i := 0; i < len(runes); {
		r := runes[i]

		if r == '\'' {
			if i+1 < len(runes) && runes[i+1] == '\'' {
				literal.WriteRune('\'')
				i += 2

				continue
			}

			end := i + 1
			for ; end < len(runes); end++ {
				if runes[end] != '\'' {
					literal.WriteRune(runes[end])

					continue
				}

				if end+1 < len(runes) && runes[end+1] == '\'' {
					literal.WriteRune('\'')
					end++

					continue
				}

				break
			}

			if end >= len(runes) {
				return "", fmt.Errorf("%w: unterminated quote in %q", dissector.ErrBadSettings, pattern)
			}

			i = end + 1

			continue
		}

		if !isLetter(r) {
			literal.WriteRune(r)
			i++

			continue
		}

		n := 1
		for i+n < len(runes) && runes[i+n] == r {
			n++
		}

		var prev byte
		if literal.Len() > 0 {
			lit := literal.String()
			prev = lit[len(lit)-1]
		} else if out.Len() > 0 {
			prev = out.String()[out.Len()-1]
		}

		if err := flush(); err != nil {
			return "", err
		}

		token, err := translate(r, n, prev)
		if err != nil {
			return "", err
		}

		out.WriteString(token)

		i += n
	}

	if err := flush(); err != nil {
		return "", err
	}

	if out.Len() == 0 {
		return "", fmt.Errorf("%w: empty pattern", dissector.ErrBadSettings)
	}

	return out.String(), nil
}

func translate(letter rune, n int, prev byte) (string, error) {
	unsupported := func() (string, error) {
		return "", fmt.Errorf("%w: unsupported pattern letters %q",
			dissector.ErrBadSettings, strings.Repeat(string(letter), n))
	}

	switch letter {
	case 'y', 'u':
		if n == 2 {
			return "06", nil
		}

		return "2006", nil
	case 'M', 'L':
		switch n {
		case 1:
			return "1", nil
		case 2:
			return "01", nil
		case 3:
			return "Jan", nil
		default:
			return "January", nil
		}
	case 'd':
		if n > 2 {
			return unsupported()
		}

		return [...]string{"2", "02"}[n-1], nil
	case 'E':
		if n <= 3 {
			return "Mon", nil
		}

		return "Monday", nil
	case 'a':
		return "PM", nil
	case 'H':
		if n > 2 {
			return unsupported()
		}

		return "15", nil
	case 'h':
		if n > 2 {
			return unsupported()
		}

		return [...]string{"3", "03"}[n-1], nil
	case 'm':
		if n > 2 {
			return unsupported()
		}

		return [...]string{"4", "04"}[n-1], nil
	case 's':
		if n > 2 {
			return unsupported()
		}

		return [...]string{"5", "05"}[n-1], nil
	case 'S':
		if prev != '.' && prev != ',' || n > 9 {
			return "", fmt.Errorf("%w: fraction of second must follow '.' or ','", dissector.ErrBadSettings)
		}

		return strings.Repeat("0", n), nil
	case 'z':
		return "MST", nil
	case 'Z':
		switch {
		case n <= 3:
			return "-0700", nil
		case n == 5:
			return "-07:00", nil
		}
	case 'X':
		if n <= 3 {
			return [...]string{"Z07", "Z0700", "Z07:00"}[n-1], nil
		}
	case 'x':
		if n <= 3 {
			return [...]string{"-07", "-0700", "-07:00"}[n-1], nil
		}
	}

	return unsupported()
}

func isLetter(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z'
}
