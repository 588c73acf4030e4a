package timestamp

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// zoneOffsets maps the zone abbreviations accepted by the 'z' pattern letter
// to their offset in seconds. Ambiguous abbreviations take their North
// American or Indian reading (CST, IST).
var zoneOffsets = map[string]int{
	"UTC": 0, "UT": 0, "GMT": 0, "Z": 0,
	"WET": 0, "WEST": 1 * 3600,
	"BST": 1 * 3600, "IST": 5*3600 + 1800,
	"CET": 1 * 3600, "CEST": 2 * 3600, "MET": 1 * 3600, "MEST": 2 * 3600,
	"EET": 2 * 3600, "EEST": 3 * 3600, "MSK": 3 * 3600,
	"SAST": 2 * 3600, "CAT": 2 * 3600, "EAT": 3 * 3600, "WAT": 1 * 3600,
	"PKT": 5 * 3600, "ICT": 7 * 3600, "WIB": 7 * 3600,
	"HKT": 8 * 3600, "SGT": 8 * 3600, "AWST": 8 * 3600,
	"JST": 9 * 3600, "KST": 9 * 3600,
	"ACST": 9*3600 + 1800, "ACDT": 10*3600 + 1800,
	"AEST": 10 * 3600, "AEDT": 11 * 3600,
	"NZST": 12 * 3600, "NZDT": 13 * 3600,
	"HST": -10 * 3600, "AKST": -9 * 3600, "AKDT": -8 * 3600,
	"PST": -8 * 3600, "PDT": -7 * 3600,
	"MST": -7 * 3600, "MDT": -6 * 3600,
	"CST": -6 * 3600, "CDT": -5 * 3600,
	"EST": -5 * 3600, "EDT": -4 * 3600,
	"AST": -4 * 3600, "ADT": -3 * 3600,
	"NST": -3*3600 - 1800, "NDT": -2*3600 - 1800,
}

// resolveZone replaces the zone time.Parse picked for a zone name. The time
// package gives names it does not know a zero offset, so t is moved to the
// offset the name stands for, keeping its wall clock.
func resolveZone(t time.Time) (time.Time, error) {
	if t.Location() == time.UTC {
		return t, nil
	}

	name, _ := t.Zone()

	var offset int

	switch {
	case name == "":
		return t, nil
	case strings.HasPrefix(name, "GMT"):
		// GMT+h is already parsed into its offset.
		return t, nil
	case name[0] == '+' || name[0] == '-':
		hours, err := strconv.Atoi(name)
		if err != nil {
			return t, fmt.Errorf("bad zone offset %q: %w", name, err)
		}

		offset = hours * 3600
	default:
		known, ok := zoneOffsets[name]
		if !ok {
			return t, fmt.Errorf("unknown time zone %q", name)
		}

		offset = known
	}

	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(),
		time.FixedZone(name, offset)), nil
}
