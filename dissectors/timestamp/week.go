package timestamp

import (
	"time"

	"golang.org/x/text/language"
)

// weekRule is the locale dependent definition of week numbering: the day a
// week starts on and how many days of the new year the first week needs.
type weekRule struct {
	first   time.Weekday
	minDays int
}

var isoWeek = weekRule{first: time.Monday, minDays: 4}

// Regions whose weeks start on Sunday.
var sundayFirst = regionSet("AG AS BD BR BS BT BW BZ CA CO DM DO ET GT GU HK HN ID IL IN " +
	"JM JP KE KH KR LA MH MM MO MT MX MZ NI NP PA PE PH PK PR PT PY SA SG SV TH TT TW UM " +
	"US VE VI WS YE ZA ZW")

// Regions that need four days of the new year in the first week.
var fourDayFirstWeek = regionSet("AD AN AT AX BE BG CH CZ DE DK EE ES FI FJ FO FR GB GF GG GI " +
	"GP GR HU IE IM IS IT JE LI LT LU MC MQ NL NO PL PT RE RU SE SJ SK SM VA")

func regionSet(list string) map[string]bool {
	set := make(map[string]bool)

	for i := 0; i+2 <= len(list); i += 3 {
		set[list[i:i+2]] = true
	}

	return set
}

func weekRuleFor(tag language.Tag) weekRule {
	region, conf := tag.Region()
	if conf == language.No {
		return isoWeek
	}

	code := region.String()
	rule := weekRule{first: time.Monday, minDays: 1}

	if sundayFirst[code] {
		rule.first = time.Sunday
	}

	if fourDayFirstWeek[code] {
		rule.minDays = 4
	}

	return rule
}

// firstWeekStart returns the first day of week one of year.
func (w weekRule) firstWeekStart(year int) time.Time {
	jan1 := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	offset := (int(jan1.Weekday()) - int(w.first) + 7) % 7
	start := jan1.AddDate(0, 0, -offset)

	if 7-offset < w.minDays {
		start = start.AddDate(0, 0, 7)
	}

	return start
}

// week returns the week based year and the week of that year for t.
func (w weekRule) week(t time.Time) (int, int) {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	year := day.Year()

	switch {
	case day.Before(w.firstWeekStart(year)):
		year--
	case !day.Before(w.firstWeekStart(year+1)):
		year++
	}

	days := int(day.Sub(w.firstWeekStart(year)).Hours() / 24)

	return year, days/7 + 1
}
