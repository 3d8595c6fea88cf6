package tracker

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Loose date expressions arrive from free-text chat ("tomorrow", "next
// friday", "14th feb", "in 10 days"). Everything normalizes to start of
// day in the base date's location.

// maxRelativeDays caps "in N days" expressions.
const maxRelativeDays = 3650

var (
	inDaysRe   = regexp.MustCompile(`^in\s+(-?\d+)\s+days?$`)
	dayMonthRe = regexp.MustCompile(`^(\d{1,2})(?:st|nd|rd|th)?\s+([a-z]+)\.?(?:\s+(\d{4}))?$`)
	monthDayRe = regexp.MustCompile(`^([a-z]+)\.?\s+(\d{1,2})(?:st|nd|rd|th)?(?:,?\s+(\d{4}))?$`)
)

var monthsByName = map[string]time.Month{
	"jan": time.January, "january": time.January,
	"feb": time.February, "february": time.February,
	"mar": time.March, "march": time.March,
	"apr": time.April, "april": time.April,
	"may": time.May,
	"jun": time.June, "june": time.June,
	"jul": time.July, "july": time.July,
	"aug": time.August, "august": time.August,
	"sep": time.September, "sept": time.September, "september": time.September,
	"oct": time.October, "october": time.October,
	"nov": time.November, "november": time.November,
	"dec": time.December, "december": time.December,
}

var weekdaysByName = map[string]time.Weekday{
	"sunday": time.Sunday, "sun": time.Sunday,
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday, "tues": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday, "thur": time.Thursday, "thurs": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
}

// startOfDay truncates t to midnight in its own location.
func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// TryParseDateInput parses a loose natural-language date expression
// relative to base. Returns the date normalized to start of day and true
// on success; zero time and false when nothing matches.
func TryParseDateInput(text string, base time.Time) (time.Time, bool) {
	trimmed := strings.TrimSpace(text)
	s := strings.ToLower(trimmed)
	if s == "" {
		return time.Time{}, false
	}
	loc := base.Location()

	// Strict ISO date / datetime first.
	for _, layout := range []string{"2006-01-02", time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04"} {
		if t, err := time.ParseInLocation(layout, trimmed, loc); err == nil {
			return startOfDay(t.In(loc)), true
		}
	}

	switch s {
	case "today":
		return startOfDay(base), true
	case "tomorrow":
		return startOfDay(base.AddDate(0, 0, 1)), true
	case "yesterday":
		return startOfDay(base.AddDate(0, 0, -1)), true
	}

	// "in N days" — N capped, negatives rejected.
	if m := inDaysRe.FindStringSubmatch(s); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 0 || n > maxRelativeDays {
			return time.Time{}, false
		}
		return startOfDay(base.AddDate(0, 0, n)), true
	}

	// Weekday name, optionally prefixed with "next". Without "next", the
	// named day resolves to the next occurrence on or after base; "next"
	// on today's weekday rolls a full week forward.
	if t, ok := parseWeekday(s, base); ok {
		return t, true
	}

	// "14th feb" / "feb 14" / "february 14, 2026" forms.
	if t, ok := parseDayMonth(s, base); ok {
		return t, true
	}

	// Generic fallback layouts.
	for _, layout := range []string{"2 January 2006", "January 2 2006", "January 2, 2006", "2006/01/02", "02.01.2006"} {
		if t, err := time.ParseInLocation(layout, trimmed, loc); err == nil {
			return startOfDay(t), true
		}
	}

	return time.Time{}, false
}

// ParseDateInput is the forgiving variant: on parse failure it defaults to
// base + 7 days rather than reporting an error.
func ParseDateInput(text string, base time.Time) time.Time {
	if t, ok := TryParseDateInput(text, base); ok {
		return t
	}
	return startOfDay(base.AddDate(0, 0, 7))
}

func parseWeekday(s string, base time.Time) (time.Time, bool) {
	next := false
	if rest, found := strings.CutPrefix(s, "next "); found {
		next = true
		s = strings.TrimSpace(rest)
	}
	wd, ok := weekdaysByName[s]
	if !ok {
		return time.Time{}, false
	}
	delta := (int(wd) - int(base.Weekday()) + 7) % 7
	if delta == 0 && next {
		delta = 7
	}
	return startOfDay(base.AddDate(0, 0, delta)), true
}

func parseDayMonth(s string, base time.Time) (time.Time, bool) {
	var dayStr, monthStr, yearStr string
	if m := dayMonthRe.FindStringSubmatch(s); m != nil {
		dayStr, monthStr, yearStr = m[1], m[2], m[3]
	} else if m := monthDayRe.FindStringSubmatch(s); m != nil {
		monthStr, dayStr, yearStr = m[1], m[2], m[3]
	} else {
		return time.Time{}, false
	}

	month, ok := monthsByName[monthStr]
	if !ok {
		return time.Time{}, false
	}
	day, err := strconv.Atoi(dayStr)
	if err != nil || day < 1 || day > 31 {
		return time.Time{}, false
	}

	year := base.Year()
	explicitYear := yearStr != ""
	if explicitYear {
		year, err = strconv.Atoi(yearStr)
		if err != nil {
			return time.Time{}, false
		}
	}

	t := time.Date(year, month, day, 0, 0, 0, 0, base.Location())
	// Reject impossible dates that Date() silently rolled over (e.g. feb 30).
	if t.Day() != day || t.Month() != month {
		return time.Time{}, false
	}
	// Without an explicit year, a date already behind base means the next
	// occurrence, same as weekday handling.
	if !explicitYear && t.Before(startOfDay(base)) {
		t = t.AddDate(1, 0, 0)
	}
	return t, true
}
