// Package dates parses natural-language date phrases into calendar dates.
package dates

import (
	"strings"
	"time"
)

var weekdays = map[string]time.Weekday{
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
	"sunday":    time.Sunday,
}

// Parse resolves a phrase like "today", "tomorrow", "friday" or a strict
// YYYY-MM-DD literal against the given reference date. The returned date is
// truncated to midnight in the reference location. ok is false when the
// phrase is not a recognizable date; callers treat that as "no date", not as
// a failure.
func Parse(phrase string, today time.Time) (time.Time, bool) {
	phrase = strings.ToLower(strings.TrimSpace(phrase))
	if phrase == "" {
		return time.Time{}, false
	}

	day := truncate(today)

	switch phrase {
	case "today":
		return day, true
	case "tomorrow":
		return day.AddDate(0, 0, 1), true
	case "yesterday":
		return day.AddDate(0, 0, -1), true
	}

	if wd, ok := weekdays[phrase]; ok {
		ahead := int(wd) - int(day.Weekday())
		// A weekday name always means the next occurrence, never today.
		if ahead <= 0 {
			ahead += 7
		}
		return day.AddDate(0, 0, ahead), true
	}

	if parsed, err := time.ParseInLocation("2006-01-02", phrase, today.Location()); err == nil {
		return parsed, true
	}

	return time.Time{}, false
}

func truncate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
