package roster

import (
	"time"

	"github.com/rosterforge/roster-core/pkg/models"
)

// MaterializeOccurrences expands a RecurringSeries into concrete Events
// covering window, skipping any occurrence already represented in
// existingExceptions (keyed by occurrence start instant). Only a narrow
// subset of RRULE is supported — weekly-by-weekday — matching what the
// spec's concrete scenarios exercise; a fuller RRULE grammar is out of
// scope (spec §9 "Recurring events": "materialize occurrences ... exact
// recurrence grammar is an implementation detail").
func MaterializeOccurrences(series models.RecurringSeries, window Window, existingExceptions map[time.Time]bool) ([]models.Event, error) {
	weekdays, err := parseWeeklyRRule(series.RRule)
	if err != nil {
		return nil, err
	}

	var occurrences []models.Event
	cursor := series.SeriesAnchor
	if cursor.Before(window.Start) {
		cursor = alignToWindow(cursor, window.Start)
	}

	for !cursor.After(window.End) {
		if weekdays[cursor.Weekday()] && !cursor.Before(window.Start) {
			if !existingExceptions[cursor] {
				event, err := series.OccurrenceAt(cursor)
				if err != nil {
					return nil, err
				}
				occurrences = append(occurrences, *event)
			}
		}
		cursor = cursor.AddDate(0, 0, 1)
	}

	return occurrences, nil
}

// alignToWindow advances the series anchor forward by the whole number
// of days that fit before windowStart, preserving the anchor's
// time-of-day; the result can still be earlier than windowStart.
func alignToWindow(anchor, windowStart time.Time) time.Time {
	if !anchor.Before(windowStart) {
		return anchor
	}
	days := int(windowStart.Sub(anchor).Hours() / 24)
	return anchor.AddDate(0, 0, days)
}

// parseWeeklyRRule parses the narrow "FREQ=WEEKLY;BYDAY=SU,WE" shape
// into a weekday set.
func parseWeeklyRRule(rrule string) (map[time.Weekday]bool, error) {
	days := map[time.Weekday]bool{}
	byDay := extractRRuleField(rrule, "BYDAY")
	if byDay == "" {
		return days, nil
	}
	codes := map[string]time.Weekday{
		"SU": time.Sunday, "MO": time.Monday, "TU": time.Tuesday, "WE": time.Wednesday,
		"TH": time.Thursday, "FR": time.Friday, "SA": time.Saturday,
	}
	start := 0
	for i := 0; i <= len(byDay); i++ {
		if i == len(byDay) || byDay[i] == ',' {
			code := byDay[start:i]
			if wd, ok := codes[code]; ok {
				days[wd] = true
			}
			start = i + 1
		}
	}
	return days, nil
}

func extractRRuleField(rrule, key string) string {
	parts := splitRRule(rrule)
	for _, p := range parts {
		if len(p) > len(key)+1 && p[:len(key)+1] == key+"=" {
			return p[len(key)+1:]
		}
	}
	return ""
}

func splitRRule(rrule string) []string {
	var parts []string
	start := 0
	for i := 0; i <= len(rrule); i++ {
		if i == len(rrule) || rrule[i] == ';' {
			parts = append(parts, rrule[start:i])
			start = i + 1
		}
	}
	return parts
}
