package calendarfeed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenarioF_UIDStableAcrossRoleReassignment(t *testing.T) {
	eventID := "11111111-1111-1111-1111-111111111111"
	personID := "22222222-2222-2222-2222-222222222222"
	start := time.Date(2024, 5, 5, 15, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	occAsUsher := EventOccurrence{
		EventID: eventID, Type: "Sunday Service", StartTime: start, EndTime: end,
		Assignments: []OccurrenceAssignment{{PersonID: personID, PersonName: "P1", Role: "usher"}},
	}
	occAsGreeter := EventOccurrence{
		EventID: eventID, Type: "Sunday Service", StartTime: start, EndTime: end,
		Assignments: []OccurrenceAssignment{{PersonID: personID, PersonName: "P1", Role: "greeter"}},
	}

	firstFetch := BuildPersonFeed(personID, []EventOccurrence{occAsUsher}, time.Now())
	secondFetch := BuildPersonFeed(personID, []EventOccurrence{occAsGreeter}, time.Now())

	firstParsed := Parse(firstFetch)
	secondParsed := Parse(secondFetch)

	require.Len(t, firstParsed, 1)
	require.Len(t, secondParsed, 1)
	assert.Equal(t, firstParsed[0].EventID+firstParsed[0].ScopeID, secondParsed[0].EventID+secondParsed[0].ScopeID, "UID must not change across reassignment")
	assert.Equal(t, "usher", firstParsed[0].Role)
	assert.Equal(t, "greeter", secondParsed[0].Role)
	assert.Contains(t, string(firstFetch), "usher")
	assert.Contains(t, string(secondFetch), "greeter")
}

func TestUID_DiffersByScope(t *testing.T) {
	personUID := UID("event-1", Scope{PersonID: "person-1"})
	orgUID := UID("event-1", Scope{OrgID: "org-1"})
	assert.NotEqual(t, personUID, orgUID)
}

func TestRoundTrip_EventIDInstantsRoleAndScope(t *testing.T) {
	eventID := "33333333-3333-3333-3333-333333333333"
	personID := "44444444-4444-4444-4444-444444444444"
	start := time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)
	end := start.Add(90 * time.Minute)

	occ := EventOccurrence{
		EventID: eventID, Type: "Practice", StartTime: start, EndTime: end,
		Assignments: []OccurrenceAssignment{{PersonID: personID, PersonName: "P1", Role: "drummer"}},
	}

	ics := BuildPersonFeed(personID, []EventOccurrence{occ}, time.Now())
	parsed := Parse(ics)

	require.Len(t, parsed, 1)
	assert.Equal(t, eventID, parsed[0].EventID)
	assert.Equal(t, personID, parsed[0].ScopeID)
	assert.True(t, parsed[0].Start.Equal(start))
	assert.True(t, parsed[0].End.Equal(end))
	assert.Equal(t, "drummer", parsed[0].Role)
}

func TestOrgFeed_ShortageTagOnUnfilledDemand(t *testing.T) {
	eventID := "55555555-5555-5555-5555-555555555555"
	start := time.Date(2024, 8, 1, 9, 0, 0, 0, time.UTC)

	occ := EventOccurrence{
		EventID: eventID, Type: "Sunday Service", StartTime: start, EndTime: start.Add(time.Hour),
		TotalDemand: 2, TotalFilled: 1,
		Assignments: []OccurrenceAssignment{{PersonID: "p1", PersonName: "P1", Role: "usher"}},
	}

	ics := BuildOrgFeed("org-1", []EventOccurrence{occ}, time.Now())
	parsed := Parse(ics)

	require.Len(t, parsed, 1)
	assert.True(t, parsed[0].Shortage)
	assert.Contains(t, string(ics), "X-ROSTER-SHORTAGE:TRUE")
	assert.Contains(t, string(ics), "[SHORTAGE]")
}

func TestLineFolding_LongLinesWrapAt75Octets(t *testing.T) {
	longLocation := "A very long venue name that will certainly exceed the seventy-five octet line folding limit defined by RFC 5545 section 3.1"
	eventID := "66666666-6666-6666-6666-666666666666"
	personID := "77777777-7777-7777-7777-777777777777"
	start := time.Date(2024, 9, 1, 9, 0, 0, 0, time.UTC)

	occ := EventOccurrence{
		EventID: eventID, Type: "Service", StartTime: start, EndTime: start.Add(time.Hour), Location: longLocation,
		Assignments: []OccurrenceAssignment{{PersonID: personID, PersonName: "P1", Role: "usher"}},
	}

	ics := string(BuildPersonFeed(personID, []EventOccurrence{occ}, time.Now()))
	for _, line := range splitCRLF(ics) {
		assert.LessOrEqual(t, len(line), 75)
	}
	assert.Contains(t, ics, "LOCATION:")
}

func splitCRLF(s string) []string {
	var lines []string
	start := 0
	for i := 0; i+1 < len(s); i++ {
		if s[i] == '\r' && s[i+1] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 2
		}
	}
	return lines
}

func TestRetiredFeed_IsWellFormedCalendar(t *testing.T) {
	ics := string(RetiredFeed(time.Now()))
	assert.Contains(t, ics, "BEGIN:VCALENDAR")
	assert.Contains(t, ics, "END:VCALENDAR")
	assert.Contains(t, ics, "retired")
}
