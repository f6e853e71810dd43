// Package calendarfeed derives per-person and per-org ICS (RFC 5545)
// calendars from an organization's current assignment state (spec §4.6).
// Regeneration is on-demand; there is no file written to disk.
package calendarfeed

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

const (
	prodID      = "-//Roster//EN"
	icsVersion  = "2.0"
	icsCalscale = "GREGORIAN"
	icsMethod   = "PUBLISH"
	foldWidth   = 75
)

// EventOccurrence is the minimal shape CalendarFeed needs to emit one
// VEVENT — already joined with whatever assignments apply to it.
type EventOccurrence struct {
	EventID     string
	Type        string
	StartTime   time.Time
	EndTime     time.Time
	Location    string
	Assignments []OccurrenceAssignment
	// RoleDemand totals, used to compute shortage for org-level feeds.
	TotalDemand int
	TotalFilled int
}

type OccurrenceAssignment struct {
	PersonID   string
	PersonName string
	Role       string
}

// Scope distinguishes a per-person feed (UID keyed by person) from an
// org-wide feed (UID keyed by org).
type Scope struct {
	PersonID string // set for a person-scoped feed
	OrgID    string // set for an org-scoped feed
}

func (s Scope) id() string {
	if s.PersonID != "" {
		return s.PersonID
	}
	return s.OrgID
}

// UID derives the stable VEVENT UID for (event_id, scope). The format is
// fixed by spec §6: "<event_id>-<scope_id>@roster". It never changes
// across mutations of assignments (only the VEVENT body changes), which
// is what lets calendar clients update in place instead of duplicating
// events (testable property #7).
func UID(eventID string, scope Scope) string {
	return fmt.Sprintf("%s-%s@roster", eventID, scope.id())
}

// BuildPersonFeed renders the ICS calendar for one person's assignments.
func BuildPersonFeed(personID string, occurrences []EventOccurrence, now time.Time) []byte {
	scope := Scope{PersonID: personID}
	var b calendarBuilder
	b.writeHeader()
	for _, occ := range occurrences {
		for _, a := range occ.Assignments {
			if a.PersonID != personID {
				continue
			}
			b.writePersonEvent(occ, a, scope, now)
		}
	}
	b.writeFooter()
	return b.Bytes()
}

// BuildOrgFeed renders the org-wide ICS calendar: every event, with an
// assignment summary in the description and a shortage tag for events
// with unfilled role demand.
func BuildOrgFeed(orgID string, occurrences []EventOccurrence, now time.Time) []byte {
	scope := Scope{OrgID: orgID}
	var b calendarBuilder
	b.writeHeader()
	for _, occ := range occurrences {
		b.writeOrgEvent(occ, scope, now)
	}
	b.writeFooter()
	return b.Bytes()
}

// RetiredFeed renders the one-time "this feed is retired" calendar
// served on the fetch immediately following a token rotation (spec
// §4.6, §7).
func RetiredFeed(now time.Time) []byte {
	var b calendarBuilder
	b.writeHeader()
	b.writeLine("BEGIN:VEVENT")
	b.writeLine("UID:" + "retired-" + formatTimestamp(now) + "@roster")
	b.writeLine("DTSTAMP:" + formatTimestamp(now))
	b.writeLine("DTSTART:" + formatTimestamp(now))
	b.writeLine("DTEND:" + formatTimestamp(now.Add(time.Minute)))
	b.writeFoldedLine("SUMMARY:This calendar feed has been retired")
	b.writeFoldedLine("DESCRIPTION:This calendar link was rotated and will stop working after this fetch. Request a new link from your organization administrator.")
	b.writeLine("END:VEVENT")
	b.writeFooter()
	return b.Bytes()
}

type calendarBuilder struct {
	lines []string
}

func (b *calendarBuilder) writeHeader() {
	b.writeLine("BEGIN:VCALENDAR")
	b.writeLine("VERSION:" + icsVersion)
	b.writeLine("PRODID:" + prodID)
	b.writeLine("CALSCALE:" + icsCalscale)
	b.writeLine("METHOD:" + icsMethod)
}

func (b *calendarBuilder) writeFooter() {
	b.writeLine("END:VCALENDAR")
}

func (b *calendarBuilder) writePersonEvent(occ EventOccurrence, a OccurrenceAssignment, scope Scope, now time.Time) {
	summary := fmt.Sprintf("%s (%s)", occ.Type, a.Role)
	description := fmt.Sprintf("Role: %s", a.Role)
	if coassignees := coassigneeNames(occ, a.PersonID); coassignees != "" {
		description += fmt.Sprintf(". Also serving: %s", coassignees)
	}

	b.writeLine("BEGIN:VEVENT")
	b.writeLine("UID:" + UID(occ.EventID, scope))
	b.writeLine("DTSTAMP:" + formatTimestamp(now))
	b.writeLine("DTSTART:" + formatTimestamp(occ.StartTime))
	b.writeLine("DTEND:" + formatTimestamp(occ.EndTime))
	b.writeFoldedLine("SUMMARY:" + escapeText(summary))
	b.writeFoldedLine("DESCRIPTION:" + escapeText(description))
	if occ.Location != "" {
		b.writeFoldedLine("LOCATION:" + escapeText(occ.Location))
	}
	b.writeLine("X-ROSTER-ROLE:" + escapeText(a.Role))
	b.writeLine("END:VEVENT")
}

func (b *calendarBuilder) writeOrgEvent(occ EventOccurrence, scope Scope, now time.Time) {
	shortage := occ.TotalFilled < occ.TotalDemand
	summary := occ.Type
	if shortage {
		summary = "[SHORTAGE] " + summary
	}
	description := assignmentSummary(occ)

	b.writeLine("BEGIN:VEVENT")
	b.writeLine("UID:" + UID(occ.EventID, scope))
	b.writeLine("DTSTAMP:" + formatTimestamp(now))
	b.writeLine("DTSTART:" + formatTimestamp(occ.StartTime))
	b.writeLine("DTEND:" + formatTimestamp(occ.EndTime))
	b.writeFoldedLine("SUMMARY:" + escapeText(summary))
	b.writeFoldedLine("DESCRIPTION:" + escapeText(description))
	if occ.Location != "" {
		b.writeFoldedLine("LOCATION:" + escapeText(occ.Location))
	}
	if shortage {
		b.writeLine("X-ROSTER-SHORTAGE:TRUE")
	}
	b.writeLine("END:VEVENT")
}

func assignmentSummary(occ EventOccurrence) string {
	if len(occ.Assignments) == 0 {
		return "No one assigned yet."
	}
	names := make([]string, 0, len(occ.Assignments))
	for _, a := range occ.Assignments {
		names = append(names, fmt.Sprintf("%s (%s)", a.PersonName, a.Role))
	}
	sort.Strings(names)
	return "Assigned: " + strings.Join(names, ", ")
}

func coassigneeNames(occ EventOccurrence, excludePersonID string) string {
	var names []string
	for _, a := range occ.Assignments {
		if a.PersonID == excludePersonID {
			continue
		}
		names = append(names, fmt.Sprintf("%s (%s)", a.PersonName, a.Role))
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}

// escapeText escapes the characters RFC 5545 §3.3.11 requires escaped in
// TEXT values.
func escapeText(s string) string {
	replacer := strings.NewReplacer(
		`\`, `\\`,
		`;`, `\;`,
		`,`, `\,`,
		"\n", `\n`,
	)
	return replacer.Replace(s)
}

func (b *calendarBuilder) writeLine(line string) {
	b.lines = append(b.lines, line)
}

// writeFoldedLine applies RFC 5545 §3.1 line folding: lines longer than
// 75 octets are split with a CRLF followed by a single leading space.
func (b *calendarBuilder) writeFoldedLine(line string) {
	if len(line) <= foldWidth {
		b.writeLine(line)
		return
	}

	var folded strings.Builder
	remaining := line
	width := foldWidth
	for len(remaining) > width {
		folded.WriteString(remaining[:width])
		folded.WriteString("\r\n ")
		remaining = remaining[width:]
		// Continuation lines carry the leading space within the limit.
		width = foldWidth - 1
	}
	folded.WriteString(remaining)
	b.writeLine(folded.String())
}

func (b *calendarBuilder) Bytes() []byte {
	return []byte(strings.Join(b.lines, "\r\n") + "\r\n")
}
