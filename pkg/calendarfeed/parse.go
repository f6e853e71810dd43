package calendarfeed

import (
	"strings"
	"time"
)

// ParsedEvent is the minimal round-trip shape extracted from one VEVENT:
// enough to verify the round-trip law in spec §8 ("parse(ics(assignments))
// == assignments for the round-trip of event id, UTC instants, role, and
// scope").
type ParsedEvent struct {
	EventID   string
	ScopeID   string
	Start     time.Time
	End       time.Time
	Role      string
	Shortage  bool
}

// Parse unfolds RFC 5545 line folding and extracts one ParsedEvent per
// VEVENT block. It is intentionally narrow: it understands exactly the
// fields this package's own builder emits, not the full ICS grammar.
func Parse(ics []byte) []ParsedEvent {
	unfolded := unfold(string(ics))
	lines := strings.Split(unfolded, "\r\n")

	var events []ParsedEvent
	var current *ParsedEvent

	for _, line := range lines {
		switch {
		case line == "BEGIN:VEVENT":
			current = &ParsedEvent{}
		case line == "END:VEVENT":
			if current != nil {
				events = append(events, *current)
				current = nil
			}
		case current == nil:
			continue
		case strings.HasPrefix(line, "UID:"):
			eventID, scopeID := splitUID(strings.TrimPrefix(line, "UID:"))
			current.EventID = eventID
			current.ScopeID = scopeID
		case strings.HasPrefix(line, "DTSTART:"):
			current.Start, _ = time.Parse("20060102T150405Z", strings.TrimPrefix(line, "DTSTART:"))
		case strings.HasPrefix(line, "DTEND:"):
			current.End, _ = time.Parse("20060102T150405Z", strings.TrimPrefix(line, "DTEND:"))
		case strings.HasPrefix(line, "X-ROSTER-ROLE:"):
			current.Role = strings.TrimPrefix(line, "X-ROSTER-ROLE:")
		case strings.HasPrefix(line, "X-ROSTER-SHORTAGE:"):
			current.Shortage = true
		}
	}

	return events
}

// canonicalUUIDLength is len("xxxxxxxx-xxxx-xxxx-xxxx-xxxxxxxxxxxx"),
// the fixed width of every id this system generates (google/uuid's
// canonical String() form).
const canonicalUUIDLength = 36

// splitUID inverts UID(): "<event_id>-<scope_id>@roster" ->
// (event_id, scope_id). Both halves are themselves hyphenated UUIDs, so
// a naive split on "-" is ambiguous; every id this system mints is a
// fixed-width canonical UUID, so the separating hyphen is the one
// immediately after the first canonicalUUIDLength characters.
func splitUID(uid string) (eventID, scopeID string) {
	uid = strings.TrimSuffix(uid, "@roster")
	if len(uid) <= canonicalUUIDLength {
		return uid, ""
	}
	return uid[:canonicalUUIDLength], uid[canonicalUUIDLength+1:]
}

func unfold(s string) string {
	return strings.ReplaceAll(s, "\r\n ", "")
}
