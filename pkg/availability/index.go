// Package availability answers "is person P available on date D for role
// R in org O" efficiently (spec §4.1). An Index is built once per solve
// from immutable snapshots and is safe for concurrent reads.
package availability

import (
	"sort"
	"sync"
	"time"

	"github.com/rosterforge/roster-core/pkg/models"
)

// BlockedReason classifies why available() returned false.
type BlockedReason string

const (
	ReasonNone         BlockedReason = ""
	ReasonBlackout     BlockedReason = "blackout"
	ReasonMissingRole  BlockedReason = "missing_role"
	ReasonArchived     BlockedReason = "archived"
	ReasonDoubleBooked BlockedReason = "double_booked"
)

type personRecord struct {
	person        models.Person
	roleSet       map[string]bool
	blackouts     []models.Blackout // sorted by StartDate
	busyIntervals []busyInterval    // sorted by start; pre-existing assignments the solver must respect
}

type busyInterval struct {
	eventID string
	start   time.Time
	end     time.Time
}

// Index is a read-only snapshot of people, their role capability sets,
// blackouts, and pre-existing busy windows, built once per build_index
// or solve call.
type Index struct {
	mu      sync.RWMutex // guards nothing today (Index is immutable after Build); held only to document the no-mutation-during-solve contract
	byID    map[string]*personRecord
	orgID   string
	builtAt time.Time
}

// PreexistingAssignment is the minimal shape the index needs to compute
// double-booking against assignments the solver must respect (manual
// assignments and, on a rerun, the prior solution's assignments).
type PreexistingAssignment struct {
	PersonID string
	EventID  string
	Start    time.Time
	End      time.Time
}

// Build constructs an Index from immutable snapshots. People, blackouts,
// and preexisting must all belong to orgID; callers are responsible for
// that scoping (the index does not re-filter by org).
func Build(orgID string, people []models.Person, blackouts []models.Blackout, preexisting []PreexistingAssignment) *Index {
	idx := &Index{
		byID:    make(map[string]*personRecord, len(people)),
		orgID:   orgID,
		builtAt: time.Now(),
	}

	for _, p := range people {
		roleSet := make(map[string]bool, len(p.Roles))
		for _, r := range p.Roles {
			roleSet[r] = true
		}
		person := p
		idx.byID[p.ID] = &personRecord{
			person:  person,
			roleSet: roleSet,
		}
	}

	blackoutsByPerson := make(map[string][]models.Blackout)
	for _, b := range blackouts {
		blackoutsByPerson[b.PersonID] = append(blackoutsByPerson[b.PersonID], b)
	}
	for personID, list := range blackoutsByPerson {
		rec, ok := idx.byID[personID]
		if !ok {
			continue
		}
		sorted := append([]models.Blackout(nil), list...)
		sort.Slice(sorted, func(i, j int) bool {
			return sorted[i].StartDate.Before(sorted[j].StartDate)
		})
		rec.blackouts = sorted
	}

	busyByPerson := make(map[string][]busyInterval)
	for _, a := range preexisting {
		busyByPerson[a.PersonID] = append(busyByPerson[a.PersonID], busyInterval{
			eventID: a.EventID,
			start:   a.Start,
			end:     a.End,
		})
	}
	for personID, list := range busyByPerson {
		rec, ok := idx.byID[personID]
		if !ok {
			continue
		}
		sorted := append([]busyInterval(nil), list...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].start.Before(sorted[j].start) })
		rec.busyIntervals = sorted
	}

	return idx
}

// Available reports whether person is free to take role on event under
// H1/H2/H3 (spec §4.2). It does not check H4/H5 (capacity, exclusivity)
// — those are properties of the event-wide assignment set, checked by
// the scheduler/validator, not by a single-person availability query.
func (idx *Index) Available(personID string, event *models.Event, role string) bool {
	return idx.BlockedReason(personID, event, role) == ReasonNone
}

// BlockedReason returns the structured reason a person cannot take role
// on event, or ReasonNone if they can.
func (idx *Index) BlockedReason(personID string, event *models.Event, role string) BlockedReason {
	rec, ok := idx.byID[personID]
	if !ok {
		return ReasonArchived // unknown person behaves like an archived one: never a candidate
	}
	if rec.person.IsArchived {
		return ReasonArchived
	}
	if role != "" && !rec.roleSet[role] {
		return ReasonMissingRole
	}
	if idx.isBlackedOut(rec, event) {
		return ReasonBlackout
	}
	if idx.isDoubleBooked(rec, event) {
		return ReasonDoubleBooked
	}
	return ReasonNone
}

// isBlackedOut implements the date-vs-instant rule (spec §3): convert
// the event's start instant to the person's local calendar date, then
// binary-search the person's sorted blackout intervals for one that
// covers that date.
func (idx *Index) isBlackedOut(rec *personRecord, event *models.Event) bool {
	if len(rec.blackouts) == 0 {
		return false
	}
	localDate, err := rec.person.LocalDate(event.StartTime)
	if err != nil {
		return false
	}
	// Events that straddle midnight in the person's local timezone must
	// check every local calendar date the event occupies, not just the
	// start date.
	endLocalDate, err := rec.person.LocalDate(event.EndTime.Add(-time.Nanosecond))
	if err != nil {
		endLocalDate = localDate
	}

	for d := localDate; !d.After(endLocalDate); d = d.AddDate(0, 0, 1) {
		if blackoutCoversDate(rec.blackouts, d) {
			return true
		}
	}
	return false
}

// blackoutCoversDate binary-searches the sorted-by-start blackout list
// for the last interval starting on or before d and checks it for
// coverage. Blackout ranges for one person are assumed non-overlapping,
// so at most one entry can ever cover a given date.
func blackoutCoversDate(sorted []models.Blackout, d time.Time) bool {
	i := sort.Search(len(sorted), func(i int) bool {
		return sorted[i].StartDate.After(d)
	})
	if i == 0 {
		return false
	}
	return sorted[i-1].CoversLocalDate(d)
}

// isDoubleBooked implements H3: no person may be assigned to two events
// whose half-open [start, end) ranges overlap.
func (idx *Index) isDoubleBooked(rec *personRecord, event *models.Event) bool {
	for _, busy := range rec.busyIntervals {
		if busy.eventID == event.ID {
			continue // the event's own existing assignment doesn't conflict with itself
		}
		if event.StartTime.Before(busy.end) && busy.start.Before(event.EndTime) {
			return true
		}
	}
	return false
}

// Candidates returns, in deterministic order, the person ids capable of
// role on event, excluding blocked and double-booked people. Order is
// least-used-first by workload count within window, then
// lexicographic id — the scheduler's value-ordering heuristic (spec
// §4.2), computed here since the index already holds the workload data
// needed to break ties without a second pass over storage.
func (idx *Index) Candidates(event *models.Event, role string, window WorkloadWindow) []string {
	var ids []string
	for id, rec := range idx.byID {
		if rec.person.IsArchived {
			continue
		}
		if role != "" && !rec.roleSet[role] {
			continue
		}
		if idx.isBlackedOut(rec, event) {
			continue
		}
		if idx.isDoubleBooked(rec, event) {
			continue
		}
		ids = append(ids, id)
	}

	sort.Slice(ids, func(i, j int) bool {
		wi, wj := idx.Workload(ids[i], window), idx.Workload(ids[j], window)
		if wi != wj {
			return wi < wj
		}
		return ids[i] < ids[j]
	})
	return ids
}

// WorkloadWindow bounds the range over which Workload counts
// pre-existing assignments for fairness purposes.
type WorkloadWindow struct {
	Start time.Time
	End   time.Time
}

// Workload returns the count of pre-existing busy intervals for person
// that start within window, used for fairness tie-breaking and the S2
// soft objective.
func (idx *Index) Workload(personID string, window WorkloadWindow) int {
	rec, ok := idx.byID[personID]
	if !ok {
		return 0
	}
	count := 0
	for _, busy := range rec.busyIntervals {
		if !busy.start.Before(window.Start) && busy.start.Before(window.End) {
			count++
		}
	}
	return count
}

// PersonIDs returns every person id known to the index, in sorted order.
func (idx *Index) PersonIDs() []string {
	ids := make([]string, 0, len(idx.byID))
	for id := range idx.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Person looks up the snapshot record for a person id.
func (idx *Index) Person(personID string) (models.Person, bool) {
	rec, ok := idx.byID[personID]
	if !ok {
		return models.Person{}, false
	}
	return rec.person, true
}
