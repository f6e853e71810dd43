package roster

import (
	"context"
	"fmt"
	"time"

	"github.com/rosterforge/roster-core/pkg/availability"
	"github.com/rosterforge/roster-core/pkg/calendarfeed"
	"github.com/rosterforge/roster-core/pkg/models"
	"github.com/rosterforge/roster-core/pkg/rosterr"
	"github.com/rosterforge/roster-core/pkg/scheduler"
	"github.com/rosterforge/roster-core/pkg/validation"
)

// CallerIdentity is the verified identity every external operation
// requires (spec §6 "each taking a verified caller identity"). It is
// deliberately minimal here: internal/auth is responsible for producing
// one from a request, and internal/api's authorization layer decides
// whether the identity may act on a given org. Service itself never
// parses credentials.
type CallerIdentity struct {
	ActorID string
	OrgID   string
}

// Service is the orchestration facade implementing spec §6's external
// operations. It holds no mutable state of its own; all durable state
// lives behind Store.
type Service struct {
	store     Store
	scheduler *scheduler.Engine
	validator *validation.Engine
}

func NewService(store Store) *Service {
	return &Service{
		store:     store,
		scheduler: scheduler.NewEngine(),
		validator: validation.NewEngine(),
	}
}

// IndexHandle is the opaque result of build_index: a snapshot of
// availability data plus the instant it was built at, matching spec
// §6's `build_index(org_id, as_of) → IndexHandle`.
type IndexHandle struct {
	OrgID   string
	AsOf    time.Time
	idx     *availability.Index
}

// BuildIndex snapshots people, blackouts, and existing busy intervals
// for an org (spec §6).
func (s *Service) BuildIndex(caller CallerIdentity, asOf time.Time) (*IndexHandle, error) {
	people, err := s.store.ListPeople(caller.OrgID)
	if err != nil {
		return nil, rosterr.Internalf("listing people: %v", err)
	}
	blackouts, err := s.store.ListBlackouts(caller.OrgID)
	if err != nil {
		return nil, rosterr.Internalf("listing blackouts: %v", err)
	}
	preexisting, err := s.store.ListPreexistingAssignments(caller.OrgID)
	if err != nil {
		return nil, rosterr.Internalf("listing preexisting assignments: %v", err)
	}

	avail := make([]availability.PreexistingAssignment, 0, len(preexisting))
	for _, p := range preexisting {
		avail = append(avail, availability.PreexistingAssignment{
			PersonID: p.PersonID, EventID: p.EventID, Start: p.Start, End: p.End,
		})
	}

	idx := availability.Build(caller.OrgID, people, blackouts, avail)
	return &IndexHandle{OrgID: caller.OrgID, AsOf: asOf, idx: idx}, nil
}

// Solve runs the scheduler over a fixed set of events and, on success,
// persists and publishes the resulting Solution (spec §6
// `solve(org_id, event_ids, policy, seed) → SolutionId`).
func (s *Service) Solve(ctx context.Context, caller CallerIdentity, eventIDs []string, policy scheduler.Policy) (*models.Solution, error) {
	handle, err := s.BuildIndex(caller, time.Now())
	if err != nil {
		return nil, err
	}

	events := make([]models.Event, 0, len(eventIDs))
	for _, id := range eventIDs {
		event, err := s.store.GetEvent(id)
		if err != nil {
			return nil, rosterr.Internalf("loading event %s: %v", id, err)
		}
		if event == nil {
			return nil, rosterr.NotFoundf("event %s not found", id)
		}
		if event.OrgID != caller.OrgID {
			return nil, rosterr.PreconditionFailedf("event %s does not belong to org %s", id, caller.OrgID)
		}
		events = append(events, *event)
	}

	forced, err := s.forcedAssignmentsFor(events)
	if err != nil {
		return nil, err
	}

	if policy.Seed == 0 {
		policy.Seed = scheduler.SeedFor(caller.OrgID, eventIDs)
	}

	solution, assignments := s.scheduler.Solve(ctx, caller.OrgID, events, handle.idx, forced, policy)

	if err := s.store.SaveSolution(*solution, assignments); err != nil {
		return nil, rosterr.Internalf("saving solution: %v", err)
	}
	if err := s.store.PublishChange(ChangeEvent{
		Type: ChangeTypeSolved, OrgID: caller.OrgID, EntityID: solution.ID, At: time.Now(), ActorID: caller.ActorID,
	}); err != nil {
		return nil, rosterr.Internalf("publishing solve event: %v", err)
	}

	return solution, nil
}

// forcedAssignmentsFor loads every manual assignment for the given
// events so the scheduler treats them as fixed seats (spec §4.2 S4,
// §9's "manual assignments preserved by default" resolution).
func (s *Service) forcedAssignmentsFor(events []models.Event) ([]scheduler.ForcedAssignment, error) {
	var forced []scheduler.ForcedAssignment
	for _, event := range events {
		existing, err := s.store.ListAssignmentsForEvent(event.ID)
		if err != nil {
			return nil, rosterr.Internalf("listing assignments for event %s: %v", event.ID, err)
		}
		for _, a := range existing {
			if !a.IsManual {
				continue
			}
			forced = append(forced, scheduler.ForcedAssignment{
				EventID: a.EventID, PersonID: a.PersonID, Role: a.Role, Rebalanceable: a.Rebalanceable,
			})
		}
	}
	return forced, nil
}

// ValidateEvent runs ValidationEngine over one event's current
// assignment set (spec §6 `validate_event(event_id) → ValidationReport`).
func (s *Service) ValidateEvent(caller CallerIdentity, eventID string) (*validation.Report, error) {
	event, err := s.store.GetEvent(eventID)
	if err != nil {
		return nil, rosterr.Internalf("loading event %s: %v", eventID, err)
	}
	if event == nil {
		return nil, rosterr.NotFoundf("event %s not found", eventID)
	}
	if event.OrgID != caller.OrgID {
		return nil, rosterr.PreconditionFailedf("event %s does not belong to org %s", eventID, caller.OrgID)
	}

	assignments, err := s.store.ListAssignmentsForEvent(eventID)
	if err != nil {
		return nil, rosterr.Internalf("listing assignments for event %s: %v", eventID, err)
	}

	handle, err := s.BuildIndex(caller, time.Now())
	if err != nil {
		return nil, err
	}

	report := s.validator.Validate(event, assignments, handle.idx)
	return &report, nil
}

// ListAssignments lists assignments across an org within a window (spec
// §6 `list_assignments(org_id, window) → Assignment[]`).
func (s *Service) ListAssignments(caller CallerIdentity, window Window) ([]models.Assignment, error) {
	assignments, err := s.store.ListAssignments(caller.OrgID, window)
	if err != nil {
		return nil, rosterr.Internalf("listing assignments: %v", err)
	}
	return assignments, nil
}

// GetPersonCalendar resolves a calendar token and renders that person's
// ICS feed (spec §6 `get_person_calendar(token) → ICS bytes`, §4.6, §7's
// retire-then-404 rule).
func (s *Service) GetPersonCalendar(plaintextToken string, now time.Time) ([]byte, error) {
	personID, retiredFirstFetch, err := calendarfeed.Resolve(tokenRepoAdapter{s.store}, plaintextToken)
	if err != nil {
		return nil, err
	}
	if retiredFirstFetch {
		return calendarfeed.RetiredFeed(now), nil
	}

	person, err := s.store.GetPerson(personID)
	if err != nil {
		return nil, rosterr.Internalf("loading person %s: %v", personID, err)
	}
	if person == nil {
		return nil, rosterr.NotFoundf("person %s not found", personID)
	}

	occurrences, err := s.occurrencesForPerson(person.OrgID, personID)
	if err != nil {
		return nil, err
	}
	return calendarfeed.BuildPersonFeed(personID, occurrences, now), nil
}

// GetOrgCalendar renders the org-wide ICS feed (spec §6
// `get_org_calendar(org_id) → ICS bytes`).
func (s *Service) GetOrgCalendar(caller CallerIdentity, now time.Time) ([]byte, error) {
	occurrences, err := s.occurrencesForOrg(caller.OrgID)
	if err != nil {
		return nil, err
	}
	return calendarfeed.BuildOrgFeed(caller.OrgID, occurrences, now), nil
}

// RotateCalendarToken issues a fresh token and retires every prior one
// for a person (spec §6 `rotate_calendar_token(person_id) → new_token`).
func (s *Service) RotateCalendarToken(caller CallerIdentity, personID string) (*models.IssuedToken, error) {
	person, err := s.store.GetPerson(personID)
	if err != nil {
		return nil, rosterr.Internalf("loading person %s: %v", personID, err)
	}
	if person == nil {
		return nil, rosterr.NotFoundf("person %s not found", personID)
	}
	if person.OrgID != caller.OrgID {
		return nil, rosterr.PreconditionFailedf("person %s does not belong to org %s", personID, caller.OrgID)
	}

	issued, err := calendarfeed.Rotate(tokenRepoAdapter{s.store}, personID)
	if err != nil {
		return nil, err
	}
	if err := s.store.PublishChange(ChangeEvent{
		Type: ChangeTypeTokenRotated, OrgID: caller.OrgID, EntityID: personID, At: time.Now(), ActorID: caller.ActorID,
	}); err != nil {
		return nil, rosterr.Internalf("publishing token rotation event: %v", err)
	}
	return issued, nil
}

func (s *Service) occurrencesForPerson(orgID, personID string) ([]calendarfeed.EventOccurrence, error) {
	events, err := s.store.ListEvents(orgID, Window{})
	if err != nil {
		return nil, rosterr.Internalf("listing events: %v", err)
	}

	var occurrences []calendarfeed.EventOccurrence
	for _, event := range events {
		assignments, err := s.store.ListAssignmentsForEvent(event.ID)
		if err != nil {
			return nil, rosterr.Internalf("listing assignments for event %s: %v", event.ID, err)
		}
		occ, involvesPerson := s.buildOccurrence(event, assignments, personID)
		if involvesPerson {
			occurrences = append(occurrences, occ)
		}
	}
	return occurrences, nil
}

func (s *Service) occurrencesForOrg(orgID string) ([]calendarfeed.EventOccurrence, error) {
	events, err := s.store.ListEvents(orgID, Window{})
	if err != nil {
		return nil, rosterr.Internalf("listing events: %v", err)
	}

	occurrences := make([]calendarfeed.EventOccurrence, 0, len(events))
	for _, event := range events {
		assignments, err := s.store.ListAssignmentsForEvent(event.ID)
		if err != nil {
			return nil, rosterr.Internalf("listing assignments for event %s: %v", event.ID, err)
		}
		occ, _ := s.buildOccurrence(event, assignments, "")
		occurrences = append(occurrences, occ)
	}
	return occurrences, nil
}

func (s *Service) buildOccurrence(event models.Event, assignments []models.Assignment, wantPersonID string) (calendarfeed.EventOccurrence, bool) {
	occ := calendarfeed.EventOccurrence{
		EventID:     event.ID,
		Type:        event.Type,
		StartTime:   event.StartTime,
		EndTime:     event.EndTime,
		Location:    event.Location,
		TotalDemand: event.TotalDemand(),
	}

	involvesPerson := false
	for _, a := range assignments {
		person, err := s.store.GetPerson(a.PersonID)
		name := a.PersonID
		if err == nil && person != nil {
			name = person.Name
		}
		occ.Assignments = append(occ.Assignments, calendarfeed.OccurrenceAssignment{
			PersonID: a.PersonID, PersonName: name, Role: a.Role,
		})
		occ.TotalFilled++
		if a.PersonID == wantPersonID {
			involvesPerson = true
		}
	}
	return occ, involvesPerson
}

type tokenRepoAdapter struct {
	store Store
}

func (t tokenRepoAdapter) GetByHash(hash []byte) (*models.CalendarToken, error) {
	token, err := t.store.GetTokenByHash(hash)
	if err != nil {
		return nil, fmt.Errorf("looking up calendar token: %w", err)
	}
	return token, nil
}

func (t tokenRepoAdapter) Create(token models.CalendarToken) error {
	return t.store.CreateToken(token)
}

func (t tokenRepoAdapter) MarkServedOnce(personID string) error {
	return t.store.MarkTokenServedOnce(personID)
}

func (t tokenRepoAdapter) RetireAllForPerson(personID string) error {
	return t.store.RetireAllTokensForPerson(personID)
}
