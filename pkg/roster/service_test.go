package roster

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/rosterforge/roster-core/pkg/models"
	"github.com/rosterforge/roster-core/pkg/rosterr"
	"github.com/rosterforge/roster-core/pkg/scheduler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryStore is a minimal in-memory Store fake for roster facade tests,
// in the same spirit as the teacher's table-driven repository fakes.
type memoryStore struct {
	orgs        map[string]models.Organization
	people      map[string]models.Person
	events      map[string]models.Event
	blackouts   []models.Blackout
	assignments map[string]models.Assignment
	tokens      map[string]models.CalendarToken // keyed by hex of hash
	published   []ChangeEvent
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		orgs:        map[string]models.Organization{},
		people:      map[string]models.Person{},
		events:      map[string]models.Event{},
		assignments: map[string]models.Assignment{},
		tokens:      map[string]models.CalendarToken{},
	}
}

func (m *memoryStore) GetOrganization(orgID string) (*models.Organization, error) {
	if o, ok := m.orgs[orgID]; ok {
		return &o, nil
	}
	return nil, nil
}

func (m *memoryStore) GetPerson(personID string) (*models.Person, error) {
	if p, ok := m.people[personID]; ok {
		return &p, nil
	}
	return nil, nil
}

func (m *memoryStore) ListPeople(orgID string) ([]models.Person, error) {
	var out []models.Person
	for _, p := range m.people {
		if p.OrgID == orgID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memoryStore) ListTeams(orgID string) ([]models.Team, error) { return nil, nil }

func (m *memoryStore) GetEvent(eventID string) (*models.Event, error) {
	if e, ok := m.events[eventID]; ok {
		return &e, nil
	}
	return nil, nil
}

func (m *memoryStore) ListEvents(orgID string, window Window) ([]models.Event, error) {
	var out []models.Event
	for _, e := range m.events {
		if e.OrgID == orgID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (m *memoryStore) ListBlackouts(orgID string) ([]models.Blackout, error) {
	return m.blackouts, nil
}

func (m *memoryStore) ListAssignmentsForEvent(eventID string) ([]models.Assignment, error) {
	var out []models.Assignment
	for _, a := range m.assignments {
		if a.EventID == eventID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memoryStore) ListAssignments(orgID string, window Window) ([]models.Assignment, error) {
	var out []models.Assignment
	for _, a := range m.assignments {
		if e, ok := m.events[a.EventID]; ok && e.OrgID == orgID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memoryStore) GetAssignment(assignmentID string) (*models.Assignment, error) {
	if a, ok := m.assignments[assignmentID]; ok {
		return &a, nil
	}
	return nil, nil
}

func (m *memoryStore) CreateAssignment(a models.Assignment) error {
	for _, existing := range m.assignments {
		if existing.SameBinding(&a) {
			return rosterr.Conflictf("assignment for event %s person %s role %s already exists", a.EventID, a.PersonID, a.Role)
		}
	}
	m.assignments[a.ID] = a
	return nil
}

func (m *memoryStore) DeleteAssignment(assignmentID string) error {
	delete(m.assignments, assignmentID)
	return nil
}

// SwapAssignments mirrors the real store's conflict-before-mutate
// guarantee: check both new bindings against every assignment other than
// the two being replaced before deleting or inserting anything, so a
// conflict leaves oldID1/oldID2 untouched rather than half-swapped.
func (m *memoryStore) SwapAssignments(oldID1, oldID2 string, new1, new2 models.Assignment) error {
	for id, existing := range m.assignments {
		if id == oldID1 || id == oldID2 {
			continue
		}
		if existing.SameBinding(&new1) {
			return rosterr.Conflictf("assignment for event %s person %s role %s already exists", new1.EventID, new1.PersonID, new1.Role)
		}
		if existing.SameBinding(&new2) {
			return rosterr.Conflictf("assignment for event %s person %s role %s already exists", new2.EventID, new2.PersonID, new2.Role)
		}
	}
	delete(m.assignments, oldID1)
	delete(m.assignments, oldID2)
	m.assignments[new1.ID] = new1
	m.assignments[new2.ID] = new2
	return nil
}

func (m *memoryStore) SetEventValid(eventID string, isValid bool) error { return nil }

func (m *memoryStore) PublishChange(event ChangeEvent) error {
	m.published = append(m.published, event)
	return nil
}

func (m *memoryStore) ListPreexistingAssignments(orgID string) ([]PreexistingAssignment, error) {
	var out []PreexistingAssignment
	for _, a := range m.assignments {
		e, ok := m.events[a.EventID]
		if !ok || e.OrgID != orgID {
			continue
		}
		out = append(out, PreexistingAssignment{PersonID: a.PersonID, EventID: a.EventID, Start: e.StartTime, End: e.EndTime})
	}
	return out, nil
}

func (m *memoryStore) SaveSolution(solution models.Solution, assignments []models.Assignment) error {
	for _, a := range assignments {
		m.assignments[a.ID] = a
	}
	return nil
}

func (m *memoryStore) GetTokenByHash(hash []byte) (*models.CalendarToken, error) {
	for _, t := range m.tokens {
		if string(t.TokenHash) == string(hash) {
			tc := t
			return &tc, nil
		}
	}
	return nil, nil
}

func (m *memoryStore) CreateToken(token models.CalendarToken) error {
	m.tokens[token.PersonID+string(token.TokenHash)] = token
	return nil
}

func (m *memoryStore) MarkTokenServedOnce(personID string) error {
	for k, t := range m.tokens {
		if t.PersonID == personID && t.IsRetired() && !t.ServedOnce {
			t.ServedOnce = true
			m.tokens[k] = t
		}
	}
	return nil
}

func (m *memoryStore) RetireAllTokensForPerson(personID string) error {
	for k, t := range m.tokens {
		if t.PersonID == personID && !t.IsRetired() {
			t.Retire()
			m.tokens[k] = t
		}
	}
	return nil
}

func TestAssignThenUnassign_IsIdempotentInverse(t *testing.T) {
	store := newMemoryStore()
	org := models.Organization{ID: "org-1"}
	store.orgs[org.ID] = org
	person, err := models.NewPerson(org.ID, "p1@example.com", "P1", "UTC", []string{"usher"})
	require.NoError(t, err)
	store.people[person.ID] = *person
	event, err := models.NewEvent(org.ID, "service", time.Now().Add(time.Hour), time.Now().Add(2*time.Hour), models.RoleDemand{"usher": 1})
	require.NoError(t, err)
	store.events[event.ID] = *event

	svc := NewService(store)
	caller := CallerIdentity{ActorID: "admin-1", OrgID: org.ID}

	before := len(store.assignments)
	result, err := svc.Assign(caller, event.ID, person.ID, "usher", AssignOptions{})
	require.NoError(t, err)
	require.NotNil(t, result)

	require.NoError(t, svc.Unassign(caller, result.Assignment.ID))
	assert.Len(t, store.assignments, before, "assign then unassign must leave the assignment set unchanged")
}

func TestAssign_DuplicateBindingIsConflict(t *testing.T) {
	store := newMemoryStore()
	org := models.Organization{ID: "org-1"}
	store.orgs[org.ID] = org
	person, _ := models.NewPerson(org.ID, "p1@example.com", "P1", "UTC", []string{"usher"})
	store.people[person.ID] = *person
	event, _ := models.NewEvent(org.ID, "service", time.Now().Add(time.Hour), time.Now().Add(2*time.Hour), models.RoleDemand{"usher": 2})
	store.events[event.ID] = *event

	svc := NewService(store)
	caller := CallerIdentity{ActorID: "admin-1", OrgID: org.ID}

	_, err := svc.Assign(caller, event.ID, person.ID, "usher", AssignOptions{})
	require.NoError(t, err)

	_, err = svc.Assign(caller, event.ID, person.ID, "usher", AssignOptions{})
	require.Error(t, err)
	assert.Equal(t, rosterr.Conflict, rosterr.KindOf(err))
}

func TestAssign_BlockedPersonSucceedsWithWarning(t *testing.T) {
	store := newMemoryStore()
	org := models.Organization{ID: "org-1"}
	store.orgs[org.ID] = org
	person, _ := models.NewPerson(org.ID, "p1@example.com", "P1", "America/New_York", []string{"usher"})
	store.people[person.ID] = *person
	blackout, err := models.NewBlackout(person.ID, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	store.blackouts = append(store.blackouts, *blackout)
	event, _ := models.NewEvent(org.ID, "service", time.Date(2024, 3, 10, 14, 0, 0, 0, time.UTC), time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC), models.RoleDemand{"usher": 1})
	store.events[event.ID] = *event

	svc := NewService(store)
	caller := CallerIdentity{ActorID: "admin-1", OrgID: org.ID}

	result, err := svc.Assign(caller, event.ID, person.ID, "usher", AssignOptions{})
	require.NoError(t, err, "a manual assignment targeting a blocked person must succeed with a warning, not fail")
	assert.NotEmpty(t, result.Warnings)
}

func TestSolve_PersistsAndPublishesSolution(t *testing.T) {
	store := newMemoryStore()
	org := models.Organization{ID: "org-1"}
	store.orgs[org.ID] = org
	p1, _ := models.NewPerson(org.ID, "p1@example.com", "P1", "UTC", []string{"usher"})
	store.people[p1.ID] = *p1
	event, _ := models.NewEvent(org.ID, "service", time.Now().Add(time.Hour), time.Now().Add(2*time.Hour), models.RoleDemand{"usher": 1})
	store.events[event.ID] = *event

	svc := NewService(store)
	caller := CallerIdentity{ActorID: "admin-1", OrgID: org.ID}

	solution, err := svc.Solve(context.Background(), caller, []string{event.ID}, scheduler.Policy{Seed: 1})
	require.NoError(t, err)
	assert.Equal(t, 1.0, solution.HealthScore)

	found := false
	for _, change := range store.published {
		if change.Type == ChangeTypeSolved && change.EntityID == solution.ID {
			found = true
		}
	}
	assert.True(t, found, "solve must publish a change event for the new solution")
}

func TestCalendarToken_RetireThenNotFound(t *testing.T) {
	store := newMemoryStore()
	org := models.Organization{ID: "org-1"}
	store.orgs[org.ID] = org
	person, _ := models.NewPerson(org.ID, "p1@example.com", "P1", "UTC", nil)
	store.people[person.ID] = *person

	svc := NewService(store)
	caller := CallerIdentity{ActorID: "admin-1", OrgID: org.ID}

	issued, err := svc.RotateCalendarToken(caller, person.ID)
	require.NoError(t, err)
	oldToken := issued.Plaintext

	_, err = svc.RotateCalendarToken(caller, person.ID)
	require.NoError(t, err)

	// first fetch after rotation: retired placeholder, not an error
	_, err = svc.GetPersonCalendar(oldToken, time.Now())
	require.NoError(t, err)

	// second fetch: NOT_FOUND
	_, err = svc.GetPersonCalendar(oldToken, time.Now())
	require.Error(t, err)
	assert.Equal(t, rosterr.NotFound, rosterr.KindOf(err))
}
