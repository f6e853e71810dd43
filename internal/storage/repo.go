package storage

import (
	"github.com/rosterforge/roster-core/pkg/models"
	"github.com/rosterforge/roster-core/pkg/roster"
)

// Repo composes every sub-repository plus the lock table and change bus
// into the single implementation of roster.Store the facade depends on.
// It is the seam where spec §5's "Transactional discipline" actually
// gets enforced: CreateAssignment/DeleteAssignment take the event lock
// before touching storage, and SaveSolution takes the per-org publish
// lock, so callers of pkg/roster.Service never have to think about
// locking themselves.
type Repo struct {
	db *DB

	Orgs      *OrganizationRepository
	People    *PersonRepository
	Teams     *TeamRepository
	Events    *EventRepository
	Blackouts *BlackoutRepository
	Assign    *AssignmentRepository
	Solutions *SolutionRepository
	Tokens    *CalendarTokenRepository

	eventLock *EventLock
	orgLock   *OrgPublishLock
	personLock *PersonLock
	bus       *Bus
}

func NewRepo(db *DB) *Repo {
	return &Repo{
		db:         db,
		Orgs:       NewOrganizationRepository(db),
		People:     NewPersonRepository(db),
		Teams:      NewTeamRepository(db),
		Events:     NewEventRepository(db),
		Blackouts:  NewBlackoutRepository(db),
		Assign:     NewAssignmentRepository(db),
		Solutions:  NewSolutionRepository(db),
		Tokens:     NewCalendarTokenRepository(db),
		eventLock:  NewEventLock(),
		orgLock:    NewOrgPublishLock(),
		personLock: NewPersonLock(),
		bus:        NewBus(),
	}
}

// Bus exposes the change bus for internal/api's SSE handler to
// subscribe against.
func (r *Repo) Bus() *Bus { return r.bus }

func (r *Repo) GetOrganization(orgID string) (*models.Organization, error) {
	return r.Orgs.GetByID(orgID)
}

func (r *Repo) GetPerson(personID string) (*models.Person, error) {
	return r.People.GetByID(personID)
}

func (r *Repo) ListPeople(orgID string) ([]models.Person, error) {
	return r.People.ListByOrg(orgID)
}

func (r *Repo) ListTeams(orgID string) ([]models.Team, error) {
	return r.Teams.ListByOrg(orgID)
}

func (r *Repo) GetEvent(eventID string) (*models.Event, error) {
	return r.Events.GetByID(eventID)
}

func (r *Repo) ListEvents(orgID string, window roster.Window) ([]models.Event, error) {
	return r.Events.ListByWindow(orgID, window)
}

func (r *Repo) ListBlackouts(orgID string) ([]models.Blackout, error) {
	return r.Blackouts.ListByOrg(orgID)
}

func (r *Repo) ListAssignmentsForEvent(eventID string) ([]models.Assignment, error) {
	return r.Assign.ListForEvent(eventID)
}

func (r *Repo) ListAssignments(orgID string, window roster.Window) ([]models.Assignment, error) {
	return r.Assign.ListByWindow(orgID, window)
}

func (r *Repo) GetAssignment(assignmentID string) (*models.Assignment, error) {
	return r.Assign.GetByID(assignmentID)
}

// CreateAssignment takes the event's advisory lock before writing, per
// spec §5 step (1).
func (r *Repo) CreateAssignment(a models.Assignment) error {
	unlock := r.eventLock.Lock(a.EventID)
	defer unlock()
	return r.Assign.Create(a)
}

// DeleteAssignment takes the owning event's advisory lock. The event id
// is looked up first since unassign is keyed by assignment id.
func (r *Repo) DeleteAssignment(assignmentID string) error {
	existing, err := r.Assign.GetByID(assignmentID)
	if err != nil {
		return err
	}
	if existing == nil {
		return nil
	}
	unlock := r.eventLock.Lock(existing.EventID)
	defer unlock()
	return r.Assign.Delete(assignmentID)
}

// SwapAssignments takes both events' advisory locks (a fixed lock order
// avoids deadlock against a concurrent swap touching the same pair in
// reverse) and delegates to AssignmentRepository.SwapAssignments, which
// runs both deletes and both inserts in one transaction, per spec §5.
func (r *Repo) SwapAssignments(oldID1, oldID2 string, new1, new2 models.Assignment) error {
	first, second := new1.EventID, new2.EventID
	if second < first {
		first, second = second, first
	}
	unlockFirst := r.eventLock.Lock(first)
	defer unlockFirst()
	if second != first {
		unlockSecond := r.eventLock.Lock(second)
		defer unlockSecond()
	}
	return r.Assign.SwapAssignments(oldID1, oldID2, new1, new2)
}

func (r *Repo) SetEventValid(eventID string, isValid bool) error {
	return r.Events.SetValid(eventID, isValid)
}

func (r *Repo) PublishChange(event roster.ChangeEvent) error {
	return r.bus.Publish(event)
}

func (r *Repo) ListPreexistingAssignments(orgID string) ([]roster.PreexistingAssignment, error) {
	return r.Assign.ListPreexisting(orgID)
}

func (r *Repo) GetTokenByHash(hash []byte) (*models.CalendarToken, error) {
	return r.Tokens.GetByHash(hash)
}

func (r *Repo) CreateToken(token models.CalendarToken) error {
	return r.Tokens.Create(token)
}

func (r *Repo) MarkTokenServedOnce(personID string) error {
	unlock := r.personLock.Lock(personID)
	defer unlock()
	return r.Tokens.MarkServedOnce(personID)
}

func (r *Repo) RetireAllTokensForPerson(personID string) error {
	unlock := r.personLock.Lock(personID)
	defer unlock()
	return r.Tokens.RetireAllForPerson(personID)
}

// SaveSolution takes the org's publish lock, per spec §5: "at most one
// solver may atomically replace a solution for a given org."
func (r *Repo) SaveSolution(solution models.Solution, assignments []models.Assignment) error {
	unlock := r.orgLock.Lock(solution.OrgID)
	defer unlock()
	return r.Assign.SaveSolution(solution, assignments)
}
