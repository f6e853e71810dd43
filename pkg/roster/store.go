// Package roster is the orchestration facade for spec §6's external
// interface: it wires AvailabilityIndex, SchedulerEngine, ValidationEngine,
// and CalendarFeed together behind the logical operations
// (build_index/solve/validate_event/assign/unassign/list_assignments/
// get_person_calendar/get_org_calendar/rotate_calendar_token), each
// taking a verified caller identity.
package roster

import (
	"time"

	"github.com/rosterforge/roster-core/pkg/models"
)

// Window bounds a query by start/end instant, e.g. for list_assignments
// and calendar generation.
type Window struct {
	Start time.Time
	End   time.Time
}

// Store is the full persistence contract the roster facade depends on.
// internal/storage provides the sqlite-backed implementation; tests use
// an in-memory fake satisfying the same interface, matching the
// teacher's repository-interface style (e.g. pkg/hereandnow's
// TaskRepository).
type Store interface {
	OrgStore
	PersonStore
	TeamStore
	EventStore
	BlackoutStore
	AssignmentStore
	SolutionStore
	TokenStore
}

type OrgStore interface {
	GetOrganization(orgID string) (*models.Organization, error)
}

type PersonStore interface {
	GetPerson(personID string) (*models.Person, error)
	ListPeople(orgID string) ([]models.Person, error)
}

type TeamStore interface {
	ListTeams(orgID string) ([]models.Team, error)
}

type EventStore interface {
	GetEvent(eventID string) (*models.Event, error)
	ListEvents(orgID string, window Window) ([]models.Event, error)
}

type BlackoutStore interface {
	ListBlackouts(orgID string) ([]models.Blackout, error)
}

// AssignmentStore is the transactional contract spec §5's "Transactional
// discipline" describes: every mutation takes the event lock, checks
// preconditions, writes, re-validates, persists is_valid, commits, and
// publishes a change event. internal/storage.Repo takes the locks and
// does the writes; Service runs validation, SetEventValid and
// PublishChange itself through this interface.
type AssignmentStore interface {
	ListAssignmentsForEvent(eventID string) ([]models.Assignment, error)
	ListAssignments(orgID string, window Window) ([]models.Assignment, error)
	GetAssignment(assignmentID string) (*models.Assignment, error)
	// CreateAssignment persists a with optimistic-concurrency semantics:
	// it must return rosterr.Conflict if an assignment with the same
	// (event_id, person_id, role) already exists.
	CreateAssignment(a models.Assignment) error
	DeleteAssignment(assignmentID string) error
	// SwapAssignments atomically replaces oldID1/oldID2 with new1/new2:
	// both deletes and both inserts commit in one transaction (and under
	// both assignments' event locks), so a conflict on either insert
	// rolls back the whole exchange rather than leaving one side of the
	// swap detached (spec §5's transactional discipline, applied to a
	// two-assignment exchange instead of a single write).
	SwapAssignments(oldID1, oldID2 string, new1, new2 models.Assignment) error
	SetEventValid(eventID string, isValid bool) error
	PublishChange(event ChangeEvent) error
}

type SolutionStore interface {
	ListPreexistingAssignments(orgID string) ([]PreexistingAssignment, error)
	SaveSolution(solution models.Solution, assignments []models.Assignment) error
}

type TokenStore interface {
	GetTokenByHash(hash []byte) (*models.CalendarToken, error)
	CreateToken(token models.CalendarToken) error
	MarkTokenServedOnce(personID string) error
	RetireAllTokensForPerson(personID string) error
}

// PreexistingAssignment mirrors availability.PreexistingAssignment
// without importing it here, keeping Store's signature independent of
// the availability package's internal layout. Service converts between
// the two at the boundary.
type PreexistingAssignment struct {
	PersonID string
	EventID  string
	Start    time.Time
	End      time.Time
}

// ChangeEvent is the change-bus message shape from spec §6: "Subscribers
// receive JSON-shaped messages: {type, org_id, entity_id, at, actor_id}".
type ChangeEvent struct {
	Type     string    `json:"type"`
	OrgID    string    `json:"org_id"`
	EntityID string    `json:"entity_id"`
	At       time.Time `json:"at"`
	ActorID  string    `json:"actor_id"`
}

const (
	ChangeTypeAssigned   = "assignment.created"
	ChangeTypeUnassigned = "assignment.deleted"
	ChangeTypeSolved     = "solution.published"
	ChangeTypeTokenRotated = "calendar_token.rotated"
)
