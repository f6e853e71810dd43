package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Assignment is a concrete binding of one person to one role in one
// event. SolutionID is nil for manual assignments, which are preserved
// across solver reruns unless explicitly overwritten (spec §3).
type Assignment struct {
	ID                string    `db:"id" json:"id"`
	SolutionID        *string   `db:"solution_id" json:"solution_id"`
	EventID           string    `db:"event_id" json:"event_id"`
	PersonID          string    `db:"person_id" json:"person_id"`
	Role              string    `db:"role" json:"role"`
	IsManual          bool      `db:"is_manual" json:"is_manual"`
	Rebalanceable     bool      `db:"rebalanceable" json:"rebalanceable"`
	OverrideRoleCheck bool      `db:"override_role_check" json:"override_role_check"`
	AssignedAt        time.Time `db:"assigned_at" json:"assigned_at"`
}

func NewSolverAssignment(solutionID, eventID, personID, role string) *Assignment {
	return &Assignment{
		ID:         uuid.New().String(),
		SolutionID: &solutionID,
		EventID:    eventID,
		PersonID:   personID,
		Role:       role,
		IsManual:   false,
		AssignedAt: time.Now(),
	}
}

func NewManualAssignment(eventID, personID, role string) *Assignment {
	return &Assignment{
		ID:         uuid.New().String(),
		SolutionID: nil,
		EventID:    eventID,
		PersonID:   personID,
		Role:       role,
		IsManual:   true,
		AssignedAt: time.Now(),
	}
}

// SameBinding reports whether two assignments target the same (event,
// person, role) tuple — the identity used for the at-most-one-per-tuple
// invariant (spec §3) and for the assign/unassign idempotence law.
func (a *Assignment) SameBinding(other *Assignment) bool {
	return a.EventID == other.EventID && a.PersonID == other.PersonID && a.Role == other.Role
}

func (a *Assignment) Validate() error {
	if a.EventID == "" {
		return fmt.Errorf("event ID is required")
	}
	if a.PersonID == "" {
		return fmt.Errorf("person ID is required")
	}
	if a.Role == "" {
		return fmt.Errorf("role is required")
	}
	return nil
}
