package models

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// RoleDemand maps a role name to the positive count of assignments the
// event needs for that role.
type RoleDemand map[string]int

// Event is a single occurrence requiring role-staffed assignment. Start
// and end are always instants in UTC; recurring series are materialized
// into one Event per occurrence before reaching the scheduler.
type Event struct {
	ID                string     `db:"id" json:"id"`
	OrgID             string     `db:"org_id" json:"org_id"`
	StartTime         time.Time  `db:"start_time" json:"start_time"`
	EndTime           time.Time  `db:"end_time" json:"end_time"`
	Type              string     `db:"type" json:"type"`
	RoleDemand        RoleDemand `db:"role_demand" json:"role_demand"`
	RecurringSeriesID *string    `db:"recurring_series_id" json:"recurring_series_id"`
	ExceptionOf       *string    `db:"exception_of" json:"exception_of"`
	Location          string     `db:"location" json:"location"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
}

func NewEvent(orgID, eventType string, start, end time.Time, demand RoleDemand) (*Event, error) {
	if orgID == "" {
		return nil, fmt.Errorf("org ID is required")
	}
	if err := validateEventWindow(start, end); err != nil {
		return nil, err
	}
	if err := validateRoleDemand(demand); err != nil {
		return nil, err
	}

	now := time.Now()
	return &Event{
		ID:         uuid.New().String(),
		OrgID:      orgID,
		StartTime:  start.UTC(),
		EndTime:    end.UTC(),
		Type:       eventType,
		RoleDemand: demand,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

func validateEventWindow(start, end time.Time) error {
	if !end.After(start) {
		return fmt.Errorf("end_time must be after start_time")
	}
	return nil
}

func validateRoleDemand(demand RoleDemand) error {
	for role, count := range demand {
		if role == "" {
			return fmt.Errorf("role_demand keys must be non-empty")
		}
		if count <= 0 {
			return fmt.Errorf("role_demand for %s must be positive, got %d", role, count)
		}
	}
	return nil
}

func (e *Event) Validate() error {
	if e.OrgID == "" {
		return fmt.Errorf("org ID is required")
	}
	if err := validateEventWindow(e.StartTime, e.EndTime); err != nil {
		return err
	}
	if len(e.RoleDemand) == 0 {
		// Empty role demand is explicitly allowed by spec: the event is
		// trivially valid and the solver leaves it untouched.
		return nil
	}
	return validateRoleDemand(e.RoleDemand)
}

// TotalDemand sums the demand across all roles.
func (e *Event) TotalDemand() int {
	total := 0
	for _, count := range e.RoleDemand {
		total += count
	}
	return total
}

// Roles returns the event's demanded roles in deterministic (sorted)
// order, used by the scheduler's variable-ordering step.
func (e *Event) Roles() []string {
	roles := make([]string, 0, len(e.RoleDemand))
	for role := range e.RoleDemand {
		roles = append(roles, role)
	}
	sort.Strings(roles)
	return roles
}

// OverlapsHalfOpen implements the H3 double-booking rule: time ranges
// [start, end) overlap iff each starts before the other ends.
func (e *Event) OverlapsHalfOpen(other *Event) bool {
	return e.StartTime.Before(other.EndTime) && other.StartTime.Before(e.EndTime)
}

// IsRecurringOccurrence reports whether this event was materialized from
// a RecurringSeries.
func (e *Event) IsRecurringOccurrence() bool {
	return e.RecurringSeriesID != nil
}
