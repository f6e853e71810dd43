// Package validation implements the stateless ValidationEngine (spec
// §4.3): a pure predicate over (event, assignments, availability index)
// that never mutates anything.
package validation

import (
	"fmt"

	"github.com/rosterforge/roster-core/pkg/availability"
	"github.com/rosterforge/roster-core/pkg/models"
)

// WarningKind enumerates the ValidationReport warning categories (spec
// §4.3 "Report contents").
type WarningKind string

const (
	WarningShortage          WarningKind = "shortage"
	WarningBlockedAssignment WarningKind = "blocked_assignment"
	WarningMissingRole       WarningKind = "missing_role"
	WarningDoubleBooking     WarningKind = "double_booking"
	WarningArchivedPerson    WarningKind = "archived_person"
	WarningOverfill          WarningKind = "overfill"
)

type Warning struct {
	Kind     WarningKind `json:"kind"`
	Role     string      `json:"role,omitempty"`
	PersonID string      `json:"person_id,omitempty"`
	Detail   string      `json:"detail"`
}

type BlockedAssignment struct {
	AssignmentID string                    `json:"assignment_id"`
	PersonID     string                    `json:"person_id"`
	Role         string                    `json:"role"`
	Reason       availability.BlockedReason `json:"reason"`
}

// Report is the outcome of validating one event against its current
// assignment set.
type Report struct {
	EventID            string              `json:"event_id"`
	IsValid            bool                `json:"is_valid"`
	Warnings           []Warning           `json:"warnings"`
	BlockedAssignments []BlockedAssignment `json:"blocked_assignments"`
}

// Engine evaluates a fixed, priority-ordered list of rules against an
// event's assignment set, in the same rule-list-plus-aggregation shape
// as a constraint-evaluation engine that filters a candidate set against
// registered predicates.
type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

// Validate implements spec §4.3's pure function: validate(event,
// assignments_for_event, index) -> ValidationReport. assignments must
// already be filtered to the ones belonging to event.
func (e *Engine) Validate(event *models.Event, assignments []models.Assignment, idx *availability.Index) Report {
	report := Report{
		EventID:            event.ID,
		IsValid:            true,
		Warnings:           []Warning{},
		BlockedAssignments: []BlockedAssignment{},
	}

	e.checkCapacityAndShortage(event, assignments, &report)
	e.checkPerAssignmentHardConstraints(event, assignments, idx, &report)
	e.checkExclusivity(assignments, &report)

	return report
}

// checkCapacityAndShortage implements H4 (capacity) and the is_valid
// "filled >= demanded per role" rule, emitting shortage/overfill
// warnings.
func (e *Engine) checkCapacityAndShortage(event *models.Event, assignments []models.Assignment, report *Report) {
	countByRole := make(map[string]int)
	for _, a := range assignments {
		countByRole[a.Role]++
	}

	for role, demanded := range event.RoleDemand {
		filled := countByRole[role]
		if filled < demanded {
			report.IsValid = false
			report.Warnings = append(report.Warnings, Warning{
				Kind:   WarningShortage,
				Role:   role,
				Detail: fmt.Sprintf("role %s has %d/%d filled", role, filled, demanded),
			})
		}
		if filled > demanded {
			report.Warnings = append(report.Warnings, Warning{
				Kind:   WarningOverfill,
				Role:   role,
				Detail: fmt.Sprintf("role %s has %d assigned but only %d demanded", role, filled, demanded),
			})
		}
	}

	// Assignments for roles the event doesn't even demand are also an
	// overfill (demanded count is implicitly zero).
	for role, count := range countByRole {
		if _, demanded := event.RoleDemand[role]; !demanded && count > 0 {
			report.Warnings = append(report.Warnings, Warning{
				Kind:   WarningOverfill,
				Role:   role,
				Detail: fmt.Sprintf("role %s is not demanded by this event but has %d assigned", role, count),
			})
		}
	}
}

// checkPerAssignmentHardConstraints implements H1 (role capability), H2
// (availability), and H3 (double-booking) against each existing
// assignment. Manual assignments that violate these are preserved and
// reported, never auto-removed (spec §4.3 "transparency over
// autonomy").
func (e *Engine) checkPerAssignmentHardConstraints(event *models.Event, assignments []models.Assignment, idx *availability.Index, report *Report) {
	for _, a := range assignments {
		person, found := idx.Person(a.PersonID)
		if !found {
			continue
		}
		if person.IsArchived {
			report.IsValid = false
			report.Warnings = append(report.Warnings, Warning{
				Kind: WarningArchivedPerson, PersonID: a.PersonID,
				Detail: fmt.Sprintf("%s is archived but still assigned", a.PersonID),
			})
			report.BlockedAssignments = append(report.BlockedAssignments, BlockedAssignment{
				AssignmentID: a.ID, PersonID: a.PersonID, Role: a.Role, Reason: availability.ReasonArchived,
			})
			continue
		}

		if !a.OverrideRoleCheck && !person.HasRole(a.Role) {
			report.IsValid = false
			report.Warnings = append(report.Warnings, Warning{
				Kind: WarningMissingRole, PersonID: a.PersonID, Role: a.Role,
				Detail: fmt.Sprintf("%s does not have role %s", a.PersonID, a.Role),
			})
			report.BlockedAssignments = append(report.BlockedAssignments, BlockedAssignment{
				AssignmentID: a.ID, PersonID: a.PersonID, Role: a.Role, Reason: availability.ReasonMissingRole,
			})
		}

		reason := idx.BlockedReason(a.PersonID, event, "")
		switch reason {
		case availability.ReasonBlackout:
			report.IsValid = false
			report.Warnings = append(report.Warnings, Warning{
				Kind: WarningBlockedAssignment, PersonID: a.PersonID, Role: a.Role,
				Detail: fmt.Sprintf("%s is blacked out for this event's date", a.PersonID),
			})
			report.BlockedAssignments = append(report.BlockedAssignments, BlockedAssignment{
				AssignmentID: a.ID, PersonID: a.PersonID, Role: a.Role, Reason: availability.ReasonBlackout,
			})
		case availability.ReasonDoubleBooked:
			report.IsValid = false
			report.Warnings = append(report.Warnings, Warning{
				Kind: WarningDoubleBooking, PersonID: a.PersonID, Role: a.Role,
				Detail: fmt.Sprintf("%s is already booked on an overlapping event", a.PersonID),
			})
			report.BlockedAssignments = append(report.BlockedAssignments, BlockedAssignment{
				AssignmentID: a.ID, PersonID: a.PersonID, Role: a.Role, Reason: availability.ReasonDoubleBooked,
			})
		}
	}
}

// checkExclusivity implements H5: a single person may hold at most one
// role within the same event.
func (e *Engine) checkExclusivity(assignments []models.Assignment, report *Report) {
	rolesByPerson := make(map[string][]string)
	for _, a := range assignments {
		rolesByPerson[a.PersonID] = append(rolesByPerson[a.PersonID], a.Role)
	}
	for personID, roles := range rolesByPerson {
		if len(roles) > 1 {
			report.IsValid = false
			report.Warnings = append(report.Warnings, Warning{
				Kind: WarningDoubleBooking, PersonID: personID,
				Detail: fmt.Sprintf("%s holds %d roles on the same event, which violates single-role exclusivity", personID, len(roles)),
			})
		}
	}
}
