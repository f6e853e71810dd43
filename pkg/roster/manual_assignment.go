package roster

import (
	"time"

	"github.com/rosterforge/roster-core/pkg/models"
	"github.com/rosterforge/roster-core/pkg/rosterr"
)

// AssignmentResult is the outcome of a manual assign, carrying
// validation warnings alongside success rather than failing the call —
// spec §7: "A manual assignment targeting a blocked person succeeds with
// a warning in the result."
type AssignmentResult struct {
	Assignment models.Assignment
	Warnings   []string
}

// Assign implements spec §6's `assign(event_id, person_id, role) →
// AssignmentResult` and the transactional discipline of §5: take the
// event lock (the Store implementation is responsible for that), check
// for a duplicate binding, write the row, re-validate, persist is_valid,
// and publish the change event. A duplicate (event, person, role) is
// CONFLICT, not silently merged (spec §7, §8 testable property #4's
// idempotence law).
func (s *Service) Assign(caller CallerIdentity, eventID, personID, role string, opts AssignOptions) (*AssignmentResult, error) {
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

	person, err := s.store.GetPerson(personID)
	if err != nil {
		return nil, rosterr.Internalf("loading person %s: %v", personID, err)
	}
	if person == nil {
		return nil, rosterr.NotFoundf("person %s not found", personID)
	}
	if person.IsArchived {
		return nil, rosterr.PreconditionFailedf("person %s is archived", personID)
	}

	assignment := models.NewManualAssignment(eventID, personID, role)
	assignment.Rebalanceable = opts.Rebalanceable
	assignment.OverrideRoleCheck = opts.OverrideRoleCheck

	if err := s.store.CreateAssignment(*assignment); err != nil {
		// CreateAssignment is responsible for returning rosterr.Conflict
		// on a duplicate (event_id, person_id, role) binding.
		return nil, err
	}

	report, err := s.ValidateEvent(caller, eventID)
	if err != nil {
		return nil, err
	}
	if err := s.store.SetEventValid(eventID, report.IsValid); err != nil {
		return nil, rosterr.Internalf("persisting event validity: %v", err)
	}
	if err := s.store.PublishChange(ChangeEvent{
		Type: ChangeTypeAssigned, OrgID: caller.OrgID, EntityID: assignment.ID, At: time.Now(), ActorID: caller.ActorID,
	}); err != nil {
		return nil, rosterr.Internalf("publishing assign event: %v", err)
	}

	warnings := make([]string, 0, len(report.Warnings))
	for _, w := range report.Warnings {
		warnings = append(warnings, w.Detail)
	}
	return &AssignmentResult{Assignment: *assignment, Warnings: warnings}, nil
}

// AssignOptions carries the two escape hatches spec §3/§9 name for
// deliberate administrator overrides.
type AssignOptions struct {
	Rebalanceable     bool
	OverrideRoleCheck bool
}

// Unassign implements spec §6's `unassign(assignment_id) → void`.
// Calling Unassign on an id that no longer exists is NOT_FOUND, not a
// silent success — callers that want idempotent-delete semantics check
// existence first via ListAssignments.
func (s *Service) Unassign(caller CallerIdentity, assignmentID string) error {
	assignment, err := s.store.GetAssignment(assignmentID)
	if err != nil {
		return rosterr.Internalf("loading assignment %s: %v", assignmentID, err)
	}
	if assignment == nil {
		return rosterr.NotFoundf("assignment %s not found", assignmentID)
	}

	event, err := s.store.GetEvent(assignment.EventID)
	if err != nil {
		return rosterr.Internalf("loading event %s: %v", assignment.EventID, err)
	}
	if event == nil || event.OrgID != caller.OrgID {
		return rosterr.PreconditionFailedf("assignment %s does not belong to org %s", assignmentID, caller.OrgID)
	}

	if err := s.store.DeleteAssignment(assignmentID); err != nil {
		return rosterr.Internalf("deleting assignment %s: %v", assignmentID, err)
	}

	report, err := s.ValidateEvent(caller, assignment.EventID)
	if err != nil {
		return err
	}
	if err := s.store.SetEventValid(assignment.EventID, report.IsValid); err != nil {
		return rosterr.Internalf("persisting event validity: %v", err)
	}
	return s.store.PublishChange(ChangeEvent{
		Type: ChangeTypeUnassigned, OrgID: caller.OrgID, EntityID: assignmentID, At: time.Now(), ActorID: caller.ActorID,
	})
}

// Swap exchanges the people holding two existing assignments, grounded
// on the teacher's TaskAssignment accept/reject state machine
// generalized to a two-assignment atomic exchange: both sides commit
// together or neither does, via the store's single SwapAssignments
// operation rather than four separate calls, so no intermediate state
// (one side deleted, the other still pending) is ever observable (spec
// §4.4, §5).
func (s *Service) Swap(caller CallerIdentity, assignmentID1, assignmentID2 string) error {
	a1, err := s.store.GetAssignment(assignmentID1)
	if err != nil {
		return rosterr.Internalf("loading assignment %s: %v", assignmentID1, err)
	}
	if a1 == nil {
		return rosterr.NotFoundf("assignment %s not found", assignmentID1)
	}
	a2, err := s.store.GetAssignment(assignmentID2)
	if err != nil {
		return rosterr.Internalf("loading assignment %s: %v", assignmentID2, err)
	}
	if a2 == nil {
		return rosterr.NotFoundf("assignment %s not found", assignmentID2)
	}

	if a1.EventID == a2.EventID && a1.PersonID == a2.PersonID {
		return rosterr.PreconditionFailedf("cannot swap an assignment with itself")
	}

	swapped1 := models.NewManualAssignment(a1.EventID, a2.PersonID, a1.Role)
	swapped2 := models.NewManualAssignment(a2.EventID, a1.PersonID, a2.Role)

	// CreateAssignment's equivalent duplicate-binding check runs inside
	// SwapAssignments' own transaction; a conflict there rolls back both
	// deletes too, so a1/a2 are left untouched rather than half-swapped.
	if err := s.store.SwapAssignments(a1.ID, a2.ID, *swapped1, *swapped2); err != nil {
		return err
	}

	for _, eventID := range []string{a1.EventID, a2.EventID} {
		report, err := s.ValidateEvent(caller, eventID)
		if err != nil {
			return err
		}
		if err := s.store.SetEventValid(eventID, report.IsValid); err != nil {
			return rosterr.Internalf("persisting event validity: %v", err)
		}
	}

	now := time.Now()
	if err := s.store.PublishChange(ChangeEvent{Type: ChangeTypeAssigned, OrgID: caller.OrgID, EntityID: swapped1.ID, At: now, ActorID: caller.ActorID}); err != nil {
		return rosterr.Internalf("publishing swap event: %v", err)
	}
	return s.store.PublishChange(ChangeEvent{Type: ChangeTypeAssigned, OrgID: caller.OrgID, EntityID: swapped2.ID, At: now, ActorID: caller.ActorID})
}
