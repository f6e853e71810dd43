package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/rosterforge/roster-core/pkg/models"
	"github.com/rosterforge/roster-core/pkg/roster"
	"github.com/rosterforge/roster-core/pkg/rosterr"
)

// AssignmentRepository handles assignment and solution persistence. It
// satisfies roster.AssignmentStore and roster.SolutionStore; the per-
// event/per-org locking spec §5 requires is taken by Repo (repo.go)
// around calls to its write methods, with the lock maps in locks.go,
// not here, so the SQL stays readable.
type AssignmentRepository struct {
	db *DB
}

func NewAssignmentRepository(db *DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

func (r *AssignmentRepository) ListForEvent(eventID string) ([]models.Assignment, error) {
	query := `
		SELECT id, solution_id, event_id, person_id, role, is_manual, rebalanceable, override_role_check, assigned_at
		FROM assignments WHERE event_id = ?`
	return r.query(query, eventID)
}

func (r *AssignmentRepository) ListByWindow(orgID string, window roster.Window) ([]models.Assignment, error) {
	query := `
		SELECT a.id, a.solution_id, a.event_id, a.person_id, a.role, a.is_manual, a.rebalanceable, a.override_role_check, a.assigned_at
		FROM assignments a
		JOIN events e ON e.id = a.event_id
		WHERE e.org_id = ?`
	args := []interface{}{orgID}
	if !window.Start.IsZero() || !window.End.IsZero() {
		query += ` AND e.start_time < ? AND e.end_time > ?`
		args = append(args, window.End, window.Start)
	}
	return r.query(query, args...)
}

func (r *AssignmentRepository) GetByID(id string) (*models.Assignment, error) {
	query := `
		SELECT id, solution_id, event_id, person_id, role, is_manual, rebalanceable, override_role_check, assigned_at
		FROM assignments WHERE id = ?`
	assignments, err := r.query(query, id)
	if err != nil {
		return nil, err
	}
	if len(assignments) == 0 {
		return nil, nil
	}
	return &assignments[0], nil
}

func (r *AssignmentRepository) query(query string, args ...interface{}) ([]models.Assignment, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query assignments: %w", err)
	}
	defer rows.Close()

	var assignments []models.Assignment
	for rows.Next() {
		a := models.Assignment{}
		if err := rows.Scan(&a.ID, &a.SolutionID, &a.EventID, &a.PersonID, &a.Role, &a.IsManual,
			&a.Rebalanceable, &a.OverrideRoleCheck, &a.AssignedAt); err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

// Create inserts an assignment, translating sqlite's UNIQUE(event_id,
// person_id, role) violation into rosterr.Conflict per spec §7: "A
// duplicate (event, person, role) is CONFLICT and rejected."
func (r *AssignmentRepository) Create(a models.Assignment) error {
	if err := a.Validate(); err != nil {
		return fmt.Errorf("assignment validation failed: %w", err)
	}

	query := `
		INSERT INTO assignments (id, solution_id, event_id, person_id, role, is_manual, rebalanceable, override_role_check, assigned_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.Exec(query, a.ID, a.SolutionID, a.EventID, a.PersonID, a.Role, a.IsManual,
		a.Rebalanceable, a.OverrideRoleCheck, a.AssignedAt)
	if err != nil {
		if isUniqueConstraintError(err) {
			return rosterr.Conflictf("assignment for event %s, person %s, role %s already exists", a.EventID, a.PersonID, a.Role)
		}
		return fmt.Errorf("failed to create assignment: %w", err)
	}
	return nil
}

func (r *AssignmentRepository) Delete(id string) error {
	_, err := r.db.Exec(`DELETE FROM assignments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete assignment: %w", err)
	}
	return nil
}

// isUniqueConstraintError checks the go-sqlite3 driver's error text for
// the SQLite UNIQUE constraint message, since the driver does not expose
// a typed constraint-violation error.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return len(msg) > 0 && containsFold(msg, "UNIQUE constraint failed")
}

func containsFold(haystack, needle string) bool {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return true
		}
	}
	return false
}

// SaveSolution persists a Solution and the assignments it produced in
// one transaction, marking the org's previously published solution as
// superseded (spec §5: "last-writer-wins policy that records a
// supersession link") and removing that solution's solver-produced
// (non-manual) assignment rows; the superseded solution record itself
// is kept.
func (r *AssignmentRepository) SaveSolution(solution models.Solution, assignments []models.Assignment) error {
	tx, err := r.db.BeginTx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	metrics, err := json.Marshal(solution.Metrics)
	if err != nil {
		return fmt.Errorf("failed to marshal solution metrics: %w", err)
	}

	var previousID sql.NullString
	err = tx.QueryRow(`SELECT id FROM solutions WHERE org_id = ? AND published = 1 ORDER BY created_at DESC LIMIT 1`, solution.OrgID).Scan(&previousID)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("failed to look up previous solution: %w", err)
	}
	if previousID.Valid {
		if _, err := tx.Exec(`UPDATE solutions SET published = 0, superseded_by = ? WHERE id = ?`, solution.ID, previousID.String); err != nil {
			return fmt.Errorf("failed to mark previous solution superseded: %w", err)
		}
		if _, err := tx.Exec(`DELETE FROM assignments WHERE solution_id = ? AND is_manual = 0`, previousID.String); err != nil {
			return fmt.Errorf("failed to remove superseded solver assignments: %w", err)
		}
	}

	solution.Published = true
	if _, err := tx.Exec(
		`INSERT INTO solutions (id, org_id, created_at, health_score, metrics, seed, published, superseded_by)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		solution.ID, solution.OrgID, solution.CreatedAt, solution.HealthScore, string(metrics), solution.Seed, solution.Published, solution.SupersededBy,
	); err != nil {
		return fmt.Errorf("failed to insert solution: %w", err)
	}

	for _, a := range assignments {
		if _, err := tx.Exec(
			`INSERT INTO assignments (id, solution_id, event_id, person_id, role, is_manual, rebalanceable, override_role_check, assigned_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			a.ID, a.SolutionID, a.EventID, a.PersonID, a.Role, a.IsManual, a.Rebalanceable, a.OverrideRoleCheck, a.AssignedAt,
		); err != nil {
			return fmt.Errorf("failed to insert solver assignment: %w", err)
		}
	}

	return tx.Commit()
}

// SwapAssignments deletes oldID1/oldID2 and inserts new1/new2 in a
// single transaction, rolling back the whole exchange if either insert
// fails — a duplicate (event_id, person_id, role) binding on one side
// of the swap must leave both original assignments intact, not just the
// other side's delete (spec §5).
func (r *AssignmentRepository) SwapAssignments(oldID1, oldID2 string, new1, new2 models.Assignment) error {
	if err := new1.Validate(); err != nil {
		return fmt.Errorf("assignment validation failed: %w", err)
	}
	if err := new2.Validate(); err != nil {
		return fmt.Errorf("assignment validation failed: %w", err)
	}

	tx, err := r.db.BeginTx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM assignments WHERE id = ?`, oldID1); err != nil {
		return fmt.Errorf("failed to delete assignment %s: %w", oldID1, err)
	}
	if _, err := tx.Exec(`DELETE FROM assignments WHERE id = ?`, oldID2); err != nil {
		return fmt.Errorf("failed to delete assignment %s: %w", oldID2, err)
	}

	insert := `
		INSERT INTO assignments (id, solution_id, event_id, person_id, role, is_manual, rebalanceable, override_role_check, assigned_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	for _, a := range []models.Assignment{new1, new2} {
		if _, err := tx.Exec(insert, a.ID, a.SolutionID, a.EventID, a.PersonID, a.Role, a.IsManual, a.Rebalanceable, a.OverrideRoleCheck, a.AssignedAt); err != nil {
			if isUniqueConstraintError(err) {
				return rosterr.Conflictf("swap could not place %s into event %s's seat: %v", a.PersonID, a.EventID, err)
			}
			return fmt.Errorf("failed to insert assignment: %w", err)
		}
	}

	return tx.Commit()
}

// ListPreexisting loads the (person, event window) pairs
// AvailabilityIndex needs to compute double-booking, across both manual
// assignments and the most recently published solution (spec §4.1).
func (r *AssignmentRepository) ListPreexisting(orgID string) ([]roster.PreexistingAssignment, error) {
	query := `
		SELECT a.person_id, a.event_id, e.start_time, e.end_time
		FROM assignments a
		JOIN events e ON e.id = a.event_id
		WHERE e.org_id = ?`
	rows, err := r.db.Query(query, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to query preexisting assignments: %w", err)
	}
	defer rows.Close()

	var out []roster.PreexistingAssignment
	for rows.Next() {
		var p roster.PreexistingAssignment
		if err := rows.Scan(&p.PersonID, &p.EventID, &p.Start, &p.End); err != nil {
			return nil, fmt.Errorf("failed to scan preexisting assignment: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
