package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/rosterforge/roster-core/pkg/models"
)

// SolutionRepository provides read access to published and superseded
// solutions, used by cmd/rosterctl and the API's history endpoints. The
// write path (publishing a new solution) lives on AssignmentRepository
// since it is transactional with the assignment rows it produces.
type SolutionRepository struct {
	db *DB
}

func NewSolutionRepository(db *DB) *SolutionRepository {
	return &SolutionRepository{db: db}
}

func (r *SolutionRepository) GetByID(id string) (*models.Solution, error) {
	query := `SELECT id, org_id, created_at, health_score, metrics, seed, published, superseded_by FROM solutions WHERE id = ?`

	s := &models.Solution{}
	var metrics string
	err := r.db.QueryRow(query, id).Scan(&s.ID, &s.OrgID, &s.CreatedAt, &s.HealthScore, &metrics, &s.Seed, &s.Published, &s.SupersededBy)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get solution: %w", err)
	}
	if err := json.Unmarshal([]byte(metrics), &s.Metrics); err != nil {
		return nil, fmt.Errorf("failed to unmarshal solution metrics: %w", err)
	}
	return s, nil
}

func (r *SolutionRepository) ListByOrg(orgID string) ([]models.Solution, error) {
	query := `SELECT id, org_id, created_at, health_score, metrics, seed, published, superseded_by FROM solutions WHERE org_id = ? ORDER BY created_at DESC`

	rows, err := r.db.Query(query, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list solutions: %w", err)
	}
	defer rows.Close()

	var solutions []models.Solution
	for rows.Next() {
		s := models.Solution{}
		var metrics string
		if err := rows.Scan(&s.ID, &s.OrgID, &s.CreatedAt, &s.HealthScore, &metrics, &s.Seed, &s.Published, &s.SupersededBy); err != nil {
			return nil, fmt.Errorf("failed to scan solution: %w", err)
		}
		if err := json.Unmarshal([]byte(metrics), &s.Metrics); err != nil {
			return nil, fmt.Errorf("failed to unmarshal solution metrics: %w", err)
		}
		solutions = append(solutions, s)
	}
	return solutions, rows.Err()
}
