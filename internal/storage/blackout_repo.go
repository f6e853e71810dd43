package storage

import (
	"fmt"

	"github.com/rosterforge/roster-core/pkg/models"
)

// BlackoutRepository handles blackout data persistence.
type BlackoutRepository struct {
	db *DB
}

func NewBlackoutRepository(db *DB) *BlackoutRepository {
	return &BlackoutRepository{db: db}
}

func (r *BlackoutRepository) Create(b *models.Blackout) error {
	if b.ID == "" {
		return fmt.Errorf("blackout ID cannot be empty")
	}
	if err := b.Validate(); err != nil {
		return fmt.Errorf("blackout validation failed: %w", err)
	}

	query := `INSERT INTO blackouts (id, person_id, start_date, end_date, reason, created_at) VALUES (?, ?, ?, ?, ?, ?)`
	_, err := r.db.Exec(query, b.ID, b.PersonID, b.StartDate, b.EndDate, b.Reason, b.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create blackout: %w", err)
	}
	return nil
}

// ListByOrg lists every blackout for every person belonging to orgID,
// which is what AvailabilityIndex.Build needs (spec §4.1).
func (r *BlackoutRepository) ListByOrg(orgID string) ([]models.Blackout, error) {
	query := `
		SELECT b.id, b.person_id, b.start_date, b.end_date, b.reason, b.created_at
		FROM blackouts b
		JOIN people p ON p.id = b.person_id
		WHERE p.org_id = ?
		ORDER BY b.person_id, b.start_date`

	rows, err := r.db.Query(query, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list blackouts: %w", err)
	}
	defer rows.Close()

	var blackouts []models.Blackout
	for rows.Next() {
		b := models.Blackout{}
		if err := rows.Scan(&b.ID, &b.PersonID, &b.StartDate, &b.EndDate, &b.Reason, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan blackout: %w", err)
		}
		blackouts = append(blackouts, b)
	}
	return blackouts, rows.Err()
}

func (r *BlackoutRepository) Delete(id string) error {
	_, err := r.db.Exec(`DELETE FROM blackouts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete blackout: %w", err)
	}
	return nil
}
