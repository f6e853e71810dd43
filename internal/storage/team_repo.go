package storage

import (
	"encoding/json"
	"fmt"

	"github.com/rosterforge/roster-core/pkg/models"
)

// TeamRepository handles team data persistence.
type TeamRepository struct {
	db *DB
}

func NewTeamRepository(db *DB) *TeamRepository {
	return &TeamRepository{db: db}
}

func (r *TeamRepository) Create(team *models.Team) error {
	if team.ID == "" {
		return fmt.Errorf("team ID cannot be empty")
	}
	if err := team.Validate(); err != nil {
		return fmt.Errorf("team validation failed: %w", err)
	}

	memberIDs, err := json.Marshal(team.MemberIDs)
	if err != nil {
		return fmt.Errorf("failed to marshal member ids: %w", err)
	}

	query := `
		INSERT INTO teams (id, org_id, name, member_ids, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	_, err = r.db.Exec(query, team.ID, team.OrgID, team.Name, string(memberIDs), team.CreatedAt, team.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create team: %w", err)
	}
	return nil
}

func (r *TeamRepository) ListByOrg(orgID string) ([]models.Team, error) {
	query := `
		SELECT id, org_id, name, member_ids, created_at, updated_at
		FROM teams WHERE org_id = ? ORDER BY name`

	rows, err := r.db.Query(query, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	defer rows.Close()

	var teams []models.Team
	for rows.Next() {
		t := models.Team{}
		var memberIDs string
		if err := rows.Scan(&t.ID, &t.OrgID, &t.Name, &memberIDs, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan team: %w", err)
		}
		if err := json.Unmarshal([]byte(memberIDs), &t.MemberIDs); err != nil {
			return nil, fmt.Errorf("failed to unmarshal member ids: %w", err)
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}

func (r *TeamRepository) Update(team *models.Team) error {
	memberIDs, err := json.Marshal(team.MemberIDs)
	if err != nil {
		return fmt.Errorf("failed to marshal member ids: %w", err)
	}

	query := `UPDATE teams SET name = ?, member_ids = ?, updated_at = ? WHERE id = ?`
	result, err := r.db.Exec(query, team.Name, string(memberIDs), team.UpdatedAt, team.ID)
	if err != nil {
		return fmt.Errorf("failed to update team: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("team not found: %s", team.ID)
	}
	return nil
}
