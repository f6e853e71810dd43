package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/rosterforge/roster-core/pkg/models"
)

// OrganizationRepository handles organization data persistence.
type OrganizationRepository struct {
	db *DB
}

func NewOrganizationRepository(db *DB) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

func (r *OrganizationRepository) Create(org *models.Organization) error {
	if org.ID == "" {
		return fmt.Errorf("organization ID cannot be empty")
	}
	if err := org.Validate(); err != nil {
		return fmt.Errorf("organization validation failed: %w", err)
	}

	knownRoles, err := json.Marshal(org.KnownRoles)
	if err != nil {
		return fmt.Errorf("failed to marshal known roles: %w", err)
	}

	query := `
		INSERT INTO organizations (id, name, timezone, known_roles, config, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err = r.db.Exec(query, org.ID, org.Name, org.Timezone, string(knownRoles), string(org.Config), org.CreatedAt, org.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create organization: %w", err)
	}
	return nil
}

func (r *OrganizationRepository) GetByID(id string) (*models.Organization, error) {
	if id == "" {
		return nil, fmt.Errorf("organization ID cannot be empty")
	}

	query := `
		SELECT id, name, timezone, known_roles, config, created_at, updated_at
		FROM organizations WHERE id = ?`

	org := &models.Organization{}
	var knownRoles, config string

	err := r.db.QueryRow(query, id).Scan(&org.ID, &org.Name, &org.Timezone, &knownRoles, &config, &org.CreatedAt, &org.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}

	if err := json.Unmarshal([]byte(knownRoles), &org.KnownRoles); err != nil {
		return nil, fmt.Errorf("failed to unmarshal known roles: %w", err)
	}
	org.Config = json.RawMessage(config)
	return org, nil
}

func (r *OrganizationRepository) Update(org *models.Organization) error {
	if err := org.Validate(); err != nil {
		return fmt.Errorf("organization validation failed: %w", err)
	}

	knownRoles, err := json.Marshal(org.KnownRoles)
	if err != nil {
		return fmt.Errorf("failed to marshal known roles: %w", err)
	}

	query := `
		UPDATE organizations SET name = ?, timezone = ?, known_roles = ?, config = ?, updated_at = ?
		WHERE id = ?`

	result, err := r.db.Exec(query, org.Name, org.Timezone, string(knownRoles), string(org.Config), org.UpdatedAt, org.ID)
	if err != nil {
		return fmt.Errorf("failed to update organization: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("organization not found: %s", org.ID)
	}
	return nil
}
