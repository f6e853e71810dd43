package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/rosterforge/roster-core/pkg/models"
)

// PersonRepository handles person (volunteer) data persistence.
type PersonRepository struct {
	db *DB
}

func NewPersonRepository(db *DB) *PersonRepository {
	return &PersonRepository{db: db}
}

func (r *PersonRepository) Create(person *models.Person) error {
	if person.ID == "" {
		return fmt.Errorf("person ID cannot be empty")
	}
	if err := person.Validate(); err != nil {
		return fmt.Errorf("person validation failed: %w", err)
	}

	roles, err := json.Marshal(person.Roles)
	if err != nil {
		return fmt.Errorf("failed to marshal roles: %w", err)
	}

	query := `
		INSERT INTO people (id, org_id, email, name, roles, timezone, language, is_archived, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = r.db.Exec(query, person.ID, person.OrgID, person.Email, person.Name, string(roles),
		person.Timezone, person.Language, person.IsArchived, person.CreatedAt, person.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create person: %w", err)
	}
	return nil
}

func (r *PersonRepository) GetByID(id string) (*models.Person, error) {
	query := `
		SELECT id, org_id, email, name, roles, timezone, language, is_archived, created_at, updated_at
		FROM people WHERE id = ?`
	return r.scanOne(r.db.QueryRow(query, id))
}

func (r *PersonRepository) ListByOrg(orgID string) ([]models.Person, error) {
	query := `
		SELECT id, org_id, email, name, roles, timezone, language, is_archived, created_at, updated_at
		FROM people WHERE org_id = ? ORDER BY name`

	rows, err := r.db.Query(query, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list people: %w", err)
	}
	defer rows.Close()

	var people []models.Person
	for rows.Next() {
		p, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		people = append(people, *p)
	}
	return people, rows.Err()
}

func (r *PersonRepository) Update(person *models.Person) error {
	roles, err := json.Marshal(person.Roles)
	if err != nil {
		return fmt.Errorf("failed to marshal roles: %w", err)
	}

	query := `
		UPDATE people SET email = ?, name = ?, roles = ?, timezone = ?, language = ?, is_archived = ?, updated_at = ?
		WHERE id = ?`

	result, err := r.db.Exec(query, person.Email, person.Name, string(roles), person.Timezone,
		person.Language, person.IsArchived, person.UpdatedAt, person.ID)
	if err != nil {
		return fmt.Errorf("failed to update person: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("person not found: %s", person.ID)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *PersonRepository) scanOne(row *sql.Row) (*models.Person, error) {
	p, err := r.scanRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

func (r *PersonRepository) scanRow(row rowScanner) (*models.Person, error) {
	p := &models.Person{}
	var roles string

	err := row.Scan(&p.ID, &p.OrgID, &p.Email, &p.Name, &roles, &p.Timezone, &p.Language, &p.IsArchived, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to scan person: %w", err)
	}
	if err := json.Unmarshal([]byte(roles), &p.Roles); err != nil {
		return nil, fmt.Errorf("failed to unmarshal roles: %w", err)
	}
	return p, nil
}
