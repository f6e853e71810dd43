package storage

import (
	"database/sql"
	"fmt"

	"github.com/rosterforge/roster-core/pkg/models"
)

// CalendarTokenRepository handles calendar token persistence: the
// hashed-only half of spec §4.6's token lifecycle.
type CalendarTokenRepository struct {
	db *DB
}

func NewCalendarTokenRepository(db *DB) *CalendarTokenRepository {
	return &CalendarTokenRepository{db: db}
}

func (r *CalendarTokenRepository) GetByHash(hash []byte) (*models.CalendarToken, error) {
	query := `SELECT token_hash, person_id, created_at, retired_at, served_once FROM calendar_tokens WHERE token_hash = ?`

	t := &models.CalendarToken{}
	err := r.db.QueryRow(query, hash).Scan(&t.TokenHash, &t.PersonID, &t.CreatedAt, &t.RetiredAt, &t.ServedOnce)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get calendar token: %w", err)
	}
	return t, nil
}

func (r *CalendarTokenRepository) Create(token models.CalendarToken) error {
	query := `INSERT INTO calendar_tokens (token_hash, person_id, created_at, retired_at, served_once) VALUES (?, ?, ?, ?, ?)`
	_, err := r.db.Exec(query, token.TokenHash, token.PersonID, token.CreatedAt, token.RetiredAt, token.ServedOnce)
	if err != nil {
		return fmt.Errorf("failed to create calendar token: %w", err)
	}
	return nil
}

func (r *CalendarTokenRepository) MarkServedOnce(personID string) error {
	query := `UPDATE calendar_tokens SET served_once = 1 WHERE person_id = ? AND retired_at IS NOT NULL AND served_once = 0`
	_, err := r.db.Exec(query, personID)
	if err != nil {
		return fmt.Errorf("failed to mark calendar token served: %w", err)
	}
	return nil
}

func (r *CalendarTokenRepository) RetireAllForPerson(personID string) error {
	query := `UPDATE calendar_tokens SET retired_at = CURRENT_TIMESTAMP WHERE person_id = ? AND retired_at IS NULL`
	_, err := r.db.Exec(query, personID)
	if err != nil {
		return fmt.Errorf("failed to retire calendar tokens: %w", err)
	}
	return nil
}
