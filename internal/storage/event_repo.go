package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/rosterforge/roster-core/pkg/models"
	"github.com/rosterforge/roster-core/pkg/roster"
)

// EventRepository handles event data persistence.
type EventRepository struct {
	db *DB
}

func NewEventRepository(db *DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) Create(event *models.Event) error {
	if event.ID == "" {
		return fmt.Errorf("event ID cannot be empty")
	}
	if err := event.Validate(); err != nil {
		return fmt.Errorf("event validation failed: %w", err)
	}

	roleDemand, err := json.Marshal(event.RoleDemand)
	if err != nil {
		return fmt.Errorf("failed to marshal role demand: %w", err)
	}

	query := `
		INSERT INTO events (
			id, org_id, start_time, end_time, type, role_demand,
			recurring_series_id, exception_of, location, created_at, updated_at, is_valid
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = r.db.Exec(query, event.ID, event.OrgID, event.StartTime, event.EndTime, event.Type,
		string(roleDemand), event.RecurringSeriesID, event.ExceptionOf, event.Location,
		event.CreatedAt, event.UpdatedAt, true)
	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}
	return nil
}

func (r *EventRepository) GetByID(id string) (*models.Event, error) {
	query := `
		SELECT id, org_id, start_time, end_time, type, role_demand,
		       recurring_series_id, exception_of, location, created_at, updated_at
		FROM events WHERE id = ?`

	e := &models.Event{}
	var roleDemand string

	err := r.db.QueryRow(query, id).Scan(&e.ID, &e.OrgID, &e.StartTime, &e.EndTime, &e.Type, &roleDemand,
		&e.RecurringSeriesID, &e.ExceptionOf, &e.Location, &e.CreatedAt, &e.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if err := json.Unmarshal([]byte(roleDemand), &e.RoleDemand); err != nil {
		return nil, fmt.Errorf("failed to unmarshal role demand: %w", err)
	}
	return e, nil
}

// ListByWindow lists events for an org whose [start_time, end_time)
// overlaps window. A zero-value window (both times unset) lists all
// events for the org, used by CalendarFeed's full-feed regeneration.
func (r *EventRepository) ListByWindow(orgID string, window roster.Window) ([]models.Event, error) {
	query := `
		SELECT id, org_id, start_time, end_time, type, role_demand,
		       recurring_series_id, exception_of, location, created_at, updated_at
		FROM events WHERE org_id = ?`
	args := []interface{}{orgID}

	if !window.Start.IsZero() || !window.End.IsZero() {
		query += ` AND start_time < ? AND end_time > ?`
		args = append(args, window.End, window.Start)
	}
	query += ` ORDER BY start_time`

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		e := models.Event{}
		var roleDemand string
		if err := rows.Scan(&e.ID, &e.OrgID, &e.StartTime, &e.EndTime, &e.Type, &roleDemand,
			&e.RecurringSeriesID, &e.ExceptionOf, &e.Location, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		if err := json.Unmarshal([]byte(roleDemand), &e.RoleDemand); err != nil {
			return nil, fmt.Errorf("failed to unmarshal role demand: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *EventRepository) SetValid(eventID string, isValid bool) error {
	result, err := r.db.Exec(`UPDATE events SET is_valid = ? WHERE id = ?`, isValid, eventID)
	if err != nil {
		return fmt.Errorf("failed to update event validity: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("event not found: %s", eventID)
	}
	return nil
}
