package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RecurringSeries anchors a repeating event pattern. The scheduler never
// operates on a series directly: it is materialized into independent
// Event occurrences (see pkg/roster.MaterializeOccurrences), and the
// series id survives on each occurrence as Event.RecurringSeriesID (spec
// §9 "Recurring events").
type RecurringSeries struct {
	ID           string     `db:"id" json:"id"`
	OrgID        string     `db:"org_id" json:"org_id"`
	Type         string     `db:"type" json:"type"`
	RRule        string     `db:"rrule" json:"rrule"` // e.g. "FREQ=WEEKLY;BYDAY=SU"
	Duration     time.Duration `db:"duration" json:"duration"`
	RoleDemand   RoleDemand `db:"role_demand" json:"role_demand"`
	SeriesAnchor time.Time  `db:"series_anchor" json:"series_anchor"`
	Location     string     `db:"location" json:"location"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}

func NewRecurringSeries(orgID, eventType, rrule string, anchor time.Time, duration time.Duration, demand RoleDemand) (*RecurringSeries, error) {
	if orgID == "" {
		return nil, fmt.Errorf("org ID is required")
	}
	if rrule == "" {
		return nil, fmt.Errorf("rrule is required")
	}
	if duration <= 0 {
		return nil, fmt.Errorf("duration must be positive")
	}
	if err := validateRoleDemand(demand); err != nil {
		return nil, err
	}

	return &RecurringSeries{
		ID:           uuid.New().String(),
		OrgID:        orgID,
		Type:         eventType,
		RRule:        rrule,
		Duration:     duration,
		RoleDemand:   demand,
		SeriesAnchor: anchor.UTC(),
		CreatedAt:    time.Now(),
	}, nil
}

// OccurrenceAt builds the materialized Event for an occurrence starting
// at the given instant. Callers may override start/end afterward to
// express a per-occurrence exception.
func (s *RecurringSeries) OccurrenceAt(start time.Time) (*Event, error) {
	event, err := NewEvent(s.OrgID, s.Type, start, start.Add(s.Duration), s.RoleDemand)
	if err != nil {
		return nil, err
	}
	event.RecurringSeriesID = &s.ID
	event.Location = s.Location
	return event, nil
}
