package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Blackout is a calendar-date range (no time component) during which a
// person is unavailable. Dates are interpreted in the person's timezone
// when compared against an event's instant (spec §3).
type Blackout struct {
	ID        string    `db:"id" json:"id"`
	PersonID  string    `db:"person_id" json:"person_id"`
	StartDate time.Time `db:"start_date" json:"start_date"` // date-only, UTC midnight
	EndDate   time.Time `db:"end_date" json:"end_date"`     // date-only, UTC midnight
	Reason    *string   `db:"reason" json:"reason"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

func NewBlackout(personID string, startDate, endDate time.Time) (*Blackout, error) {
	if personID == "" {
		return nil, fmt.Errorf("person ID is required")
	}
	start := toCalendarDate(startDate)
	end := toCalendarDate(endDate)
	if end.Before(start) {
		return nil, fmt.Errorf("end_date must be on or after start_date")
	}

	return &Blackout{
		ID:        uuid.New().String(),
		PersonID:  personID,
		StartDate: start,
		EndDate:   end,
		CreatedAt: time.Now(),
	}, nil
}

func toCalendarDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// CoversLocalDate reports whether the inclusive [start_date, end_date]
// range contains the given (already timezone-localized) calendar date.
func (b *Blackout) CoversLocalDate(localDate time.Time) bool {
	d := toCalendarDate(localDate)
	return !d.Before(b.StartDate) && !d.After(b.EndDate)
}

func (b *Blackout) Validate() error {
	if b.PersonID == "" {
		return fmt.Errorf("person ID is required")
	}
	if b.EndDate.Before(b.StartDate) {
		return fmt.Errorf("end_date must be on or after start_date")
	}
	return nil
}
