package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPerson_NormalizesEmailAndDedupesRoles(t *testing.T) {
	p, err := NewPerson("org-1", "  P1@Example.COM ", "P1", "UTC", []string{"usher", "usher", "greeter"})
	require.NoError(t, err)
	assert.Equal(t, "p1@example.com", p.Email)
	assert.ElementsMatch(t, []string{"usher", "greeter"}, p.Roles)
}

func TestNewPerson_RejectsInvalidEmail(t *testing.T) {
	_, err := NewPerson("org-1", "not-an-email", "P1", "UTC", nil)
	assert.Error(t, err)
}

func TestNewPerson_RejectsUnknownTimezone(t *testing.T) {
	_, err := NewPerson("org-1", "p1@example.com", "P1", "Mars/OlympusMons", nil)
	assert.Error(t, err)
}

func TestPerson_AddAndRemoveRole(t *testing.T) {
	p, err := NewPerson("org-1", "p1@example.com", "P1", "UTC", []string{"usher"})
	require.NoError(t, err)

	p.AddRole("greeter")
	assert.True(t, p.HasRole("greeter"))

	p.RemoveRole("usher")
	assert.False(t, p.HasRole("usher"))
}

func TestPerson_Archive(t *testing.T) {
	p, err := NewPerson("org-1", "p1@example.com", "P1", "UTC", nil)
	require.NoError(t, err)

	assert.False(t, p.IsArchived)
	p.Archive()
	assert.True(t, p.IsArchived)
}

// TestLocalDate_ConvertsInstantToPersonTimezoneCalendarDate is the
// authoritative spec §3 rule: instants compare against blackout dates in
// the person's local timezone, not UTC.
func TestLocalDate_ConvertsInstantToPersonTimezoneCalendarDate(t *testing.T) {
	p, err := NewPerson("org-1", "p1@example.com", "P1", "America/New_York", nil)
	require.NoError(t, err)

	// 2024-03-10T02:00:00Z is still 2024-03-09 in America/New_York (UTC-5).
	instant := time.Date(2024, 3, 10, 2, 0, 0, 0, time.UTC)
	localDate, err := p.LocalDate(instant)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC), localDate)
}
