package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent_RejectsNonPositiveWindow(t *testing.T) {
	start := time.Now()
	_, err := NewEvent("org-1", "service", start, start, RoleDemand{"usher": 1})
	assert.Error(t, err)
}

func TestNewEvent_RejectsNonPositiveRoleDemand(t *testing.T) {
	start := time.Now()
	_, err := NewEvent("org-1", "service", start, start.Add(time.Hour), RoleDemand{"usher": 0})
	assert.Error(t, err)
}

func TestEvent_EmptyRoleDemandIsValid(t *testing.T) {
	start := time.Now()
	event, err := NewEvent("org-1", "fellowship", start, start.Add(time.Hour), RoleDemand{})
	require.NoError(t, err)
	assert.NoError(t, event.Validate())
	assert.Equal(t, 0, event.TotalDemand())
}

func TestEvent_RolesAreSorted(t *testing.T) {
	start := time.Now()
	event, err := NewEvent("org-1", "service", start, start.Add(time.Hour), RoleDemand{"usher": 1, "greeter": 2, "audio": 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"audio", "greeter", "usher"}, event.Roles())
	assert.Equal(t, 4, event.TotalDemand())
}

func TestOverlapsHalfOpen(t *testing.T) {
	base := time.Date(2024, 1, 7, 10, 0, 0, 0, time.UTC)
	e1, err := NewEvent("org-1", "service", base, base.Add(time.Hour), nil)
	require.NoError(t, err)
	touching, err := NewEvent("org-1", "service", base.Add(time.Hour), base.Add(2*time.Hour), nil)
	require.NoError(t, err)
	overlapping, err := NewEvent("org-1", "service", base.Add(30*time.Minute), base.Add(90*time.Minute), nil)
	require.NoError(t, err)

	assert.False(t, e1.OverlapsHalfOpen(touching), "half-open ranges that merely touch at the boundary do not overlap")
	assert.True(t, e1.OverlapsHalfOpen(overlapping))
}

func TestIsRecurringOccurrence(t *testing.T) {
	start := time.Now()
	event, err := NewEvent("org-1", "service", start, start.Add(time.Hour), nil)
	require.NoError(t, err)
	assert.False(t, event.IsRecurringOccurrence())

	seriesID := "series-1"
	event.RecurringSeriesID = &seriesID
	assert.True(t, event.IsRecurringOccurrence())
}
