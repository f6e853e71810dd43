package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRecurringSeries_RejectsNonPositiveDuration(t *testing.T) {
	_, err := NewRecurringSeries("org-1", "service", "FREQ=WEEKLY;BYDAY=SU", time.Now(), 0, RoleDemand{"usher": 1})
	assert.Error(t, err)
}

func TestOccurrenceAt_InheritsSeriesFields(t *testing.T) {
	anchor := time.Date(2024, 1, 7, 10, 0, 0, 0, time.UTC)
	series, err := NewRecurringSeries("org-1", "service", "FREQ=WEEKLY;BYDAY=SU", anchor, time.Hour, RoleDemand{"usher": 1})
	require.NoError(t, err)
	series.Location = "Main Hall"

	occurrence, err := series.OccurrenceAt(anchor.AddDate(0, 0, 7))
	require.NoError(t, err)

	assert.Equal(t, "Main Hall", occurrence.Location)
	assert.Equal(t, series.ID, *occurrence.RecurringSeriesID)
	assert.Equal(t, anchor.AddDate(0, 0, 7).Add(time.Hour), occurrence.EndTime)
}
