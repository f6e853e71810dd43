package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBlackout_RejectsEndBeforeStart(t *testing.T) {
	start := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, -1)
	_, err := NewBlackout("person-1", start, end)
	assert.Error(t, err)
}

func TestNewBlackout_NormalizesToDateOnly(t *testing.T) {
	start := time.Date(2024, 3, 10, 13, 45, 0, 0, time.UTC)
	b, err := NewBlackout("person-1", start, start)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), b.StartDate)
}

// TestBlackoutBoundary_InclusiveOnBothEnds covers spec §8's boundary
// behaviors: a blackout starting or ending on the same local date as an
// event is blocked.
func TestBlackoutBoundary_InclusiveOnBothEnds(t *testing.T) {
	b, err := NewBlackout("person-1", time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.True(t, b.CoversLocalDate(time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)), "start date is inclusive")
	assert.True(t, b.CoversLocalDate(time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC)), "end date is inclusive")
	assert.False(t, b.CoversLocalDate(time.Date(2024, 3, 13, 0, 0, 0, 0, time.UTC)))
	assert.False(t, b.CoversLocalDate(time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)))
}
