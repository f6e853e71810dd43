package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOrganization_RejectsMissingName(t *testing.T) {
	_, err := NewOrganization("", "UTC")
	assert.Error(t, err)
}

func TestNewOrganization_RejectsUnknownTimezone(t *testing.T) {
	_, err := NewOrganization("Grace Church", "Not/A_Zone")
	assert.Error(t, err)
}

func TestSetConfig_RejectsUnknownTopLevelKey(t *testing.T) {
	org, err := NewOrganization("Grace Church", "America/New_York")
	require.NoError(t, err)

	err = org.SetConfig([]byte(`{"typo_field": true}`))
	assert.Error(t, err)
}

func TestSetConfig_AcceptsKnownKeys(t *testing.T) {
	org, err := NewOrganization("Grace Church", "America/New_York")
	require.NoError(t, err)

	err = org.SetConfig([]byte(`{"solver": {"time_budget_ms": 3000}, "default_timezone": "UTC"}`))
	assert.NoError(t, err)
}

func TestHasKnownRole(t *testing.T) {
	org, err := NewOrganization("Grace Church", "UTC")
	require.NoError(t, err)
	org.KnownRoles = []string{"usher", "greeter"}

	assert.True(t, org.HasKnownRole("usher"))
	assert.False(t, org.HasKnownRole("soundboard"))
}
