package validation

import (
	"testing"
	"time"

	"github.com/rosterforge/roster-core/pkg/availability"
	"github.com/rosterforge/roster-core/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenarioC_OverDemandIsShortageNotError(t *testing.T) {
	orgID := "org-1"
	p1, err := models.NewPerson(orgID, "p1@example.com", "P1", "UTC", []string{"usher"})
	require.NoError(t, err)

	event, err := models.NewEvent(orgID, "service", time.Now(), time.Now().Add(time.Hour), models.RoleDemand{"usher": 2})
	require.NoError(t, err)

	idx := availability.Build(orgID, []models.Person{*p1}, nil, nil)
	assignment := models.NewSolverAssignment("sol-1", event.ID, p1.ID, "usher")

	report := NewEngine().Validate(event, []models.Assignment{*assignment}, idx)

	assert.False(t, report.IsValid)
	require.Len(t, report.Warnings, 1)
	assert.Equal(t, WarningShortage, report.Warnings[0].Kind)
	assert.Equal(t, "usher", report.Warnings[0].Role)
}

func TestScenarioD_ManualOverrideOfBlockedPersonSurfacesWarningButPersists(t *testing.T) {
	orgID := "org-1"
	p1, err := models.NewPerson(orgID, "p1@example.com", "P1", "America/New_York", []string{"usher"})
	require.NoError(t, err)

	blackout, err := models.NewBlackout(p1.ID, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	event, err := models.NewEvent(orgID, "service", time.Date(2024, 3, 10, 14, 0, 0, 0, time.UTC), time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC), models.RoleDemand{"usher": 1})
	require.NoError(t, err)

	idx := availability.Build(orgID, []models.Person{*p1}, []models.Blackout{*blackout}, nil)
	assignment := models.NewManualAssignment(event.ID, p1.ID, "usher")

	report := NewEngine().Validate(event, []models.Assignment{*assignment}, idx)

	assert.False(t, report.IsValid)
	require.Len(t, report.BlockedAssignments, 1)
	assert.Equal(t, availability.ReasonBlackout, report.BlockedAssignments[0].Reason)
	assert.Equal(t, p1.ID, report.BlockedAssignments[0].PersonID)
}

func TestEmptyRoleDemandIsTriviallyValid(t *testing.T) {
	event, err := models.NewEvent("org-1", "service", time.Now(), time.Now().Add(time.Hour), models.RoleDemand{})
	require.NoError(t, err)
	idx := availability.Build("org-1", nil, nil, nil)

	report := NewEngine().Validate(event, nil, idx)

	assert.True(t, report.IsValid)
	assert.Empty(t, report.Warnings)
}

func TestExclusivityH5_SamePersonTwoRolesIsInvalid(t *testing.T) {
	orgID := "org-1"
	p1, err := models.NewPerson(orgID, "p1@example.com", "P1", "UTC", []string{"usher", "greeter"})
	require.NoError(t, err)
	event, err := models.NewEvent(orgID, "service", time.Now(), time.Now().Add(time.Hour), models.RoleDemand{"usher": 1, "greeter": 1})
	require.NoError(t, err)

	idx := availability.Build(orgID, []models.Person{*p1}, nil, nil)
	assignments := []models.Assignment{
		*models.NewSolverAssignment("sol-1", event.ID, p1.ID, "usher"),
		*models.NewSolverAssignment("sol-1", event.ID, p1.ID, "greeter"),
	}

	report := NewEngine().Validate(event, assignments, idx)

	assert.False(t, report.IsValid)
}

func TestMissingRoleWarnsUnlessOverridden(t *testing.T) {
	orgID := "org-1"
	p1, err := models.NewPerson(orgID, "p1@example.com", "P1", "UTC", []string{"greeter"})
	require.NoError(t, err)
	event, err := models.NewEvent(orgID, "service", time.Now(), time.Now().Add(time.Hour), models.RoleDemand{"usher": 1})
	require.NoError(t, err)
	idx := availability.Build(orgID, []models.Person{*p1}, nil, nil)

	withoutOverride := models.NewManualAssignment(event.ID, p1.ID, "usher")
	report := NewEngine().Validate(event, []models.Assignment{*withoutOverride}, idx)
	assert.False(t, report.IsValid)

	withOverride := models.NewManualAssignment(event.ID, p1.ID, "usher")
	withOverride.OverrideRoleCheck = true
	report = NewEngine().Validate(event, []models.Assignment{*withOverride}, idx)
	assert.True(t, report.IsValid, "demand is filled and the role check was explicitly overridden")
	for _, w := range report.Warnings {
		assert.NotEqual(t, WarningMissingRole, w.Kind)
	}
}
