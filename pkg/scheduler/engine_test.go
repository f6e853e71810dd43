package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/rosterforge/roster-core/pkg/availability"
	"github.com/rosterforge/roster-core/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustPerson(t *testing.T, orgID, email, name, tz string, roles []string) models.Person {
	t.Helper()
	p, err := models.NewPerson(orgID, email, name, tz, roles)
	require.NoError(t, err)
	return *p
}

func mustEvent(t *testing.T, orgID string, start, end time.Time, demand models.RoleDemand) models.Event {
	t.Helper()
	e, err := models.NewEvent(orgID, "service", start, end, demand)
	require.NoError(t, err)
	return *e
}

// TestScenarioA_SimpleAssignment mirrors spec.md Scenario A: P1 is
// assigned (lexicographic order), health_score = 1.0.
func TestScenarioA_SimpleAssignment(t *testing.T) {
	orgID := "org-1"
	p1 := mustPerson(t, orgID, "p1@example.com", "P1", "UTC", []string{"usher"})
	p2 := mustPerson(t, orgID, "p2@example.com", "P2", "UTC", []string{"usher"})
	event := mustEvent(t, orgID, time.Date(2024, 1, 7, 10, 0, 0, 0, time.UTC), time.Date(2024, 1, 7, 11, 0, 0, 0, time.UTC), models.RoleDemand{"usher": 1})

	idx := availability.Build(orgID, []models.Person{p1, p2}, nil, nil)
	solution, assignments := NewEngine().Solve(context.Background(), orgID, []models.Event{event}, idx, nil, Policy{Seed: 42})

	require.Len(t, assignments, 1)
	first, second := p1.ID, p2.ID
	if first > second {
		first, second = second, first
	}
	assert.Equal(t, first, assignments[0].PersonID, "lexicographically first capable candidate wins a tied workload")
	assert.Equal(t, 1.0, solution.HealthScore)
	assert.Equal(t, 0, solution.Metrics.Backtracks)
}

// TestScenarioB_BlackoutBlocksAssignment mirrors spec.md Scenario B.
func TestScenarioB_BlackoutBlocksAssignment(t *testing.T) {
	orgID := "org-1"
	p1 := mustPerson(t, orgID, "p1@example.com", "P1", "America/New_York", []string{"usher"})
	p2 := mustPerson(t, orgID, "p2@example.com", "P2", "America/New_York", []string{"usher"})
	blackout, err := models.NewBlackout(p1.ID, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	event := mustEvent(t, orgID, time.Date(2024, 3, 10, 14, 0, 0, 0, time.UTC), time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC), models.RoleDemand{"usher": 1})

	idx := availability.Build(orgID, []models.Person{p1, p2}, []models.Blackout{*blackout}, nil)
	solution, assignments := NewEngine().Solve(context.Background(), orgID, []models.Event{event}, idx, nil, Policy{Seed: 42})

	require.Len(t, assignments, 1)
	assert.Equal(t, p2.ID, assignments[0].PersonID)
	assert.Empty(t, solution.Metrics.UnfilledByEvent)
}

// TestScenarioC_OverDemandProducesShortage mirrors spec.md Scenario C.
func TestScenarioC_OverDemandProducesShortage(t *testing.T) {
	orgID := "org-1"
	p1 := mustPerson(t, orgID, "p1@example.com", "P1", "UTC", []string{"usher"})
	event := mustEvent(t, orgID, time.Now(), time.Now().Add(time.Hour), models.RoleDemand{"usher": 2})

	idx := availability.Build(orgID, []models.Person{p1}, nil, nil)
	solution, assignments := NewEngine().Solve(context.Background(), orgID, []models.Event{event}, idx, nil, Policy{Seed: 42})

	require.Len(t, assignments, 1)
	assert.Equal(t, p1.ID, assignments[0].PersonID)
	require.Contains(t, solution.Metrics.UnfilledByEvent, event.ID)
	assert.Equal(t, 1, solution.Metrics.UnfilledByEvent[event.ID]["usher"])
}

// TestScenarioE_NeverDoubleBooksAcrossOverlappingEvents mirrors spec.md
// Scenario E.
func TestScenarioE_NeverDoubleBooksAcrossOverlappingEvents(t *testing.T) {
	orgID := "org-1"
	p1 := mustPerson(t, orgID, "p1@example.com", "P1", "UTC", []string{"usher"})
	p2 := mustPerson(t, orgID, "p2@example.com", "P2", "UTC", []string{"usher"})
	e1 := mustEvent(t, orgID, time.Date(2024, 1, 7, 10, 0, 0, 0, time.UTC), time.Date(2024, 1, 7, 11, 0, 0, 0, time.UTC), models.RoleDemand{"usher": 1})
	e2 := mustEvent(t, orgID, time.Date(2024, 1, 7, 10, 30, 0, 0, time.UTC), time.Date(2024, 1, 7, 11, 30, 0, 0, time.UTC), models.RoleDemand{"usher": 1})

	idx := availability.Build(orgID, []models.Person{p1, p2}, nil, nil)
	_, assignments := NewEngine().Solve(context.Background(), orgID, []models.Event{e1, e2}, idx, nil, Policy{Seed: 42})

	require.Len(t, assignments, 2)
	assert.NotEqual(t, assignments[0].PersonID, assignments[1].PersonID, "the same person must never cover both overlapping events")
}

func TestDeterminism_SameInputsSameSeedProducesIdenticalOutput(t *testing.T) {
	orgID := "org-1"
	people := []models.Person{
		mustPerson(t, orgID, "a@example.com", "A", "UTC", []string{"usher", "greeter"}),
		mustPerson(t, orgID, "b@example.com", "B", "UTC", []string{"usher"}),
		mustPerson(t, orgID, "c@example.com", "C", "UTC", []string{"greeter"}),
	}
	events := []models.Event{
		mustEvent(t, orgID, time.Date(2024, 2, 4, 9, 0, 0, 0, time.UTC), time.Date(2024, 2, 4, 10, 0, 0, 0, time.UTC), models.RoleDemand{"usher": 1, "greeter": 1}),
		mustEvent(t, orgID, time.Date(2024, 2, 11, 9, 0, 0, 0, time.UTC), time.Date(2024, 2, 11, 10, 0, 0, 0, time.UTC), models.RoleDemand{"usher": 1, "greeter": 1}),
	}

	run := func() (*models.Solution, []models.Assignment) {
		idx := availability.Build(orgID, people, nil, nil)
		return NewEngine().Solve(context.Background(), orgID, events, idx, nil, Policy{Seed: 7})
	}

	sol1, assignments1 := run()
	sol2, assignments2 := run()

	assert.Equal(t, sol1.HealthScore, sol2.HealthScore)
	require.Len(t, assignments2, len(assignments1))
	for i := range assignments1 {
		assert.Equal(t, assignments1[i].PersonID, assignments2[i].PersonID)
		assert.Equal(t, assignments1[i].Role, assignments2[i].Role)
		assert.Equal(t, assignments1[i].EventID, assignments2[i].EventID)
	}
}

func TestManualAssignmentPreservedByDefault(t *testing.T) {
	orgID := "org-1"
	p1 := mustPerson(t, orgID, "p1@example.com", "P1", "America/New_York", []string{"usher"})
	p2 := mustPerson(t, orgID, "p2@example.com", "P2", "America/New_York", []string{"usher"})
	blackout, err := models.NewBlackout(p1.ID, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	event := mustEvent(t, orgID, time.Date(2024, 3, 10, 14, 0, 0, 0, time.UTC), time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC), models.RoleDemand{"usher": 1})

	idx := availability.Build(orgID, []models.Person{p1, p2}, []models.Blackout{*blackout}, nil)
	forced := []ForcedAssignment{{EventID: event.ID, PersonID: p1.ID, Role: "usher", Rebalanceable: true}}

	_, assignments := NewEngine().Solve(context.Background(), orgID, []models.Event{event}, idx, forced, Policy{Seed: 42})

	require.Len(t, assignments, 1)
	assert.Equal(t, p1.ID, assignments[0].PersonID, "rebalanceable manual assignments are still preserved unless AllowRebalancing is set")
}

func TestCancellationReturnsPartialSolution(t *testing.T) {
	orgID := "org-1"
	p1 := mustPerson(t, orgID, "p1@example.com", "P1", "UTC", []string{"usher"})
	events := []models.Event{
		mustEvent(t, orgID, time.Date(2024, 1, 7, 9, 0, 0, 0, time.UTC), time.Date(2024, 1, 7, 10, 0, 0, 0, time.UTC), models.RoleDemand{"usher": 1}),
		mustEvent(t, orgID, time.Date(2024, 1, 14, 9, 0, 0, 0, time.UTC), time.Date(2024, 1, 14, 10, 0, 0, 0, time.UTC), models.RoleDemand{"usher": 1}),
	}
	idx := availability.Build(orgID, []models.Person{p1}, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	solution, assignments := NewEngine().Solve(ctx, orgID, events, idx, nil, Policy{Seed: 1})

	assert.True(t, solution.Metrics.WasCancelled)
	assert.Empty(t, assignments)
	assert.Len(t, solution.Metrics.UnfilledByEvent, 2)
}
