package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rosterforge/roster-core/pkg/models"
	"github.com/rosterforge/roster-core/pkg/roster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestRepo mirrors the teacher's in-memory database_test.go setup:
// open sqlite, run every migration, wire a Repo on top.
func newTestRepo(t *testing.T) *Repo {
	t.Helper()
	db, err := NewDB(Config{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	migrator := NewMigrator(db, "migrations")
	require.NoError(t, migrator.Up())

	return NewRepo(db)
}

func seedOrg(t *testing.T, repo *Repo) *models.Organization {
	t.Helper()
	org, err := models.NewOrganization("Riverside Church", "America/New_York")
	require.NoError(t, err)
	require.NoError(t, repo.Orgs.Create(org))
	return org
}

func seedPerson(t *testing.T, repo *Repo, orgID string, roles ...string) *models.Person {
	t.Helper()
	person, err := models.NewPerson(orgID, "jo@example.com", "Jo Lee", "America/New_York", roles)
	require.NoError(t, err)
	require.NoError(t, repo.People.Create(person))
	return person
}

func seedEvent(t *testing.T, repo *Repo, orgID string, demand models.RoleDemand) *models.Event {
	t.Helper()
	start := time.Now().Add(24 * time.Hour).UTC().Truncate(time.Second)
	event, err := models.NewEvent(orgID, "service", start, start.Add(90*time.Minute), demand)
	require.NoError(t, err)
	require.NoError(t, repo.Events.Create(event))
	return event
}

func TestRepoOrganizationRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	org := seedOrg(t, repo)

	fetched, err := repo.GetOrganization(org.ID)
	require.NoError(t, err)
	require.NotNil(t, fetched)
	assert.Equal(t, org.Name, fetched.Name)
	assert.Equal(t, org.Timezone, fetched.Timezone)

	missing, err := repo.GetOrganization("does-not-exist")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRepoPersonListByOrg(t *testing.T) {
	repo := newTestRepo(t)
	org := seedOrg(t, repo)
	p1 := seedPerson(t, repo, org.ID, "usher")
	_ = p1

	other, err := models.NewPerson(org.ID, "al@example.com", "Al Cho", "America/New_York", []string{"greeter"})
	require.NoError(t, err)
	require.NoError(t, repo.People.Create(other))

	people, err := repo.ListPeople(org.ID)
	require.NoError(t, err)
	assert.Len(t, people, 2)
}

func TestRepoEventAndAssignment(t *testing.T) {
	repo := newTestRepo(t)
	org := seedOrg(t, repo)
	person := seedPerson(t, repo, org.ID, "usher")
	event := seedEvent(t, repo, org.ID, models.RoleDemand{"usher": 1})

	assignment := models.NewManualAssignment(event.ID, person.ID, "usher")
	require.NoError(t, repo.CreateAssignment(*assignment))

	fetched, err := repo.ListAssignmentsForEvent(event.ID)
	require.NoError(t, err)
	require.Len(t, fetched, 1)
	assert.True(t, fetched[0].IsManual)
	assert.Equal(t, person.ID, fetched[0].PersonID)

	err = repo.DeleteAssignment(fetched[0].ID)
	require.NoError(t, err)

	remaining, err := repo.ListAssignmentsForEvent(event.ID)
	require.NoError(t, err)
	assert.Len(t, remaining, 0)
}

func TestRepoAssignmentDuplicateBindingIsConflict(t *testing.T) {
	repo := newTestRepo(t)
	org := seedOrg(t, repo)
	person := seedPerson(t, repo, org.ID, "usher")
	event := seedEvent(t, repo, org.ID, models.RoleDemand{"usher": 1})

	first := models.NewManualAssignment(event.ID, person.ID, "usher")
	require.NoError(t, repo.CreateAssignment(*first))

	second := models.NewManualAssignment(event.ID, person.ID, "usher")
	err := repo.CreateAssignment(*second)
	assert.Error(t, err, "duplicate (event, person, role) binding must be rejected")
}

func TestRepoListAssignmentsByWindow(t *testing.T) {
	repo := newTestRepo(t)
	org := seedOrg(t, repo)
	person := seedPerson(t, repo, org.ID, "usher")
	event := seedEvent(t, repo, org.ID, models.RoleDemand{"usher": 1})

	assignment := models.NewManualAssignment(event.ID, person.ID, "usher")
	require.NoError(t, repo.CreateAssignment(*assignment))

	window := roster.Window{
		Start: event.StartTime.Add(-time.Hour),
		End:   event.EndTime.Add(time.Hour),
	}
	inWindow, err := repo.ListAssignments(org.ID, window)
	require.NoError(t, err)
	assert.Len(t, inWindow, 1)

	outOfWindow := roster.Window{
		Start: event.EndTime.Add(24 * time.Hour),
		End:   event.EndTime.Add(48 * time.Hour),
	}
	none, err := repo.ListAssignments(org.ID, outOfWindow)
	require.NoError(t, err)
	assert.Len(t, none, 0)
}

func TestRepoSaveSolutionSupersedesPrevious(t *testing.T) {
	repo := newTestRepo(t)
	org := seedOrg(t, repo)
	person := seedPerson(t, repo, org.ID, "usher")
	event := seedEvent(t, repo, org.ID, models.RoleDemand{"usher": 1})

	first := models.NewSolution(org.ID, 1)
	firstAssignment := *models.NewSolverAssignment(first.ID, event.ID, person.ID, "usher")
	require.NoError(t, repo.SaveSolution(*first, []models.Assignment{firstAssignment}))

	second := models.NewSolution(org.ID, 2)
	secondAssignment := *models.NewSolverAssignment(second.ID, event.ID, person.ID, "usher")
	require.NoError(t, repo.SaveSolution(*second, []models.Assignment{secondAssignment}))

	solutions, err := repo.Solutions.ListByOrg(org.ID)
	require.NoError(t, err)
	require.Len(t, solutions, 2)

	byID := map[string]models.Solution{}
	for _, s := range solutions {
		byID[s.ID] = s
	}
	assert.False(t, byID[first.ID].Published, "superseded solution must be unpublished")
	require.NotNil(t, byID[first.ID].SupersededBy)
	assert.Equal(t, second.ID, *byID[first.ID].SupersededBy)
	assert.True(t, byID[second.ID].Published)
}

func TestRepoBlackoutListByOrg(t *testing.T) {
	repo := newTestRepo(t)
	org := seedOrg(t, repo)
	person := seedPerson(t, repo, org.ID, "usher")

	start := time.Now().UTC()
	blackout, err := models.NewBlackout(person.ID, start, start.Add(48*time.Hour))
	require.NoError(t, err)
	require.NoError(t, repo.Blackouts.Create(blackout))

	blackouts, err := repo.ListBlackouts(org.ID)
	require.NoError(t, err)
	require.Len(t, blackouts, 1)
	assert.Equal(t, person.ID, blackouts[0].PersonID)
}

func TestRepoCalendarTokenLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	org := seedOrg(t, repo)
	person := seedPerson(t, repo, org.ID, "usher")

	token := models.CalendarToken{
		TokenHash: []byte("a-fixed-test-hash"),
		PersonID:  person.ID,
		CreatedAt: time.Now(),
	}
	require.NoError(t, repo.CreateToken(token))

	fetched, err := repo.GetTokenByHash(token.TokenHash)
	require.NoError(t, err)
	require.NotNil(t, fetched)
	assert.False(t, fetched.IsRetired(), "freshly issued token must not be retired")

	require.NoError(t, repo.RetireAllTokensForPerson(person.ID))
	afterRetire, err := repo.GetTokenByHash(token.TokenHash)
	require.NoError(t, err)
	require.NotNil(t, afterRetire)
	assert.True(t, afterRetire.IsRetired())
	assert.False(t, afterRetire.ServedOnce)

	require.NoError(t, repo.MarkTokenServedOnce(person.ID))
	servedOnce, err := repo.GetTokenByHash(token.TokenHash)
	require.NoError(t, err)
	require.NotNil(t, servedOnce)
	assert.True(t, servedOnce.ServedOnce)
}

// TestRepoFileDatabasePersistence mirrors the teacher's file-backed
// database_test.go case: data written before a close must still be
// readable after the database file is reopened.
func TestRepoFileDatabasePersistence(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "roster_test.db")

	db, err := NewDB(Config{Path: dbPath})
	require.NoError(t, err)

	migrator := NewMigrator(db, "migrations")
	require.NoError(t, migrator.Up())

	repo := NewRepo(db)
	org := seedOrg(t, repo)
	require.NoError(t, db.Close())

	_, err = os.Stat(dbPath)
	require.NoError(t, err)

	db2, err := NewDB(Config{Path: dbPath})
	require.NoError(t, err)
	defer db2.Close()

	repo2 := NewRepo(db2)
	fetched, err := repo2.GetOrganization(org.ID)
	require.NoError(t, err)
	require.NotNil(t, fetched, "organization should persist after reopening the database file")
	assert.Equal(t, org.Name, fetched.Name)
}
