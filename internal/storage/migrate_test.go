package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigratorUp(t *testing.T) {
	db, err := NewDB(Config{InMemory: true})
	require.NoError(t, err)
	defer db.Close()

	migrator := NewMigrator(db, "migrations")
	require.NoError(t, migrator.Up())

	expectedTables := []string{
		"organizations", "people", "teams", "recurring_series",
		"events", "blackouts", "solutions", "assignments", "calendar_tokens",
	}
	for _, tableName := range expectedTables {
		var exists bool
		err := db.QueryRow(
			`SELECT EXISTS(SELECT 1 FROM sqlite_master WHERE type='table' AND name=?)`, tableName,
		).Scan(&exists)
		require.NoError(t, err)
		assert.True(t, exists, "table %s should exist after migration", tableName)
	}

	var version int
	err = db.QueryRow(`SELECT MAX(id) FROM migrations`).Scan(&version)
	require.NoError(t, err)
	assert.Greater(t, version, 0, "migration id should be tracked")
}

func TestMigratorUpIsIdempotent(t *testing.T) {
	db, err := NewDB(Config{InMemory: true})
	require.NoError(t, err)
	defer db.Close()

	migrator := NewMigrator(db, "migrations")
	require.NoError(t, migrator.Up())
	require.NoError(t, migrator.Up(), "running Up twice must not reapply an already-applied migration")
}
