package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_FileDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cache.db")

	db, err := New(Config{Path: path, Profile: ProfileCache, Name: "cache"})
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, path, db.Path())
	assert.Equal(t, ProfileCache, db.Profile())
	assert.Equal(t, "cache", db.Name())
	assert.NoError(t, db.QuickCheck(context.Background()))
}

func TestMigrate_Idempotent(t *testing.T) {
	db, err := New(Config{Path: filepath.Join(t.TempDir(), "cache.db"), Name: "cache"})
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Migrate())
	require.NoError(t, db.Migrate())

	var count int
	err = db.Conn().QueryRow("SELECT COUNT(*) FROM price_history").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestBuildConnectionString(t *testing.T) {
	s := buildConnectionString("/tmp/x.db", ProfileCache)
	assert.Contains(t, s, "/tmp/x.db?_pragma=journal_mode(WAL)")
	assert.Contains(t, s, "synchronous(OFF)")

	s = buildConnectionString("file:memdb?mode=memory&cache=shared", ProfileStandard)
	assert.Contains(t, s, "cache=shared&_pragma=journal_mode(WAL)")
	assert.Contains(t, s, "synchronous(NORMAL)")
}

func TestWALCheckpoint_RejectsUnknownMode(t *testing.T) {
	db, err := New(Config{Path: filepath.Join(t.TempDir(), "cache.db"), Name: "cache"})
	require.NoError(t, err)
	defer db.Close()

	assert.NoError(t, db.WALCheckpoint(""))
	assert.Error(t, db.WALCheckpoint("DROP"))
}
