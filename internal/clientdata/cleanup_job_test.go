package clientdata

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanupJobName(t *testing.T) {
	job := NewCleanupJob(setupTestRepo(t), nil, zerolog.Nop())
	assert.Equal(t, "price_history_cleanup", job.Name())
}

func TestCleanupJobRun(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Store(ctx, "expired", "A", testBars(), -time.Hour))
	require.NoError(t, repo.Store(ctx, "fresh", "B", testBars(), time.Hour))

	job := NewCleanupJob(repo, nil, zerolog.Nop())
	require.NoError(t, job.Run())

	expired, err := repo.Get(ctx, "expired")
	require.NoError(t, err)
	assert.Nil(t, expired)

	fresh, err := repo.Get(ctx, "fresh")
	require.NoError(t, err)
	assert.NotNil(t, fresh)
}

func TestCleanupJobRun_Empty(t *testing.T) {
	job := NewCleanupJob(setupTestRepo(t), nil, zerolog.Nop())
	assert.NoError(t, job.Run())
}

type recordingCheckpointer struct {
	modes []string
}

func (c *recordingCheckpointer) WALCheckpoint(mode string) error {
	c.modes = append(c.modes, mode)
	return nil
}

func TestCleanupJobRun_CheckpointsOnlyAfterDeletes(t *testing.T) {
	repo := setupTestRepo(t)
	wal := &recordingCheckpointer{}
	job := NewCleanupJob(repo, wal, zerolog.Nop())

	require.NoError(t, job.Run())
	assert.Empty(t, wal.modes)

	require.NoError(t, repo.Store(context.Background(), "expired", "A", testBars(), -time.Hour))
	require.NoError(t, job.Run())
	assert.Equal(t, []string{"TRUNCATE"}, wal.modes)
}
