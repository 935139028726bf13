package clientdata

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Checkpointer truncates the write-ahead log of the cache database.
type Checkpointer interface {
	WALCheckpoint(mode string) error
}

// CleanupJob removes expired price histories and, when rows were deleted,
// checkpoints the WAL so the file shrinks. It is scheduled daily.
type CleanupJob struct {
	repo *Repository
	wal  Checkpointer
	log  zerolog.Logger
}

// NewCleanupJob creates a new cache cleanup job. wal may be nil.
func NewCleanupJob(repo *Repository, wal Checkpointer, log zerolog.Logger) *CleanupJob {
	return &CleanupJob{
		repo: repo,
		wal:  wal,
		log:  log.With().Str("job", "price_history_cleanup").Logger(),
	}
}

// Run removes all expired entries.
func (j *CleanupJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	deleted, err := j.repo.DeleteExpired(ctx)
	if err != nil {
		j.log.Error().Err(err).Msg("Failed to delete expired price histories")
		return err
	}

	if deleted == 0 {
		return nil
	}
	j.log.Info().Int64("deleted", deleted).Msg("Cleaned up expired cache entries")

	if j.wal != nil {
		if err := j.wal.WALCheckpoint("TRUNCATE"); err != nil {
			j.log.Warn().Err(err).Msg("WAL checkpoint after cleanup failed")
		}
	}
	return nil
}

// Name returns the job name for scheduling and logging.
func (j *CleanupJob) Name() string {
	return "price_history_cleanup"
}
