package runs

import (
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultSessionTTL is how long a finished run is kept without access.
	DefaultSessionTTL = time.Hour
	// ExpirySchedule runs the expiry every five minutes.
	ExpirySchedule = "0 */5 * * * *"
)

// ExpiryJob drops idle sessions from the store.
type ExpiryJob struct {
	store   *Store
	maxIdle time.Duration
	log     zerolog.Logger
}

// NewExpiryJob creates a job expiring sessions idle for longer than maxIdle.
func NewExpiryJob(store *Store, maxIdle time.Duration, log zerolog.Logger) *ExpiryJob {
	if maxIdle <= 0 {
		maxIdle = DefaultSessionTTL
	}
	return &ExpiryJob{
		store:   store,
		maxIdle: maxIdle,
		log:     log.With().Str("job", "session_expiry").Logger(),
	}
}

// Run removes expired sessions.
func (j *ExpiryJob) Run() error {
	removed := j.store.Expire(j.maxIdle)
	if removed > 0 {
		j.log.Info().
			Int("removed", removed).
			Int("remaining", j.store.Len()).
			Msg("Expired idle sessions")
	}
	return nil
}

// Name returns the job name.
func (j *ExpiryJob) Name() string {
	return "session_expiry"
}
