// Package scheduler runs Frontier's maintenance jobs, such as price cache
// cleanup and idle session expiry, on cron schedules.
package scheduler

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Job is a unit of maintenance work.
type Job interface {
	Run() error
	Name() string
}

// Entry describes a registered job and its next and previous activation.
type Entry struct {
	Name     string    `json:"name"`
	Schedule string    `json:"schedule"`
	Next     time.Time `json:"next"`
	Prev     time.Time `json:"prev"`
}

type registration struct {
	name     string
	schedule string
}

// Scheduler runs jobs on second-resolution cron schedules. A job still
// running when its next activation fires is skipped, and a panicking job
// is recovered and logged.
type Scheduler struct {
	cron *cron.Cron
	log  zerolog.Logger

	mu   sync.Mutex
	jobs map[cron.EntryID]registration
}

// New creates a scheduler. It does not run jobs until Start.
func New(log zerolog.Logger) *Scheduler {
	l := log.With().Str("component", "scheduler").Logger()
	cl := cronLogger{log: l}

	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		log:  l,
		jobs: make(map[cron.EntryID]registration),
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Int("jobs", len(s.cron.Entries())).Msg("Scheduler started")
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info().Msg("Scheduler stopped")
}

// AddJob registers job under a cron schedule with a seconds field, e.g.
// "0 0 3 * * *" or "@every 5m".
func (s *Scheduler) AddJob(schedule string, job Job) error {
	id, err := s.cron.AddFunc(schedule, func() { _ = s.run(job) })
	if err != nil {
		return fmt.Errorf("invalid schedule %q for %s: %w", schedule, job.Name(), err)
	}

	s.mu.Lock()
	s.jobs[id] = registration{name: job.Name(), schedule: schedule}
	s.mu.Unlock()

	s.log.Info().
		Str("schedule", schedule).
		Str("job", job.Name()).
		Msg("Job registered")
	return nil
}

// Entries lists registered jobs ordered by name.
func (s *Scheduler) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	cronEntries := s.cron.Entries()
	entries := make([]Entry, 0, len(cronEntries))
	for _, e := range cronEntries {
		reg := s.jobs[e.ID]
		entries = append(entries, Entry{Name: reg.name, Schedule: reg.schedule, Next: e.Next, Prev: e.Prev})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries
}

// RunNow executes a job immediately, outside its schedule.
func (s *Scheduler) RunNow(job Job) error {
	return s.run(job)
}

func (s *Scheduler) run(job Job) error {
	log := s.log.With().Str("job", job.Name()).Logger()
	start := time.Now()

	err := job.Run()
	elapsed := time.Since(start)
	jobDuration.WithLabelValues(job.Name()).Observe(elapsed.Seconds())

	if err != nil {
		jobRuns.WithLabelValues(job.Name(), "error").Inc()
		log.Error().Err(err).Dur("duration", elapsed).Msg("Job failed")
		return err
	}
	jobRuns.WithLabelValues(job.Name(), "ok").Inc()
	log.Debug().Dur("duration", elapsed).Msg("Job completed")
	return nil
}

// cronLogger routes cron's own messages (skips, recovered panics) to zerolog.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
