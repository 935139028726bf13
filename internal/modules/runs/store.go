// Package runs keeps the latest analysis run of each session. Sessions are
// isolated from each other; a new submission within a session replaces its
// previous run, cancelling it if still in progress.
package runs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/frontier/internal/domain"
	"github.com/aristath/frontier/internal/modules/allocation"
	"github.com/aristath/frontier/internal/modules/analysis"
	"github.com/aristath/frontier/internal/progress"
)

// Status of a run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

var (
	// ErrNoRun is returned when a session has never submitted a portfolio.
	ErrNoRun = errors.New("no run for session")
	// ErrNotReady is returned when the session's run has not completed.
	ErrNotReady = errors.New("run has not completed")
	// ErrStopped is returned by Start after Shutdown.
	ErrStopped = errors.New("run store is shut down")
)

// Runner executes the analysis pipeline.
type Runner interface {
	Run(ctx context.Context, portfolio domain.Portfolio, cb progress.Callback) (*analysis.Result, error)
}

// Info is a point-in-time view of a run.
type Info struct {
	ID         string            `json:"id"`
	Session    string            `json:"session"`
	Tickers    []string          `json:"tickers"`
	Status     Status            `json:"status"`
	Error      string            `json:"error,omitempty"`
	Progress   progress.Snapshot `json:"progress"`
	Percent    float64           `json:"percent"`
	Selected   int               `json:"selected"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt *time.Time        `json:"finished_at,omitempty"`
}

type run struct {
	id         string
	session    string
	portfolio  domain.Portfolio
	status     Status
	err        error
	result     *analysis.Result
	selected   int
	tracker    *progress.Tracker
	startedAt  time.Time
	finishedAt time.Time
	lastAccess time.Time
	cancel     context.CancelFunc
	done       chan struct{}
}

// Store holds the latest run per session.
type Store struct {
	mu     sync.Mutex
	runs   map[string]*run
	runner Runner
	ctx    context.Context
	stop   context.CancelFunc
	wg     sync.WaitGroup
	closed bool
	now    func() time.Time
	log    zerolog.Logger
}

// NewStore creates an empty store executing runs with runner.
func NewStore(runner Runner, log zerolog.Logger) *Store {
	ctx, stop := context.WithCancel(context.Background())
	return &Store{
		runs:   make(map[string]*run),
		runner: runner,
		ctx:    ctx,
		stop:   stop,
		now:    time.Now,
		log:    log.With().Str("component", "runs").Logger(),
	}
}

// Start launches a run for session in the background and returns its info.
// Any previous run of the session is cancelled and discarded.
func (s *Store) Start(session string, portfolio domain.Portfolio) (Info, error) {
	if session == "" {
		return Info{}, fmt.Errorf("empty session id")
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return Info{}, ErrStopped
	}

	ctx, cancel := context.WithCancel(s.ctx)
	now := s.now()
	r := &run{
		id:         uuid.New().String(),
		session:    session,
		portfolio:  portfolio,
		status:     StatusRunning,
		selected:   allocation.BaselineIndex,
		tracker:    progress.NewTracker(),
		startedAt:  now,
		lastAccess: now,
		cancel:     cancel,
		done:       make(chan struct{}),
	}

	if prev, ok := s.runs[session]; ok {
		prev.cancel()
	}
	s.runs[session] = r
	info := r.info()
	s.wg.Add(1)
	s.mu.Unlock()

	s.log.Info().
		Str("session", session).
		Str("run_id", r.id).
		Strs("tickers", portfolio.Tickers()).
		Msg("Run started")

	go s.execute(ctx, r)

	return info, nil
}

func (s *Store) execute(ctx context.Context, r *run) {
	defer s.wg.Done()
	defer close(r.done)
	defer r.cancel()

	result, err := s.runner.Run(ctx, r.portfolio, r.tracker.Callback())

	s.mu.Lock()
	defer s.mu.Unlock()

	r.finishedAt = s.now()
	switch {
	case err == nil:
		r.status = StatusCompleted
		r.result = result
	case ctx.Err() != nil:
		r.status = StatusCancelled
		r.err = err
	default:
		r.status = StatusFailed
		r.err = err
	}

	event := s.log.Info()
	if r.status == StatusFailed {
		event = s.log.Warn().Err(err)
	}
	event.
		Str("session", r.session).
		Str("run_id", r.id).
		Str("status", string(r.status)).
		Dur("duration", r.finishedAt.Sub(r.startedAt)).
		Msg("Run finished")
}

// Info returns the current view of the session's run.
func (s *Store) Info(session string) (Info, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.runs[session]
	if !ok {
		return Info{}, ErrNoRun
	}
	r.lastAccess = s.now()
	return r.info(), nil
}

// Done returns a channel closed when the session's current run finishes.
func (s *Store) Done(session string) (<-chan struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.runs[session]
	if !ok {
		return nil, ErrNoRun
	}
	return r.done, nil
}

// Wait blocks until the session's current run finishes and returns its info.
func (s *Store) Wait(ctx context.Context, session string) (Info, error) {
	done, err := s.Done(session)
	if err != nil {
		return Info{}, err
	}
	select {
	case <-done:
		return s.Info(session)
	case <-ctx.Done():
		return Info{}, ctx.Err()
	}
}

// Result returns the completed result of the session's run. A failed run
// returns its error.
func (s *Store) Result(session string) (*analysis.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.runs[session]
	if !ok {
		return nil, ErrNoRun
	}
	r.lastAccess = s.now()
	return r.completed()
}

// Allocation builds the allocation table of the session's run. A nil idx
// reuses the session's last selection; a valid idx becomes the new
// selection.
func (s *Store) Allocation(session string, idx *int) (allocation.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.runs[session]
	if !ok {
		return allocation.Result{}, ErrNoRun
	}
	r.lastAccess = s.now()
	result, err := r.completed()
	if err != nil {
		return allocation.Result{}, err
	}

	selected := r.selected
	if idx != nil {
		selected = *idx
	}

	table, err := result.Allocation(selected)
	if err != nil {
		return allocation.Result{}, err
	}
	r.selected = selected
	return table, nil
}

// Cancel stops the session's run if it is still in progress.
func (s *Store) Cancel(session string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.runs[session]
	if !ok || r.status != StatusRunning {
		return false
	}
	r.cancel()
	return true
}

// Len returns the number of sessions with a run.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.runs)
}

// Expire drops finished runs whose session has been idle for longer than
// maxIdle and returns how many were removed. Running runs are kept.
func (s *Store) Expire(maxIdle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-maxIdle)
	removed := 0
	for session, r := range s.runs {
		if r.status == StatusRunning {
			continue
		}
		idleSince := r.lastAccess
		if r.finishedAt.After(idleSince) {
			idleSince = r.finishedAt
		}
		if idleSince.Before(cutoff) {
			delete(s.runs, session)
			removed++
		}
	}
	return removed
}

// Shutdown cancels every run, rejects new ones and waits for their
// goroutines to exit.
func (s *Store) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.stop()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *run) completed() (*analysis.Result, error) {
	switch r.status {
	case StatusCompleted:
		return r.result, nil
	case StatusRunning:
		return nil, ErrNotReady
	default:
		return nil, r.err
	}
}

func (r *run) info() Info {
	snapshot := r.tracker.Snapshot()
	info := Info{
		ID:        r.id,
		Session:   r.session,
		Tickers:   r.portfolio.Tickers(),
		Status:    r.status,
		Progress:  snapshot,
		Percent:   snapshot.Percent(),
		Selected:  r.selected,
		StartedAt: r.startedAt,
	}
	if r.err != nil {
		info.Error = r.err.Error()
	}
	if !r.finishedAt.IsZero() {
		finished := r.finishedAt
		info.FinishedAt = &finished
	}
	return info
}
