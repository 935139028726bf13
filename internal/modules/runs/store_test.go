package runs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/frontier/internal/domain"
	"github.com/aristath/frontier/internal/modules/allocation"
	"github.com/aristath/frontier/internal/modules/analysis"
	"github.com/aristath/frontier/internal/modules/optimization"
	"github.com/aristath/frontier/internal/progress"
)

// fakeRunner returns a fixed two-solution result. When gate is set, runs
// block until it is closed or their context is cancelled.
type fakeRunner struct {
	gate chan struct{}
	err  error

	mu    sync.Mutex
	calls []domain.Portfolio
}

func (f *fakeRunner) Run(ctx context.Context, p domain.Portfolio, cb progress.Callback) (*analysis.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, p)
	f.mu.Unlock()

	progress.Call(cb, 1, 2, analysis.PhaseFetching)
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}

	prices := make([]float64, p.Len())
	weights := make([]float64, p.Len())
	for i := range prices {
		prices[i] = 10
		weights[i] = 1 / float64(p.Len())
	}
	baseline, err := allocation.NewBaseline(p, prices)
	if err != nil {
		return nil, err
	}
	return &analysis.Result{
		Portfolio: p,
		Baseline:  baseline,
		Front: &optimization.Front{
			Tickers: p.Tickers(),
			Solutions: []optimization.Solution{
				{ER: 0.1, EV: 0.1, Weights: weights},
				{ER: 0.2, EV: 0.3, Weights: weights},
			},
		},
	}, nil
}

func testPortfolio(t *testing.T, tickers ...string) domain.Portfolio {
	t.Helper()
	holdings := make([]domain.Holding, len(tickers))
	for i, ticker := range tickers {
		holdings[i] = domain.Holding{Ticker: ticker, Quantity: i + 1}
	}
	p, err := domain.NewPortfolio(holdings)
	require.NoError(t, err)
	return p
}

func waitFor(t *testing.T, s *Store, session string) Info {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	info, err := s.Wait(ctx, session)
	require.NoError(t, err)
	return info
}

func TestStart_CompletesRun(t *testing.T) {
	s := NewStore(&fakeRunner{}, zerolog.Nop())

	started, err := s.Start("alice", testPortfolio(t, "A", "B"))
	require.NoError(t, err)
	assert.NotEmpty(t, started.ID)
	assert.Equal(t, StatusRunning, started.Status)
	assert.Equal(t, allocation.BaselineIndex, started.Selected)

	info := waitFor(t, s, "alice")
	assert.Equal(t, started.ID, info.ID)
	assert.Equal(t, StatusCompleted, info.Status)
	assert.NotNil(t, info.FinishedAt)
	assert.Equal(t, []string{"A", "B"}, info.Tickers)

	result, err := s.Result("alice")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Front.Len())
}

func TestStart_RejectsEmptySession(t *testing.T) {
	s := NewStore(&fakeRunner{}, zerolog.Nop())
	_, err := s.Start("", testPortfolio(t, "A"))
	assert.Error(t, err)
}

func TestSessionsAreIsolated(t *testing.T) {
	s := NewStore(&fakeRunner{}, zerolog.Nop())

	_, err := s.Start("alice", testPortfolio(t, "A", "B"))
	require.NoError(t, err)
	_, err = s.Start("bob", testPortfolio(t, "X", "Y", "Z"))
	require.NoError(t, err)

	waitFor(t, s, "alice")
	waitFor(t, s, "bob")

	alice, err := s.Result("alice")
	require.NoError(t, err)
	bob, err := s.Result("bob")
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B"}, alice.Portfolio.Tickers())
	assert.Equal(t, []string{"X", "Y", "Z"}, bob.Portfolio.Tickers())
	assert.Equal(t, 2, s.Len())

	_, err = s.Allocation("alice", intPtr(1))
	require.NoError(t, err)
	bobInfo, err := s.Info("bob")
	require.NoError(t, err)
	assert.Equal(t, allocation.BaselineIndex, bobInfo.Selected)
}

func TestStart_ReplacesPreviousRun(t *testing.T) {
	runner := &fakeRunner{gate: make(chan struct{})}
	s := NewStore(runner, zerolog.Nop())

	first, err := s.Start("alice", testPortfolio(t, "A", "B"))
	require.NoError(t, err)
	firstDone, err := s.Done("alice")
	require.NoError(t, err)

	second, err := s.Start("alice", testPortfolio(t, "C", "D"))
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	select {
	case <-firstDone:
	case <-time.After(5 * time.Second):
		t.Fatal("replaced run was not cancelled")
	}

	close(runner.gate)
	info := waitFor(t, s, "alice")
	assert.Equal(t, second.ID, info.ID)
	assert.Equal(t, StatusCompleted, info.Status)

	result, err := s.Result("alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"C", "D"}, result.Portfolio.Tickers())
}

func TestResult_States(t *testing.T) {
	runner := &fakeRunner{gate: make(chan struct{})}
	s := NewStore(runner, zerolog.Nop())

	_, err := s.Result("nobody")
	assert.ErrorIs(t, err, ErrNoRun)

	_, err = s.Start("alice", testPortfolio(t, "A", "B"))
	require.NoError(t, err)

	_, err = s.Result("alice")
	assert.ErrorIs(t, err, ErrNotReady)
	_, err = s.Allocation("alice", nil)
	assert.ErrorIs(t, err, ErrNotReady)

	close(runner.gate)
	waitFor(t, s, "alice")
	_, err = s.Result("alice")
	assert.NoError(t, err)
}

func TestFailedRunKeepsError(t *testing.T) {
	runErr := &domain.DataUnavailableError{Ticker: "A"}
	s := NewStore(&fakeRunner{err: runErr}, zerolog.Nop())

	_, err := s.Start("alice", testPortfolio(t, "A", "B"))
	require.NoError(t, err)

	info := waitFor(t, s, "alice")
	assert.Equal(t, StatusFailed, info.Status)
	assert.Contains(t, info.Error, "unavailable")

	_, err = s.Result("alice")
	var unavailable *domain.DataUnavailableError
	assert.True(t, errors.As(err, &unavailable))
}

func TestAllocation_StickySelection(t *testing.T) {
	s := NewStore(&fakeRunner{}, zerolog.Nop())
	_, err := s.Start("alice", testPortfolio(t, "A", "B"))
	require.NoError(t, err)
	waitFor(t, s, "alice")

	table, err := s.Allocation("alice", nil)
	require.NoError(t, err)
	assert.False(t, table.Selected())

	table, err = s.Allocation("alice", intPtr(1))
	require.NoError(t, err)
	assert.Equal(t, 1, table.Index)

	table, err = s.Allocation("alice", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, table.Index)

	_, err = s.Allocation("alice", intPtr(7))
	var invalid *domain.InvalidSelectionError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, 2, invalid.FrontSize)

	// A rejected selection leaves the previous one in place.
	info, err := s.Info("alice")
	require.NoError(t, err)
	assert.Equal(t, 1, info.Selected)
}

func TestCancelAndShutdown(t *testing.T) {
	runner := &fakeRunner{gate: make(chan struct{})}
	s := NewStore(runner, zerolog.Nop())

	assert.False(t, s.Cancel("alice"))

	_, err := s.Start("alice", testPortfolio(t, "A", "B"))
	require.NoError(t, err)
	assert.True(t, s.Cancel("alice"))

	info := waitFor(t, s, "alice")
	assert.Equal(t, StatusCancelled, info.Status)

	_, err = s.Start("bob", testPortfolio(t, "A", "B"))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))

	info, err = s.Info("bob")
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, info.Status)
}

func TestInfo_ReportsProgress(t *testing.T) {
	runner := &fakeRunner{gate: make(chan struct{})}
	s := NewStore(runner, zerolog.Nop())
	_, err := s.Start("alice", testPortfolio(t, "A", "B"))
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		info, err := s.Info("alice")
		return err == nil && info.Progress.Phase == analysis.PhaseFetching && info.Percent == 50
	}, 5*time.Second, 10*time.Millisecond)

	close(runner.gate)
	waitFor(t, s, "alice")
}

func intPtr(v int) *int { return &v }

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestExpire_DropsIdleFinishedSessions(t *testing.T) {
	clock := &testClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	runner := &fakeRunner{gate: make(chan struct{})}
	s := NewStore(runner, zerolog.Nop())
	s.now = clock.Now

	_, err := s.Start("idle", testPortfolio(t, "A", "B"))
	require.NoError(t, err)
	_, err = s.Start("active", testPortfolio(t, "A", "B"))
	require.NoError(t, err)
	close(runner.gate)
	waitFor(t, s, "idle")
	waitFor(t, s, "active")

	runner.gate = make(chan struct{})
	_, err = s.Start("running", testPortfolio(t, "A", "B"))
	require.NoError(t, err)

	clock.Advance(50 * time.Minute)
	_, err = s.Info("active")
	require.NoError(t, err)

	clock.Advance(20 * time.Minute)
	assert.Equal(t, 1, s.Expire(time.Hour))

	_, err = s.Info("idle")
	assert.ErrorIs(t, err, ErrNoRun)
	_, err = s.Info("active")
	assert.NoError(t, err)
	info, err := s.Info("running")
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, info.Status)
	assert.Equal(t, 2, s.Len())

	close(runner.gate)
	waitFor(t, s, "running")
}

func TestExpiryJob(t *testing.T) {
	clock := &testClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	s := NewStore(&fakeRunner{}, zerolog.Nop())
	s.now = clock.Now

	_, err := s.Start("alice", testPortfolio(t, "A", "B"))
	require.NoError(t, err)
	waitFor(t, s, "alice")

	job := NewExpiryJob(s, 10*time.Minute, zerolog.Nop())
	assert.Equal(t, "session_expiry", job.Name())

	require.NoError(t, job.Run())
	assert.Equal(t, 1, s.Len())

	clock.Advance(11 * time.Minute)
	require.NoError(t, job.Run())
	assert.Equal(t, 0, s.Len())
}

func TestStart_AfterShutdown(t *testing.T) {
	s := NewStore(&fakeRunner{}, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))

	_, err := s.Start("alice", testPortfolio(t, "A", "B"))
	assert.ErrorIs(t, err, ErrStopped)
	assert.Equal(t, 0, s.Len())
}

func TestStart_ConcurrentWithShutdown(t *testing.T) {
	s := NewStore(&fakeRunner{}, zerolog.Nop())
	p := testPortfolio(t, "A", "B")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Start(fmt.Sprintf("s%d", i), p)
			if err != nil {
				assert.ErrorIs(t, err, ErrStopped)
			}
		}()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))
	wg.Wait()
}
