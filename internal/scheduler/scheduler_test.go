package scheduler

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	name string
	runs atomic.Int32
	err  error
}

func (j *countingJob) Run() error {
	j.runs.Add(1)
	return j.err
}

func (j *countingJob) Name() string { return j.name }

type panickingJob struct{ runs atomic.Int32 }

func (j *panickingJob) Run() error {
	j.runs.Add(1)
	panic("boom")
}

func (j *panickingJob) Name() string { return "panicking" }

func TestAddJob_InvalidSchedule(t *testing.T) {
	s := New(zerolog.Nop())
	err := s.AddJob("not a schedule", &countingJob{name: "cache_cleanup"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cache_cleanup")
	assert.Empty(t, s.Entries())
}

func TestEntries_SortedWithSchedules(t *testing.T) {
	s := New(zerolog.Nop())
	require.NoError(t, s.AddJob("0 */5 * * * *", &countingJob{name: "session_expiry"}))
	require.NoError(t, s.AddJob("0 0 3 * * *", &countingJob{name: "cache_cleanup"}))

	entries := s.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "cache_cleanup", entries[0].Name)
	assert.Equal(t, "0 0 3 * * *", entries[0].Schedule)
	assert.Equal(t, "session_expiry", entries[1].Name)
}

func TestAddJob_RunsAndSurvivesFailures(t *testing.T) {
	s := New(zerolog.Nop())
	failing := &countingJob{name: "failing_every_second", err: errors.New("failing jobs keep their schedule")}
	panicking := &panickingJob{}
	require.NoError(t, s.AddJob("@every 1s", failing))
	require.NoError(t, s.AddJob("@every 1s", panicking))

	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool {
		return failing.runs.Load() >= 2 && panicking.runs.Load() >= 2
	}, 5*time.Second, 50*time.Millisecond)
}

func TestRunNow_RecordsOutcome(t *testing.T) {
	s := New(zerolog.Nop())

	ok := &countingJob{name: "run_now_ok"}
	require.NoError(t, s.RunNow(ok))
	assert.Equal(t, int32(1), ok.runs.Load())
	assert.Equal(t, 1.0, testutil.ToFloat64(jobRuns.WithLabelValues("run_now_ok", "ok")))

	bad := &countingJob{name: "run_now_bad", err: errors.New("disk full")}
	assert.Error(t, s.RunNow(bad))
	assert.Equal(t, 1.0, testutil.ToFloat64(jobRuns.WithLabelValues("run_now_bad", "error")))
}
