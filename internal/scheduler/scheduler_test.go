package scheduler

import (
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSchedulerRunsJobRepeatedly(t *testing.T) {
	s := New(discardLogger())
	defer s.Stop()

	var runs atomic.Int32
	require.NoError(t, s.Start(10*time.Millisecond, func() {
		runs.Add(1)
	}))

	require.Eventually(t, func() bool {
		return runs.Load() >= 2
	}, 2*time.Second, 5*time.Millisecond)
}

func TestSchedulerStopPreventsFurtherRuns(t *testing.T) {
	s := New(discardLogger())

	var runs atomic.Int32
	require.NoError(t, s.Start(10*time.Millisecond, func() {
		runs.Add(1)
	}))

	require.Eventually(t, func() bool {
		return runs.Load() >= 1
	}, 2*time.Second, 5*time.Millisecond)

	s.Stop()
	after := runs.Load()
	time.Sleep(50 * time.Millisecond)
	require.LessOrEqual(t, runs.Load(), after+1)
}
