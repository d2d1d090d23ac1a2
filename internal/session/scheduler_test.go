package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/holden/retroboard/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSweeper records cleanup invocations and optionally fails them.
type fakeSweeper struct {
	mu         sync.Mutex
	calls      int
	thresholds []time.Duration
	err        error
}

func (f *fakeSweeper) PerformScheduledCleanup(ctx context.Context, threshold time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.thresholds = append(f.thresholds, threshold)
	return f.err
}

func (f *fakeSweeper) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestScheduler_Start(t *testing.T) {
	t.Run("rejects invalid cron expression", func(t *testing.T) {
		s := session.NewScheduler(&fakeSweeper{}, discardLogger())

		err := s.Start("not a cron expr", time.Hour)
		assert.Error(t, err)
	})

	t.Run("runs an immediate sweep on start", func(t *testing.T) {
		sweeper := &fakeSweeper{}
		s := session.NewScheduler(sweeper, discardLogger())

		require.NoError(t, s.Start("*/30 * * * *", 45*time.Minute))
		defer s.Stop()

		assert.Eventually(t, func() bool {
			return sweeper.callCount() >= 1
		}, time.Second, 10*time.Millisecond)

		sweeper.mu.Lock()
		defer sweeper.mu.Unlock()
		assert.Equal(t, 45*time.Minute, sweeper.thresholds[0])
	})

	t.Run("a failing sweep does not stop the scheduler", func(t *testing.T) {
		sweeper := &fakeSweeper{err: errors.New("db down")}
		s := session.NewScheduler(sweeper, discardLogger())

		require.NoError(t, s.Start("* * * * *", time.Hour))
		defer s.Stop()

		assert.Eventually(t, func() bool {
			return sweeper.callCount() >= 1
		}, time.Second, 10*time.Millisecond)

		// Still running on demand after the failure
		assert.Error(t, s.RunNow(context.Background(), time.Hour))
	})
}

func TestScheduler_Stop(t *testing.T) {
	t.Run("safe when never started", func(t *testing.T) {
		s := session.NewScheduler(&fakeSweeper{}, discardLogger())
		assert.NotPanics(t, func() { s.Stop() })
	})

	t.Run("safe to call twice", func(t *testing.T) {
		s := session.NewScheduler(&fakeSweeper{}, discardLogger())
		require.NoError(t, s.Start("*/30 * * * *", time.Hour))

		s.Stop()
		assert.NotPanics(t, func() { s.Stop() })
	})
}

func TestScheduler_RunNow(t *testing.T) {
	t.Run("delegates to the sweeper", func(t *testing.T) {
		sweeper := &fakeSweeper{}
		s := session.NewScheduler(sweeper, discardLogger())

		require.NoError(t, s.RunNow(context.Background(), 30*time.Minute))
		assert.Equal(t, 1, sweeper.callCount())

		sweeper.mu.Lock()
		defer sweeper.mu.Unlock()
		assert.Equal(t, 30*time.Minute, sweeper.thresholds[0])
	})

	t.Run("propagates sweep errors", func(t *testing.T) {
		wantErr := errors.New("sweep failed")
		s := session.NewScheduler(&fakeSweeper{err: wantErr}, discardLogger())

		err := s.RunNow(context.Background(), time.Hour)
		assert.ErrorIs(t, err, wantErr)
	})

	t.Run("works without Start", func(t *testing.T) {
		sweeper := &fakeSweeper{}
		s := session.NewScheduler(sweeper, discardLogger())

		require.NoError(t, s.RunNow(context.Background(), time.Hour))
		assert.Equal(t, 1, sweeper.callCount())
	})
}
