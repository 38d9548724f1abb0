package notifier

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSweepService struct {
	calls atomic.Int64
	swept int
	err   error
	block chan struct{}
}

func (s *fakeSweepService) SweepExpired(ctx context.Context) (int, error) {
	s.calls.Add(1)
	if s.block != nil {
		<-s.block
	}
	return s.swept, s.err
}

func TestSweeperRun(t *testing.T) {
	svc := &fakeSweepService{swept: 3}
	s := NewSweeper(svc, "@every 1m", slog.New(slog.NewTextHandler(io.Discard, nil)))

	s.run(context.Background())
	assert.Equal(t, int64(1), svc.calls.Load())
}

func TestSweeperRun_ErrorLoggedNotFatal(t *testing.T) {
	svc := &fakeSweepService{err: errors.New("db down")}
	s := NewSweeper(svc, "@every 1m", slog.New(slog.NewTextHandler(io.Discard, nil)))

	s.run(context.Background())
	s.run(context.Background())
	assert.Equal(t, int64(2), svc.calls.Load())
}

func TestSweeperRun_SkipsOverlappingTick(t *testing.T) {
	svc := &fakeSweepService{block: make(chan struct{})}
	s := NewSweeper(svc, "@every 1m", slog.New(slog.NewTextHandler(io.Discard, nil)))

	started := make(chan struct{})
	go func() {
		close(started)
		s.run(context.Background())
	}()
	<-started
	// Give the first run a moment to take the semaphore.
	require.Eventually(t, func() bool {
		return svc.calls.Load() == 1
	}, time.Second, 5*time.Millisecond)

	// Second tick while the first is still sweeping is dropped.
	s.run(context.Background())
	assert.Equal(t, int64(1), svc.calls.Load())

	close(svc.block)
}

func TestNewSweeper_DefaultSchedule(t *testing.T) {
	s := NewSweeper(&fakeSweepService{}, "", slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Equal(t, "@every 1m", s.spec)
}
