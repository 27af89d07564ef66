package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

type recordingSweeper struct {
	calls atomic.Int32
	grace atomic.Int64
}

func (s *recordingSweeper) SweepImages(_ context.Context, olderThan time.Duration) (int, error) {
	s.calls.Add(1)
	s.grace.Store(int64(olderThan))
	return 1, nil
}

func TestImageSweepWorker_PassesGrace(t *testing.T) {
	sweeper := &recordingSweeper{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewImageSweepWorker(sweeper, 10*time.Millisecond, time.Hour).Start(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for sweeper.calls.Load() < 2 {
		select {
		case <-deadline:
			t.Fatalf("worker ran %d times", sweeper.calls.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	<-done
	if time.Duration(sweeper.grace.Load()) != time.Hour {
		t.Fatalf("grace %s", time.Duration(sweeper.grace.Load()))
	}
}

func TestImageSweepWorker_ZeroIntervalDisabled(t *testing.T) {
	sweeper := &recordingSweeper{}
	NewImageSweepWorker(sweeper, 0, time.Hour).Start(context.Background())
	if sweeper.calls.Load() != 0 {
		t.Fatalf("disabled worker ran")
	}
}
