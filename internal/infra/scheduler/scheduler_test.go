package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestScheduler_RunsPeriodicallyUntilStopped(t *testing.T) {
	t.Parallel()
	log := zerolog.Nop()
	var runs int32
	s := NewScheduler("test", 5*time.Millisecond, time.Second, JobFunc(func(ctx context.Context) error {
		if atomic.AddInt32(&runs, 1)%2 == 0 {
			return errors.New("every other run fails")
		}
		return nil
	}), &log)

	s.Start(context.Background())
	s.Start(context.Background()) // no second loop
	deadline := time.After(2 * time.Second)
	for atomic.LoadInt32(&runs) < 3 {
		select {
		case <-deadline:
			t.Fatalf("only %d runs", atomic.LoadInt32(&runs))
		case <-time.After(5 * time.Millisecond):
		}
	}
	s.Stop()
	after := atomic.LoadInt32(&runs)
	time.Sleep(20 * time.Millisecond)
	if atomic.LoadInt32(&runs) != after {
		t.Fatal("job ran after Stop")
	}
	s.Stop() // idempotent
}

func TestScheduler_RunIsBoundedByTimeout(t *testing.T) {
	t.Parallel()
	log := zerolog.Nop()
	got := make(chan error, 1)
	s := NewScheduler("timeout", 5*time.Millisecond, 10*time.Millisecond, JobFunc(func(ctx context.Context) error {
		<-ctx.Done()
		select {
		case got <- ctx.Err():
		default:
		}
		return ctx.Err()
	}), &log)
	s.Start(context.Background())
	defer s.Stop()

	select {
	case err := <-got:
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("want deadline exceeded, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("job never observed its timeout")
	}
}
