package dispatch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestRunReturnsResult(t *testing.T) {
	p := NewPool(2)
	defer p.Close()

	value, err := p.Run(context.Background(), func(ctx context.Context) (interface{}, error) {
		return 42, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if value.(int) != 42 {
		t.Errorf("value = %v, want 42", value)
	}
}

func TestRunPropagatesError(t *testing.T) {
	p := NewPool(2)
	defer p.Close()

	wantErr := errors.New("provider down")
	_, err := p.Run(context.Background(), func(ctx context.Context) (interface{}, error) {
		return nil, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("err = %v, want %v", err, wantErr)
	}
}

func TestSubmitOverlapsWork(t *testing.T) {
	p := NewPool(4)
	defer p.Close()

	start := time.Now()
	var tasks []*Task
	for i := 0; i < 4; i++ {
		tasks = append(tasks, p.Submit(context.Background(), func(ctx context.Context) (interface{}, error) {
			time.Sleep(100 * time.Millisecond)
			return nil, nil
		}))
	}
	for _, task := range tasks {
		if _, err := task.Wait(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	// Four 100ms jobs on four workers run concurrently, not serially.
	if elapsed := time.Since(start); elapsed > 300*time.Millisecond {
		t.Errorf("tasks appear serialized: took %v", elapsed)
	}
}

func TestWorkerCountBoundsConcurrency(t *testing.T) {
	p := NewPool(2)
	defer p.Close()

	var running, peak int32
	var mu sync.Mutex

	var tasks []*Task
	for i := 0; i < 6; i++ {
		tasks = append(tasks, p.Submit(context.Background(), func(ctx context.Context) (interface{}, error) {
			n := atomic.AddInt32(&running, 1)
			mu.Lock()
			if n > peak {
				peak = n
			}
			mu.Unlock()
			time.Sleep(20 * time.Millisecond)
			atomic.AddInt32(&running, -1)
			return nil, nil
		}))
	}
	for _, task := range tasks {
		task.Wait(context.Background())
	}

	if peak > 2 {
		t.Errorf("peak concurrency %d exceeds pool size 2", peak)
	}
}

func TestWaitRespectsContextCancellation(t *testing.T) {
	p := NewPool(1)
	defer p.Close()

	release := make(chan struct{})
	task := p.Submit(context.Background(), func(ctx context.Context) (interface{}, error) {
		<-release
		return "late", nil
	})

	waitCtx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := task.Wait(waitCtx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}

	// The call keeps running; its result is retained for a later Wait.
	close(release)
	value, err := task.Wait(context.Background())
	if err != nil {
		t.Fatalf("unexpected error on second wait: %v", err)
	}
	if value.(string) != "late" {
		t.Errorf("value = %v, want late", value)
	}
}

func TestCancelledContextSkipsExecution(t *testing.T) {
	p := NewPool(1)
	defer p.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var ran int32
	task := p.Submit(ctx, func(ctx context.Context) (interface{}, error) {
		atomic.AddInt32(&ran, 1)
		return nil, nil
	})

	_, err := task.Wait(context.Background())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if atomic.LoadInt32(&ran) != 0 {
		t.Error("cancelled job should not have executed")
	}
}

func TestRepeatedWaitReturnsSameOutcome(t *testing.T) {
	p := NewPool(1)
	defer p.Close()

	task := p.Submit(context.Background(), func(ctx context.Context) (interface{}, error) {
		return "once", nil
	})

	for i := 0; i < 3; i++ {
		value, err := task.Wait(context.Background())
		if err != nil || value.(string) != "once" {
			t.Fatalf("wait %d: value=%v err=%v", i, value, err)
		}
	}
}
