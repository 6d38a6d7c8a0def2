package workers

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestEach_RunsAllAndKeepsOrder(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	errOdd := errors.New("odd")
	errs := Each(context.Background(), items, 2, func(_ context.Context, n int) error {
		if n%2 == 1 {
			return errOdd
		}
		return nil
	})
	if len(errs) != len(items) {
		t.Fatalf("len = %d", len(errs))
	}
	for i, n := range items {
		if (n%2 == 1) != errors.Is(errs[i], errOdd) {
			t.Errorf("item %d: err = %v", n, errs[i])
		}
	}
	if Failed(errs) != 3 {
		t.Errorf("Failed = %d", Failed(errs))
	}
}

func TestEach_BoundsConcurrency(t *testing.T) {
	var inFlight, peak int32
	items := make([]int, 20)
	Each(context.Background(), items, 3, func(context.Context, int) error {
		cur := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if cur <= p || atomic.CompareAndSwapInt32(&peak, p, cur) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return nil
	})
	if peak > 3 {
		t.Errorf("peak concurrency = %d, want <= 3", peak)
	}
}

func TestEach_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var calls int32
	errs := Each(ctx, []int{1, 2, 3}, 1, func(context.Context, int) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})
	// select picks randomly between a ready semaphore and a done context,
	// so some items may still run; the rest must report ctx.Err().
	for i, err := range errs {
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("item %d: err = %v", i, err)
		}
	}
	if int(calls)+Failed(errs) != 3 {
		t.Errorf("calls %d + canceled %d != 3", calls, Failed(errs))
	}
}
