// internal/app/system/workers/pool.go
package workers

import (
	"context"
	"sync"
)

// Each calls fn for every item with at most n calls in flight and waits
// for all of them. The returned slice holds fn's error for each item at the
// item's index. Items not yet started when ctx is done get ctx.Err().
func Each[T any](ctx context.Context, items []T, n int, fn func(context.Context, T) error) []error {
	if n < 1 {
		n = 1
	}
	errs := make([]error, len(items))
	sem := make(chan struct{}, n)
	var wg sync.WaitGroup

	for i, it := range items {
		select {
		case <-ctx.Done():
			errs[i] = ctx.Err()
			continue
		case sem <- struct{}{}:
		}
		wg.Add(1)
		go func(i int, it T) {
			defer wg.Done()
			defer func() { <-sem }()
			errs[i] = fn(ctx, it)
		}(i, it)
	}
	wg.Wait()
	return errs
}

// Failed counts the non-nil errors.
func Failed(errs []error) int {
	n := 0
	for _, err := range errs {
		if err != nil {
			n++
		}
	}
	return n
}
