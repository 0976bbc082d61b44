package util

import (
	"context"
	"errors"
	"runtime"
	"sync"
)

// PoolSize returns how many workers to run over n items: 2 x NumCPU
// clamped to [4, 32], and never more than n. A positive override wins over
// the CPU-based size but is still capped at n.
func PoolSize(n, override int) int {
	size := override
	if size <= 0 {
		size = min(max(runtime.NumCPU()*2, 4), 32)
	}
	if n > 0 && size > n {
		size = n
	}
	return size
}

// ForEach calls fn for every item on up to workers goroutines. Items not
// yet started when ctx is cancelled are skipped with ctx.Err(). The
// returned error joins the failures in item order.
func ForEach[T any](ctx context.Context, items []T, workers int, fn func(context.Context, int, T) error) error {
	errs := make([]error, len(items))
	sem := make(chan struct{}, PoolSize(len(items), workers))
	var wg sync.WaitGroup
	for i, item := range items {
		if err := ctx.Err(); err != nil {
			errs[i] = err
			continue
		}
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			errs[i] = ctx.Err()
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			errs[i] = fn(ctx, i, item)
		}()
	}
	wg.Wait()
	return errors.Join(errs...)
}
