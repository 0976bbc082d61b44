package util

import (
	"context"
	"errors"
	"runtime"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolSize(t *testing.T) {
	auto := min(max(runtime.NumCPU()*2, 4), 32)

	tests := []struct {
		name     string
		n        int
		override int
		expected int
	}{
		{"cpu based", 1000, 0, auto},
		{"override", 1000, 3, 3},
		{"capped at items", 2, 0, min(auto, 2)},
		{"override capped at items", 2, 8, 2},
		{"no items", 0, 0, auto},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, PoolSize(tt.n, tt.override))
		})
	}
}

func TestForEach(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7, 8}
	var sum, running, peak atomic.Int64

	err := ForEach(context.Background(), items, 2, func(_ context.Context, _ int, v int) error {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		sum.Add(int64(v))
		running.Add(-1)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, int64(36), sum.Load())
	assert.LessOrEqual(t, peak.Load(), int64(2))
}

func TestForEach_JoinsErrorsInOrder(t *testing.T) {
	err := ForEach(context.Background(), []string{"a", "b", "c"}, 0, func(_ context.Context, i int, s string) error {
		if i == 1 {
			return nil
		}
		return errors.New("failed " + s)
	})

	require.Error(t, err)
	assert.Equal(t, "failed a\nfailed c", err.Error())
}

func TestForEach_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var calls atomic.Int64

	err := ForEach(ctx, []int{1, 2, 3}, 1, func(context.Context, int, int) error {
		calls.Add(1)
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls.Load())
}
