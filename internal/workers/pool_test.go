package workers

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestRunCollectsEveryResult(t *testing.T) {
	items := make([]int, 100)
	for i := range items {
		items[i] = i + 1
	}
	sum := 0
	err := Run(context.Background(), items, 8, func(_ context.Context, v int) int { return v * 2 }, func(v int) { sum += v })
	require.NoError(t, err)
	assert.Equal(t, 2*5050, sum)
}

func TestRunRespectsLimit(t *testing.T) {
	var inFlight, peak int32
	items := make([]struct{}, 40)
	err := Run(context.Background(), items, 3, func(context.Context, struct{}) struct{} {
		cur := atomic.AddInt32(&inFlight, 1)
		for {
			old := atomic.LoadInt32(&peak)
			if cur <= old || atomic.CompareAndSwapInt32(&peak, old, cur) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return struct{}{}
	}, func(struct{}) {})
	require.NoError(t, err)
	assert.LessOrEqual(t, peak, int32(3))
}

func TestRunZeroWorkersStillRuns(t *testing.T) {
	n := 0
	require.NoError(t, Run(context.Background(), []string{"a", "b"}, 0,
		func(_ context.Context, s string) string { return s },
		func(string) { n++ }))
	assert.Equal(t, 2, n)
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	n := 0
	err := Run(ctx, []int{1, 2, 3}, 1, func(_ context.Context, v int) int { return v }, func(int) { n++ })
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, n)
}
