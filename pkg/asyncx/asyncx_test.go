package asyncx_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Abraxas-365/superagent/pkg/asyncx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunAwaitCachesResult(t *testing.T) {
	f := asyncx.Run(func() (int, error) { return 42, nil })

	v, err := f.Await()
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	v, _ = f.Await()
	assert.Equal(t, 42, v)
}

func TestPoolKeepsOrder(t *testing.T) {
	out, err := asyncx.Pool(context.Background(), 3, []int{1, 2, 3, 4, 5}, func(_ context.Context, n int) (int, error) {
		return n * n, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 4, 9, 16, 25}, out)
}

func TestPoolReturnsFirstError(t *testing.T) {
	_, err := asyncx.Pool(context.Background(), 2, []int{1, 2}, func(_ context.Context, n int) (int, error) {
		if n == 2 {
			return 0, errors.New("bad")
		}
		return n, nil
	})
	assert.EqualError(t, err, "bad")
}

func TestRetryWithBackoff(t *testing.T) {
	var calls atomic.Int32
	v, err := asyncx.RetryWithBackoff(context.Background(), 3, time.Millisecond, func(context.Context) (string, error) {
		if calls.Add(1) < 3 {
			return "", errors.New("not yet")
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.EqualValues(t, 3, calls.Load())
}

func TestSafeRecoversPanic(t *testing.T) {
	err := asyncx.Safe(func() error { panic("kaboom") })
	assert.EqualError(t, err, "panic: kaboom")
}

func TestWithTimeout(t *testing.T) {
	_, err := asyncx.WithTimeout(context.Background(), 5*time.Millisecond, func(ctx context.Context) (int, error) {
		<-ctx.Done()
		time.Sleep(time.Millisecond)
		return 0, nil
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
