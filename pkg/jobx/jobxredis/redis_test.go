package jobxredis

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Abraxas-365/superagent/pkg/errx"
	"github.com/Abraxas-365/superagent/pkg/jobx"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newQueue(t *testing.T) (*RedisQueue, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisQueue(rdb), mr
}

type ingestPayload struct {
	DocumentID string `json:"document_id"`
}

func TestEnqueueDequeueComplete(t *testing.T) {
	ctx := context.Background()
	q, _ := newQueue(t)

	job, err := jobx.NewJob("document.ingest", ingestPayload{DocumentID: "doc-1"})
	require.NoError(t, err)
	job.Queue = "ingest"
	job.MaxRetries = 2

	id, err := q.Enqueue(ctx, job)
	require.NoError(t, err)

	n, err := q.Len(ctx, "ingest")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	info, err := q.Dequeue(ctx, []string{"ingest"}, time.Second)
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, id, info.ID)
	assert.Equal(t, jobx.JobStatusActive, info.Status)
	assert.Equal(t, 1, info.Attempts)

	var p ingestPayload
	require.NoError(t, info.Decode(&p))
	assert.Equal(t, "doc-1", p.DocumentID)

	require.NoError(t, q.Complete(ctx, id, json.RawMessage(`{"chunks":3}`)))

	stored, err := q.GetJob(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, jobx.JobStatusCompleted, stored.Status)
	assert.JSONEq(t, `{"chunks":3}`, string(stored.Result))
}

func TestDequeueTimeoutReturnsNil(t *testing.T) {
	q, _ := newQueue(t)

	info, err := q.Dequeue(context.Background(), []string{"empty"}, 100*time.Millisecond)
	require.NoError(t, err)
	assert.Nil(t, info)
}

func TestFailRetriesUntilExhausted(t *testing.T) {
	ctx := context.Background()
	q, _ := newQueue(t)

	id, err := q.Enqueue(ctx, jobx.Job{Type: "t", Queue: "q", MaxRetries: 2})
	require.NoError(t, err)

	_, err = q.Dequeue(ctx, []string{"q"}, time.Second)
	require.NoError(t, err)
	retry, err := q.Fail(ctx, id, "boom")
	require.NoError(t, err)
	assert.True(t, retry)

	require.NoError(t, q.Retry(ctx, id, 0))
	require.NoError(t, q.PromoteScheduled(ctx, []string{"q"}))

	info, err := q.Dequeue(ctx, []string{"q"}, time.Second)
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, 2, info.Attempts)

	retry, err = q.Fail(ctx, id, "boom again")
	require.NoError(t, err)
	assert.False(t, retry)

	stored, err := q.GetJob(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, jobx.JobStatusFailed, stored.Status)
	assert.Equal(t, "boom again", stored.Error)
}

func TestDelayedJobWaitsForPromotion(t *testing.T) {
	ctx := context.Background()
	q, _ := newQueue(t)

	_, err := q.EnqueueDelayed(ctx, jobx.Job{Type: "t", Queue: "q", MaxRetries: 1}, time.Hour)
	require.NoError(t, err)
	require.NoError(t, q.PromoteScheduled(ctx, []string{"q"}))

	n, err := q.Len(ctx, "q")
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)
}

func TestGetJobNotFound(t *testing.T) {
	q, _ := newQueue(t)

	_, err := q.GetJob(context.Background(), "missing")
	assert.True(t, errx.IsCode(err, ErrNotFound))
}

func TestClientProcessRecordsOutcome(t *testing.T) {
	ctx := context.Background()
	q, _ := newQueue(t)
	client := jobx.NewClient(q, jobx.WithQueues("q"), jobx.WithDefaultRetryDelay(0))

	var seen []string
	client.Register("ok", func(_ context.Context, job *jobx.JobInfo) error {
		seen = append(seen, job.ID)
		return nil
	})
	client.Register("bad", func(context.Context, *jobx.JobInfo) error {
		return errors.New("nope")
	})
	client.Register("panics", func(context.Context, *jobx.JobInfo) error {
		panic("kaboom")
	})

	okID, err := client.Dispatch(ctx, "ok", map[string]string{"a": "b"})
	require.NoError(t, err)
	info, err := q.Dequeue(ctx, []string{jobx.DefaultQueue}, time.Second)
	require.NoError(t, err)
	client.Process(ctx, info)

	stored, err := q.GetJob(ctx, okID)
	require.NoError(t, err)
	assert.Equal(t, jobx.JobStatusCompleted, stored.Status)
	assert.Equal(t, []string{okID}, seen)

	for _, jobType := range []string{"bad", "panics", "unknown"} {
		id, err := client.Enqueue(ctx, jobx.Job{Type: jobType, MaxRetries: 1})
		require.NoError(t, err)
		info, err := q.Dequeue(ctx, []string{jobx.DefaultQueue}, time.Second)
		require.NoError(t, err)
		client.Process(ctx, info)

		stored, err := q.GetJob(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, jobx.JobStatusFailed, stored.Status, jobType)
		assert.NotEmpty(t, stored.Error, jobType)
	}
}
