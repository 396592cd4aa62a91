// Package jobxredis is the Redis backend for jobx. Ready jobs sit in a
// list per queue, delayed jobs in a sorted set scored by due time, and
// job records in plain keys with a TTL once they finish.
package jobxredis

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/Abraxas-365/superagent/pkg/jobx"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type RedisQueue struct {
	rdb       *redis.Client
	prefix    string
	retention time.Duration
}

type Option func(*RedisQueue)

// WithPrefix namespaces every key; the default is "superagent:jobs".
func WithPrefix(prefix string) Option {
	return func(q *RedisQueue) {
		if prefix != "" {
			q.prefix = prefix
		}
	}
}

// WithRetention sets how long finished job records are kept.
func WithRetention(d time.Duration) Option {
	return func(q *RedisQueue) { q.retention = d }
}

func NewRedisQueue(rdb *redis.Client, opts ...Option) *RedisQueue {
	q := &RedisQueue{rdb: rdb, prefix: "superagent:jobs", retention: 24 * time.Hour}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

func (q *RedisQueue) queueKey(name string) string     { return q.prefix + ":queue:" + name }
func (q *RedisQueue) scheduledKey(name string) string { return q.prefix + ":scheduled:" + name }
func (q *RedisQueue) jobKey(id string) string         { return q.prefix + ":job:" + id }

func (q *RedisQueue) Enqueue(ctx context.Context, job jobx.Job) (string, error) {
	return q.add(ctx, job, 0)
}

func (q *RedisQueue) EnqueueDelayed(ctx context.Context, job jobx.Job, delay time.Duration) (string, error) {
	return q.add(ctx, job, delay)
}

func (q *RedisQueue) add(ctx context.Context, job jobx.Job, delay time.Duration) (string, error) {
	id := uuid.NewString()
	now := time.Now().UTC()

	data, err := json.Marshal(jobx.NewJobInfo(id, job, now))
	if err != nil {
		return "", redisErrors.NewWithCause(ErrMarshal, err)
	}

	pipe := q.rdb.TxPipeline()
	pipe.Set(ctx, q.jobKey(id), data, 0)
	if delay > 0 {
		pipe.ZAdd(ctx, q.scheduledKey(job.Queue), redis.Z{Score: float64(now.Add(delay).Unix()), Member: id})
	} else {
		pipe.LPush(ctx, q.queueKey(job.Queue), id)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return "", redisErrors.NewWithCause(ErrEnqueue, err).
			WithDetail("queue", job.Queue).
			WithDetail("type", job.Type)
	}
	return id, nil
}

func (q *RedisQueue) GetJob(ctx context.Context, jobID string) (*jobx.JobInfo, error) {
	data, err := q.rdb.Get(ctx, q.jobKey(jobID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, redisErrors.New(ErrNotFound).WithDetail("job_id", jobID)
	}
	if err != nil {
		return nil, redisErrors.NewWithCause(ErrGetJob, err).WithDetail("job_id", jobID)
	}

	var info jobx.JobInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, redisErrors.NewWithCause(ErrUnmarshal, err).WithDetail("job_id", jobID)
	}
	return &info, nil
}

// Dequeue blocks up to timeout for a job. It returns nil, nil on timeout
// or cancellation.
func (q *RedisQueue) Dequeue(ctx context.Context, queues []string, timeout time.Duration) (*jobx.JobInfo, error) {
	keys := make([]string, len(queues))
	for i, name := range queues {
		keys[i] = q.queueKey(name)
	}

	result, err := q.rdb.BRPop(ctx, timeout, keys...).Result()
	if errors.Is(err, redis.Nil) || ctx.Err() != nil {
		return nil, nil
	}
	if err != nil {
		return nil, redisErrors.NewWithCause(ErrDequeue, err)
	}

	// result is [key, id].
	return q.update(ctx, result[1], 0, func(info *jobx.JobInfo) {
		info.Status = jobx.JobStatusActive
		info.Attempts++
	})
}

func (q *RedisQueue) Complete(ctx context.Context, jobID string, result []byte) error {
	_, err := q.update(ctx, jobID, q.retention, func(info *jobx.JobInfo) {
		info.Status = jobx.JobStatusCompleted
		info.Result = result
		info.Error = ""
	})
	return err
}

// Fail records errMsg and reports whether attempts remain.
func (q *RedisQueue) Fail(ctx context.Context, jobID string, errMsg string) (bool, error) {
	var retry bool
	_, err := q.update(ctx, jobID, 0, func(info *jobx.JobInfo) {
		retry = !info.Exhausted()
		info.Status = jobx.JobStatusFailed
		if retry {
			info.Status = jobx.JobStatusRetrying
		}
		info.Error = errMsg
	})
	if err != nil {
		return false, err
	}
	if !retry && q.retention > 0 {
		q.rdb.Expire(ctx, q.jobKey(jobID), q.retention)
	}
	return retry, nil
}

func (q *RedisQueue) Retry(ctx context.Context, jobID string, delay time.Duration) error {
	info, err := q.GetJob(ctx, jobID)
	if err != nil {
		return err
	}
	due := float64(time.Now().UTC().Add(delay).Unix())
	if err := q.rdb.ZAdd(ctx, q.scheduledKey(info.Queue), redis.Z{Score: due, Member: jobID}).Err(); err != nil {
		return redisErrors.NewWithCause(ErrRetry, err).WithDetail("job_id", jobID)
	}
	return nil
}

var promoteScript = redis.NewScript(`
local ids = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', ARGV[1])
for _, id in ipairs(ids) do
    redis.call('LPUSH', KEYS[2], id)
end
if #ids > 0 then
    redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', ARGV[1])
end
return #ids
`)

// PromoteScheduled moves due jobs to their ready list atomically.
func (q *RedisQueue) PromoteScheduled(ctx context.Context, queues []string) error {
	now := strconv.FormatInt(time.Now().UTC().Unix(), 10)
	for _, name := range queues {
		err := promoteScript.Run(ctx, q.rdb, []string{q.scheduledKey(name), q.queueKey(name)}, now).Err()
		if err != nil && !errors.Is(err, redis.Nil) {
			return redisErrors.NewWithCause(ErrPromote, err).WithDetail("queue", name)
		}
	}
	return nil
}

// Len reports how many jobs wait in the ready list of queue.
func (q *RedisQueue) Len(ctx context.Context, queue string) (int64, error) {
	n, err := q.rdb.LLen(ctx, q.queueKey(queue)).Result()
	if err != nil {
		return 0, redisErrors.NewWithCause(ErrGetJob, err).WithDetail("queue", queue)
	}
	return n, nil
}

func (q *RedisQueue) update(ctx context.Context, jobID string, ttl time.Duration, mutate func(*jobx.JobInfo)) (*jobx.JobInfo, error) {
	info, err := q.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	mutate(info)
	info.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(info)
	if err != nil {
		return nil, redisErrors.NewWithCause(ErrMarshal, err).WithDetail("job_id", jobID)
	}
	if err := q.rdb.Set(ctx, q.jobKey(jobID), data, ttl).Err(); err != nil {
		return nil, redisErrors.NewWithCause(ErrUpdate, err).WithDetail("job_id", jobID)
	}
	return info, nil
}
