// Package jobx runs background jobs from a queue backend with retries.
package jobx

import (
	"context"
	"sync"
	"time"

	"github.com/Abraxas-365/superagent/pkg/asyncx"
	"github.com/Abraxas-365/superagent/pkg/logx"
)

// HandlerFunc processes a job. A returned error fails the attempt.
type HandlerFunc func(ctx context.Context, job *JobInfo) error

type JobEnqueuer interface {
	Enqueue(ctx context.Context, job Job) (string, error)
	EnqueueDelayed(ctx context.Context, job Job, delay time.Duration) (string, error)
}

type JobStatusReader interface {
	GetJob(ctx context.Context, jobID string) (*JobInfo, error)
}

// JobProcessor is what the worker loop needs from a backend.
type JobProcessor interface {
	Dequeue(ctx context.Context, queues []string, timeout time.Duration) (*JobInfo, error)
	Complete(ctx context.Context, jobID string, result []byte) error
	Fail(ctx context.Context, jobID string, errMsg string) (retry bool, err error)
	Retry(ctx context.Context, jobID string, delay time.Duration) error
	PromoteScheduled(ctx context.Context, queues []string) error
}

type Queue interface {
	JobEnqueuer
	JobStatusReader
	JobProcessor
}

// Client enqueues jobs and, once started, processes them.
type Client struct {
	queue    Queue
	opts     WorkerOptions
	handlers map[string]HandlerFunc
	mu       sync.RWMutex
	running  bool
}

func NewClient(queue Queue, options ...WorkerOption) *Client {
	opts := defaultWorkerOptions()
	for _, o := range options {
		o(&opts)
	}
	return &Client{
		queue:    queue,
		opts:     opts,
		handlers: make(map[string]HandlerFunc),
	}
}

func (c *Client) Register(jobType string, handler HandlerFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[jobType] = handler
}

func (c *Client) Enqueue(ctx context.Context, job Job) (string, error) {
	return c.queue.Enqueue(ctx, job.normalized())
}

func (c *Client) EnqueueDelayed(ctx context.Context, job Job, delay time.Duration) (string, error) {
	return c.queue.EnqueueDelayed(ctx, job.normalized(), delay)
}

// Dispatch encodes payload and enqueues it as a job of jobType.
func (c *Client) Dispatch(ctx context.Context, jobType string, payload any) (string, error) {
	job, err := NewJob(jobType, payload)
	if err != nil {
		return "", err
	}
	return c.Enqueue(ctx, job)
}

func (c *Client) GetJob(ctx context.Context, jobID string) (*JobInfo, error) {
	return c.queue.GetJob(ctx, jobID)
}

// Start processes jobs until ctx is cancelled, then waits up to the
// shutdown timeout for in-flight jobs.
func (c *Client) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return jobxErrors.New(ErrAlreadyRunning)
	}
	c.running = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
	}()

	logx.WithFields(logx.Fields{
		"workers": c.opts.Concurrency,
		"queues":  c.opts.Queues,
	}).Info("jobx: workers started")

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.schedulerLoop(ctx)
	}()
	for i := range c.opts.Concurrency {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			c.workerLoop(ctx, id)
		}(i)
	}

	<-ctx.Done()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logx.Info("jobx: workers stopped")
		return nil
	case <-time.After(c.opts.ShutdownTimeout):
		return jobxErrors.New(ErrShutdownTimeout).WithDetail("timeout", c.opts.ShutdownTimeout.String())
	}
}

func (c *Client) schedulerLoop(ctx context.Context) {
	ticker := time.NewTicker(c.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.queue.PromoteScheduled(ctx, c.opts.Queues); err != nil {
				if ctx.Err() != nil {
					return
				}
				logx.WithError(err).Warn("jobx: failed to promote scheduled jobs")
			}
		}
	}
}

func (c *Client) workerLoop(ctx context.Context, id int) {
	for ctx.Err() == nil {
		job, err := c.queue.Dequeue(ctx, c.opts.Queues, c.opts.DequeueTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logx.WithError(err).Warnf("jobx: worker %d dequeue error", id)
			select {
			case <-ctx.Done():
				return
			case <-time.After(c.opts.PollInterval):
			}
			continue
		}
		if job == nil {
			continue
		}
		c.Process(ctx, job)
	}
}

// Process runs the handler for one dequeued job and records the outcome.
// In-flight jobs are not cancelled by ctx; only JobTimeout bounds them.
func (c *Client) Process(ctx context.Context, job *JobInfo) {
	c.mu.RLock()
	handler, ok := c.handlers[job.Type]
	c.mu.RUnlock()

	jobCtx := context.WithoutCancel(ctx)
	if c.opts.JobTimeout > 0 {
		var cancel context.CancelFunc
		jobCtx, cancel = context.WithTimeout(jobCtx, c.opts.JobTimeout)
		defer cancel()
	}

	log := logx.WithFields(logx.Fields{"job_id": job.ID, "type": job.Type, "attempt": job.Attempts})

	if !ok {
		log.Warn("jobx: no handler registered")
		if _, err := c.queue.Fail(jobCtx, job.ID, jobxErrors.New(ErrNoHandler).Error()); err != nil {
			log.WithError(err).Error("jobx: failed to mark job as failed")
		}
		return
	}

	err := asyncx.Safe(func() error { return handler(jobCtx, job) })
	if err == nil {
		if err := c.queue.Complete(jobCtx, job.ID, nil); err != nil {
			log.WithError(err).Error("jobx: failed to complete job")
		}
		return
	}

	log.WithError(err).Warn("jobx: job failed")
	retry, failErr := c.queue.Fail(jobCtx, job.ID, err.Error())
	if failErr != nil {
		log.WithError(failErr).Error("jobx: failed to mark job as failed")
		return
	}
	if retry {
		if err := c.queue.Retry(jobCtx, job.ID, c.opts.DefaultRetryDelay); err != nil {
			log.WithError(err).Error("jobx: failed to schedule retry")
		}
	}
}
