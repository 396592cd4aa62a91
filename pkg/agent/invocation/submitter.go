package invocation

import (
	"context"
	"sync"
	"time"

	"github.com/Abraxas-365/superagent/pkg/asyncx"
	"github.com/Abraxas-365/superagent/pkg/logx"
)

// Submitter runs fire-and-forget tasks after a response is produced.
// Failures are logged, never returned.
type Submitter interface {
	Submit(name string, task func(ctx context.Context) error)
}

// AsyncSubmitter runs each task on its own goroutine. Once Wait has been
// called it stops accepting tasks.
type AsyncSubmitter struct {
	timeout time.Duration

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func NewAsyncSubmitter(timeout time.Duration) *AsyncSubmitter {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &AsyncSubmitter{timeout: timeout}
}

func (s *AsyncSubmitter) Submit(name string, task func(ctx context.Context) error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		logx.WithFields(logx.Fields{"task": name}).Warn("Deferred task dropped; submitter is draining")
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()

	asyncx.Do(func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		if err := asyncx.Safe(func() error { return task(ctx) }); err != nil {
			logx.WithFields(logx.Fields{"task": name}).WithError(err).Error("Deferred task failed")
		}
	})
}

// Wait closes the submitter and blocks until submitted tasks finish or
// ctx is done.
func (s *AsyncSubmitter) Wait(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
