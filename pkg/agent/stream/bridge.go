// Package stream hands tokens from an agent run to an HTTP response body.
package stream

import (
	"context"
	"iter"
	"sync"
)

// EndSentinel terminates a stream.
const EndSentinel = "[END]"

// Event is either a token or the terminal sentinel.
type Event struct {
	Data string
	End  bool
}

func Token(text string) Event { return Event{Data: text} }

func End() Event { return Event{Data: EndSentinel, End: true} }

// Frame renders the SSE frame for an event.
func (e Event) Frame() string {
	return "data: " + e.Data + "\n\n"
}

// Bridge is an unbounded FIFO with one producer and one consumer.
// Publish never blocks.
type Bridge struct {
	mu       sync.Mutex
	queue    []Event
	signal   chan struct{}
	consumed bool
}

func NewBridge() *Bridge {
	return &Bridge{signal: make(chan struct{}, 1)}
}

func (b *Bridge) Publish(e Event) {
	b.mu.Lock()
	b.queue = append(b.queue, e)
	b.mu.Unlock()

	select {
	case b.signal <- struct{}{}:
	default:
	}
}

// Consume yields SSE frames in publish order and stops after the frame
// of the terminal sentinel. Only the first call yields anything.
// Cancelling ctx stops the consumer; the producer is unaffected.
func (b *Bridge) Consume(ctx context.Context) iter.Seq[string] {
	return func(yield func(string) bool) {
		b.mu.Lock()
		if b.consumed {
			b.mu.Unlock()
			return
		}
		b.consumed = true
		b.mu.Unlock()

		for {
			e, ok := b.pop()
			if !ok {
				select {
				case <-ctx.Done():
					return
				case <-b.signal:
				}
				continue
			}
			if !yield(e.Frame()) || e.End {
				return
			}
		}
	}
}

func (b *Bridge) pop() (Event, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.queue) == 0 {
		return Event{}, false
	}
	e := b.queue[0]
	b.queue[0] = Event{}
	b.queue = b.queue[1:]
	return e, true
}
