package stream

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(ctx context.Context, b *Bridge) []string {
	var out []string
	for frame := range b.Consume(ctx) {
		out = append(out, frame)
	}
	return out
}

func TestConsumeYieldsInOrderUntilEnd(t *testing.T) {
	b := NewBridge()
	b.Publish(Token("Hel"))
	b.Publish(Token("lo"))
	b.Publish(End())
	b.Publish(Token("ignored"))

	frames := collect(context.Background(), b)
	assert.Equal(t, []string{"data: Hel\n\n", "data: lo\n\n", "data: [END]\n\n"}, frames)
}

func TestConsumeIsSinglePass(t *testing.T) {
	b := NewBridge()
	b.Publish(End())

	require.Len(t, collect(context.Background(), b), 1)
	assert.Empty(t, collect(context.Background(), b))
}

func TestConsumeWaitsForProducer(t *testing.T) {
	b := NewBridge()
	go func() {
		for _, tok := range []string{"a", "b", "c"} {
			time.Sleep(5 * time.Millisecond)
			b.Publish(Token(tok))
		}
		b.Publish(End())
	}()

	frames := collect(context.Background(), b)
	assert.Equal(t, []string{"data: a\n\n", "data: b\n\n", "data: c\n\n", "data: [END]\n\n"}, frames)
}

func TestCancelStopsConsumerOnly(t *testing.T) {
	b := NewBridge()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan []string)
	go func() { done <- collect(ctx, b) }()

	b.Publish(Token("x"))
	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case frames := <-done:
		assert.Equal(t, []string{"data: x\n\n"}, frames)
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop after cancel")
	}

	// the producer keeps publishing without blocking
	for i := 0; i < 100; i++ {
		b.Publish(Token("late"))
	}
}

func TestEmptyTokenFrame(t *testing.T) {
	assert.Equal(t, "data: \n\n", Token("").Frame())
	assert.True(t, End().End)
}
