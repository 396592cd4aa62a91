package memoryx

import (
	"sync"

	"github.com/Abraxas-365/superagent/pkg/ai/llm"
)

// InMemoryMemory keeps messages in a slice. A leading system message
// survives Clear.
type InMemoryMemory struct {
	mu       sync.RWMutex
	messages []llm.Message
}

// NewInMemoryMemory seeds the buffer with the given messages.
func NewInMemoryMemory(seed ...llm.Message) *InMemoryMemory {
	m := &InMemoryMemory{}
	m.messages = append(m.messages, seed...)
	return m
}

func (m *InMemoryMemory) Messages() ([]llm.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]llm.Message, len(m.messages))
	copy(out, m.messages)
	return out, nil
}

func (m *InMemoryMemory) Add(message llm.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, message)
	return nil
}

func (m *InMemoryMemory) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.messages) > 0 && m.messages[0].Role == llm.RoleSystem {
		m.messages = m.messages[:1:1]
		return nil
	}
	m.messages = nil
	return nil
}

// Since returns the messages added after the first n.
func (m *InMemoryMemory) Since(n int) []llm.Message {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if n >= len(m.messages) {
		return nil
	}
	out := make([]llm.Message, len(m.messages)-n)
	copy(out, m.messages[n:])
	return out
}
