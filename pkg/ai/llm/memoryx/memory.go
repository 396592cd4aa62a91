// Package memoryx holds conversation buffers used while an agent run is in
// flight and the budgeting helpers that decide how much persisted history
// fits into a prompt.
package memoryx

import "github.com/Abraxas-365/superagent/pkg/ai/llm"

// Memory is an ordered message buffer.
type Memory interface {
	Messages() ([]llm.Message, error)
	Add(message llm.Message) error
	Clear() error
}
