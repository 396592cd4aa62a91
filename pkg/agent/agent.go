// Package agent holds the agent domain: agent records, prompts, memory
// turns, run traces and document attachments.
package agent

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Abraxas-365/superagent/pkg/kernel"
)

// Type selects the execution strategy of an agent.
type Type string

const (
	TypeReact          Type = "REACT"
	TypePlanSolve      Type = "PLANSOLVE"
	TypeConversational Type = "CONVERSATIONAL"
)

// LLMConfig is the model selection stored with an agent as a JSON blob.
type LLMConfig struct {
	Provider    string  `json:"provider"`
	Model       string  `json:"model,omitempty"`
	Temperature float32 `json:"temperature,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	APIKey      string  `json:"api_key,omitempty"`
}

func (c LLMConfig) Value() (driver.Value, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (c *LLMConfig) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*c = LLMConfig{}
		return nil
	case []byte:
		return json.Unmarshal(v, c)
	case string:
		return json.Unmarshal([]byte(v), c)
	default:
		return fmt.Errorf("agent: cannot scan %T into LLMConfig", src)
	}
}

// Agent is an agent configuration. Reads may join the bound prompt and
// the owner.
type Agent struct {
	ID        string        `json:"id" db:"id"`
	Name      string        `json:"name" db:"name"`
	Type      Type          `json:"type" db:"type"`
	LLM       LLMConfig     `json:"llm" db:"llm"`
	HasMemory bool          `json:"hasMemory" db:"has_memory"`
	PromptID  *string       `json:"promptId" db:"prompt_id"`
	UserID    kernel.UserID `json:"userId" db:"user_id"`
	CreatedAt time.Time     `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time     `json:"updatedAt" db:"updated_at"`

	Prompt *Prompt `json:"prompt,omitempty" db:"-"`
	User   *Owner  `json:"user,omitempty" db:"-"`
}

// Owner is the public view of the user owning a record.
type Owner struct {
	ID    kernel.UserID `json:"id"`
	Email string        `json:"email"`
	Name  string        `json:"name"`
}

// Prompt is a reusable system prompt template with {variable} placeholders.
type Prompt struct {
	ID             string        `json:"id" db:"id"`
	Name           string        `json:"name" db:"name"`
	Template       string        `json:"template" db:"template"`
	InputVariables []string      `json:"input_variables" db:"-"`
	UserID         kernel.UserID `json:"userId" db:"user_id"`
	CreatedAt      time.Time     `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time     `json:"updatedAt" db:"updated_at"`
}

type Author string

const (
	AuthorHuman Author = "HUMAN"
	AuthorAI    Author = "AI"
)

// MemoryTurn is one persisted message of an agent conversation.
type MemoryTurn struct {
	ID        string    `json:"id" db:"id"`
	AgentID   string    `json:"agentId" db:"agent_id"`
	Author    Author    `json:"author" db:"author"`
	Message   string    `json:"message" db:"message"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

func NewMemoryTurn(agentID string, author Author, message string) MemoryTurn {
	return MemoryTurn{
		ID:        kernel.NewID(),
		AgentID:   agentID,
		Author:    author,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
}

// Trace is the formatted record of one run's intermediate steps.
type Trace struct {
	ID        string          `json:"id" db:"id"`
	AgentID   string          `json:"agentId" db:"agent_id"`
	UserID    kernel.UserID   `json:"userId" db:"user_id"`
	Data      json.RawMessage `json:"data" db:"data"`
	CreatedAt time.Time       `json:"createdAt" db:"created_at"`
}

// AgentDocument attaches an ingested document to an agent.
type AgentDocument struct {
	ID         string    `json:"id" db:"id"`
	AgentID    string    `json:"agentId" db:"agent_id"`
	DocumentID string    `json:"documentId" db:"document_id"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}

// CreateAgentRequest is the body of POST /agents.
type CreateAgentRequest struct {
	Name      string    `json:"name"`
	Type      Type      `json:"type"`
	LLM       LLMConfig `json:"llm"`
	HasMemory bool      `json:"hasMemory"`
	PromptID  *string   `json:"promptId"`
}

type CreatePromptRequest struct {
	Name           string   `json:"name"`
	InputVariables []string `json:"input_variables"`
	Template       string   `json:"template"`
}

type AttachDocumentRequest struct {
	AgentID    string `json:"agentId"`
	DocumentID string `json:"documentId"`
}

// patchable maps PATCH body keys to agent columns.
var patchable = map[string]string{
	"name":      "name",
	"type":      "type",
	"llm":       "llm",
	"hasMemory": "has_memory",
	"promptId":  "prompt_id",
}

// AgentColumns translates a PATCH body into column updates. The llm blob
// is re-encoded as JSON.
func AgentColumns(body map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(body))
	for k, v := range body {
		col, ok := patchable[k]
		if !ok {
			return nil, ErrRegistry.New(ErrInvalidBody).WithDetail("field", k)
		}
		if col == "llm" {
			b, err := json.Marshal(v)
			if err != nil {
				return nil, ErrRegistry.NewWithCause(ErrInvalidBody, err).WithDetail("field", k)
			}
			v = string(b)
		}
		out[col] = v
	}
	if len(out) == 0 {
		return nil, ErrRegistry.New(ErrInvalidBody).WithDetail("reason", "empty patch")
	}
	return out, nil
}

var promptPatchable = map[string]string{
	"name":            "name",
	"template":        "template",
	"input_variables": "input_variables",
}

// PromptColumns translates a PATCH body into prompt column updates.
func PromptColumns(body map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(body))
	for k, v := range body {
		col, ok := promptPatchable[k]
		if !ok {
			return nil, ErrRegistry.New(ErrInvalidBody).WithDetail("field", k)
		}
		out[col] = v
	}
	if len(out) == 0 {
		return nil, ErrRegistry.New(ErrInvalidBody).WithDetail("reason", "empty patch")
	}
	return out, nil
}
