package agentx

type StreamEventType string

const (
	EventText       StreamEventType = "text"
	EventToolCall   StreamEventType = "tool_call"
	EventToolResult StreamEventType = "tool_result"
	EventError      StreamEventType = "error"
)

// StreamEvent is emitted while a streamed run progresses. Only the fields
// relevant to Type are set.
type StreamEvent struct {
	Type StreamEventType

	Content string

	ToolCallID string
	ToolName   string
	ToolInput  string
	ToolOutput string

	Err error
}

type StreamHandler func(event StreamEvent)
