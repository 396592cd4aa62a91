package llm

// ChatOptions are the generation settings understood by every provider.
// Providers ignore fields they do not support.
type ChatOptions struct {
	Model       string
	Temperature float32
	TopP        float32
	MaxTokens   int
	Stop        []string
	User        string
	Tools       []Tool
	ToolChoice  any
	JSONMode    bool
}

type Option func(*ChatOptions)

func DefaultOptions() *ChatOptions {
	return &ChatOptions{}
}

// Apply folds opts over a fresh option set whose model defaults to model.
func Apply(model string, opts ...Option) *ChatOptions {
	o := DefaultOptions()
	o.Model = model
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func WithModel(model string) Option {
	return func(o *ChatOptions) {
		if model != "" {
			o.Model = model
		}
	}
}

func WithTemperature(t float32) Option {
	return func(o *ChatOptions) { o.Temperature = t }
}

func WithTopP(p float32) Option {
	return func(o *ChatOptions) { o.TopP = p }
}

func WithMaxTokens(n int) Option {
	return func(o *ChatOptions) { o.MaxTokens = n }
}

func WithStop(stop ...string) Option {
	return func(o *ChatOptions) { o.Stop = stop }
}

func WithUser(user string) Option {
	return func(o *ChatOptions) { o.User = user }
}

func WithTools(tools ...Tool) Option {
	return func(o *ChatOptions) { o.Tools = tools }
}

// WithToolChoice accepts "auto", "none" or "required".
func WithToolChoice(choice any) Option {
	return func(o *ChatOptions) { o.ToolChoice = choice }
}

func WithJSONMode() Option {
	return func(o *ChatOptions) { o.JSONMode = true }
}
