package runtime

type options struct {
	callbacks     *Callbacks
	namespaces    []string
	topK          int
	historyTurns  int
	historyTokens int
	maxIterations int
}

func defaultOptions() options {
	return options{
		topK:          4,
		historyTurns:  20,
		historyTokens: 2000,
		maxIterations: 10,
	}
}

type Option func(*options)

// WithCallbacks turns on streaming of the final generation.
func WithCallbacks(cb Callbacks) Option {
	return func(o *options) { o.callbacks = &cb }
}

// WithDocuments attaches the vector namespaces of the agent's documents.
func WithDocuments(namespaces ...string) Option {
	return func(o *options) { o.namespaces = append(o.namespaces, namespaces...) }
}

func WithTopK(k int) Option {
	return func(o *options) {
		if k > 0 {
			o.topK = k
		}
	}
}

// WithHistory bounds how much persisted memory is replayed: at most turns
// messages fitting in maxTokens estimated tokens.
func WithHistory(turns, maxTokens int) Option {
	return func(o *options) {
		o.historyTurns = turns
		o.historyTokens = maxTokens
	}
}

func WithMaxIterations(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxIterations = n
		}
	}
}
