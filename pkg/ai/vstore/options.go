package vstore

type Options struct {
	Namespace string
	TopK      int
	MinScore  float32
	Filter    *Filter
	BatchSize int
}

type Option func(*Options)

func WithNamespace(namespace string) Option {
	return func(o *Options) { o.Namespace = namespace }
}

func WithTopK(k int) Option {
	return func(o *Options) { o.TopK = k }
}

func WithMinScore(score float32) Option {
	return func(o *Options) { o.MinScore = score }
}

func WithFilter(filter *Filter) Option {
	return func(o *Options) { o.Filter = filter }
}

func WithBatchSize(size int) Option {
	return func(o *Options) { o.BatchSize = size }
}

func DefaultOptions() *Options {
	return &Options{TopK: 4, BatchSize: 100}
}

func ApplyOptions(opts ...Option) *Options {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}
