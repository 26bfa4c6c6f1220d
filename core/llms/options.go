package llms

type StreamOptions struct {
	Model       string
	Temperature *float32
	MaxTokens   int
}

type StreamOption func(*StreamOptions)

func WithModel(model string) StreamOption {
	return func(o *StreamOptions) {
		o.Model = model
	}
}

func WithTemperature(temperature float32) StreamOption {
	return func(o *StreamOptions) {
		o.Temperature = &temperature
	}
}

func WithMaxTokens(maxTokens int) StreamOption {
	return func(o *StreamOptions) {
		o.MaxTokens = maxTokens
	}
}
