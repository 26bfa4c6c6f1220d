package speechtotext

import "github.com/koscakluka/ema-dashboard/core/audio"

const DefaultLanguage = "zh-CN"

type SessionOptions struct {
	Language string
	// InterimResults requests non-final hypotheses while the user speaks.
	InterimResults bool
	EncodingInfo   audio.EncodingInfo
}

type SessionOption func(*SessionOptions)

func NewSessionOptions(opts ...SessionOption) SessionOptions {
	options := SessionOptions{
		Language:       DefaultLanguage,
		InterimResults: true,
		EncodingInfo:   audio.GetDefaultEncodingInfo(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

func WithLanguage(language string) SessionOption {
	return func(o *SessionOptions) {
		o.Language = language
	}
}

func WithInterimResults(enabled bool) SessionOption {
	return func(o *SessionOptions) {
		o.InterimResults = enabled
	}
}

func WithEncodingInfo(encodingInfo audio.EncodingInfo) SessionOption {
	return func(o *SessionOptions) {
		o.EncodingInfo = encodingInfo
	}
}
