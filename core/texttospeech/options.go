package texttospeech

import "github.com/koscakluka/ema-dashboard/core/audio"

const (
	DefaultVoice = "xiaoyan"
	// DefaultSpeed is slightly faster than the engine's neutral 50.
	DefaultSpeed  = 60
	DefaultVolume = 50
	DefaultPitch  = 50
)

type SpeechOptions struct {
	Voice  string
	Speed  int
	Volume int
	Pitch  int

	EncodingInfo audio.EncodingInfo
}

type SpeechOption func(*SpeechOptions)

func NewSpeechOptions(opts ...SpeechOption) SpeechOptions {
	options := SpeechOptions{
		Voice:        DefaultVoice,
		Speed:        DefaultSpeed,
		Volume:       DefaultVolume,
		Pitch:        DefaultPitch,
		EncodingInfo: audio.GetDefaultEncodingInfo(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

func WithVoice(voice string) SpeechOption {
	return func(o *SpeechOptions) {
		if voice != "" {
			o.Voice = voice
		}
	}
}

func WithSpeed(speed int) SpeechOption {
	return func(o *SpeechOptions) { o.Speed = clampLevel(speed) }
}

func WithVolume(volume int) SpeechOption {
	return func(o *SpeechOptions) { o.Volume = clampLevel(volume) }
}

func WithPitch(pitch int) SpeechOption {
	return func(o *SpeechOptions) { o.Pitch = clampLevel(pitch) }
}

func WithEncodingInfo(encodingInfo audio.EncodingInfo) SpeechOption {
	return func(o *SpeechOptions) {
		if encodingInfo.IsZero() {
			return
		}
		o.EncodingInfo = encodingInfo
	}
}

func clampLevel(v int) int {
	return min(max(v, 0), 100)
}
