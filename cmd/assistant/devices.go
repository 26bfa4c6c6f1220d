package main

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/koscakluka/ema-dashboard/core/audio"
	"github.com/koscakluka/ema-dashboard/core/audio/miniaudio"
	"github.com/koscakluka/ema-dashboard/core/speechtotext"
	"github.com/koscakluka/ema-dashboard/core/speechtotext/deepgram"
	"github.com/koscakluka/ema-dashboard/core/texttospeech"
	"github.com/koscakluka/ema-dashboard/core/texttospeech/xfyun"
	"github.com/koscakluka/ema-dashboard/internal/config"
)

var errVoiceDisabled = errors.New("DEEPGRAM_API_KEY is not set")

// voiceStack holds the audio devices and the sessions built on them. Any of
// player and wakeSession may be nil.
type voiceStack struct {
	device      *miniaudio.Client
	session     *deepgram.Session
	wakeSession *deepgram.Session
	player      *xfyun.Player
}

func newVoiceStack(cfg config.Config) (*voiceStack, error) {
	if cfg.DeepgramAPIKey == "" {
		return nil, errVoiceDisabled
	}

	device, err := miniaudio.NewClient()
	if err != nil {
		return nil, fmt.Errorf("failed to open audio devices: %w", err)
	}
	mic := newSharedCapture(device)
	encodingInfo := device.EncodingInfo()

	stack := &voiceStack{device: device}
	stack.session = deepgram.NewSession(cfg.DeepgramAPIKey, mic.tap(),
		deepgram.WithSessionOptions(speechtotext.WithEncodingInfo(encodingInfo)))
	stack.wakeSession = deepgram.NewSession(cfg.DeepgramAPIKey, mic.tap(),
		deepgram.WithSessionOptions(
			speechtotext.WithEncodingInfo(encodingInfo),
			speechtotext.WithInterimResults(false),
		))

	if cfg.TTS.Complete() {
		stack.player = xfyun.NewPlayer(xfyun.NewSigner(cfg.TTS), device,
			xfyun.WithSpeechOptions(texttospeech.WithEncodingInfo(encodingInfo)))
	}
	return stack, nil
}

func (s *voiceStack) Close() {
	s.device.Close()
}

// sharedCapture lets several recognition sessions read one microphone. The
// device runs while at least one tap is started.
type sharedCapture struct {
	source deepgram.AudioSource

	// lifecycle serialises starting and stopping the device. mu only guards
	// receivers, so the device callback never waits on a device stop.
	lifecycle sync.Mutex
	mu        sync.Mutex
	receivers map[*captureTap]func([]byte)
}

func newSharedCapture(source deepgram.AudioSource) *sharedCapture {
	return &sharedCapture{
		source:    source,
		receivers: map[*captureTap]func([]byte){},
	}
}

func (s *sharedCapture) tap() *captureTap {
	return &captureTap{shared: s}
}

func (s *sharedCapture) start(ctx context.Context, tap *captureTap, onAudio func([]byte)) error {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	s.mu.Lock()
	first := len(s.receivers) == 0
	s.receivers[tap] = onAudio
	s.mu.Unlock()
	if !first {
		return nil
	}

	if err := s.source.StartCapture(ctx, s.fanOut); err != nil {
		s.mu.Lock()
		delete(s.receivers, tap)
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *sharedCapture) stop(tap *captureTap) error {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	s.mu.Lock()
	_, ok := s.receivers[tap]
	delete(s.receivers, tap)
	last := ok && len(s.receivers) == 0
	s.mu.Unlock()

	if !last {
		return nil
	}
	return s.source.StopCapture()
}

func (s *sharedCapture) fanOut(chunk []byte) {
	s.mu.Lock()
	receivers := make([]func([]byte), 0, len(s.receivers))
	for _, receiver := range s.receivers {
		receivers = append(receivers, receiver)
	}
	s.mu.Unlock()

	for _, receiver := range receivers {
		receiver(chunk)
	}
}

// captureTap is one consumer's view of a sharedCapture.
type captureTap struct {
	shared *sharedCapture
}

func (t *captureTap) StartCapture(ctx context.Context, onAudio func([]byte)) error {
	return t.shared.start(ctx, t, onAudio)
}

func (t *captureTap) StopCapture() error {
	return t.shared.stop(t)
}

func (t *captureTap) EncodingInfo() audio.EncodingInfo {
	return t.shared.source.EncodingInfo()
}
