package xfyun

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/koscakluka/ema-dashboard/core/audio"
	"github.com/koscakluka/ema-dashboard/core/texttospeech"
	"github.com/koscakluka/ema-dashboard/internal/utils"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// statusLastFrame marks the final frame of a request or response.
const statusLastFrame = 2

// AudioOutput plays synthesized PCM.
type AudioOutput interface {
	SendAudio(audio []byte) error
	ClearBuffer()
	// Mark calls callback once all audio sent before it has been played.
	Mark(name string, callback func(string)) error
}

// Player synthesizes speech over Xunfei's streaming websocket API and plays
// it on an AudioOutput.
type Player struct {
	signer  *Signer
	output  AudioOutput
	options texttospeech.SpeechOptions
	dialer  *websocket.Dialer

	mu      sync.Mutex
	current string
	conn    *websocket.Conn

	listeners utils.Listeners[texttospeech.Event]
}

type PlayerOption func(*Player)

func WithSpeechOptions(opts ...texttospeech.SpeechOption) PlayerOption {
	return func(p *Player) {
		for _, opt := range opts {
			opt(&p.options)
		}
	}
}

func WithDialer(dialer *websocket.Dialer) PlayerOption {
	return func(p *Player) {
		if dialer != nil {
			p.dialer = dialer
		}
	}
}

func NewPlayer(signer *Signer, output AudioOutput, opts ...PlayerOption) *Player {
	player := &Player{
		signer:  signer,
		output:  output,
		options: texttospeech.NewSpeechOptions(),
		dialer:  websocket.DefaultDialer,
	}
	for _, opt := range opts {
		opt(player)
	}
	return player
}

func (p *Player) Subscribe(handler func(texttospeech.Event)) func() {
	return p.listeners.Add(handler)
}

type synthesisRequest struct {
	Common struct {
		AppID string `json:"app_id"`
	} `json:"common"`
	Business synthesisBusiness `json:"business"`
	Data     struct {
		Status int    `json:"status"`
		Text   string `json:"text"`
	} `json:"data"`
}

type synthesisBusiness struct {
	Aue    string `json:"aue"`
	Auf    string `json:"auf"`
	Vcn    string `json:"vcn"`
	Speed  int    `json:"speed"`
	Volume int    `json:"volume"`
	Pitch  int    `json:"pitch"`
	Tte    string `json:"tte"`
}

type synthesisResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Sid     string `json:"sid"`
	Data    *struct {
		Audio  string `json:"audio"`
		Status int    `json:"status"`
	} `json:"data"`
}

func (p *Player) newRequest(text string) (synthesisRequest, error) {
	if p.options.EncodingInfo.Format != audio.EncodingLinear16 {
		return synthesisRequest{}, fmt.Errorf("unsupported encoding %q", p.options.EncodingInfo.Format.Name())
	}

	request := synthesisRequest{}
	request.Common.AppID = p.signer.AppID()
	request.Business = synthesisBusiness{
		Aue:    "raw",
		Auf:    fmt.Sprintf("audio/L16;rate=%d", p.options.EncodingInfo.SampleRate),
		Vcn:    p.options.Voice,
		Speed:  p.options.Speed,
		Volume: p.options.Volume,
		Pitch:  p.options.Pitch,
		Tte:    "UTF8",
	}
	request.Data.Status = statusLastFrame
	request.Data.Text = base64.StdEncoding.EncodeToString([]byte(text))
	return request, nil
}

// Speak cancels whatever is playing and starts synthesizing text. It returns
// once the synthesis request has been sent.
func (p *Player) Speak(ctx context.Context, utteranceID, text string) error {
	ctx, span := tracer.Start(ctx, "synthesize speech")
	defer span.End()
	span.SetAttributes(attribute.Int("tts.text_length", len([]rune(text))))

	if err := p.Cancel(); err != nil {
		logger.Warn("failed to cancel previous utterance", "error", err)
	}

	request, err := p.newRequest(text)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	signed, err := p.signer.Sign()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to sign synthesis url: %w", err)
	}

	conn, _, err := p.dialer.DialContext(ctx, signed.URL, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to connect to xunfei tts: %w", err)
	}
	if err := conn.WriteJSON(request); err != nil {
		conn.Close()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to send synthesis request: %w", err)
	}

	p.mu.Lock()
	p.current = utteranceID
	p.conn = conn
	p.mu.Unlock()

	go p.receive(utteranceID, conn)
	return nil
}

// Cancel stops the current utterance and drops its queued audio. No further
// events are emitted for it.
func (p *Player) Cancel() error {
	p.mu.Lock()
	conn := p.conn
	p.current = ""
	p.conn = nil
	p.mu.Unlock()

	if conn == nil {
		return nil
	}
	p.output.ClearBuffer()
	if err := conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}
	return nil
}

func (p *Player) isCurrent(utteranceID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current == utteranceID
}

// finish clears the utterance and reports whether it was still current.
func (p *Player) finish(utteranceID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current != utteranceID {
		return false
	}
	p.current = ""
	p.conn = nil
	return true
}

func (p *Player) fail(utteranceID string, err error) {
	if !p.finish(utteranceID) {
		return
	}
	logger.Warn("speech synthesis failed", "error", err, "utterance_id", utteranceID)
	p.output.ClearBuffer()
	p.listeners.Emit(texttospeech.NewFailedEvent(utteranceID, err))
}

func (p *Player) receive(utteranceID string, conn *websocket.Conn) {
	defer conn.Close()

	started := false
	for {
		var response synthesisResponse
		if err := conn.ReadJSON(&response); err != nil {
			p.fail(utteranceID, fmt.Errorf("synthesis stream interrupted: %w", err))
			return
		}
		if response.Code != 0 {
			p.fail(utteranceID, fmt.Errorf("synthesis failed with code %d: %s", response.Code, response.Message))
			return
		}
		if response.Data == nil {
			continue
		}

		chunk, err := base64.StdEncoding.DecodeString(response.Data.Audio)
		if err != nil {
			p.fail(utteranceID, fmt.Errorf("invalid synthesis audio: %w", err))
			return
		}
		if !p.isCurrent(utteranceID) {
			return
		}
		if len(chunk) > 0 {
			if err := p.output.SendAudio(chunk); err != nil {
				p.fail(utteranceID, fmt.Errorf("failed to play synthesized audio: %w", err))
				return
			}
			if !started {
				started = true
				p.listeners.Emit(texttospeech.NewStartedEvent(utteranceID))
			}
		}

		if response.Data.Status == statusLastFrame {
			p.awaitPlayback(utteranceID, started)
			return
		}
	}
}

// awaitPlayback ends the utterance once its audio has left the speaker.
func (p *Player) awaitPlayback(utteranceID string, started bool) {
	if !started {
		if p.finish(utteranceID) {
			p.listeners.Emit(texttospeech.NewEndedEvent(utteranceID))
		}
		return
	}

	err := p.output.Mark(utteranceID, func(string) {
		if p.finish(utteranceID) {
			p.listeners.Emit(texttospeech.NewEndedEvent(utteranceID))
		}
	})
	if err != nil {
		p.fail(utteranceID, errors.Join(errors.New("failed to track playback"), err))
	}
}
