package deepgram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	api "github.com/deepgram/deepgram-go-sdk/pkg/api/listen/v1/websocket/interfaces"
	"github.com/gorilla/websocket"
	"github.com/koscakluka/ema-dashboard/core/audio"
	"github.com/koscakluka/ema-dashboard/core/speechtotext"
	"github.com/koscakluka/ema-dashboard/internal/utils"
	"go.opentelemetry.io/otel/metric"
)

const (
	DefaultEndpoint = "wss://api.deepgram.com/v1/listen"
	DefaultModel    = "nova-2"
)

var ErrMissingAPIKey = errors.New("deepgram api key not configured")

// AudioSource delivers microphone audio while capture is running.
type AudioSource interface {
	StartCapture(ctx context.Context, onAudio func(audio []byte)) error
	StopCapture() error
	EncodingInfo() audio.EncodingInfo
}

// Session is a continuous recognition session backed by Deepgram's streaming
// API. Each Start opens a new websocket; the session ends when the socket
// closes.
type Session struct {
	apiKey   string
	source   AudioSource
	endpoint string
	model    string
	dialer   *websocket.Dialer
	options  speechtotext.SessionOptions

	mu      sync.Mutex
	conn    *websocket.Conn
	cancel  context.CancelFunc
	aborted bool

	writeMu     sync.Mutex
	lastAudioAt time.Time

	transcript utteranceTranscript
	listeners  utils.Listeners[speechtotext.Event]
	sessions   metric.Int64Counter
}

type SessionOption func(*Session)

func WithEndpoint(endpoint string) SessionOption {
	return func(s *Session) {
		if endpoint != "" {
			s.endpoint = endpoint
		}
	}
}

func WithModel(model string) SessionOption {
	return func(s *Session) {
		if model != "" {
			s.model = model
		}
	}
}

func WithDialer(dialer *websocket.Dialer) SessionOption {
	return func(s *Session) {
		if dialer != nil {
			s.dialer = dialer
		}
	}
}

func WithSessionOptions(opts ...speechtotext.SessionOption) SessionOption {
	return func(s *Session) {
		for _, opt := range opts {
			opt(&s.options)
		}
	}
}

func NewSession(apiKey string, source AudioSource, opts ...SessionOption) *Session {
	session := &Session{
		apiKey:   apiKey,
		source:   source,
		endpoint: DefaultEndpoint,
		model:    DefaultModel,
		dialer:   websocket.DefaultDialer,
		options:  speechtotext.NewSessionOptions(),
	}
	if source != nil {
		session.options.EncodingInfo = source.EncodingInfo()
	}
	for _, opt := range opts {
		opt(session)
	}

	session.sessions, _ = meter.Int64Counter("deepgram.sessions",
		metric.WithDescription("Recognition sessions opened"))
	return session
}

func (s *Session) Subscribe(handler func(speechtotext.Event)) func() {
	return s.listeners.Add(handler)
}

func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		return nil
	}
	if s.apiKey == "" {
		return ErrMissingAPIKey
	}
	if s.source == nil {
		return errors.New("no audio source configured")
	}

	encoding, err := convertEncoding(s.options.EncodingInfo)
	if err != nil {
		return fmt.Errorf("invalid encoding: %w", err)
	}

	conn, err := s.connect(ctx, *encoding)
	if err != nil {
		return err
	}

	sessionCtx, cancel := context.WithCancel(ctx)
	s.conn = conn
	s.cancel = cancel
	s.aborted = false
	s.transcript.reset()
	s.markAudio()

	if err := s.source.StartCapture(sessionCtx, func(audio []byte) { s.sendAudio(conn, audio) }); err != nil {
		cancel()
		conn.Close()
		s.conn = nil
		s.cancel = nil
		return fmt.Errorf("failed to start audio capture: %w", err)
	}

	s.sessions.Add(sessionCtx, 1)
	go s.keepAlive(sessionCtx, conn, s.options.EncodingInfo)
	go s.readMessages(conn, cancel)
	return nil
}

// Stop asks Deepgram to flush pending audio. The session ends once the
// server closes the stream.
func (s *Session) Stop() error {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return nil
	}

	if err := s.source.StopCapture(); err != nil {
		logger.Warn("failed to stop audio capture", "error", err)
	}
	if err := s.writeJSON(conn, controlMessage{Type: string(api.TypeCloseStreamResponse)}); err != nil {
		return fmt.Errorf("failed to close deepgram stream: %w", err)
	}
	return nil
}

// Abort drops the connection without waiting for pending results.
func (s *Session) Abort() error {
	s.mu.Lock()
	conn := s.conn
	if conn != nil {
		s.aborted = true
	}
	s.mu.Unlock()
	if conn == nil {
		return nil
	}

	if err := s.source.StopCapture(); err != nil {
		logger.Warn("failed to stop audio capture", "error", err)
	}
	return conn.Close()
}

func (s *Session) connect(ctx context.Context, encoding encodingInfo) (*websocket.Conn, error) {
	listenURL, err := url.Parse(s.endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid deepgram endpoint: %w", err)
	}

	query := listenURL.Query()
	query.Set("encoding", encoding.Format)
	query.Set("sample_rate", strconv.Itoa(encoding.SampleRate))
	query.Set("channels", "1")
	query.Set("model", s.model)
	query.Set("language", s.options.Language)
	query.Set("smart_format", "true")
	query.Set("punctuate", "true")
	query.Set("interim_results", strconv.FormatBool(s.options.InterimResults))
	query.Set("utterance_end_ms", "1000")
	query.Set("endpointing", "300")
	query.Set("vad_events", "true")
	listenURL.RawQuery = query.Encode()

	conn, _, err := s.dialer.DialContext(ctx, listenURL.String(),
		http.Header{"Authorization": {"Token " + s.apiKey}})
	if err != nil {
		return nil, fmt.Errorf("failed to open socket connection to deepgram: %w", err)
	}
	return conn, nil
}

type controlMessage struct {
	Type string `json:"type"`
}

func (s *Session) writeJSON(conn *websocket.Conn, message any) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return conn.WriteJSON(message)
}

func (s *Session) sendAudio(conn *websocket.Conn, audio []byte) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.lastAudioAt = time.Now()
	if err := conn.WriteMessage(websocket.BinaryMessage, audio); err != nil {
		logger.Debug("failed to write audio to deepgram", "error", err)
	}
}

func (s *Session) sendSilence(conn *websocket.Conn, chunk []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return conn.WriteMessage(websocket.BinaryMessage, chunk)
}

func (s *Session) markAudio() {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.lastAudioAt = time.Now()
}

func (s *Session) sinceAudio() time.Duration {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return time.Since(s.lastAudioAt)
}

// readMessages runs until the socket closes and then ends the session.
func (s *Session) readMessages(conn *websocket.Conn, cancel context.CancelFunc) {
	var readErr error
	for {
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			readErr = err
			break
		}
		if msgType == websocket.TextMessage {
			s.processMessage(msg)
		}
	}

	cancel()
	conn.Close()

	s.mu.Lock()
	aborted := s.aborted
	if s.conn == conn {
		s.conn = nil
		s.cancel = nil
	}
	s.aborted = false
	s.mu.Unlock()

	if !aborted && !websocket.IsCloseError(readErr, websocket.CloseNormalClosure) {
		logger.Warn("deepgram connection lost", "error", readErr)
		if err := s.source.StopCapture(); err != nil {
			logger.Warn("failed to stop audio capture", "error", err)
		}
		s.listeners.Emit(speechtotext.NewFailedEvent(speechtotext.ErrorNetwork))
	}
	s.listeners.Emit(speechtotext.NewEndedEvent())
}
