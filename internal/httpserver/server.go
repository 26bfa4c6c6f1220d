package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/koscakluka/ema-dashboard/core/telemetry"
	"github.com/koscakluka/ema-dashboard/core/texttospeech/xfyun"
	"github.com/tmaxmax/go-sse"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/metric"
)

const (
	telemetryTopic = "telemetry"
	// TelemetryEventType is the SSE event type carrying a telemetry reading.
	TelemetryEventType = "telemetry"
)

// Server is the dashboard backend: telemetry, chat proxy and TTS signing.
type Server struct {
	feed   *telemetry.Feed
	chat   http.Handler
	signer *xfyun.Signer

	sseSrv      *sse.Server
	handler     http.Handler
	unsubscribe func()
	published   metric.Int64Counter
}

// TelemetryResponse is the body of GET /api/telemetry.
type TelemetryResponse struct {
	telemetry.Reading
	Trend []telemetry.TrendPoint `json:"trend"`
}

func New(feed *telemetry.Feed, chatHandler http.Handler, signer *xfyun.Signer) *Server {
	s := &Server{
		feed:   feed,
		chat:   chatHandler,
		signer: signer,
		sseSrv: &sse.Server{
			OnSession: func(session *sse.Session) (sse.Subscription, bool) {
				return sse.Subscription{
					Client:      session,
					LastEventID: session.LastEventID,
					Topics:      []string{sse.DefaultTopic, telemetryTopic},
				}, true
			},
		},
	}
	s.published, _ = meter.Int64Counter("telemetry.sse.published",
		metric.WithDescription("Telemetry readings published to SSE clients"))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /api/telemetry", s.handleTelemetry)
	mux.HandleFunc("POST /api/telemetry/refresh", s.handleRefresh)
	mux.Handle("GET /sse/telemetry", s.sseSrv)
	mux.Handle("/api/chat", s.chat)
	mux.HandleFunc("GET /api/tts-auth", s.handleTTSAuth)
	s.handler = otelhttp.NewHandler(mux, "dashboard")

	s.unsubscribe = feed.Subscribe(s.publishReading)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Shutdown says goodbye to SSE clients and closes their streams.
func (s *Server) Shutdown(ctx context.Context) error {
	s.unsubscribe()

	msg := &sse.Message{Type: sse.Type("close")}
	msg.AppendData("bye")
	_ = s.sseSrv.Publish(msg)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.sseSrv.Shutdown(ctx)
}

func (s *Server) publishReading(reading telemetry.Reading) {
	data, err := json.Marshal(reading)
	if err != nil {
		logger.Error("failed to encode telemetry reading", "error", err)
		return
	}

	msg := &sse.Message{Type: sse.Type(TelemetryEventType)}
	msg.AppendData(string(data))
	if err := s.sseSrv.Publish(msg, telemetryTopic); err != nil {
		logger.Warn("failed to publish telemetry", "error", err)
		return
	}
	s.published.Add(context.Background(), 1)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleTelemetry(w http.ResponseWriter, _ *http.Request) {
	reading, ok := s.feed.Latest()
	if !ok {
		reading = s.feed.Refresh()
	}
	writeJSON(w, http.StatusOK, TelemetryResponse{Reading: reading, Trend: s.feed.Trend()})
}

func (s *Server) handleRefresh(w http.ResponseWriter, _ *http.Request) {
	s.feed.RequestRefresh()
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleTTSAuth(w http.ResponseWriter, _ *http.Request) {
	signed, err := s.signer.Sign()
	if errors.Is(err, xfyun.ErrMissingCredentials) {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Missing Xunfei TTS credentials"})
		return
	}
	if err != nil {
		logger.Error("failed to sign tts url", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to sign tts url"})
		return
	}
	writeJSON(w, http.StatusOK, signed)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Warn("failed to write response", "error", err)
	}
}
