package httpserver

import (
	"context"
	"encoding/json"
	"io"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/koscakluka/ema-dashboard/core/telemetry"
	"github.com/koscakluka/ema-dashboard/core/texttospeech/xfyun"
	"github.com/tmaxmax/go-sse"
)

type chatHandlerStub struct {
	calls atomic.Int32
}

func (h *chatHandlerStub) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	h.calls.Add(1)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("你好"))
}

func newTestServer(t *testing.T, credentials xfyun.Credentials) (*httptest.Server, *telemetry.Feed, *chatHandlerStub) {
	t.Helper()
	feed := telemetry.NewFeed(telemetry.WithGenerator(telemetry.NewGenerator(rand.New(rand.NewPCG(1, 2)))))
	chat := &chatHandlerStub{}
	server := New(feed, chat, xfyun.NewSigner(credentials))
	httpServer := httptest.NewServer(server)
	t.Cleanup(func() {
		_ = server.Shutdown(context.Background())
		httpServer.Close()
	})
	return httpServer, feed, chat
}

func TestHealth(t *testing.T) {
	server, _, _ := newTestServer(t, xfyun.Credentials{})

	resp, err := http.Get(server.URL + "/healthz")
	if err != nil {
		t.Fatalf("unexpected request error: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestTelemetryReturnsLatestReading(t *testing.T) {
	server, feed, _ := newTestServer(t, xfyun.Credentials{})
	reading := feed.Refresh()

	resp, err := http.Get(server.URL + "/api/telemetry")
	if err != nil {
		t.Fatalf("unexpected request error: %v", err)
	}
	defer resp.Body.Close()

	var body TelemetryResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.LastUpdate != reading.LastUpdate || len(body.Snapshot) != len(telemetry.DefaultSites) {
		t.Fatalf("expected latest reading, got %+v", body.Reading)
	}
	if len(body.Trend) != 1 {
		t.Fatalf("expected one trend point, got %d", len(body.Trend))
	}
}

func TestTelemetryRefreshesWhenEmpty(t *testing.T) {
	server, feed, _ := newTestServer(t, xfyun.Credentials{})

	resp, err := http.Get(server.URL + "/api/telemetry")
	if err != nil {
		t.Fatalf("unexpected request error: %v", err)
	}
	resp.Body.Close()
	if _, ok := feed.Latest(); !ok {
		t.Fatalf("expected a reading to be generated on demand")
	}
}

func TestRefreshIsAccepted(t *testing.T) {
	server, _, _ := newTestServer(t, xfyun.Credentials{})

	resp, err := http.Post(server.URL+"/api/telemetry/refresh", "application/json", nil)
	if err != nil {
		t.Fatalf("unexpected request error: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}

	resp, err = http.Get(server.URL + "/api/telemetry/refresh")
	if err != nil {
		t.Fatalf("unexpected request error: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 for GET, got %d", resp.StatusCode)
	}
}

func TestChatIsDelegated(t *testing.T) {
	server, _, chat := newTestServer(t, xfyun.Credentials{})

	resp, err := http.Post(server.URL+"/api/chat", "application/json", strings.NewReader(`{"messages":[]}`))
	if err != nil {
		t.Fatalf("unexpected request error: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if chat.calls.Load() != 1 || string(body) != "你好" {
		t.Fatalf("expected chat handler to answer, got %d calls and %q", chat.calls.Load(), body)
	}
}

func TestTTSAuthWithoutCredentials(t *testing.T) {
	server, _, _ := newTestServer(t, xfyun.Credentials{AppID: "app"})

	resp, err := http.Get(server.URL + "/api/tts-auth")
	if err != nil {
		t.Fatalf("unexpected request error: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if strings.TrimSpace(string(body)) != `{"error":"Missing Xunfei TTS credentials"}` {
		t.Fatalf("unexpected body %s", body)
	}
}

func TestTTSAuthSignsURL(t *testing.T) {
	server, _, _ := newTestServer(t, xfyun.Credentials{AppID: "app", APIKey: "key", APISecret: "secret"})

	resp, err := http.Get(server.URL + "/api/tts-auth")
	if err != nil {
		t.Fatalf("unexpected request error: %v", err)
	}
	defer resp.Body.Close()

	var signed xfyun.SignedURL
	if err := json.NewDecoder(resp.Body).Decode(&signed); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if signed.AppID != "app" || !strings.HasPrefix(signed.URL, xfyun.DefaultEndpoint+"?") {
		t.Fatalf("unexpected signed url %+v", signed)
	}
}

func TestTelemetryStreamPublishesReadings(t *testing.T) {
	server, feed, _ := newTestServer(t, xfyun.Credentials{})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	go func() {
		ticker := time.NewTicker(20 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				feed.Refresh()
			}
		}
	}()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/sse/telemetry", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("unexpected request error: %v", err)
	}
	defer resp.Body.Close()

	for ev, err := range sse.Read(resp.Body, nil) {
		if err != nil {
			t.Fatalf("failed to read stream: %v", err)
		}
		if ev.Type != TelemetryEventType {
			continue
		}

		var reading telemetry.Reading
		if err := json.Unmarshal([]byte(ev.Data), &reading); err != nil {
			t.Fatalf("failed to decode reading: %v", err)
		}
		if reading.LastUpdate == "" || len(reading.Snapshot) == 0 {
			t.Fatalf("expected a complete reading, got %+v", reading)
		}
		return
	}
	t.Fatalf("stream ended without a telemetry event")
}
