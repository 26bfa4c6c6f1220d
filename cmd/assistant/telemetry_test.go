package main

import (
	"context"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/koscakluka/ema-dashboard/core/telemetry"
	"github.com/koscakluka/ema-dashboard/core/texttospeech/xfyun"
	"github.com/koscakluka/ema-dashboard/internal/httpserver"
)

func newDashboardStub(t *testing.T) (*httptest.Server, *telemetry.Feed) {
	t.Helper()
	feed := telemetry.NewFeed(telemetry.WithGenerator(telemetry.NewGenerator(rand.New(rand.NewPCG(3, 4)))))
	server := httpserver.New(feed, http.NotFoundHandler(), xfyun.NewSigner(xfyun.Credentials{}))
	httpServer := httptest.NewServer(server)
	t.Cleanup(func() {
		_ = server.Shutdown(context.Background())
		httpServer.Close()
	})
	return httpServer, feed
}

func TestFollowDeliversCurrentThenStreamedReadings(t *testing.T) {
	server, feed := newDashboardStub(t)
	first := feed.Refresh()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	readings := make(chan telemetry.Reading, 16)
	go newTelemetryClient(server.URL).Follow(ctx, func(reading telemetry.Reading) {
		select {
		case readings <- reading:
		default:
		}
	})

	select {
	case reading := <-readings:
		if reading.LastUpdate != first.LastUpdate || len(reading.Snapshot) == 0 {
			t.Fatalf("expected the current reading first, got %+v", reading)
		}
	case <-ctx.Done():
		t.Fatalf("timed out waiting for the current reading")
	}

	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			feed.Refresh()
		case reading := <-readings:
			if len(reading.Sites) == 0 || reading.Summary.TotalCount != len(reading.Sites) {
				t.Fatalf("expected a complete streamed reading, got %+v", reading)
			}
			return
		case <-ctx.Done():
			t.Fatalf("timed out waiting for a streamed reading")
		}
	}
}

func TestRequestRefreshIsAccepted(t *testing.T) {
	server, _ := newDashboardStub(t)

	if err := newTelemetryClient(server.URL).RequestRefresh(t.Context()); err != nil {
		t.Fatalf("unexpected refresh error: %v", err)
	}
}

func TestRequestRefreshReportsBadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	if err := newTelemetryClient(server.URL).RequestRefresh(t.Context()); err == nil {
		t.Fatalf("expected an error for a failed refresh")
	}
}
