package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/koscakluka/ema-dashboard/core/telemetry"
	"github.com/koscakluka/ema-dashboard/internal/httpserver"
	"github.com/tmaxmax/go-sse"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const defaultReconnectDelay = 3 * time.Second

// telemetryClient follows the backend's telemetry: one GET for the current
// reading, then the SSE stream until it drops.
type telemetryClient struct {
	baseURL        string
	httpClient     *http.Client
	reconnectDelay time.Duration
}

func newTelemetryClient(baseURL string) *telemetryClient {
	return &telemetryClient{
		baseURL:        strings.TrimSuffix(baseURL, "/"),
		httpClient:     &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		reconnectDelay: defaultReconnectDelay,
	}
}

// Follow calls onReading for every reading until ctx is done, reconnecting
// after failures.
func (c *telemetryClient) Follow(ctx context.Context, onReading func(telemetry.Reading)) {
	for {
		if err := c.fetch(ctx, onReading); err != nil && ctx.Err() == nil {
			slog.Warn("failed to fetch telemetry", "error", err)
		}
		if err := c.stream(ctx, onReading); err != nil && ctx.Err() == nil {
			slog.Warn("telemetry stream dropped", "error", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(c.reconnectDelay):
		}
	}
}

// RequestRefresh asks the backend for a fresh reading. The reading itself
// arrives over the stream.
func (c *telemetryClient) RequestRefresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/telemetry/refresh", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("refresh returned %s", resp.Status)
	}
	return nil
}

func (c *telemetryClient) fetch(ctx context.Context, onReading func(telemetry.Reading)) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/telemetry", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telemetry returned %s", resp.Status)
	}
	var body httpserver.TelemetryResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("failed to decode telemetry: %w", err)
	}
	onReading(body.Reading)
	return nil
}

func (c *telemetryClient) stream(ctx context.Context, onReading func(telemetry.Reading)) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/sse/telemetry", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telemetry stream returned %s", resp.Status)
	}

	for ev, err := range sse.Read(resp.Body, nil) {
		if err != nil {
			return err
		}
		if ev.Type != httpserver.TelemetryEventType {
			continue
		}

		var reading telemetry.Reading
		if err := json.Unmarshal([]byte(ev.Data), &reading); err != nil {
			slog.Warn("skipping malformed telemetry event", "error", err)
			continue
		}
		onReading(reading)
	}
	return nil
}
