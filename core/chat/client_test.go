package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/koscakluka/ema-dashboard/core/llms"
	"github.com/koscakluka/ema-dashboard/core/telemetry"
)

func TestClientStreamsFragmentsAndPostsRequest(t *testing.T) {
	var received Request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != chatPath || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		flusher := w.(http.Flusher)
		encoded := []byte("能源站点")
		// Split inside the multi-byte encoding of 源.
		for _, part := range [][]byte{encoded[:4], encoded[4:8], encoded[8:]} {
			_, _ = w.Write(part)
			flusher.Flush()
		}
	}))
	defer server.Close()

	client := NewClient(server.URL+"/", WithHTTPClient(server.Client()))
	fragments := []string{}
	for fragment, err := range client.StreamReply(context.Background(), Request{
		Messages:   []llms.Message{{Role: llms.RoleUser, Content: "功率"}},
		SiteData:   telemetry.Snapshot{"站点": {"状态": "在线"}},
		LastUpdate: "10:00:00",
		Debug:      true,
	}) {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		fragments = append(fragments, fragment)
	}

	if got := strings.Join(fragments, ""); got != "能源站点" {
		t.Fatalf("expected %q, got %q", "能源站点", got)
	}
	for _, fragment := range fragments {
		if !strings.Contains("能源站点", fragment) {
			t.Fatalf("fragment %q is not valid text", fragment)
		}
	}
	if received.LastUpdate != "10:00:00" || !received.Debug || len(received.Messages) != 1 {
		t.Fatalf("unexpected request received: %+v", received)
	}
}

func TestClientFailsOnBadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, WithHTTPClient(server.Client()))
	var streamErr error
	for _, err := range client.StreamReply(context.Background(), Request{}) {
		streamErr = err
	}
	if !errors.Is(streamErr, ErrBadStatus) {
		t.Fatalf("expected ErrBadStatus, got %v", streamErr)
	}
}

func TestCompleteUTF8Prefix(t *testing.T) {
	encoded := []byte("能源")
	testCases := []struct {
		input    []byte
		expected int
	}{
		{input: encoded, expected: 6},
		{input: encoded[:4], expected: 3},
		{input: encoded[:5], expected: 3},
		{input: []byte("ab"), expected: 2},
		{input: nil, expected: 0},
	}

	for _, testCase := range testCases {
		if got := completeUTF8Prefix(testCase.input); got != testCase.expected {
			t.Fatalf("expected %d for %v, got %d", testCase.expected, testCase.input, got)
		}
	}
}
