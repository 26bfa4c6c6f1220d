package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/koscakluka/ema-dashboard/core/llms"
)

type providerStub struct {
	fragments []string
	err       error
	received  []llms.Message
}

func (p *providerStub) StreamChat(_ context.Context, messages []llms.Message, _ ...llms.StreamOption) llms.Stream {
	p.received = messages
	return func(yield func(string, error) bool) {
		for _, fragment := range p.fragments {
			if !yield(fragment, nil) {
				return
			}
		}
		if p.err != nil {
			yield("", p.err)
		}
	}
}

func postChat(t *testing.T, handler http.Handler, request Request) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(request)
	if err != nil {
		t.Fatalf("failed to encode request: %v", err)
	}
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewReader(body)))
	return recorder
}

func TestHandlerStreamsPlainText(t *testing.T) {
	provider := &providerStub{fragments: []string{"能", "源", "站点"}}
	recorder := postChat(t, NewHandler(provider), Request{
		Messages:   []llms.Message{{Role: llms.RoleUser, Content: "你好"}},
		LastUpdate: "10:00:00",
	})

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
	if got := recorder.Header().Get("Content-Type"); got != "text/plain; charset=utf-8" {
		t.Fatalf("unexpected content type %q", got)
	}
	if got := recorder.Body.String(); got != "能源站点" {
		t.Fatalf("expected streamed body %q, got %q", "能源站点", got)
	}
	if len(provider.received) != 2 || provider.received[0].Role != llms.RoleSystem {
		t.Fatalf("expected system prompt to be prepended, got %+v", provider.received)
	}
}

func TestHandlerReportsErrorBeforeFirstFragment(t *testing.T) {
	recorder := postChat(t, NewHandler(&providerStub{err: errors.New("upstream down")}), Request{})

	if recorder.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", recorder.Code)
	}
}

func TestHandlerRejectsInvalidRequests(t *testing.T) {
	handler := NewHandler(&providerStub{})

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/chat", nil))
	if recorder.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", recorder.Code)
	}

	recorder = httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewBufferString("{")))
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", recorder.Code)
	}
}

func TestHandlerAbortsStreamWhenProviderFailsMidReply(t *testing.T) {
	provider := &providerStub{fragments: []string{"能", "源"}, err: errors.New("model exploded")}
	server := httptest.NewServer(NewHandler(provider))
	defer server.Close()

	client := NewClient(server.URL, WithHTTPClient(server.Client()))
	text := ""
	var streamErr error
	for fragment, err := range client.StreamReply(context.Background(), Request{
		Messages: []llms.Message{{Role: llms.RoleUser, Content: "你好"}},
	}) {
		if err != nil {
			streamErr = err
			break
		}
		text += fragment
	}

	if streamErr == nil {
		t.Fatalf("expected the truncated reply to fail, got clean end after %q", text)
	}
	if text != "能源" {
		t.Fatalf("expected fragments before the failure, got %q", text)
	}
}
