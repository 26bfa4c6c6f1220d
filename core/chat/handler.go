package chat

import (
	"encoding/json"
	"net/http"

	"github.com/koscakluka/ema-dashboard/core/llms"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Handler proxies chat requests to a model and streams the reply back as
// plain text chunks.
type Handler struct {
	provider llms.Streamer
}

func NewHandler(provider llms.Streamer) *Handler {
	return &Handler{provider: provider}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "proxy chat")
	defer span.End()

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var request Request
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid request body")
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	messages, err := PromptMessages(request)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		http.Error(w, "failed to build prompt", http.StatusInternalServerError)
		return
	}
	span.SetAttributes(
		attribute.Int("chat.messages", len(request.Messages)),
		attribute.String("chat.last_update", request.LastUpdate),
	)

	if request.Debug {
		logger.InfoContext(ctx, "[AI PROMPT][SERVER]",
			"lastUpdate", request.LastUpdate,
			"siteData", request.SiteData,
			"messages", request.Messages,
		)
	}

	flusher, _ := w.(http.Flusher)
	wroteHeader := false
	for fragment, err := range h.provider.StreamChat(ctx, messages) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			logger.ErrorContext(ctx, "chat stream failed", "error", err, "started", wroteHeader)
			if !wroteHeader {
				http.Error(w, "chat completion failed", http.StatusInternalServerError)
				return
			}
			// The status is already sent. Dropping the connection before the
			// final chunk makes the client's read fail instead of ending cleanly.
			panic(http.ErrAbortHandler)
		}

		if !wroteHeader {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.Header().Set("Cache-Control", "no-cache")
			w.WriteHeader(http.StatusOK)
			wroteHeader = true
		}
		if _, err := w.Write([]byte(fragment)); err != nil {
			logger.WarnContext(ctx, "client went away mid-stream", "error", err)
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}

	if !wroteHeader {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
	}
}
