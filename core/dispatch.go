package orchestration

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"github.com/koscakluka/ema-dashboard/core/chat"
	events "github.com/koscakluka/ema-dashboard/core/events"
	"github.com/koscakluka/ema-dashboard/core/llms"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	bufferReasonInFlight     = "reply in flight"
	bufferReasonDataNotReady = "telemetry not ready"
)

// dispatch sends an utterance to the assistant, or parks it in the single
// pending slot when a reply is still streaming or telemetry is missing.
func (e *Engine) dispatch(utterance string) {
	text := strings.TrimSpace(utterance)
	if text == "" {
		return
	}

	if e.state.inFlight {
		e.buffer(text, bufferReasonInFlight)
		return
	}
	if !e.state.dataReady() {
		e.buffer(text, bufferReasonDataNotReady)
		return
	}
	if e.transport == nil {
		logger.Error("no chat transport configured, dropping utterance", "utterance", text)
		return
	}

	e.state.messages = append(e.state.messages, Message{ID: uuid.NewString(), Role: llms.RoleUser, Content: text})
	e.state.inFlight = true
	e.state.streamingID = ""
	e.state.replyDiscarded = false
	e.callSeq++

	request, err := e.chatRequest()
	if err != nil {
		logger.Error("failed to build chat request", "error", err)
		e.failReply(e.callSeq, err)
		return
	}

	e.metrics.dispatched.Add(e.ctx, 1)
	e.emit(events.NewAssistantResponseStarted(text))
	go e.streamReply(e.callSeq, request)
}

func (e *Engine) buffer(text, reason string) {
	if e.state.pendingTranscript != "" {
		logger.Debug("replacing pending utterance", "previous", e.state.pendingTranscript, "utterance", text)
	}
	e.state.pendingTranscript = text
	e.metrics.buffered.Add(e.ctx, 1)
	e.emit(events.NewUtteranceBuffered(text, reason))
}

// flushPending dispatches the pending utterance once nothing blocks it.
func (e *Engine) flushPending() {
	if e.state.inFlight || !e.state.dataReady() || e.state.pendingTranscript == "" {
		return
	}

	pending := e.state.pendingTranscript
	e.state.pendingTranscript = ""
	e.dispatch(pending)
}

func (e *Engine) chatRequest() (chat.Request, error) {
	history := []llms.Message{}
	if err := copier.Copy(&history, &e.state.messages); err != nil {
		return chat.Request{}, fmt.Errorf("failed to copy message history: %w", err)
	}

	return chat.Request{
		Messages:   history,
		SiteData:   e.state.snapshot.Clone(),
		LastUpdate: e.state.lastUpdate,
		Debug:      e.debugPrompt,
	}, nil
}

// streamReply runs off the engine goroutine and posts every fragment back in
// receive order, followed by exactly one completion.
func (e *Engine) streamReply(callID uint64, request chat.Request) {
	ctx, span := tracer.Start(e.ctx, "stream reply")
	defer span.End()
	span.SetAttributes(attribute.Int("assistant.history_length", len(request.Messages)))

	fragments := 0
	for fragment, err := range e.transport.StreamReply(ctx, request) {
		if err != nil {
			err = fmt.Errorf("chat transport failed: %w", err)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			e.runtime.post(func() { e.failReply(callID, err) })
			return
		}
		if fragment == "" {
			continue
		}
		if fragments == 0 {
			span.AddEvent("first fragment", trace.WithAttributes(attribute.Int64("assistant.call_id", int64(callID))))
		}
		fragments++
		e.runtime.post(func() { e.appendFragment(callID, fragment) })
	}

	span.SetAttributes(attribute.Int("assistant.fragments", fragments))
	e.runtime.post(func() { e.completeReply(callID) })
}

func (e *Engine) appendFragment(callID uint64, fragment string) {
	if callID != e.callSeq || !e.state.inFlight || e.state.replyDiscarded {
		return
	}

	if message := e.state.trailingStreamingMessage(); message != nil {
		message.Content += fragment
	} else {
		id := uuid.NewString()
		e.state.messages = append(e.state.messages, Message{ID: id, Role: llms.RoleAssistant, Content: fragment})
		e.state.streamingID = id
	}
	e.emit(events.NewAssistantResponseSegment(fragment))
}

func (e *Engine) completeReply(callID uint64) {
	if callID != e.callSeq || !e.state.inFlight {
		return
	}

	response := ""
	if message := e.state.trailingStreamingMessage(); message != nil && !e.state.replyDiscarded {
		response = message.Content
	}
	e.endCall()
	e.emit(events.NewAssistantResponseFinal(response))

	if response != "" && e.state.open && e.state.voiceModeEnabled {
		e.speak(response)
	}
	e.flushPending()
}

// failReply records the apology in place of the failed call's reply.
func (e *Engine) failReply(callID uint64, err error) {
	if callID != e.callSeq || !e.state.inFlight {
		return
	}

	logger.Error("assistant reply failed", "error", err)
	e.metrics.failed.Add(e.ctx, 1)
	if !e.state.replyDiscarded {
		if message := e.state.trailingStreamingMessage(); message != nil {
			message.Content = ApologyMessage
		} else {
			e.state.messages = append(e.state.messages, Message{ID: uuid.NewString(), Role: llms.RoleAssistant, Content: ApologyMessage})
		}
	}
	e.endCall()
	e.emit(events.NewAssistantResponseFailed(err))
	e.flushPending()
}

func (e *Engine) endCall() {
	e.state.inFlight = false
	e.state.streamingID = ""
	e.state.replyDiscarded = false
}
