package deepgram

import (
	"encoding/json"
	"strings"
	"sync"

	api "github.com/deepgram/deepgram-go-sdk/pkg/api/listen/v1/websocket/interfaces"
	"github.com/koscakluka/ema-dashboard/core/speechtotext"
)

// utteranceTranscript joins the final segments of the utterance being spoken.
type utteranceTranscript struct {
	mu         sync.Mutex
	finals     string
	unfinished bool
}

func (t *utteranceTranscript) reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.finals = ""
	t.unfinished = false
}

func (t *utteranceTranscript) addFinal(segment string) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.finals += segment
	t.unfinished = true
	return t.finals
}

func (t *utteranceTranscript) withInterim(segment string) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.unfinished = true
	return t.finals + segment
}

// end closes the utterance and returns its text when anything was pending.
func (t *utteranceTranscript) end() (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.unfinished {
		return "", false
	}
	transcript := t.finals
	t.finals = ""
	t.unfinished = false
	return transcript, transcript != ""
}

func (s *Session) processMessage(msg []byte) {
	var parsedMsg struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(msg, &parsedMsg); err != nil {
		logger.Warn("failed to unmarshal deepgram message", "error", err)
		return
	}

	switch api.TypeResponse(parsedMsg.Type) {
	case api.TypeMessageResponse:
		var msgResp api.MessageResponse
		if err := json.Unmarshal(msg, &msgResp); err != nil {
			logger.Warn("failed to unmarshal deepgram transcript", "error", err)
			return
		}
		s.onTranscript(msgResp)

	case api.TypeUtteranceEndResponse:
		s.onUtteranceEnd()

	case api.TypeSpeechStartedResponse:
		logger.Debug("deepgram detected speech")
	}
}

func (s *Session) onTranscript(msgResp api.MessageResponse) {
	segment := ""
	if len(msgResp.Channel.Alternatives) > 0 {
		segment = strings.TrimSpace(msgResp.Channel.Alternatives[0].Transcript)
	}

	if msgResp.IsFinal {
		if segment != "" {
			transcript := s.transcript.addFinal(segment)
			if !msgResp.SpeechFinal {
				s.listeners.Emit(speechtotext.NewResultEvent(transcript, false))
			}
		}
		if msgResp.SpeechFinal {
			s.onUtteranceEnd()
		}
		return
	}

	if segment != "" && s.options.InterimResults {
		s.listeners.Emit(speechtotext.NewResultEvent(s.transcript.withInterim(segment), false))
	}
}

func (s *Session) onUtteranceEnd() {
	if transcript, ok := s.transcript.end(); ok {
		s.listeners.Emit(speechtotext.NewResultEvent(transcript, true))
	}
}
