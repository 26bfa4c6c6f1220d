package deepgram

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
	"github.com/koscakluka/ema-dashboard/core/audio"
)

const (
	silenceChunkDuration = 50 * time.Millisecond
	silencePeriod        = time.Second
	keepAliveInterval    = 5 * time.Second
)

// keepAlive covers gaps in microphone audio. Short gaps are filled with
// silence so endpointing still fires; longer ones fall back to KeepAlive
// messages so Deepgram does not time the stream out.
func (s *Session) keepAlive(ctx context.Context, conn *websocket.Conn, encoding audio.EncodingInfo) {
	type keepAliveState string
	const (
		stateWaiting   keepAliveState = "waiting"
		stateSilence   keepAliveState = "silence"
		stateKeepAlive keepAliveState = "keepAlive"
	)

	ticker := time.NewTicker(silenceChunkDuration)
	defer ticker.Stop()

	chunk := make([]byte, encoding.BytesFor(silenceChunkDuration))
	for i := range chunk {
		chunk[i] = encoding.SilenceValue()
	}

	state := stateWaiting
	var silenceStartedAt, lastKeepAliveAt time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		idle := s.sinceAudio() > silenceChunkDuration
		switch state {
		case stateWaiting:
			if idle {
				state = stateSilence
				silenceStartedAt = time.Now()
			}

		case stateSilence:
			if !idle {
				state = stateWaiting
				continue
			}
			if time.Since(silenceStartedAt) >= silencePeriod {
				state = stateKeepAlive
				lastKeepAliveAt = time.Now()
				continue
			}
			if err := s.sendSilence(conn, chunk); err != nil {
				logger.Debug("failed to send silence to deepgram", "error", err)
			}

		case stateKeepAlive:
			if !idle {
				state = stateWaiting
				continue
			}
			if time.Since(lastKeepAliveAt) >= keepAliveInterval {
				lastKeepAliveAt = time.Now()
				if err := s.writeJSON(conn, controlMessage{Type: "KeepAlive"}); err != nil {
					logger.Debug("failed to send keep alive to deepgram", "error", err)
				}
			}
		}
	}
}
