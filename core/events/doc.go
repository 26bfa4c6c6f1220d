// Package events defines the typed assistant engine event contract.
//
// Event kinds are grouped by receiver-facing namespaces:
//
//   - panel.*
//   - user_input.*
//   - assistant_response.*
//   - assistant_playback.*
//   - conversation.*
//
// Semantics used across the package:
//
//   - Segment: append-only text piece emitted in stream order.
//   - Updated: mutable point-in-time snapshot that can change over time.
//   - Final: terminal immutable text for the current reply.
//   - Ended: lifecycle boundary indicating stream completion.
//
// panel events
//
//   - PanelOpened (panel.opened): the assistant panel became visible,
//     optionally with voice mode requested.
//   - PanelClosed (panel.closed): the assistant panel closed, either by the
//     user or because an exit phrase was recognized.
//
// user_input events
//
//   - VoiceModeChanged (user_input.voice_mode_changed): hands-free mode was
//     enabled or disabled.
//   - ListeningChanged (user_input.listening_changed): speech capture started
//     or stopped.
//   - UserTranscriptUpdated (user_input.transcript_updated): mutable snapshot
//     of the utterance currently being recognized.
//   - AdvisoryUpdated (user_input.advisory_updated): a user-facing capture
//     advisory appeared or was cleared.
//   - UtteranceBuffered (user_input.utterance_buffered): an utterance was
//     parked until the engine can dispatch it.
//   - UtteranceDiscarded (user_input.utterance_discarded): an utterance was
//     dropped because the assistant was busy.
//
// assistant_response events
//
//   - AssistantResponseStarted (assistant_response.started): a chat call was
//     dispatched.
//   - AssistantResponseSegment (assistant_response.segment): streamed reply
//     text fragment.
//   - AssistantResponseFinal (assistant_response.final): reply stream is
//     complete.
//   - AssistantResponseFailed (assistant_response.failed): chat call failed and
//     the apology message was recorded.
//
// assistant_playback events
//
//   - AssistantPlaybackStarted (assistant_playback.started): an utterance
//     became audible.
//   - AssistantPlaybackEnded (assistant_playback.ended): an utterance finished,
//     failed or was cancelled.
//
// conversation events
//
//   - DataReadyChanged (conversation.data_ready_changed): telemetry snapshot
//     availability changed.
//   - ConversationCleared (conversation.cleared): message log was cleared.
package events
