package llms

import (
	"context"
	"iter"
	"strings"
)

// Stream yields reply text fragments in generation order. A non-nil error
// terminates the stream.
type Stream = iter.Seq2[string, error]

// Streamer is a chat model able to stream a reply to a conversation.
type Streamer interface {
	StreamChat(ctx context.Context, messages []Message, opts ...StreamOption) Stream
}

// Collect drains stream and returns the concatenated text.
func Collect(stream Stream) (string, error) {
	var b strings.Builder
	for fragment, err := range stream {
		if err != nil {
			return b.String(), err
		}
		b.WriteString(fragment)
	}
	return b.String(), nil
}
