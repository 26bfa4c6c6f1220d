package events

const (
	// KindDataReadyChanged identifies telemetry availability changes.
	KindDataReadyChanged Kind = "conversation.data_ready_changed"
	// KindConversationCleared identifies the message log being cleared.
	KindConversationCleared Kind = "conversation.cleared"
)

// DataReadyChanged carries whether a telemetry snapshot is available.
type DataReadyChanged struct {
	Base
	Ready bool
}

// NewDataReadyChanged creates a data ready changed event.
func NewDataReadyChanged(ready bool) DataReadyChanged {
	return DataReadyChanged{Base: NewBase(KindDataReadyChanged), Ready: ready}
}

// ConversationCleared marks the message log being emptied.
type ConversationCleared struct{ Base }

// NewConversationCleared creates a conversation cleared event.
func NewConversationCleared() ConversationCleared {
	return ConversationCleared{Base: NewBase(KindConversationCleared)}
}
