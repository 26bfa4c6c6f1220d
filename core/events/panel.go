package events

const (
	// KindPanelOpened identifies the assistant panel becoming visible.
	KindPanelOpened Kind = "panel.opened"
	// KindPanelClosed identifies the assistant panel closing.
	KindPanelClosed Kind = "panel.closed"
)

type PanelCloseReason string

const (
	PanelCloseReasonUser       PanelCloseReason = "user"
	PanelCloseReasonExitPhrase PanelCloseReason = "exit_phrase"
	PanelCloseReasonShutdown   PanelCloseReason = "shutdown"
)

// PanelOpened marks the panel opening. VoiceMode reports whether hands-free
// mode was requested on open.
type PanelOpened struct {
	Base
	VoiceMode bool
}

// NewPanelOpened creates a panel opened event.
func NewPanelOpened(voiceMode bool) PanelOpened {
	return PanelOpened{Base: NewBase(KindPanelOpened), VoiceMode: voiceMode}
}

// PanelClosed marks the panel closing.
type PanelClosed struct {
	Base
	Reason PanelCloseReason
}

// NewPanelClosed creates a panel closed event.
func NewPanelClosed(reason PanelCloseReason) PanelClosed {
	return PanelClosed{Base: NewBase(KindPanelClosed), Reason: reason}
}
