package llms

// Role describes who a message in the conversation is from.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single message in a conversation as exchanged with a chat
// model or the chat proxy.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

func (r Role) IsValid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}
