package domain

import "context"

// ChatRole identifies the author of a conversational turn.
type ChatRole string

// Chat roles.
const (
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
)

// ChatMessage is one prior conversational turn.
type ChatMessage struct {
	Role    ChatRole
	Content string
}

// Completer is the text-generation boundary. It receives a fully assembled
// prompt and returns a single text response consumed verbatim.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
