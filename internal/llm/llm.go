// Package llm sends chat conversations to a completion service.
package llm

import "context"

// Roles used in chat messages.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a single chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Generator produces the assistant reply for a conversation. An empty
// reply from the service is returned as "" without error.
type Generator interface {
	Generate(ctx context.Context, messages []Message) (string, error)
	Model() string
}
