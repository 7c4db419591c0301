// Package session persists conversation history so chats survive
// restarts and can be resumed by id.
package session

import (
	"time"

	"github.com/google/uuid"
)

// Message roles stored with each conversation turn.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Session is one stored conversation.
type Session struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title,omitempty"`
	ModelName string    `json:"model_name,omitempty"`
	Game      string    `json:"game,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Message is a single conversation turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ValidRole reports whether role is one of the stored roles.
func ValidRole(role string) bool {
	switch role {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}
