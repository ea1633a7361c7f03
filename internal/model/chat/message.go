package chat

import (
	"strings"
	"time"
)

// Sender values for a message turn.
const (
	SenderUser      = "user"
	SenderCompanion = "companion"
)

// Message persists individual turns of a journaling conversation.
type Message struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	Emotion   string    `json:"emotion,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// IsUser reports whether the turn was authored by the journaling user.
func (m Message) IsUser() bool {
	return m.Sender == SenderUser
}

// UserText concatenates the user-authored turns in chronological order.
// This is the input both the classifier and the diary synthesizer score.
func UserText(messages []Message) string {
	parts := make([]string, 0, len(messages))
	for _, m := range messages {
		if m.IsUser() && strings.TrimSpace(m.Content) != "" {
			parts = append(parts, m.Content)
		}
	}
	return strings.Join(parts, " ")
}
