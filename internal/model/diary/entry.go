package diary

import (
	"time"

	"github.com/sylvieyl/heartlog/backend/internal/analysis/emotion"
	"github.com/sylvieyl/heartlog/backend/internal/model/chat"
)

// Entry is one finalized diary record distilled from a chat session.
// Immutable once generated; only the photo reference may be attached later.
type Entry struct {
	ID        string          `json:"id"`
	UserID    string          `json:"userId"`
	SessionID string          `json:"sessionId"`
	Date      time.Time       `json:"date"`
	Messages  []chat.Message  `json:"chatMessages"`
	Generated string          `json:"generatedEntry"`
	Emotion   emotion.Emotion `json:"emotion"`
	PhotoKey  string          `json:"photoKey,omitempty"`
	Summary   string          `json:"summary"`
	CreatedAt time.Time       `json:"createdAt"`
}

// CalendarDay aggregates what the calendar view renders per date.
type CalendarDay struct {
	Date    string        `json:"date"`
	EntryID string        `json:"entryId"`
	Emotion emotion.Label `json:"emotion"`
	Emoji   string        `json:"emoji"`
	Color   string        `json:"color"`
}
