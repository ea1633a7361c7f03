package journal

import (
	"context"
	"errors"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sylvieyl/heartlog/backend/internal/model/chat"
	"github.com/sylvieyl/heartlog/backend/internal/model/diary"
	"github.com/sylvieyl/heartlog/backend/internal/service/ai"
	chatservice "github.com/sylvieyl/heartlog/backend/internal/service/chat"
)

var (
	ErrEntryNotFound = errors.New("diary entry not found")
)

// summaryLimit bounds the timeline preview text.
const summaryLimit = 120

// EntryStore persists finalized diary entries.
type EntryStore interface {
	Save(ctx context.Context, entry diary.Entry) error
	Get(ctx context.Context, id, userID string) (diary.Entry, error)
	ListRange(ctx context.Context, userID string, from, to time.Time) ([]diary.Entry, error)
	SetPhoto(ctx context.Context, id, userID, photoKey string) error
	Delete(ctx context.Context, id, userID string) error
}

// Provenance tells the caller where each generated piece came from, for
// the quota/offline banners.
type Provenance struct {
	Diary   ai.Source `json:"diary"`
	Emotion ai.Source `json:"emotion"`
}

// Service owns the diary entry lifecycle: distilling a finished chat
// session into an entry and serving the timeline/calendar reads.
type Service struct {
	gateway *ai.Gateway
	chatSvc *chatservice.Service
	store   EntryStore
}

// NewService wires the journal service.
func NewService(gateway *ai.Gateway, chatSvc *chatservice.Service, store EntryStore) *Service {
	return &Service{gateway: gateway, chatSvc: chatSvc, store: store}
}

// GenerateEntry distills the session transcript into a diary entry and
// persists it. The transcript may be empty; the gateway's local path still
// produces a usable narrative and emotion.
func (s *Service) GenerateEntry(ctx context.Context, sessionID, userID string) (diary.Entry, Provenance, error) {
	session, err := s.chatSvc.GetSession(ctx, sessionID, userID)
	if err != nil {
		return diary.Entry{}, Provenance{}, err
	}

	messages, err := s.chatSvc.LoadTranscript(ctx, session.ID)
	if err != nil {
		return diary.Entry{}, Provenance{}, err
	}

	diaryRes := s.gateway.ComposeDiary(ctx, messages)
	emotionRes := s.gateway.AnalyzeEmotion(ctx, chat.UserText(messages))

	now := time.Now().UTC()
	entry := diary.Entry{
		ID:        uuid.NewString(),
		UserID:    userID,
		SessionID: session.ID,
		Date:      now.Truncate(24 * time.Hour),
		Messages:  messages,
		Generated: diaryRes.Text,
		Emotion:   emotionRes.Emotion,
		Summary:   Summarize(diaryRes.Text),
		CreatedAt: now,
	}

	if err := s.store.Save(ctx, entry); err != nil {
		return diary.Entry{}, Provenance{}, err
	}

	log.Printf("[journal] generated entry=%s session=%s emotion=%s diary_source=%s",
		entry.ID, session.ID, entry.Emotion.Primary, diaryRes.Source)
	return entry, Provenance{Diary: diaryRes.Source, Emotion: emotionRes.Source}, nil
}

// Get returns one entry scoped to its owner.
func (s *Service) Get(ctx context.Context, id, userID string) (diary.Entry, error) {
	return s.store.Get(ctx, id, userID)
}

// ListRange returns the user's entries within [from, to], newest first.
func (s *Service) ListRange(ctx context.Context, userID string, from, to time.Time) ([]diary.Entry, error) {
	return s.store.ListRange(ctx, userID, from, to)
}

// Calendar aggregates one month into per-day emotion markers. When a day
// holds several entries the most recent one wins.
func (s *Service) Calendar(ctx context.Context, userID string, year int, month time.Month) ([]diary.CalendarDay, error) {
	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0).Add(-time.Nanosecond)

	entries, err := s.store.ListRange(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}

	byDay := make(map[string]diary.Entry)
	for _, entry := range entries {
		day := entry.Date.Format("2006-01-02")
		if current, ok := byDay[day]; !ok || entry.CreatedAt.After(current.CreatedAt) {
			byDay[day] = entry
		}
	}

	days := make([]diary.CalendarDay, 0, len(byDay))
	for day, entry := range byDay {
		days = append(days, diary.CalendarDay{
			Date:    day,
			EntryID: entry.ID,
			Emotion: entry.Emotion.Primary,
			Emoji:   entry.Emotion.Emoji,
			Color:   entry.Emotion.Color,
		})
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })
	return days, nil
}

// AttachPhoto records the uploaded object key on an existing entry.
func (s *Service) AttachPhoto(ctx context.Context, id, userID, photoKey string) error {
	return s.store.SetPhoto(ctx, id, userID, photoKey)
}

// Delete removes an entry.
func (s *Service) Delete(ctx context.Context, id, userID string) error {
	return s.store.Delete(ctx, id, userID)
}

// Summarize clips the narrative to its first sentence, bounded by
// summaryLimit runes.
func Summarize(narrative string) string {
	trimmed := strings.TrimSpace(narrative)
	if trimmed == "" {
		return ""
	}

	if idx := strings.IndexAny(trimmed, ".!?"); idx != -1 && idx+1 < len(trimmed) {
		trimmed = trimmed[:idx+1]
	}

	runes := []rune(trimmed)
	if len(runes) <= summaryLimit {
		return trimmed
	}
	return string(runes[:summaryLimit]) + "…"
}
