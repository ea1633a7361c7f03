package journal_test

import (
	"context"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/sylvieyl/heartlog/backend/internal/analysis/emotion"
	"github.com/sylvieyl/heartlog/backend/internal/companion"
	"github.com/sylvieyl/heartlog/backend/internal/model/chat"
	aiservice "github.com/sylvieyl/heartlog/backend/internal/service/ai"
	chatservice "github.com/sylvieyl/heartlog/backend/internal/service/chat"
	"github.com/sylvieyl/heartlog/backend/internal/service/journal"
	"github.com/sylvieyl/heartlog/backend/internal/store"
)

func newTestService(t *testing.T) (*journal.Service, *chatservice.Service) {
	t.Helper()
	gateway := aiservice.NewGateway(nil, companion.NewEngine(rand.NewSource(1)), companion.DefaultProfile())
	chatSvc := chatservice.NewService()
	return journal.NewService(gateway, chatSvc, store.NewMemoryEntryStore()), chatSvc
}

func seedSession(t *testing.T, chatSvc *chatservice.Service, userID string, texts ...string) chat.Session {
	t.Helper()
	ctx := context.Background()
	session, err := chatSvc.CreateSession(ctx, userID)
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	for _, text := range texts {
		if _, err := chatSvc.SaveMessage(ctx, chat.Message{
			SessionID: session.ID,
			Sender:    chat.SenderUser,
			Content:   text,
		}); err != nil {
			t.Fatalf("SaveMessage failed: %v", err)
		}
	}
	return session
}

func TestGenerateEntryWithoutRemote(t *testing.T) {
	svc, chatSvc := newTestService(t)
	session := seedSession(t, chatSvc, "user-1",
		"I am so grateful for my friends today",
		"We had a quiet dinner and talked for hours")

	entry, prov, err := svc.GenerateEntry(context.Background(), session.ID, "user-1")
	if err != nil {
		t.Fatalf("GenerateEntry failed: %v", err)
	}

	if entry.ID == "" {
		t.Error("expected generated entry to receive an ID")
	}
	if entry.SessionID != session.ID {
		t.Errorf("expected session ID %q, got %q", session.ID, entry.SessionID)
	}
	if strings.TrimSpace(entry.Generated) == "" {
		t.Error("expected a non-empty narrative")
	}
	if !emotion.Valid(entry.Emotion.Primary) {
		t.Errorf("expected a valid emotion label, got %q", entry.Emotion.Primary)
	}
	if entry.Summary == "" {
		t.Error("expected a summary derived from the narrative")
	}
	if len(entry.Messages) != 2 {
		t.Errorf("expected 2 transcript messages, got %d", len(entry.Messages))
	}

	if prov.Diary != aiservice.SourceLocalUnconfigured {
		t.Errorf("expected diary source %q, got %q", aiservice.SourceLocalUnconfigured, prov.Diary)
	}
	if prov.Emotion != aiservice.SourceLocalUnconfigured {
		t.Errorf("expected emotion source %q, got %q", aiservice.SourceLocalUnconfigured, prov.Emotion)
	}

	// The entry must be readable back through the service.
	got, err := svc.Get(context.Background(), entry.ID, "user-1")
	if err != nil {
		t.Fatalf("Get after generate failed: %v", err)
	}
	if got.ID != entry.ID {
		t.Errorf("expected stored entry %q, got %q", entry.ID, got.ID)
	}
}

func TestGenerateEntryUnknownSession(t *testing.T) {
	svc, _ := newTestService(t)

	_, _, err := svc.GenerateEntry(context.Background(), "no-such-session", "user-1")
	if err == nil {
		t.Fatal("expected an error for an unknown session")
	}
}

func TestGenerateEntryWrongUser(t *testing.T) {
	svc, chatSvc := newTestService(t)
	session := seedSession(t, chatSvc, "owner", "a normal day")

	_, _, err := svc.GenerateEntry(context.Background(), session.ID, "stranger")
	if err != chatservice.ErrForbidden {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestListRangeScopedToUser(t *testing.T) {
	svc, chatSvc := newTestService(t)
	ctx := context.Background()

	mine := seedSession(t, chatSvc, "user-1", "feeling calm tonight")
	theirs := seedSession(t, chatSvc, "user-2", "anxious about the deadline")
	if _, _, err := svc.GenerateEntry(ctx, mine.ID, "user-1"); err != nil {
		t.Fatalf("GenerateEntry failed: %v", err)
	}
	if _, _, err := svc.GenerateEntry(ctx, theirs.ID, "user-2"); err != nil {
		t.Fatalf("GenerateEntry failed: %v", err)
	}

	now := time.Now().UTC()
	entries, err := svc.ListRange(ctx, "user-1", now.AddDate(0, 0, -1), now.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("ListRange failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected exactly the caller's entry, got %d entries", len(entries))
	}
	if entries[0].UserID != "user-1" {
		t.Errorf("expected user-1's entry, got owner %q", entries[0].UserID)
	}
}

func TestCalendarLatestEntryWinsPerDay(t *testing.T) {
	svc, chatSvc := newTestService(t)
	ctx := context.Background()

	first := seedSession(t, chatSvc, "user-1", "morning walk, feeling peaceful")
	second := seedSession(t, chatSvc, "user-1", "evening worry about work stress")
	if _, _, err := svc.GenerateEntry(ctx, first.ID, "user-1"); err != nil {
		t.Fatalf("GenerateEntry failed: %v", err)
	}
	// Ensure a strictly later CreatedAt for the second entry.
	time.Sleep(2 * time.Millisecond)
	latest, _, err := svc.GenerateEntry(ctx, second.ID, "user-1")
	if err != nil {
		t.Fatalf("GenerateEntry failed: %v", err)
	}

	now := time.Now().UTC()
	days, err := svc.Calendar(ctx, "user-1", now.Year(), now.Month())
	if err != nil {
		t.Fatalf("Calendar failed: %v", err)
	}
	if len(days) != 1 {
		t.Fatalf("expected a single calendar day, got %d", len(days))
	}

	day := days[0]
	if day.EntryID != latest.ID {
		t.Errorf("expected the later entry %q to win the day, got %q", latest.ID, day.EntryID)
	}
	if day.Emotion != latest.Emotion.Primary {
		t.Errorf("expected day emotion %q, got %q", latest.Emotion.Primary, day.Emotion)
	}
	if day.Emoji == "" || day.Color == "" {
		t.Error("expected calendar day to carry display metadata")
	}
}

func TestAttachPhotoAndDelete(t *testing.T) {
	svc, chatSvc := newTestService(t)
	ctx := context.Background()

	session := seedSession(t, chatSvc, "user-1", "a day worth keeping")
	entry, _, err := svc.GenerateEntry(ctx, session.ID, "user-1")
	if err != nil {
		t.Fatalf("GenerateEntry failed: %v", err)
	}

	if err := svc.AttachPhoto(ctx, entry.ID, "user-1", "user-1/photo.jpg"); err != nil {
		t.Fatalf("AttachPhoto failed: %v", err)
	}
	got, err := svc.Get(ctx, entry.ID, "user-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.PhotoKey != "user-1/photo.jpg" {
		t.Errorf("expected photo key to persist, got %q", got.PhotoKey)
	}

	if err := svc.AttachPhoto(ctx, entry.ID, "stranger", "x"); err != journal.ErrEntryNotFound {
		t.Errorf("expected ErrEntryNotFound for foreign photo attach, got %v", err)
	}

	if err := svc.Delete(ctx, entry.ID, "user-1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := svc.Get(ctx, entry.ID, "user-1"); err != journal.ErrEntryNotFound {
		t.Errorf("expected ErrEntryNotFound after delete, got %v", err)
	}
}

func TestSummarize(t *testing.T) {
	cases := []struct {
		name      string
		narrative string
		want      string
	}{
		{"empty", "   ", ""},
		{"first sentence", "Today was quiet. Tomorrow may not be.", "Today was quiet."},
		{"no terminator", "an unfinished thought", "an unfinished thought"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := journal.Summarize(tc.narrative); got != tc.want {
				t.Errorf("Summarize(%q) = %q, want %q", tc.narrative, got, tc.want)
			}
		})
	}

	long := strings.Repeat("a", 300)
	got := journal.Summarize(long)
	if len([]rune(got)) != 121 {
		t.Errorf("expected clipped summary of 121 runes, got %d", len([]rune(got)))
	}
	if !strings.HasSuffix(got, "…") {
		t.Error("expected clipped summary to end with an ellipsis")
	}
}
