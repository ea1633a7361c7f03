package companion

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/sylvieyl/heartlog/backend/internal/analysis/emotion"
	"github.com/sylvieyl/heartlog/backend/internal/model/chat"
)

func TestDiaryEmptyTranscript(t *testing.T) {
	engine := NewEngine(rand.NewSource(1))

	out := engine.Diary(nil)
	if strings.TrimSpace(out) == "" {
		t.Fatal("expected non-empty diary for empty transcript")
	}
	if strings.ContainsAny(out, "{}") {
		t.Fatalf("unresolved template placeholder in %q", out)
	}
}

func TestDiaryNeverLeavesPlaceholders(t *testing.T) {
	engine := NewEngine(rand.NewSource(42))
	messages := []chat.Message{
		{Sender: chat.SenderUser, Content: "I'm grateful for my friends"},
		{Sender: chat.SenderCompanion, Content: "That's lovely to hear."},
		{Sender: chat.SenderUser, Content: "We laughed so much today"},
	}

	for i := 0; i < 100; i++ {
		out := engine.Diary(messages)
		if strings.ContainsAny(out, "{}") {
			t.Fatalf("trial %d: unresolved placeholder in %q", i, out)
		}
	}
}

func TestDiaryUsesUserTurnsOnly(t *testing.T) {
	engine := NewEngine(rand.NewSource(9))
	messages := []chat.Message{
		{Sender: chat.SenderCompanion, Content: "I feel so sad and lonely"},
		{Sender: chat.SenderUser, Content: "I'm thankful and so grateful for everything, thanks to everyone"},
	}

	// The companion's distress wording must not leak into the mood: only the
	// user's gratitude text is classified.
	out := engine.Diary(messages)
	if !strings.Contains(out, emotionPhrases[emotion.Gratitude]) {
		t.Fatalf("expected gratitude phrase in diary, got %q", out)
	}
}

func TestEmotionPhraseTableComplete(t *testing.T) {
	for _, label := range emotion.Labels() {
		if strings.TrimSpace(emotionPhrases[label]) == "" {
			t.Fatalf("missing emotion phrase for label %s", label)
		}
	}
}
