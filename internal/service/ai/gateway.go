package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/sylvieyl/heartlog/backend/internal/analysis/emotion"
	"github.com/sylvieyl/heartlog/backend/internal/companion"
	"github.com/sylvieyl/heartlog/backend/internal/model/chat"
)

// Gateway routes emotion analysis, reply generation, and diary synthesis to
// the remote completion service when one is configured, and to the local
// companion engine otherwise. Its three operations never return an error:
// every remote failure resolves to a local value tagged with the failure
// class. Calls are stateless and independent, so any number may run
// concurrently; the remote handle is fixed at construction.
type Gateway struct {
	remote  RemoteClient
	engine  *companion.Engine
	profile companion.Profile
}

// NewGateway builds the adapter. A nil remote means unconfigured: every
// call silently takes the local path.
func NewGateway(remote RemoteClient, engine *companion.Engine, profile companion.Profile) *Gateway {
	return &Gateway{remote: remote, engine: engine, profile: profile}
}

// RemoteConfigured reports whether a remote client is attached.
func (g *Gateway) RemoteConfigured() bool {
	return g.remote != nil
}

// AnalyzeEmotion classifies text remotely when possible, expecting a strict
// JSON object back; any failure, including unparseable model output, falls
// back to the lexicon classifier.
func (g *Gateway) AnalyzeEmotion(ctx context.Context, text string) EmotionResult {
	if g.remote == nil {
		return EmotionResult{Emotion: emotion.Classify(text), Source: SourceLocalUnconfigured}
	}

	payload, err := g.remote.Complete(ctx, Request{
		System: emotionSystemPrompt,
		Query:  text,
	})
	if err != nil {
		log.Printf("[ai] remote emotion analysis failed, using local classifier: %v", err)
		return EmotionResult{Emotion: emotion.Classify(text), Source: failureSource(err)}
	}

	parsed, err := parseEmotionPayload(payload)
	if err != nil {
		log.Printf("[ai] remote emotion payload unusable, using local classifier: %v", err)
		return EmotionResult{Emotion: emotion.Classify(text), Source: SourceLocalGenericFailure}
	}

	return EmotionResult{Emotion: parsed, Source: SourceRemote}
}

// GenerateReply produces the companion's next turn. Remote success returns
// the model payload verbatim; any failure yields a canned local reply.
func (g *Gateway) GenerateReply(ctx context.Context, userMessage string, history []chat.Message) ReplyResult {
	if g.remote == nil {
		return ReplyResult{Text: g.engine.Reply(userMessage, history), Source: SourceLocalUnconfigured}
	}

	payload, err := g.remote.Complete(ctx, Request{
		System:  g.profile.SystemPrompt(),
		History: history,
		Query:   userMessage,
	})
	if err != nil {
		log.Printf("[ai] remote reply generation failed, using canned reply: %v", err)
		return ReplyResult{Text: g.engine.Reply(userMessage, history), Source: failureSource(err)}
	}

	return ReplyResult{Text: payload, Source: SourceRemote}
}

// ComposeDiary distills a transcript into a first-person diary paragraph.
func (g *Gateway) ComposeDiary(ctx context.Context, messages []chat.Message) DiaryResult {
	if g.remote == nil {
		return DiaryResult{Text: g.engine.Diary(messages), Source: SourceLocalUnconfigured}
	}

	payload, err := g.remote.Complete(ctx, Request{
		System: diarySystemPrompt,
		Query:  formatTranscript(messages),
	})
	if err != nil {
		log.Printf("[ai] remote diary synthesis failed, using template synthesizer: %v", err)
		return DiaryResult{Text: g.engine.Diary(messages), Source: failureSource(err)}
	}

	return DiaryResult{Text: payload, Source: SourceRemote}
}

// StreamReply exposes the remote streaming surface when available. Callers
// fall back to GenerateReply when this returns an error.
func (g *Gateway) StreamReply(ctx context.Context, userMessage string, history []chat.Message) (*schema.StreamReader[*schema.Message], error) {
	if g.remote == nil {
		return nil, fmt.Errorf("remote service not configured")
	}
	streamer, ok := g.remote.(Streamer)
	if !ok {
		return nil, fmt.Errorf("remote client does not support streaming")
	}
	return streamer.Stream(ctx, Request{
		System:  g.profile.SystemPrompt(),
		History: history,
		Query:   userMessage,
	})
}

// FallbackReply computes the local reply for a remote attempt that already
// failed (for example a broken stream), tagging it with the failure class.
// A nil cause means the remote path was never attempted.
func (g *Gateway) FallbackReply(userMessage string, history []chat.Message, cause error) ReplyResult {
	source := SourceLocalUnconfigured
	if cause != nil {
		source = failureSource(cause)
	}
	return ReplyResult{Text: g.engine.Reply(userMessage, history), Source: source}
}

type emotionPayload struct {
	Primary   string  `json:"primary"`
	Intensity float64 `json:"intensity"`
}

// parseEmotionPayload extracts the JSON object from the model output and
// validates the label against the fixed set.
func parseEmotionPayload(content string) (emotion.Emotion, error) {
	trimmed := strings.TrimSpace(content)
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start == -1 || end == -1 || end <= start {
		return emotion.Emotion{}, fmt.Errorf("missing json object")
	}

	payload := emotionPayload{}
	if err := json.Unmarshal([]byte(trimmed[start:end+1]), &payload); err != nil {
		return emotion.Emotion{}, err
	}

	label := emotion.Label(strings.ToLower(strings.TrimSpace(payload.Primary)))
	if !emotion.Valid(label) {
		return emotion.Emotion{}, fmt.Errorf("unknown emotion label %q", payload.Primary)
	}

	return emotion.For(label, payload.Intensity), nil
}

func formatTranscript(messages []chat.Message) string {
	if len(messages) == 0 {
		return "No conversation took place."
	}

	var builder strings.Builder
	for _, msg := range messages {
		content := strings.TrimSpace(msg.Content)
		if content == "" {
			continue
		}
		if msg.IsUser() {
			builder.WriteString("Me: ")
		} else {
			builder.WriteString("Companion: ")
		}
		builder.WriteString(content)
		builder.WriteString("\n")
	}
	if builder.Len() == 0 {
		return "No conversation took place."
	}
	return builder.String()
}

const emotionSystemPrompt = "You are an emotion analyst for a personal journal. Read the user's text and respond with exactly one JSON object and nothing else, shaped as {\"primary\": <label>, \"intensity\": <number between 0 and 1>}. The label must be one of: joy, gratitude, calm, melancholy, anxiety, excitement, reflection, hope, nostalgia, contentment."

const diarySystemPrompt = "You are a journaling assistant. Rewrite the conversation transcript below as a single first-person diary paragraph in the user's voice. Keep it warm and honest, under 150 words, and do not mention the companion or the conversation itself."
