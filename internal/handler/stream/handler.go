package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/cloudwego/eino/schema"

	"github.com/sylvieyl/heartlog/backend/internal/analysis/emotion"
	"github.com/sylvieyl/heartlog/backend/internal/model/chat"
	aiservice "github.com/sylvieyl/heartlog/backend/internal/service/ai"
	chatservice "github.com/sylvieyl/heartlog/backend/internal/service/chat"
	"github.com/sylvieyl/heartlog/backend/pkg/utils"
)

// Handler streams companion replies via Server-Sent Events.
type Handler struct {
	gateway *aiservice.Gateway
	chatSvc *chatservice.Service
}

// New creates a stream handler.
func New(gateway *aiservice.Gateway, chatSvc *chatservice.Service) *Handler {
	return &Handler{gateway: gateway, chatSvc: chatSvc}
}

// Event is one streaming response chunk.
type Event struct {
	Event     string `json:"event"`
	Content   string `json:"content,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
	Source    string `json:"source,omitempty"`
	Finished  bool   `json:"finished,omitempty"`
	Error     string `json:"error,omitempty"`
}

// HandleStreamRequest drives one companion turn over SSE: user message in,
// reply deltas out, then the emotion marker and completion signal.
func (h *Handler) HandleStreamRequest(ctx context.Context, w http.ResponseWriter, sessionID, userID, userMessage string) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return fmt.Errorf("streaming unsupported")
	}

	utils.SetupSSEHeaders(w)

	if _, err := h.chatSvc.GetSession(ctx, sessionID, userID); err != nil {
		h.sendError(w, flusher, err.Error())
		return err
	}

	history, err := h.chatSvc.LoadTranscript(ctx, sessionID)
	if err != nil {
		h.sendError(w, flusher, err.Error())
		return err
	}

	// When the client already persisted the turn via REST, avoid duplicating it.
	if !hasMatchingUserMessage(history, sessionID, userMessage) {
		userMsg := chat.Message{
			SessionID: sessionID,
			Sender:    chat.SenderUser,
			Content:   userMessage,
			Emotion:   string(emotion.Classify(userMessage).Primary),
		}
		if saved, err := h.chatSvc.SaveMessage(ctx, userMsg); err != nil {
			log.Printf("[stream] failed to save user message: %v", err)
		} else {
			history = append(history, saved)
		}
	}

	h.send(w, flusher, Event{Event: "start", SessionID: sessionID})

	reply := h.dispatchReply(ctx, w, flusher, sessionID, userMessage, history)

	companionMsg := chat.Message{
		SessionID: sessionID,
		Sender:    chat.SenderCompanion,
		Content:   reply.Text,
	}
	if _, err := h.chatSvc.SaveMessage(ctx, companionMsg); err != nil {
		log.Printf("[stream] failed to save companion message: %v", err)
	}

	mood := h.gateway.AnalyzeEmotion(ctx, chat.UserText(history))
	h.send(w, flusher, Event{
		Event:     "emotion",
		SessionID: sessionID,
		Content:   string(mood.Emotion.Primary),
		Source:    string(mood.Source),
	})

	h.send(w, flusher, Event{
		Event:     "end",
		SessionID: sessionID,
		Source:    string(reply.Source),
		Finished:  true,
	})

	log.Printf("[stream] completed turn for session=%s source=%s", sessionID, reply.Source)
	return nil
}

// dispatchReply prefers the remote streaming surface; any failure resolves
// to the local fallback without a second remote attempt.
func (h *Handler) dispatchReply(ctx context.Context, w http.ResponseWriter, flusher http.Flusher, sessionID, userMessage string, history []chat.Message) aiservice.ReplyResult {
	if !h.gateway.RemoteConfigured() {
		reply := h.gateway.GenerateReply(ctx, userMessage, history)
		h.send(w, flusher, Event{Event: "message", SessionID: sessionID, Content: reply.Text, Source: string(reply.Source)})
		return reply
	}

	stream, err := h.gateway.StreamReply(ctx, userMessage, history)
	if err != nil {
		log.Printf("[stream] remote stream unavailable, using local reply: %v", err)
		reply := h.gateway.FallbackReply(userMessage, history, err)
		h.send(w, flusher, Event{Event: "message", SessionID: sessionID, Content: reply.Text, Source: string(reply.Source)})
		return reply
	}
	defer stream.Close()

	chunks := make([]*schema.Message, 0, 8)
	for {
		chunk, recvErr := stream.Recv()
		if errors.Is(recvErr, io.EOF) {
			break
		}
		if recvErr != nil {
			log.Printf("[stream] remote stream broke, using local reply: %v", recvErr)
			reply := h.gateway.FallbackReply(userMessage, history, recvErr)
			h.send(w, flusher, Event{Event: "message", SessionID: sessionID, Content: reply.Text, Source: string(reply.Source)})
			return reply
		}
		if chunk == nil {
			continue
		}

		chunks = append(chunks, chunk)
		if chunk.Content != "" {
			h.send(w, flusher, Event{Event: "delta", SessionID: sessionID, Content: chunk.Content})
		}
	}

	response, err := schema.ConcatMessages(chunks)
	if err != nil {
		reply := h.gateway.FallbackReply(userMessage, history, err)
		h.send(w, flusher, Event{Event: "message", SessionID: sessionID, Content: reply.Text, Source: string(reply.Source)})
		return reply
	}

	reply := aiservice.ReplyResult{Text: response.Content, Source: aiservice.SourceRemote}
	h.send(w, flusher, Event{Event: "message", SessionID: sessionID, Content: reply.Text, Source: string(reply.Source)})
	return reply
}

func hasMatchingUserMessage(messages []chat.Message, sessionID, content string) bool {
	if len(messages) == 0 {
		return false
	}

	last := messages[len(messages)-1]
	return last.SessionID == sessionID && last.IsUser() && last.Content == content
}

func (h *Handler) send(w http.ResponseWriter, flusher http.Flusher, event Event) {
	utils.SendSSEChunk(w, flusher, event)
}

func (h *Handler) sendError(w http.ResponseWriter, flusher http.Flusher, message string) {
	h.send(w, flusher, Event{Event: "error", Error: message})
}
