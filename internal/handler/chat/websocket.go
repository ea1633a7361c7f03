package chat

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/sylvieyl/heartlog/backend/internal/analysis/emotion"
	"github.com/sylvieyl/heartlog/backend/internal/middleware"
	"github.com/sylvieyl/heartlog/backend/internal/model/chat"
	"github.com/sylvieyl/heartlog/backend/pkg/utils"
)

// WebSocketHandler WebSocket实时聊天处理器。
type WebSocketHandler struct {
	base     *Handler
	upgrader websocket.Upgrader
}

// NewWebSocketHandler 创建WebSocket处理器。
func NewWebSocketHandler(base *Handler) *WebSocketHandler {
	return &WebSocketHandler{
		base: base,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterWebSocketRoutes 注册WebSocket路由。
func (h *WebSocketHandler) RegisterWebSocketRoutes(r chi.Router) {
	r.Get("/ws/{sessionID}", h.handleWebSocket)
}

type inboundMessage struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

type outgoingMessage struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId,omitempty"`
	Data      any    `json:"data,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

func (h *WebSocketHandler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	userID := middleware.UserID(r.Context())

	if _, err := h.base.chatSvc.GetSession(r.Context(), sessionID, userID); err != nil {
		utils.RespondError(w, http.StatusNotFound, "session not found")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] upgrade failed for session=%s: %v", sessionID, err)
		return
	}
	defer conn.Close()

	log.Printf("[ws] connection opened for session=%s", sessionID)
	ctx := r.Context()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[ws] read error for session=%s: %v", sessionID, err)
			}
			return
		}

		switch inbound.Type {
		case "message":
			h.handleUserTurn(ctx, conn, sessionID, inbound.Content)
		case "ping":
			h.send(conn, outgoingMessage{Type: "pong"})
		default:
			h.send(conn, outgoingMessage{Type: "error", Data: "unknown message type"})
		}
	}
}

func (h *WebSocketHandler) handleUserTurn(ctx context.Context, conn *websocket.Conn, sessionID, content string) {
	if content == "" {
		h.send(conn, outgoingMessage{Type: "error", SessionID: sessionID, Data: "empty message"})
		return
	}

	history, err := h.base.chatSvc.LoadTranscript(ctx, sessionID)
	if err != nil {
		h.send(conn, outgoingMessage{Type: "error", SessionID: sessionID, Data: err.Error()})
		return
	}

	mood := emotion.Classify(content)
	if _, err := h.base.chatSvc.SaveMessage(ctx, chat.Message{
		SessionID: sessionID,
		Sender:    chat.SenderUser,
		Content:   content,
		Emotion:   string(mood.Primary),
	}); err != nil {
		h.send(conn, outgoingMessage{Type: "error", SessionID: sessionID, Data: err.Error()})
		return
	}

	reply := h.base.gateway.GenerateReply(ctx, content, history)
	saved, err := h.base.chatSvc.SaveMessage(ctx, chat.Message{
		SessionID: sessionID,
		Sender:    chat.SenderCompanion,
		Content:   reply.Text,
	})
	if err != nil {
		h.send(conn, outgoingMessage{Type: "error", SessionID: sessionID, Data: err.Error()})
		return
	}

	h.send(conn, outgoingMessage{
		Type:      "reply",
		SessionID: sessionID,
		Data: map[string]any{
			"message": saved,
			"source":  reply.Source,
			"emotion": mood,
		},
	})
}

func (h *WebSocketHandler) send(conn *websocket.Conn, msg outgoingMessage) {
	msg.Timestamp = time.Now().UnixMilli()
	if err := conn.WriteJSON(msg); err != nil {
		log.Printf("[ws] write failed: %v", err)
	}
}
