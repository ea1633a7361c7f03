package chat

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sylvieyl/heartlog/backend/internal/analysis/emotion"
	"github.com/sylvieyl/heartlog/backend/internal/companion"
	"github.com/sylvieyl/heartlog/backend/internal/middleware"
	"github.com/sylvieyl/heartlog/backend/internal/model/chat"
	aiservice "github.com/sylvieyl/heartlog/backend/internal/service/ai"
	chatservice "github.com/sylvieyl/heartlog/backend/internal/service/chat"
	"github.com/sylvieyl/heartlog/backend/pkg/utils"
)

// Handler 聊天会话的HTTP处理器。
type Handler struct {
	chatSvc *chatservice.Service
	gateway *aiservice.Gateway
	profile companion.Profile
}

// New 创建聊天处理器。
func New(chatSvc *chatservice.Service, gateway *aiservice.Gateway, profile companion.Profile) *Handler {
	return &Handler{chatSvc: chatSvc, gateway: gateway, profile: profile}
}

// RegisterRoutes 注册聊天相关的路由。
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/companion", h.handleCompanion)
	r.Post("/session", h.handleCreateSession)
	r.Get("/session/{sessionID}/messages", h.handleTranscript)
	r.Post("/messages", h.handleSaveMessage)
	r.Post("/reply", h.handleReply)
}

func (h *Handler) handleCompanion(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.profile)
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.chatSvc.CreateSession(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusCreated, session)
}

func (h *Handler) handleTranscript(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if !h.authorizeSession(w, r, sessionID) {
		return
	}

	messages, err := h.chatSvc.LoadTranscript(r.Context(), sessionID)
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{"messages": messages})
}

func (h *Handler) handleSaveMessage(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		SessionID string `json:"sessionId"`
		Sender    string `json:"sender"`
		Content   string `json:"content"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !h.authorizeSession(w, r, payload.SessionID) {
		return
	}

	message := chat.Message{
		SessionID: payload.SessionID,
		Sender:    payload.Sender,
		Content:   payload.Content,
	}
	if message.IsUser() {
		message.Emotion = string(emotion.Classify(message.Content).Primary)
	}

	saved, err := h.chatSvc.SaveMessage(r.Context(), message)
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusCreated, saved)
}

// handleReply 一次性生成陪伴者回复（非流式）。
func (h *Handler) handleReply(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		SessionID string `json:"sessionId"`
		Message   string `json:"message"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.Message == "" {
		utils.RespondError(w, http.StatusBadRequest, "message is required")
		return
	}
	if !h.authorizeSession(w, r, payload.SessionID) {
		return
	}

	ctx := r.Context()
	history, err := h.chatSvc.LoadTranscript(ctx, payload.SessionID)
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	}

	userMsg, err := h.chatSvc.SaveMessage(ctx, chat.Message{
		SessionID: payload.SessionID,
		Sender:    chat.SenderUser,
		Content:   payload.Message,
		Emotion:   string(emotion.Classify(payload.Message).Primary),
	})
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	}

	reply := h.gateway.GenerateReply(ctx, payload.Message, history)

	companionMsg, err := h.chatSvc.SaveMessage(ctx, chat.Message{
		SessionID: payload.SessionID,
		Sender:    chat.SenderCompanion,
		Content:   reply.Text,
	})
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"userMessage": userMsg,
		"reply":       companionMsg,
		"source":      reply.Source,
	})
}

// authorizeSession resolves the session and enforces ownership; it writes
// the error response itself and reports whether to continue.
func (h *Handler) authorizeSession(w http.ResponseWriter, r *http.Request, sessionID string) bool {
	if sessionID == "" {
		utils.RespondError(w, http.StatusBadRequest, "sessionId is required")
		return false
	}

	_, err := h.chatSvc.GetSession(r.Context(), sessionID, middleware.UserID(r.Context()))
	switch {
	case err == nil:
		return true
	case errors.Is(err, chatservice.ErrForbidden):
		utils.RespondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, chatservice.ErrSessionNotFound):
		utils.RespondError(w, http.StatusNotFound, err.Error())
	default:
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
	}
	return false
}
