package journal

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sylvieyl/heartlog/backend/internal/middleware"
	chatservice "github.com/sylvieyl/heartlog/backend/internal/service/chat"
	journalservice "github.com/sylvieyl/heartlog/backend/internal/service/journal"
	"github.com/sylvieyl/heartlog/backend/internal/storage"
	"github.com/sylvieyl/heartlog/backend/pkg/utils"
)

// maxPhotoBytes caps a single uploaded photo.
const maxPhotoBytes = 10 << 20

// photoURLExpiry is how long presigned photo links stay valid.
const photoURLExpiry = 15 * time.Minute

// Handler 日记条目的HTTP处理器。photos 可以为 nil（未配置对象存储）。
type Handler struct {
	journalSvc *journalservice.Service
	photos     storage.PhotoStore
}

// New 创建日记处理器。
func New(journalSvc *journalservice.Service, photos storage.PhotoStore) *Handler {
	return &Handler{journalSvc: journalSvc, photos: photos}
}

// RegisterRoutes 注册日记相关的路由。
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/journal/entries", h.handleGenerate)
	r.Get("/journal/entries", h.handleList)
	r.Get("/journal/entries/{entryID}", h.handleGet)
	r.Delete("/journal/entries/{entryID}", h.handleDelete)
	r.Get("/journal/calendar", h.handleCalendar)
	r.Post("/journal/entries/{entryID}/photo", h.handleUploadPhoto)
	r.Get("/journal/entries/{entryID}/photo", h.handlePhotoURL)
}

// handleGenerate 把会话转写蒸馏成一篇日记。
func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		SessionID string `json:"sessionId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.SessionID == "" {
		utils.RespondError(w, http.StatusBadRequest, "sessionId is required")
		return
	}

	entry, provenance, err := h.journalSvc.GenerateEntry(r.Context(), payload.SessionID, middleware.UserID(r.Context()))
	if err != nil {
		switch {
		case errors.Is(err, chatservice.ErrSessionNotFound):
			utils.RespondError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, chatservice.ErrForbidden):
			utils.RespondError(w, http.StatusForbidden, err.Error())
		default:
			utils.RespondError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	utils.RespondJSON(w, http.StatusCreated, map[string]any{
		"entry":      entry,
		"provenance": provenance,
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseRange(r)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	entries, err := h.journalSvc.ListRange(r.Context(), middleware.UserID(r.Context()), from, to)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	entry, err := h.journalSvc.Get(r.Context(), chi.URLParam(r, "entryID"), middleware.UserID(r.Context()))
	if err != nil {
		h.respondEntryError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, entry)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.journalSvc.Delete(r.Context(), chi.URLParam(r, "entryID"), middleware.UserID(r.Context())); err != nil {
		h.respondEntryError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handleCalendar 返回指定月份每天的情绪标记。
func (h *Handler) handleCalendar(w http.ResponseWriter, r *http.Request) {
	monthParam := r.URL.Query().Get("month")
	if monthParam == "" {
		monthParam = time.Now().UTC().Format("2006-01")
	}

	parsed, err := time.Parse("2006-01", monthParam)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "month must be formatted YYYY-MM")
		return
	}

	days, err := h.journalSvc.Calendar(r.Context(), middleware.UserID(r.Context()), parsed.Year(), parsed.Month())
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{"month": monthParam, "days": days})
}

func (h *Handler) handleUploadPhoto(w http.ResponseWriter, r *http.Request) {
	if h.photos == nil {
		utils.RespondError(w, http.StatusServiceUnavailable, "photo storage not configured")
		return
	}

	entryID := chi.URLParam(r, "entryID")
	userID := middleware.UserID(r.Context())

	if _, err := h.journalSvc.Get(r.Context(), entryID, userID); err != nil {
		h.respondEntryError(w, err)
		return
	}

	if err := r.ParseMultipartForm(maxPhotoBytes); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}
	file, header, err := r.FormFile("photo")
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "photo file is required")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := fmt.Sprintf("%s/%s/%s", userID, entryID, uuid.NewString())
	if err := h.photos.Put(r.Context(), key, file, header.Size, contentType); err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to store photo")
		return
	}

	if err := h.journalSvc.AttachPhoto(r.Context(), entryID, userID, key); err != nil {
		h.respondEntryError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusCreated, map[string]string{"photoKey": key})
}

func (h *Handler) handlePhotoURL(w http.ResponseWriter, r *http.Request) {
	if h.photos == nil {
		utils.RespondError(w, http.StatusServiceUnavailable, "photo storage not configured")
		return
	}

	entry, err := h.journalSvc.Get(r.Context(), chi.URLParam(r, "entryID"), middleware.UserID(r.Context()))
	if err != nil {
		h.respondEntryError(w, err)
		return
	}
	if entry.PhotoKey == "" {
		utils.RespondError(w, http.StatusNotFound, "entry has no photo")
		return
	}

	url, err := h.photos.PresignGet(r.Context(), entry.PhotoKey, photoURLExpiry)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to sign photo url")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{"url": url})
}

func (h *Handler) respondEntryError(w http.ResponseWriter, err error) {
	if errors.Is(err, journalservice.ErrEntryNotFound) {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	}
	utils.RespondError(w, http.StatusInternalServerError, err.Error())
}

// parseRange reads optional from/to query params (YYYY-MM-DD). Defaults to
// the trailing 30 days.
func parseRange(r *http.Request) (time.Time, time.Time, error) {
	now := time.Now().UTC()
	from := now.AddDate(0, 0, -30)
	to := now

	if raw := r.URL.Query().Get("from"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("from must be formatted YYYY-MM-DD")
		}
		from = parsed
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("to must be formatted YYYY-MM-DD")
		}
		// Include the whole "to" day.
		to = parsed.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("to must not precede from")
	}
	return from, to, nil
}
