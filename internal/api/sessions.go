package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/scopetalk/scopetalk/internal/domain"
)

// SessionHandler handles session listing and lookup endpoints.
type SessionHandler struct {
	*Handler
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(base *Handler) *SessionHandler {
	return &SessionHandler{Handler: base}
}

// RegisterRoutes registers session routes.
func (h *SessionHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/sessions", h.ListSessions)
	r.Get("/api/session/{sessionID}", h.GetSession)
	r.Get("/api/session/{sessionID}/messages", h.GetMessages)
}

// ListSessions returns all sessions, optionally filtered by user_id, with
// derived titles.
func (h *SessionHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")

	sessions, err := h.repo.ListSessions(r.Context(), userID)
	if err != nil {
		slog.Error("failed to list sessions", "error", err)
		Error(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if sessions == nil {
		sessions = []*domain.Session{}
	}

	JSON(w, http.StatusOK, sessions)
}

// GetSession returns one session or 404.
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	session, err := h.repo.GetSession(r.Context(), sessionID)
	if err != nil {
		slog.Error("failed to get session", "session_id", sessionID, "error", err)
		Error(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if session == nil {
		Error(w, http.StatusNotFound, "session not found")
		return
	}

	JSON(w, http.StatusOK, session)
}

// GetMessages returns a session's message rows in chronological order.
func (h *SessionHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	messages, err := h.repo.GetMessages(r.Context(), sessionID)
	if err != nil {
		slog.Error("failed to get messages", "session_id", sessionID, "error", err)
		Error(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if messages == nil {
		messages = []*domain.Message{}
	}

	JSON(w, http.StatusOK, messages)
}
