package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/scopetalk/scopetalk/internal/apperr"
	"github.com/scopetalk/scopetalk/internal/domain"
)

// UploadHandler handles transcript upload/merge.
type UploadHandler struct {
	*Handler
}

// NewUploadHandler creates a new upload handler.
func NewUploadHandler(base *Handler) *UploadHandler {
	return &UploadHandler{Handler: base}
}

// RegisterRoutes registers upload routes.
func (h *UploadHandler) RegisterRoutes(r chi.Router) {
	r.Post("/api/transcript/upload", h.Upload)
}

// UploadRequest is the request body for a transcript upload.
type UploadRequest struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id,omitempty"`
}

// UploadResponse reports the merged transcript location and the upserted
// session row.
type UploadResponse struct {
	SessionID      string          `json:"session_id"`
	TranscriptURL  string          `json:"transcript_url"`
	AlreadyExisted bool            `json:"already_existed"`
	SessionData    *domain.Session `json:"session_data,omitempty"`
}

// Upload merges the session's live transcript into durable storage and
// upserts the session row. The row is written only after the blob write
// succeeds: a session exists in the registry if and only if at least one
// turn has been durably persisted.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	var req UploadRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.SessionID) == "" {
		Error(w, http.StatusBadRequest, "session_id is required")
		return
	}

	ctx := r.Context()

	turns, err := h.live.ReadAll(ctx, req.SessionID)
	if err != nil {
		if apperr.IsCode(err, apperr.CodeNotFound) {
			Error(w, http.StatusNotFound, "no live transcript for session")
			return
		}
		slog.Error("failed to read live transcript", "session_id", req.SessionID, "error", err)
		Error(w, http.StatusInternalServerError, "internal server error")
		return
	}

	existing, err := h.repo.GetSession(ctx, req.SessionID)
	if err != nil {
		slog.Error("failed to check existing session", "session_id", req.SessionID, "error", err)
		Error(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if err := h.durable.Append(ctx, req.SessionID, turns); err != nil {
		slog.Error("failed to upload transcript", "session_id", req.SessionID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to upload transcript")
		return
	}

	// Drop the merged prefix from the live copy so a later upload cannot
	// duplicate these turns. The live store is append-only per session, so
	// the snapshot is a prefix of the current state; turns appended while
	// the merge ran stay behind for the next upload.
	var remainder []domain.Turn
	if current, readErr := h.live.ReadAll(ctx, req.SessionID); readErr == nil && len(current) > len(turns) {
		remainder = current[len(turns):]
	}
	if err := h.live.Overwrite(ctx, req.SessionID, remainder); err != nil {
		slog.Warn("failed to trim live transcript after upload", "session_id", req.SessionID, "error", err)
	}

	session, err := h.repo.EnsureSession(ctx, &domain.Session{
		SessionID:     req.SessionID,
		UserID:        req.UserID,
		TranscriptURL: h.durable.PublicURL(req.SessionID),
	})
	if err != nil {
		slog.Error("failed to upsert session", "session_id", req.SessionID, "error", err)
		Error(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if title := firstUserMessage(turns); title != "" {
		session.Title = h.summaries.GenerateTitle(ctx, title)
	}

	JSON(w, http.StatusOK, UploadResponse{
		SessionID:      req.SessionID,
		TranscriptURL:  session.TranscriptURL,
		AlreadyExisted: existing != nil,
		SessionData:    session,
	})
}

func firstUserMessage(turns []domain.Turn) string {
	for _, turn := range turns {
		if turn.Role == domain.RoleUser {
			return turn.Message
		}
	}
	return ""
}
