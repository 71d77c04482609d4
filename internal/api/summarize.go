package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/scopetalk/scopetalk/internal/apperr"
	"github.com/scopetalk/scopetalk/internal/domain"
)

// SummarizeHandler handles summary generation and revision.
type SummarizeHandler struct {
	*Handler
}

// NewSummarizeHandler creates a new summarize handler.
func NewSummarizeHandler(base *Handler) *SummarizeHandler {
	return &SummarizeHandler{Handler: base}
}

// RegisterRoutes registers summarize routes.
func (h *SummarizeHandler) RegisterRoutes(r chi.Router) {
	r.Post("/api/summarize/{sessionID}", h.Summarize)
	r.Post("/api/summarize/{sessionID}/regenerate", h.Regenerate)
}

// SummaryResponse carries a generated or revised summary.
type SummaryResponse struct {
	SessionID string `json:"session_id"`
	Summary   string `json:"summary"`
}

// RegenerateRequest is the request body for a summary revision.
type RegenerateRequest struct {
	Summary  string           `json:"summary"`
	Comments []domain.Comment `json:"comments"`
}

// Summarize generates a summary from the session's durable transcript and
// stores it.
func (h *SummarizeHandler) Summarize(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	ctx := r.Context()

	turns, ok := h.readDurableTranscript(w, r, sessionID)
	if !ok {
		return
	}

	summaryText, err := h.summaries.Summarize(ctx, turns)
	if err != nil {
		slog.Error("summarization failed", "session_id", sessionID, "error", err)
		WriteErr(w, err)
		return
	}

	if err := h.durable.UploadSummary(ctx, sessionID, summaryText); err != nil {
		slog.Error("failed to upload summary", "session_id", sessionID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to store summary")
		return
	}

	JSON(w, http.StatusOK, SummaryResponse{SessionID: sessionID, Summary: summaryText})
}

// Regenerate produces a revised summary from reviewer comments.
func (h *SummarizeHandler) Regenerate(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var req RegenerateRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx := r.Context()

	turns, ok := h.readDurableTranscript(w, r, sessionID)
	if !ok {
		return
	}

	revised, err := h.summaries.Revise(ctx, turns, req.Summary, req.Comments)
	if err != nil {
		slog.Error("summary revision failed", "session_id", sessionID, "error", err)
		WriteErr(w, err)
		return
	}

	if err := h.durable.UploadSummary(ctx, sessionID, revised); err != nil {
		slog.Error("failed to upload revised summary", "session_id", sessionID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to store summary")
		return
	}

	JSON(w, http.StatusOK, SummaryResponse{SessionID: sessionID, Summary: revised})
}

// readDurableTranscript loads the durable transcript, writing the error
// response itself. Returns ok=false when a response was already written.
func (h *SummarizeHandler) readDurableTranscript(w http.ResponseWriter, r *http.Request, sessionID string) ([]domain.Turn, bool) {
	turns, err := h.durable.ReadAll(r.Context(), sessionID)
	if err != nil {
		if apperr.IsCode(err, apperr.CodeNotFound) {
			Error(w, http.StatusNotFound, "transcript not found for session")
			return nil, false
		}
		slog.Error("failed to read durable transcript", "session_id", sessionID, "error", err)
		Error(w, http.StatusInternalServerError, "internal server error")
		return nil, false
	}
	return turns, true
}
