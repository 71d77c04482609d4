// Package api provides HTTP handlers for the intake assistant API.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/scopetalk/scopetalk/internal/apperr"
	"github.com/scopetalk/scopetalk/internal/domain"
	"github.com/scopetalk/scopetalk/internal/store"
	"github.com/scopetalk/scopetalk/internal/transcript"
)

// maxRequestBodySize is the maximum allowed request body size (1MB).
const maxRequestBodySize = 1 << 20

// TurnProcessor handles one chat turn.
type TurnProcessor interface {
	HandleTurn(ctx context.Context, sessionID, utterance string) (domain.StructuredReply, error)
}

// Summarizer produces and revises transcript summaries.
type Summarizer interface {
	Summarize(ctx context.Context, turns []domain.Turn) (string, error)
	Revise(ctx context.Context, turns []domain.Turn, existingSummary string, comments []domain.Comment) (string, error)
	GenerateTitle(ctx context.Context, text string) string
}

// DurableStore is the durable transcript backend plus its blob-addressing
// extras.
type DurableStore interface {
	transcript.Store
	PublicURL(sessionID string) string
	UploadSummary(ctx context.Context, sessionID, summary string) error
}

// Handler provides common handler dependencies.
type Handler struct {
	repo      store.Repository
	live      transcript.Store
	durable   DurableStore
	processor TurnProcessor
	summaries Summarizer
}

// NewHandler creates a new Handler with common dependencies.
func NewHandler(repo store.Repository, live transcript.Store, durable DurableStore, processor TurnProcessor, summaries Summarizer) *Handler {
	return &Handler{
		repo:      repo,
		live:      live,
		durable:   durable,
		processor: processor,
		summaries: summaries,
	}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// WriteErr maps an application error to its HTTP status. Validation and
// not-found errors surface their specific reason; storage and upstream
// failures get a generic message with no internal detail.
func WriteErr(w http.ResponseWriter, err error) {
	status := apperr.HTTPStatus(err)
	switch apperr.CodeOf(err) {
	case apperr.CodeValidation, apperr.CodeNotFound:
		message := "invalid request"
		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			message = appErr.Reason
		}
		Error(w, status, message)
	case apperr.CodeUpstream:
		Error(w, status, "generation engine request failed")
	default:
		Error(w, status, "internal server error")
	}
}

func decodeJSONBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	return json.NewDecoder(r.Body).Decode(v)
}
