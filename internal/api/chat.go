package api

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/scopetalk/scopetalk/internal/domain"
)

// emptyQueryPrompt is returned verbatim when the client submits an empty
// utterance. No model call, no persistence.
const emptyQueryPrompt = "Please enter your question."

// ChatHandler handles the chat endpoint.
type ChatHandler struct {
	*Handler
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(base *Handler) *ChatHandler {
	return &ChatHandler{Handler: base}
}

// RegisterRoutes registers chat routes.
func (h *ChatHandler) RegisterRoutes(r chi.Router) {
	r.Post("/api/chat", h.Chat)
}

// ChatRequest is the request body for one chat turn.
type ChatRequest struct {
	SessionID      string `json:"session_id"`
	UserQuery      string `json:"user_query"`
	SelectedOption string `json:"selected_option,omitempty"`
	CustomResponse string `json:"custom_response,omitempty"`
}

// ChatResponse is the normalized reply for one chat turn.
type ChatResponse struct {
	Response   string           `json:"response"`
	InputType  domain.InputType `json:"input_type"`
	Options    []string         `json:"options"`
	AllowOther bool             `json:"allow_other"`
	Sections   []domain.Section `json:"sections"`
}

// Chat processes one user turn.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(req.SessionID) == "" {
		Error(w, http.StatusBadRequest, "session_id is required")
		return
	}

	if strings.TrimSpace(req.UserQuery) == "" {
		JSON(w, http.StatusOK, ChatResponse{
			Response:  emptyQueryPrompt,
			InputType: domain.InputText,
			Options:   []string{},
			Sections:  []domain.Section{},
		})
		return
	}

	reply, err := h.processor.HandleTurn(r.Context(), req.SessionID, req.UserQuery)
	if err != nil {
		slog.Error("chat turn failed", "session_id", req.SessionID, "error", err)
		WriteErr(w, err)
		return
	}

	h.recordMessages(r, req, reply)

	JSON(w, http.StatusOK, ChatResponse{
		Response:   reply.Text,
		InputType:  reply.InputType,
		Options:    reply.Options,
		AllowOther: reply.AllowOther,
		Sections:   reply.Sections,
	})
}

// recordMessages saves the turn's message rows. Row persistence only
// feeds session listing titles, so failures are logged, not surfaced.
func (h *ChatHandler) recordMessages(r *http.Request, req ChatRequest, reply domain.StructuredReply) {
	now := time.Now()
	rows := []*domain.Message{
		{
			MessageID:      uuid.NewString(),
			SessionID:      req.SessionID,
			Sender:         domain.SenderClient,
			Text:           req.UserQuery,
			SelectedOption: req.SelectedOption,
			CustomResponse: req.CustomResponse,
			CreatedAt:      now,
		},
		{
			MessageID:  uuid.NewString(),
			SessionID:  req.SessionID,
			Sender:     domain.SenderAI,
			Text:       reply.Text,
			AllowOther: reply.AllowOther,
			CreatedAt:  now.Add(time.Millisecond),
		},
	}
	for _, row := range rows {
		if err := h.repo.SaveMessage(r.Context(), row); err != nil {
			slog.Warn("failed to save chat message", "session_id", req.SessionID, "sender", row.Sender, "error", err)
		}
	}
}
