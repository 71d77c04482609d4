package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/scopetalk/scopetalk/internal/apperr"
	"github.com/scopetalk/scopetalk/internal/domain"
	"github.com/scopetalk/scopetalk/internal/transcript"
)

// fakeRepo is an in-memory store.Repository.
type fakeRepo struct {
	sessions map[string]*domain.Session
	messages map[string][]*domain.Message
	failWith error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		sessions: make(map[string]*domain.Session),
		messages: make(map[string][]*domain.Message),
	}
}

func (r *fakeRepo) EnsureSession(_ context.Context, session *domain.Session) (*domain.Session, error) {
	if r.failWith != nil {
		return nil, r.failWith
	}
	existing, ok := r.sessions[session.SessionID]
	if !ok {
		stored := *session
		r.sessions[session.SessionID] = &stored
		out := stored
		return &out, nil
	}
	existing.TranscriptURL = session.TranscriptURL
	if existing.UserID == "" {
		existing.UserID = session.UserID
	}
	out := *existing
	return &out, nil
}

func (r *fakeRepo) GetSession(_ context.Context, sessionID string) (*domain.Session, error) {
	if r.failWith != nil {
		return nil, r.failWith
	}
	session, ok := r.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	out := *session
	return &out, nil
}

func (r *fakeRepo) ListSessions(_ context.Context, userID string) ([]*domain.Session, error) {
	if r.failWith != nil {
		return nil, r.failWith
	}
	var out []*domain.Session
	for _, session := range r.sessions {
		if userID != "" && session.UserID != userID {
			continue
		}
		copied := *session
		out = append(out, &copied)
	}
	return out, nil
}

func (r *fakeRepo) SaveMessage(_ context.Context, msg *domain.Message) error {
	if r.failWith != nil {
		return r.failWith
	}
	stored := *msg
	r.messages[msg.SessionID] = append(r.messages[msg.SessionID], &stored)
	return nil
}

func (r *fakeRepo) GetMessages(_ context.Context, sessionID string) ([]*domain.Message, error) {
	if r.failWith != nil {
		return nil, r.failWith
	}
	return r.messages[sessionID], nil
}

func (r *fakeRepo) Ping(context.Context) error { return nil }

func (r *fakeRepo) Close() error { return nil }

// fakeDurable backs the durable transcript interface with the in-memory
// store plus blob-addressing extras.
type fakeDurable struct {
	*transcript.MemoryStore
	summaries  map[string]string
	summaryErr error
}

func newFakeDurable() *fakeDurable {
	return &fakeDurable{
		MemoryStore: transcript.NewMemoryStore(),
		summaries:   make(map[string]string),
	}
}

func (d *fakeDurable) PublicURL(sessionID string) string {
	return fmt.Sprintf("https://blob.example.com/transcripts/%s.json", sessionID)
}

func (d *fakeDurable) UploadSummary(_ context.Context, sessionID, summary string) error {
	if d.summaryErr != nil {
		return d.summaryErr
	}
	d.summaries[sessionID] = summary
	return nil
}

type stubProcessor struct {
	reply domain.StructuredReply
	err   error
	calls int
}

func (p *stubProcessor) HandleTurn(_ context.Context, _, _ string) (domain.StructuredReply, error) {
	p.calls++
	if p.err != nil {
		return domain.StructuredReply{}, p.err
	}
	return p.reply, nil
}

type stubSummaries struct {
	summary string
	revised string
	title   string
	err     error
}

func (s *stubSummaries) Summarize(_ context.Context, _ []domain.Turn) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.summary, nil
}

func (s *stubSummaries) Revise(_ context.Context, _ []domain.Turn, existingSummary string, comments []domain.Comment) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if strings.TrimSpace(existingSummary) == "" {
		return "", apperr.New(apperr.CodeValidation, "empty_summary")
	}
	if len(comments) == 0 {
		return "", apperr.New(apperr.CodeValidation, "no_comments")
	}
	return s.revised, nil
}

func (s *stubSummaries) GenerateTitle(_ context.Context, _ string) string {
	return s.title
}

type testEnv struct {
	repo      *fakeRepo
	live      *transcript.MemoryStore
	durable   *fakeDurable
	processor *stubProcessor
	summaries *stubSummaries
	router    chi.Router
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		repo:      newFakeRepo(),
		live:      transcript.NewMemoryStore(),
		durable:   newFakeDurable(),
		processor: &stubProcessor{},
		summaries: &stubSummaries{title: "Tutoring App"},
	}

	base := NewHandler(env.repo, env.live, env.durable, env.processor, env.summaries)
	env.router = chi.NewRouter()
	NewChatHandler(base).RegisterRoutes(env.router)
	NewSessionHandler(base).RegisterRoutes(env.router)
	NewUploadHandler(base).RegisterRoutes(env.router)
	NewSummarizeHandler(base).RegisterRoutes(env.router)
	return env
}

func newRouterWith(handlers ...interface{ RegisterRoutes(chi.Router) }) chi.Router {
	r := chi.NewRouter()
	for _, h := range handlers {
		h.RegisterRoutes(r)
	}
	return r
}

func (env *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("Failed to decode response body: %v", err)
	}
	return out
}

func TestWriteErrMapping(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantMessage string
	}{
		{"validation surfaces reason", apperr.New(apperr.CodeValidation, "empty_utterance"), http.StatusBadRequest, "empty_utterance"},
		{"not found surfaces reason", apperr.New(apperr.CodeNotFound, "transcript_not_found"), http.StatusNotFound, "transcript_not_found"},
		{"upstream is generic", apperr.Wrap(apperr.CodeUpstream, "generation_failed", errors.New("quota")), http.StatusInternalServerError, "generation engine request failed"},
		{"storage is generic", apperr.Wrap(apperr.CodeStorage, "append_user_turn", errors.New("disk")), http.StatusInternalServerError, "internal server error"},
		{"unknown error is generic", errors.New("plain"), http.StatusInternalServerError, "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteErr(rec, tt.err)

			if rec.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			body := decodeBody[map[string]string](t, rec)
			if body["error"] != tt.wantMessage {
				t.Errorf("Expected message %q, got %q", tt.wantMessage, body["error"])
			}
		})
	}
}

func TestJSONHelper(t *testing.T) {
	rec := httptest.NewRecorder()
	JSON(rec, http.StatusCreated, map[string]string{"key": "value"})

	if rec.Code != http.StatusCreated {
		t.Errorf("Expected 201, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected JSON content type, got %q", ct)
	}
	body := decodeBody[map[string]string](t, rec)
	if body["key"] != "value" {
		t.Errorf("Unexpected body: %v", body)
	}
}
