package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/scopetalk/scopetalk/internal/domain"
)

func newTestRepo(t *testing.T) Repository {
	t.Helper()
	repo, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLite failed: %v", err)
	}
	t.Cleanup(func() {
		if err := repo.Close(); err != nil {
			t.Errorf("Close failed: %v", err)
		}
	})
	return repo
}

func TestEnsureSessionIdempotent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	first, err := repo.EnsureSession(ctx, &domain.Session{
		SessionID:     "s1",
		UserID:        "u1",
		TranscriptURL: "https://example.com/t/s1.json",
	})
	if err != nil {
		t.Fatalf("First EnsureSession failed: %v", err)
	}

	second, err := repo.EnsureSession(ctx, &domain.Session{
		SessionID:     "s1",
		TranscriptURL: "https://example.com/t/s1-v2.json",
	})
	if err != nil {
		t.Fatalf("Second EnsureSession failed: %v", err)
	}

	sessions, err := repo.ListSessions(ctx, "")
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("Expected exactly one session row, got %d", len(sessions))
	}

	if second.CreatedAt != first.CreatedAt {
		t.Errorf("Upsert must preserve creation time: %v vs %v", first.CreatedAt, second.CreatedAt)
	}
	if second.UserID != "u1" {
		t.Errorf("Upsert must preserve existing user, got %q", second.UserID)
	}
	if second.TranscriptURL != "https://example.com/t/s1-v2.json" {
		t.Errorf("Upsert must refresh transcript URL, got %q", second.TranscriptURL)
	}
}

func TestGetSessionNotFound(t *testing.T) {
	repo := newTestRepo(t)

	session, err := repo.GetSession(context.Background(), "missing")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if session != nil {
		t.Errorf("Expected nil for unknown session, got %+v", session)
	}
}

func TestListSessionsTitleJoin(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.EnsureSession(ctx, &domain.Session{SessionID: "with-messages", TranscriptURL: "u"}); err != nil {
		t.Fatalf("EnsureSession failed: %v", err)
	}
	if _, err := repo.EnsureSession(ctx, &domain.Session{SessionID: "no-messages-123", TranscriptURL: "u"}); err != nil {
		t.Fatalf("EnsureSession failed: %v", err)
	}

	base := time.Now()
	messages := []*domain.Message{
		{MessageID: "m2", SessionID: "with-messages", Sender: domain.SenderClient, Text: "a later client message", CreatedAt: base.Add(time.Second)},
		{MessageID: "m1", SessionID: "with-messages", Sender: domain.SenderAI, Text: "bot greeting", CreatedAt: base},
		{MessageID: "m0", SessionID: "with-messages", Sender: domain.SenderClient, Text: "We want to build a tutoring app for students who need help after hours", CreatedAt: base.Add(500 * time.Millisecond)},
	}
	for _, msg := range messages {
		if err := repo.SaveMessage(ctx, msg); err != nil {
			t.Fatalf("SaveMessage failed: %v", err)
		}
	}

	sessions, err := repo.ListSessions(ctx, "")
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}

	byID := make(map[string]*domain.Session)
	for _, s := range sessions {
		byID[s.SessionID] = s
	}

	// Earliest client message, clipped to 50 chars.
	want := "We want to build a tutoring app for students who n"
	if got := byID["with-messages"].Title; got != want {
		t.Errorf("Expected title %q, got %q", want, got)
	}

	// No client message: fallback to identifier-derived title, and the
	// listing must not fail.
	if got := byID["no-messages-123"].Title; got != "Session ages-123" {
		t.Errorf("Expected fallback title, got %q", got)
	}
}

func TestListSessionsUserFilter(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.EnsureSession(ctx, &domain.Session{SessionID: "s1", UserID: "alice", TranscriptURL: "u"}); err != nil {
		t.Fatalf("EnsureSession failed: %v", err)
	}
	if _, err := repo.EnsureSession(ctx, &domain.Session{SessionID: "s2", UserID: "bob", TranscriptURL: "u"}); err != nil {
		t.Fatalf("EnsureSession failed: %v", err)
	}

	sessions, err := repo.ListSessions(ctx, "alice")
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if len(sessions) != 1 || sessions[0].SessionID != "s1" {
		t.Errorf("Expected only alice's session, got %v", sessions)
	}
}

func TestMessagesChronologicalOrder(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	base := time.Now()
	for i, id := range []string{"m3", "m1", "m2"} {
		offsets := map[string]time.Duration{"m1": 0, "m2": time.Second, "m3": 2 * time.Second}
		if err := repo.SaveMessage(ctx, &domain.Message{
			MessageID: id,
			SessionID: "s1",
			Sender:    domain.SenderClient,
			Text:      id,
			CreatedAt: base.Add(offsets[id]),
		}); err != nil {
			t.Fatalf("SaveMessage %d failed: %v", i, err)
		}
	}

	messages, err := repo.GetMessages(ctx, "s1")
	if err != nil {
		t.Fatalf("GetMessages failed: %v", err)
	}
	if len(messages) != 3 {
		t.Fatalf("Expected 3 messages, got %d", len(messages))
	}
	for i, want := range []string{"m1", "m2", "m3"} {
		if messages[i].MessageID != want {
			t.Errorf("Position %d: expected %s, got %s", i, want, messages[i].MessageID)
		}
	}
}

func TestSaveMessageUpsert(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	msg := &domain.Message{MessageID: "m1", SessionID: "s1", Sender: domain.SenderClient, Text: "draft"}
	if err := repo.SaveMessage(ctx, msg); err != nil {
		t.Fatalf("SaveMessage failed: %v", err)
	}
	msg.Text = "final"
	msg.SelectedOption = "Students"
	if err := repo.SaveMessage(ctx, msg); err != nil {
		t.Fatalf("SaveMessage upsert failed: %v", err)
	}

	messages, err := repo.GetMessages(ctx, "s1")
	if err != nil {
		t.Fatalf("GetMessages failed: %v", err)
	}
	if len(messages) != 1 {
		t.Fatalf("Expected one row after upsert, got %d", len(messages))
	}
	if messages[0].Text != "final" || messages[0].SelectedOption != "Students" {
		t.Errorf("Upsert did not update fields: %+v", messages[0])
	}
}
