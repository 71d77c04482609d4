// Package domain contains core domain types for the intake assistant.
package domain

import (
	"fmt"
	"time"
)

// Roles for transcript turns. These values are part of the persisted
// transcript format and must not change.
const (
	RoleUser = "user"
	RoleBot  = "bot"
)

// Senders for persisted chat message rows.
const (
	SenderClient = "client"
	SenderAI     = "ai"
)

// Session represents one intake conversation and its durable metadata.
// A row exists only once at least one turn has been durably persisted;
// rows are never created speculatively.
type Session struct {
	SessionID     string    `json:"session_id"`
	UserID        string    `json:"user_id,omitempty"`
	TranscriptURL string    `json:"transcript_url"`
	Title         string    `json:"title,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	EndedAt       time.Time `json:"ended_at"`
}

// Turn is one ordered element of a transcript. Turns are append-only;
// visible history only grows.
type Turn struct {
	Role    string `json:"role"`
	Message string `json:"message"`
}

// Message is a per-turn row in the relational store, carrying the UI
// state the transcript blob does not (selected option, custom response).
type Message struct {
	MessageID      string    `json:"message_id"`
	SessionID      string    `json:"session_id"`
	Sender         string    `json:"sender"`
	Text           string    `json:"text"`
	SelectedOption string    `json:"selected_option,omitempty"`
	CustomResponse string    `json:"custom_response,omitempty"`
	AllowOther     bool      `json:"allow_other"`
	CreatedAt      time.Time `json:"created_at"`
}

// maxTitleLen bounds the derived session title.
const maxTitleLen = 50

// DeriveTitle returns a listing title for a session: the first characters
// of the earliest client message, or an identifier-derived fallback when
// the join found no message.
func DeriveTitle(firstMessage, sessionID string) string {
	if firstMessage != "" {
		runes := []rune(firstMessage)
		if len(runes) > maxTitleLen {
			return string(runes[:maxTitleLen])
		}
		return firstMessage
	}
	suffix := sessionID
	if len(suffix) > 8 {
		suffix = suffix[len(suffix)-8:]
	}
	return fmt.Sprintf("Session %s", suffix)
}
