package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/scopetalk/scopetalk/internal/domain"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS sessions (
		session_id TEXT PRIMARY KEY,
		user_id TEXT,
		transcript_url TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		ended_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id) WHERE user_id IS NOT NULL;

	CREATE TABLE IF NOT EXISTS messages (
		message_id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		sender TEXT NOT NULL,
		text TEXT NOT NULL,
		selected_option TEXT,
		custom_response TEXT,
		allow_other INTEGER DEFAULT 0,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id, created_at);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// EnsureSession creates or refreshes a session row keyed by session_id.
// The creation timestamp and user ID of an existing row are preserved.
func (s *SQLiteStore) EnsureSession(ctx context.Context, session *domain.Session) (*domain.Session, error) {
	now := time.Now()
	createdAt := session.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	endedAt := session.EndedAt
	if endedAt.IsZero() {
		endedAt = now
	}

	query := `
	INSERT INTO sessions (session_id, user_id, transcript_url, created_at, ended_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(session_id) DO UPDATE SET
		user_id = COALESCE(sessions.user_id, excluded.user_id),
		transcript_url = excluded.transcript_url,
		ended_at = excluded.ended_at`

	var userID interface{}
	if session.UserID != "" {
		userID = session.UserID
	}

	_, err := s.db.ExecContext(ctx, query,
		session.SessionID, userID, session.TranscriptURL,
		createdAt.Unix(), endedAt.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("upsert session: %w", err)
	}

	return s.GetSession(ctx, session.SessionID)
}

// GetSession retrieves a session by its ID.
func (s *SQLiteStore) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	query := `
		SELECT session_id, user_id, transcript_url, created_at, ended_at
		FROM sessions WHERE session_id = ?`

	row := s.db.QueryRowContext(ctx, query, sessionID)

	session, err := scanSession(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan session row: %w", err)
	}
	return session, nil
}

// ListSessions returns sessions enriched with derived titles.
func (s *SQLiteStore) ListSessions(ctx context.Context, userID string) ([]*domain.Session, error) {
	query := `
		SELECT s.session_id, s.user_id, s.transcript_url, s.created_at, s.ended_at,
		       (SELECT m.text FROM messages m
		        WHERE m.session_id = s.session_id AND m.sender = ?
		        ORDER BY m.created_at ASC, m.message_id ASC LIMIT 1)
		FROM sessions s`
	args := []interface{}{domain.SenderClient}

	if userID != "" {
		query += ` WHERE s.user_id = ?`
		args = append(args, userID)
	}
	query += ` ORDER BY s.created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var sessions []*domain.Session
	for rows.Next() {
		var session domain.Session
		var uid, firstMessage sql.NullString
		var createdAt, endedAt int64

		if err := rows.Scan(
			&session.SessionID, &uid, &session.TranscriptURL,
			&createdAt, &endedAt, &firstMessage,
		); err != nil {
			return nil, fmt.Errorf("scan session row: %w", err)
		}

		session.UserID = uid.String
		session.CreatedAt = time.Unix(createdAt, 0)
		session.EndedAt = time.Unix(endedAt, 0)
		session.Title = domain.DeriveTitle(firstMessage.String, session.SessionID)
		sessions = append(sessions, &session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}

	return sessions, nil
}

// SaveMessage records a single chat message row.
func (s *SQLiteStore) SaveMessage(ctx context.Context, msg *domain.Message) error {
	query := `
	INSERT INTO messages (message_id, session_id, sender, text, selected_option, custom_response, allow_other, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(message_id) DO UPDATE SET
		text = excluded.text,
		selected_option = excluded.selected_option,
		custom_response = excluded.custom_response,
		allow_other = excluded.allow_other`

	createdAt := msg.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	var selectedOption, customResponse interface{}
	if msg.SelectedOption != "" {
		selectedOption = msg.SelectedOption
	}
	if msg.CustomResponse != "" {
		customResponse = msg.CustomResponse
	}

	_, err := s.db.ExecContext(ctx, query,
		msg.MessageID, msg.SessionID, msg.Sender, msg.Text,
		selectedOption, customResponse, msg.AllowOther, createdAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("upsert message: %w", err)
	}
	return nil
}

// GetMessages returns a session's message rows in chronological order.
func (s *SQLiteStore) GetMessages(ctx context.Context, sessionID string) ([]*domain.Message, error) {
	query := `
		SELECT message_id, session_id, sender, text, selected_option, custom_response, allow_other, created_at
		FROM messages WHERE session_id = ?
		ORDER BY created_at ASC, message_id ASC`

	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var messages []*domain.Message
	for rows.Next() {
		var msg domain.Message
		var selectedOption, customResponse sql.NullString
		var createdAt int64

		if err := rows.Scan(
			&msg.MessageID, &msg.SessionID, &msg.Sender, &msg.Text,
			&selectedOption, &customResponse, &msg.AllowOther, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan message row: %w", err)
		}

		msg.SelectedOption = selectedOption.String
		msg.CustomResponse = customResponse.String
		msg.CreatedAt = time.Unix(0, createdAt)
		messages = append(messages, &msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}

	return messages, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

func scanSession(scan func(dest ...interface{}) error) (*domain.Session, error) {
	var session domain.Session
	var uid sql.NullString
	var createdAt, endedAt int64

	if err := scan(&session.SessionID, &uid, &session.TranscriptURL, &createdAt, &endedAt); err != nil {
		return nil, err
	}

	session.UserID = uid.String
	session.CreatedAt = time.Unix(createdAt, 0)
	session.EndedAt = time.Unix(endedAt, 0)
	return &session, nil
}
