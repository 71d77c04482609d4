// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"

	"github.com/scopetalk/scopetalk/internal/domain"
)

// Repository defines the interface for persisting session and message data.
type Repository interface {
	// EnsureSession creates the session row if absent, or refreshes its
	// transcript URL and end timestamp if present. The upsert is keyed
	// by session_id so near-simultaneous first uploads cannot create
	// divergent rows. Returns the current row.
	EnsureSession(ctx context.Context, session *domain.Session) (*domain.Session, error)

	// GetSession retrieves a session by its ID. Returns nil, nil when
	// no row exists.
	GetSession(ctx context.Context, sessionID string) (*domain.Session, error)

	// ListSessions returns sessions, optionally filtered by user ID,
	// each enriched with a title derived from its earliest client
	// message. A missing message never fails the listing.
	ListSessions(ctx context.Context, userID string) ([]*domain.Session, error)

	// SaveMessage records a single chat message row.
	SaveMessage(ctx context.Context, msg *domain.Message) error

	// GetMessages returns a session's message rows in chronological order.
	GetMessages(ctx context.Context, sessionID string) ([]*domain.Message, error)

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
