// Package transcript provides the durable ordered log of turns per session.
package transcript

import (
	"context"

	"github.com/scopetalk/scopetalk/internal/domain"
)

// Store is the transcript store contract. Turns within one session are
// totally ordered by append sequence; implementations must keep concurrent
// appends for the same session from dropping each other.
type Store interface {
	// Append adds turns to the end of the session's transcript, creating
	// it if needed.
	Append(ctx context.Context, sessionID string, turns []domain.Turn) error

	// ReadAll returns the session's turns in append order. It returns a
	// NOT_FOUND application error when no transcript has ever been
	// written for the session.
	ReadAll(ctx context.Context, sessionID string) ([]domain.Turn, error)

	// Overwrite replaces the session's transcript wholesale. Used only
	// for read-modify-write flows on backends without a native append.
	Overwrite(ctx context.Context, sessionID string, turns []domain.Turn) error
}
