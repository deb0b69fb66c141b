package history

import "errors"

// Store errors.
var (
	// ErrStoreClosed indicates an operation on a closed store.
	ErrStoreClosed = errors.New("archive store is closed")

	// ErrSessionNotFound indicates no records exist for the session.
	ErrSessionNotFound = errors.New("session not found")
)

// Store archives fired events beyond the bounded in-memory history.
// Archiving is best-effort from the engine's perspective: failures are
// logged, never fatal.
type Store interface {
	// Append archives a record under a session ID.
	Append(sessionID string, rec Record) error

	// List returns all archived records for a session in insertion order.
	List(sessionID string) ([]Record, error)

	// DeleteSession removes all records for a session.
	DeleteSession(sessionID string) error

	// Close releases store resources.
	Close() error
}
