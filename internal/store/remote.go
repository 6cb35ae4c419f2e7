package store

import (
	"context"
	"errors"

	"github.com/aequanimitas-app/backend/internal/models"
)

var (
	// ErrNotFound means the record has never been written (or was deleted).
	ErrNotFound = errors.New("record not found")
	// ErrUnavailable means the remote store cannot be reached at all. The
	// caller degrades to the local fallback for the rest of the session.
	ErrUnavailable = errors.New("remote store unavailable")
)

// StopFunc tears down a live watch. It returns only after the watch is
// guaranteed to deliver no further callbacks.
type StopFunc func()

// RemoteStore is the contract the engine needs from the authoritative
// document store. Watches deliver full snapshots, never diffs, in the order
// the store emits them. A faulted watch reports once via onErr and then goes
// silent until re-established.
type RemoteStore interface {
	// ReadPreferences returns the user's preference record, or ErrNotFound.
	ReadPreferences(ctx context.Context, userID string) (*models.UserPreferences, error)

	// WritePreferences merge-writes the record, creating it if absent.
	// Fields outside the preference schema are left untouched.
	WritePreferences(ctx context.Context, userID string, prefs models.UserPreferences) error

	// ReadJournal returns the user's complete entry set ordered by
	// created_at descending.
	ReadJournal(ctx context.Context, userID string) ([]models.JournalEntry, error)

	// WatchPreferences emits the current record (nil when absent)
	// immediately, then again on every change; nil on delete.
	WatchPreferences(ctx context.Context, userID string, onChange func(*models.UserPreferences), onErr func(error)) (StopFunc, error)

	// WatchJournal emits the complete ordered entry set immediately and
	// after every change to the user's collection.
	WatchJournal(ctx context.Context, userID string, onSnapshot func([]models.JournalEntry), onErr func(error)) (StopFunc, error)
}
