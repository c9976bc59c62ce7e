package store

import (
	"context"
	"database/sql"

	"github.com/devprep/interview-bot/internal/domain"
)

// UserStore defines the interface for user data persistence.
type UserStore interface {
	// GetOrCreateByChatID returns the user for the given chat identity,
	// creating it (active, with an empty session row) on first interaction.
	GetOrCreateByChatID(ctx context.Context, chatID int64) (*domain.User, error)

	// GetByChatID retrieves a user by chat ID.
	// Returns ErrUserNotFound if the user does not exist.
	GetByChatID(ctx context.Context, chatID int64) (*domain.User, error)

	// ListActive returns all users subscribed to the daily broadcast.
	ListActive(ctx context.Context) ([]domain.User, error)

	// SetActive flips the broadcast subscription flag.
	// Returns ErrUserNotFound if the user does not exist.
	SetActive(ctx context.Context, userID int64, active bool) error

	// WithTx returns a UserStore bound to the provided transaction.
	WithTx(tx *sql.Tx) UserStore
}
