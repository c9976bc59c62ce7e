package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/devprep/interview-bot/internal/domain"
	"github.com/devprep/interview-bot/internal/platform/logger"
	"github.com/devprep/interview-bot/internal/store"
)

// PostgresUserStore implements the store.UserStore interface
// using a PostgreSQL database as the storage backend.
type PostgresUserStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresUserStore creates a new PostgreSQL implementation of the
// UserStore interface. It accepts a database connection or transaction that
// should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresUserStore(db store.DBTX, logger *slog.Logger) *PostgresUserStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresUserStore{
		db:     db,
		logger: logger.With(slog.String("component", "user_store")),
	}
}

// Ensure PostgresUserStore implements store.UserStore interface
var _ store.UserStore = (*PostgresUserStore)(nil)

// WithTx implements store.UserStore.WithTx
func (s *PostgresUserStore) WithTx(tx *sql.Tx) store.UserStore {
	return &PostgresUserStore{
		db:     tx,
		logger: s.logger,
	}
}

// GetOrCreateByChatID implements store.UserStore.GetOrCreateByChatID
// A new user gets an empty session row in the same call so the delivery and
// intake paths can assume the row exists.
func (s *PostgresUserStore) GetOrCreateByChatID(ctx context.Context, chatID int64) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := s.GetByChatID(ctx, chatID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, store.ErrUserNotFound) {
		return nil, err
	}

	newUser, err := domain.NewUser(chatID)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO users (chat_id, active, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (chat_id) DO UPDATE SET chat_id = EXCLUDED.chat_id
		RETURNING id, chat_id, active, created_at
	`

	var u domain.User
	err = s.db.QueryRowContext(
		ctx,
		query,
		newUser.ChatID,
		newUser.Active,
		newUser.CreatedAt,
	).Scan(&u.ID, &u.ChatID, &u.Active, &u.CreatedAt)
	if err != nil {
		log.Error("failed to create user",
			slog.String("error", err.Error()),
			slog.Int64("chat_id", chatID))
		return nil, MapError(err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO user_sessions (user_id)
		VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING
	`, u.ID)
	if err != nil {
		log.Error("failed to create user session row",
			slog.String("error", err.Error()),
			slog.Int64("user_id", u.ID))
		return nil, MapError(err)
	}

	log.Info("user registered",
		slog.Int64("user_id", u.ID),
		slog.Int64("chat_id", u.ChatID))
	return &u, nil
}

// GetByChatID implements store.UserStore.GetByChatID
// Returns store.ErrUserNotFound if the user does not exist.
func (s *PostgresUserStore) GetByChatID(ctx context.Context, chatID int64) (*domain.User, error) {
	query := `
		SELECT id, chat_id, active, created_at
		FROM users
		WHERE chat_id = $1
	`

	var u domain.User
	err := s.db.QueryRowContext(ctx, query, chatID).Scan(&u.ID, &u.ChatID, &u.Active, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrUserNotFound
		}
		return nil, MapError(err)
	}

	return &u, nil
}

// ListActive implements store.UserStore.ListActive
func (s *PostgresUserStore) ListActive(ctx context.Context) ([]domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, chat_id, active, created_at
		FROM users
		WHERE active
		ORDER BY id ASC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		log.Error("failed to list active users",
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var users []domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.ChatID, &u.Active, &u.CreatedAt); err != nil {
			return nil, MapError(err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return users, nil
}

// SetActive implements store.UserStore.SetActive
// Returns store.ErrUserNotFound if the user does not exist.
func (s *PostgresUserStore) SetActive(ctx context.Context, userID int64, active bool) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE users SET active = $1 WHERE id = $2
	`, active, userID)
	if err != nil {
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "user"); err != nil {
		return store.ErrUserNotFound
	}

	return nil
}
