package domain

import (
	"errors"
	"time"
)

// Common validation errors
var (
	ErrEmptyChatID = errors.New("user chat ID cannot be empty")
)

// User represents a registered chat identity. Users are created lazily on
// first interaction and stay subscribed to the daily broadcast while Active.
type User struct {
	ID        int64     `json:"id"`
	ChatID    int64     `json:"chat_id"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// NewUser creates a new active User for the given chat ID.
// The internal ID is assigned by the store on insert.
// Returns an error if validation fails.
func NewUser(chatID int64) (*User, error) {
	user := &User{
		ChatID:    chatID,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}

	return user, nil
}

// Validate checks if the User has valid data.
func (u *User) Validate() error {
	if u.ChatID == 0 {
		return ErrEmptyChatID
	}

	return nil
}
