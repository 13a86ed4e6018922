package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a referenced row does not exist.
var ErrNotFound = errors.New("not found")

// User represents a registered account.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// Message represents a persisted chat message. Recipient is empty for
// global-room messages. RoomKey is the canonical key of the room the
// message was posted to, denormalized for history queries; the authority
// on room identity remains the (Sender, Recipient) pair.
type Message struct {
	ID        int64
	Sender    string
	Recipient string
	RoomKey   string
	Body      string
	Image     string
	CreatedAt time.Time
}

// Reaction represents one user's emoji reaction on a message. At most one
// row exists per (MessageID, Username, Emoji) triple.
type Reaction struct {
	ID        int64
	MessageID int64
	Username  string
	Emoji     string
	CreatedAt time.Time
}

// UserStore handles account persistence.
type UserStore interface {
	// CreateUser creates a new user with hashed password.
	CreateUser(ctx context.Context, username, passwordHash string) (*User, error)

	// GetUserByUsername retrieves a user by username.
	// Returns ErrNotFound if no such user exists.
	GetUserByUsername(ctx context.Context, username string) (*User, error)
}

// MessageStore handles message persistence.
type MessageStore interface {
	// InsertMessage persists a new message and fills in its assigned ID
	// and creation timestamp.
	InsertMessage(ctx context.Context, msg *Message) error

	// GetMessage retrieves a message by ID. Returns ErrNotFound if the
	// message does not exist (e.g. already deleted).
	GetMessage(ctx context.Context, id int64) (*Message, error)

	// UpdateMessageBody replaces the text of a message. The image and
	// reactions are untouched. Returns ErrNotFound for a missing row.
	UpdateMessageBody(ctx context.Context, id int64, body string) error

	// DeleteMessage removes a message row. Returns ErrNotFound for a
	// missing row.
	DeleteMessage(ctx context.Context, id int64) error

	// ListRecentMessages returns up to limit newest messages of a room in
	// ascending ID order.
	ListRecentMessages(ctx context.Context, roomKey string, limit int) ([]*Message, error)
}

// ReactionStore handles reaction persistence.
type ReactionStore interface {
	// ToggleReaction inserts the (messageID, username, emoji) triple if
	// absent and removes it if present. Returns true if the reaction now
	// exists.
	ToggleReaction(ctx context.Context, messageID int64, username, emoji string) (bool, error)

	// ListReactions returns all reactions on a message.
	ListReactions(ctx context.Context, messageID int64) ([]*Reaction, error)

	// DeleteReactions removes every reaction on a message.
	DeleteReactions(ctx context.Context, messageID int64) error
}

// Store aggregates all storage interfaces.
type Store interface {
	UserStore
	MessageStore
	ReactionStore

	// Close closes the underlying database connection.
	Close() error
}
