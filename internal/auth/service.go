package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/emberchat/ember-server/internal/store"
)

var (
	// ErrInvalidCredentials is returned when login fails.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUsernameTaken is returned when the username is already registered.
	ErrUsernameTaken = errors.New("username taken")
	// ErrInvalidUsername is returned when the username violates the
	// allowed character set or length.
	ErrInvalidUsername = errors.New("invalid username")
)

// Usernames are restricted to lowercase letters, digits and underscores.
// Keeping ':' out of the set guarantees a direct room key ("dm:a:b") can
// never be forged or collide with the global room name.
var usernameRe = regexp.MustCompile(`^[a-z0-9_]{3,32}$`)

// Service implements registration and login against the user store.
type Service struct {
	users store.UserStore
	jwt   *JWTConfig
}

// NewService creates an auth service.
func NewService(users store.UserStore, jwtConfig *JWTConfig) *Service {
	return &Service{users: users, jwt: jwtConfig}
}

// Register creates an account and returns a session token.
func (s *Service) Register(ctx context.Context, username, password string) (string, error) {
	if !usernameRe.MatchString(username) {
		return "", ErrInvalidUsername
	}

	if _, err := s.users.GetUserByUsername(ctx, username); err == nil {
		return "", ErrUsernameTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return "", fmt.Errorf("lookup user: %w", err)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return "", err
	}

	user, err := s.users.CreateUser(ctx, username, hash)
	if err != nil {
		return "", fmt.Errorf("create user: %w", err)
	}

	return GenerateToken(s.jwt, user.Username)
}

// Login verifies credentials and returns a session token.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("lookup user: %w", err)
	}

	if err := ComparePassword(user.PasswordHash, password); err != nil {
		return "", ErrInvalidCredentials
	}

	return GenerateToken(s.jwt, user.Username)
}

// ValidateToken verifies a session token and returns its claims.
func (s *Service) ValidateToken(token string) (*Claims, error) {
	return ValidateToken(s.jwt, token)
}
