package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Cost used for new password hashes. Existing hashes keep whatever cost
// they were created with; bcrypt embeds it in the hash.
const hashCost = 10

// HashPassword derives the bcrypt hash stored in the users table.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), hashCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// ComparePassword checks a plaintext password against a stored hash.
// Returns nil only on a match.
func ComparePassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
