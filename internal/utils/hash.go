package utils

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// BcryptCost matches the cost the existing user records were hashed with;
// changing it would not invalidate old hashes (bcrypt embeds the cost) but
// keep it stable for predictable login latency.
const BcryptCost = 10

var ErrPasswordTooLong = errors.New("password exceeds 72 bytes")

// HashPassword generates a bcrypt hash of the password.
func HashPassword(password string) (string, error) {
	if len(password) > 72 {
		// bcrypt silently truncates beyond 72 bytes; reject instead
		return "", ErrPasswordTooLong
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// VerifyPassword checks if password matches the stored bcrypt hash.
func VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
