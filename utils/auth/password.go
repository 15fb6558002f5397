package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// Password length bounds. bcrypt only looks at the first 72 bytes.
const (
	MinPasswordLength = 8
	MaxPasswordLength = 72
)

var (
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")
	ErrPasswordTooLong  = errors.New("password must be at most 72 bytes")
	ErrPasswordMismatch = errors.New("password does not match")
)

// Cost is the bcrypt cost for new hashes. Tests lower it to bcrypt.MinCost.
var Cost = 12

// HashPassword checks the length bounds and returns a bcrypt hash
func HashPassword(password string) (string, error) {
	switch {
	case len(password) < MinPasswordLength:
		return "", ErrPasswordTooShort
	case len(password) > MaxPasswordLength:
		return "", ErrPasswordTooLong
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), Cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword returns ErrPasswordMismatch for a wrong password
func VerifyPassword(hash, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrPasswordMismatch
	}
	return err
}

// IsWeakPassword reports whether err came from the length checks in HashPassword
func IsWeakPassword(err error) bool {
	return errors.Is(err, ErrPasswordTooShort) || errors.Is(err, ErrPasswordTooLong)
}

// NeedsRehash reports whether hash was made with a different cost than Cost
func NeedsRehash(hash string) bool {
	cost, err := bcrypt.Cost([]byte(hash))
	return err != nil || cost != Cost
}
