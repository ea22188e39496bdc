// Package crypto implements server-side password hashing for goal owner accounts.
package crypto

import (
	"crypto/rand"
	"crypto/subtle"
	"errors"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters (tuned for server-side hashing).
const (
	argonTime    uint32 = 3         // iterations
	argonMemory  uint32 = 64 * 1024 // 64 MB
	argonThreads uint8  = 1
	argonKeyLen  uint32 = 32

	SaltLen = 16
	// MinPasswordLen matches the signup form of the mobile client.
	MinPasswordLen = 6
)

// ErrWeakPassword is returned for passwords graded Weak.
var ErrWeakPassword = errors.New("password must be at least 6 characters with an uppercase letter and a lowercase letter, digit or symbol")

// Strength grades a password the way the signup form does.
type Strength int

const (
	Weak Strength = iota
	Strong
	VeryStrong
)

func (s Strength) String() string {
	switch s {
	case Strong:
		return "Strong"
	case VeryStrong:
		return "Very Strong"
	default:
		return "Weak"
	}
}

// PasswordStrength is Weak below MinPasswordLen or without an uppercase letter.
// An uppercase letter plus any of lowercase, digit or symbol is Strong, all of them VeryStrong.
func PasswordStrength(password string) Strength {
	if len(password) < MinPasswordLen {
		return Weak
	}
	var upper, lower, digit, symbol bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= '0' && r <= '9':
			digit = true
		default:
			symbol = true
		}
	}
	switch {
	case !upper:
		return Weak
	case lower && digit && symbol:
		return VeryStrong
	case lower || digit || symbol:
		return Strong
	default:
		return Weak
	}
}

// RandBytes returns n cryptographically secure random bytes.
func RandBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	_, err := rand.Read(b)
	return b, err
}

// HashPassword returns Argon2id hash of password using the provided salt.
func HashPassword(password, salt []byte) []byte {
	return argon2.IDKey(password, salt, argonTime, argonMemory, argonThreads, argonKeyLen)
}

// NewCredentials validates the password and returns its hash together with a fresh salt.
func NewCredentials(password string) (hash, salt []byte, err error) {
	if PasswordStrength(password) == Weak {
		return nil, nil, ErrWeakPassword
	}
	salt, err = RandBytes(SaltLen)
	if err != nil {
		return nil, nil, err
	}
	return HashPassword([]byte(password), salt), salt, nil
}

// VerifyPassword verifies password against expected Argon2id hash and salt in constant time.
func VerifyPassword(password, salt, expected []byte) bool {
	got := HashPassword(password, salt)
	return subtle.ConstantTimeCompare(got, expected) == 1
}
