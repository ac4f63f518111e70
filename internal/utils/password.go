package utils

import (
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// passwordSpecials is the accepted special-character set for new passwords.
const passwordSpecials = "$@!%*?&"

// HashPassword returns bcrypt hash using the given cost.
func HashPassword(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword safely compares bcrypt hash and plain password.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// CheckPasswordPolicy validates a candidate password against the account
// policy: at least 8 characters, with a lowercase letter, an uppercase
// letter, a digit and one special character from passwordSpecials.  It
// returns "" when the password is acceptable, otherwise a message suitable
// for a field-level validation error.
func CheckPasswordPolicy(plain string) string {
	if len(plain) < 8 {
		return "password must be at least 8 characters"
	}
	var lower, upper, digit, special bool
	for _, r := range plain {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(passwordSpecials, r):
			special = true
		}
	}
	switch {
	case !lower:
		return "password must contain a lowercase letter"
	case !upper:
		return "password must contain an uppercase letter"
	case !digit:
		return "password must contain a digit"
	case !special:
		return "password must contain one of " + passwordSpecials
	}
	return ""
}
