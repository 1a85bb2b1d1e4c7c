package shop

import (
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

const specialChars = `!@#$%^&*()_+-=[]{};':"\|,.<>/?`

// ValidatePassword enforces the registration strength rules, reporting the
// first rule that fails.
func ValidatePassword(pw string) error {
	if len(pw) < 8 {
		return reason(ErrInvalidInput, "Password must be at least 8 characters long")
	}
	if !strings.ContainsFunc(pw, unicode.IsUpper) {
		return reason(ErrInvalidInput, "Password must contain at least one uppercase letter")
	}
	if !strings.ContainsFunc(pw, unicode.IsLower) {
		return reason(ErrInvalidInput, "Password must contain at least one lowercase letter")
	}
	if !strings.ContainsFunc(pw, unicode.IsDigit) {
		return reason(ErrInvalidInput, "Password must contain at least one number")
	}
	if !strings.ContainsAny(pw, specialChars) {
		return reason(ErrInvalidInput, "Password must contain at least one special character")
	}
	return nil
}

func HashPassword(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	return string(b), err
}

func CheckPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
