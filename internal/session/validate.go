package session

import (
	"strings"
	"unicode/utf8"

	"github.com/ashureev/notifyhub/internal/shared"
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 8

const (
	msgFillAllFields = "Please fill in all fields"
	msgPasswordShort = "Password must be at least 8 characters long"
	msgPasswordMix   = "Password must contain uppercase, lowercase, and number"
)

// ValidatePassword enforces the registration password policy: at least
// MinPasswordLength characters with one ASCII lowercase letter, one ASCII
// uppercase letter and one digit.
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return &shared.ValidationError{Message: msgPasswordShort}
	}
	var lower, upper, digit bool
	for _, r := range password {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		}
	}
	if !lower || !upper || !digit {
		return &shared.ValidationError{Message: msgPasswordMix}
	}
	return nil
}

func requireFields(values ...string) error {
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			return &shared.ValidationError{Message: msgFillAllFields}
		}
	}
	return nil
}
