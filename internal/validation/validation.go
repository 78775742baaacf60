package validation

import (
	"strconv"

	"marzban-go/internal/constants"
	apperrors "marzban-go/internal/errors"
)

// ValidateUsername checks a username against the panel's naming rules
func ValidateUsername(username string) error {
	if len(username) < constants.MinUsernameLength || len(username) > constants.MaxUsernameLength {
		return &apperrors.ValidationError{
			Field:   "username",
			Message: "must be between 3 and 32 characters",
		}
	}

	for _, r := range username {
		if !isValidUsernameChar(r) {
			return &apperrors.ValidationError{
				Field:   "username",
				Message: "can only contain lowercase letters, numbers, and underscores",
			}
		}
	}

	return nil
}

// ValidateDays parses a day count. Zero means no expiry.
func ValidateDays(daysStr string) (int, error) {
	days, err := strconv.Atoi(daysStr)
	if err != nil {
		return 0, &apperrors.ValidationError{Field: "days", Message: "must be a number"}
	}

	if days < 0 {
		return 0, &apperrors.ValidationError{Field: "days", Message: "must not be negative"}
	}

	if days > constants.MaxExpireDays {
		return 0, &apperrors.ValidationError{Field: "days", Message: "cannot exceed 3650 days"}
	}

	return days, nil
}

// isValidUsernameChar checks if a character is valid for usernames
func isValidUsernameChar(r rune) bool {
	return (r >= 'a' && r <= 'z') ||
		(r >= '0' && r <= '9') ||
		r == '_'
}
