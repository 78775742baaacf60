package validation

import (
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "marzban-go/internal/errors"
)

func TestValidateUsername(t *testing.T) {
	for _, username := range []string{"abc", "user_01", "a_very_long_username_of_32_chars"} {
		require.NoError(t, ValidateUsername(username), username)
	}

	for _, username := range []string{"ab", "Alice", "user-01", "пользователь", "a_very_long_username_of_33_chars_"} {
		err := ValidateUsername(username)
		require.Error(t, err, username)
		require.IsType(t, &apperrors.ValidationError{}, err)
	}
}

func TestValidateDays(t *testing.T) {
	days, err := ValidateDays("30")
	require.NoError(t, err)
	require.Equal(t, 30, days)

	days, err = ValidateDays("0")
	require.NoError(t, err)
	require.Zero(t, days)

	for _, input := range []string{"", "thirty", "-1", "3651"} {
		_, err := ValidateDays(input)
		var validationErr *apperrors.ValidationError
		require.ErrorAs(t, err, &validationErr, input)
		require.Equal(t, "days", validationErr.Field)
	}
}
