package marzban

import (
	"encoding/json"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFormatQueryTime(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	require.Equal(t, "2024-01-02T03:04:05", FormatQueryTime(ts))

	// Fractional seconds and zone are dropped
	zone := time.FixedZone("MSK", 3*60*60)
	ts = time.Date(2024, 1, 2, 3, 4, 5, 987654321, zone)
	require.Equal(t, "2024-01-02T03:04:05", FormatQueryTime(ts))
}

func TestSetTimeRange(t *testing.T) {
	start := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	end := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	q := url.Values{}
	setTimeRange(q, "start", &start, "end", &end)
	require.Equal(t, "2024-01-02T03:04:05", q.Get("start"))
	require.Equal(t, "2024-02-01T00:00:00", q.Get("end"))

	q = url.Values{}
	setTimeRange(q, "start", nil, "end", nil)
	require.Empty(t, q)
}

func TestTimeUnmarshalJSON(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected time.Time
	}{
		{
			name:     "fractional seconds",
			input:    `"2024-01-02T03:04:05.123456"`,
			expected: time.Date(2024, 1, 2, 3, 4, 5, 123456000, time.UTC),
		},
		{
			name:     "plain",
			input:    `"2024-01-02T03:04:05"`,
			expected: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		},
		{
			name:     "zulu",
			input:    `"2024-01-02T03:04:05Z"`,
			expected: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		},
		{
			name:  "null",
			input: `null`,
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			var ts Time
			require.NoError(t, json.Unmarshal([]byte(testCase.input), &ts))
			require.True(t, testCase.expected.Equal(ts.Time))
		})
	}

	var ts Time
	require.Error(t, json.Unmarshal([]byte(`"yesterday"`), &ts))
	require.Error(t, json.Unmarshal([]byte(`42`), &ts))
}

func TestTimeMarshalJSON(t *testing.T) {
	b, err := json.Marshal(Time{Time: time.Date(2024, 1, 2, 3, 4, 5, 999, time.UTC)})
	require.NoError(t, err)
	require.Equal(t, `"2024-01-02T03:04:05"`, string(b))

	b, err = json.Marshal(Time{})
	require.NoError(t, err)
	require.Equal(t, `null`, string(b))
}
