package helpers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"marzban-go/internal/constants"
	"marzban-go/pkg/marzban"
)

func TestFormatNodeUsageReport(t *testing.T) {
	id := 1
	report := FormatNodeUsageReport([]marzban.NodeUsage{
		{NodeName: "Master", Downlink: 2 * constants.BytesInGB, Uplink: constants.BytesInGB / 2},
		{NodeID: &id, NodeName: "germany-frankfurt-01", Downlink: constants.BytesInGB, Uplink: 0},
	})

	lines := strings.Split(strings.TrimSuffix(report, "\n"), "\n")
	require.Len(t, lines, 6)
	require.Equal(t, "Master            |   2.00 |   0.50", lines[2])
	require.Equal(t, "germany-frankf... |   1.00 |   0.00", lines[3])
	require.Equal(t, "Total:            |   3.00 |   0.50", lines[5])
}

func TestFormatUserUsageReport(t *testing.T) {
	report := FormatUserUsageReport(&marzban.UserUsage{
		Username: "alice",
		Usages: []marzban.UserNodeUsage{
			{NodeName: "Master", UsedTraffic: constants.BytesInGB},
			{NodeName: "de-1", UsedTraffic: constants.BytesInGB},
		},
	})
	require.True(t, strings.HasPrefix(report, "Usage of alice:\n"))
	require.Contains(t, report, "Total:            |  2.00 GB")
}

func TestFormatDataLimit(t *testing.T) {
	require.Equal(t, "∞", FormatDataLimit(0))
	require.Equal(t, "1.50 GB", FormatDataLimit(constants.BytesInGB*3/2))
}
