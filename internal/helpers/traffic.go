package helpers

import (
	"fmt"
	"strings"

	"marzban-go/internal/constants"
	"marzban-go/pkg/marzban"
)

// FormatNodeUsageReport formats per-node traffic as a fixed-width table
func FormatNodeUsageReport(usages []marzban.NodeUsage) string {
	var sb strings.Builder
	sb.WriteString("Node              | ↓ (GB) | ↑ (GB)\n")
	sb.WriteString("------------------|--------|--------\n")

	var totalDown, totalUp int64
	for _, usage := range usages {
		totalDown += usage.Downlink
		totalUp += usage.Uplink
		sb.WriteString(FormatTableLine(usage.NodeName, usage.Downlink, usage.Uplink))
	}

	sb.WriteString("------------------|--------|--------\n")
	sb.WriteString(FormatTableLine("Total:", totalDown, totalUp))

	return sb.String()
}

// FormatUserUsageReport formats a user's per-node traffic
func FormatUserUsageReport(usage *marzban.UserUsage) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Usage of %s:\n", usage.Username))

	var total int64
	for _, nodeUsage := range usage.Usages {
		total += nodeUsage.UsedTraffic
		sb.WriteString(fmt.Sprintf("%-17s | %8s\n", truncateName(nodeUsage.NodeName), FormatBytes(nodeUsage.UsedTraffic)))
	}
	sb.WriteString(fmt.Sprintf("%-17s | %8s\n", "Total:", FormatBytes(total)))

	return sb.String()
}

// FormatTableLine formats a single line of the traffic table
func FormatTableLine(name string, downBytes int64, upBytes int64) string {
	downGB := float64(downBytes) / constants.BytesInGB
	upGB := float64(upBytes) / constants.BytesInGB

	return fmt.Sprintf("%-17s | %6.2f | %6.2f\n", truncateName(name), downGB, upGB)
}

// FormatBytes renders a byte count in GB with two decimals
func FormatBytes(bytes int64) string {
	return fmt.Sprintf("%.2f GB", float64(bytes)/constants.BytesInGB)
}

// FormatDataLimit renders a data limit, where zero means unlimited
func FormatDataLimit(bytes int64) string {
	if bytes == 0 {
		return "∞"
	}
	return FormatBytes(bytes)
}

func truncateName(name string) string {
	if len(name) > constants.MaxNodeNameDisplay {
		return name[:constants.MaxNodeNameTruncate] + "..."
	}
	return name
}
