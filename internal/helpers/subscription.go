package helpers

import (
	"fmt"
	"sort"
	"strings"

	"marzban-go/internal/constants"
	"marzban-go/pkg/marzban"
)

// FormatUserInfo formats the subscription details of a single user
func FormatUserInfo(user *marzban.User, subURL string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Username: %s\n", user.Username))
	sb.WriteString(fmt.Sprintf("Status: %s\n", user.Status))

	if expire, ok := user.ExpireTime(); ok {
		sb.WriteString(fmt.Sprintf("Expiry: %s\n", expire.Format(constants.DateFormat)))
	} else {
		sb.WriteString("Expiry: ∞ (never)\n")
	}

	sb.WriteString(fmt.Sprintf("Traffic: %s / %s (reset: %s)\n",
		FormatBytes(user.UsedTraffic), FormatDataLimit(user.DataLimit), user.DataLimitResetStrategy))

	if user.Admin != nil {
		sb.WriteString(fmt.Sprintf("Owner: %s\n", user.Admin.Username))
	}
	if user.OnlineAt != nil {
		sb.WriteString(fmt.Sprintf("Last online: %s\n", user.OnlineAt.Format(constants.TimestampFormat)))
	}

	protocols := make([]string, 0, len(user.Proxies))
	for protocol := range user.Proxies {
		protocols = append(protocols, protocol)
	}
	sort.Strings(protocols)
	sb.WriteString(fmt.Sprintf("Protocols: %s\n", strings.Join(protocols, ", ")))

	if subURL != "" {
		sb.WriteString(fmt.Sprintf("\nLink to connect: %s\n", subURL))
	}

	return sb.String()
}

// SortUsersByTraffic orders users by used traffic (descending), then by name
func SortUsersByTraffic(users []*marzban.User) {
	sort.Slice(users, func(i, j int) bool {
		if users[i].UsedTraffic == users[j].UsedTraffic {
			return users[i].Username < users[j].Username
		}
		return users[i].UsedTraffic > users[j].UsedTraffic
	})
}

// StatusIcon returns a short marker for a user status
func StatusIcon(status marzban.UserStatus) string {
	switch status {
	case marzban.UserStatusActive:
		return "🟢"
	case marzban.UserStatusOnHold:
		return "🟡"
	case marzban.UserStatusLimited, marzban.UserStatusExpired:
		return "🔴"
	default:
		return "⚪"
	}
}
