package helpers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"marzban-go/pkg/marzban"
)

func TestFormatUserInfo(t *testing.T) {
	user := &marzban.User{
		Username:               "alice",
		Status:                 marzban.UserStatusActive,
		DataLimitResetStrategy: marzban.ResetMonthly,
		Proxies:                map[string]marzban.Proxy{"vmess": {}, "trojan": {}},
		Admin:                  &marzban.Admin{Username: "root"},
	}
	user.SetExpire(time.Date(2031, 1, 2, 12, 0, 0, 0, time.Local))

	info := FormatUserInfo(user, "https://panel.example.com/sub/abc")
	require.Contains(t, info, "Username: alice\n")
	require.Contains(t, info, "Expiry: 2031-01-02\n")
	require.Contains(t, info, "Traffic: 0.00 GB / ∞ (reset: month)\n")
	require.Contains(t, info, "Owner: root\n")
	require.Contains(t, info, "Protocols: trojan, vmess\n")
	require.Contains(t, info, "Link to connect: https://panel.example.com/sub/abc")

	info = FormatUserInfo(&marzban.User{Username: "bob"}, "")
	require.Contains(t, info, "Expiry: ∞ (never)\n")
	require.NotContains(t, info, "Link to connect")
}

func TestSortUsersByTraffic(t *testing.T) {
	users := []*marzban.User{
		{Username: "carol", UsedTraffic: 10},
		{Username: "bob", UsedTraffic: 50},
		{Username: "alice", UsedTraffic: 10},
	}
	SortUsersByTraffic(users)
	require.Equal(t, "bob", users[0].Username)
	require.Equal(t, "alice", users[1].Username)
	require.Equal(t, "carol", users[2].Username)
}
