package services

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"marzban-go/internal/config"
	"marzban-go/internal/constants"
	apperrors "marzban-go/internal/errors"
	"marzban-go/internal/fakepanel"
	"marzban-go/pkg/marzban"
)

func newTestService(t *testing.T) (*fakepanel.Panel, *PanelService) {
	panel := fakepanel.New("root", "s3cret")
	server := httptest.NewServer(panel.Handler())
	t.Cleanup(server.Close)

	u, err := url.Parse(server.URL)
	require.NoError(t, err)
	host, portStr, err := net.SplitHostPort(u.Host)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	cfg := &config.Config{
		Panel: config.PanelConfig{Host: host, Port: port, User: "root", Password: "s3cret"},
	}
	return panel, NewPanelService(cfg, logger)
}

func strPtr(s string) *string {
	return &s
}

func TestEnsureLoginOnce(t *testing.T) {
	panel, service := newTestService(t)
	ctx := context.Background()

	_, err := service.CurrentAdmin(ctx)
	require.NoError(t, err)
	_, err = service.ListAdmins(ctx)
	require.NoError(t, err)

	logins := 0
	for _, req := range panel.Requests() {
		if req.Path == "/api/admin/token" {
			logins++
		}
	}
	require.Equal(t, 1, logins)
}

func TestListUsersSortedByTraffic(t *testing.T) {
	panel, service := newTestService(t)
	panel.AddUser(&fakepanel.User{Username: "light", UsedTraffic: 1})
	panel.AddUser(&fakepanel.User{Username: "heavy", UsedTraffic: 100})
	panel.AddUser(&fakepanel.User{Username: "idle"})

	list, err := service.ListUsers(context.Background(), marzban.UserFilter{})
	require.NoError(t, err)
	require.Equal(t, 3, list.Total)
	require.Equal(t, "heavy", list.Users[0].Username)
	require.Equal(t, "light", list.Users[1].Username)
	require.Equal(t, "idle", list.Users[2].Username)
}

func TestCreateUserFromTemplate(t *testing.T) {
	panel, service := newTestService(t)
	id := panel.AddTemplate(&fakepanel.UserTemplate{
		Name:           "monthly",
		DataLimit:      1024,
		ExpireDuration: int64((30 * 24 * time.Hour).Seconds()),
		UsernamePrefix: strPtr("m_"),
		Inbounds:       map[string][]string{"vless": {"VLESS TCP REALITY"}},
	})

	user, err := service.CreateUserFromTemplate(context.Background(), id, "alice")
	require.NoError(t, err)
	require.Equal(t, "m_alice", user.Username)
	require.EqualValues(t, 1024, user.DataLimit)
	require.Contains(t, user.Proxies, "vless")
	require.NotNil(t, user.Proxies["vless"].ID)
	require.Equal(t, []string{"VLESS TCP REALITY"}, user.Inbounds["vless"])

	expire, ok := user.ExpireTime()
	require.True(t, ok)
	require.WithinDuration(t, time.Now().Add(30*24*time.Hour), expire, time.Minute)
}

func TestCreateUserFromTemplateRejectsBadName(t *testing.T) {
	panel, service := newTestService(t)
	id := panel.AddTemplate(&fakepanel.UserTemplate{
		Name:     "trial",
		Inbounds: map[string][]string{"vmess": {"VMESS WS"}},
	})

	_, err := service.CreateUserFromTemplate(context.Background(), id, "Bad Name")
	var validationErr *apperrors.ValidationError
	require.True(t, errors.As(err, &validationErr))

	_, err = service.CreateUserFromTemplate(context.Background(), id+1, "alice")
	require.True(t, errors.Is(err, marzban.ErrNotFound))
}

func TestUserOperations(t *testing.T) {
	panel, service := newTestService(t)
	ctx := context.Background()
	panel.AddUser(&fakepanel.User{
		Username:    "alice",
		UsedTraffic: 512,
		Proxies:     map[string]map[string]interface{}{"vmess": {}},
	})

	user, err := service.ResetUser(ctx, "alice")
	require.NoError(t, err)
	require.Zero(t, user.UsedTraffic)

	before := user.SubscriptionURL
	user, err = service.RevokeUser(ctx, "alice")
	require.NoError(t, err)
	require.NotEqual(t, before, user.SubscriptionURL)

	usage, err := service.UserUsage(ctx, "alice", 7)
	require.NoError(t, err)
	require.Equal(t, "alice", usage.Username)
	q, err := url.ParseQuery(panel.LastRequest().Query)
	require.NoError(t, err)
	require.NotEmpty(t, q.Get("start"))
	require.NotEmpty(t, q.Get("end"))

	user, err = service.SetOwner(ctx, "alice", "root")
	require.NoError(t, err)
	require.Equal(t, "root", user.Admin.Username)

	require.NoError(t, service.DeleteUser(ctx, "alice"))
	_, err = service.GetUser(ctx, "alice")
	require.True(t, errors.Is(err, marzban.ErrNotFound))
}

func TestExpiredUsers(t *testing.T) {
	panel, service := newTestService(t)
	ctx := context.Background()
	old := time.Now().Add(-10 * 24 * time.Hour).Unix()
	recent := time.Now().Add(-time.Hour).Unix()
	panel.AddUser(&fakepanel.User{Username: "old", Expire: &old})
	panel.AddUser(&fakepanel.User{Username: "recent", Expire: &recent})

	usernames, err := service.ExpiredUsers(ctx, 0, false)
	require.NoError(t, err)
	require.Equal(t, []string{"old", "recent"}, usernames)

	usernames, err = service.ExpiredUsers(ctx, 5, true)
	require.NoError(t, err)
	require.Equal(t, []string{"old"}, usernames)

	_, ok := panel.User("recent")
	require.True(t, ok)
}

func TestQueryRangesUseUTC(t *testing.T) {
	local := time.Local
	time.Local = time.FixedZone("UTC+5", 5*60*60)
	t.Cleanup(func() { time.Local = local })

	panel, service := newTestService(t)
	ctx := context.Background()
	panel.AddUser(&fakepanel.User{Username: "alice", Proxies: map[string]map[string]interface{}{"vmess": {}}})

	start, end := lastDays(7)
	require.Equal(t, time.UTC, start.Location())
	require.Equal(t, time.UTC, end.Location())

	parseQuery := func(key string) time.Time {
		q, err := url.ParseQuery(panel.LastRequest().Query)
		require.NoError(t, err)
		parsed, err := time.Parse(constants.QueryTimeFormat, q.Get(key))
		require.NoError(t, err)
		return parsed
	}

	_, err := service.UserUsage(ctx, "alice", 7)
	require.NoError(t, err)
	require.WithinDuration(t, time.Now(), parseQuery("end"), time.Minute)
	require.WithinDuration(t, time.Now().AddDate(0, 0, -7), parseQuery("start"), time.Minute)

	_, err = service.ExpiredUsers(ctx, 5, false)
	require.NoError(t, err)
	require.WithinDuration(t, time.Now().AddDate(0, 0, -5), parseQuery("expired_before"), time.Minute)
}

func TestNodeOperations(t *testing.T) {
	panel, service := newTestService(t)
	ctx := context.Background()
	id := panel.AddNode(&fakepanel.Node{Name: "de-1", Address: "10.0.0.1", Status: "error", Downlink: 10})

	require.NoError(t, service.ReconnectNode(ctx, id))
	nodes, err := service.ListNodes(ctx)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	require.Equal(t, marzban.NodeConnected, nodes[0].Status)

	usages, err := service.NodesUsage(ctx, 0)
	require.NoError(t, err)
	require.Len(t, usages, 2)
	require.Empty(t, panel.LastRequest().Query)

	settings, err := service.NodeSettings(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, settings.Certificate)

	err = service.ReconnectNode(ctx, id+1)
	require.True(t, errors.Is(err, marzban.ErrNotFound))
}

func TestSubscriptionURL(t *testing.T) {
	_, service := newTestService(t)

	user := &marzban.User{Username: "alice", SubscriptionURL: "/sub/abc"}
	subURL, err := service.SubscriptionURL(user)
	require.NoError(t, err)
	require.Equal(t, service.Client().ResolveURL("/sub/abc"), subURL)

	service.config.Panel.SubBaseURL = "https://sub.example.com/"
	subURL, err = service.SubscriptionURL(user)
	require.NoError(t, err)
	require.Equal(t, "https://sub.example.com/sub/abc", subURL)

	user.SubscriptionURL = "https://cdn.example.com/sub/abc"
	subURL, err = service.SubscriptionURL(user)
	require.NoError(t, err)
	require.Equal(t, "https://cdn.example.com/sub/abc", subURL)

	_, err = service.SubscriptionURL(&marzban.User{Username: "bob"})
	require.Error(t, err)
}

func TestSnapshotAndHosts(t *testing.T) {
	_, service := newTestService(t)
	ctx := context.Background()

	snapshot, err := service.Snapshot(ctx)
	require.NoError(t, err)
	require.Equal(t, "0.7.0", snapshot.Stats.Version)

	hosts, err := service.Hosts(ctx)
	require.NoError(t, err)
	require.Empty(t, hosts)

	templates, err := service.ListTemplates(ctx)
	require.NoError(t, err)
	require.Empty(t, templates)
}

func TestQRService(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	link := "https://panel.example.com/sub/abc"

	qr := NewQRService(logger, 0)
	require.Equal(t, constants.DefaultQRSize, qr.size)

	png, err := qr.Encode(link)
	require.NoError(t, err)
	require.Equal(t, []byte("\x89PNG"), png[:4])

	file := filepath.Join(t.TempDir(), "abc.png")
	require.NoError(t, NewQRService(logger, 128).WriteFile(link, file))
	written, err := os.ReadFile(file)
	require.NoError(t, err)
	require.Equal(t, []byte("\x89PNG"), written[:4])

	err = qr.WriteFile(link, filepath.Join(t.TempDir(), "missing", "abc.png"))
	require.Error(t, err)
}
