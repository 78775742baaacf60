package marzban

import (
	"context"
	"io"
	"net"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"marzban-go/internal/fakepanel"
)

const (
	testUsername = "root"
	testPassword = "s3cret"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func testConfig(t *testing.T, serverURL string) Config {
	u, err := url.Parse(serverURL)
	require.NoError(t, err)
	host, portStr, err := net.SplitHostPort(u.Host)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return Config{
		Host:     host,
		Port:     port,
		Username: testUsername,
		Password: testPassword,
	}
}

// newTestPanel starts a fake panel and returns a client that is already
// logged in to it
func newTestPanel(t *testing.T) (*fakepanel.Panel, *Client) {
	panel := fakepanel.New(testUsername, testPassword)
	server := httptest.NewServer(panel.Handler())
	t.Cleanup(server.Close)

	client := NewClient(testConfig(t, server.URL), testLogger())
	require.NoError(t, client.Login(context.Background()))
	return panel, client
}

func strPtr(s string) *string {
	return &s
}
