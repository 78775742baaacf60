package marzban

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"marzban-go/internal/fakepanel"
)

func TestConfigBaseURL(t *testing.T) {
	require.Equal(t, "http://panel.example.com:8000", Config{Host: "panel.example.com"}.BaseURL())
	require.Equal(t, "https://panel.example.com:8443", Config{Host: "panel.example.com", Port: 8443, SSL: true}.BaseURL())
}

func TestClientLogin(t *testing.T) {
	panel, client := newTestPanel(t)

	token, ok := client.Token()
	require.True(t, ok)
	require.Equal(t, panel.Token(), token.AccessToken)
	require.Equal(t, "bearer", token.TokenType)

	login := panel.Requests()[0]
	require.Equal(t, http.MethodPost, login.Method)
	require.Equal(t, "/api/admin/token", login.Path)
	require.Empty(t, login.Auth)

	_, err := client.CurrentAdmin(context.Background())
	require.NoError(t, err)
	require.Equal(t, "bearer "+panel.Token(), panel.LastRequest().Auth)
}

func TestClientLoginRejected(t *testing.T) {
	panel := fakepanel.New(testUsername, testPassword)
	server := httptest.NewServer(panel.Handler())
	defer server.Close()

	cfg := testConfig(t, server.URL)
	cfg.Password = "wrong"
	client := NewClient(cfg, testLogger())

	err := client.Login(context.Background())
	require.True(t, errors.Is(err, ErrUnauthorized))
	_, ok := client.Token()
	require.False(t, ok)
}

func TestClientFailedLoginKeepsToken(t *testing.T) {
	panel, client := newTestPanel(t)
	panel.Fail(http.MethodPost, "/api/admin/token", http.StatusInternalServerError, map[string]string{"detail": "down"})

	err := client.Login(context.Background())
	require.True(t, errors.Is(err, ErrUnexpectedStatus))

	token, ok := client.Token()
	require.True(t, ok)
	require.Equal(t, panel.Token(), token.AccessToken)
}

func TestClientDoRequiresLogin(t *testing.T) {
	panel := fakepanel.New(testUsername, testPassword)
	server := httptest.NewServer(panel.Handler())
	defer server.Close()

	client := NewClient(testConfig(t, server.URL), testLogger())
	_, err := client.Do(context.Background(), &Request{Method: http.MethodGet, Path: "/api/system"})
	require.True(t, errors.Is(err, ErrNotAuthenticated))
	require.Empty(t, panel.Requests())
}

func TestClientTokenTTL(t *testing.T) {
	panel := fakepanel.New(testUsername, testPassword)
	server := httptest.NewServer(panel.Handler())
	defer server.Close()

	cfg := testConfig(t, server.URL)
	cfg.TokenTTL = 50 * time.Millisecond
	client := NewClient(cfg, testLogger())
	require.NoError(t, client.Login(context.Background()))

	_, err := client.SystemStats(context.Background())
	require.NoError(t, err)

	time.Sleep(100 * time.Millisecond)
	_, err = client.SystemStats(context.Background())
	require.True(t, errors.Is(err, ErrNotAuthenticated))
}

func TestClientDo(t *testing.T) {
	server := httptest.NewServer(
		http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, http.MethodPut, r.Method)
				require.Equal(t, "/api/things", r.URL.Path)
				require.Equal(t, "Bearer opensesame", r.Header.Get("Authorization"))
				require.Equal(t, "application/json", r.Header.Get("Content-Type"))
				require.Equal(t, []string{"a", "b"}, r.URL.Query()["tag"])

				body, err := io.ReadAll(r.Body)
				require.NoError(t, err)
				require.JSONEq(t, `{"name":"thing"}`, string(body))

				w.WriteHeader(http.StatusTeapot)
				_, _ = w.Write([]byte(`{"detail":"short and stout"}`))
			},
		),
	)
	defer server.Close()

	client := NewClient(testConfig(t, server.URL), testLogger())
	client.SetToken(Token{AccessToken: "opensesame", TokenType: "Bearer"})

	resp, err := client.Do(context.Background(), &Request{
		Method: http.MethodPut,
		Path:   "/api/things",
		Body:   map[string]string{"name": "thing"},
		Query:  url.Values{"tag": []string{"a", "b"}},
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusTeapot, resp.StatusCode)

	var body map[string]string
	require.NoError(t, resp.Decode(&body))
	require.Equal(t, "short and stout", body["detail"])
}

func TestClientDoNoAuth(t *testing.T) {
	server := httptest.NewServer(
		http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				require.Empty(t, r.Header.Get("Authorization"))
				w.WriteHeader(http.StatusOK)
			},
		),
	)
	defer server.Close()

	client := NewClient(testConfig(t, server.URL), testLogger())
	resp, err := client.Do(context.Background(), &Request{Method: http.MethodGet, Path: "/", NoAuth: true})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestClientTransportError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	cfg := testConfig(t, server.URL)
	server.Close()

	client := NewClient(cfg, testLogger())
	client.SetToken(Token{AccessToken: "opensesame"})

	_, err := client.SystemStats(context.Background())
	require.Error(t, err)
	for _, sentinel := range []error{
		ErrUnauthorized, ErrForbidden, ErrNotFound, ErrConflict, ErrValidation, ErrUnexpectedStatus,
	} {
		require.False(t, errors.Is(err, sentinel))
	}
}

func TestClientMalformedJSON(t *testing.T) {
	server := httptest.NewServer(
		http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write([]byte(`{"version":`))
			},
		),
	)
	defer server.Close()

	client := NewClient(testConfig(t, server.URL), testLogger())
	client.SetToken(Token{AccessToken: "opensesame"})

	_, err := client.SystemStats(context.Background())
	require.Error(t, err)
	var syntaxErr *json.SyntaxError
	require.True(t, errors.As(err, &syntaxErr))
}

func TestClientUnexpectedStatus(t *testing.T) {
	panel, client := newTestPanel(t)
	panel.Fail(http.MethodGet, "/api/system", http.StatusInternalServerError, map[string]string{"detail": "Internal Server Error"})

	_, err := client.SystemStats(context.Background())
	var unexpected *UnexpectedStatusError
	require.True(t, errors.As(err, &unexpected))
	require.Equal(t, http.StatusInternalServerError, unexpected.StatusCode)
}

func TestClientResolveURL(t *testing.T) {
	client := NewClient(Config{Host: "panel.example.com", SSL: true, Port: 443}, testLogger())
	require.Equal(t, "https://panel.example.com:443/sub/abc", client.ResolveURL("/sub/abc"))
	require.Equal(t, "https://panel.example.com:443/sub/abc", client.ResolveURL("sub/abc"))
	require.Equal(t, "https://cdn.example.com/sub/abc", client.ResolveURL("https://cdn.example.com/sub/abc"))
}
