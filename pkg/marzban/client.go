package marzban

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"marzban-go/internal/constants"
)

// Config holds the connection parameters of a Marzban panel
type Config struct {
	Host     string
	Port     int
	SSL      bool
	Username string
	Password string

	// Timeout bounds every request. Zero leaves the HTTP client default.
	Timeout            time.Duration
	InsecureSkipVerify bool

	// TokenTTL makes the stored token expire locally. Zero keeps it until the
	// next Login.
	TokenTTL time.Duration
}

// BaseURL returns the scheme, host and port requests are sent to
func (c Config) BaseURL() string {
	scheme := "http"
	if c.SSL {
		scheme = "https"
	}
	port := c.Port
	if port == 0 {
		port = constants.DefaultPanelPort
	}
	return fmt.Sprintf("%s://%s:%d", scheme, c.Host, port)
}

// Token is the bearer token issued by POST /api/admin/token
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func (t Token) header() string {
	tokenType := t.TokenType
	if tokenType == "" {
		tokenType = "bearer"
	}
	return fmt.Sprintf("%s %s", tokenType, t.AccessToken)
}

// Request describes a single call to the panel API
type Request struct {
	Method string
	Path   string
	Body   interface{}
	Query  url.Values
	// NoAuth skips the Authorization header
	NoAuth bool
}

// Response is the uninterpreted status and body of a panel call
type Response struct {
	StatusCode int
	Body       []byte
}

// Decode unmarshals the response body into v. Unknown fields are ignored.
func (r *Response) Decode(v interface{}) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Requester dispatches panel requests. *Client is the production implementation.
type Requester interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}

// Client is a Marzban panel API client.
//
// The token is written only by Login and SetToken. Calls to Login on the same
// Client must not run concurrently with each other; every other method is safe
// for concurrent use once a token is stored.
type Client struct {
	httpClient *resty.Client
	config     Config
	tokenCache *cache.Cache
	logger     *logrus.Logger
}

// NewClient creates a new Marzban API client
func NewClient(cfg Config, logger *logrus.Logger) *Client {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if cfg.Port == 0 {
		cfg.Port = constants.DefaultPanelPort
	}

	httpClient := resty.New().SetBaseURL(cfg.BaseURL())
	if cfg.Timeout > 0 {
		httpClient.SetTimeout(cfg.Timeout)
	}
	if cfg.InsecureSkipVerify {
		httpClient.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}

	return &Client{
		httpClient: httpClient,
		config:     cfg,
		tokenCache: cache.New(cache.NoExpiration, constants.CacheCleanupInterval*time.Minute),
		logger:     logger,
	}
}

// Login exchanges the configured credentials for a bearer token
func (c *Client) Login(ctx context.Context) error {
	c.logger.Infof("Logging in to Marzban API at %s", c.config.BaseURL())
	c.logger.Debugf("Using username: %s", c.config.Username)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"grant_type": "password",
			"username":   c.config.Username,
			"password":   c.config.Password,
		}).
		Post("/api/admin/token")
	if err != nil {
		return fmt.Errorf("login request failed: %w", err)
	}

	if err := CheckStatus(resp.StatusCode(), resp.Body()); err != nil {
		c.logger.Errorf("Login failed - Status: %d, Response: %s", resp.StatusCode(), string(resp.Body()))
		return err
	}

	var token Token
	if err := json.Unmarshal(resp.Body(), &token); err != nil {
		return fmt.Errorf("failed to parse login response: %w", err)
	}
	if token.AccessToken == "" {
		return fmt.Errorf("login response did not contain an access token")
	}

	c.SetToken(token)
	c.logger.Info("Successfully logged in to Marzban API")
	return nil
}

// SetToken stores a token obtained elsewhere
func (c *Client) SetToken(token Token) {
	ttl := cache.NoExpiration
	if c.config.TokenTTL > 0 {
		ttl = c.config.TokenTTL
	}
	c.tokenCache.Set(constants.TokenCacheKey, token, ttl)
}

// Token returns the stored token, if any
func (c *Client) Token() (Token, bool) {
	v, found := c.tokenCache.Get(constants.TokenCacheKey)
	if !found {
		return Token{}, false
	}
	token, ok := v.(Token)
	return token, ok
}

// Do issues one HTTP call and returns the status and body without
// interpreting them
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	r := c.httpClient.R().SetContext(ctx)

	if !req.NoAuth {
		token, ok := c.Token()
		if !ok {
			return nil, ErrNotAuthenticated
		}
		r.SetHeader("Authorization", token.header())
	}
	if req.Body != nil {
		r.SetHeader("Content-Type", "application/json").SetBody(req.Body)
	}
	if len(req.Query) > 0 {
		r.SetQueryParamsFromValues(req.Query)
	}

	c.logger.Debugf("%s %s", req.Method, req.Path)

	resp, err := r.Execute(req.Method, req.Path)
	if err != nil {
		return nil, fmt.Errorf("%s %s request failed: %w", req.Method, req.Path, err)
	}

	c.logger.Debugf("Response status: %d, body: %s", resp.StatusCode(), string(resp.Body()))
	if resp.StatusCode() >= http.StatusBadRequest {
		c.logger.Warnf("%s %s failed - Status: %d, Response: %s",
			req.Method, req.Path, resp.StatusCode(), string(resp.Body()))
	}

	return &Response{StatusCode: resp.StatusCode(), Body: resp.Body()}, nil
}

// ResolveURL turns a panel-relative path such as a subscription URL into an
// absolute URL. Absolute URLs are returned unchanged.
func (c *Client) ResolveURL(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.config.BaseURL() + path
}

// call dispatches req, maps the status and decodes the body into out when
// out is not nil
func call(ctx context.Context, r Requester, req *Request, out interface{}) error {
	resp, err := r.Do(ctx, req)
	if err != nil {
		return err
	}
	if err := CheckStatus(resp.StatusCode, resp.Body); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return resp.Decode(out)
}

func escape(segment string) string {
	return url.PathEscape(segment)
}
