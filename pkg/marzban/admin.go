package marzban

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// Admin is a panel administrator
type Admin struct {
	Username       string  `json:"username"`
	Password       string  `json:"-"`
	IsSudo         bool    `json:"is_sudo"`
	TelegramID     *int64  `json:"telegram_id"`
	DiscordWebhook *string `json:"discord_webhook"`

	state State[string]
}

// AdminCreate holds the fields of a new admin. Nil optional fields are
// sent as null.
type AdminCreate struct {
	Username       string
	Password       string
	IsSudo         bool
	TelegramID     *int64
	DiscordWebhook *string
}

// AdminFilter narrows ListAdmins. Zero values are not sent.
type AdminFilter struct {
	Offset   int
	Limit    int
	Username string
}

type adminPayload struct {
	Username       string  `json:"username,omitempty"`
	Password       string  `json:"password,omitempty"`
	IsSudo         bool    `json:"is_sudo"`
	TelegramID     *int64  `json:"telegram_id"`
	DiscordWebhook *string `json:"discord_webhook"`
}

// Exists reports whether the admin is known to exist on the panel
func (a *Admin) Exists() bool {
	return a.state.Persisted()
}

// Save updates the admin if it exists on the panel and creates it otherwise
func (a *Admin) Save(ctx context.Context, r Requester) error {
	payload := adminPayload{
		Password:       a.Password,
		IsSudo:         a.IsSudo,
		TelegramID:     a.TelegramID,
		DiscordWebhook: a.DiscordWebhook,
	}

	req := &Request{Method: http.MethodPost, Path: "/api/admin", Body: &payload}
	if username, ok := a.state.ID(); ok {
		req.Method = http.MethodPut
		req.Path = "/api/admin/" + escape(username)
	} else {
		payload.Username = a.Username
	}

	if err := call(ctx, r, req, nil); err != nil {
		return err
	}
	if !a.state.Persisted() {
		a.state = persistedAs(a.Username)
	}
	return nil
}

// Delete removes the admin from the panel
func (a *Admin) Delete(ctx context.Context, r Requester) error {
	username := a.Username
	if id, ok := a.state.ID(); ok {
		username = id
	}

	req := &Request{Method: http.MethodDelete, Path: "/api/admin/" + escape(username)}
	if err := call(ctx, r, req, nil); err != nil {
		return err
	}
	a.state = transient[string]()
	return nil
}

// CreateAdmin creates a new admin
func (c *Client) CreateAdmin(ctx context.Context, params AdminCreate) (*Admin, error) {
	req := &Request{
		Method: http.MethodPost,
		Path:   "/api/admin",
		Body: &adminPayload{
			Username:       params.Username,
			Password:       params.Password,
			IsSudo:         params.IsSudo,
			TelegramID:     params.TelegramID,
			DiscordWebhook: params.DiscordWebhook,
		},
	}
	if err := call(ctx, c, req, nil); err != nil {
		return nil, err
	}

	c.logger.Infof("Created admin %s", params.Username)
	return &Admin{
		Username:       params.Username,
		Password:       params.Password,
		IsSudo:         params.IsSudo,
		TelegramID:     params.TelegramID,
		DiscordWebhook: params.DiscordWebhook,
		state:          persistedAs(params.Username),
	}, nil
}

// CurrentAdmin returns the admin the client is logged in as
func (c *Client) CurrentAdmin(ctx context.Context) (*Admin, error) {
	var admin Admin
	if err := call(ctx, c, &Request{Method: http.MethodGet, Path: "/api/admin"}, &admin); err != nil {
		return nil, err
	}
	admin.state = persistedAs(admin.Username)
	return &admin, nil
}

// ListAdmins lists admins matching the filter
func (c *Client) ListAdmins(ctx context.Context, filter AdminFilter) ([]*Admin, error) {
	q := url.Values{}
	if filter.Offset > 0 {
		q.Set("offset", strconv.Itoa(filter.Offset))
	}
	if filter.Limit > 0 {
		q.Set("limit", strconv.Itoa(filter.Limit))
	}
	if filter.Username != "" {
		q.Set("username", filter.Username)
	}

	var admins []*Admin
	if err := call(ctx, c, &Request{Method: http.MethodGet, Path: "/api/admins", Query: q}, &admins); err != nil {
		return nil, err
	}
	for _, admin := range admins {
		admin.state = persistedAs(admin.Username)
	}
	return admins, nil
}

// FindAdmin returns the admin with exactly this username, or nil when the
// panel has none
func (c *Client) FindAdmin(ctx context.Context, username string) (*Admin, error) {
	admins, err := c.ListAdmins(ctx, AdminFilter{Username: username})
	if err != nil {
		return nil, err
	}
	for _, admin := range admins {
		if admin.Username == username {
			return admin, nil
		}
	}
	return nil, nil
}
