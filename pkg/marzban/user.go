package marzban

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"

	"marzban-go/internal/constants"
)

// Proxy is the per-protocol credential material of a user. Unset fields are
// omitted on the wire and the panel generates them.
type Proxy struct {
	ID       *uuid.UUID   `json:"id,omitempty"`
	Flow     *Flow        `json:"flow,omitempty"`
	Password string       `json:"password,omitempty"`
	Method   CipherMethod `json:"method,omitempty"`
}

// NewProxyID returns a random proxy UUID
func NewProxyID() *uuid.UUID {
	id := uuid.New()
	return &id
}

// User is a panel user
type User struct {
	Username               string                 `json:"username"`
	Expire                 *int64                 `json:"expire"`
	DataLimit              int64                  `json:"data_limit"`
	DataLimitResetStrategy DataLimitResetStrategy `json:"data_limit_reset_strategy"`
	Proxies                map[string]Proxy       `json:"proxies"`
	Inbounds               map[string][]string    `json:"inbounds"`
	ExcludedInbounds       map[string][]string    `json:"excluded_inbounds"`
	Note                   *string                `json:"note"`
	Status                 UserStatus             `json:"status"`
	UsedTraffic            int64                  `json:"used_traffic"`
	LifetimeUsedTraffic    int64                  `json:"lifetime_used_traffic"`
	CreatedAt              *Time                  `json:"created_at"`
	Links                  []string               `json:"links"`
	SubscriptionURL        string                 `json:"subscription_url"`
	SubUpdatedAt           *Time                  `json:"sub_updated_at"`
	SubLastUserAgent       *string                `json:"sub_last_user_agent"`
	OnlineAt               *Time                  `json:"online_at"`
	OnHoldExpireDuration   *int64                 `json:"on_hold_expire_duration"`
	OnHoldTimeout          *Time                  `json:"on_hold_timeout"`
	AutoDeleteInDays       *int                   `json:"auto_delete_in_days"`
	Admin                  *Admin                 `json:"admin"`

	state State[string]
}

// UserCreate holds the fields of a new user
type UserCreate struct {
	Username               string
	Expire                 *time.Time
	DataLimit              int64
	DataLimitResetStrategy DataLimitResetStrategy
	Proxies                map[string]Proxy
	Inbounds               map[string][]string
	Note                   *string
	Status                 UserStatus
	OnHoldExpireDuration   *int64
	OnHoldTimeout          *time.Time
}

// UserFilter narrows ListUsers. Zero values are not sent.
type UserFilter struct {
	Offset    int
	Limit     int
	Usernames []string
	Search    string
	Admins    []string
	Status    UserStatus
	Sort      string
}

// UserList is a page of users and the total count the panel reports
type UserList struct {
	Users []*User `json:"users"`
	Total int     `json:"total"`
}

// ExpiredFilter bounds the expiry range of expired-user queries
type ExpiredFilter struct {
	ExpiredBefore *time.Time
	ExpiredAfter  *time.Time
}

// UserNodeUsage is the traffic a user consumed on one node
type UserNodeUsage struct {
	NodeID      *int   `json:"node_id"`
	NodeName    string `json:"node_name"`
	UsedTraffic int64  `json:"used_traffic"`
}

// UserUsage is the per-node traffic report of a user
type UserUsage struct {
	Username string          `json:"username"`
	Usages   []UserNodeUsage `json:"usages"`
}

type userPayload struct {
	Username               string                 `json:"username"`
	Proxies                map[string]Proxy       `json:"proxies"`
	Inbounds               map[string][]string    `json:"inbounds"`
	Expire                 *int64                 `json:"expire"`
	DataLimit              int64                  `json:"data_limit"`
	DataLimitResetStrategy DataLimitResetStrategy `json:"data_limit_reset_strategy"`
	Status                 UserStatus             `json:"status"`
	Note                   *string                `json:"note"`
	OnHoldTimeout          *Time                  `json:"on_hold_timeout"`
	OnHoldExpireDuration   *int64                 `json:"on_hold_expire_duration"`
}

func (p *userPayload) normalize() {
	if p.Proxies == nil {
		p.Proxies = map[string]Proxy{}
	}
	if p.Inbounds == nil {
		p.Inbounds = map[string][]string{}
	}
	if p.DataLimitResetStrategy == "" {
		p.DataLimitResetStrategy = ResetNever
	}
	if p.Status == "" {
		p.Status = UserStatusActive
	}
}

// Exists reports whether the user is known to exist on the panel
func (u *User) Exists() bool {
	return u.state.Persisted()
}

// ExpireTime returns the expiry as a time, or false when the user never expires
func (u *User) ExpireTime() (time.Time, bool) {
	if u.Expire == nil || *u.Expire == 0 {
		return time.Time{}, false
	}
	return time.Unix(*u.Expire, 0), true
}

// SetExpire sets the expiry. A zero time removes it.
func (u *User) SetExpire(t time.Time) {
	if t.IsZero() {
		var never int64
		u.Expire = &never
		return
	}
	expire := t.Unix()
	u.Expire = &expire
}

func (u *User) payload() *userPayload {
	p := &userPayload{
		Username:               u.Username,
		Proxies:                u.Proxies,
		Inbounds:               u.Inbounds,
		Expire:                 u.Expire,
		DataLimit:              u.DataLimit,
		DataLimitResetStrategy: u.DataLimitResetStrategy,
		Status:                 u.Status,
		Note:                   u.Note,
		OnHoldTimeout:          u.OnHoldTimeout,
		OnHoldExpireDuration:   u.OnHoldExpireDuration,
	}
	p.normalize()
	return p
}

func (u *User) path() string {
	username := u.Username
	if id, ok := u.state.ID(); ok {
		username = id
	}
	return "/api/user/" + escape(username)
}

// Save updates the user if it exists on the panel and creates it otherwise
func (u *User) Save(ctx context.Context, r Requester) error {
	req := &Request{Method: http.MethodPost, Path: "/api/user", Body: u.payload()}
	if u.state.Persisted() {
		req.Method = http.MethodPut
		req.Path = u.path()
	}

	var saved User
	if err := call(ctx, r, req, &saved); err != nil {
		return err
	}
	u.refresh(&saved)
	if !u.state.Persisted() {
		u.state = persistedAs(u.Username)
	}
	return nil
}

// refresh copies the fields the panel owns from its echo of the user.
// Generated proxy credentials must survive so a later update does not
// rotate them.
func (u *User) refresh(echo *User) {
	if echo.Proxies != nil {
		u.Proxies = echo.Proxies
	}
	if echo.Inbounds != nil {
		u.Inbounds = echo.Inbounds
	}
	if echo.Links != nil {
		u.Links = echo.Links
	}
	if echo.SubscriptionURL != "" {
		u.SubscriptionURL = echo.SubscriptionURL
	}
	if echo.Status != "" {
		u.Status = echo.Status
	}
	if echo.DataLimitResetStrategy != "" {
		u.DataLimitResetStrategy = echo.DataLimitResetStrategy
	}
	u.Expire = echo.Expire
	u.UsedTraffic = echo.UsedTraffic
	u.LifetimeUsedTraffic = echo.LifetimeUsedTraffic
	u.CreatedAt = echo.CreatedAt
	u.SubUpdatedAt = echo.SubUpdatedAt
	u.SubLastUserAgent = echo.SubLastUserAgent
	u.OnlineAt = echo.OnlineAt
	if echo.Admin != nil {
		u.adoptAdmin(echo.Admin)
	}
}

// Delete removes the user from the panel
func (u *User) Delete(ctx context.Context, r Requester) error {
	if err := call(ctx, r, &Request{Method: http.MethodDelete, Path: u.path()}, nil); err != nil {
		return err
	}
	u.state = transient[string]()
	return nil
}

// Reset zeroes the user's traffic counter
func (u *User) Reset(ctx context.Context, r Requester) error {
	if err := call(ctx, r, &Request{Method: http.MethodPost, Path: u.path() + "/reset"}, nil); err != nil {
		return err
	}
	u.UsedTraffic = 0
	return nil
}

// Revoke rotates the user's subscription and proxy credentials
func (u *User) Revoke(ctx context.Context, r Requester) error {
	var revoked User
	if err := call(ctx, r, &Request{Method: http.MethodPost, Path: u.path() + "/revoke_sub"}, &revoked); err != nil {
		return err
	}
	u.refresh(&revoked)
	return nil
}

// Usage returns the user's traffic per node. Nil bounds are not sent.
func (u *User) Usage(ctx context.Context, r Requester, start, end *time.Time) (*UserUsage, error) {
	q := url.Values{}
	setTimeRange(q, "start", start, "end", end)

	var usage UserUsage
	if err := call(ctx, r, &Request{Method: http.MethodGet, Path: u.path() + "/usage", Query: q}, &usage); err != nil {
		return nil, err
	}
	return &usage, nil
}

// SetOwner hands the user over to another admin
func (u *User) SetOwner(ctx context.Context, r Requester, adminUsername string) error {
	q := url.Values{}
	q.Set("admin_username", adminUsername)

	var updated User
	if err := call(ctx, r, &Request{Method: http.MethodPut, Path: u.path() + "/set-owner", Query: q}, &updated); err != nil {
		return err
	}
	u.adoptAdmin(updated.Admin)
	return nil
}

// SubscriptionQR renders the subscription URL as a PNG QR code. size is the
// image edge in pixels; zero selects the default.
func (u *User) SubscriptionQR(size int) ([]byte, error) {
	if u.SubscriptionURL == "" {
		return nil, errors.New("user has no subscription URL")
	}
	if size <= 0 {
		size = constants.DefaultQRSize
	}
	png, err := qrcode.Encode(u.SubscriptionURL, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("failed to encode subscription QR: %w", err)
	}
	return png, nil
}

func (u *User) adoptAdmin(admin *Admin) {
	if admin != nil {
		admin.state = persistedAs(admin.Username)
	}
	u.Admin = admin
}

func (u *User) markPersisted() {
	u.state = persistedAs(u.Username)
	u.adoptAdmin(u.Admin)
}

// CreateUser creates a new user and returns it as the panel stored it
func (c *Client) CreateUser(ctx context.Context, params UserCreate) (*User, error) {
	payload := &userPayload{
		Username:               params.Username,
		Proxies:                params.Proxies,
		Inbounds:               params.Inbounds,
		DataLimit:              params.DataLimit,
		DataLimitResetStrategy: params.DataLimitResetStrategy,
		Status:                 params.Status,
		Note:                   params.Note,
		OnHoldExpireDuration:   params.OnHoldExpireDuration,
	}
	if params.Expire != nil {
		expire := params.Expire.Unix()
		payload.Expire = &expire
	}
	if params.OnHoldTimeout != nil {
		payload.OnHoldTimeout = &Time{Time: *params.OnHoldTimeout}
	}
	payload.normalize()

	var user User
	if err := call(ctx, c, &Request{Method: http.MethodPost, Path: "/api/user", Body: payload}, &user); err != nil {
		return nil, err
	}
	user.markPersisted()

	c.logger.Infof("Created user %s", user.Username)
	return &user, nil
}

// GetUser fetches a user by username
func (c *Client) GetUser(ctx context.Context, username string) (*User, error) {
	var user User
	if err := call(ctx, c, &Request{Method: http.MethodGet, Path: "/api/user/" + escape(username)}, &user); err != nil {
		return nil, err
	}
	user.markPersisted()
	return &user, nil
}

// ListUsers lists users matching the filter
func (c *Client) ListUsers(ctx context.Context, filter UserFilter) (*UserList, error) {
	q := url.Values{}
	if filter.Offset > 0 {
		q.Set("offset", strconv.Itoa(filter.Offset))
	}
	if filter.Limit > 0 {
		q.Set("limit", strconv.Itoa(filter.Limit))
	}
	for _, username := range filter.Usernames {
		q.Add("username", username)
	}
	if filter.Search != "" {
		q.Set("search", filter.Search)
	}
	for _, admin := range filter.Admins {
		q.Add("admin", admin)
	}
	if filter.Status != "" {
		q.Set("status", string(filter.Status))
	}
	if filter.Sort != "" {
		q.Set("sort", filter.Sort)
	}

	var list UserList
	if err := call(ctx, c, &Request{Method: http.MethodGet, Path: "/api/users", Query: q}, &list); err != nil {
		return nil, err
	}
	for _, user := range list.Users {
		user.markPersisted()
	}
	return &list, nil
}

// ResetAllUsers zeroes the traffic counters of every user
func (c *Client) ResetAllUsers(ctx context.Context) error {
	return call(ctx, c, &Request{Method: http.MethodPost, Path: "/api/users/reset"}, nil)
}

// ExpiredUsers returns the usernames of expired users in the range
func (c *Client) ExpiredUsers(ctx context.Context, filter ExpiredFilter) ([]string, error) {
	return c.expiredUsers(ctx, http.MethodGet, filter)
}

// DeleteExpiredUsers deletes expired users in the range and returns their usernames
func (c *Client) DeleteExpiredUsers(ctx context.Context, filter ExpiredFilter) ([]string, error) {
	usernames, err := c.expiredUsers(ctx, http.MethodDelete, filter)
	if err != nil {
		return nil, err
	}
	c.logger.Infof("Deleted %d expired users", len(usernames))
	return usernames, nil
}

func (c *Client) expiredUsers(ctx context.Context, method string, filter ExpiredFilter) ([]string, error) {
	q := url.Values{}
	setTimeRange(q, "expired_before", filter.ExpiredBefore, "expired_after", filter.ExpiredAfter)

	usernames := []string{}
	if err := call(ctx, c, &Request{Method: method, Path: "/api/users/expired", Query: q}, &usernames); err != nil {
		return nil, err
	}
	return usernames, nil
}
