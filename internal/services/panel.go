package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"marzban-go/internal/config"
	"marzban-go/internal/helpers"
	"marzban-go/internal/validation"
	"marzban-go/pkg/marzban"
)

// PanelService wraps the Marzban client for a single configured panel
type PanelService struct {
	client *marzban.Client
	config *config.Config
	logger *logrus.Logger
}

// NewPanelService creates a new panel service
func NewPanelService(cfg *config.Config, logger *logrus.Logger) *PanelService {
	return &PanelService{
		client: marzban.NewClient(cfg.Panel.ClientConfig(), logger),
		config: cfg,
		logger: logger,
	}
}

// Client returns the underlying API client
func (s *PanelService) Client() *marzban.Client {
	return s.client
}

// Logger returns the service logger
func (s *PanelService) Logger() *logrus.Logger {
	return s.logger
}

// EnsureLogin logs in unless a token is already stored
func (s *PanelService) EnsureLogin(ctx context.Context) error {
	if _, ok := s.client.Token(); ok {
		return nil
	}
	return s.client.Login(ctx)
}

// Snapshot gets system stats and inbounds
func (s *PanelService) Snapshot(ctx context.Context) (*marzban.Snapshot, error) {
	if err := s.EnsureLogin(ctx); err != nil {
		return nil, err
	}
	return s.client.Snapshot(ctx)
}

// ListUsers lists users sorted by used traffic
func (s *PanelService) ListUsers(ctx context.Context, filter marzban.UserFilter) (*marzban.UserList, error) {
	if err := s.EnsureLogin(ctx); err != nil {
		return nil, err
	}
	list, err := s.client.ListUsers(ctx, filter)
	if err != nil {
		return nil, err
	}
	if filter.Sort == "" {
		helpers.SortUsersByTraffic(list.Users)
	}
	return list, nil
}

// GetUser gets a user by username
func (s *PanelService) GetUser(ctx context.Context, username string) (*marzban.User, error) {
	if err := s.EnsureLogin(ctx); err != nil {
		return nil, err
	}
	return s.client.GetUser(ctx, username)
}

// CreateUserFromTemplate creates a user named after the template's affixes
// with the template's limits and inbounds. Every protocol the template
// lists gets a proxy whose credentials the panel generates.
func (s *PanelService) CreateUserFromTemplate(ctx context.Context, templateID int, baseUsername string) (*marzban.User, error) {
	if err := s.EnsureLogin(ctx); err != nil {
		return nil, err
	}

	template, err := s.client.GetUserTemplate(ctx, templateID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user template %d: %w", templateID, err)
	}

	username := helpers.TemplateUsername(template, baseUsername)
	if err := validation.ValidateUsername(username); err != nil {
		return nil, err
	}

	proxies := make(map[string]marzban.Proxy, len(template.Inbounds))
	for protocol := range template.Inbounds {
		proxies[protocol] = marzban.Proxy{}
	}

	params := marzban.UserCreate{
		Username:  username,
		DataLimit: template.DataLimit,
		Proxies:   proxies,
		Inbounds:  template.Inbounds,
	}
	if template.ExpireDuration > 0 {
		expire := time.Now().Add(template.ExpireDuration)
		params.Expire = &expire
	}

	s.logger.Infof("Creating user %s from template %s", username, template.Name)
	return s.client.CreateUser(ctx, params)
}

// ResetUser zeroes a user's traffic
func (s *PanelService) ResetUser(ctx context.Context, username string) (*marzban.User, error) {
	user, err := s.GetUser(ctx, username)
	if err != nil {
		return nil, err
	}
	if err := user.Reset(ctx, s.client); err != nil {
		return nil, err
	}
	return user, nil
}

// RevokeUser rotates a user's subscription
func (s *PanelService) RevokeUser(ctx context.Context, username string) (*marzban.User, error) {
	user, err := s.GetUser(ctx, username)
	if err != nil {
		return nil, err
	}
	if err := user.Revoke(ctx, s.client); err != nil {
		return nil, err
	}
	return user, nil
}

// SetOwner moves a user to another admin
func (s *PanelService) SetOwner(ctx context.Context, username, adminUsername string) (*marzban.User, error) {
	user, err := s.GetUser(ctx, username)
	if err != nil {
		return nil, err
	}
	if err := user.SetOwner(ctx, s.client, adminUsername); err != nil {
		return nil, err
	}
	return user, nil
}

// UserUsage gets a user's per-node traffic for the last days. Zero days
// leaves the range to the panel default.
func (s *PanelService) UserUsage(ctx context.Context, username string, days int) (*marzban.UserUsage, error) {
	user, err := s.GetUser(ctx, username)
	if err != nil {
		return nil, err
	}
	start, end := lastDays(days)
	return user.Usage(ctx, s.client, start, end)
}

// DeleteUser deletes a user
func (s *PanelService) DeleteUser(ctx context.Context, username string) error {
	user, err := s.GetUser(ctx, username)
	if err != nil {
		return err
	}
	return user.Delete(ctx, s.client)
}

// ExpiredUsers lists users that expired more than the given days ago
func (s *PanelService) ExpiredUsers(ctx context.Context, olderThanDays int, remove bool) ([]string, error) {
	if err := s.EnsureLogin(ctx); err != nil {
		return nil, err
	}

	filter := marzban.ExpiredFilter{}
	if olderThanDays > 0 {
		before := time.Now().UTC().AddDate(0, 0, -olderThanDays)
		filter.ExpiredBefore = &before
	}
	if remove {
		return s.client.DeleteExpiredUsers(ctx, filter)
	}
	return s.client.ExpiredUsers(ctx, filter)
}

// ListNodes lists nodes
func (s *PanelService) ListNodes(ctx context.Context) ([]*marzban.Node, error) {
	if err := s.EnsureLogin(ctx); err != nil {
		return nil, err
	}
	return s.client.ListNodes(ctx)
}

// NodesUsage gets per-node traffic for the last days
func (s *PanelService) NodesUsage(ctx context.Context, days int) ([]marzban.NodeUsage, error) {
	if err := s.EnsureLogin(ctx); err != nil {
		return nil, err
	}
	start, end := lastDays(days)
	return s.client.NodesUsage(ctx, start, end)
}

// ReconnectNode reconnects a node by id
func (s *PanelService) ReconnectNode(ctx context.Context, id int) error {
	if err := s.EnsureLogin(ctx); err != nil {
		return err
	}
	node, err := s.client.GetNode(ctx, id)
	if err != nil {
		return err
	}
	return node.Reconnect(ctx, s.client)
}

// NodeSettings gets the node certificate and minimum version
func (s *PanelService) NodeSettings(ctx context.Context) (*marzban.NodeSettings, error) {
	if err := s.EnsureLogin(ctx); err != nil {
		return nil, err
	}
	return s.client.NodeSettings(ctx)
}

// ListAdmins lists admins
func (s *PanelService) ListAdmins(ctx context.Context) ([]*marzban.Admin, error) {
	if err := s.EnsureLogin(ctx); err != nil {
		return nil, err
	}
	return s.client.ListAdmins(ctx, marzban.AdminFilter{})
}

// CurrentAdmin gets the logged-in admin
func (s *PanelService) CurrentAdmin(ctx context.Context) (*marzban.Admin, error) {
	if err := s.EnsureLogin(ctx); err != nil {
		return nil, err
	}
	return s.client.CurrentAdmin(ctx)
}

// Hosts gets the host configuration
func (s *PanelService) Hosts(ctx context.Context) (marzban.Hosts, error) {
	if err := s.EnsureLogin(ctx); err != nil {
		return nil, err
	}
	return s.client.Hosts(ctx)
}

// ListTemplates lists user templates
func (s *PanelService) ListTemplates(ctx context.Context) ([]*marzban.UserTemplate, error) {
	if err := s.EnsureLogin(ctx); err != nil {
		return nil, err
	}
	return s.client.ListUserTemplates(ctx, nil, nil)
}

// SubscriptionURL returns the absolute subscription URL of a user
func (s *PanelService) SubscriptionURL(user *marzban.User) (string, error) {
	if user.SubscriptionURL == "" {
		return "", fmt.Errorf("user %s has no subscription URL", user.Username)
	}

	subURL := user.SubscriptionURL
	if strings.HasPrefix(subURL, "http://") || strings.HasPrefix(subURL, "https://") {
		return subURL, nil
	}
	if s.config.Panel.SubBaseURL != "" {
		return strings.TrimSuffix(s.config.Panel.SubBaseURL, "/") + "/" + strings.TrimPrefix(subURL, "/"), nil
	}
	return s.client.ResolveURL(subURL), nil
}

func lastDays(days int) (*time.Time, *time.Time) {
	if days <= 0 {
		return nil, nil
	}
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -days)
	return &start, &end
}
