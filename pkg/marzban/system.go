package marzban

import (
	"context"
	"encoding/json"
	"net/http"

	"golang.org/x/sync/errgroup"
)

// SystemStats is a snapshot of panel health and user counters
type SystemStats struct {
	Version                string  `json:"version"`
	MemTotal               int64   `json:"mem_total"`
	MemUsed                int64   `json:"mem_used"`
	CPUCores               int     `json:"cpu_cores"`
	CPUUsage               float64 `json:"cpu_usage"`
	TotalUser              int     `json:"total_user"`
	OnlineUsers            int     `json:"online_users"`
	UsersActive            int     `json:"users_active"`
	UsersOnHold            int     `json:"users_on_hold"`
	UsersDisabled          int     `json:"users_disabled"`
	UsersExpired           int     `json:"users_expired"`
	UsersLimited           int     `json:"users_limited"`
	IncomingBandwidth      int64   `json:"incoming_bandwidth"`
	OutgoingBandwidth      int64   `json:"outgoing_bandwidth"`
	IncomingBandwidthSpeed int64   `json:"incoming_bandwidth_speed"`
	OutgoingBandwidthSpeed int64   `json:"outgoing_bandwidth_speed"`
}

// Inbound is a listener configured on the panel
type Inbound struct {
	Tag      string          `json:"tag"`
	Protocol Protocol        `json:"protocol"`
	Network  Network         `json:"network"`
	TLS      InboundSecurity `json:"tls"`
	// Port is a number, or a string for fallback and ranged inbounds
	Port json.RawMessage `json:"port"`
}

// Inbounds groups inbounds by protocol
type Inbounds map[Protocol][]Inbound

// Snapshot joins system stats and inbounds fetched together
type Snapshot struct {
	Stats    *SystemStats
	Inbounds Inbounds
}

// SystemStats returns the panel's health and user counters
func (c *Client) SystemStats(ctx context.Context) (*SystemStats, error) {
	var stats SystemStats
	if err := call(ctx, c, &Request{Method: http.MethodGet, Path: "/api/system"}, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Inbounds returns the configured inbounds grouped by protocol
func (c *Client) Inbounds(ctx context.Context) (Inbounds, error) {
	inbounds := Inbounds{}
	if err := call(ctx, c, &Request{Method: http.MethodGet, Path: "/api/inbounds"}, &inbounds); err != nil {
		return nil, err
	}
	return inbounds, nil
}

// Snapshot fetches system stats and inbounds concurrently. Both must
// succeed; the first failure is returned.
func (c *Client) Snapshot(ctx context.Context) (*Snapshot, error) {
	g, gctx := errgroup.WithContext(ctx)

	var snapshot Snapshot
	g.Go(func() error {
		stats, err := c.SystemStats(gctx)
		if err != nil {
			return err
		}
		snapshot.Stats = stats
		return nil
	})
	g.Go(func() error {
		inbounds, err := c.Inbounds(gctx)
		if err != nil {
			return err
		}
		snapshot.Inbounds = inbounds
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &snapshot, nil
}
