package marzban

import (
	"context"
	"net/http"
)

// Host is a client-facing connection descriptor of an inbound
type Host struct {
	Remark          string       `json:"remark"`
	Address         string       `json:"address"`
	Port            *int         `json:"port"`
	SNI             string       `json:"sni"`
	Host            string       `json:"host"`
	Path            *string      `json:"path"`
	Security        HostSecurity `json:"security"`
	ALPN            ALPN         `json:"alpn"`
	Fingerprint     Fingerprint  `json:"fingerprint"`
	AllowInsecure   *bool        `json:"allowinsecure"`
	IsDisabled      *bool        `json:"is_disabled"`
	MuxEnable       bool         `json:"mux_enable"`
	FragmentSetting *string      `json:"fragment_setting"`
	RandomUserAgent bool         `json:"random_user_agent"`
}

// Hosts maps an inbound tag to its hosts. The panel replaces the whole set
// on every modification.
type Hosts map[string][]Host

// Hosts returns the host configuration of every inbound
func (c *Client) Hosts(ctx context.Context) (Hosts, error) {
	hosts := Hosts{}
	if err := call(ctx, c, &Request{Method: http.MethodGet, Path: "/api/hosts"}, &hosts); err != nil {
		return nil, err
	}
	return hosts, nil
}

// ModifyHosts replaces the host configuration and returns what the panel stored
func (c *Client) ModifyHosts(ctx context.Context, hosts Hosts) (Hosts, error) {
	if hosts == nil {
		hosts = Hosts{}
	}

	stored := Hosts{}
	if err := call(ctx, c, &Request{Method: http.MethodPut, Path: "/api/hosts", Body: hosts}, &stored); err != nil {
		return nil, err
	}
	c.logger.Infof("Replaced hosts of %d inbounds", len(hosts))
	return stored, nil
}
