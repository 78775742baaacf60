package marzban

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"marzban-go/internal/constants"
)

// Node is a remote Xray node managed by the panel
type Node struct {
	Name             string     `json:"name"`
	Address          string     `json:"address"`
	Port             int        `json:"port"`
	APIPort          int        `json:"api_port"`
	UsageCoefficient float64    `json:"usage_coefficient"`
	AddAsNewHost     *bool      `json:"add_as_new_host,omitempty"`
	XrayVersion      *string    `json:"xray_version"`
	Status           NodeStatus `json:"status"`
	Message          *string    `json:"message"`

	state State[int]
}

// NodeSettings is what a node needs to trust the panel
type NodeSettings struct {
	MinNodeVersion string `json:"min_node_version"`
	Certificate    string `json:"certificate"`
}

// NodeUsage is the aggregate traffic of one node
type NodeUsage struct {
	NodeID   *int   `json:"node_id"`
	NodeName string `json:"node_name"`
	Uplink   int64  `json:"uplink"`
	Downlink int64  `json:"downlink"`
}

// nodeResponse is a node as the panel returns it
type nodeResponse struct {
	ID int `json:"id"`
	Node
}

func (r *nodeResponse) node() *Node {
	n := r.Node
	n.state = persistedAs(r.ID)
	return &n
}

type nodePayload struct {
	Name             string     `json:"name"`
	Address          string     `json:"address"`
	Port             int        `json:"port"`
	APIPort          int        `json:"api_port"`
	UsageCoefficient float64    `json:"usage_coefficient"`
	AddAsNewHost     *bool      `json:"add_as_new_host,omitempty"`
	Status           NodeStatus `json:"status,omitempty"`
}

// NewNode returns a transient node with the panel's default ports
func NewNode(name, address string) *Node {
	return &Node{
		Name:             name,
		Address:          address,
		Port:             constants.DefaultNodePort,
		APIPort:          constants.DefaultNodeAPIPort,
		UsageCoefficient: constants.DefaultUsageCoeff,
	}
}

// ID returns the panel id of a persisted node
func (n *Node) ID() (int, bool) {
	return n.state.ID()
}

// Exists reports whether the node is known to exist on the panel
func (n *Node) Exists() bool {
	return n.state.Persisted()
}

func (n *Node) payload() *nodePayload {
	p := &nodePayload{
		Name:             n.Name,
		Address:          n.Address,
		Port:             n.Port,
		APIPort:          n.APIPort,
		UsageCoefficient: n.UsageCoefficient,
	}
	if p.Port == 0 {
		p.Port = constants.DefaultNodePort
	}
	if p.APIPort == 0 {
		p.APIPort = constants.DefaultNodeAPIPort
	}
	if p.UsageCoefficient == 0 {
		p.UsageCoefficient = constants.DefaultUsageCoeff
	}
	// Updates carry the status, creates carry add_as_new_host
	if n.state.Persisted() {
		p.Status = n.Status
	} else {
		p.AddAsNewHost = n.AddAsNewHost
	}
	return p
}

// Save updates the node if it exists on the panel and creates it otherwise.
// The id, version, status and message the panel reports are copied back.
func (n *Node) Save(ctx context.Context, r Requester) error {
	req := &Request{Method: http.MethodPost, Path: "/api/node", Body: n.payload()}
	if id, ok := n.state.ID(); ok {
		req.Method = http.MethodPut
		req.Path = "/api/node/" + strconv.Itoa(id)
	}

	var saved nodeResponse
	if err := call(ctx, r, req, &saved); err != nil {
		return err
	}
	n.state = persistedAs(saved.ID)
	n.AddAsNewHost = nil
	n.XrayVersion = saved.XrayVersion
	n.Status = saved.Status
	n.Message = saved.Message
	return nil
}

// Delete removes the node from the panel. Deleting a transient node returns
// ErrNotFound without a request.
func (n *Node) Delete(ctx context.Context, r Requester) error {
	id, ok := n.state.ID()
	if !ok {
		return &NotFoundError{Detail: "node has not been saved"}
	}
	if err := call(ctx, r, &Request{Method: http.MethodDelete, Path: "/api/node/" + strconv.Itoa(id)}, nil); err != nil {
		return err
	}
	n.state = transient[int]()
	return nil
}

// Reconnect asks the panel to reconnect to the node
func (n *Node) Reconnect(ctx context.Context, r Requester) error {
	id, ok := n.state.ID()
	if !ok {
		return &NotFoundError{Detail: "node has not been saved"}
	}
	return call(ctx, r, &Request{Method: http.MethodPost, Path: "/api/node/" + strconv.Itoa(id) + "/reconnect"}, nil)
}

// GetNode fetches a node by id
func (c *Client) GetNode(ctx context.Context, id int) (*Node, error) {
	var resp nodeResponse
	if err := call(ctx, c, &Request{Method: http.MethodGet, Path: "/api/node/" + strconv.Itoa(id)}, &resp); err != nil {
		return nil, err
	}
	return resp.node(), nil
}

// ListNodes lists every node
func (c *Client) ListNodes(ctx context.Context) ([]*Node, error) {
	var resp []nodeResponse
	if err := call(ctx, c, &Request{Method: http.MethodGet, Path: "/api/nodes"}, &resp); err != nil {
		return nil, err
	}
	nodes := make([]*Node, 0, len(resp))
	for i := range resp {
		nodes = append(nodes, resp[i].node())
	}
	return nodes, nil
}

// NodeSettings returns the certificate and minimum version nodes need
func (c *Client) NodeSettings(ctx context.Context) (*NodeSettings, error) {
	var settings NodeSettings
	if err := call(ctx, c, &Request{Method: http.MethodGet, Path: "/api/node/settings"}, &settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

// NodesUsage returns the traffic of every node in the range. Nil bounds are
// not sent.
func (c *Client) NodesUsage(ctx context.Context, start, end *time.Time) ([]NodeUsage, error) {
	q := url.Values{}
	setTimeRange(q, "start", start, "end", end)

	// Panel versions differ on the list key.
	var resp struct {
		Usages []NodeUsage `json:"usages"`
		Usage  []NodeUsage `json:"usage"`
	}
	if err := call(ctx, c, &Request{Method: http.MethodGet, Path: "/api/nodes/usage", Query: q}, &resp); err != nil {
		return nil, err
	}
	if resp.Usages != nil {
		return resp.Usages, nil
	}
	if resp.Usage != nil {
		return resp.Usage, nil
	}
	return []NodeUsage{}, nil
}
