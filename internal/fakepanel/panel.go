// Package fakepanel is an in-memory Marzban panel used to exercise the client
// end to end. It implements the subset of the panel API the client consumes.
package fakepanel

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const timeLayout = "2006-01-02T15:04:05.000000"

// RecordedRequest is a request the panel received
type RecordedRequest struct {
	Method string
	Path   string
	Query  string
	Auth   string
}

type failure struct {
	status int
	body   interface{}
}

// Admin is a stored admin
type Admin struct {
	Username       string  `json:"username"`
	Password       string  `json:"-"`
	IsSudo         bool    `json:"is_sudo"`
	TelegramID     *int64  `json:"telegram_id"`
	DiscordWebhook *string `json:"discord_webhook"`
}

// User is a stored user
type User struct {
	Username               string                            `json:"username"`
	Expire                 *int64                            `json:"expire"`
	DataLimit              int64                             `json:"data_limit"`
	DataLimitResetStrategy string                            `json:"data_limit_reset_strategy"`
	Proxies                map[string]map[string]interface{} `json:"proxies"`
	Inbounds               map[string][]string               `json:"inbounds"`
	Note                   *string                           `json:"note"`
	Status                 string                            `json:"status"`
	UsedTraffic            int64                             `json:"used_traffic"`
	LifetimeUsedTraffic    int64                             `json:"lifetime_used_traffic"`
	CreatedAt              string                            `json:"created_at"`
	Links                  []string                          `json:"links"`
	SubscriptionURL        string                            `json:"subscription_url"`
	OnlineAt               *string                           `json:"online_at"`
	OnHoldTimeout          *string                           `json:"on_hold_timeout"`
	OnHoldExpireDuration   *int64                            `json:"on_hold_expire_duration"`
	Admin                  *Admin                            `json:"admin"`
}

// Node is a stored node
type Node struct {
	ID               int     `json:"id"`
	Name             string  `json:"name"`
	Address          string  `json:"address"`
	Port             int     `json:"port"`
	APIPort          int     `json:"api_port"`
	UsageCoefficient float64 `json:"usage_coefficient"`
	XrayVersion      *string `json:"xray_version"`
	Status           string  `json:"status"`
	Message          *string `json:"message"`
	Uplink           int64   `json:"-"`
	Downlink         int64   `json:"-"`
}

// UserTemplate is a stored user template
type UserTemplate struct {
	ID             int                 `json:"id"`
	Name           string              `json:"name"`
	DataLimit      int64               `json:"data_limit"`
	ExpireDuration int64               `json:"expire_duration"`
	UsernamePrefix *string             `json:"username_prefix"`
	UsernameSuffix *string             `json:"username_suffix"`
	Inbounds       map[string][]string `json:"inbounds"`
}

// Panel is an in-memory Marzban panel
type Panel struct {
	mu sync.Mutex

	username string
	password string
	token    string

	admins    map[string]*Admin
	users     map[string]*User
	nodes     map[int]*Node
	templates map[int]*UserTemplate
	hosts     map[string][]map[string]interface{}
	inbounds  map[string][]map[string]interface{}
	system    map[string]interface{}

	nextNodeID     int
	nextTemplateID int
	requests       []RecordedRequest
	failures       map[string]failure
	router         *gin.Engine
}

// New creates a panel whose sudo admin logs in with username and password
func New(username, password string) *Panel {
	gin.SetMode(gin.TestMode)

	p := &Panel{
		username: username,
		password: password,
		token:    uuid.NewString(),
		admins: map[string]*Admin{
			username: {Username: username, Password: password, IsSudo: true},
		},
		users:     make(map[string]*User),
		nodes:     make(map[int]*Node),
		templates: make(map[int]*UserTemplate),
		hosts:     make(map[string][]map[string]interface{}),
		inbounds: map[string][]map[string]interface{}{
			"vless": {{"tag": "VLESS TCP REALITY", "protocol": "vless", "network": "tcp", "tls": "reality", "port": 443}},
			"vmess": {{"tag": "VMESS WS", "protocol": "vmess", "network": "ws", "tls": "none", "port": "8080"}},
		},
		system: map[string]interface{}{
			"version":   "0.7.0",
			"mem_total": 2048 * 1024 * 1024,
			"mem_used":  512 * 1024 * 1024,
			"cpu_cores": 2,
			"cpu_usage": 12.5,
		},
		nextNodeID:     1,
		nextTemplateID: 1,
		failures:       make(map[string]failure),
	}
	p.router = p.routes()
	return p
}

// Handler returns the panel's HTTP handler
func (p *Panel) Handler() http.Handler {
	return p.router
}

// Token returns the token issued on login
func (p *Panel) Token() string {
	return p.token
}

// Fail makes every request matching method and path answer with status and body
func (p *Panel) Fail(method, path string, status int, body interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failures[method+" "+path] = failure{status: status, body: body}
}

// Requests returns the requests received so far
func (p *Panel) Requests() []RecordedRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]RecordedRequest, len(p.requests))
	copy(out, p.requests)
	return out
}

// LastRequest returns the most recent request
func (p *Panel) LastRequest() RecordedRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.requests) == 0 {
		return RecordedRequest{}
	}
	return p.requests[len(p.requests)-1]
}

// AddUser stores a user directly
func (p *Panel) AddUser(user *User) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fillUser(user)
	p.users[user.Username] = user
}

// AddNode stores a node directly and returns its id
func (p *Panel) AddNode(node *Node) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	node.ID = p.nextNodeID
	p.nextNodeID++
	p.nodes[node.ID] = node
	return node.ID
}

// AddTemplate stores a template directly and returns its id
func (p *Panel) AddTemplate(template *UserTemplate) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	template.ID = p.nextTemplateID
	p.nextTemplateID++
	p.templates[template.ID] = template
	return template.ID
}

// User returns a stored user
func (p *Panel) User(username string) (*User, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	user, ok := p.users[username]
	return user, ok
}

func (p *Panel) routes() *gin.Engine {
	r := gin.New()
	r.Use(p.record(), p.inject())

	r.POST("/api/admin/token", p.login)

	api := r.Group("/api", p.authorize())

	api.GET("/admin", p.currentAdmin)
	api.POST("/admin", p.createAdmin)
	api.PUT("/admin/:username", p.modifyAdmin)
	api.DELETE("/admin/:username", p.deleteAdmin)
	api.GET("/admins", p.listAdmins)

	api.GET("/system", p.getSystem)
	api.GET("/inbounds", p.getInbounds)
	api.GET("/hosts", p.getHosts)
	api.PUT("/hosts", p.modifyHosts)

	api.POST("/node", p.createNode)
	api.GET("/node/settings", p.nodeSettings)
	api.GET("/node/:id", p.getNode)
	api.PUT("/node/:id", p.modifyNode)
	api.DELETE("/node/:id", p.deleteNode)
	api.POST("/node/:id/reconnect", p.reconnectNode)
	api.GET("/nodes", p.listNodes)
	api.GET("/nodes/usage", p.nodesUsage)

	api.POST("/user", p.createUser)
	api.GET("/user/:username", p.getUser)
	api.PUT("/user/:username", p.modifyUser)
	api.DELETE("/user/:username", p.deleteUser)
	api.POST("/user/:username/reset", p.resetUser)
	api.POST("/user/:username/revoke_sub", p.revokeUser)
	api.GET("/user/:username/usage", p.userUsage)
	api.PUT("/user/:username/set-owner", p.setOwner)
	api.GET("/users", p.listUsers)
	api.POST("/users/reset", p.resetUsers)
	api.GET("/users/expired", p.expiredUsers)
	api.DELETE("/users/expired", p.deleteExpiredUsers)

	api.POST("/user_template", p.createTemplate)
	api.GET("/user_template", p.listTemplates)
	api.GET("/user_template/:id", p.getTemplate)
	api.PUT("/user_template/:id", p.modifyTemplate)
	api.DELETE("/user_template/:id", p.deleteTemplate)

	return r
}

func (p *Panel) record() gin.HandlerFunc {
	return func(c *gin.Context) {
		p.mu.Lock()
		p.requests = append(p.requests, RecordedRequest{
			Method: c.Request.Method,
			Path:   c.Request.URL.Path,
			Query:  c.Request.URL.RawQuery,
			Auth:   c.GetHeader("Authorization"),
		})
		p.mu.Unlock()
		c.Next()
	}
}

func (p *Panel) inject() gin.HandlerFunc {
	return func(c *gin.Context) {
		p.mu.Lock()
		f, ok := p.failures[c.Request.Method+" "+c.Request.URL.Path]
		p.mu.Unlock()
		if ok {
			c.AbortWithStatusJSON(f.status, f.body)
			return
		}
		c.Next()
	}
}

func (p *Panel) authorize() gin.HandlerFunc {
	return func(c *gin.Context) {
		scheme, token, _ := strings.Cut(c.GetHeader("Authorization"), " ")
		if !strings.EqualFold(scheme, "bearer") || token != p.token {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Could not validate credentials"})
			return
		}
		c.Next()
	}
}

func (p *Panel) login(c *gin.Context) {
	if c.PostForm("username") != p.username || c.PostForm("password") != p.password {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Incorrect username or password"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": p.token, "token_type": "bearer"})
}

func detail(c *gin.Context, status int, format string, args ...interface{}) {
	c.JSON(status, gin.H{"detail": fmt.Sprintf(format, args...)})
}

func invalid(c *gin.Context, field, message string) {
	c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": gin.H{field: message}})
}

func (p *Panel) fillUser(user *User) {
	if user.Status == "" {
		user.Status = "active"
	}
	if user.DataLimitResetStrategy == "" {
		user.DataLimitResetStrategy = "no_reset"
	}
	if user.CreatedAt == "" {
		user.CreatedAt = time.Now().UTC().Format(timeLayout)
	}
	if user.Proxies == nil {
		user.Proxies = map[string]map[string]interface{}{}
	}
	for protocol, settings := range user.Proxies {
		if settings == nil {
			settings = map[string]interface{}{}
			user.Proxies[protocol] = settings
		}
		switch protocol {
		case "vmess", "vless":
			if _, ok := settings["id"]; !ok {
				settings["id"] = uuid.NewString()
			}
		default:
			if _, ok := settings["password"]; !ok {
				settings["password"] = uuid.NewString()[:12]
			}
		}
	}
	if user.Inbounds == nil {
		user.Inbounds = map[string][]string{}
	}
	if user.Admin == nil {
		user.Admin = p.admins[p.username]
	}
	p.rotateSubscription(user)
}

func (p *Panel) rotateSubscription(user *User) {
	subToken := uuid.NewString()
	user.SubscriptionURL = "/sub/" + subToken
	protocols := make([]string, 0, len(user.Proxies))
	for protocol := range user.Proxies {
		protocols = append(protocols, protocol)
	}
	sort.Strings(protocols)
	user.Links = make([]string, 0, len(protocols))
	for _, protocol := range protocols {
		user.Links = append(user.Links, fmt.Sprintf("%s://%s@example.com:443#%s", protocol, subToken, user.Username))
	}
}
