package fakepanel

import (
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

var usernamePattern = regexp.MustCompile(`^[a-z0-9_]{3,32}$`)

type adminBody struct {
	Username       string  `json:"username"`
	Password       string  `json:"password"`
	IsSudo         bool    `json:"is_sudo"`
	TelegramID     *int64  `json:"telegram_id"`
	DiscordWebhook *string `json:"discord_webhook"`
}

type userBody struct {
	Username               string                            `json:"username"`
	Proxies                map[string]map[string]interface{} `json:"proxies"`
	Inbounds               map[string][]string               `json:"inbounds"`
	Expire                 *int64                            `json:"expire"`
	DataLimit              int64                             `json:"data_limit"`
	DataLimitResetStrategy string                            `json:"data_limit_reset_strategy"`
	Status                 string                            `json:"status"`
	Note                   *string                           `json:"note"`
	OnHoldTimeout          *string                           `json:"on_hold_timeout"`
	OnHoldExpireDuration   *int64                            `json:"on_hold_expire_duration"`
}

type nodeBody struct {
	Name             string  `json:"name"`
	Address          string  `json:"address"`
	Port             int     `json:"port"`
	APIPort          int     `json:"api_port"`
	UsageCoefficient float64 `json:"usage_coefficient"`
	AddAsNewHost     *bool   `json:"add_as_new_host"`
	Status           string  `json:"status"`
}

func bind(c *gin.Context, v interface{}) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		invalid(c, "body", err.Error())
		return false
	}
	return true
}

func page(c *gin.Context, n int) (int, int) {
	offset, _ := strconv.Atoi(c.Query("offset"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	if offset > n {
		offset = n
	}
	end := n
	if limit > 0 && offset+limit < n {
		end = offset + limit
	}
	return offset, end
}

// Admins

func (p *Panel) currentAdmin(c *gin.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	c.JSON(http.StatusOK, p.admins[p.username])
}

func (p *Panel) createAdmin(c *gin.Context) {
	var body adminBody
	if !bind(c, &body) {
		return
	}
	if body.Username == "" {
		invalid(c, "username", "field required")
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.admins[body.Username]; ok {
		detail(c, http.StatusConflict, "Admin already exists")
		return
	}
	admin := &Admin{
		Username:       body.Username,
		Password:       body.Password,
		IsSudo:         body.IsSudo,
		TelegramID:     body.TelegramID,
		DiscordWebhook: body.DiscordWebhook,
	}
	p.admins[admin.Username] = admin
	c.JSON(http.StatusOK, admin)
}

func (p *Panel) modifyAdmin(c *gin.Context) {
	var body adminBody
	if !bind(c, &body) {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	admin, ok := p.admins[c.Param("username")]
	if !ok {
		detail(c, http.StatusNotFound, "Admin not found")
		return
	}
	if body.Password != "" {
		admin.Password = body.Password
	}
	admin.IsSudo = body.IsSudo
	admin.TelegramID = body.TelegramID
	admin.DiscordWebhook = body.DiscordWebhook
	c.JSON(http.StatusOK, admin)
}

func (p *Panel) deleteAdmin(c *gin.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	username := c.Param("username")
	if _, ok := p.admins[username]; !ok {
		detail(c, http.StatusNotFound, "Admin not found")
		return
	}
	if username == p.username {
		c.JSON(http.StatusForbidden, gin.H{"detail": "You're not allowed"})
		return
	}
	delete(p.admins, username)
	c.JSON(http.StatusOK, gin.H{})
}

func (p *Panel) listAdmins(c *gin.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	filter := c.Query("username")
	admins := make([]*Admin, 0, len(p.admins))
	for _, admin := range p.admins {
		if filter == "" || strings.Contains(admin.Username, filter) {
			admins = append(admins, admin)
		}
	}
	sort.Slice(admins, func(i, j int) bool { return admins[i].Username < admins[j].Username })

	start, end := page(c, len(admins))
	c.JSON(http.StatusOK, admins[start:end])
}

// System

func (p *Panel) getSystem(c *gin.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	stats := make(map[string]interface{}, len(p.system)+8)
	for k, v := range p.system {
		stats[k] = v
	}
	counts := map[string]int{}
	var incoming, outgoing int64
	for _, user := range p.users {
		counts[user.Status]++
		outgoing += user.UsedTraffic
	}
	for _, node := range p.nodes {
		incoming += node.Uplink
		outgoing += node.Downlink
	}
	stats["total_user"] = len(p.users)
	stats["users_active"] = counts["active"]
	stats["users_on_hold"] = counts["on_hold"]
	stats["users_disabled"] = counts["disabled"]
	stats["users_expired"] = counts["expired"]
	stats["users_limited"] = counts["limited"]
	stats["incoming_bandwidth"] = incoming
	stats["outgoing_bandwidth"] = outgoing
	c.JSON(http.StatusOK, stats)
}

func (p *Panel) getInbounds(c *gin.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	c.JSON(http.StatusOK, p.inbounds)
}

func (p *Panel) hasInbound(tag string) bool {
	for _, inbounds := range p.inbounds {
		for _, inbound := range inbounds {
			if inbound["tag"] == tag {
				return true
			}
		}
	}
	return false
}

func (p *Panel) getHosts(c *gin.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	c.JSON(http.StatusOK, p.hosts)
}

func (p *Panel) modifyHosts(c *gin.Context) {
	var body map[string][]map[string]interface{}
	if !bind(c, &body) {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for tag := range body {
		if !p.hasInbound(tag) {
			detail(c, http.StatusBadRequest, "Inbound %s doesn't exist", tag)
			return
		}
	}
	p.hosts = body
	c.JSON(http.StatusOK, p.hosts)
}

// Nodes

func (p *Panel) nodeByParam(c *gin.Context) (*Node, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		invalid(c, "node_id", "value is not a valid integer")
		return nil, false
	}
	node, ok := p.nodes[id]
	if !ok {
		detail(c, http.StatusNotFound, "Node not found")
		return nil, false
	}
	return node, true
}

func (p *Panel) createNode(c *gin.Context) {
	var body nodeBody
	if !bind(c, &body) {
		return
	}
	if body.Name == "" || body.Address == "" {
		invalid(c, "name", "field required")
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for _, node := range p.nodes {
		if node.Name == body.Name {
			detail(c, http.StatusConflict, "Node %s already exists", body.Name)
			return
		}
	}
	node := &Node{
		ID:               p.nextNodeID,
		Name:             body.Name,
		Address:          body.Address,
		Port:             body.Port,
		APIPort:          body.APIPort,
		UsageCoefficient: body.UsageCoefficient,
		Status:           "connecting",
	}
	p.nextNodeID++
	p.nodes[node.ID] = node
	c.JSON(http.StatusOK, node)
}

func (p *Panel) getNode(c *gin.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if node, ok := p.nodeByParam(c); ok {
		c.JSON(http.StatusOK, node)
	}
}

func (p *Panel) modifyNode(c *gin.Context) {
	var body nodeBody
	if !bind(c, &body) {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	node, ok := p.nodeByParam(c)
	if !ok {
		return
	}
	node.Name = body.Name
	node.Address = body.Address
	node.Port = body.Port
	node.APIPort = body.APIPort
	node.UsageCoefficient = body.UsageCoefficient
	if body.Status == "disabled" {
		node.Status = "disabled"
	} else if node.Status == "disabled" || body.Status != "" {
		node.Status = "connecting"
	}
	c.JSON(http.StatusOK, node)
}

func (p *Panel) deleteNode(c *gin.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	node, ok := p.nodeByParam(c)
	if !ok {
		return
	}
	delete(p.nodes, node.ID)
	c.JSON(http.StatusOK, gin.H{})
}

func (p *Panel) reconnectNode(c *gin.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	node, ok := p.nodeByParam(c)
	if !ok {
		return
	}
	version := "1.8.24"
	node.Status = "connected"
	node.XrayVersion = &version
	node.Message = nil
	c.JSON(http.StatusOK, gin.H{})
}

func (p *Panel) listNodes(c *gin.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	nodes := make([]*Node, 0, len(p.nodes))
	for _, node := range p.nodes {
		nodes = append(nodes, node)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
	c.JSON(http.StatusOK, nodes)
}

func (p *Panel) nodeSettings(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"min_node_version": "v0.2.0",
		"certificate":      "-----BEGIN CERTIFICATE-----\nfake\n-----END CERTIFICATE-----\n",
	})
}

func (p *Panel) nodesUsage(c *gin.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	usages := []gin.H{{"node_id": nil, "node_name": "Master", "uplink": 0, "downlink": 0}}
	ids := make([]int, 0, len(p.nodes))
	for id := range p.nodes {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		node := p.nodes[id]
		usages = append(usages, gin.H{
			"node_id":   node.ID,
			"node_name": node.Name,
			"uplink":    node.Uplink,
			"downlink":  node.Downlink,
		})
	}
	c.JSON(http.StatusOK, gin.H{"usages": usages})
}

// Users

func (p *Panel) userByParam(c *gin.Context) (*User, bool) {
	user, ok := p.users[c.Param("username")]
	if !ok {
		detail(c, http.StatusNotFound, "User not found")
		return nil, false
	}
	return user, true
}

func (p *Panel) createUser(c *gin.Context) {
	var body userBody
	if !bind(c, &body) {
		return
	}
	if !usernamePattern.MatchString(body.Username) {
		invalid(c, "username", "Username only can be 3 to 32 characters and contain a-z, 0-9, and underscores in between.")
		return
	}
	if len(body.Proxies) == 0 {
		invalid(c, "proxies", "Each user needs at least one proxy")
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.users[body.Username]; ok {
		detail(c, http.StatusConflict, "User already exists")
		return
	}
	user := &User{
		Username:               body.Username,
		Expire:                 body.Expire,
		DataLimit:              body.DataLimit,
		DataLimitResetStrategy: body.DataLimitResetStrategy,
		Proxies:                body.Proxies,
		Inbounds:               body.Inbounds,
		Note:                   body.Note,
		Status:                 body.Status,
		OnHoldTimeout:          body.OnHoldTimeout,
		OnHoldExpireDuration:   body.OnHoldExpireDuration,
	}
	p.fillUser(user)
	p.users[user.Username] = user
	c.JSON(http.StatusOK, user)
}

func (p *Panel) getUser(c *gin.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if user, ok := p.userByParam(c); ok {
		c.JSON(http.StatusOK, user)
	}
}

func (p *Panel) modifyUser(c *gin.Context) {
	var body userBody
	if !bind(c, &body) {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	user, ok := p.userByParam(c)
	if !ok {
		return
	}
	if body.Proxies != nil {
		user.Proxies = body.Proxies
	}
	if body.Inbounds != nil {
		user.Inbounds = body.Inbounds
	}
	if body.Expire != nil {
		user.Expire = body.Expire
	}
	user.DataLimit = body.DataLimit
	if body.DataLimitResetStrategy != "" {
		user.DataLimitResetStrategy = body.DataLimitResetStrategy
	}
	if body.Status != "" {
		user.Status = body.Status
	}
	user.Note = body.Note
	user.OnHoldTimeout = body.OnHoldTimeout
	user.OnHoldExpireDuration = body.OnHoldExpireDuration
	p.fillUser(user)
	c.JSON(http.StatusOK, user)
}

func (p *Panel) deleteUser(c *gin.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	user, ok := p.userByParam(c)
	if !ok {
		return
	}
	delete(p.users, user.Username)
	c.JSON(http.StatusOK, gin.H{})
}

func (p *Panel) resetUser(c *gin.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	user, ok := p.userByParam(c)
	if !ok {
		return
	}
	user.LifetimeUsedTraffic += user.UsedTraffic
	user.UsedTraffic = 0
	if user.Status == "limited" {
		user.Status = "active"
	}
	c.JSON(http.StatusOK, user)
}

func (p *Panel) revokeUser(c *gin.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	user, ok := p.userByParam(c)
	if !ok {
		return
	}
	for protocol, settings := range user.Proxies {
		if _, ok := settings["id"]; ok {
			settings["id"] = uuid.NewString()
		}
		if _, ok := settings["password"]; ok {
			settings["password"] = uuid.NewString()[:12]
		}
		user.Proxies[protocol] = settings
	}
	p.rotateSubscription(user)
	c.JSON(http.StatusOK, user)
}

func (p *Panel) userUsage(c *gin.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	user, ok := p.userByParam(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"username": user.Username,
		"usages": []gin.H{
			{"node_id": nil, "node_name": "Master", "used_traffic": user.UsedTraffic},
		},
	})
}

func (p *Panel) setOwner(c *gin.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	user, ok := p.userByParam(c)
	if !ok {
		return
	}
	admin, ok := p.admins[c.Query("admin_username")]
	if !ok {
		detail(c, http.StatusNotFound, "Admin not found")
		return
	}
	user.Admin = admin
	c.JSON(http.StatusOK, user)
}

func (p *Panel) listUsers(c *gin.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	usernames := c.QueryArray("username")
	admins := c.QueryArray("admin")
	search := c.Query("search")
	status := c.Query("status")

	users := make([]*User, 0, len(p.users))
	for _, user := range p.users {
		if len(usernames) > 0 && !contains(usernames, user.Username) {
			continue
		}
		if len(admins) > 0 && (user.Admin == nil || !contains(admins, user.Admin.Username)) {
			continue
		}
		if search != "" && !strings.Contains(user.Username, search) {
			continue
		}
		if status != "" && user.Status != status {
			continue
		}
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })

	start, end := page(c, len(users))
	c.JSON(http.StatusOK, gin.H{"users": users[start:end], "total": len(users)})
}

func (p *Panel) resetUsers(c *gin.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, user := range p.users {
		user.LifetimeUsedTraffic += user.UsedTraffic
		user.UsedTraffic = 0
	}
	c.JSON(http.StatusOK, gin.H{})
}

func (p *Panel) expired(c *gin.Context) ([]string, bool) {
	now := time.Now().Unix()
	before, after := now, int64(0)
	if v := c.Query("expired_before"); v != "" {
		t, err := time.Parse("2006-01-02T15:04:05", v)
		if err != nil {
			invalid(c, "expired_before", "invalid datetime format")
			return nil, false
		}
		before = t.Unix()
	}
	if v := c.Query("expired_after"); v != "" {
		t, err := time.Parse("2006-01-02T15:04:05", v)
		if err != nil {
			invalid(c, "expired_after", "invalid datetime format")
			return nil, false
		}
		after = t.Unix()
	}

	usernames := []string{}
	for _, user := range p.users {
		if user.Expire == nil || *user.Expire == 0 || *user.Expire >= now {
			continue
		}
		if *user.Expire <= before && *user.Expire >= after {
			usernames = append(usernames, user.Username)
		}
	}
	sort.Strings(usernames)
	return usernames, true
}

func (p *Panel) expiredUsers(c *gin.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if usernames, ok := p.expired(c); ok {
		c.JSON(http.StatusOK, usernames)
	}
}

func (p *Panel) deleteExpiredUsers(c *gin.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	usernames, ok := p.expired(c)
	if !ok {
		return
	}
	if len(usernames) == 0 {
		detail(c, http.StatusNotFound, "No expired users found in the specified date range")
		return
	}
	for _, username := range usernames {
		delete(p.users, username)
	}
	c.JSON(http.StatusOK, usernames)
}

// Templates

func (p *Panel) templateByParam(c *gin.Context) (*UserTemplate, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		invalid(c, "template_id", "value is not a valid integer")
		return nil, false
	}
	template, ok := p.templates[id]
	if !ok {
		detail(c, http.StatusNotFound, "User Template not found")
		return nil, false
	}
	return template, true
}

func (p *Panel) createTemplate(c *gin.Context) {
	var body UserTemplate
	if !bind(c, &body) {
		return
	}
	if body.Name == "" {
		invalid(c, "name", "field required")
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for _, template := range p.templates {
		if template.Name == body.Name {
			detail(c, http.StatusConflict, "Template by this name already exists")
			return
		}
	}
	body.ID = p.nextTemplateID
	p.nextTemplateID++
	p.templates[body.ID] = &body
	c.JSON(http.StatusOK, &body)
}

func (p *Panel) getTemplate(c *gin.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if template, ok := p.templateByParam(c); ok {
		c.JSON(http.StatusOK, template)
	}
}

func (p *Panel) modifyTemplate(c *gin.Context) {
	var body UserTemplate
	if !bind(c, &body) {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	template, ok := p.templateByParam(c)
	if !ok {
		return
	}
	body.ID = template.ID
	p.templates[template.ID] = &body
	c.JSON(http.StatusOK, &body)
}

func (p *Panel) deleteTemplate(c *gin.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	template, ok := p.templateByParam(c)
	if !ok {
		return
	}
	delete(p.templates, template.ID)
	c.JSON(http.StatusOK, gin.H{})
}

func (p *Panel) listTemplates(c *gin.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	templates := make([]*UserTemplate, 0, len(p.templates))
	for _, template := range p.templates {
		templates = append(templates, template)
	}
	sort.Slice(templates, func(i, j int) bool { return templates[i].ID < templates[j].ID })

	start, end := page(c, len(templates))
	c.JSON(http.StatusOK, templates[start:end])
}

func contains(values []string, v string) bool {
	for _, value := range values {
		if value == v {
			return true
		}
	}
	return false
}
