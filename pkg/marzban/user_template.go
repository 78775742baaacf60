package marzban

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// UserTemplate is a named provisioning preset for new users
type UserTemplate struct {
	Name           string
	DataLimit      int64
	ExpireDuration time.Duration
	UsernamePrefix *string
	UsernameSuffix *string
	Inbounds       map[string][]string

	state State[int]
}

type userTemplateWire struct {
	ID             int                 `json:"id,omitempty"`
	Name           string              `json:"name"`
	DataLimit      int64               `json:"data_limit"`
	ExpireDuration int64               `json:"expire_duration"`
	UsernamePrefix *string             `json:"username_prefix"`
	UsernameSuffix *string             `json:"username_suffix"`
	Inbounds       map[string][]string `json:"inbounds"`
}

func (w *userTemplateWire) template() *UserTemplate {
	return &UserTemplate{
		Name:           w.Name,
		DataLimit:      w.DataLimit,
		ExpireDuration: time.Duration(w.ExpireDuration) * time.Second,
		UsernamePrefix: w.UsernamePrefix,
		UsernameSuffix: w.UsernameSuffix,
		Inbounds:       w.Inbounds,
		state:          persistedAs(w.ID),
	}
}

// ID returns the panel id of a persisted template
func (t *UserTemplate) ID() (int, bool) {
	return t.state.ID()
}

// Exists reports whether the template is known to exist on the panel
func (t *UserTemplate) Exists() bool {
	return t.state.Persisted()
}

func (t *UserTemplate) payload() *userTemplateWire {
	inbounds := t.Inbounds
	if inbounds == nil {
		inbounds = map[string][]string{}
	}
	return &userTemplateWire{
		Name:           t.Name,
		DataLimit:      t.DataLimit,
		ExpireDuration: int64(t.ExpireDuration / time.Second),
		UsernamePrefix: t.UsernamePrefix,
		UsernameSuffix: t.UsernameSuffix,
		Inbounds:       inbounds,
	}
}

// MarshalJSON encodes the template the way the panel does, with the
// duration in seconds
func (t UserTemplate) MarshalJSON() ([]byte, error) {
	w := t.payload()
	w.ID, _ = t.state.ID()
	return json.Marshal(w)
}

// Save updates the template if it exists on the panel and creates it
// otherwise, then adopts the template as the panel stored it
func (t *UserTemplate) Save(ctx context.Context, r Requester) error {
	req := &Request{Method: http.MethodPost, Path: "/api/user_template", Body: t.payload()}
	if id, ok := t.state.ID(); ok {
		req.Method = http.MethodPut
		req.Path = "/api/user_template/" + strconv.Itoa(id)
	}

	var saved userTemplateWire
	if err := call(ctx, r, req, &saved); err != nil {
		return err
	}
	*t = *saved.template()
	return nil
}

// Delete removes the template from the panel
func (t *UserTemplate) Delete(ctx context.Context, r Requester) error {
	id, ok := t.state.ID()
	if !ok {
		return &NotFoundError{Detail: "user template has not been saved"}
	}
	if err := call(ctx, r, &Request{Method: http.MethodDelete, Path: "/api/user_template/" + strconv.Itoa(id)}, nil); err != nil {
		return err
	}
	t.state = transient[int]()
	return nil
}

// GetUserTemplate fetches a template by id
func (c *Client) GetUserTemplate(ctx context.Context, id int) (*UserTemplate, error) {
	var w userTemplateWire
	if err := call(ctx, c, &Request{Method: http.MethodGet, Path: "/api/user_template/" + strconv.Itoa(id)}, &w); err != nil {
		return nil, err
	}
	return w.template(), nil
}

// ListUserTemplates lists templates. Nil offset or limit is not sent.
func (c *Client) ListUserTemplates(ctx context.Context, offset, limit *int) ([]*UserTemplate, error) {
	q := url.Values{}
	if offset != nil {
		q.Set("offset", strconv.Itoa(*offset))
	}
	if limit != nil {
		q.Set("limit", strconv.Itoa(*limit))
	}

	var wires []userTemplateWire
	if err := call(ctx, c, &Request{Method: http.MethodGet, Path: "/api/user_template", Query: q}, &wires); err != nil {
		return nil, err
	}
	templates := make([]*UserTemplate, 0, len(wires))
	for i := range wires {
		templates = append(templates, wires[i].template())
	}
	return templates, nil
}
