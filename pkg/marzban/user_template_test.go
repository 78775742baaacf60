package marzban

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestUserTemplateLifecycle(t *testing.T) {
	panel, client := newTestPanel(t)
	ctx := context.Background()

	template := &UserTemplate{
		Name:           "monthly",
		DataLimit:      50 * 1024 * 1024 * 1024,
		ExpireDuration: 30 * 24 * time.Hour,
		UsernamePrefix: strPtr("m_"),
		Inbounds:       map[string][]string{"vless": {"VLESS TCP REALITY"}},
	}
	require.NoError(t, template.Save(ctx, client))
	id, ok := template.ID()
	require.True(t, ok)
	require.Equal(t, "/api/user_template", panel.LastRequest().Path)

	fetched, err := client.GetUserTemplate(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "monthly", fetched.Name)
	require.Equal(t, 30*24*time.Hour, fetched.ExpireDuration)
	require.Equal(t, "m_", *fetched.UsernamePrefix)
	require.Nil(t, fetched.UsernameSuffix)
	require.True(t, fetched.Exists())

	template.DataLimit = 0
	require.NoError(t, template.Save(ctx, client))
	last := panel.LastRequest()
	require.Equal(t, http.MethodPut, last.Method)
	require.Equal(t, "/api/user_template/1", last.Path)

	require.NoError(t, template.Delete(ctx, client))
	require.False(t, template.Exists())
	_, err = client.GetUserTemplate(ctx, id)
	var notFound *NotFoundError
	require.True(t, errors.As(err, &notFound))
	require.Equal(t, "User Template not found", notFound.Detail)

	require.True(t, errors.Is(template.Delete(ctx, client), ErrNotFound))
}

func TestUserTemplateDuplicateName(t *testing.T) {
	_, client := newTestPanel(t)
	ctx := context.Background()

	require.NoError(t, (&UserTemplate{Name: "weekly"}).Save(ctx, client))
	err := (&UserTemplate{Name: "weekly"}).Save(ctx, client)
	require.True(t, errors.Is(err, ErrConflict))
}

func TestListUserTemplates(t *testing.T) {
	panel, client := newTestPanel(t)
	ctx := context.Background()

	for _, name := range []string{"a", "b", "c"} {
		require.NoError(t, (&UserTemplate{Name: name, ExpireDuration: time.Hour}).Save(ctx, client))
	}

	templates, err := client.ListUserTemplates(ctx, nil, nil)
	require.NoError(t, err)
	require.Len(t, templates, 3)
	require.Empty(t, panel.LastRequest().Query)
	require.Equal(t, time.Hour, templates[0].ExpireDuration)

	offset, limit := 1, 1
	templates, err = client.ListUserTemplates(ctx, &offset, &limit)
	require.NoError(t, err)
	require.Len(t, templates, 1)
	require.Equal(t, "b", templates[0].Name)
	id, _ := templates[0].ID()
	require.Equal(t, 2, id)
}
