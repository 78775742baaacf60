package marzban

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"marzban-go/internal/fakepanel"
)

func TestSystemStats(t *testing.T) {
	panel, client := newTestPanel(t)
	panel.AddUser(&fakepanel.User{Username: "one", UsedTraffic: 10})
	panel.AddUser(&fakepanel.User{Username: "two", Status: "disabled"})

	stats, err := client.SystemStats(context.Background())
	require.NoError(t, err)
	require.Equal(t, "0.7.0", stats.Version)
	require.Equal(t, 2, stats.CPUCores)
	require.Equal(t, 2, stats.TotalUser)
	require.Equal(t, 1, stats.UsersActive)
	require.Equal(t, 1, stats.UsersDisabled)
	require.EqualValues(t, 10, stats.OutgoingBandwidth)
}

func TestInbounds(t *testing.T) {
	_, client := newTestPanel(t)

	inbounds, err := client.Inbounds(context.Background())
	require.NoError(t, err)
	require.Len(t, inbounds[ProtocolVLESS], 1)
	require.Equal(t, "VLESS TCP REALITY", inbounds[ProtocolVLESS][0].Tag)
	require.Equal(t, "443", string(inbounds[ProtocolVLESS][0].Port))
	require.Equal(t, `"8080"`, string(inbounds[ProtocolVMess][0].Port))
}

func TestSnapshot(t *testing.T) {
	_, client := newTestPanel(t)

	snapshot, err := client.Snapshot(context.Background())
	require.NoError(t, err)
	require.NotNil(t, snapshot.Stats)
	require.Len(t, snapshot.Inbounds, 2)
}

func TestSnapshotFailure(t *testing.T) {
	panel, client := newTestPanel(t)
	panel.Fail(http.MethodGet, "/api/inbounds", http.StatusForbidden, map[string]string{"detail": "You're not allowed"})

	snapshot, err := client.Snapshot(context.Background())
	require.Nil(t, snapshot)
	require.True(t, errors.Is(err, ErrForbidden))
}
