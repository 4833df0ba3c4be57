package hub_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"race-telemetry/core/hub"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(url, "http"), nil)
	require.NoError(t, err)
	return conn
}

func TestHub_BroadcastsViewChanged(t *testing.T) {
	h := hub.New(hub.DefaultConfig(), nil)
	srv := httptest.NewServer(h)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = h.Run(ctx) }()

	a := dial(t, srv.URL)
	defer a.Close()
	b := dial(t, srv.URL)
	defer b.Close()

	require.Eventually(t, func() bool { return h.Len() == 2 }, 2*time.Second, 10*time.Millisecond)

	h.Notify()

	for _, conn := range []*websocket.Conn{a, b} {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)

		var msg hub.Message
		require.NoError(t, json.Unmarshal(data, &msg))
		assert.Equal(t, hub.MessageViewChanged, msg.Type)
		assert.False(t, msg.At.IsZero())
	}
}

func TestHub_ClientCloseUnregisters(t *testing.T) {
	h := hub.New(hub.DefaultConfig(), nil)
	srv := httptest.NewServer(h)
	defer srv.Close()

	conn := dial(t, srv.URL)
	require.Eventually(t, func() bool { return h.Len() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return h.Len() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_RunClosesClientsOnShutdown(t *testing.T) {
	h := hub.New(hub.DefaultConfig(), nil)
	srv := httptest.NewServer(h)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.Run(ctx) }()

	conn := dial(t, srv.URL)
	defer conn.Close()
	require.Eventually(t, func() bool { return h.Len() == 1 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, 0, h.Len())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}
