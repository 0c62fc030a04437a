package notify

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/me/mesas/pkg/model"
)

func dialHub(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestBroadcast_NoHub(t *testing.T) {
	b := NewBroadcast(nil, discard())
	_, err := b.Send(context.Background(), model.NewEvent(model.EventUpdate, "mesa_1", "x"))
	assert.ErrorIs(t, err, ErrChannelNotInitialized)
}

func TestBroadcast_DeliversToEveryListener(t *testing.T) {
	hub := NewHub(nil, discard())
	srv := httptest.NewServer(hub)
	defer srv.Close()
	defer hub.Close()

	a := dialHub(t, srv)
	c := dialHub(t, srv)
	require.Eventually(t, func() bool { return hub.Listeners() == 2 }, 2*time.Second, 10*time.Millisecond)

	b := NewBroadcast(nil, discard())
	b.Attach(hub)

	// Recipients are ignored by the broadcast channel.
	ev := model.NewEvent(model.EventConfirmation, "mesa_1", "Ana accepted", "doc_b")
	report, err := b.Send(context.Background(), ev)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Delivered)

	for _, conn := range []*websocket.Conn{a, c} {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var got model.Event
		require.NoError(t, conn.ReadJSON(&got))
		assert.Equal(t, model.EventConfirmation, got.Kind)
		assert.Equal(t, "Ana accepted", got.Message)
		assert.Equal(t, "mesa_1", got.BoardID)
	}
}

func TestHub_ListenerRemovedOnDisconnect(t *testing.T) {
	hub := NewHub(nil, discard())
	srv := httptest.NewServer(hub)
	defer srv.Close()
	defer hub.Close()

	conn := dialHub(t, srv)
	require.Eventually(t, func() bool { return hub.Listeners() == 1 }, 2*time.Second, 10*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return hub.Listeners() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_PublishWithNoListeners(t *testing.T) {
	hub := NewHub(nil, discard())
	delivered, dropped := hub.Publish([]byte(`{}`))
	assert.Zero(t, delivered)
	assert.Zero(t, dropped)
}
