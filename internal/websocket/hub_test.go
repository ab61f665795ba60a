package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func startHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	hub := NewHub(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	return hub, cancel
}

func stopHub(t *testing.T, hub *Hub, cancel context.CancelFunc) {
	t.Helper()
	cancel()
	select {
	case <-hub.done:
	case <-time.After(time.Second):
		t.Fatal("hub did not stop")
	}
}

func receive(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case b, ok := <-c.Send:
		require.True(t, ok, "send channel closed")
		var msg Message
		require.NoError(t, json.Unmarshal(b, &msg))
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message received")
	}
	return Message{}
}

func TestHub_NotifiesOnlyTargetUser(t *testing.T) {
	defer goleak.VerifyNone(t)
	hub, cancel := startHub(t)

	alice := &Client{Hub: hub, UserID: "alice", Send: make(chan []byte, 4)}
	bob := &Client{Hub: hub, UserID: "bob", Send: make(chan []byte, 4)}
	hub.Register <- alice
	hub.Register <- bob

	hub.Notify("alice", "contacts.changed", map[string]string{"contact_id": "carol"})

	msg := receive(t, alice)
	assert.Equal(t, "contacts.changed", msg.Type)
	assert.Len(t, bob.Send, 0)

	stopHub(t, hub, cancel)

	_, open := <-alice.Send
	assert.False(t, open, "clients are closed when the hub stops")
}

func TestHub_Unregister(t *testing.T) {
	defer goleak.VerifyNone(t)
	hub, cancel := startHub(t)

	c := &Client{Hub: hub, UserID: "alice", Send: make(chan []byte, 1)}
	hub.Register <- c
	hub.Unregister <- c
	// a second unregister must not double-close
	hub.Unregister <- c

	assert.Eventually(t, func() bool { return hub.ConnectionCount("alice") == 0 }, time.Second, 10*time.Millisecond)

	stopHub(t, hub, cancel)
}

func TestHub_DropsSlowClient(t *testing.T) {
	defer goleak.VerifyNone(t)
	hub, cancel := startHub(t)

	slow := &Client{Hub: hub, UserID: "alice", Send: make(chan []byte)}
	hub.Register <- slow
	hub.Notify("alice", "contacts.changed", nil)

	assert.Eventually(t, func() bool { return hub.ConnectionCount("alice") == 0 }, time.Second, 10*time.Millisecond)

	stopHub(t, hub, cancel)
}

func TestHub_NotifyAfterStopDoesNotBlock(t *testing.T) {
	defer goleak.VerifyNone(t)
	hub, cancel := startHub(t)
	stopHub(t, hub, cancel)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			hub.Notify("alice", "contacts.changed", nil)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Notify blocked after hub stopped")
	}
}

func TestServeWs_DeliversNotifications(t *testing.T) {
	hub, cancel := startHub(t)
	defer stopHub(t, hub, cancel)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeWs(hub, w, r, "alice", []string{"*"})
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.ConnectionCount("alice") == 1 }, time.Second, 10*time.Millisecond)
	hub.Notify("alice", "contacts.changed", nil)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, "contacts.changed", msg.Type)
}

func TestOriginAllowed(t *testing.T) {
	assert.True(t, originAllowed("", []string{"https://a.example"}))
	assert.True(t, originAllowed("https://A.example", []string{"https://a.example"}))
	assert.True(t, originAllowed("https://x.example", []string{"*"}))
	assert.False(t, originAllowed("https://x.example", []string{"https://a.example"}))
}
