package realtime

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/simple-feed/pkg/simplefeed"
)

func startHub(t *testing.T) *Hub {
	t.Helper()

	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func dial(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	// The handshake completes before the hub processes the
	// registration; give it a moment so broadcasts are not missed.
	time.Sleep(50 * time.Millisecond)
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var event Event
	require.NoError(t, json.Unmarshal(data, &event))
	return event
}

func TestHubBroadcast(t *testing.T) {
	hub := startHub(t)
	server := httptest.NewServer(hub)
	defer server.Close()

	conn := dial(t, server)

	post := &simplefeed.PostView{
		ID:      uuid.New(),
		Title:   "first post",
		Content: "hello everyone",
		Creator: simplefeed.Creator{ID: uuid.New(), Name: "Maria"},
	}
	require.NoError(t, hub.PostCreated(context.Background(), post))

	event := readEvent(t, conn)
	assert.Equal(t, "create", event.Action)

	payload, ok := event.Post.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, post.ID.String(), payload["id"])
	assert.Equal(t, "first post", payload["title"])
}

func TestHubFansOutToAllClients(t *testing.T) {
	hub := startHub(t)
	server := httptest.NewServer(hub)
	defer server.Close()

	first := dial(t, server)
	second := dial(t, server)

	postID := uuid.New()
	require.NoError(t, hub.PostDeleted(context.Background(), postID))

	for _, conn := range []*websocket.Conn{first, second} {
		event := readEvent(t, conn)
		assert.Equal(t, "delete", event.Action)
		assert.Equal(t, postID.String(), event.Post)
	}
}

func TestHubDeliversInOrder(t *testing.T) {
	hub := startHub(t)
	server := httptest.NewServer(hub)
	defer server.Close()

	conn := dial(t, server)

	post := &simplefeed.PostView{ID: uuid.New(), Title: "draft", Content: "work in progress"}
	require.NoError(t, hub.PostCreated(context.Background(), post))
	post.Title = "published"
	require.NoError(t, hub.PostUpdated(context.Background(), post))
	require.NoError(t, hub.PostDeleted(context.Background(), post.ID))

	actions := []string{
		readEvent(t, conn).Action,
		readEvent(t, conn).Action,
		readEvent(t, conn).Action,
	}
	assert.Equal(t, []string{"create", "update", "delete"}, actions)
}

func TestHubShutdown(t *testing.T) {
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())

	ran := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(ran)
	}()

	server := httptest.NewServer(hub)
	defer server.Close()

	conn := dial(t, server)

	cancel()
	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("hub did not stop after context cancellation")
	}

	// The hub closes every client connection on shutdown.
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)

	// Publishing after shutdown fails instead of blocking.
	assert.Error(t, hub.PostDeleted(context.Background(), uuid.New()))

	// New connections are refused.
	ws, httpResp, dialErr := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http"), nil)
	if ws != nil {
		ws.Close()
	}
	if httpResp != nil {
		httpResp.Body.Close()
	}
	assert.Error(t, dialErr)
}
