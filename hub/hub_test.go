package hub

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveHub(t *testing.T, h *Hub) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		h.Register(conn, r.URL.Query().Get("scope"))
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
		h.Unregister(conn)
	}))
	t.Cleanup(server.Close)
	return server
}

func dial(t *testing.T, server *httptest.Server, scope string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "?scope=" + scope
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHubPublishesOnlyToScope(t *testing.T) {
	h := New()
	server := serveHub(t, h)

	tableA := dial(t, server, "1_1")
	tableB := dial(t, server, "1_2")

	require.Eventually(t, func() bool {
		return h.Count("1_1") == 1 && h.Count("1_2") == 1
	}, time.Second, 10*time.Millisecond)

	h.Publish("1_1", EventCheckoutState, map[string]string{"state": "preparing"})

	tableA.SetReadDeadline(time.Now().Add(time.Second))
	_, raw, err := tableA.ReadMessage()
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(raw, &msg))
	assert.Equal(t, EventCheckoutState, msg.Event)
	assert.Equal(t, "preparing", msg.Data.(map[string]interface{})["state"])

	tableB.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	_, _, err = tableB.ReadMessage()
	assert.Error(t, err, "other tables must not receive the event")
}

func TestHubUnregisterOnDisconnect(t *testing.T) {
	h := New()
	server := serveHub(t, h)

	conn := dial(t, server, "2_5")
	require.Eventually(t, func() bool { return h.Count("2_5") == 1 }, time.Second, 10*time.Millisecond)

	conn.Close()
	assert.Eventually(t, func() bool { return h.Count("2_5") == 0 }, time.Second, 10*time.Millisecond)
}

func TestHubDropsClientThatStopsReading(t *testing.T) {
	oldWait := writeWait
	writeWait = 50 * time.Millisecond
	defer func() { writeWait = oldWait }()

	h := New()
	server := serveHub(t, h)

	dial(t, server, "3_1") // never reads
	reader := dial(t, server, "3_2")
	require.Eventually(t, func() bool {
		return h.Count("3_1") == 1 && h.Count("3_2") == 1
	}, time.Second, 10*time.Millisecond)

	payload := strings.Repeat("x", 1<<20)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 256 && h.Count("3_1") > 0; i++ {
			h.Publish("3_1", EventCartUpdate, payload)
		}
	}()

	select {
	case <-done:
	case <-time.After(15 * time.Second):
		t.Fatal("publish blocked on a client that stopped reading")
	}
	assert.Equal(t, 0, h.Count("3_1"))

	// other tables keep receiving events
	h.Publish("3_2", EventCheckoutState, map[string]string{"state": "navigated"})
	reader.SetReadDeadline(time.Now().Add(time.Second))
	_, raw, err := reader.ReadMessage()
	require.NoError(t, err)
	var msg Message
	require.NoError(t, json.Unmarshal(raw, &msg))
	assert.Equal(t, EventCheckoutState, msg.Event)
}
