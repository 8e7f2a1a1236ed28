package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskhive/taskhive-api/internal/domain"
	"github.com/taskhive/taskhive-api/internal/events"
)

// startTestHub runs a hub behind an httptest server and returns a
// dialer URL for it.
func startTestHub(t *testing.T) (*Hub, string) {
	t.Helper()

	hub := NewHub(nil)

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	server := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	t.Cleanup(func() {
		server.Close()
		cancel()
		<-hub.Done()
	})

	return hub, "ws" + strings.TrimPrefix(server.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()

	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) events.Event {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var event events.Event
	require.NoError(t, json.Unmarshal(msg, &event))
	return event
}

func TestHubGreetsNewSubscribers(t *testing.T) {
	_, url := startTestHub(t)

	conn := dial(t, url)
	greeting := readEvent(t, conn)
	assert.Equal(t, events.Connected, greeting.Name)
	assert.Nil(t, greeting.Task)
}

func TestHubFansOutToEveryClient(t *testing.T) {
	hub, url := startTestHub(t)

	first := dial(t, url)
	second := dial(t, url)
	readEvent(t, first)
	readEvent(t, second)

	task, err := domain.NewTask(uuid.New(), "Broadcast me", "", nil)
	require.NoError(t, err)

	hub.Broadcast(context.Background(), events.Event{Name: events.TaskCreated, Task: task})

	for _, conn := range []*websocket.Conn{first, second} {
		event := readEvent(t, conn)
		assert.Equal(t, events.TaskCreated, event.Name)
		require.NotNil(t, event.Task)
		assert.Equal(t, task.ID, event.Task.ID)
		assert.Equal(t, "Broadcast me", event.Task.Title)
	}
}

func TestHubDeliversEventPerBroadcast(t *testing.T) {
	hub, url := startTestHub(t)

	conn := dial(t, url)
	readEvent(t, conn)

	task, err := domain.NewTask(uuid.New(), "Counted", "", nil)
	require.NoError(t, err)
	task.Status = domain.TaskStatusShared

	// Two view-count bumps mean two frames, one per broadcast.
	for i := 1; i <= 2; i++ {
		task.ViewCount = i
		hub.Broadcast(context.Background(), events.Event{Name: events.ViewCountUpdated, Task: task})
	}

	for i := 1; i <= 2; i++ {
		event := readEvent(t, conn)
		assert.Equal(t, events.ViewCountUpdated, event.Name)
		require.NotNil(t, event.Task)
		assert.Equal(t, i, event.Task.ViewCount)
	}
}

func TestHubBroadcastNeverBlocks(t *testing.T) {
	hub, url := startTestHub(t)

	// A subscriber that never reads.
	conn := dial(t, url)
	_ = conn

	task, err := domain.NewTask(uuid.New(), "Flood", "", nil)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		// Far more frames than the per-client buffer holds; the hub
		// must drop the stalled client instead of blocking here.
		for i := 0; i < defaultSendBufferSize*10; i++ {
			hub.Broadcast(context.Background(), events.Event{Name: events.TaskUpdated, Task: task})
		}
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("broadcast blocked on a slow client")
	}
}

func TestHubShutdownClosesClients(t *testing.T) {
	hub := NewHub(nil)

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	server := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer server.Close()

	conn := dial(t, "ws"+strings.TrimPrefix(server.URL, "http"))
	readEvent(t, conn)

	cancel()
	select {
	case <-hub.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("hub did not stop")
	}

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}
