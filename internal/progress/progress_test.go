package progress

import (
	"bytes"
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

func httpHandler(hub *Hub) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.ServeWS)
	return mux
}

func TestReporterDeliversLinesInOrder(t *testing.T) {
	r := NewReporter("run-1", 8)
	r.Infof("step %d", 1)
	r.Warnf("watch out")
	r.Errorf("boom")
	r.Close()

	var got []Line
	for line := range r.Lines() {
		got = append(got, line)
	}

	require.Len(t, got, 3)
	assert.Equal(t, "step 1", got[0].Text)
	assert.Equal(t, LevelInfo, got[0].Level)
	assert.Equal(t, "watch out", got[1].Text)
	assert.Equal(t, LevelWarn, got[1].Level)
	assert.Equal(t, "boom", got[2].Text)
	assert.Equal(t, LevelError, got[2].Level)
	assert.Equal(t, "run-1", got[0].RunID)
}

func TestReporterDropsWhenFull(t *testing.T) {
	r := NewReporter("run-1", 1)
	r.Infof("kept")
	r.Infof("dropped") // buffer full, must not block
	r.Close()

	var got []Line
	for line := range r.Lines() {
		got = append(got, line)
	}
	require.Len(t, got, 1)
	assert.Equal(t, "kept", got[0].Text)
}

func TestTeeWritesLevels(t *testing.T) {
	r := NewReporter("run-1", 8)
	r.Infof("plain line")
	r.Warnf("a warning")
	r.Errorf("an error")
	r.Close()

	var buf bytes.Buffer
	Tee(&buf, nil, r.Lines())

	out := buf.String()
	assert.Contains(t, out, "plain line\n")
	assert.Contains(t, out, "[warn] a warning\n")
	assert.Contains(t, out, "[error] an error\n")
	assert.True(t, strings.Index(out, "plain line") < strings.Index(out, "a warning"))
}

func TestHubBroadcastToWebsocketClient(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Close()

	srv := httptest.NewServer(httpHandler(hub))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// give the hub a moment to register the client
	time.Sleep(50 * time.Millisecond)

	hub.Broadcast(Line{RunID: "run-1", Level: LevelInfo, Text: "hello gui"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(raw, &msg))
	assert.Equal(t, "progress", msg.Type)
	assert.Equal(t, "hello gui", msg.Data.Text)
	assert.Equal(t, "run-1", msg.Data.RunID)
}

func TestHubStaleUnregisterKeepsCurrentClient(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Close()

	old := &client{send: make(chan []byte, 1)}
	current := &client{send: make(chan []byte, 1)}

	hub.register <- old
	hub.register <- current
	// the replaced connection tears down late; must not detach current
	hub.unregister <- old

	hub.Broadcast(Line{RunID: "run-1", Level: LevelInfo, Text: "still here"})

	select {
	case raw := <-current.send:
		var msg Message
		require.NoError(t, json.Unmarshal(raw, &msg))
		assert.Equal(t, "still here", msg.Data.Text)
	case <-time.After(2 * time.Second):
		t.Fatal("current client lost broadcasts after stale unregister")
	}
}

func TestHubBroadcastWithoutClientDoesNotBlock(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Close()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			hub.Broadcast(Line{Text: "nobody listening"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast blocked with no client connected")
	}
}
