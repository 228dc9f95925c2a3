package api

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dialTestHub(t *testing.T, s *Server) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestWebSocketReceivesBroadcast(t *testing.T) {
	s := newTestServer(t)
	conn := dialTestHub(t, s)

	// Give the hub time to register the client before broadcasting.
	time.Sleep(50 * time.Millisecond)
	s.hub.BroadcastProgress("ingest", "loading", "corpus.tsv", 25)

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	var msg ProgressMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("unmarshal %q: %v", data, err)
	}
	if msg.Type != "progress" || msg.Operation != "ingest" || msg.Progress != 25 {
		t.Errorf("message = %+v", msg)
	}
	if msg.Timestamp == "" {
		t.Error("missing timestamp")
	}
}

func TestWebSocketCompleteMessage(t *testing.T) {
	s := newTestServer(t)
	conn := dialTestHub(t, s)

	time.Sleep(50 * time.Millisecond)
	s.hub.BroadcastComplete("ingest", "done", map[string]any{"loaded": 3})

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	var msg ProgressMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatal(err)
	}
	if msg.Type != "complete" || msg.Progress != 100 {
		t.Errorf("message = %+v", msg)
	}
	if msg.Data["loaded"] != 3.0 {
		t.Errorf("data = %v", msg.Data)
	}
}
