package traceserver

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
)

func dialTestServer(t *testing.T) (*websocket.Conn, func()) {
	t.Helper()
	srv := New("")
	ts := httptest.NewServer(http.HandlerFunc(srv.handleConn))
	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		ts.Close()
		t.Fatalf("dial: %v", err)
	}
	return conn, func() {
		conn.Close()
		ts.Close()
	}
}

func TestSessionEvaluatesLinesOverWebsocket(t *testing.T) {
	conn, done := dialTestServer(t)
	defer done()

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`let x = 20;`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, []byte(`print(x + 1);`)); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got := string(msg); got != "21\n" {
		t.Errorf("reply = %q, want %q", got, "21\n")
	}
}

func TestSessionReportsErrorsAsTextFrames(t *testing.T) {
	conn, done := dialTestServer(t)
	defer done()

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`print(nope);`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(msg), "UnboundName") {
		t.Errorf("reply = %q, want an UnboundName error", msg)
	}
}
