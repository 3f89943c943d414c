package server

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"wsecho/config"
	"wsecho/pkg/logger"
)

func newTestServer(t *testing.T) (*httptest.Server, *Registry) {
	t.Helper()

	cfg := &config.Config{AppHost: "localhost", AppPort: "0", AppMode: TestMode}
	reg := NewRegistry()
	go reg.Run()

	srv := New(cfg, reg, logger.New(logger.DevelopmentMode))
	ts := httptest.NewServer(srv.Engine())
	t.Cleanup(func() {
		ts.Close()
		reg.Stop()
	})
	return ts, reg
}

func wsURL(ts *httptest.Server) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts), nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	return conn
}

func TestEchoText(t *testing.T) {
	ts, _ := newTestServer(t)
	conn := dial(t, ts)
	defer conn.Close()

	if err := conn.WriteMessage(websocket.TextMessage, []byte("hello")); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	mt, reply, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if mt != websocket.TextMessage {
		t.Fatalf("expected text frame, got type %d", mt)
	}
	if string(reply) != "hello" {
		t.Fatalf("expected %q, got %q", "hello", reply)
	}
}

func TestEchoBinary(t *testing.T) {
	ts, _ := newTestServer(t)
	conn := dial(t, ts)
	defer conn.Close()

	payload := []byte{0x00, 0x01, 0xfe, 0xff}
	if err := conn.WriteMessage(websocket.BinaryMessage, payload); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	mt, reply, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if mt != websocket.BinaryMessage {
		t.Fatalf("expected binary frame, got type %d", mt)
	}
	if !bytes.Equal(reply, payload) {
		t.Fatalf("expected %v, got %v", payload, reply)
	}
}

func TestEchoEmptyMessage(t *testing.T) {
	ts, _ := newTestServer(t)
	conn := dial(t, ts)
	defer conn.Close()

	if err := conn.WriteMessage(websocket.TextMessage, []byte{}); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	_, reply, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if len(reply) != 0 {
		t.Fatalf("expected empty reply, got %q", reply)
	}
}

func TestEchoOrdering(t *testing.T) {
	ts, _ := newTestServer(t)
	conn := dial(t, ts)
	defer conn.Close()

	const n = 100
	for i := 0; i < n; i++ {
		msg := fmt.Sprintf("%d", i)
		if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
			t.Fatalf("write %d failed: %v", i, err)
		}
	}

	for i := 0; i < n; i++ {
		_, reply, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read %d failed: %v", i, err)
		}
		if want := fmt.Sprintf("%d", i); string(reply) != want {
			t.Fatalf("reply %d: expected %q, got %q", i, want, reply)
		}
	}
}

func TestConnectionIsolation(t *testing.T) {
	ts, _ := newTestServer(t)
	connA := dial(t, ts)
	defer connA.Close()
	connB := dial(t, ts)
	defer connB.Close()

	if err := connA.WriteMessage(websocket.TextMessage, []byte("only for A")); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	_, reply, err := connA.ReadMessage()
	if err != nil {
		t.Fatalf("read on A failed: %v", err)
	}
	if string(reply) != "only for A" {
		t.Fatalf("expected %q on A, got %q", "only for A", reply)
	}

	connB.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	if _, stray, err := connB.ReadMessage(); err == nil {
		t.Fatalf("connection B received a stray message: %q", stray)
	}
}

func TestListenerResilience(t *testing.T) {
	ts, _ := newTestServer(t)

	connA := dial(t, ts)
	// Abrupt close, no closing handshake.
	connA.Close()

	connB := dial(t, ts)
	defer connB.Close()

	if err := connB.WriteMessage(websocket.TextMessage, []byte("still here")); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	_, reply, err := connB.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(reply) != "still here" {
		t.Fatalf("expected %q, got %q", "still here", reply)
	}
}

func TestReceivedMessageLog(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	defer restore()

	ts, _ := newTestServer(t)
	conn := dial(t, ts)
	defer conn.Close()

	if err := conn.WriteMessage(websocket.TextMessage, []byte("hello")); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if _, _, err := conn.ReadMessage(); err != nil {
		t.Fatalf("read failed: %v", err)
	}

	want := "received message: hello"
	for _, entry := range logs.All() {
		if entry.Message == want {
			return
		}
	}
	t.Fatalf("log line %q not found", want)
}

func TestHealthEndpoint(t *testing.T) {
	ts, reg := newTestServer(t)
	waitForRunning(t, reg, true)

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	if !strings.Contains(string(body), "healthy") {
		t.Fatalf("expected healthy status, got %s", body)
	}
}

func TestHealthWithoutRegistryLoop(t *testing.T) {
	cfg := &config.Config{AppHost: "localhost", AppPort: "0", AppMode: TestMode}
	// Run is never started on purpose.
	srv := New(cfg, NewRegistry(), logger.New(logger.DevelopmentMode))
	ts := httptest.NewServer(srv.Engine())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
}

func TestRegistryCount(t *testing.T) {
	ts, reg := newTestServer(t)

	conn := dial(t, ts)
	waitForCount(t, reg, 1)

	conn.Close()
	waitForCount(t, reg, 0)
}

func waitForCount(t *testing.T, reg *Registry, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if reg.Count() == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("registry count never reached %d (have %d)", want, reg.Count())
}
