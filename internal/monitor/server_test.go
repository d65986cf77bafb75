package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dhalvorsen/urdash/internal/connection"
)

// stubSource is a controllable Source.
type stubSource struct {
	mu      sync.Mutex
	state   connection.State
	running bool
	last    connection.Reply
}

func (s *stubSource) State() connection.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *stubSource) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *stubSource) LastReply() connection.Reply {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

func (s *stubSource) set(state connection.State, running bool, last connection.Reply) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
	s.running = running
	s.last = last
}

func startServer(t *testing.T, src Source) *Server {
	t.Helper()
	srv := NewServer(Config{Port: 0, PollInterval: 10 * time.Millisecond}, src, nil)
	if err := srv.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Stop(ctx)
	})
	return srv
}

func TestServer_Healthz(t *testing.T) {
	src := &stubSource{}
	src.set(connection.StateStarted, true, connection.Reply{
		Text:       "Starting program",
		Seq:        3,
		ReceivedAt: time.Now(),
	})
	srv := startServer(t, src)

	resp, err := http.Get(fmt.Sprintf("http://%s/healthz", srv.Addr()))
	if err != nil {
		t.Fatalf("GET /healthz failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body struct {
		Status    string `json:"status"`
		State     string `json:"state"`
		Running   bool   `json:"running"`
		SessionID string `json:"session_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}

	if body.Status != "ok" {
		t.Errorf("status = %q, want %q", body.Status, "ok")
	}
	if body.State != "started" {
		t.Errorf("state = %q, want %q", body.State, "started")
	}
	if !body.Running {
		t.Error("running = false, want true")
	}
	if body.SessionID == "" {
		t.Error("session_id missing")
	}
}

func TestServer_HealthzDegradedWhenNotRunning(t *testing.T) {
	src := &stubSource{}
	src.set(connection.StateError, false, connection.Reply{})
	srv := startServer(t, src)

	resp, err := http.Get(fmt.Sprintf("http://%s/healthz", srv.Addr()))
	if err != nil {
		t.Fatalf("GET /healthz failed: %v", err)
	}
	defer resp.Body.Close()

	var body struct {
		Status string `json:"status"`
		State  string `json:"state"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Status != "degraded" {
		t.Errorf("status = %q, want %q", body.Status, "degraded")
	}
	if body.State != "error" {
		t.Errorf("state = %q, want %q", body.State, "error")
	}
}

func TestServer_WebSocketStream(t *testing.T) {
	src := &stubSource{}
	src.set(connection.StateConnected, false, connection.Reply{})
	srv := startServer(t, src)

	ws, _, err := websocket.DefaultDialer.Dial(fmt.Sprintf("ws://%s/ws", srv.Addr()), nil)
	if err != nil {
		t.Fatalf("dial websocket: %v", err)
	}
	defer ws.Close()

	// First event is the snapshot.
	var snap Event
	ws.SetReadDeadline(time.Now().Add(time.Second))
	if err := ws.ReadJSON(&snap); err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	if snap.Type != "state" || snap.State != "connected" {
		t.Errorf("snapshot = %+v, want state/connected", snap)
	}

	// A published reply must show up as a reply event.
	src.set(connection.StateStarted, true, connection.Reply{
		Text:       "Starting program",
		Seq:        1,
		ReceivedAt: time.Now(),
	})

	deadline := time.Now().Add(2 * time.Second)
	var gotReply bool
	for time.Now().Before(deadline) && !gotReply {
		var ev Event
		ws.SetReadDeadline(deadline)
		if err := ws.ReadJSON(&ev); err != nil {
			t.Fatalf("read event: %v", err)
		}
		if ev.Type == "reply" {
			gotReply = true
			if ev.Reply != "Starting program" {
				t.Errorf("reply = %q, want %q", ev.Reply, "Starting program")
			}
			if ev.Seq != 1 {
				t.Errorf("seq = %d, want 1", ev.Seq)
			}
		}
	}
	if !gotReply {
		t.Fatal("no reply event received")
	}
}
