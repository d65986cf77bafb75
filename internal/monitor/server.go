package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/dhalvorsen/urdash/internal/connection"
	"github.com/dhalvorsen/urdash/internal/version"
)

// Source is the dashboard client being observed.
type Source interface {
	State() connection.State
	IsRunning() bool
	LastReply() connection.Reply
}

// Config configures the monitor server.
type Config struct {
	Port         int           // 0 picks an ephemeral port
	PollInterval time.Duration // How often the source is sampled
}

// Event is one observation pushed to WebSocket subscribers.
type Event struct {
	Type    string    `json:"type"` // "state" or "reply"
	State   string    `json:"state"`
	Running bool      `json:"running"`
	Reply   string    `json:"reply,omitempty"`
	Seq     uint64    `json:"seq,omitempty"`
	At      time.Time `json:"at"`
}

// health is the /healthz response body.
type health struct {
	Status      string    `json:"status"` // "ok" or "degraded"
	State       string    `json:"state"`
	Running     bool      `json:"running"`
	SessionID   string    `json:"session_id"`
	Version     string    `json:"version"`
	LastReplyAt time.Time `json:"last_reply_at,omitempty"`
}

// Server serves the monitoring endpoints.
type Server struct {
	cfg       Config
	src       Source
	logger    *slog.Logger
	sessionID uuid.UUID

	upgrader websocket.Upgrader
	httpSrv  *http.Server
	ln       net.Listener
	done     chan struct{}
	stopOnce sync.Once
}

// NewServer creates a monitor server for the given source.
func NewServer(cfg Config, src Source, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = 250 * time.Millisecond
	}
	return &Server{
		cfg:       cfg,
		src:       src,
		logger:    logger,
		sessionID: uuid.New(),
		done:      make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Start begins listening. Non-blocking; use Addr for the bound address.
func (s *Server) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/ws", s.handleWS)

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.cfg.Port))
	if err != nil {
		return fmt.Errorf("monitor listen: %w", err)
	}
	s.ln = ln
	s.httpSrv = &http.Server{Handler: mux}

	go func() {
		if err := s.httpSrv.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("monitor server failed", "error", err)
		}
	}()

	s.logger.Info("monitor server started", "addr", ln.Addr().String())
	return nil
}

// Addr returns the bound listen address.
func (s *Server) Addr() string {
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

// Stop shuts the server down, closing active WebSocket connections.
func (s *Server) Stop(ctx context.Context) error {
	s.stopOnce.Do(func() { close(s.done) })
	if s.httpSrv == nil {
		return nil
	}
	if err := s.httpSrv.Shutdown(ctx); err != nil {
		return s.httpSrv.Close()
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	state := s.src.State()
	running := s.src.IsRunning()
	last := s.src.LastReply()

	status := "ok"
	if !running {
		status = "degraded"
	}

	resp := health{
		Status:    status,
		State:     state.String(),
		Running:   running,
		SessionID: s.sessionID.String(),
		Version:   version.Version,
	}
	if last.Seq > 0 {
		resp.LastReplyAt = last.ReceivedAt
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// handleWS streams state changes and new replies until the subscriber
// disconnects. The source is polled; the dashboard engine itself stays free
// of observer plumbing.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	// Initial snapshot so subscribers start from a known state.
	lastState := s.src.State()
	lastSeq := s.src.LastReply().Seq
	if err := conn.WriteJSON(s.stateEvent(lastState)); err != nil {
		return
	}

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
		}

		if state := s.src.State(); state != lastState {
			lastState = state
			if err := conn.WriteJSON(s.stateEvent(state)); err != nil {
				return
			}
		}
		if reply := s.src.LastReply(); reply.Seq > lastSeq {
			lastSeq = reply.Seq
			ev := Event{
				Type:    "reply",
				State:   lastState.String(),
				Running: s.src.IsRunning(),
				Reply:   reply.Text,
				Seq:     reply.Seq,
				At:      reply.ReceivedAt,
			}
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		}
	}
}

func (s *Server) stateEvent(state connection.State) Event {
	return Event{
		Type:    "state",
		State:   state.String(),
		Running: s.src.IsRunning(),
		At:      time.Now(),
	}
}
