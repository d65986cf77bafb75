package connection

import (
	"errors"
	"time"
)

// Errors
var (
	ErrNotConnected = errors.New("not connected")
	ErrTimeout      = errors.New("operation timeout")
	ErrClosed       = errors.New("client closed")
	ErrStarted      = errors.New("already started")
)

// State describes the dashboard connection as observed by callers.
// Transitions are driven by the worker goroutine only.
type State int

const (
	StateDisconnected State = iota
	StateConnected
	StateStarted
	StatePaused
	StateError
)

// String returns the lowercase name of the state.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnected:
		return "connected"
	case StateStarted:
		return "started"
	case StatePaused:
		return "paused"
	case StateError:
		return "error"
	}
	return "unknown"
}

// Reply is the most recently decoded dashboard response.
type Reply struct {
	Text       string    // Decoded response text, trailing CR/LF stripped
	Seq        uint64    // Monotonic publish sequence number (0 = no reply yet)
	ReceivedAt time.Time // Local timestamp when the read returned
}

// Config configures a dashboard connection client.
type Config struct {
	Host            string        // Robot controller hostname or IP
	Port            int           // Dashboard server port
	ReconnectBudget time.Duration // Max wall-clock time for (re)establishing a connection
	IOTimeout       time.Duration // Per-operation socket read/write deadline
	SettleDelay     time.Duration // Pause after connect before the dashboard accepts input
	RetryDelay      time.Duration // Pause between dial or write retries
	ReplyTimeout    time.Duration // Default WaitForReply timeout
	ReadBufferSize  int           // Max bytes consumed per read
}

// DefaultConfig returns the reference deployment defaults.
func DefaultConfig() Config {
	return Config{
		Port:            29999,
		ReconnectBudget: 10 * time.Second,
		IOTimeout:       1 * time.Second,
		SettleDelay:     500 * time.Millisecond,
		RetryDelay:      100 * time.Millisecond,
		ReplyTimeout:    1 * time.Second,
		ReadBufferSize:  1024,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.Port == 0 {
		c.Port = def.Port
	}
	if c.ReconnectBudget == 0 {
		c.ReconnectBudget = def.ReconnectBudget
	}
	if c.IOTimeout == 0 {
		c.IOTimeout = def.IOTimeout
	}
	if c.RetryDelay == 0 {
		c.RetryDelay = def.RetryDelay
	}
	if c.ReplyTimeout == 0 {
		c.ReplyTimeout = def.ReplyTimeout
	}
	if c.ReadBufferSize == 0 {
		c.ReadBufferSize = def.ReadBufferSize
	}
	return c
}
