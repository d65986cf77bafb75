package connection

import (
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Client owns a single dashboard server connection. A dedicated worker
// goroutine holds the socket, drives all state transitions, and republishes
// every inbound line through the reply gate. Callers interact only through
// Send and WaitForReply.
//
// The protocol is strictly half-duplex: one command, then one reply. Callers
// must pair each successful Send with exactly one WaitForReply before issuing
// the next command. Concurrent callers must serialize externally; the client
// does not correlate replies beyond temporal ordering.
type Client struct {
	cfg    Config
	logger *slog.Logger

	// Reply gate. mu guards everything below; notify is closed and replaced
	// on every publish so any number of waiters observe the broadcast.
	mu      sync.Mutex
	conn    net.Conn
	state   State
	last    Reply
	seq     uint64
	sentSeq uint64 // sequence observed at the last successful Send
	notify  chan struct{}
	started bool

	// Serializes writers. The wire protocol cannot interleave commands.
	sendMu sync.Mutex

	stop      chan struct{} // closed once by Close, never reopened
	done      chan struct{} // closed when the worker exits
	closeOnce sync.Once
}

// NewClient creates a dashboard connection client. It does not touch the
// network until Start is called.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg.withDefaults(),
		logger: logger,
		state:  StateDisconnected,
		notify: make(chan struct{}),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Start establishes the initial connection and spawns the worker goroutine.
// It blocks until the first connect attempt resolves: nil once connected, or
// an error after the reconnect budget is exhausted. Calling Start twice, or
// after Close, is an error.
func (c *Client) Start() error {
	select {
	case <-c.stop:
		return ErrClosed
	default:
	}

	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return ErrStarted
	}
	c.started = true
	c.mu.Unlock()

	first := make(chan error, 1)
	go c.run(first)
	return <-first
}

// Close shuts the client down: sets the stop flag, joins the worker, and
// closes any live socket. Idempotent and safe from any goroutine. The client
// cannot be restarted; construct a new one instead.
func (c *Client) Close() error {
	c.closeOnce.Do(func() { close(c.stop) })

	c.mu.Lock()
	started := c.started
	c.mu.Unlock()

	if started {
		<-c.done
		return nil
	}

	// Never started: there is no worker to perform teardown.
	c.mu.Lock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.state = StateDisconnected
	c.mu.Unlock()
	return nil
}

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// IsRunning reports whether the worker is alive and has published at least
// one reply since the last (re)connect.
func (c *Client) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateStarted {
		return false
	}
	select {
	case <-c.done:
		return false
	default:
		return true
	}
}

// LastReply returns the most recently published reply. Reply.Seq is zero if
// nothing has been received yet.
func (c *Client) LastReply() Reply {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// Send writes one command to the dashboard socket. The caller supplies the
// trailing newline. Send retries within the reconnect budget while the worker
// re-establishes a broken connection; a returned error means the command was
// not delivered and no remote state change may be assumed. A successful Send
// resets the staleness marker so the next WaitForReply blocks for a reply
// published after this command.
func (c *Client) Send(command string) error {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	payload := []byte(command)
	deadline := time.Now().Add(c.cfg.ReconnectBudget)

	for {
		select {
		case <-c.stop:
			return ErrClosed
		default:
		}

		// Snapshot the sequence before writing: the reply may be published
		// between the write completing and this goroutine running again.
		c.mu.Lock()
		conn := c.conn
		observed := c.seq
		c.mu.Unlock()

		if conn == nil {
			if time.Now().After(deadline) {
				return ErrNotConnected
			}
			c.sleep(c.cfg.RetryDelay)
			continue
		}

		conn.SetWriteDeadline(time.Now().Add(c.cfg.IOTimeout))
		_, err := conn.Write(payload)
		if err == nil {
			c.mu.Lock()
			c.sentSeq = observed
			c.mu.Unlock()
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("send %q: %w", strings.TrimSpace(command), err)
		}

		// The worker notices the broken socket on its next read and drives
		// reconnection; retry until the budget runs out.
		c.logger.Debug("send failed, awaiting reconnect", "error", err)
		c.sleep(c.cfg.RetryDelay)
	}
}

// WaitForReply blocks until the worker publishes a reply newer than the one
// observed at the last Send, then returns its text. On timeout it returns
// whatever the last published reply holds together with ErrTimeout; callers
// must tolerate a stale or empty value in that case. A timeout of zero or
// less uses the configured default.
func (c *Client) WaitForReply(timeout time.Duration) (string, error) {
	if timeout <= 0 {
		timeout = c.cfg.ReplyTimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		c.mu.Lock()
		if c.seq > c.sentSeq {
			// Consume: a repeated wait must not see this reply again.
			c.sentSeq = c.seq
			text := c.last.Text
			c.mu.Unlock()
			return text, nil
		}
		notify := c.notify
		stale := c.last.Text
		c.mu.Unlock()

		select {
		case <-notify:
		case <-timer.C:
			return stale, ErrTimeout
		case <-c.stop:
			return stale, ErrClosed
		}
	}
}

// run is the worker loop. It is the only goroutine that mutates state or
// replaces the socket. first receives the outcome of the initial connect.
func (c *Client) run(first chan<- error) {
	defer close(c.done)
	defer c.finish()

	if !c.connect() {
		first <- fmt.Errorf("dashboard %s: %w", c.addr(), ErrNotConnected)
		return
	}
	first <- nil

	buf := make([]byte, c.cfg.ReadBufferSize)
	for {
		select {
		case <-c.stop:
			return
		default:
		}

		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()
		if conn == nil {
			if !c.connect() {
				c.logger.Warn("reconnect budget exhausted, worker exiting", "addr", c.addr())
				return
			}
			continue
		}

		conn.SetReadDeadline(time.Now().Add(c.cfg.IOTimeout))
		n, err := conn.Read(buf)
		if n > 0 {
			c.publish(decode(buf[:n]))
			c.setState(StateStarted)
		}
		if err != nil {
			select {
			case <-c.stop:
				return
			default:
			}
			// Timeout, reset, or remote close: recover by reconnecting.
			c.setState(StateError)
			c.logger.Debug("receive failed", "error", err)
			c.teardown()
			if !c.connect() {
				c.logger.Warn("reconnect budget exhausted, worker exiting", "addr", c.addr())
				return
			}
		}
	}
}

// connect dials the dashboard server, retrying until the reconnect budget is
// exhausted. Idempotent: returns immediately if a socket already exists.
// Worker-only, apart from the guarantee that no worker exists yet when Start
// triggers the initial attempt.
func (c *Client) connect() bool {
	c.mu.Lock()
	if c.conn != nil {
		c.mu.Unlock()
		return true
	}
	c.mu.Unlock()

	addr := c.addr()
	deadline := time.Now().Add(c.cfg.ReconnectBudget)

	for time.Now().Before(deadline) {
		select {
		case <-c.stop:
			return false
		default:
		}

		d := net.Dialer{Timeout: c.cfg.IOTimeout}
		conn, err := d.Dial("tcp", addr)
		if err != nil {
			c.logger.Debug("dial failed", "addr", addr, "error", err)
			c.sleep(c.cfg.RetryDelay)
			continue
		}
		if tc, ok := conn.(*net.TCPConn); ok {
			// Single-line commands must not sit in Nagle's buffer.
			tc.SetNoDelay(true)
		}

		c.mu.Lock()
		c.conn = conn
		c.state = StateConnected
		c.mu.Unlock()

		c.logger.Info("dashboard connected", "addr", addr)

		// The dashboard needs a moment after accept before it reads input.
		if c.cfg.SettleDelay > 0 {
			c.sleep(c.cfg.SettleDelay)
		}
		return true
	}
	return false
}

// teardown closes and discards the socket. The old handle is always closed
// before connect can install a replacement, so at most one live socket exists
// at any time.
func (c *Client) teardown() {
	c.mu.Lock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.mu.Unlock()
}

// publish installs a new reply and wakes every waiter.
func (c *Client) publish(text string) {
	c.mu.Lock()
	c.seq++
	c.last = Reply{Text: text, Seq: c.seq, ReceivedAt: time.Now()}
	close(c.notify)
	c.notify = make(chan struct{})
	c.mu.Unlock()
}

// finish runs exactly once as the worker exits: closes any socket, signals
// the gate a final time so no waiter stays blocked, and settles the terminal
// state. Explicit shutdown ends Disconnected; an exhausted reconnect budget
// leaves the transient Error state in place.
func (c *Client) finish() {
	stopped := false
	select {
	case <-c.stop:
		stopped = true
	default:
	}

	c.mu.Lock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	if stopped {
		c.state = StateDisconnected
	}
	close(c.notify)
	c.notify = make(chan struct{})
	c.mu.Unlock()
}

func (c *Client) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func (c *Client) addr() string {
	return net.JoinHostPort(c.cfg.Host, strconv.Itoa(c.cfg.Port))
}

// sleep pauses for d or until the stop flag is set, whichever comes first.
func (c *Client) sleep(d time.Duration) {
	select {
	case <-c.stop:
	case <-time.After(d):
	}
}

// decode turns a raw dashboard payload into reply text. Responses are
// newline-terminated UTF-8; control bytes other than tab and inner newlines
// are dropped and trailing whitespace is trimmed.
func decode(raw []byte) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, ch := range raw {
		if ch >= 0x20 || ch == '\n' || ch == '\t' {
			b.WriteByte(ch)
		}
	}
	return strings.TrimRight(b.String(), " \t\r\n")
}
