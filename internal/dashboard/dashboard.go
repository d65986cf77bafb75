package dashboard

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Conn is the transport commands are issued through. The connection engine's
// client satisfies it; an audit tap can wrap it transparently.
type Conn interface {
	// Send writes one newline-terminated command.
	Send(command string) error
	// WaitForReply blocks until the reply to the last sent command arrives,
	// or the timeout elapses.
	WaitForReply(timeout time.Duration) (string, error)
}

// Client issues dashboard commands over a Conn. Commands must not be issued
// concurrently; the dashboard protocol is one request, one reply.
type Client struct {
	conn         Conn
	logger       *slog.Logger
	replyTimeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithReplyTimeout sets how long each command waits for its reply.
func WithReplyTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.replyTimeout = d
	}
}

// New creates a dashboard client on top of an established transport.
func New(conn Conn, opts ...Option) *Client {
	c := &Client{
		conn:         conn,
		logger:       slog.Default(),
		replyTimeout: time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// exec sends one command and returns the reply line. On a reply timeout the
// stale text travels back with the error so callers can inspect it.
func (c *Client) exec(cmd string) (string, error) {
	if err := c.conn.Send(cmd + "\n"); err != nil {
		return "", fmt.Errorf("send %q: %w", cmd, err)
	}
	reply, err := c.conn.WaitForReply(c.replyTimeout)
	if err != nil {
		return reply, fmt.Errorf("reply to %q: %w", cmd, err)
	}
	c.logger.Debug("dashboard command", "cmd", cmd, "reply", reply)
	return reply, nil
}

// Load loads a program file. Expected reply: "Loading program: <program>".
func (c *Client) Load(program string) (string, error) {
	return c.exec("load " + program)
}

// Play starts the loaded program. Expected reply: "Starting program".
func (c *Client) Play() (string, error) {
	return c.exec("play")
}

// Stop stops the running program. Expected reply: "Stopped".
func (c *Client) Stop() (string, error) {
	return c.exec("stop")
}

// Pause pauses the running program. Expected reply: "Pausing program".
func (c *Client) Pause() (string, error) {
	return c.exec("pause")
}

// Shutdown shuts down the robot controller. Expected reply: "Shutting down".
func (c *Client) Shutdown() (string, error) {
	return c.exec("shutdown")
}

// Running reports whether a program is executing. The dashboard answers
// "Program running: true" or "Program running: false".
func (c *Client) Running() (bool, error) {
	reply, err := c.exec("running")
	if err != nil {
		return false, err
	}
	return strings.HasSuffix(strings.ToLower(reply), "true"), nil
}

// RobotMode returns the controller mode, e.g. "Robotmode: RUNNING".
func (c *Client) RobotMode() (string, error) {
	return c.exec("robotmode")
}

// GetLoadedProgram returns the path of the loaded program.
func (c *Client) GetLoadedProgram() (string, error) {
	return c.exec("get loaded program")
}

// Popup shows a popup with the given text on the teach pendant.
func (c *Client) Popup(text string) (string, error) {
	return c.exec("popup " + text)
}

// ClosePopup closes the active popup.
func (c *Client) ClosePopup() (string, error) {
	return c.exec("close popup")
}

// AddLog appends a message to the controller log.
func (c *Client) AddLog(message string) (string, error) {
	return c.exec("addToLog " + message)
}

// SetUserRole sets the active user role on the teach pendant.
func (c *Client) SetUserRole(role string) (string, error) {
	return c.exec("setUserRole " + role)
}

// IsProgramSaved reports whether the loaded program has unsaved changes.
func (c *Client) IsProgramSaved() (string, error) {
	return c.exec("isProgramSaved")
}

// ProgramState returns the execution state, e.g. "PLAYING <program>".
func (c *Client) ProgramState() (string, error) {
	return c.exec("programState")
}

// PolyscopeVersion returns the controller software version.
func (c *Client) PolyscopeVersion() (string, error) {
	return c.exec("PolyscopeVersion")
}

// PowerOn powers on the robot arm. Expected reply: "Powering on".
func (c *Client) PowerOn() (string, error) {
	return c.exec("power on")
}

// PowerOff powers off the robot arm. Expected reply: "Powering off".
func (c *Client) PowerOff() (string, error) {
	return c.exec("power off")
}

// BrakeRelease releases the brakes. Expected reply: "Brake releasing".
func (c *Client) BrakeRelease() (string, error) {
	return c.exec("brake release")
}

// SafetyMode returns the safety mode, e.g. "Safetymode: NORMAL".
func (c *Client) SafetyMode() (string, error) {
	return c.exec("safetymode")
}

// UnlockProtectiveStop releases a protective stop.
func (c *Client) UnlockProtectiveStop() (string, error) {
	return c.exec("unlock protective stop")
}

// CloseSafetyPopup closes the active safety popup.
func (c *Client) CloseSafetyPopup() (string, error) {
	return c.exec("close safety popup")
}

// LoadInstallation loads an installation file. Expected reply:
// "Loading installation: <file>".
func (c *Client) LoadInstallation(file string) (string, error) {
	return c.exec("load installation " + file)
}
