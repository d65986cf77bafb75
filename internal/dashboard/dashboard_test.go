package dashboard

import (
	"errors"
	"strings"
	"testing"
	"time"
)

// scriptedConn is an in-memory transport returning canned replies.
type scriptedConn struct {
	sent    []string
	replies map[string]string
	sendErr error
	waitErr error
	pending string
}

func (s *scriptedConn) Send(command string) error {
	if s.sendErr != nil {
		return s.sendErr
	}
	s.sent = append(s.sent, command)
	s.pending = s.replies[strings.TrimSuffix(command, "\n")]
	return nil
}

func (s *scriptedConn) WaitForReply(timeout time.Duration) (string, error) {
	if s.waitErr != nil {
		return "", s.waitErr
	}
	return s.pending, nil
}

func TestClient_CommandFormatting(t *testing.T) {
	tests := []struct {
		name string
		call func(c *Client) (string, error)
		want string // wire command including terminator
	}{
		{
			name: "play",
			call: func(c *Client) (string, error) { return c.Play() },
			want: "play\n",
		},
		{
			name: "load",
			call: func(c *Client) (string, error) { return c.Load("pick.urp") },
			want: "load pick.urp\n",
		},
		{
			name: "load installation",
			call: func(c *Client) (string, error) { return c.LoadInstallation("default.installation") },
			want: "load installation default.installation\n",
		},
		{
			name: "popup",
			call: func(c *Client) (string, error) { return c.Popup("check gripper") },
			want: "popup check gripper\n",
		},
		{
			name: "add log",
			call: func(c *Client) (string, error) { return c.AddLog("cycle done") },
			want: "addToLog cycle done\n",
		},
		{
			name: "set user role",
			call: func(c *Client) (string, error) { return c.SetUserRole("operator") },
			want: "setUserRole operator\n",
		},
		{
			name: "unlock protective stop",
			call: func(c *Client) (string, error) { return c.UnlockProtectiveStop() },
			want: "unlock protective stop\n",
		},
		{
			name: "brake release",
			call: func(c *Client) (string, error) { return c.BrakeRelease() },
			want: "brake release\n",
		},
		{
			name: "polyscope version",
			call: func(c *Client) (string, error) { return c.PolyscopeVersion() },
			want: "PolyscopeVersion\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := &scriptedConn{replies: map[string]string{}}
			c := New(conn)
			if _, err := tt.call(c); err != nil {
				t.Fatalf("call failed: %v", err)
			}
			if len(conn.sent) != 1 {
				t.Fatalf("sent %d commands, want 1", len(conn.sent))
			}
			if conn.sent[0] != tt.want {
				t.Errorf("sent %q, want %q", conn.sent[0], tt.want)
			}
		})
	}
}

func TestClient_Play(t *testing.T) {
	conn := &scriptedConn{replies: map[string]string{
		"play": "Starting program",
	}}
	c := New(conn)

	reply, err := c.Play()
	if err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	if reply != "Starting program" {
		t.Errorf("Play reply = %q, want %q", reply, "Starting program")
	}
}

func TestClient_Running(t *testing.T) {
	tests := []struct {
		reply string
		want  bool
	}{
		{"Program running: true", true},
		{"Program running: false", false},
		{"Program running: True", true},
	}

	for _, tt := range tests {
		conn := &scriptedConn{replies: map[string]string{"running": tt.reply}}
		c := New(conn)
		got, err := c.Running()
		if err != nil {
			t.Fatalf("Running failed: %v", err)
		}
		if got != tt.want {
			t.Errorf("Running() with reply %q = %v, want %v", tt.reply, got, tt.want)
		}
	}
}

func TestClient_SendErrorPropagates(t *testing.T) {
	sentinel := errors.New("socket gone")
	conn := &scriptedConn{sendErr: sentinel}
	c := New(conn)

	_, err := c.Stop()
	if !errors.Is(err, sentinel) {
		t.Errorf("Stop error = %v, want wrapped %v", err, sentinel)
	}
}

func TestClient_WaitErrorPropagates(t *testing.T) {
	sentinel := errors.New("timed out")
	conn := &scriptedConn{replies: map[string]string{}, waitErr: sentinel}
	c := New(conn, WithReplyTimeout(50*time.Millisecond))

	_, err := c.RobotMode()
	if !errors.Is(err, sentinel) {
		t.Errorf("RobotMode error = %v, want wrapped %v", err, sentinel)
	}
}
