package audit

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// sink is where the Tap delivers captured entries. *Recorder satisfies it.
type sink interface {
	Record(Entry)
}

// transport is the command transport being observed. It mirrors the
// dashboard package's Conn so a Tap slots between catalog and engine.
type transport interface {
	Send(command string) error
	WaitForReply(timeout time.Duration) (string, error)
}

// Tap wraps a transport and records every delivered command together with
// the reply that answered it. The dashboard protocol pairs commands and
// replies by temporal order, so the tap relies on the same caller contract:
// one Send, then one WaitForReply.
type Tap struct {
	next    transport
	rec     sink
	session uuid.UUID

	seq     uint64
	command string
	sentAt  time.Time
}

// NewTap creates a tap for one dashboard session.
func NewTap(next transport, rec sink) *Tap {
	return &Tap{
		next:    next,
		rec:     rec,
		session: uuid.New(),
	}
}

// SessionID identifies this tap's session in the audit trail.
func (t *Tap) SessionID() uuid.UUID {
	return t.session
}

// Send forwards the command and remembers it for pairing. Failed sends are
// not recorded; nothing reached the robot.
func (t *Tap) Send(command string) error {
	if err := t.next.Send(command); err != nil {
		return err
	}
	t.seq++
	t.command = strings.TrimSuffix(command, "\n")
	t.sentAt = time.Now()
	return nil
}

// WaitForReply forwards the wait and records the exchange. Timed-out waits
// are recorded with whatever stale text came back, matching what the caller
// observed.
func (t *Tap) WaitForReply(timeout time.Duration) (string, error) {
	reply, err := t.next.WaitForReply(timeout)
	if t.command != "" {
		t.rec.Record(Entry{
			SessionID:  t.session,
			Seq:        t.seq,
			Command:    t.command,
			Reply:      reply,
			SentAt:     t.sentAt,
			ReceivedAt: time.Now(),
		})
		t.command = ""
	}
	return reply, err
}
