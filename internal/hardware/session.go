// Package hardware is the abstraction layer over the bench instruments.
// Each device family (SMU, relay multiplexer) exposes one capability
// interface with a mock and a real implementation selected at connect time;
// everything above this package is backend-agnostic.
package hardware

import (
	"time"

	"github.com/google/uuid"
)

// Backend selects the device implementation behind a session.
type Backend string

const (
	BackendMock Backend = "mock"
	BackendReal Backend = "real"
)

// Session represents one connected device. Sessions are exclusively owned
// by their client: created on connect, destroyed on disconnect or on an
// abort-triggered safe-disconnect. At most one session per device family is
// active at a time.
type Session struct {
	ID        string    `json:"id"`
	Backend   Backend   `json:"backend"`
	Channel   int       `json:"channel,omitempty"`
	Address   string    `json:"address,omitempty"`
	OpenedAt  time.Time `json:"opened_at"`
}

func newSession(backend Backend, channel int, address string) *Session {
	return &Session{
		ID:       uuid.NewString(),
		Backend:  backend,
		Channel:  channel,
		Address:  address,
		OpenedAt: time.Now(),
	}
}
