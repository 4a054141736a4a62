package hardware

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/optolab/ivctl/pkg/ports"
)

// Relay board command offsets, matching the bench controller's serial
// protocol: OFF is the 1-indexed relay number, ON adds the board offset.
const (
	pixelOnOffset = 100
	ledOnOffset   = 10
)

// relayBackend switches individual relays. Implementations are serialized
// by the client.
type relayBackend interface {
	connect(ctx context.Context, address string) error
	close() error
	setRelay(board string, relay int, on bool) error
}

// mockRelay tracks switch state without hardware. A short settle emulates
// the mechanical switching delay so protocol timing stays realistic.
type mockRelay struct {
	states map[string]map[int]bool
}

func newMockRelay() *mockRelay {
	return &mockRelay{states: map[string]map[int]bool{}}
}

func (m *mockRelay) connect(ctx context.Context, address string) error { return nil }

func (m *mockRelay) close() error { return nil }

func (m *mockRelay) setRelay(board string, relay int, on bool) error {
	time.Sleep(time.Millisecond)
	if m.states[board] == nil {
		m.states[board] = map[int]bool{}
	}
	m.states[board][relay] = on
	return nil
}

// realRelay sends the numeric switching commands over the serial transport.
type realRelay struct {
	transport ports.Transport
}

func newRealRelay(transport ports.Transport) *realRelay {
	return &realRelay{transport: transport}
}

func (r *realRelay) connect(ctx context.Context, address string) error {
	if r.transport == nil {
		return errors.New("no relay transport configured")
	}
	return r.transport.Open(ctx, address)
}

func (r *realRelay) close() error {
	return r.transport.Close()
}

func (r *realRelay) setRelay(board string, relay int, on bool) error {
	cmd := relay
	if on {
		switch board {
		case "pixel":
			cmd = pixelOnOffset + relay
		case "led":
			cmd = ledOnOffset + relay
		}
	}
	return r.transport.Send(context.Background(), fmt.Sprintf("%d", cmd))
}
