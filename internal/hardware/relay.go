package hardware

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/optolab/ivctl/internal/runstate"
	"github.com/optolab/ivctl/pkg/domain"
	"github.com/optolab/ivctl/pkg/ports"
)

// Pixel and LED channel counts of the multiplexer.
const (
	NumPixels      = 8
	NumLEDChannels = 4
)

// RelaySelection is the multiplexer's current routing. -1 means nothing is
// selected in that group.
type RelaySelection struct {
	Pixel int `json:"pixel"`
	LED   int `json:"led"`
}

// RelayClient owns the relay-multiplexer session. Selections within a group
// are exclusive: selecting one pixel deselects all others. Operations are
// serialized on one mutex like the SMU client.
type RelayClient struct {
	mu sync.Mutex

	run            *runstate.Manager
	logger         *slog.Logger
	transport      ports.Transport
	connectTimeout time.Duration

	session *Session
	backend relayBackend
	pixel   int
	led     int
}

// RelayOption configures a RelayClient.
type RelayOption func(*RelayClient)

// WithRelayTransport injects the serial link used by real-backend sessions.
func WithRelayTransport(t ports.Transport) RelayOption {
	return func(c *RelayClient) { c.transport = t }
}

// WithRelayConnectTimeout overrides the connection attempt bound.
func WithRelayConnectTimeout(d time.Duration) RelayOption {
	return func(c *RelayClient) { c.connectTimeout = d }
}

// NewRelayClient builds the relay client and registers its safe-disconnect
// with the run manager.
func NewRelayClient(run *runstate.Manager, logger *slog.Logger, opts ...RelayOption) *RelayClient {
	c := &RelayClient{
		run:            run,
		logger:         logger,
		pixel:          -1,
		led:            -1,
		connectTimeout: DefaultConnectTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	run.RegisterShutdownHook(c.SafeShutdown)
	return c
}

// Connect opens a relay session on the requested backend.
func (c *RelayClient) Connect(ctx context.Context, backend Backend, address string) (*Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != nil {
		c.shutdownLocked()
	}

	var b relayBackend
	switch backend {
	case BackendMock:
		b = newMockRelay()
	case BackendReal:
		b = newRealRelay(c.transport)
	default:
		return nil, &domain.ValidationError{StepIndex: -1, Reason: "unknown backend: " + string(backend)}
	}

	cctx, cancel := context.WithTimeout(ctx, c.connectTimeout)
	defer cancel()
	if err := b.connect(cctx, address); err != nil {
		return nil, &domain.ConnectionError{Device: "relays", Address: address, Err: err}
	}

	c.backend = b
	c.session = newSession(backend, 0, address)
	c.pixel = -1
	c.led = -1
	c.logger.Info("relays connected", "backend", backend, "address", address)
	return c.session, nil
}

// Disconnect opens all relays and closes the session.
func (c *RelayClient) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil
	}
	c.shutdownLocked()
	c.logger.Info("relays disconnected")
	return nil
}

// Session returns the active session, or nil.
func (c *RelayClient) Session() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// SelectPixel routes one device-under-test position (0-based), deselecting
// any other pixel first.
func (c *RelayClient) SelectPixel(id int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return &domain.ConnectionError{Device: "relays", Err: errNotConnected}
	}
	if id < 0 || id >= NumPixels {
		return &domain.ValidationError{StepIndex: -1,
			Reason: fmt.Sprintf("pixel %d out of range 0..%d", id, NumPixels-1)}
	}
	if c.pixel == id {
		return nil
	}
	if c.pixel >= 0 {
		if err := c.backend.setRelay("pixel", c.pixel+1, false); err != nil {
			return err
		}
		c.pixel = -1
	}
	if err := c.backend.setRelay("pixel", id+1, true); err != nil {
		return err
	}
	c.pixel = id
	c.logger.Info("pixel selected", "pixel", id)
	return nil
}

// SelectLED routes one illumination channel (0-based), exclusive within
// the LED group.
func (c *RelayClient) SelectLED(channel int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return &domain.ConnectionError{Device: "relays", Err: errNotConnected}
	}
	if channel < 0 || channel >= NumLEDChannels {
		return &domain.ValidationError{StepIndex: -1,
			Reason: fmt.Sprintf("led channel %d out of range 0..%d", channel, NumLEDChannels-1)}
	}
	if c.led == channel {
		return nil
	}
	if c.led >= 0 {
		if err := c.backend.setRelay("led", c.led+1, false); err != nil {
			return err
		}
		c.led = -1
	}
	if err := c.backend.setRelay("led", channel+1, true); err != nil {
		return err
	}
	c.led = channel
	c.logger.Info("led channel selected", "channel", channel)
	return nil
}

// AllOff opens every relay in both groups.
func (c *RelayClient) AllOff() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return &domain.ConnectionError{Device: "relays", Err: errNotConnected}
	}
	return c.allOffLocked()
}

func (c *RelayClient) allOffLocked() error {
	if c.pixel >= 0 {
		if err := c.backend.setRelay("pixel", c.pixel+1, false); err != nil {
			return err
		}
		c.pixel = -1
	}
	if c.led >= 0 {
		if err := c.backend.setRelay("led", c.led+1, false); err != nil {
			return err
		}
		c.led = -1
	}
	return nil
}

// Status returns the current selection.
func (c *RelayClient) Status() RelaySelection {
	c.mu.Lock()
	defer c.mu.Unlock()
	return RelaySelection{Pixel: c.pixel, LED: c.led}
}

// SafeShutdown opens all relays and closes the session; wired into the run
// manager's abort/reset hooks.
func (c *RelayClient) SafeShutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return
	}
	c.logger.Warn("relay safe shutdown")
	c.shutdownLocked()
}

func (c *RelayClient) shutdownLocked() {
	if c.backend != nil {
		_ = c.allOffLocked()
		_ = c.backend.close()
	}
	c.backend = nil
	c.session = nil
	c.pixel = -1
	c.led = -1
}
