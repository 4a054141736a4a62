package hardware

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/optolab/ivctl/internal/mockdev"
	"github.com/optolab/ivctl/internal/runstate"
	"github.com/optolab/ivctl/internal/sweep"
	"github.com/optolab/ivctl/pkg/domain"
	"github.com/optolab/ivctl/pkg/ports"
)

// DefaultConnectTimeout bounds a device connection attempt.
const DefaultConnectTimeout = 5 * time.Second

// SMUClient owns the source-measure-unit session. All operations are
// serialized on one mutex, mirroring the single in-flight command a
// physical instrument accepts; a second concurrent caller blocks until the
// first completes.
type SMUClient struct {
	mu sync.Mutex

	run            *runstate.Manager
	logger         *slog.Logger
	led            *mockdev.LED
	transport      ports.Transport
	connectTimeout time.Duration

	session  *Session
	backend  smuBackend
	mode     domain.SourceMode
	outputOn bool
}

// SMUOption configures an SMUClient.
type SMUOption func(*SMUClient)

// WithSMUTransport injects the link used by real-backend sessions.
func WithSMUTransport(t ports.Transport) SMUOption {
	return func(c *SMUClient) { c.transport = t }
}

// WithSMUConnectTimeout overrides the connection attempt bound.
func WithSMUConnectTimeout(d time.Duration) SMUOption {
	return func(c *SMUClient) { c.connectTimeout = d }
}

// NewSMUClient builds the SMU client. Mock sessions drive led; the client
// registers its safe-disconnect with the run manager so abort and reset
// always leave the output disabled.
func NewSMUClient(run *runstate.Manager, led *mockdev.LED, logger *slog.Logger, opts ...SMUOption) *SMUClient {
	c := &SMUClient{
		run:            run,
		logger:         logger,
		led:            led,
		mode:           domain.SourceVoltage,
		connectTimeout: DefaultConnectTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	run.RegisterShutdownHook(c.SafeShutdown)
	return c
}

var errNotConnected = errors.New("not connected")

// Connect opens a session on the requested backend. An existing session is
// safely closed first, preserving the one-session-per-family invariant.
// The attempt is bounded by the configured timeout.
func (c *SMUClient) Connect(ctx context.Context, backend Backend, channel int, address string) (*Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != nil {
		c.shutdownLocked()
	}

	var b smuBackend
	switch backend {
	case BackendMock:
		b = newMockSMU(c.led)
	case BackendReal:
		b = newRealSMU(c.transport, channel)
	default:
		return nil, &domain.ValidationError{StepIndex: -1, Reason: "unknown backend: " + string(backend)}
	}

	cctx, cancel := context.WithTimeout(ctx, c.connectTimeout)
	defer cancel()
	if err := b.connect(cctx, address); err != nil {
		return nil, &domain.ConnectionError{Device: "smu", Address: address, Err: err}
	}

	c.backend = b
	c.session = newSession(backend, channel, address)
	c.mode = domain.SourceVoltage
	c.outputOn = false
	c.logger.Info("smu connected", "backend", backend, "channel", channel, "address", address)
	return c.session, nil
}

// Disconnect closes the session, driving the output off first.
func (c *SMUClient) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil
	}
	c.shutdownLocked()
	c.logger.Info("smu disconnected")
	return nil
}

// Session returns the active session, or nil.
func (c *SMUClient) Session() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// OutputOn reports whether the source output is currently enabled.
func (c *SMUClient) OutputOn() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.outputOn
}

// Configure sets compliance and per-point integration time.
func (c *SMUClient) Configure(compliance float64, complianceType string, integrationTime float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return &domain.ConnectionError{Device: "smu", Err: errNotConnected}
	}
	return c.backend.configure(compliance, complianceType, integrationTime)
}

// SetSourceMode selects whether the SMU sources voltage or current.
func (c *SMUClient) SetSourceMode(mode domain.SourceMode) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return &domain.ConnectionError{Device: "smu", Err: errNotConnected}
	}
	if mode != domain.SourceVoltage && mode != domain.SourceCurrent {
		return &domain.ValidationError{StepIndex: -1, Reason: "unknown source mode: " + string(mode)}
	}
	if err := c.backend.setSourceMode(mode); err != nil {
		return err
	}
	c.mode = mode
	return nil
}

// SetValue sets the sourced quantity in the current mode.
func (c *SMUClient) SetValue(x float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return &domain.ConnectionError{Device: "smu", Err: errNotConnected}
	}
	return c.backend.setValue(x)
}

// SetOutput enables or disables the source output.
func (c *SMUClient) SetOutput(enabled bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return &domain.ConnectionError{Device: "smu", Err: errNotConnected}
	}
	if err := c.backend.setOutput(enabled); err != nil {
		return err
	}
	c.outputOn = enabled
	return nil
}

// Measure takes a single reading.
func (c *SMUClient) Measure() (domain.Point, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return domain.Point{}, &domain.ConnectionError{Device: "smu", Err: errNotConnected}
	}
	return c.measureLocked()
}

func (c *SMUClient) measureLocked() (domain.Point, error) {
	v, i, err := c.backend.measure()
	if err != nil {
		return domain.Point{}, err
	}
	return domain.Point{Voltage: v, Current: i, Timestamp: time.Now()}, nil
}

// Sweep generates the point list for spec and runs it as a list sweep,
// which guarantees identical behavior across backends and per-point abort
// granularity.
func (c *SMUClient) Sweep(spec domain.SweepSpec) (domain.SweepResult, error) {
	values, err := sweep.Generate(spec)
	if err != nil {
		return domain.SweepResult{}, err
	}
	return c.ListSweep(values, spec.IntegrationTime)
}

// ListSweep applies each source value in order, waiting the integration
// time before measuring. The abort flag is polled between points; when it
// trips, the partial sequence is returned with Aborted set and no error.
// The output is always driven off before returning, including on error.
func (c *SMUClient) ListSweep(values []float64, integrationTime float64) (result domain.SweepResult, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return domain.SweepResult{}, &domain.ConnectionError{Device: "smu", Err: errNotConnected}
	}
	if len(values) == 0 {
		return domain.SweepResult{}, &domain.ValidationError{StepIndex: -1, Reason: "list sweep requires at least one value"}
	}

	if err := c.backend.setOutput(true); err != nil {
		return domain.SweepResult{}, err
	}
	c.outputOn = true
	defer func() {
		// Hardware safety: whatever ended the sweep, leave the output off.
		if offErr := c.backend.setOutput(false); offErr != nil && err == nil {
			err = offErr
		}
		c.outputOn = false
	}()

	settle := time.Duration(integrationTime * float64(time.Second))
	points := make([]domain.Point, 0, len(values))

	c.logger.Info("list sweep started", "points", len(values), "integration_s", integrationTime)
	for _, x := range values {
		if c.run.AbortRequested() {
			c.logger.Warn("list sweep aborted", "collected", len(points))
			return domain.SweepResult{Points: len(points), Results: points, Aborted: true}, nil
		}
		if err := c.backend.setValue(x); err != nil {
			return domain.SweepResult{Points: len(points), Results: points}, err
		}
		if settle > 0 && c.run.Sleep(settle) {
			c.logger.Warn("list sweep aborted during settle", "collected", len(points))
			return domain.SweepResult{Points: len(points), Results: points, Aborted: true}, nil
		}
		p, err := c.measureLocked()
		if err != nil {
			return domain.SweepResult{Points: len(points), Results: points}, err
		}
		points = append(points, p)
	}

	c.logger.Info("list sweep complete", "points", len(points))
	return domain.SweepResult{Points: len(points), Results: points}, nil
}

// SafeShutdown forces the output off and closes the session. It is wired
// into the run manager's abort/reset hooks and must never fail loudly.
func (c *SMUClient) SafeShutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return
	}
	c.logger.Warn("smu safe shutdown", "output_on", c.outputOn)
	c.shutdownLocked()
}

func (c *SMUClient) shutdownLocked() {
	if c.backend != nil {
		_ = c.backend.setOutput(false)
		_ = c.backend.close()
	}
	c.backend = nil
	c.session = nil
	c.outputOn = false
}
