// Package ivctl orchestrates current-voltage characterization runs on an
// optoelectronic probe bench: a source-measure unit, a relay multiplexer
// routing it to pixels and illumination LEDs, and YAML protocols describing
// the measurement sequence.
//
// The Controller is the high-level entry point. It wraps the run state
// machine, the hardware clients, the protocol loader, and the execution
// engine behind a small API that the CLI, HTTP, and MCP surfaces share.
package ivctl

import (
	"context"
	"io"
	"log/slog"

	"github.com/optolab/ivctl/internal/calibration"
	"github.com/optolab/ivctl/internal/hardware"
	"github.com/optolab/ivctl/internal/loader"
	"github.com/optolab/ivctl/internal/mockdev"
	"github.com/optolab/ivctl/internal/runstate"
	"github.com/optolab/ivctl/internal/runtime"
	"github.com/optolab/ivctl/pkg/adapters/memory"
	"github.com/optolab/ivctl/pkg/domain"
	"github.com/optolab/ivctl/pkg/ports"
)

// Controller wires the characterization core together. Construct it with
// New; the zero value is not usable.
type Controller struct {
	run      *runstate.Manager
	loader   *loader.Loader
	registry *runtime.Registry
	engine   *runtime.Engine
	smu      *hardware.SMUClient
	relays   *hardware.RelayClient

	repo           ports.ProtocolRepository
	sink           ports.ResultSink
	cal            *calibration.Module
	smuTransport   ports.Transport
	relayTransport ports.Transport
	logger         *slog.Logger
}

// Option configures the Controller.
type Option func(*Controller)

// WithRepository injects the protocol source. Defaults to an empty
// in-memory repository.
func WithRepository(repo ports.ProtocolRepository) Option {
	return func(c *Controller) { c.repo = repo }
}

// WithResultSink injects the destination for data/save steps.
func WithResultSink(sink ports.ResultSink) Option {
	return func(c *Controller) { c.sink = sink }
}

// WithCalibration installs the current-to-irradiance calibration used by
// irradiance-driven sweeps.
func WithCalibration(m *calibration.Module) Option {
	return func(c *Controller) { c.cal = m }
}

// WithSMUTransport injects the instrument link used by real SMU backends.
func WithSMUTransport(t ports.Transport) Option {
	return func(c *Controller) { c.smuTransport = t }
}

// WithRelayTransport injects the serial link used by real relay backends.
func WithRelayTransport(t ports.Transport) Option {
	return func(c *Controller) { c.relayTransport = t }
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

// New initializes a Controller with the mock bench available out of the
// box; real backends additionally need the transport options.
func New(opts ...Option) *Controller {
	c := &Controller{}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if c.repo == nil {
		c.repo = memory.NewRepository(nil)
	}

	c.run = runstate.NewManager(c.logger)
	c.loader = loader.New(c.repo, c.logger)

	led := mockdev.NewLED()
	var smuOpts []hardware.SMUOption
	if c.smuTransport != nil {
		smuOpts = append(smuOpts, hardware.WithSMUTransport(c.smuTransport))
	}
	c.smu = hardware.NewSMUClient(c.run, led, c.logger, smuOpts...)
	var relayOpts []hardware.RelayOption
	if c.relayTransport != nil {
		relayOpts = append(relayOpts, hardware.WithRelayTransport(c.relayTransport))
	}
	c.relays = hardware.NewRelayClient(c.run, c.logger, relayOpts...)

	c.registry = runtime.NewRegistry()
	runtime.BindActions(c.registry, runtime.Deps{
		Run:         c.run,
		SMU:         c.smu,
		Relays:      c.relays,
		Calibration: c.cal,
		Sink:        c.sink,
		Logger:      c.logger,
	})
	c.engine = runtime.NewEngine(c.run, c.registry, c.logger)
	return c
}

// Run loads the named protocol and executes it to completion, abort, or
// first failure. Blocks for the duration of the run.
func (c *Controller) Run(ctx context.Context, name string, params map[string]any) (domain.ExecutionResult, error) {
	def, err := c.loader.Load(name)
	if err != nil {
		return domain.ExecutionResult{Name: name, Error: err.Error()}, err
	}
	return c.engine.Execute(ctx, def, params)
}

// RunDefinition executes an already-built definition, bypassing the
// repository. Callers assembling protocols programmatically use this.
func (c *Controller) RunDefinition(ctx context.Context, def *domain.ProtocolDefinition, params map[string]any) (domain.ExecutionResult, error) {
	if err := loader.Validate(def); err != nil {
		return domain.ExecutionResult{Name: def.Name, Error: err.Error()}, err
	}
	return c.engine.Execute(ctx, def, params)
}

// RunAsync starts the named protocol on a background goroutine. The run
// is claimed synchronously, so a busy controller or an unknown protocol
// fails here; the returned channel delivers the final result.
func (c *Controller) RunAsync(ctx context.Context, name string, params map[string]any) (<-chan domain.ExecutionResult, error) {
	def, err := c.loader.Load(name)
	if err != nil {
		return nil, err
	}
	// Arming now reserves the run; the engine takes over from ARMED.
	if err := c.run.Arm(); err != nil {
		return nil, err
	}
	done := make(chan domain.ExecutionResult, 1)
	go func() {
		result, _ := c.engine.Execute(ctx, def, params)
		done <- result
	}()
	return done, nil
}

// Abort requests cooperative cancellation of the active run.
func (c *Controller) Abort() error {
	return c.run.Abort()
}

// Reset returns the controller to IDLE from any state, safe-disconnecting
// all hardware.
func (c *Controller) Reset() {
	c.run.Reset()
}

// Status returns a consistent snapshot of the run state.
func (c *Controller) Status() domain.RunSnapshot {
	return c.run.Snapshot()
}

// Protocols lists the names the repository offers.
func (c *Controller) Protocols() ([]string, error) {
	return c.loader.List()
}

// ReloadProtocols drops all cached definitions so subsequent loads
// re-read the repository. Useful when protocol files change under a
// long-running server.
func (c *Controller) ReloadProtocols() {
	c.loader.ClearCache()
}

// ValidateProtocol parses and validates the named protocol without
// executing it.
func (c *Controller) ValidateProtocol(name string) (*domain.ProtocolDefinition, error) {
	return c.loader.Reload(name)
}

// SMU exposes the SMU client for direct, protocol-free operation. The
// interactive MCP tools use this.
func (c *Controller) SMU() *hardware.SMUClient { return c.smu }

// Relays exposes the relay client for direct operation.
func (c *Controller) Relays() *hardware.RelayClient { return c.relays }

// Calibration returns the installed calibration module, or nil.
func (c *Controller) Calibration() *calibration.Module { return c.cal }
