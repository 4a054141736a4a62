// Package runstate implements the global run lifecycle state machine.
//
// Exactly one Manager exists per controller. Every hardware or protocol
// operation is gated on its state, and all mutation goes through the
// transition methods under a single mutex, so concurrent readers always
// observe a consistent snapshot.
package runstate

import (
	"io"
	"log/slog"
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/optolab/ivctl/pkg/domain"
)

// transitions maps an event to the states it is allowed to fire from.
// fault and reset accept any source state and are handled separately.
var transitions = map[string][]domain.RunState{
	"arm":      {domain.StateIdle},
	"start":    {domain.StateArmed},
	"complete": {domain.StateRunning},
	"abort":    {domain.StateArmed, domain.StateRunning},
}

// Manager is the single-writer run state machine. The abort flag lives
// outside the mutex so sweep loops can poll it without contending with
// status readers.
type Manager struct {
	mu           sync.Mutex
	state        domain.RunState
	version      int64
	protocolName string
	startedAt    time.Time
	lastError    string

	abort          atomic.Bool
	stepsCompleted atomic.Int64
	totalSteps     atomic.Int64

	hooksMu sync.Mutex
	hooks   []func()

	logger *slog.Logger
}

// NewManager creates a Manager in the IDLE state.
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Manager{state: domain.StateIdle, logger: logger}
}

func (m *Manager) apply(event string, to domain.RunState) error {
	allowed, ok := transitions[event]
	if ok {
		permitted := false
		for _, s := range allowed {
			if s == m.state {
				permitted = true
				break
			}
		}
		if !permitted {
			m.logger.Warn("rejected transition", "event", event, "state", m.state)
			return &domain.StateError{State: m.state, Event: event}
		}
	}
	from := m.state
	m.state = to
	m.version++
	m.logger.Info("state transition", "from", from, "to", to, "event", event)
	return nil
}

// Arm prepares for a run: IDLE -> ARMED. Clears a stale abort flag.
func (m *Manager) Arm() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.apply("arm", domain.StateArmed); err != nil {
		return err
	}
	m.abort.Store(false)
	return nil
}

// Start begins the run: ARMED -> RUNNING. Records the protocol name and
// start timestamp and clears the abort flag.
func (m *Manager) Start(protocolName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.apply("start", domain.StateRunning); err != nil {
		return err
	}
	m.protocolName = protocolName
	m.startedAt = time.Now()
	m.lastError = ""
	m.abort.Store(false)
	m.stepsCompleted.Store(0)
	m.totalSteps.Store(0)
	return nil
}

// Complete ends a successful run: RUNNING -> IDLE.
func (m *Manager) Complete() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.apply("complete", domain.StateIdle); err != nil {
		return err
	}
	m.protocolName = ""
	m.startedAt = time.Time{}
	return nil
}

// Abort requests cooperative cancellation: ARMED/RUNNING -> ABORTED. The
// abort flag is raised before the transition and stays set until the next
// arm/start so in-flight loops are guaranteed to observe it. Shutdown hooks
// (hardware safe-disconnect) fire after the state change.
func (m *Manager) Abort() error {
	m.mu.Lock()
	err := m.apply("abort", domain.StateAborted)
	if err == nil {
		m.abort.Store(true)
	}
	m.mu.Unlock()
	if err != nil {
		return err
	}
	m.runHooks()
	return nil
}

// Fault records an error and forces ERROR from any state.
func (m *Manager) Fault(msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_ = m.apply("fault", domain.StateFaulted)
	m.lastError = msg
}

// Reset returns to IDLE from any state, clears the stored error, and fires
// the hardware safe-disconnect hooks.
func (m *Manager) Reset() {
	m.mu.Lock()
	_ = m.apply("reset", domain.StateIdle)
	m.lastError = ""
	m.protocolName = ""
	m.startedAt = time.Time{}
	m.stepsCompleted.Store(0)
	m.totalSteps.Store(0)
	m.mu.Unlock()
	m.runHooks()
}

// AbortRequested reports whether cancellation has been requested. Checked
// at step boundaries and between sweep points; never preempts an in-flight
// instrument transaction.
func (m *Manager) AbortRequested() bool {
	return m.abort.Load()
}

// SetProgress updates the run progress counters for status readers.
func (m *Manager) SetProgress(completed, total int) {
	m.stepsCompleted.Store(int64(completed))
	m.totalSteps.Store(int64(total))
}

// State returns the current state.
func (m *Manager) State() domain.RunState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Snapshot returns a consistent read-only view for status queries.
func (m *Manager) Snapshot() domain.RunSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return domain.RunSnapshot{
		State:          m.state,
		Version:        m.version,
		ProtocolName:   m.protocolName,
		StartedAt:      m.startedAt,
		LastError:      m.lastError,
		AbortRequested: m.abort.Load(),
		StepsCompleted: int(m.stepsCompleted.Load()),
		TotalSteps:     int(m.totalSteps.Load()),
	}
}

// RegisterShutdownHook adds a callback fired on abort and reset. Hardware
// clients register their safe-disconnect here so any run-ending path leaves
// outputs disabled.
func (m *Manager) RegisterShutdownHook(fn func()) {
	m.hooksMu.Lock()
	defer m.hooksMu.Unlock()
	m.hooks = append(m.hooks, fn)
}

func (m *Manager) runHooks() {
	m.hooksMu.Lock()
	hooks := make([]func(), len(m.hooks))
	copy(hooks, m.hooks)
	m.hooksMu.Unlock()
	for _, fn := range hooks {
		fn()
	}
}

// Sleep waits up to d, returning early (true) if abort is requested. Used
// by the wait action and between sweep points to keep worst-case abort
// latency at one poll interval.
func (m *Manager) Sleep(d time.Duration) bool {
	const poll = 10 * time.Millisecond
	deadline := time.Now().Add(d)
	for {
		if m.abort.Load() {
			return true
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return false
		}
		if remaining > poll {
			remaining = poll
		}
		time.Sleep(remaining)
	}
}
