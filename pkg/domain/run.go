package domain

import "time"

// RunState is the lifecycle state of the single bench run.
type RunState string

const (
	StateIdle    RunState = "IDLE"
	StateArmed   RunState = "ARMED"
	StateRunning RunState = "RUNNING"
	StateAborted RunState = "ABORTED"
	StateFaulted RunState = "ERROR"
)

// RunSnapshot is a consistent read-only view of the run manager, served
// as-is over the HTTP and MCP status surfaces. Version increases on every
// successful transition, so readers can detect staleness.
type RunSnapshot struct {
	State          RunState  `json:"state"`
	Version        int64     `json:"version"`
	ProtocolName   string    `json:"protocol_name,omitempty"`
	StartedAt      time.Time `json:"started_at,omitzero"`
	LastError      string    `json:"last_error,omitempty"`
	AbortRequested bool      `json:"abort_requested"`
	StepsCompleted int       `json:"steps_completed"`
	TotalSteps     int       `json:"total_steps"`
}
