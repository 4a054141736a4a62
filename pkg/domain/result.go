package domain

// ExecutionResult aggregates one protocol run. CapturedData is the full
// execution context at termination: on failure or abort it holds the
// captures of the steps that completed.
type ExecutionResult struct {
	Success        bool           `json:"success"`
	Name           string         `json:"name"`
	StepsCompleted int            `json:"steps_completed"`
	TotalSteps     int            `json:"total_steps"`
	Aborted        bool           `json:"aborted"`
	Error          string         `json:"error,omitempty"`
	CapturedData   map[string]any `json:"captured_data"`
}
