package domain

import "fmt"

// StateError is returned when an operation is disallowed in the current
// run state. It is a local rejection; the state machine is left unchanged.
type StateError struct {
	State RunState
	Event string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("event %q not allowed in state %s", e.Event, e.State)
}

// ValidationError reports a malformed sweep specification or protocol step.
// StepIndex is -1 when the error is not tied to a particular step.
type ValidationError struct {
	StepIndex int
	Reason    string
}

func (e *ValidationError) Error() string {
	if e.StepIndex < 0 {
		return fmt.Sprintf("validation failed: %s", e.Reason)
	}
	return fmt.Sprintf("step %d invalid: %s", e.StepIndex, e.Reason)
}

// NotFoundError is returned when a named protocol is absent from the repository.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("protocol not found: %s", e.Name)
}

// ActionNotFoundError is returned for a step whose action identifier has no
// registered handler.
type ActionNotFoundError struct {
	Action string
}

func (e *ActionNotFoundError) Error() string {
	return fmt.Sprintf("unknown action: %s", e.Action)
}

// VariableNotFoundError is returned when a $name parameter reference has no
// matching capture in the execution context.
type VariableNotFoundError struct {
	Name string
}

func (e *VariableNotFoundError) Error() string {
	return fmt.Sprintf("variable not captured: $%s", e.Name)
}

// ConnectionError wraps a failed or timed-out device connection attempt.
type ConnectionError struct {
	Device  string
	Address string
	Err     error
}

func (e *ConnectionError) Error() string {
	if e.Address == "" {
		return fmt.Sprintf("%s connection failed: %v", e.Device, e.Err)
	}
	return fmt.Sprintf("%s connection to %s failed: %v", e.Device, e.Address, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// DeviceFault is an instrument-reported fault, e.g. a compliance trip.
type DeviceFault struct {
	Device string
	Reason string
}

func (e *DeviceFault) Error() string {
	return fmt.Sprintf("%s fault: %s", e.Device, e.Reason)
}

// CalibrationError is returned under the strict extrapolation policy when a
// conversion input falls outside the sampled calibration domain.
type CalibrationError struct {
	Quantity string
	Value    float64
	Min, Max float64
}

func (e *CalibrationError) Error() string {
	return fmt.Sprintf("%s %g outside calibrated domain [%g, %g]",
		e.Quantity, e.Value, e.Min, e.Max)
}
