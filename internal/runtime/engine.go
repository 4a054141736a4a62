// Package runtime executes protocol definitions step by step.
//
// The engine owns the run lifecycle: it drives the run manager through
// ARMED and RUNNING, dispatches each step through the action registry, and
// lands the manager back on IDLE, ABORTED, or ERROR. Exactly one run is in
// flight at a time; the run manager's transition rules enforce it.
package runtime

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/optolab/ivctl/internal/runstate"
	"github.com/optolab/ivctl/pkg/domain"
)

// Engine executes protocols against a static action registry.
type Engine struct {
	run      *runstate.Manager
	registry *Registry
	logger   *slog.Logger
}

// NewEngine builds an Engine.
func NewEngine(run *runstate.Manager, registry *Registry, logger *slog.Logger) *Engine {
	return &Engine{run: run, registry: registry, logger: logger}
}

// Execute runs def to completion, abort, or first failure. The run manager
// must be IDLE or ARMED; any other state rejects the run with a StateError
// and leaves the state untouched.
//
// Steps execute in order. Before each step the abort flag is checked; a
// requested abort ends the run with aborted=true and a nil error, keeping
// every capture made so far. A step failure faults the run manager and
// returns the step error alongside the partial result.
func (e *Engine) Execute(ctx context.Context, def *domain.ProtocolDefinition, initial map[string]any) (domain.ExecutionResult, error) {
	if e.run.State() == domain.StateIdle {
		if err := e.run.Arm(); err != nil {
			return domain.ExecutionResult{Name: def.Name, Error: err.Error()}, err
		}
	}
	if err := e.run.Start(def.Name); err != nil {
		return domain.ExecutionResult{Name: def.Name, Error: err.Error()}, err
	}

	execCtx := NewExecutionContext(initial)
	total := len(def.Steps)
	completed := 0
	e.run.SetProgress(0, total)
	e.logger.Info("protocol started", "name", def.Name, "steps", total)

	for i, step := range def.Steps {
		if e.run.AbortRequested() {
			return e.finishAborted(def.Name, completed, total, execCtx), nil
		}

		params, err := execCtx.ResolveParams(step.Params)
		if err != nil {
			return e.finishFaulted(def.Name, i, step.Action, completed, total, execCtx, err)
		}

		e.logger.Info("step started", "index", i, "action", step.Action)
		value, err := e.registry.Execute(ctx, step.Action, params)
		if err != nil {
			return e.finishFaulted(def.Name, i, step.Action, completed, total, execCtx, err)
		}
		if step.CaptureAs != "" {
			execCtx.Set(step.CaptureAs, value)
		}
		completed = i + 1
		e.run.SetProgress(completed, total)
	}

	if e.run.AbortRequested() {
		return e.finishAborted(def.Name, completed, total, execCtx), nil
	}
	if err := e.run.Complete(); err != nil {
		// The state moved under us, which only an external abort can do.
		if e.run.AbortRequested() {
			return e.finishAborted(def.Name, completed, total, execCtx), nil
		}
		return e.finishFaulted(def.Name, total, "complete", completed, total, execCtx, err)
	}

	e.logger.Info("protocol complete", "name", def.Name, "steps", completed)
	return domain.ExecutionResult{
		Success:        true,
		Name:           def.Name,
		StepsCompleted: completed,
		TotalSteps:     total,
		CapturedData:   execCtx.Vars(),
	}, nil
}

func (e *Engine) finishAborted(name string, completed, total int, execCtx *ExecutionContext) domain.ExecutionResult {
	// An external Abort() already transitioned the manager; only move it
	// ourselves if the flag was raised without the transition landing yet.
	if e.run.State() == domain.StateRunning {
		_ = e.run.Abort()
	}
	e.logger.Warn("protocol aborted", "name", name, "steps_completed", completed)
	return domain.ExecutionResult{
		Name:           name,
		StepsCompleted: completed,
		TotalSteps:     total,
		Aborted:        true,
		CapturedData:   execCtx.Vars(),
	}
}

func (e *Engine) finishFaulted(name string, index int, action string, completed, total int, execCtx *ExecutionContext, err error) (domain.ExecutionResult, error) {
	msg := fmt.Sprintf("step %d (%s): %v", index, action, err)
	e.run.Fault(msg)
	e.logger.Error("protocol failed", "name", name, "step", index, "action", action, "err", err)
	return domain.ExecutionResult{
		Name:           name,
		StepsCompleted: completed,
		TotalSteps:     total,
		Error:          msg,
		CapturedData:   execCtx.Vars(),
	}, err
}
