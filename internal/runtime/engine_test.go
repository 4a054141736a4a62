package runtime

import (
	"context"
	"testing"

	"github.com/neilotoole/slogt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optolab/ivctl/internal/hardware"
	"github.com/optolab/ivctl/internal/mockdev"
	"github.com/optolab/ivctl/internal/runstate"
	"github.com/optolab/ivctl/pkg/domain"
)

type testHarness struct {
	run      *runstate.Manager
	registry *Registry
	engine   *Engine
}

func newHarness(t *testing.T) *testHarness {
	t.Helper()
	logger := slogt.New(t)
	run := runstate.NewManager(logger)
	registry := NewRegistry()
	BindActions(registry, Deps{
		Run:    run,
		SMU:    hardware.NewSMUClient(run, mockdev.NewLED(), logger),
		Relays: hardware.NewRelayClient(run, logger),
		Logger: logger,
	})
	return &testHarness{
		run:      run,
		registry: registry,
		engine:   NewEngine(run, registry, logger),
	}
}

func TestExecuteSuccessfulProtocol(t *testing.T) {
	h := newHarness(t)
	def := &domain.ProtocolDefinition{
		Name: "iv-quick",
		Steps: []domain.Step{
			{Action: "smu/connect", Params: map[string]any{"backend": "mock"}},
			{Action: "smu/sweep", Params: map[string]any{"start": 0, "stop": 8, "points": 41}, CaptureAs: "iv"},
			{Action: "smu/disconnect"},
		},
	}

	result, err := h.engine.Execute(context.Background(), def, nil)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 3, result.StepsCompleted)
	assert.Equal(t, 3, result.TotalSteps)
	assert.False(t, result.Aborted)

	iv, ok := result.CapturedData["iv"].(domain.SweepResult)
	require.True(t, ok, "captured iv should be a sweep result")
	assert.Equal(t, 41, iv.Points)

	assert.Equal(t, domain.StateIdle, h.run.State())
}

func TestExecuteFromArmedState(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.run.Arm())

	def := &domain.ProtocolDefinition{
		Name:  "noop",
		Steps: []domain.Step{{Action: "wait", Params: map[string]any{"seconds": 0}}},
	}
	result, err := h.engine.Execute(context.Background(), def, nil)
	require.NoError(t, err)
	assert.True(t, result.Success)
}

func TestExecuteRejectedWhileRunning(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.run.Arm())
	require.NoError(t, h.run.Start("other"))

	def := &domain.ProtocolDefinition{
		Name:  "second",
		Steps: []domain.Step{{Action: "wait"}},
	}
	_, err := h.engine.Execute(context.Background(), def, nil)
	var stateErr *domain.StateError
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, domain.StateRunning, h.run.State())
}

func TestExecuteUnknownActionFaults(t *testing.T) {
	h := newHarness(t)
	def := &domain.ProtocolDefinition{
		Name: "bad",
		Steps: []domain.Step{
			{Action: "wait", Params: map[string]any{"seconds": 0}},
			{Action: "smu/levitate"},
		},
	}

	result, err := h.engine.Execute(context.Background(), def, nil)
	var notFound *domain.ActionNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "smu/levitate", notFound.Action)
	assert.False(t, result.Success)
	assert.Equal(t, 1, result.StepsCompleted)
	assert.Contains(t, result.Error, "smu/levitate")
	assert.Equal(t, domain.StateFaulted, h.run.State())
	assert.Equal(t, result.Error, h.run.Snapshot().LastError)
}

func TestExecuteUnresolvedVariableFaults(t *testing.T) {
	h := newHarness(t)
	def := &domain.ProtocolDefinition{
		Name: "dangling",
		Steps: []domain.Step{
			{Action: "smu/set", Params: map[string]any{"value": "$bias"}},
		},
	}

	_, err := h.engine.Execute(context.Background(), def, nil)
	var missing *domain.VariableNotFoundError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "bias", missing.Name)
	assert.Equal(t, domain.StateFaulted, h.run.State())
}

func TestExecuteResolvesInitialParams(t *testing.T) {
	h := newHarness(t)
	def := &domain.ProtocolDefinition{
		Name: "parameterized",
		Steps: []domain.Step{
			{Action: "smu/connect", Params: map[string]any{"backend": "mock"}},
			{Action: "smu/set", Params: map[string]any{"value": "$bias"}},
			{Action: "smu/disconnect"},
		},
	}

	result, err := h.engine.Execute(context.Background(), def, map[string]any{"bias": 2.5})
	require.NoError(t, err)
	assert.True(t, result.Success)
}

func TestExecuteAbortMidRun(t *testing.T) {
	h := newHarness(t)

	// A handler that records its payload; one variant requests an abort
	// after doing its work, emulating an operator hitting stop.
	h.registry.Register("test/echo", func(ctx context.Context, params map[string]any) (any, error) {
		return params["value"], nil
	})
	h.registry.Register("test/echo-then-abort", func(ctx context.Context, params map[string]any) (any, error) {
		v := params["value"]
		require.NoError(t, h.run.Abort())
		return v, nil
	})

	steps := make([]domain.Step, 10)
	for i := range steps {
		action := "test/echo"
		if i == 2 {
			action = "test/echo-then-abort"
		}
		steps[i] = domain.Step{
			Action:    action,
			Params:    map[string]any{"value": i + 1},
			CaptureAs: captureName(i),
		}
	}
	def := &domain.ProtocolDefinition{Name: "long-run", Steps: steps}

	result, err := h.engine.Execute(context.Background(), def, nil)
	require.NoError(t, err, "abort is not an error")
	assert.True(t, result.Aborted)
	assert.False(t, result.Success)
	assert.Empty(t, result.Error)
	assert.Equal(t, 3, result.StepsCompleted)
	assert.Equal(t, 10, result.TotalSteps)

	// Captures exist for the completed steps only.
	assert.Len(t, result.CapturedData, 3)
	assert.Equal(t, 3, result.CapturedData["s3"])
	assert.NotContains(t, result.CapturedData, "s4")

	assert.Equal(t, domain.StateAborted, h.run.State())
}

func TestExecuteAbortDuringSweepKeepsPartialCapture(t *testing.T) {
	h := newHarness(t)
	h.registry.Register("test/abort", func(ctx context.Context, params map[string]any) (any, error) {
		return nil, h.run.Abort()
	})

	def := &domain.ProtocolDefinition{
		Name: "sweep-then-abort",
		Steps: []domain.Step{
			{Action: "smu/connect", Params: map[string]any{"backend": "mock"}},
			{Action: "smu/sweep", Params: map[string]any{"start": 0, "stop": 8, "points": 5}, CaptureAs: "iv"},
			{Action: "test/abort"},
			{Action: "smu/measure", CaptureAs: "never"},
		},
	}

	result, err := h.engine.Execute(context.Background(), def, nil)
	require.NoError(t, err)
	assert.True(t, result.Aborted)
	assert.Equal(t, 3, result.StepsCompleted)
	assert.Contains(t, result.CapturedData, "iv")
	assert.NotContains(t, result.CapturedData, "never")
}

func captureName(i int) string {
	switch i {
	case 0:
		return "s1"
	case 1:
		return "s2"
	case 2:
		return "s3"
	default:
		return ""
	}
}
