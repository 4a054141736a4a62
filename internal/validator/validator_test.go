package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optolab/ivctl/pkg/domain"
)

func proto(steps ...domain.Step) *domain.ProtocolDefinition {
	return &domain.ProtocolDefinition{Name: "p", Steps: steps}
}

func TestLintCleanProtocol(t *testing.T) {
	findings := Lint(proto(
		domain.Step{Action: "smu/connect"},
		domain.Step{Action: "smu/sweep", Params: map[string]any{"points": 41}, CaptureAs: "iv"},
		domain.Step{Action: "data/save", Params: map[string]any{"data": "$iv"}},
		domain.Step{Action: "smu/disconnect"},
	))
	assert.Empty(t, findings)
}

func TestLintDeviceUseBeforeConnect(t *testing.T) {
	findings := Lint(proto(
		domain.Step{Action: "smu/measure"},
		domain.Step{Action: "relays/pixel", Params: map[string]any{"pixel": 0}},
	))
	require.Len(t, findings, 2)
	assert.Contains(t, findings[0].Message, "smu/measure before smu/connect")
	assert.Contains(t, findings[1].Message, "relays/pixel before relays/connect")
}

func TestLintDisconnectWithoutConnect(t *testing.T) {
	findings := Lint(proto(domain.Step{Action: "smu/disconnect"}))
	require.Len(t, findings, 1)
	assert.Equal(t, 0, findings[0].StepIndex)
}

func TestLintUseAfterDisconnect(t *testing.T) {
	findings := Lint(proto(
		domain.Step{Action: "smu/connect"},
		domain.Step{Action: "smu/disconnect"},
		domain.Step{Action: "smu/measure"},
	))
	require.Len(t, findings, 1)
	assert.Equal(t, 2, findings[0].StepIndex)
}

func TestLintDanglingReference(t *testing.T) {
	findings := Lint(proto(
		domain.Step{Action: "smu/connect"},
		domain.Step{Action: "smu/set", Params: map[string]any{"value": "$bias"}},
	))
	require.Len(t, findings, 1)
	assert.Contains(t, findings[0].Message, "$bias")
}

func TestLintReferenceToLaterCapture(t *testing.T) {
	findings := Lint(proto(
		domain.Step{Action: "data/save", Params: map[string]any{"data": "$iv"}},
		domain.Step{Action: "smu/connect"},
		domain.Step{Action: "smu/sweep", Params: map[string]any{"points": 5}, CaptureAs: "iv"},
	))
	require.Len(t, findings, 1)
	assert.Equal(t, 0, findings[0].StepIndex)
}

func TestLintDuplicateCapture(t *testing.T) {
	findings := Lint(proto(
		domain.Step{Action: "smu/connect"},
		domain.Step{Action: "smu/measure", CaptureAs: "point"},
		domain.Step{Action: "smu/measure", CaptureAs: "point"},
	))
	require.Len(t, findings, 1)
	assert.Contains(t, findings[0].Message, "overwrites")
}

func TestLintSweepWithoutGeometry(t *testing.T) {
	findings := Lint(proto(
		domain.Step{Action: "smu/connect"},
		domain.Step{Action: "smu/sweep", Params: map[string]any{"start": 0, "stop": 8}},
	))
	require.Len(t, findings, 1)
	assert.Contains(t, findings[0].Message, "points")
}

func TestLintNegativeWait(t *testing.T) {
	findings := Lint(proto(
		domain.Step{Action: "wait", Params: map[string]any{"seconds": -1.0}},
	))
	require.Len(t, findings, 1)
}
