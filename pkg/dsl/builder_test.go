package dsl_test

import (
	"context"
	"testing"

	"github.com/neilotoole/slogt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ivctl "github.com/optolab/ivctl"
	"github.com/optolab/ivctl/pkg/domain"
	"github.com/optolab/ivctl/pkg/dsl"
)

func TestBuilderProducesDefinition(t *testing.T) {
	def, err := dsl.New("led-iv").
		Describe("Forward IV curve").
		Version("1.0").
		Step("smu/connect").Param("backend", "mock").
		Step("smu/sweep").
		Param("start", 0.0).Param("stop", 8.0).Param("points", 41).
		Capture("iv").
		Step("smu/disconnect").
		Build()
	require.NoError(t, err)

	assert.Equal(t, "led-iv", def.Name)
	require.Len(t, def.Steps, 3)
	assert.Equal(t, "smu/sweep", def.Steps[1].Action)
	assert.Equal(t, 41, def.Steps[1].Params["points"])
	assert.Equal(t, "iv", def.Steps[1].CaptureAs)
	assert.Empty(t, def.Steps[0].CaptureAs)
}

func TestBuilderRejectsInvalidAction(t *testing.T) {
	_, err := dsl.New("bad").Step("Not An Action").Build()
	var valErr *domain.ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, 0, valErr.StepIndex)
}

func TestBuilderRejectsEmptyProtocol(t *testing.T) {
	_, err := dsl.New("empty").Build()
	var valErr *domain.ValidationError
	require.ErrorAs(t, err, &valErr)
}

func TestBuiltDefinitionExecutes(t *testing.T) {
	def, err := dsl.New("programmatic").
		Step("smu/connect").Param("backend", "mock").
		Step("smu/measure").Capture("point").
		Step("smu/disconnect").
		Build()
	require.NoError(t, err)

	ctrl := ivctl.New(ivctl.WithLogger(slogt.New(t)))
	result, err := ctrl.RunDefinition(context.Background(), def, nil)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Contains(t, result.CapturedData, "point")
}
