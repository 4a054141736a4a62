package ivctl_test

import (
	"context"
	"fmt"

	ivctl "github.com/optolab/ivctl"
	"github.com/optolab/ivctl/pkg/adapters/memory"
	"github.com/optolab/ivctl/pkg/dsl"
)

// Example runs a YAML protocol against the mock bench.
func Example() {
	repo := memory.NewRepository(map[string]string{
		"led-iv": `
name: led-iv
steps:
  - action: smu/connect
    params: {backend: mock}
  - action: smu/configure
    params: {compliance: 0.1}
  - action: smu/sweep
    params: {start: 0, stop: 8, points: 41}
    capture_as: iv
  - action: smu/disconnect
`,
	})

	ctrl := ivctl.New(ivctl.WithRepository(repo))
	result, err := ctrl.Run(context.Background(), "led-iv", nil)
	if err != nil {
		panic(err)
	}
	fmt.Println(result.Success, result.StepsCompleted, result.TotalSteps)
	// Output: true 4 4
}

// ExampleController_RunDefinition builds a protocol in code with the dsl
// package instead of loading YAML.
func ExampleController_RunDefinition() {
	def, err := dsl.New("spot-check").
		Step("smu/connect").Param("backend", "mock").
		Step("smu/measure").Capture("point").
		Step("smu/disconnect").
		Build()
	if err != nil {
		panic(err)
	}

	ctrl := ivctl.New()
	result, err := ctrl.RunDefinition(context.Background(), def, nil)
	if err != nil {
		panic(err)
	}
	fmt.Println(result.Success)
	// Output: true
}
