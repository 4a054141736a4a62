package graph

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/optolab/ivctl/pkg/domain"
)

func TestGenerateMermaid(t *testing.T) {
	def := &domain.ProtocolDefinition{
		Name: "led-iv",
		Steps: []domain.Step{
			{Action: "smu/connect", Params: map[string]any{"backend": "mock"}},
			{Action: "smu/sweep", Params: map[string]any{"start": 0, "stop": 8, "points": 41}, CaptureAs: "iv"},
			{Action: "data/save", Params: map[string]any{"data": "$iv"}},
		},
	}

	out := GenerateMermaid(def)
	assert.True(t, strings.HasPrefix(out, "graph TD\n"))
	assert.Contains(t, out, `start(("led-iv"))`)
	assert.Contains(t, out, `s0[["smu/connect (1 params)"]]`)
	assert.Contains(t, out, `s2[/"data/save (1 params)"/]`)
	assert.Contains(t, out, `s1 -- "$iv" --> s2`)
	assert.Contains(t, out, `s2 --> done`)
}

func TestGenerateMermaidEmptyProtocol(t *testing.T) {
	out := GenerateMermaid(&domain.ProtocolDefinition{Name: "empty"})
	assert.Contains(t, out, `start(("empty"))`)
	assert.NotContains(t, out, "done")
}
