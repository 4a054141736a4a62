package dsl

import (
	"github.com/optolab/ivctl/internal/loader"
	"github.com/optolab/ivctl/pkg/domain"
)

// Builder accumulates protocol steps. Methods return the Builder so calls
// chain; Param and Capture apply to the most recent Step.
type Builder struct {
	def domain.ProtocolDefinition
}

// New starts a protocol definition with the given name.
func New(name string) *Builder {
	return &Builder{def: domain.ProtocolDefinition{Name: name}}
}

// Describe sets the human-readable description.
func (b *Builder) Describe(description string) *Builder {
	b.def.Description = description
	return b
}

// Version sets the protocol version string.
func (b *Builder) Version(version string) *Builder {
	b.def.Version = version
	return b
}

// Step appends a step with the given action.
func (b *Builder) Step(action string) *Builder {
	b.def.Steps = append(b.def.Steps, domain.Step{Action: action})
	return b
}

// Param sets a parameter on the current step. Values may be literals or
// "$name" references to earlier captures.
func (b *Builder) Param(key string, value any) *Builder {
	step := b.current()
	if step.Params == nil {
		step.Params = make(map[string]any)
	}
	step.Params[key] = value
	return b
}

// Capture binds the current step's result to a context variable.
func (b *Builder) Capture(name string) *Builder {
	b.current().CaptureAs = name
	return b
}

func (b *Builder) current() *domain.Step {
	if len(b.def.Steps) == 0 {
		// Param/Capture before any Step: create an empty step that
		// Build's validation will reject with a clear message.
		b.def.Steps = append(b.def.Steps, domain.Step{})
	}
	return &b.def.Steps[len(b.def.Steps)-1]
}

// Build validates and returns the definition.
func (b *Builder) Build() (*domain.ProtocolDefinition, error) {
	def := b.def
	if err := loader.Validate(&def); err != nil {
		return nil, err
	}
	return &def, nil
}
