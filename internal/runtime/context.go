package runtime

import (
	"strings"

	"github.com/optolab/ivctl/pkg/domain"
)

// ExecutionContext carries the variables of one protocol run. It is created
// empty when the run starts, mutated only by the engine goroutine, and
// discarded when the run ends, so it needs no locking.
type ExecutionContext struct {
	vars map[string]any
}

// NewExecutionContext creates an empty context, seeded with initial
// parameters when provided.
func NewExecutionContext(initial map[string]any) *ExecutionContext {
	vars := make(map[string]any, len(initial))
	for k, v := range initial {
		vars[k] = v
	}
	return &ExecutionContext{vars: vars}
}

// Set stores a captured value under name.
func (c *ExecutionContext) Set(name string, value any) {
	c.vars[name] = value
}

// Get returns the value stored under name.
func (c *ExecutionContext) Get(name string) (any, bool) {
	v, ok := c.vars[name]
	return v, ok
}

// Vars returns a copy of the variable map, used to report captured data in
// the execution result.
func (c *ExecutionContext) Vars() map[string]any {
	out := make(map[string]any, len(c.vars))
	for k, v := range c.vars {
		out[k] = v
	}
	return out
}

// ResolveParams substitutes $name references in the step's parameter values
// with context variables. Only whole-value string references are
// substituted; everything else passes through untouched.
func (c *ExecutionContext) ResolveParams(params map[string]any) (map[string]any, error) {
	if len(params) == 0 {
		return map[string]any{}, nil
	}
	out := make(map[string]any, len(params))
	for k, v := range params {
		resolved, err := c.resolveValue(v)
		if err != nil {
			return nil, err
		}
		out[k] = resolved
	}
	return out, nil
}

func (c *ExecutionContext) resolveValue(v any) (any, error) {
	s, ok := v.(string)
	if !ok || !strings.HasPrefix(s, "$") {
		return v, nil
	}
	name := strings.TrimPrefix(s, "$")
	value, ok := c.vars[name]
	if !ok {
		return nil, &domain.VariableNotFoundError{Name: name}
	}
	return value, nil
}
