package domain

// Step is a single protocol instruction: a namespaced action verb, its
// parameters, and an optional capture binding for the handler result.
// Parameter values may be literals or variable references of the form
// "$identifier", resolved from prior captures at execution time.
type Step struct {
	Action    string         `json:"action" yaml:"action" mapstructure:"action"`
	Params    map[string]any `json:"params,omitempty" yaml:"params,omitempty" mapstructure:"params"`
	CaptureAs string         `json:"capture_as,omitempty" yaml:"capture_as,omitempty" mapstructure:"capture_as"`
}

// ProtocolDefinition is a named, ordered step sequence. Definitions are
// immutable once loaded; the loader owns the cached instance.
type ProtocolDefinition struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Version     string `json:"version,omitempty" yaml:"version,omitempty"`
	Steps       []Step `json:"steps" yaml:"steps"`
}
