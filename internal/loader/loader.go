// Package loader resolves protocol names to validated definitions.
//
// Documents come from an injected repository and are parsed once, then
// served from cache until explicitly reloaded. Validation happens at load
// time so a malformed protocol fails before any hardware is touched.
package loader

import (
	"fmt"
	"log/slog"
	"regexp"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/optolab/ivctl/pkg/domain"
	"github.com/optolab/ivctl/pkg/ports"
)

// actionShape is the domain/verb naming rule for step actions. The bare
// form (no slash) is reserved for device-independent actions like wait.
var actionShape = regexp.MustCompile(`^[a-z][a-z0-9_-]*(/[a-z][a-z0-9_-]*)?$`)

// captureShape restricts capture names to plain identifiers so $name
// references stay unambiguous.
var captureShape = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Loader caches parsed protocol definitions keyed by repository name.
type Loader struct {
	mu     sync.Mutex
	repo   ports.ProtocolRepository
	logger *slog.Logger
	cache  map[string]*domain.ProtocolDefinition
}

// New builds a Loader over repo.
func New(repo ports.ProtocolRepository, logger *slog.Logger) *Loader {
	return &Loader{
		repo:   repo,
		logger: logger,
		cache:  make(map[string]*domain.ProtocolDefinition),
	}
}

// List returns the names the repository knows about.
func (l *Loader) List() ([]string, error) {
	return l.repo.List()
}

// Load returns the definition for name, parsing and validating it on first
// use. Later calls hit the cache.
func (l *Loader) Load(name string) (*domain.ProtocolDefinition, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if def, ok := l.cache[name]; ok {
		return def, nil
	}
	def, err := l.loadLocked(name)
	if err != nil {
		return nil, err
	}
	l.cache[name] = def
	return def, nil
}

// Reload drops the cached entry for name and loads it fresh.
func (l *Loader) Reload(name string) (*domain.ProtocolDefinition, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.cache, name)
	def, err := l.loadLocked(name)
	if err != nil {
		return nil, err
	}
	l.cache[name] = def
	return def, nil
}

// ClearCache drops every cached definition. The next Load of any name
// re-reads the repository, so edited protocol files take effect in
// long-running processes.
func (l *Loader) ClearCache() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cache = make(map[string]*domain.ProtocolDefinition)
	l.logger.Info("protocol cache cleared")
}

func (l *Loader) loadLocked(name string) (*domain.ProtocolDefinition, error) {
	raw, err := l.repo.Load(name)
	if err != nil {
		return nil, err
	}
	var def domain.ProtocolDefinition
	if err := yaml.Unmarshal(raw, &def); err != nil {
		return nil, &domain.ValidationError{StepIndex: -1,
			Reason: fmt.Sprintf("protocol %q: %v", name, err)}
	}
	if def.Name == "" {
		def.Name = name
	}
	if err := Validate(&def); err != nil {
		return nil, err
	}
	l.logger.Info("protocol loaded", "name", name, "steps", len(def.Steps))
	return &def, nil
}

// Validate checks the structural rules of a definition: at least one step,
// every action in domain/verb shape, capture names plain identifiers.
func Validate(def *domain.ProtocolDefinition) error {
	if def.Name == "" {
		return &domain.ValidationError{StepIndex: -1, Reason: "protocol has no name"}
	}
	if len(def.Steps) == 0 {
		return &domain.ValidationError{StepIndex: -1, Reason: "protocol has no steps"}
	}
	for i, step := range def.Steps {
		if step.Action == "" {
			return &domain.ValidationError{StepIndex: i, Reason: "step has no action"}
		}
		if !actionShape.MatchString(step.Action) {
			return &domain.ValidationError{StepIndex: i,
				Reason: fmt.Sprintf("action %q is not in domain/verb form", step.Action)}
		}
		if step.CaptureAs != "" && !captureShape.MatchString(step.CaptureAs) {
			return &domain.ValidationError{StepIndex: i,
				Reason: fmt.Sprintf("capture_as %q is not an identifier", step.CaptureAs)}
		}
	}
	return nil
}
