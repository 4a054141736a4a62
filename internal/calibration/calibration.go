// Package calibration converts between LED drive current and optical
// irradiance by piecewise-linear interpolation of a measured curve. The two
// conversions are true inverses of each other on the sample domain.
package calibration

import (
	"log/slog"
	"sort"

	"github.com/optolab/ivctl/pkg/domain"
)

// Policy decides what happens for inputs outside the sampled domain.
type Policy string

const (
	// PolicyClamp pins out-of-domain inputs to the nearest sample.
	PolicyClamp Policy = "clamp"
	// PolicyStrict rejects out-of-domain inputs with a CalibrationError.
	PolicyStrict Policy = "strict"
)

// Module holds one calibration curve and the active extrapolation policy.
// It is immutable after construction and safe for concurrent use.
type Module struct {
	currents    []float64
	irradiances []float64
	policy      Policy
}

// Option configures a Module.
type Option func(*Module)

// WithPolicy sets the extrapolation policy (default PolicyClamp).
func WithPolicy(p Policy) Option {
	return func(m *Module) { m.policy = p }
}

// New validates the curve and builds a conversion module.
func New(curve domain.CalibrationCurve, opts ...Option) (*Module, error) {
	if err := curve.Validate(); err != nil {
		return nil, err
	}
	m := &Module{
		currents:    make([]float64, len(curve)),
		irradiances: make([]float64, len(curve)),
		policy:      PolicyClamp,
	}
	for i, s := range curve {
		m.currents[i] = s.Current
		m.irradiances[i] = s.Irradiance
	}
	for _, opt := range opts {
		opt(m)
	}
	slog.Debug("calibration loaded", "samples", len(curve), "policy", m.policy)
	return m, nil
}

// Policy reports the active extrapolation policy so callers can branch on
// whether CalibrationError is possible.
func (m *Module) Policy() Policy { return m.policy }

// CurrentRange returns the sampled LED current domain.
func (m *Module) CurrentRange() (min, max float64) {
	return m.currents[0], m.currents[len(m.currents)-1]
}

// IrradianceRange returns the sampled irradiance domain.
func (m *Module) IrradianceRange() (min, max float64) {
	return m.irradiances[0], m.irradiances[len(m.irradiances)-1]
}

// CurrentToIrradiance converts an LED drive current to irradiance (W/cm²).
func (m *Module) CurrentToIrradiance(current float64) (float64, error) {
	return m.interp(current, m.currents, m.irradiances, "current")
}

// IrradianceToCurrent converts a target irradiance to LED drive current (A).
func (m *Module) IrradianceToCurrent(irradiance float64) (float64, error) {
	return m.interp(irradiance, m.irradiances, m.currents, "irradiance")
}

func (m *Module) interp(x float64, xs, ys []float64, quantity string) (float64, error) {
	n := len(xs)
	if x < xs[0] || x > xs[n-1] {
		if m.policy == PolicyStrict {
			return 0, &domain.CalibrationError{
				Quantity: quantity, Value: x, Min: xs[0], Max: xs[n-1],
			}
		}
		if x < xs[0] {
			return ys[0], nil
		}
		return ys[n-1], nil
	}

	// First index with xs[i] >= x; xs is sorted ascending.
	i := sort.SearchFloat64s(xs, x)
	if i < n && xs[i] == x {
		return ys[i], nil
	}
	x0, x1 := xs[i-1], xs[i]
	y0, y1 := ys[i-1], ys[i]
	if x1 == x0 {
		return y0, nil
	}
	return y0 + (x-x0)*(y1-y0)/(x1-x0), nil
}
