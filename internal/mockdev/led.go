// Package mockdev provides physically-motivated simulators for the devices
// under test. Mock hardware backends route measurement calls here so the
// engine behaves identically against simulated and real instruments.
package mockdev

import (
	"math"
	"math/rand/v2"
	"sync"
)

// LED models an emitter as an exponential diode in series with a resistor:
//
//	V = Vd(I) + I*Rs,  Vd(I) = slope * ln(1 + I/Isat)
//
// The default constants place the turn-on knee near 7 V and keep the
// current in the low tens of milliamps at 8 V, matching the device this
// simulator replaced on the bench. Both conduction directions solve the
// same relation, so ApplyVoltage and ApplyCurrent are mutually consistent.
type LED struct {
	// SaturationCurrent is the diode scale current Isat in amps. The default
	// is an effective value for the whole emitter stack, not a junction
	// physics constant.
	SaturationCurrent float64
	// ThermalSlope is the exponential slope (n*Vt lumped over the stack), volts.
	ThermalSlope float64
	// SeriesResistance in ohms.
	SeriesResistance float64
	// MaxCurrent caps conduction, emulating the compliance region (~100 mA).
	MaxCurrent float64
	// Threshold below which the emitter produces no measurable light, amps.
	Threshold float64
	// Efficiency is the wall-plug fraction of electrical power emitted as light.
	Efficiency float64
	// NoiseFloor is the sigma of the zero-mean current noise added per
	// measurement, amps.
	NoiseFloor float64

	mu           sync.Mutex
	voltage      float64
	current      float64
	opticalPower float64
}

// NewLED returns an LED with the default bench constants.
func NewLED() *LED {
	return &LED{
		SaturationCurrent: 3e-28,
		ThermalSlope:      0.13,
		SeriesResistance:  10.0,
		MaxCurrent:        0.1,
		Threshold:         1e-6,
		Efficiency:        0.3,
		NoiseFloor:        1e-10,
	}
}

// ApplyVoltage drives the LED at a terminal voltage and returns the
// resulting current. The IV relation is solved by bisection on
// f(I) = Vd(I) + I*Rs - V, which is strictly increasing in I.
func (l *LED) ApplyVoltage(v float64) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	var i float64
	if v > 0 {
		i = l.solveCurrent(v)
	}
	if i > l.MaxCurrent {
		i = l.MaxCurrent
	}
	l.voltage = v
	l.setCurrent(i)
	return i + rand.NormFloat64()*l.NoiseFloor
}

// ApplyCurrent drives the LED at a source current and returns the terminal
// voltage, the closed-form direction of the same IV relation.
func (l *LED) ApplyCurrent(i float64) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	if i < 0 {
		i = 0
	}
	if i > l.MaxCurrent {
		i = l.MaxCurrent
	}
	v := l.diodeVoltage(i) + i*l.SeriesResistance
	l.voltage = v
	l.setCurrent(i)
	return v + rand.NormFloat64()*1e-6
}

// OpticalPower returns the instantaneous emitted optical power in watts for
// the currently applied bias. Zero below the conduction threshold.
func (l *LED) OpticalPower() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.opticalPower
}

func (l *LED) diodeVoltage(i float64) float64 {
	if i <= 0 {
		return 0
	}
	return l.ThermalSlope * math.Log(1+i/l.SaturationCurrent)
}

func (l *LED) solveCurrent(v float64) float64 {
	lo, hi := 0.0, l.MaxCurrent
	if l.diodeVoltage(hi)+hi*l.SeriesResistance <= v {
		return hi
	}
	for range 80 {
		mid := (lo + hi) / 2
		if l.diodeVoltage(mid)+mid*l.SeriesResistance < v {
			lo = mid
		} else {
			hi = mid
		}
	}
	return (lo + hi) / 2
}

// setCurrent records conduction state and the derived optical output.
// Callers hold l.mu.
func (l *LED) setCurrent(i float64) {
	l.current = i
	if i > l.Threshold {
		l.opticalPower = l.voltage * i * l.Efficiency
	} else {
		l.opticalPower = 0
	}
}
