package mockdev

import "math/rand/v2"

// Photodetector models a silicon photodiode: photocurrent proportional to
// incident optical power plus dark current and a zero-mean noise floor.
// The model is memoryless; each measurement is a pure function of the
// coupled LED's instantaneous state.
type Photodetector struct {
	// Responsivity in A/W (wavelength dependent, ~0.3-0.6 for Si).
	Responsivity float64
	// DarkCurrent flows with no incident light, amps.
	DarkCurrent float64
	// NoiseFloor is the sigma of the additive measurement noise, amps.
	NoiseFloor float64

	led        *LED
	efficiency float64
}

// NewPhotodetector returns a detector with typical silicon constants.
func NewPhotodetector() *Photodetector {
	return &Photodetector{
		Responsivity: 0.4,
		DarkCurrent:  1e-9,
		NoiseFloor:   2e-11,
	}
}

// CoupleTo aims this detector at an LED: the given fraction of the LED's
// emitted optical power reaches the active area. The coupling reference is
// the detector's only persistent relation.
func (p *Photodetector) CoupleTo(led *LED, efficiency float64) {
	p.led = led
	p.efficiency = efficiency
}

// IncidentPower returns the optical power reaching the detector, watts.
func (p *Photodetector) IncidentPower() float64 {
	if p.led == nil {
		return 0
	}
	return p.led.OpticalPower() * p.efficiency
}

// Photocurrent returns the instantaneous detector current for the current
// illumination. The noise term is not bias dependent.
func (p *Photodetector) Photocurrent() float64 {
	i := p.Responsivity*p.IncidentPower() + p.DarkCurrent
	return i + rand.NormFloat64()*p.NoiseFloor
}
