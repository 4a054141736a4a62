package mockdev_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optolab/ivctl/internal/mockdev"
)

func TestLED_ZeroBias(t *testing.T) {
	led := mockdev.NewLED()
	i := led.ApplyVoltage(0)
	assert.InDelta(t, 0, i, 1e-8)
	assert.Zero(t, led.OpticalPower())
}

func TestLED_BelowTurnOn(t *testing.T) {
	led := mockdev.NewLED()
	i := led.ApplyVoltage(5)
	assert.Less(t, i, 1e-6, "well below turn-on the LED barely conducts")
	assert.Zero(t, led.OpticalPower())
}

func TestLED_At8V(t *testing.T) {
	led := mockdev.NewLED()
	i := led.ApplyVoltage(8)

	// Documented tolerance band for the default constants: a ~7V knee with
	// 10 ohm series resistance puts 8V drive in the low tens of mA.
	assert.Greater(t, i, 0.020)
	assert.Less(t, i, 0.035)
	assert.Positive(t, led.OpticalPower())
}

func TestLED_CurrentSaturatesAtCompliance(t *testing.T) {
	led := mockdev.NewLED()
	i := led.ApplyVoltage(20)
	assert.InDelta(t, led.MaxCurrent, i, 1e-6)
}

func TestLED_MonotoneIV(t *testing.T) {
	led := mockdev.NewLED()
	led.NoiseFloor = 0

	prev := led.ApplyVoltage(6.0)
	for v := 6.2; v <= 8.4; v += 0.2 {
		i := led.ApplyVoltage(v)
		assert.GreaterOrEqual(t, i, prev, "current must not decrease with bias (%.1fV)", v)
		prev = i
	}
}

func TestLED_BothDirectionsConsistent(t *testing.T) {
	led := mockdev.NewLED()
	led.NoiseFloor = 0

	for _, v := range []float64{7.0, 7.5, 8.0} {
		i := led.ApplyVoltage(v)
		require.Positive(t, i)
		back := led.ApplyCurrent(i)
		assert.InDelta(t, v, back, 1e-4, "V(I(%.1fV)) must close the loop", v)
	}
}

func TestLED_OpticalPowerMonotoneAboveThreshold(t *testing.T) {
	led := mockdev.NewLED()
	led.NoiseFloor = 0

	led.ApplyVoltage(7.2)
	p1 := led.OpticalPower()
	led.ApplyVoltage(7.8)
	p2 := led.OpticalPower()
	led.ApplyVoltage(8.2)
	p3 := led.OpticalPower()

	assert.Positive(t, p1)
	assert.Greater(t, p2, p1)
	assert.Greater(t, p3, p2)
}
