package domain

// CalibrationSample pairs one LED drive current with the irradiance it
// produced on the reference detector.
type CalibrationSample struct {
	Current    float64 `json:"current" yaml:"current"`
	Irradiance float64 `json:"irradiance" yaml:"irradiance"`
}

// CalibrationCurve is the measured current→irradiance table, strictly
// increasing in current with monotone non-decreasing irradiance.
type CalibrationCurve []CalibrationSample

// Validate checks curve invariants: at least two samples, strictly
// increasing currents, non-decreasing irradiances.
func (c CalibrationCurve) Validate() error {
	if len(c) < 2 {
		return &ValidationError{StepIndex: -1, Reason: "calibration curve needs at least 2 samples"}
	}
	for i := 1; i < len(c); i++ {
		if c[i].Current <= c[i-1].Current {
			return &ValidationError{StepIndex: -1, Reason: "calibration currents must be strictly increasing"}
		}
		if c[i].Irradiance < c[i-1].Irradiance {
			return &ValidationError{StepIndex: -1, Reason: "calibration irradiances must be non-decreasing"}
		}
	}
	return nil
}
