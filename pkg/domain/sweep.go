package domain

// SourceMode selects which quantity the SMU sources; the complementary
// quantity is measured.
type SourceMode string

const (
	SourceVoltage SourceMode = "VOLTAGE"
	SourceCurrent SourceMode = "CURRENT"
)

// Distribution selects how sweep points are spaced between start and stop.
type Distribution string

const (
	DistLinear Distribution = "linear"
	DistLog    Distribution = "log"
)

// Direction controls presentation order of the generated sequence. The
// point math always runs start toward stop; descending reverses afterwards.
type Direction string

const (
	DirAscending  Direction = "ascending"
	DirDescending Direction = "descending"
)

// SweepSpec describes a source-value ramp. Exactly one of Points or Step
// should be set; Step derives the point count from the interval width.
// IntegrationTime is the per-point measurement averaging duration in
// seconds; it affects noise and duration, never the generated values.
type SweepSpec struct {
	Start           float64      `json:"start" yaml:"start" mapstructure:"start"`
	Stop            float64      `json:"stop" yaml:"stop" mapstructure:"stop"`
	Points          int          `json:"points,omitempty" yaml:"points,omitempty" mapstructure:"points"`
	Step            float64      `json:"step,omitempty" yaml:"step,omitempty" mapstructure:"step"`
	Distribution    Distribution `json:"distribution,omitempty" yaml:"distribution,omitempty" mapstructure:"distribution"`
	Direction       Direction    `json:"direction,omitempty" yaml:"direction,omitempty" mapstructure:"direction"`
	IntegrationTime float64      `json:"integration_time,omitempty" yaml:"integration_time,omitempty" mapstructure:"integration_time"`
}
