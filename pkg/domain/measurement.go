package domain

import "time"

// Point is one SMU measurement: the sourced and measured pair plus the
// instant it was taken.
type Point struct {
	Voltage   float64   `json:"voltage"`
	Current   float64   `json:"current"`
	Timestamp time.Time `json:"timestamp"`
}

// SweepResult is the ordered outcome of a multi-point device operation.
// Aborted marks a sequence cut short by cooperative cancellation; Results
// then holds the partial prefix collected before the abort was observed.
type SweepResult struct {
	Points  int     `json:"points"`
	Results []Point `json:"results"`
	Aborted bool    `json:"aborted,omitempty"`
}
