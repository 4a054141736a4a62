// Package sweep generates ordered source-value sequences for sweep and
// list-sweep operations. Point lists are pregenerated here and submitted to
// the device verbatim, so mock and real backends walk identical values and
// abort granularity is one point.
package sweep

import (
	"math"

	"github.com/optolab/ivctl/pkg/domain"
)

// Generate produces the ordered source values for spec. The spacing math
// always runs from start toward stop; a descending direction reverses the
// finished sequence. Validation failures return a *domain.ValidationError
// before any value is generated.
func Generate(spec domain.SweepSpec) ([]float64, error) {
	n, err := pointCount(spec)
	if err != nil {
		return nil, err
	}

	dist := spec.Distribution
	if dist == "" {
		dist = domain.DistLinear
	}

	var values []float64
	switch dist {
	case domain.DistLinear:
		values = linspace(spec.Start, spec.Stop, n)
	case domain.DistLog:
		if spec.Start == 0 || spec.Stop == 0 || (spec.Start < 0) != (spec.Stop < 0) {
			return nil, &domain.ValidationError{StepIndex: -1,
				Reason: "log distribution requires nonzero start and stop of the same sign"}
		}
		values = geomspace(spec.Start, spec.Stop, n)
	default:
		return nil, &domain.ValidationError{StepIndex: -1,
			Reason: "unknown distribution: " + string(dist)}
	}

	if spec.Direction == domain.DirDescending {
		reverse(values)
	}
	return values, nil
}

func pointCount(spec domain.SweepSpec) (int, error) {
	switch {
	case spec.Points > 0:
		if spec.Points == 1 && spec.Start != spec.Stop {
			return 0, &domain.ValidationError{StepIndex: -1,
				Reason: "a single-point sweep requires start == stop"}
		}
		return spec.Points, nil
	case spec.Step > 0:
		span := math.Abs(spec.Stop - spec.Start)
		if span == 0 {
			return 1, nil
		}
		return int(math.Round(span/spec.Step)) + 1, nil
	default:
		return 0, &domain.ValidationError{StepIndex: -1,
			Reason: "sweep requires points >= 1 or a positive step"}
	}
}

func linspace(start, stop float64, n int) []float64 {
	if n == 1 {
		return []float64{start}
	}
	values := make([]float64, n)
	span := stop - start
	for i := range values {
		values[i] = start + float64(i)*span/float64(n-1)
	}
	// Pin the endpoint: the device should land exactly on stop.
	values[n-1] = stop
	return values
}

func geomspace(start, stop float64, n int) []float64 {
	if n == 1 {
		return []float64{start}
	}
	sign := 1.0
	if start < 0 {
		sign = -1.0
	}
	lnA := math.Log(math.Abs(start))
	lnB := math.Log(math.Abs(stop))
	values := make([]float64, n)
	for i := range values {
		t := float64(i) / float64(n-1)
		values[i] = sign * math.Exp(lnA+t*(lnB-lnA))
	}
	values[n-1] = stop
	return values
}

func reverse(v []float64) {
	for i, j := 0, len(v)-1; i < j; i, j = i+1, j-1 {
		v[i], v[j] = v[j], v[i]
	}
}
