package sweep_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optolab/ivctl/internal/sweep"
	"github.com/optolab/ivctl/pkg/domain"
)

func TestGenerate_Linear41Points(t *testing.T) {
	values, err := sweep.Generate(domain.SweepSpec{
		Start: 0, Stop: 8, Points: 41, Distribution: domain.DistLinear,
	})
	require.NoError(t, err)
	require.Len(t, values, 41)

	assert.Equal(t, 0.0, values[0])
	assert.Equal(t, 8.0, values[40])
	for i := 1; i < len(values); i++ {
		assert.Greater(t, values[i], values[i-1])
		assert.InDelta(t, 0.2, values[i]-values[i-1], 1e-12)
	}
}

func TestGenerate_LogEqualRatios(t *testing.T) {
	values, err := sweep.Generate(domain.SweepSpec{
		Start: 1e-6, Stop: 1e-3, Points: 4, Distribution: domain.DistLog,
	})
	require.NoError(t, err)
	require.Len(t, values, 4)

	ratio := values[1] / values[0]
	for i := 1; i < len(values); i++ {
		assert.InEpsilon(t, ratio, values[i]/values[i-1], 1e-9)
		assert.Positive(t, values[i])
	}
	assert.InEpsilon(t, 10.0, ratio, 1e-9)
	assert.Equal(t, 1e-3, values[3])
}

func TestGenerate_LogNegativeDomain(t *testing.T) {
	values, err := sweep.Generate(domain.SweepSpec{
		Start: -1e-6, Stop: -1e-3, Points: 4, Distribution: domain.DistLog,
	})
	require.NoError(t, err)
	for _, v := range values {
		assert.Negative(t, v)
	}
}

func TestGenerate_DescendingReversesAfterConstruction(t *testing.T) {
	asc, err := sweep.Generate(domain.SweepSpec{Start: 0, Stop: 4, Points: 5})
	require.NoError(t, err)
	desc, err := sweep.Generate(domain.SweepSpec{
		Start: 0, Stop: 4, Points: 5, Direction: domain.DirDescending,
	})
	require.NoError(t, err)

	require.Len(t, desc, 5)
	for i := range asc {
		assert.Equal(t, asc[len(asc)-1-i], desc[i])
	}
}

func TestGenerate_StepDerivesPointCount(t *testing.T) {
	values, err := sweep.Generate(domain.SweepSpec{Start: 0, Stop: 1, Step: 0.25})
	require.NoError(t, err)
	assert.Len(t, values, 5)
	assert.Equal(t, 1.0, values[4])
}

func TestGenerate_SinglePoint(t *testing.T) {
	values, err := sweep.Generate(domain.SweepSpec{Start: 2.5, Stop: 2.5, Points: 1})
	require.NoError(t, err)
	assert.Equal(t, []float64{2.5}, values)
}

func TestGenerate_Validation(t *testing.T) {
	cases := map[string]domain.SweepSpec{
		"no points or step":        {Start: 0, Stop: 1},
		"single point wrong stop":  {Start: 0, Stop: 1, Points: 1},
		"log with zero start":      {Start: 0, Stop: 1, Points: 5, Distribution: domain.DistLog},
		"log with sign change":     {Start: -1e-3, Stop: 1e-3, Points: 5, Distribution: domain.DistLog},
		"unknown distribution":     {Start: 0, Stop: 1, Points: 5, Distribution: "cubic"},
	}

	for name, spec := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := sweep.Generate(spec)
			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
		})
	}
}
