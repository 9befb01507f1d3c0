package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ordersight/matchday/internal/utils"
)

func TestDescriptives(t *testing.T) {
	xs := []float64{2, 4, 4, 4, 5, 5, 7, 9}

	assert.Equal(t, 40.0, Sum(xs))
	assert.Equal(t, 5.0, Mean(xs))
	assert.InDelta(t, 2.13809, StdDev(xs), 1e-5)
	assert.Equal(t, 4.5, Median(xs))

	assert.Equal(t, 0.0, Mean(nil))
	assert.Equal(t, 0.0, StdDev([]float64{42}))
}

func TestQuantile(t *testing.T) {
	xs := []float64{1, 2, 3, 4}

	assert.Equal(t, 1.0, Quantile(xs, 0))
	assert.Equal(t, 4.0, Quantile(xs, 1))
	assert.Equal(t, 2.5, Quantile(xs, 0.5))
	assert.InDelta(t, 3.25, Quantile(xs, 0.75), 1e-9)
	assert.Equal(t, 0.0, Quantile(nil, 0.5))
}

func TestPearsonPerfectCorrelation(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	up := []float64{2, 4, 6, 8, 10}
	down := []float64{10, 8, 6, 4, 2}

	r, p, err := Pearson(x, up)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, r, 1e-12)
	assert.InDelta(t, 0.0, p, 1e-9)

	r, p, err = Pearson(x, down)
	require.NoError(t, err)
	assert.InDelta(t, -1.0, r, 1e-12)
	assert.InDelta(t, 0.0, p, 1e-9)
}

func TestPearsonMatchesReferenceValues(t *testing.T) {
	// Reference r and p computed with scipy.stats.pearsonr.
	x := []float64{1, 2, 3, 4, 5}
	y := []float64{2, 1, 4, 3, 7}

	r, p, err := Pearson(x, y)
	require.NoError(t, err)
	assert.InDelta(t, 0.824163, r, 1e-6)
	assert.InDelta(t, 0.086095, p, 1e-4)
}

func TestPearsonInsufficientData(t *testing.T) {
	_, _, err := Pearson([]float64{1, 2}, []float64{3, 4})
	require.Error(t, err)

	var insufficient *utils.InsufficientDataError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, MinCorrelationSamples, insufficient.Required)
	assert.Equal(t, 2, insufficient.Got)
}

func TestPearsonZeroVariance(t *testing.T) {
	_, _, err := Pearson([]float64{5, 5, 5, 5}, []float64{1, 2, 3, 4})
	require.Error(t, err)

	var comp *utils.ComputationError
	assert.ErrorAs(t, err, &comp)
}

func TestPearsonLengthMismatch(t *testing.T) {
	_, _, err := Pearson([]float64{1, 2, 3}, []float64{1, 2})
	assert.Error(t, err)
}

func TestPointBiserial(t *testing.T) {
	flags := []bool{true, true, false, false, true, false}
	y := []float64{8, 9, 3, 4, 7, 2}

	r, p, err := PointBiserial(flags, y)
	require.NoError(t, err)
	assert.Greater(t, r, 0.8)
	assert.Less(t, p, 0.05)

	// A constant binary variable has no variance to correlate.
	_, _, err = PointBiserial([]bool{true, true, true}, []float64{1, 2, 3})
	assert.Error(t, err)
}

func TestLinregress(t *testing.T) {
	x := []float64{0, 1, 2, 3, 4, 5}
	y := []float64{1, 3.1, 4.9, 7.2, 8.8, 11.1}

	reg, err := Linregress(x, y)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, reg.Slope, 0.05)
	assert.InDelta(t, 1.0, reg.Intercept, 0.2)
	assert.Greater(t, reg.R, 0.99)
	assert.Less(t, reg.PValue, 0.001)
}

func TestLinregressRequiresTrendSamples(t *testing.T) {
	_, err := Linregress([]float64{1, 2, 3, 4}, []float64{1, 2, 3, 4})
	require.Error(t, err)

	var insufficient *utils.InsufficientDataError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, MinTrendSamples, insufficient.Required)
}

func TestLinregressFlatSeries(t *testing.T) {
	_, err := Linregress([]float64{1, 2, 3, 4, 5}, []float64{7, 7, 7, 7, 7})
	assert.Error(t, err)
}

func TestTwoTailedPValueClosedForms(t *testing.T) {
	// df=1 is the Cauchy distribution: p = 1 - (2/pi)*atan(|t|).
	p := TwoTailedPValue(0.5, 3)
	assert.InDelta(t, 2.0/3.0, p, 1e-9)

	// df=2 reduces to p = 1 - |r| exactly.
	assert.InDelta(t, 0.3, TwoTailedPValue(0.7, 4), 1e-9)
	assert.InDelta(t, 0.3, TwoTailedPValue(-0.7, 4), 1e-9)

	assert.Equal(t, 0.0, TwoTailedPValue(1.0, 10))
	assert.InDelta(t, 1.0, TwoTailedPValue(0.0, 10), 1e-12)
	assert.True(t, math.IsNaN(TwoTailedPValue(0.5, 2)))
}

func TestTwoTailedPValueMonotonicInSampleSize(t *testing.T) {
	// The same coefficient grows more significant with more observations.
	prev := 1.0
	for _, n := range []int{4, 8, 16, 32, 64} {
		p := TwoTailedPValue(0.4, n)
		assert.Less(t, p, prev)
		prev = p
	}
}
