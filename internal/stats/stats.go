// Package stats implements the statistical primitives the analysis services
// rely on: descriptive statistics, Pearson and point-biserial correlation
// with two-tailed significance testing, and ordinary least squares
// regression. P-values are computed from the Student-t distribution via the
// regularized incomplete beta function.
package stats

import (
	"math"
	"sort"

	"github.com/ordersight/matchday/internal/utils"
)

// Minimum observations for a correlation and for a regression trend.
const (
	MinCorrelationSamples = 3
	MinTrendSamples       = 5
)

// Sum returns the sum of the series.
func Sum(xs []float64) float64 {
	var total float64
	for _, x := range xs {
		total += x
	}
	return total
}

// Mean returns the arithmetic mean of the series, or 0 for an empty series.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return Sum(xs) / float64(len(xs))
}

// StdDev returns the sample standard deviation (n-1 denominator), or 0 when
// fewer than two observations are available.
func StdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	mean := Mean(xs)
	var ss float64
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}

// Median returns the middle value of the series.
func Median(xs []float64) float64 {
	return Quantile(xs, 0.5)
}

// Quantile returns the q-th quantile of the series using linear
// interpolation between closest ranks, or 0 for an empty series.
func Quantile(xs []float64, q float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// Pearson computes the Pearson correlation coefficient between x and y and
// its two-tailed p-value under the no-correlation null hypothesis.
//
// Fewer than MinCorrelationSamples paired observations yields an
// InsufficientDataError; zero variance in either series yields a
// ComputationError. Neither is fatal to a batch sweep: callers skip the pair.
func Pearson(x, y []float64) (float64, float64, error) {
	if len(x) != len(y) {
		return 0, 0, utils.NewComputationError("pearson", "input series lengths differ")
	}
	n := len(x)
	if n < MinCorrelationSamples {
		return 0, 0, utils.NewInsufficientDataError(MinCorrelationSamples, n)
	}

	meanX := Mean(x)
	meanY := Mean(y)
	var sxx, syy, sxy float64
	for i := range x {
		dx := x[i] - meanX
		dy := y[i] - meanY
		sxx += dx * dx
		syy += dy * dy
		sxy += dx * dy
	}
	if sxx == 0 || syy == 0 {
		return 0, 0, utils.NewComputationError("pearson", "zero variance in input series")
	}

	r := sxy / math.Sqrt(sxx*syy)
	// Guard against rounding pushing |r| past 1.
	if r > 1 {
		r = 1
	} else if r < -1 {
		r = -1
	}

	p := TwoTailedPValue(r, n)
	if math.IsNaN(r) || math.IsNaN(p) || math.IsInf(r, 0) || math.IsInf(p, 0) {
		return 0, 0, utils.NewComputationError("pearson", "correlation produced NaN/Inf")
	}
	return r, p, nil
}

// PointBiserial computes the point-biserial correlation between a binary
// variable and a continuous one. It is the Pearson correlation with the
// binary variable encoded as 0/1; a constant binary series yields a
// ComputationError like any other zero-variance input.
func PointBiserial(flags []bool, y []float64) (float64, float64, error) {
	encoded := make([]float64, len(flags))
	for i, f := range flags {
		if f {
			encoded[i] = 1
		}
	}
	return Pearson(encoded, y)
}

// Regression holds the result of an ordinary least squares fit of y on x.
type Regression struct {
	Slope     float64
	Intercept float64
	R         float64
	PValue    float64
	StdErr    float64
}

// Linregress fits y = slope*x + intercept by ordinary least squares and
// tests the slope for significance. Requires MinTrendSamples observations.
func Linregress(x, y []float64) (Regression, error) {
	if len(x) != len(y) {
		return Regression{}, utils.NewComputationError("linregress", "input series lengths differ")
	}
	n := len(x)
	if n < MinTrendSamples {
		return Regression{}, utils.NewInsufficientDataError(MinTrendSamples, n)
	}

	meanX := Mean(x)
	meanY := Mean(y)
	var sxx, syy, sxy float64
	for i := range x {
		dx := x[i] - meanX
		dy := y[i] - meanY
		sxx += dx * dx
		syy += dy * dy
		sxy += dx * dy
	}
	if sxx == 0 {
		return Regression{}, utils.NewComputationError("linregress", "zero variance in x")
	}

	slope := sxy / sxx
	intercept := meanY - slope*meanX

	var r float64
	if syy == 0 {
		// Perfectly flat y: slope is 0 and there is no trend to report.
		return Regression{}, utils.NewComputationError("linregress", "zero variance in y")
	}
	r = sxy / math.Sqrt(sxx*syy)
	if r > 1 {
		r = 1
	} else if r < -1 {
		r = -1
	}

	df := float64(n - 2)
	var stderr float64
	if math.Abs(r) < 1 {
		stderr = slope * math.Sqrt((1/(r*r)-1)/df)
		stderr = math.Abs(stderr)
	}

	p := TwoTailedPValue(r, n)
	if math.IsNaN(p) {
		return Regression{}, utils.NewComputationError("linregress", "p-value produced NaN")
	}

	return Regression{
		Slope:     slope,
		Intercept: intercept,
		R:         r,
		PValue:    p,
		StdErr:    stderr,
	}, nil
}

// TwoTailedPValue converts a correlation coefficient and sample size into a
// two-tailed p-value using the exact Student-t relationship
// t = r*sqrt(df/(1-r^2)) with df = n-2.
func TwoTailedPValue(r float64, n int) float64 {
	df := float64(n - 2)
	if df <= 0 {
		return math.NaN()
	}
	abs := math.Abs(r)
	if abs >= 1 {
		return 0
	}
	t2 := r * r * df / (1 - r*r)
	// P(|T| > t) for T ~ t(df) equals I_{df/(df+t^2)}(df/2, 1/2).
	return regularizedIncompleteBeta(df/2, 0.5, df/(df+t2))
}

// regularizedIncompleteBeta evaluates I_x(a, b) via the continued fraction
// expansion (Numerical Recipes 6.4).
func regularizedIncompleteBeta(a, b, x float64) float64 {
	if x <= 0 {
		return 0
	}
	if x >= 1 {
		return 1
	}
	lgab, _ := math.Lgamma(a + b)
	lga, _ := math.Lgamma(a)
	lgb, _ := math.Lgamma(b)
	front := math.Exp(lgab - lga - lgb + a*math.Log(x) + b*math.Log(1-x))

	if x < (a+1)/(a+b+2) {
		return front * betaContinuedFraction(a, b, x) / a
	}
	return 1 - front*betaContinuedFraction(b, a, 1-x)/b
}

func betaContinuedFraction(a, b, x float64) float64 {
	const (
		maxIterations = 300
		epsilon       = 3e-14
		tiny          = 1e-30
	)

	qab := a + b
	qap := a + 1
	qam := a - 1

	c := 1.0
	d := 1 - qab*x/qap
	if math.Abs(d) < tiny {
		d = tiny
	}
	d = 1 / d
	h := d

	for m := 1; m <= maxIterations; m++ {
		fm := float64(m)
		m2 := 2 * fm

		aa := fm * (b - fm) * x / ((qam + m2) * (a + m2))
		d = 1 + aa*d
		if math.Abs(d) < tiny {
			d = tiny
		}
		c = 1 + aa/c
		if math.Abs(c) < tiny {
			c = tiny
		}
		d = 1 / d
		h *= d * c

		aa = -(a + fm) * (qab + fm) * x / ((a + m2) * (qap + m2))
		d = 1 + aa*d
		if math.Abs(d) < tiny {
			d = tiny
		}
		c = 1 + aa/c
		if math.Abs(c) < tiny {
			c = tiny
		}
		d = 1 / d
		delta := d * c
		h *= delta

		if math.Abs(delta-1) < epsilon {
			break
		}
	}
	return h
}
