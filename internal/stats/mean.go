// Package stats implements the statistical post-processing shared by the
// Recorder and the report Presenter: weighted means, an autocorrelation
// corrected long-run standard error, Welch's two-sample t-test, and
// histogram bootstrap resampling.
package stats

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// bandwidthCoeff controls the maximum order of autocovariance taken into
// account when estimating the long-run mean error. Higher values capture
// more autocorrelation but add more estimator noise; lower values increase
// bias for small n but give smoother results. Established empirically;
// anything in [0.2, 0.8] is reasonable.
const bandwidthCoeff = 0.5

// Mean holds a sample count, an estimated mean value, and (when
// computable) a long-run standard error.
type Mean struct {
	N      uint64   `json:"n"`
	Value  float64  `json:"value"`
	StdErr *float64 `json:"std_err,omitempty"`
}

// ComputeMean builds a Mean from parallel slices of observations and
// weights, using WeightedMean for the point estimate and LongRunStdErr
// for the uncertainty.
func ComputeMean(values, weights []float32) Mean {
	m := WeightedMean(values, weights)
	return Mean{
		N:      uint64(len(values)),
		Value:  m,
		StdErr: notNaN(LongRunStdErr(m, values, weights)),
	}
}

// WeightedMean computes sum(v*w) / sum(w) in float64. Returns NaN when the
// weights sum to zero.
func WeightedMean(values, weights []float32) float64 {
	var sumValues, sumWeights float64
	for i, v := range values {
		w := float64(weights[i])
		sumValues += float64(v) * w
		sumWeights += w
	}
	return sumValues / sumWeights
}

// LongRunVariance estimates the variance of the mean of a time series,
// accounting for serial correlation between observations (a Newey-West
// style truncated, Bartlett-weighted autocovariance sum). Unlike the
// classic variance estimator, the order of values matters here.
func LongRunVariance(mean float64, values, weights []float32) float64 {
	n := len(values)
	if n <= 1 {
		return math.NaN()
	}
	flen := float64(n)

	var variance, sumWeights float64
	for i, v := range values {
		diff := float64(v) - mean
		w := float64(weights[i])
		variance += diff * diff * w
		sumWeights += w
	}
	variance /= sumWeights

	bandwidth := math.Pow(flen, bandwidthCoeff)
	maxLag := n
	if c := int(math.Ceil(bandwidth)); c < maxLag {
		maxLag = c
	}

	covSum := 0.0
	for lag := 1; lag < maxLag; lag++ {
		weight := 1.0 - float64(lag)/flen
		var cov, lagWeights float64
		for i := lag; i < n; i++ {
			diff1 := float64(values[i]) - mean
			diff2 := float64(values[i-lag]) - mean
			w := float64(weights[i]) * float64(weights[i-lag])
			lagWeights += w
			cov += 2.0 * diff1 * diff2 * weight * w
		}
		covSum += cov / lagWeights
	}
	// A negative sum of autocovariances is possible but not meaningful when
	// estimating worst-case error for small n; clamp it away.
	covSum = math.Max(covSum, 0.0)

	inflation := 1.0 + covSum/(variance+math.SmallestNonzeroFloat64)
	biasCorrection := math.Exp(inflation / flen)
	return biasCorrection * (variance + covSum)
}

// LongRunStdErr estimates the standard error of the mean of a time
// series. See LongRunVariance.
func LongRunStdErr(mean float64, values, weights []float32) float64 {
	return math.Sqrt(LongRunVariance(mean, values, weights) / float64(len(values)))
}

// WelchTTest returns the probability that the difference between two
// means is due to chance, using Welch's t-test (tolerant of unequal
// variances). Returns 1.0 if either mean lacks a standard error or the
// resulting Student's t distribution is not well defined.
func WelchTTest(m1, m2 Mean) float64 {
	if m1.StdErr == nil || m2.StdErr == nil {
		return 1.0
	}
	n1, n2 := float64(m1.N), float64(m2.N)
	e1, e2 := *m1.StdErr, *m2.StdErr
	e1Sq, e2Sq := e1*e1, e2*e2
	seSq := e1Sq + e2Sq
	se := math.Sqrt(seSq)
	t := (m1.Value - m2.Value) / se
	freedom := seSq * seSq / (e1Sq*e1Sq/(n1-1.0) + e2Sq*e2Sq/(n2-1.0))
	if freedom <= 0 || math.IsNaN(freedom) || math.IsInf(freedom, 0) {
		return 1.0
	}
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: freedom}
	return 2.0 * (1.0 - dist.CDF(math.Abs(t)))
}

// Significance wraps a p-value from a two-sample comparison.
type Significance float64

// Stars renders a conventional significance marker for display purposes.
func (s Significance) Stars() string {
	switch {
	case s <= 1e-6:
		return "*****"
	case s <= 1e-5:
		return "****"
	case s <= 1e-4:
		return "***"
	case s <= 1e-3:
		return "**"
	case s <= 1e-2:
		return "*"
	default:
		return ""
	}
}

// Notable reports whether the difference is worth highlighting (p <= 0.01).
func (s Significance) Notable() bool { return s <= 0.01 }

func notNaN(x float64) *float64 {
	if math.IsNaN(x) {
		return nil
	}
	return &x
}
