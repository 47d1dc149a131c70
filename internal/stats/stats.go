// Package stats holds the statistical routines used by the analyses:
// Pearson correlation, simple least squares, descriptive statistics and
// rank transforms. NaN marks a missing observation throughout.
package stats

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

var (
	// ErrInsufficientData is returned when fewer than three complete pairs remain.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrZeroVariance is returned when a series has no spread.
	ErrZeroVariance = errors.New("zero variance")
	// ErrLengthMismatch is returned when paired series differ in length.
	ErrLengthMismatch = errors.New("length mismatch")
)

// MinObservations is the smallest sample a correlation or regression accepts.
const MinObservations = 3

// Correlation is a Pearson correlation with its two-sided p-value
type Correlation struct {
	R      float64
	PValue float64
	N      int
}

// Regression is the result of regressing y on a single regressor x
type Regression struct {
	Slope             float64
	Intercept         float64
	RSquared          float64
	AdjRSquared       float64
	FStatistic        float64
	StdError          float64 // standard error of the slope
	InterceptStdError float64
	TStatistic        float64
	PValue            float64 // two-sided p-value of the slope
	N                 int
}

// CompletePairs returns the pairs where neither value is NaN
func CompletePairs(x, y []float64) ([]float64, []float64, error) {
	if len(x) != len(y) {
		return nil, nil, fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, len(x), len(y))
	}

	xs := make([]float64, 0, len(x))
	ys := make([]float64, 0, len(y))
	for i := range x {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		xs = append(xs, x[i])
		ys = append(ys, y[i])
	}
	return xs, ys, nil
}

func preparePairs(x, y []float64) ([]float64, []float64, error) {
	xs, ys, err := CompletePairs(x, y)
	if err != nil {
		return nil, nil, err
	}
	if len(xs) < MinObservations {
		return nil, nil, fmt.Errorf("%w: %d complete pairs, need %d", ErrInsufficientData, len(xs), MinObservations)
	}
	if isConstant(xs) || isConstant(ys) {
		return nil, nil, ErrZeroVariance
	}
	return xs, ys, nil
}

// Pearson computes the correlation of x and y over their complete pairs.
// The p-value comes from Student's t with n-2 degrees of freedom; a perfect
// correlation has p = 0.
func Pearson(x, y []float64) (Correlation, error) {
	xs, ys, err := preparePairs(x, y)
	if err != nil {
		return Correlation{}, err
	}

	n := len(xs)
	r := stat.Correlation(xs, ys, nil)
	// rounding can push |r| past one
	r = math.Max(-1, math.Min(1, r))

	return Correlation{R: r, PValue: correlationPValue(r, n), N: n}, nil
}

func correlationPValue(r float64, n int) float64 {
	rem := 1 - r*r
	if rem <= 0 {
		return 0
	}
	df := float64(n - 2)
	t := r * math.Sqrt(df/rem)
	return TwoSidedPValue(t, df)
}

// TwoSidedPValue returns P(|T| >= |t|) for Student's t with df degrees of freedom
func TwoSidedPValue(t, df float64) float64 {
	if math.IsInf(t, 0) {
		return 0
	}
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	return 2 * dist.Survival(math.Abs(t))
}

// SimpleOLS regresses y on x with an intercept over the complete pairs
func SimpleOLS(x, y []float64) (Regression, error) {
	xs, ys, err := preparePairs(x, y)
	if err != nil {
		return Regression{}, err
	}

	n := len(xs)
	nf := float64(n)
	df := nf - 2

	intercept, slope := stat.LinearRegression(xs, ys, nil, false)

	xMean := stat.Mean(xs, nil)
	yMean := stat.Mean(ys, nil)

	var sxx, sst, ssr float64
	for i := range xs {
		dx := xs[i] - xMean
		dy := ys[i] - yMean
		res := ys[i] - (intercept + slope*xs[i])
		sxx += dx * dx
		sst += dy * dy
		ssr += res * res
	}

	reg := Regression{
		Slope:     slope,
		Intercept: intercept,
		RSquared:  1 - ssr/sst,
		N:         n,
	}
	reg.AdjRSquared = 1 - (1-reg.RSquared)*(nf-1)/df

	sigma2 := ssr / df
	reg.StdError = math.Sqrt(sigma2 / sxx)
	reg.InterceptStdError = math.Sqrt(sigma2 * (1/nf + xMean*xMean/sxx))

	if reg.StdError == 0 {
		// exact fit
		reg.TStatistic = math.Copysign(math.Inf(1), slope)
		reg.FStatistic = math.Inf(1)
		reg.PValue = 0
		return reg, nil
	}

	reg.TStatistic = slope / reg.StdError
	reg.FStatistic = reg.TStatistic * reg.TStatistic
	reg.PValue = TwoSidedPValue(reg.TStatistic, df)

	return reg, nil
}

// present returns the non-NaN values of x
func present(x []float64) []float64 {
	out := make([]float64, 0, len(x))
	for _, v := range x {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

func isConstant(x []float64) bool {
	for _, v := range x[1:] {
		if v != x[0] {
			return false
		}
	}
	return true
}

// Mean is the mean of the non-missing values, NaN when there are none
func Mean(x []float64) float64 {
	vals := present(x)
	if len(vals) == 0 {
		return math.NaN()
	}
	return stat.Mean(vals, nil)
}

// StdDev is the population standard deviation (ddof 0) of the non-missing values
func StdDev(x []float64) float64 {
	vals := present(x)
	if len(vals) == 0 {
		return math.NaN()
	}
	return stat.PopStdDev(vals, nil)
}

// SampleStdDev is the sample standard deviation (ddof 1) of the non-missing values
func SampleStdDev(x []float64) float64 {
	vals := present(x)
	if len(vals) < 2 {
		return math.NaN()
	}
	return stat.StdDev(vals, nil)
}

// Standardize returns (x - mean) / sd using the population standard
// deviation. Missing values stay missing.
func Standardize(x []float64) ([]float64, error) {
	vals := present(x)
	if len(vals) == 0 {
		return nil, ErrInsufficientData
	}
	mean, sd := stat.PopMeanStdDev(vals, nil)
	if sd == 0 || isConstant(vals) {
		return nil, ErrZeroVariance
	}

	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = (v - mean) / sd
	}
	return out, nil
}

// MinMaxNormalize rescales x onto [0, 1]. A series without spread maps to 0.
func MinMaxNormalize(x []float64) []float64 {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range x {
		if math.IsNaN(v) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}

	out := make([]float64, len(x))
	for i, v := range x {
		switch {
		case math.IsNaN(v):
			out[i] = math.NaN()
		case hi == lo:
			out[i] = 0
		default:
			out[i] = (v - lo) / (hi - lo)
		}
	}
	return out
}

// FillMean returns a copy of x with missing values replaced by the mean.
// An all-missing series is returned unchanged.
func FillMean(x []float64) []float64 {
	mean := Mean(x)
	out := make([]float64, len(x))
	for i, v := range x {
		if math.IsNaN(v) {
			v = mean
		}
		out[i] = v
	}
	return out
}

// SignificanceStars labels a p-value with the conventional star notation
func SignificanceStars(p float64) string {
	switch {
	case p < 0.001:
		return "***"
	case p < 0.01:
		return "**"
	case p < 0.05:
		return "*"
	default:
		return "ns"
	}
}

// Rank assigns 1-based ranks using the "min" tie method: tied values share
// the lowest rank of their group. Missing values get NaN.
func Rank(x []float64, descending bool) []float64 {
	idx := make([]int, 0, len(x))
	for i, v := range x {
		if !math.IsNaN(v) {
			idx = append(idx, i)
		}
	}
	sort.SliceStable(idx, func(a, b int) bool {
		if descending {
			return x[idx[a]] > x[idx[b]]
		}
		return x[idx[a]] < x[idx[b]]
	})

	ranks := make([]float64, len(x))
	for i := range ranks {
		ranks[i] = math.NaN()
	}
	for pos, i := range idx {
		if pos > 0 && x[idx[pos-1]] == x[i] {
			ranks[i] = ranks[idx[pos-1]]
			continue
		}
		ranks[i] = float64(pos + 1)
	}
	return ranks
}

// Quantile returns the q-th quantile of the non-missing values using linear
// interpolation between closest ranks ((n-1)q positions), the definition
// used by pandas and numpy. gonum's stat.Quantile interpolates the empirical
// CDF instead, which gives different tertiles on short series.
func Quantile(x []float64, q float64) float64 {
	vals := present(x)
	if len(vals) == 0 || q < 0 || q > 1 {
		return math.NaN()
	}
	sort.Float64s(vals)

	h := float64(len(vals)-1) * q
	lo := int(math.Floor(h))
	if lo+1 >= len(vals) {
		return vals[lo]
	}
	return vals[lo] + (h-float64(lo))*(vals[lo+1]-vals[lo])
}
