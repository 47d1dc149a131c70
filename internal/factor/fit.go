package factor

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"littleluxuries/internal/stats"
)

// psiFloor keeps uniquenesses positive in Heywood cases
const psiFloor = 1e-9

// Model is a fitted one-factor model on standardised columns
type Model struct {
	Loadings     []float64
	Uniquenesses []float64
	// Scores holds the posterior mean of the factor for every row.
	Scores       []float64
	EMIterations int
	Converged    bool
}

// Communalities returns the share of each column's variance explained by the factor
func (m *Model) Communalities() []float64 {
	out := make([]float64, len(m.Loadings))
	for i, l := range m.Loadings {
		out[i] = l * l
	}
	return out
}

// Fit fills missing values with the column mean, standardises every column
// (population standard deviation) and fits one factor by maximum
// likelihood. Loadings are signed so that they sum to a non-negative value.
func Fit(columns [][]float64, cfg Config) (*Model, error) {
	if len(columns) < 2 {
		return nil, ErrTooFewColumns
	}
	n := len(columns[0])
	if n < stats.MinObservations {
		return nil, fmt.Errorf("%w: %d rows", stats.ErrInsufficientData, n)
	}

	z := make([][]float64, len(columns))
	for j, col := range columns {
		if len(col) != n {
			return nil, fmt.Errorf("column %d: %w", j, stats.ErrLengthMismatch)
		}
		std, err := stats.Standardize(stats.FillMean(col))
		if err != nil {
			return nil, fmt.Errorf("column %d: %w", j, err)
		}
		z[j] = std
	}

	return fitStandardized(z, cfg)
}

// fitStandardized runs the iteration used by scikit-learn's FactorAnalysis
// on the correlation matrix S: take the leading eigenpair (s, v) of
// Psi^-1/2 S Psi^-1/2, set loadings to Psi^1/2 v sqrt(max(s-1, 0)) and
// uniquenesses to diag(S) - loadings^2, until both stop moving.
func fitStandardized(z [][]float64, cfg Config) (*Model, error) {
	p := len(z)
	n := len(z[0])

	s := mat.NewSymDense(p, nil)
	for i := 0; i < p; i++ {
		for j := i; j < p; j++ {
			var sum float64
			for k := 0; k < n; k++ {
				sum += z[i][k] * z[j][k]
			}
			s.SetSym(i, j, sum/float64(n))
		}
	}

	psi := make([]float64, p)
	for i := range psi {
		psi[i] = 1
	}
	loadings := make([]float64, p)

	scaled := mat.NewSymDense(p, nil)
	sqrtPsi := make([]float64, p)
	var (
		eig  mat.EigenSym
		vecs mat.Dense
	)

	m := &Model{}
	for it := 1; it <= cfg.MaxEMIterations; it++ {
		m.EMIterations = it

		for i := range psi {
			sqrtPsi[i] = math.Sqrt(psi[i])
		}
		for i := 0; i < p; i++ {
			for j := i; j < p; j++ {
				scaled.SetSym(i, j, s.At(i, j)/(sqrtPsi[i]*sqrtPsi[j]))
			}
		}

		if ok := eig.Factorize(scaled, true); !ok {
			return nil, ErrEigen
		}
		values := eig.Values(nil)
		eig.VectorsTo(&vecs)

		top := 0
		for i, v := range values {
			if v > values[top] {
				top = i
			}
		}
		scale := math.Sqrt(math.Max(values[top]-1, 0))

		next := make([]float64, p)
		var sum float64
		for i := range next {
			next[i] = sqrtPsi[i] * vecs.At(i, top) * scale
			sum += next[i]
		}
		if sum < 0 {
			for i := range next {
				next[i] = -next[i]
			}
		}

		var change float64
		for i := range next {
			nextPsi := math.Max(s.At(i, i)-next[i]*next[i], psiFloor)
			change = math.Max(change, math.Abs(next[i]-loadings[i]))
			change = math.Max(change, math.Abs(nextPsi-psi[i]))
			psi[i] = nextPsi
		}
		loadings = next

		if change < cfg.Tolerance {
			m.Converged = true
			break
		}
	}

	m.Loadings = loadings
	m.Uniquenesses = psi
	m.Scores = posteriorScores(z, loadings, psi)
	return m, nil
}

// posteriorScores returns E[f | z] = sum_j (l_j/psi_j) z_j / (1 + sum_j l_j^2/psi_j)
func posteriorScores(z [][]float64, loadings, psi []float64) []float64 {
	weights := make([]float64, len(loadings))
	denom := 1.0
	for j, l := range loadings {
		weights[j] = l / psi[j]
		denom += l * l / psi[j]
	}

	scores := make([]float64, len(z[0]))
	for k := range scores {
		var sum float64
		for j, w := range weights {
			sum += w * z[j][k]
		}
		scores[k] = sum / denom
	}
	return scores
}
