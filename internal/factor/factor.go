// Package factor summarises a group of correlated columns into a single
// latent score with a one-factor maximum likelihood model, pruning columns
// whose loadings fall outside an acceptable band.
package factor

import (
	"errors"
	"fmt"
)

var (
	// ErrTooFewColumns is returned when a fit is requested on fewer than two columns.
	ErrTooFewColumns = errors.New("factor model needs at least two columns")
	// ErrNoColumns is returned when extraction is requested on an empty column set.
	ErrNoColumns = errors.New("no columns")
	// ErrEigen is returned when the eigendecomposition fails.
	ErrEigen = errors.New("eigendecomposition failed")
)

// State is a step of the extraction state machine
type State string

const (
	StateFitting   State = "fitting"
	StatePruning   State = "pruning"
	StateAccepted  State = "accepted"
	StateExhausted State = "exhausted"
)

// Config controls model fitting and loading pruning
type Config struct {
	// Loadings with LoadingLower <= |l| <= LoadingUpper are acceptable.
	LoadingLower float64
	LoadingUpper float64
	// MaxIterations caps the pruning fits per extraction. The fit that hits
	// the cap still drops its worst column and one final fit follows.
	MaxIterations int
	// FallbackOnCap makes a capped extraction return the raw first column
	// instead of the final fit.
	FallbackOnCap bool

	MaxEMIterations int
	Tolerance       float64
}

// DefaultConfig returns the band [0.3, 0.95] with three fits
func DefaultConfig() Config {
	return Config{
		LoadingLower:    0.3,
		LoadingUpper:    0.95,
		MaxIterations:   3,
		MaxEMIterations: 1000,
		Tolerance:       1e-8,
	}
}

// Validate checks the band and the iteration limits
func (c Config) Validate() error {
	if c.LoadingLower < 0 || c.LoadingUpper > 1 || c.LoadingLower >= c.LoadingUpper {
		return fmt.Errorf("invalid loading band [%g, %g]", c.LoadingLower, c.LoadingUpper)
	}
	if c.MaxIterations < 1 {
		return fmt.Errorf("max iterations must be at least 1, got %d", c.MaxIterations)
	}
	if c.MaxEMIterations < 1 {
		return fmt.Errorf("max EM iterations must be at least 1, got %d", c.MaxEMIterations)
	}
	if c.Tolerance <= 0 {
		return fmt.Errorf("tolerance must be positive, got %g", c.Tolerance)
	}
	return nil
}

// InBand reports whether a loading is acceptable
func (c Config) InBand(loading float64) bool {
	a := abs(loading)
	return a >= c.LoadingLower && a <= c.LoadingUpper
}

// Excess is how far a loading lies past the nearer bound of the band;
// it is zero or negative for acceptable loadings.
func (c Config) Excess(loading float64) float64 {
	a := abs(loading)
	return max(a-c.LoadingUpper, c.LoadingLower-a)
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
