package factor

import (
	"fmt"
	"log/slog"

	"littleluxuries/internal/dataset"
)

// Result is the outcome of one extraction
type Result struct {
	// Scores is the latent score per row. For a fallback it is the raw first
	// column with missing values left in place.
	Scores []float64
	// Columns are the columns behind Scores, aligned with Loadings.
	Columns  []string
	Loadings []float64
	State    State
	// Iterations counts model fits.
	Iterations int
	Removed    []string
	Fallback   bool
	// Trace lists every state entered, in order.
	Trace []State
}

// Extractor runs the fit/prune loop for one column group at a time
type Extractor struct {
	cfg    Config
	logger *slog.Logger
}

// NewExtractor creates an extractor after validating the configuration
func NewExtractor(cfg Config, logger *slog.Logger) (*Extractor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{cfg: cfg, logger: logger}, nil
}

// Extract is a convenience wrapper around NewExtractor and Extractor.Extract
func Extract(names []string, columns [][]float64, cfg Config) (*Result, error) {
	e, err := NewExtractor(cfg, nil)
	if err != nil {
		return nil, err
	}
	return e.Extract(names, columns)
}

// ExtractFrame extracts a score from the named columns of a frame
func (e *Extractor) ExtractFrame(f *dataset.Frame, names []string) (*Result, error) {
	columns := make([][]float64, len(names))
	for i, name := range names {
		col, err := f.MustColumn(name)
		if err != nil {
			return nil, err
		}
		columns[i] = col
	}
	return e.Extract(names, columns)
}

// Extract fits a one-factor model on the columns and drops the column whose
// loading lies furthest outside the band until every loading is inside it.
// The fit that reaches MaxIterations still drops its worst column; the
// remaining columns are then fitted once more and that fit is kept, in band
// or not. When fewer than two columns remain the raw values of the first
// column are returned.
func (e *Extractor) Extract(names []string, columns [][]float64) (*Result, error) {
	if len(names) == 0 {
		return nil, ErrNoColumns
	}
	if len(names) != len(columns) {
		return nil, fmt.Errorf("%d names for %d columns", len(names), len(columns))
	}

	active := make([]int, len(names))
	for i := range active {
		active[i] = i
	}

	res := &Result{}
	var model *Model
	capped := false

	state := StateFitting
	if len(active) < 2 {
		state = StateExhausted
	}

	for {
		res.Trace = append(res.Trace, state)

		switch state {
		case StateFitting:
			cols := make([][]float64, len(active))
			for i, idx := range active {
				cols[i] = columns[idx]
			}
			m, err := Fit(cols, e.cfg)
			if err != nil {
				return nil, fmt.Errorf("fit %v: %w", pick(names, active), err)
			}
			model = m
			res.Iterations++

			e.logger.Debug("factor model fitted",
				"columns", pick(names, active),
				"loadings", m.Loadings,
				"iteration", res.Iterations,
				"converged", m.Converged)

			switch {
			case capped:
				state = StateExhausted
			case e.allInBand(m.Loadings):
				state = StateAccepted
			default:
				state = StatePruning
			}

		case StatePruning:
			worst := e.worst(model.Loadings)
			res.Removed = append(res.Removed, names[active[worst]])
			e.logger.Debug("removing column outside loading band",
				"column", names[active[worst]],
				"loading", model.Loadings[worst])

			active = append(active[:worst:worst], active[worst+1:]...)
			if len(active) < 2 {
				model = nil
				state = StateExhausted
				break
			}
			// past the cap the next fit is final
			capped = res.Iterations >= e.cfg.MaxIterations
			state = StateFitting

		case StateAccepted, StateExhausted:
			res.State = state
			if model == nil || (state == StateExhausted && e.cfg.FallbackOnCap) {
				res.Fallback = true
				res.Columns = []string{names[0]}
				res.Scores = append([]float64(nil), columns[0]...)
				return res, nil
			}
			res.Columns = pick(names, active)
			res.Loadings = model.Loadings
			res.Scores = model.Scores
			return res, nil
		}
	}
}

func (e *Extractor) allInBand(loadings []float64) bool {
	for _, l := range loadings {
		if !e.cfg.InBand(l) {
			return false
		}
	}
	return true
}

// worst returns the index of the loading furthest outside the band; the
// first such column wins a tie
func (e *Extractor) worst(loadings []float64) int {
	idx := 0
	for i, l := range loadings {
		if e.cfg.Excess(l) > e.cfg.Excess(loadings[idx]) {
			idx = i
		}
	}
	return idx
}

func pick(names []string, idx []int) []string {
	out := make([]string, len(idx))
	for i, j := range idx {
		out[i] = names[j]
	}
	return out
}
