package factor

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"littleluxuries/internal/dataset"
	"littleluxuries/internal/stats"
)

// oneFactorData returns k columns loading 0.8 on a shared factor plus one
// column of independent noise named "noise"
func oneFactorData(n, k int, seed int64) ([]string, [][]float64) {
	rng := rand.New(rand.NewSource(seed))
	f := make([]float64, n)
	for i := range f {
		f[i] = rng.NormFloat64()
	}

	names := make([]string, 0, k+1)
	cols := make([][]float64, 0, k+1)
	for j := 0; j < k; j++ {
		col := make([]float64, n)
		for i := range col {
			col[i] = 0.8*f[i] + 0.6*rng.NormFloat64()
		}
		names = append(names, string(rune('a'+j)))
		cols = append(cols, col)
	}

	noise := make([]float64, n)
	for i := range noise {
		noise[i] = rng.NormFloat64()
	}
	return append(names, "noise"), append(cols, noise)
}

// walsh returns three mutually orthogonal zero-mean columns
func walsh() [][]float64 {
	return [][]float64{
		{11, 9, 11, 9, 11, 9, 11, 9},
		{1, 1, -1, -1, 1, 1, -1, -1},
		{1, 1, 1, 1, -1, -1, -1, -1},
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "default", mutate: func(c *Config) {}},
		{name: "inverted band", mutate: func(c *Config) { c.LoadingLower, c.LoadingUpper = 0.9, 0.3 }, wantErr: true},
		{name: "empty band", mutate: func(c *Config) { c.LoadingLower = c.LoadingUpper }, wantErr: true},
		{name: "upper above one", mutate: func(c *Config) { c.LoadingUpper = 1.2 }, wantErr: true},
		{name: "zero iterations", mutate: func(c *Config) { c.MaxIterations = 0 }, wantErr: true},
		{name: "zero tolerance", mutate: func(c *Config) { c.Tolerance = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_Band(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		loading float64
		inBand  bool
		excess  float64
	}{
		{0.3, true, 0},
		{0.95, true, 0},
		{-0.5, true, -0.2},
		{0.1, false, 0.2},
		{-0.99, false, 0.04},
		{0, false, 0.3},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.inBand, cfg.InBand(tt.loading), "%v", tt.loading)
		assert.InDelta(t, tt.excess, cfg.Excess(tt.loading), 1e-12, "%v", tt.loading)
	}
}

func TestFit_RecoversLoadings(t *testing.T) {
	_, cols := oneFactorData(300, 4, 42)

	m, err := Fit(cols[:4], DefaultConfig())
	require.NoError(t, err)
	require.True(t, m.Converged)
	require.Len(t, m.Loadings, 4)

	for i, l := range m.Loadings {
		assert.InDelta(t, 0.8, l, 0.1, "loading %d", i)
		assert.InDelta(t, 1-l*l, m.Uniquenesses[i], 1e-6, "uniqueness %d", i)
		assert.InDelta(t, l*l, m.Communalities()[i], 1e-12)
	}

	// scores track the standardised mean of the indicators
	avg := make([]float64, 300)
	for _, col := range cols[:4] {
		z, err := stats.Standardize(col)
		require.NoError(t, err)
		for i := range avg {
			avg[i] += z[i] / 4
		}
	}
	r, err := stats.Pearson(m.Scores, avg)
	require.NoError(t, err)
	assert.Greater(t, r.R, 0.99)
}

func TestFit_SignNormalised(t *testing.T) {
	_, cols := oneFactorData(200, 3, 7)
	flipped := make([][]float64, len(cols[:3]))
	for j, col := range cols[:3] {
		flipped[j] = make([]float64, len(col))
		for i, v := range col {
			flipped[j][i] = -v
		}
	}

	m, err := Fit(flipped, DefaultConfig())
	require.NoError(t, err)

	var sum float64
	for _, l := range m.Loadings {
		sum += l
	}
	assert.GreaterOrEqual(t, sum, 0.0)
}

func TestFit_Errors(t *testing.T) {
	cfg := DefaultConfig()

	_, err := Fit([][]float64{{1, 2, 3}}, cfg)
	assert.ErrorIs(t, err, ErrTooFewColumns)

	_, err = Fit([][]float64{{1, 2}, {2, 1}}, cfg)
	assert.ErrorIs(t, err, stats.ErrInsufficientData)

	_, err = Fit([][]float64{{1, 2, 3, 4}, {5, 5, 5, 5}}, cfg)
	assert.ErrorIs(t, err, stats.ErrZeroVariance)

	_, err = Fit([][]float64{{1, 2, 3, 4}, {1, 2, 3}}, cfg)
	assert.ErrorIs(t, err, stats.ErrLengthMismatch)
}

func TestFit_MissingValuesFilled(t *testing.T) {
	_, cols := oneFactorData(120, 3, 3)
	cols[0][5] = math.NaN()
	cols[2][17] = math.NaN()

	m, err := Fit(cols[:3], DefaultConfig())
	require.NoError(t, err)
	for _, s := range m.Scores {
		assert.False(t, math.IsNaN(s))
	}
}

func TestExtract(t *testing.T) {
	names, cols := oneFactorData(300, 4, 42)

	tests := []struct {
		name    string
		names   []string
		columns [][]float64
		mutate  func(c *Config)
		check   func(t *testing.T, res *Result)
	}{
		{
			name:    "all loadings in band",
			names:   names[:4],
			columns: cols[:4],
			check: func(t *testing.T, res *Result) {
				assert.Equal(t, StateAccepted, res.State)
				assert.Equal(t, 1, res.Iterations)
				assert.Empty(t, res.Removed)
				assert.False(t, res.Fallback)
				assert.Equal(t, []State{StateFitting, StateAccepted}, res.Trace)
			},
		},
		{
			name:    "noise column pruned",
			names:   names,
			columns: cols,
			check: func(t *testing.T, res *Result) {
				assert.Equal(t, StateAccepted, res.State)
				assert.Equal(t, []string{"noise"}, res.Removed)
				assert.Equal(t, []string{"a", "b", "c", "d"}, res.Columns)
				assert.Equal(t, 2, res.Iterations)
				assert.Equal(t, []State{StateFitting, StatePruning, StateFitting, StateAccepted}, res.Trace)
				for _, l := range res.Loadings {
					assert.InDelta(t, 0.8, l, 0.1)
				}
				assert.Len(t, res.Scores, 300)
			},
		},
		{
			name:    "iteration cap prunes then refits once",
			names:   names,
			columns: cols,
			mutate:  func(c *Config) { c.MaxIterations = 1 },
			check: func(t *testing.T, res *Result) {
				assert.Equal(t, StateExhausted, res.State)
				assert.False(t, res.Fallback)
				assert.Equal(t, 2, res.Iterations)
				assert.Equal(t, []string{"a", "b", "c", "d"}, res.Columns)
				assert.Equal(t, []string{"noise"}, res.Removed)
				assert.Len(t, res.Loadings, 4)
				assert.Len(t, res.Scores, 300)
				assert.Equal(t, []State{StateFitting, StatePruning, StateFitting, StateExhausted}, res.Trace)
			},
		},
		{
			name:    "final refit kept even when out of band",
			names:   []string{"x", "y", "z"},
			columns: walsh(),
			mutate:  func(c *Config) { c.MaxIterations = 1 },
			check: func(t *testing.T, res *Result) {
				assert.Equal(t, StateExhausted, res.State)
				assert.False(t, res.Fallback)
				assert.Equal(t, 2, res.Iterations)
				assert.Len(t, res.Removed, 1)
				assert.Len(t, res.Columns, 2)
				assert.NotContains(t, res.Columns, res.Removed[0])
			},
		},
		{
			name:    "two columns",
			names:   names[:2],
			columns: cols[:2],
			check: func(t *testing.T, res *Result) {
				assert.False(t, res.Fallback)
				assert.Equal(t, []string{"a", "b"}, res.Columns)
				assert.Len(t, res.Loadings, 2)
				assert.Len(t, res.Scores, 300)
			},
		},
		{
			name:    "iteration cap with raw fallback",
			names:   names,
			columns: cols,
			mutate: func(c *Config) {
				c.MaxIterations = 1
				c.FallbackOnCap = true
			},
			check: func(t *testing.T, res *Result) {
				assert.Equal(t, StateExhausted, res.State)
				assert.True(t, res.Fallback)
				assert.Equal(t, []string{"a"}, res.Columns)
				assert.Equal(t, cols[0], res.Scores)
			},
		},
		{
			name:    "uncorrelated columns fall back to raw",
			names:   []string{"x", "y", "z"},
			columns: walsh(),
			check: func(t *testing.T, res *Result) {
				assert.Equal(t, StateExhausted, res.State)
				assert.True(t, res.Fallback)
				assert.Len(t, res.Removed, 2)
				assert.Equal(t, 2, res.Iterations)
				assert.Equal(t, []string{"x"}, res.Columns)
				assert.Equal(t, walsh()[0], res.Scores, "raw values of the first column")
				assert.Nil(t, res.Loadings)
			},
		},
		{
			name:    "single column",
			names:   []string{"only"},
			columns: [][]float64{{1, math.NaN(), 3}},
			check: func(t *testing.T, res *Result) {
				assert.Equal(t, StateExhausted, res.State)
				assert.True(t, res.Fallback)
				assert.Equal(t, 0, res.Iterations)
				assert.True(t, math.IsNaN(res.Scores[1]))
			},
		},
		{
			name:    "configurable band",
			names:   names[:4],
			columns: cols[:4],
			mutate:  func(c *Config) { c.LoadingLower, c.LoadingUpper = 0.9, 0.99 },
			check: func(t *testing.T, res *Result) {
				assert.NotEqual(t, StateAccepted, res.State)
				assert.NotEmpty(t, res.Removed)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			if tt.mutate != nil {
				tt.mutate(&cfg)
			}
			res, err := Extract(tt.names, tt.columns, cfg)
			require.NoError(t, err)
			tt.check(t, res)
		})
	}
}

func TestExtract_UpperBoundPruned(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	n := 250
	f := make([]float64, n)
	twin := make([]float64, n)
	other := make([]float64, n)
	for i := range f {
		f[i] = rng.NormFloat64()
		twin[i] = f[i] + 0.01*rng.NormFloat64()
		other[i] = 0.6*f[i] + 0.8*rng.NormFloat64()
	}

	res, err := Extract([]string{"f", "twin", "other"}, [][]float64{f, twin, other}, DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, StateAccepted, res.State)
	require.Len(t, res.Removed, 1)
	assert.Contains(t, []string{"f", "twin"}, res.Removed[0])
	assert.Contains(t, res.Columns, "other")
}

func TestExtract_Errors(t *testing.T) {
	cfg := DefaultConfig()

	_, err := Extract(nil, nil, cfg)
	assert.ErrorIs(t, err, ErrNoColumns)

	_, err = Extract([]string{"a", "b"}, [][]float64{{1, 2, 3}}, cfg)
	assert.Error(t, err)

	_, err = Extract([]string{"a", "flat"}, [][]float64{{1, 2, 3, 4}, {2, 2, 2, 2}}, cfg)
	assert.ErrorIs(t, err, stats.ErrZeroVariance)

	bad := cfg
	bad.MaxIterations = 0
	_, err = Extract([]string{"a"}, [][]float64{{1, 2, 3}}, bad)
	assert.Error(t, err)
}

func TestExtractor_ExtractFrame(t *testing.T) {
	names, cols := oneFactorData(60, 3, 5)
	f := dataset.NewFrame(monthlyDates(60))
	for i, name := range names[:3] {
		require.NoError(t, f.SetColumn(name, cols[i]))
	}

	e, err := NewExtractor(DefaultConfig(), nil)
	require.NoError(t, err)

	res, err := e.ExtractFrame(f, names[:3])
	require.NoError(t, err)
	assert.Len(t, res.Scores, 60)

	_, err = e.ExtractFrame(f, []string{"a", "missing"})
	assert.ErrorIs(t, err, dataset.ErrUnknownColumn)
}

func monthlyDates(n int) []time.Time {
	out := make([]time.Time, n)
	for i := range out {
		out[i] = time.Date(2004, time.Month(1+i), 1, 0, 0, 0, 0, time.UTC)
	}
	return out
}
