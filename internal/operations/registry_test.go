package operations_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"littleluxuries/internal/operations"
	"littleluxuries/internal/operations/testutil"
)

func stepIDs(steps []operations.Step) []string {
	ids := make([]string, len(steps))
	for i, s := range steps {
		ids[i] = s.ID()
	}
	return ids
}

func TestRegistry_Register(t *testing.T) {
	registry := operations.NewRegistry()
	assert.Equal(t, 0, registry.Count())
	assert.NotNil(t, registry.List())

	s1 := testutil.CreateSuccessfulStage("load", "Load")
	s2 := testutil.CreateSuccessfulStage("score", "Score", "load")
	require.NoError(t, registry.Register(s1))
	require.NoError(t, registry.Register(s2))

	assert.Equal(t, 2, registry.Count())
	assert.True(t, registry.Has("load"))
	assert.False(t, registry.Has("chart"))
	assert.Equal(t, []string{"load", "score"}, registry.ListIDs())

	got, err := registry.Get("score")
	require.NoError(t, err)
	assert.Same(t, s2, got)

	_, err = registry.Get("chart")
	assert.Error(t, err)
}

func TestRegistry_RegisterErrors(t *testing.T) {
	tests := []struct {
		name    string
		step    operations.Step
		wantErr string
	}{
		{name: "nil step", step: nil, wantErr: "nil Step"},
		{name: "empty id", step: &testutil.MockStage{NameValue: "No ID"}, wantErr: "ID cannot be empty"},
		{name: "duplicate", step: testutil.CreateSuccessfulStage("dup", "Again"), wantErr: "already registered"},
	}

	registry := operations.NewRegistry()
	require.NoError(t, registry.Register(testutil.CreateSuccessfulStage("dup", "Dup")))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := registry.Register(tt.step)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRegistry_GetDependencyOrder(t *testing.T) {
	tests := []struct {
		name    string
		steps   []*testutil.MockStage
		want    []string
		wantErr string
	}{
		{
			name: "chain registered backwards",
			steps: []*testutil.MockStage{
				testutil.CreateSuccessfulStage("c", "C", "b"),
				testutil.CreateSuccessfulStage("b", "B", "a"),
				testutil.CreateSuccessfulStage("a", "A"),
			},
			want: []string{"a", "b", "c"},
		},
		{
			name: "ties keep registration order",
			steps: []*testutil.MockStage{
				testutil.CreateSuccessfulStage("sources", "Sources"),
				testutil.CreateSuccessfulStage("search", "Search", "sources"),
				testutil.CreateSuccessfulStage("correlations", "Correlations", "sources"),
				testutil.CreateSuccessfulStage("charts", "Charts", "search", "correlations"),
				testutil.CreateSuccessfulStage("retail", "Retail", "sources"),
			},
			want: []string{"sources", "search", "correlations", "retail", "charts"},
		},
		{
			name: "missing dependency",
			steps: []*testutil.MockStage{
				testutil.CreateSuccessfulStage("a", "A", "ghost"),
			},
			wantErr: "non-existent",
		},
		{
			name: "cycle",
			steps: []*testutil.MockStage{
				testutil.CreateSuccessfulStage("a", "A", "c"),
				testutil.CreateSuccessfulStage("b", "B", "a"),
				testutil.CreateSuccessfulStage("c", "C", "b"),
			},
			wantErr: "cycle",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := operations.NewRegistry()
			for _, s := range tt.steps {
				require.NoError(t, registry.Register(s))
			}

			ordered, err := registry.GetDependencyOrder()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Error(t, registry.ValidateDependencies())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, stepIDs(ordered))
			assert.NoError(t, registry.ValidateDependencies())
		})
	}
}

func TestRegistry_GetDependents(t *testing.T) {
	registry := operations.NewRegistry()
	require.NoError(t, registry.Register(testutil.CreateSuccessfulStage("scores", "Scores")))
	require.NoError(t, registry.Register(testutil.CreateSuccessfulStage("search", "Search", "scores")))
	require.NoError(t, registry.Register(testutil.CreateSuccessfulStage("retail", "Retail", "scores")))
	require.NoError(t, registry.Register(testutil.CreateSuccessfulStage("ranking", "Ranking", "search")))

	assert.Equal(t, []string{"search", "retail"}, stepIDs(registry.GetDependents("scores")))
	assert.Empty(t, registry.GetDependents("ranking"))
}
