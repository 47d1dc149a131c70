package exporter

import (
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"littleluxuries/internal/config"
	apperrors "littleluxuries/internal/errors"
)

func TestLoadSearchResults_ReadsExport(t *testing.T) {
	for _, tableau := range []bool{false, true} {
		writer, paths := setupTestEnv(t, true)
		e := NewResearchExporter(writer)

		file := config.SearchResultsFile
		path := paths.ProcessedPath(file)
		if tableau {
			file = tableauPath(config.TableauSearchResultsFile)
			path = paths.TableauPath(config.TableauSearchResultsFile)
		}
		require.NoError(t, e.ExportSearchResults(file, sampleResults(), tableau))

		got, err := LoadSearchResults(path)
		require.NoError(t, err)
		assert.Equal(t, sampleResults()[0].Indicator, got[0].Indicator)
		assert.Equal(t, "", got[0].Group)
		assert.True(t, got[0].Significant)
		assert.False(t, got[1].Significant)
		assert.InDelta(t, 0.0001, got[0].PValue, 1e-12)
		assert.Equal(t, 24, got[0].N)
		assert.Equal(t, 5, got[1].VariablesUsed)
	}
}

func TestReadSearchResults_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		errType apperrors.ErrorType
	}{
		{"empty", "", apperrors.ErrTypeValidation},
		{"missing column", "Indicator,Category\nx,y\n", apperrors.ErrTypeValidation},
		{"bad number", "Indicator,R_squared,Coefficient,P_value,F_statistic\nx,abc,1,0.1,2\n", apperrors.ErrTypeParsing},
		{"ragged rows", "Indicator,R_squared\nx,1,2\n", apperrors.ErrTypeParsing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadSearchResults(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, tt.errType), err.Error())
		})
	}
}

func TestReadSearchResults_EmptyCellsAreNaN(t *testing.T) {
	got, err := ReadSearchResults(strings.NewReader("Indicator,R_squared,Coefficient,P_value,F_statistic\nx,,1,0.5,\n"))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, math.IsNaN(got[0].RSquared))
	assert.True(t, math.IsNaN(got[0].FStatistic))
}

func TestLoadSearchResults_MissingFile(t *testing.T) {
	_, err := LoadSearchResults(filepath.Join(t.TempDir(), "nope.csv"))
	assert.True(t, apperrors.IsNotFound(err))
}
