// Package analysis holds the research computations: building the master
// monthly dataset, latent search scores, regressions against consumer
// confidence, fashion/economic correlation matrices, indicator ranking and
// derived features.
package analysis

import (
	"fmt"
	"math"

	"littleluxuries/internal/config"
	"littleluxuries/internal/dataset"
	"littleluxuries/internal/sources"
)

// Derived master columns
const (
	ColCPI              = "cpi"
	ColCPIIndex         = "cpi_index"
	ColInflationYoY     = "inflation_rate_yoy"
	ColRetailClothing   = "retail_sales_clothing"
	ColRetailReal       = "retail_sales_real"
	ColYear             = "year"
	ColMonth            = "month"
	ColQuarter          = "quarter"
	ColPeriod           = "period"
	ColEconomicPeriod   = "economic_period"
	ColIsRecession      = "is_recession"
	ColCCICategory      = "cci_category"
	ColUnemploymentCat  = "unemployment_category"
	ColUnemploymentRate = "unemployment_rate"
)

// BuildMaster left-joins the FRED series onto the trends frame by calendar
// month, renaming each series to its analysis column, and derives the
// inflation measures, calendar columns and the recession period label.
func BuildMaster(trends *dataset.Frame, series []sources.Series) (*dataset.Frame, error) {
	master := trends.Clone()

	for _, s := range series {
		right := s.Frame.Clone()
		if err := right.Rename(s.ID, config.FREDColumn(s.ID)); err != nil {
			return nil, fmt.Errorf("series %s: %w", s.ID, err)
		}
		merged, err := master.MergeLeft(right)
		if err != nil {
			return nil, fmt.Errorf("merge %s: %w", s.ID, err)
		}
		master = merged
	}

	if err := addInflation(master); err != nil {
		return nil, err
	}
	if err := addCalendar(master); err != nil {
		return nil, err
	}
	return master, nil
}

// addInflation derives cpi_index (cpi relative to the first observed cpi),
// the 12-month inflation rate in percent and clothing sales in base-month
// prices
func addInflation(f *dataset.Frame) error {
	cpi, ok := f.Column(ColCPI)
	if !ok {
		return nil
	}

	base := math.NaN()
	for _, v := range cpi {
		if !math.IsNaN(v) {
			base = v
			break
		}
	}
	index := make([]float64, len(cpi))
	for i, v := range cpi {
		index[i] = v / base
	}
	if err := f.SetColumn(ColCPIIndex, index); err != nil {
		return err
	}

	yoy, err := f.PctChange(ColCPI, 12)
	if err != nil {
		return err
	}
	for i := range yoy {
		yoy[i] *= 100
	}
	if err := f.SetColumn(ColInflationYoY, yoy); err != nil {
		return err
	}

	clothing, ok := f.Column(ColRetailClothing)
	if !ok {
		return nil
	}
	deflated := make([]float64, len(clothing))
	for i := range clothing {
		deflated[i] = clothing[i] / index[i]
	}
	return f.SetColumn(ColRetailReal, deflated)
}

func addCalendar(f *dataset.Frame) error {
	n := f.Len()
	year := make([]float64, n)
	mon := make([]float64, n)
	quarter := make([]float64, n)
	period := make([]string, n)
	for i, d := range f.Dates() {
		year[i] = float64(d.Year())
		mon[i] = float64(d.Month())
		quarter[i] = float64((int(d.Month())-1)/3 + 1)
		period[i] = RecessionPeriod(d)
	}

	for _, c := range []struct {
		name   string
		values []float64
	}{{ColYear, year}, {ColMonth, mon}, {ColQuarter, quarter}} {
		if err := f.SetColumn(c.name, c.values); err != nil {
			return err
		}
	}
	return f.SetLabels(ColPeriod, period)
}
