package config

// Indicator is a fashion search indicator: a group of Google Trends search
// terms summarised into one latent score.
type Indicator struct {
	Name     string   `yaml:"name" validate:"required"`
	Category string   `yaml:"category"`
	Group    string   `yaml:"group"`
	Terms    []string `yaml:"terms" validate:"min=1"`
}

// ScoreColumn is the frame column holding the indicator's latent score.
func (i Indicator) ScoreColumn() string {
	return i.Name + "_score"
}

// EconomicIndicator is a macroeconomic column with its display label.
type EconomicIndicator struct {
	Column string `yaml:"column" validate:"required"`
	Label  string `yaml:"label"`
}

// FREDSeries maps a FRED series id to the column name used in the master dataset.
type FREDSeries struct {
	ID     string
	Column string
}

var fredSeries = []FREDSeries{
	{ID: "CPILFESL", Column: "cpi"},
	{ID: "UMCSENT", Column: "consumer_sentiment"},
	{ID: "UNRATE", Column: "unemployment_rate"},
	{ID: "MRTSSM448USN", Column: "retail_sales_clothing"},
	{ID: "PSAVERT", Column: "personal_saving_rate"},
}

// DefaultFREDSeriesIDs returns the ids of the FRED series a run looks for.
func DefaultFREDSeriesIDs() []string {
	ids := make([]string, len(fredSeries))
	for i, s := range fredSeries {
		ids[i] = s.ID
	}
	return ids
}

// FREDColumn returns the analysis column name for a FRED series id, or the
// id itself when the series is not a known one.
func FREDColumn(id string) string {
	for _, s := range fredSeries {
		if s.ID == id {
			return s.Column
		}
	}
	return id
}

// DefaultIndicators returns the eight fashion indicators and their search terms.
func DefaultIndicators() []Indicator {
	return []Indicator{
		{
			Name: "Indie Sleaze", Category: "Fashion", Group: "Fashion Trends",
			Terms: []string{"indiesleaze_skinnyjeans", "indiesleaze_cheetahprint", "indiesleaze_furcoat",
				"indiesleaze_leatherskirt", "indiesleaze_discopants"},
		},
		{
			Name: "Lipstick Index", Category: "Beauty & Cosmetics", Group: "Beauty & Cosmetics",
			Terms: []string{"lipstickindex_lipstick", "lipstickindex_lip_stick", "lipstickindex_lipgloss",
				"lipstickindex_lipliner", "lipstickindex_liptint"},
		},
		{
			Name: "Maxi Skirt", Category: "Fashion", Group: "Fashion Trends",
			Terms: []string{"maxiskirt_maxiskirt", "maxiskirt_longskirt", "maxiskirt_bohoskirt",
				"maxiskirt_maxidress", "maxiskirt_longdress"},
		},
		{
			Name: "Big Bag", Category: "Accessories", Group: "Accessories",
			Terms: []string{"bigbag_hobobag", "bigbag_oversizedbag", "bigbag_totebag",
				"bigbag_neverfull", "bigbag_balenciagacitybag"},
		},
		{
			Name: "High Heel Index", Category: "Fashion", Group: "Accessories",
			Terms: []string{"highheelindex_highheels", "highheelindex_stilletoheel", "highheelindex_platforms",
				"highheelindex_platformheels", "highheelindex_pumps"},
		},
		{
			Name: "Peplums", Category: "Fashion", Group: "Fashion Trends",
			Terms: []string{"peplums_peplum", "peplums_peplumtops", "peplums_peplumdress",
				"peplums_rufflewaist", "peplums_peplumblazer"},
		},
		{
			Name: "Blazers", Category: "Fashion", Group: "Fashion Trends",
			Terms: []string{"blazers_blazer", "blazers_womensblazer", "blazers_oversizedblazer",
				"blazers_boyfriendblazer", "blazers_croppedblazer"},
		},
		{
			Name: "Mini Skirts", Category: "Fashion", Group: "Fashion Trends",
			Terms: []string{"mini_miniskirt", "mini_minidress", "mini_micromini",
				"mini_microshort", "mini_micominiskirt"},
		},
	}
}

// DefaultEconomicIndicators returns the economic columns correlated against
// the fashion scores, in display order.
func DefaultEconomicIndicators() []EconomicIndicator {
	return []EconomicIndicator{
		{Column: "cci", Label: "Consumer Confidence"},
		{Column: "cpi", Label: "CPI"},
		{Column: "inflation_rate_yoy", Label: "Inflation Rate (YoY)"},
		{Column: "consumer_sentiment", Label: "Consumer Sentiment"},
		{Column: "unemployment_rate", Label: "Unemployment Rate"},
		{Column: "retail_sales_clothing", Label: "Retail Sales (Clothing)"},
		{Column: "retail_sales_real", Label: "Real Retail Sales"},
		{Column: "personal_saving_rate", Label: "Personal Saving Rate"},
	}
}

// LookupIndicator finds an indicator by name.
func (a AnalysisConfig) LookupIndicator(name string) (Indicator, bool) {
	for _, ind := range a.Indicators {
		if ind.Name == name {
			return ind, true
		}
	}
	return Indicator{}, false
}

// EconomicLabel returns the display label for an economic column.
func (a AnalysisConfig) EconomicLabel(column string) string {
	for _, e := range a.Economic {
		if e.Column == column && e.Label != "" {
			return e.Label
		}
	}
	return column
}
