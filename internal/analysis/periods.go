package analysis

import "time"

// Recession period labels used in the master dataset
const (
	PeriodNormal          = "Normal"
	PeriodGreatRecession  = "Great Recession"
	PeriodCOVID           = "COVID-19 Crisis"
	PeriodInflationSurge  = "Inflation Surge"
	EconomicPeriodUnknown = "Unknown"
)

type span struct {
	label      string
	start, end time.Time
}

func month(y int, m time.Month) time.Time {
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

var recessionSpans = []span{
	{PeriodGreatRecession, month(2007, 12), month(2009, 6)},
	{PeriodCOVID, month(2020, 2), month(2020, 4)},
	{PeriodInflationSurge, month(2022, 1), month(2023, 6)},
}

// economicSpans cover every month from 2004 on; later spans are only
// reached when earlier ones do not match
var economicSpans = []span{
	{"Pre-Recession (2004-2007)", time.Time{}, month(2008, 8)},
	{"Great Recession (2008-2010)", month(2008, 9), month(2010, 6)},
	{"Recovery Period (2010-2020)", month(2010, 7), month(2020, 2)},
	{"COVID-19 Pandemic (2020-2021)", month(2020, 3), month(2021, 6)},
	{"Post-COVID Recovery (2021-2022)", month(2021, 7), month(2022, 12)},
	{"Inflation Period (2023-2024)", month(2023, 1), month(2024, 6)},
}

const recentPeriod = "Recent (2024-2025)"

func monthOf(d time.Time) time.Time {
	return month(d.Year(), d.Month())
}

func (s span) contains(d time.Time) bool {
	m := monthOf(d)
	return !m.Before(s.start) && !m.After(s.end)
}

// RecessionPeriod labels a month as one of the crisis periods or Normal
func RecessionPeriod(d time.Time) string {
	for _, s := range recessionSpans {
		if s.contains(d) {
			return s.label
		}
	}
	return PeriodNormal
}

// IsRecession reports whether a recession period label is a downturn
// (the Great Recession or the COVID-19 crisis)
func IsRecession(period string) bool {
	return period == PeriodGreatRecession || period == PeriodCOVID
}

// EconomicPeriod labels a month with the broader dashboard period buckets
func EconomicPeriod(d time.Time) string {
	if d.IsZero() {
		return EconomicPeriodUnknown
	}
	for _, s := range economicSpans {
		if s.contains(d) {
			return s.label
		}
	}
	return recentPeriod
}

// EconomicPeriods lists the dashboard buckets in chronological order
func EconomicPeriods() []string {
	out := make([]string, 0, len(economicSpans)+1)
	for _, s := range economicSpans {
		out = append(out, s.label)
	}
	return append(out, recentPeriod)
}
