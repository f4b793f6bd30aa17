package domain

import (
	"sort"
	"time"

	emissionsdomain "github.com/smallbiznis/canopact/internal/emissions/domain"
	expensedomain "github.com/smallbiznis/canopact/internal/expense/domain"
)

// Journey is one valid, costed, emission-bearing trip inside a window.
type Journey struct {
	ExpenseID   int64
	CreatedDate time.Time
	Category    expensedomain.Category
	Origin      *string
	Destination *string
	Distance    float64
	Cost        float64
	CO2e        float64 `gorm:"column:co2e"`
	CO2         float64 `gorm:"column:co2"`
	CH4         float64 `gorm:"column:ch4"`
	N2O         float64 `gorm:"column:n2o"`
}

func (j Journey) Gases() emissionsdomain.Gases {
	return emissionsdomain.Gases{CO2e: j.CO2e, CO2: j.CO2, CH4: j.CH4, N2O: j.N2O}
}

// MonthTotals accumulates one calendar month.
type MonthTotals struct {
	Month     MonthKey
	Journeys  int64
	Distance  float64
	Emissions emissionsdomain.Gases
}

// Reindex buckets journeys onto months. Months without journeys are present with
// zero totals; journeys outside the months are dropped.
func Reindex(months []MonthKey, journeys []Journey) []MonthTotals {
	out := make([]MonthTotals, len(months))
	index := make(map[MonthKey]int, len(months))
	for i, m := range months {
		out[i] = MonthTotals{Month: m}
		index[m] = i
	}
	for _, j := range journeys {
		i, ok := index[MonthOf(j.CreatedDate)]
		if !ok {
			continue
		}
		out[i].Journeys++
		out[i].Distance += j.Distance
		out[i].Emissions = out[i].Emissions.Add(j.Gases())
	}
	return out
}

// MonthlyPoint is one labelled chart value.
type MonthlyPoint struct {
	Month string  `json:"month"`
	Value float64 `json:"value"`
}

type MonthlyGasesPoint struct {
	Month     string                `json:"month"`
	Emissions emissionsdomain.Gases `json:"emissions"`
}

func EmissionsMonthly(totals []MonthTotals, sigFigs int) []MonthlyGasesPoint {
	out := make([]MonthlyGasesPoint, 0, len(totals))
	for _, t := range totals {
		out = append(out, MonthlyGasesPoint{Month: t.Month.Label(), Emissions: RoundGases(t.Emissions, sigFigs)})
	}
	return out
}

func JourneysMonthly(totals []MonthTotals) []MonthlyPoint {
	out := make([]MonthlyPoint, 0, len(totals))
	for _, t := range totals {
		out = append(out, MonthlyPoint{Month: t.Month.Label(), Value: float64(t.Journeys)})
	}
	return out
}

func DistanceMonthly(totals []MonthTotals, sigFigs int) []MonthlyPoint {
	out := make([]MonthlyPoint, 0, len(totals))
	for _, t := range totals {
		out = append(out, MonthlyPoint{Month: t.Month.Label(), Value: RoundToN(t.Distance, sigFigs)})
	}
	return out
}

// LineDatasets are the CO2e line charts of the dashboard.
type LineDatasets struct {
	Emissions  []MonthlyPoint `json:"emissions"`
	PerJourney []MonthlyPoint `json:"per_journey"`
	PerKm      []MonthlyPoint `json:"per_km"`
}

func Lines(totals []MonthTotals, sigFigs int) LineDatasets {
	lines := LineDatasets{
		Emissions:  make([]MonthlyPoint, 0, len(totals)),
		PerJourney: make([]MonthlyPoint, 0, len(totals)),
		PerKm:      make([]MonthlyPoint, 0, len(totals)),
	}
	for _, t := range totals {
		label := t.Month.Label()
		lines.Emissions = append(lines.Emissions, MonthlyPoint{Month: label, Value: RoundToN(t.Emissions.CO2e, sigFigs)})
		lines.PerJourney = append(lines.PerJourney, MonthlyPoint{Month: label, Value: RoundToN(safeDiv(t.Emissions.CO2e, float64(t.Journeys)), sigFigs)})
		lines.PerKm = append(lines.PerKm, MonthlyPoint{Month: label, Value: RoundToN(safeDiv(t.Emissions.CO2e, t.Distance), sigFigs)})
	}
	return lines
}

// GroupRow is one line of a breakdown table.
type GroupRow struct {
	Label       string  `json:"label"`
	Origin      *string `json:"origin,omitempty"`
	Destination *string `json:"destination,omitempty"`
	Count       int64   `json:"count"`
	CO2e        float64 `json:"co2e" gorm:"column:co2e"`
	Percentage  float64 `json:"percentage"`
}

// WithShares fills Percentage as each row's share of the total count and orders
// rows by count, largest first.
func WithShares(rows []GroupRow, decimals int) []GroupRow {
	var total int64
	for _, r := range rows {
		total += r.Count
	}
	out := make([]GroupRow, len(rows))
	copy(out, rows)
	for i := range out {
		out[i].Percentage = Share(float64(out[i].Count), float64(total), decimals)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	return out
}
