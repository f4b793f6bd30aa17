package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrailingWindow(t *testing.T) {
	ref := time.Date(2024, 6, 15, 13, 45, 0, 0, time.UTC)

	w := TrailingWindow(ref, 6, false)
	assert.Equal(t, time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), w.End)
	// 6 * 365/12 = 182.5 days back, truncated to the day.
	assert.Equal(t, time.Date(2023, 12, 15, 0, 0, 0, 0, time.UTC), w.Start)

	prev := TrailingWindow(ref, 6, true)
	// one average month earlier: 30.42 days, truncated.
	assert.Equal(t, time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC), prev.End)
	assert.True(t, prev.Start.Before(w.Start))
}

func TestTrailingMonths(t *testing.T) {
	months := TrailingMonths(time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC), 4)
	require.Len(t, months, 4)
	labels := make([]string, 0, len(months))
	for _, m := range months {
		labels = append(labels, m.Label())
	}
	assert.Equal(t, []string{"Nov", "Dec", "Jan", "Feb"}, labels)
	assert.Equal(t, 2023, months[0].Year)
	assert.Nil(t, TrailingMonths(time.Now(), 0))
}

func TestReindexFillsMissingMonths(t *testing.T) {
	ref := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	months := TrailingMonths(ref, 6)

	journeys := []Journey{
		{CreatedDate: time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC), Distance: 10, CO2e: 1},
		{CreatedDate: time.Date(2024, 2, 20, 0, 0, 0, 0, time.UTC), Distance: 30, CO2e: 2},
		{CreatedDate: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), Distance: 5, CO2e: 0.5},
		{CreatedDate: time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC), Distance: 99, CO2e: 9},
	}
	totals := Reindex(months, journeys)
	require.Len(t, totals, 6)

	points := EmissionsMonthly(totals, 2)
	labels := make([]string, 0, len(points))
	for _, p := range points {
		labels = append(labels, p.Month)
	}
	assert.Equal(t, []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun"}, labels)
	assert.Equal(t, 0.0, points[0].Emissions.CO2e)
	assert.Equal(t, 3.0, points[1].Emissions.CO2e)
	assert.Equal(t, 0.0, points[2].Emissions.CO2e)
	assert.Equal(t, 0.5, points[4].Emissions.CO2e)

	journeysPerMonth := JourneysMonthly(totals)
	assert.Equal(t, 2.0, journeysPerMonth[1].Value)

	lines := Lines(totals, 2)
	assert.Equal(t, 1.5, lines.PerJourney[1].Value)
	assert.Equal(t, 0.075, lines.PerKm[1].Value)
	assert.Equal(t, 0.0, lines.PerKm[0].Value)
}

func TestMonthlyWindow(t *testing.T) {
	ref := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)
	w := MonthlyWindow(ref, 8)
	assert.Equal(t, time.Date(2023, 8, 1, 0, 0, 0, 0, time.UTC), w.Start)
	assert.Equal(t, ref, w.End)
}
