package domain

import (
	"time"

	emissionsdomain "github.com/smallbiznis/canopact/internal/emissions/domain"
)

// Totals are the sums over one window.
type Totals struct {
	Emissions emissionsdomain.Gases
	Distance  float64
	Journeys  int64
	Cost      float64
}

type DashboardRequest struct {
	Subject     Subject
	Granularity Granularity
	Date        time.Time
}

// GasesCard compares a gas vector with the previous period.
type GasesCard struct {
	Current  emissionsdomain.Gases `json:"current"`
	Previous emissionsdomain.Gases `json:"previous"`
	Change   emissionsdomain.Gases `json:"change"`
}

// ValueCard compares a scalar with the previous period.
type ValueCard struct {
	Current  float64 `json:"current"`
	Previous float64 `json:"previous"`
	Change   float64 `json:"change"`
}

type KPIs struct {
	Emissions           GasesCard `json:"emissions"`
	EmissionsPerJourney GasesCard `json:"emissions_per_journey"`
	Cost                ValueCard `json:"cost"`
	CostPerJourney      ValueCard `json:"cost_per_journey"`
}

type Charts struct {
	Journeys  []MonthlyPoint      `json:"journeys"`
	Emissions []MonthlyGasesPoint `json:"emissions"`
	Distance  []MonthlyPoint      `json:"distance"`
	Lines     LineDatasets        `json:"lines"`
}

type Tables struct {
	Transport []GroupRow `json:"transport"`
	Routes    []GroupRow `json:"routes"`
}

type Dashboard struct {
	Granularity Granularity `json:"granularity"`
	Date        string      `json:"date"`
	KPIs        KPIs        `json:"kpis"`
	Charts      Charts      `json:"charts"`
	Tables      Tables      `json:"tables"`
}
