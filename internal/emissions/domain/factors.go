package domain

import (
	"errors"
	"fmt"
)

// Gas identifies one of the greenhouse gases reported per journey.
type Gas string

const (
	GasCO2e Gas = "co2e"
	GasCO2  Gas = "co2"
	GasCH4  Gas = "ch4"
	GasN2O  Gas = "n2o"
)

var AllGases = []Gas{GasCO2e, GasCO2, GasCH4, GasN2O}

// Band is a distance band for modes whose factor depends on trip length.
type Band string

const (
	BandDomestic Band = "domestic"
	BandShort    Band = "short"
	BandLong     Band = "long"
	BandLocal    Band = "local"
	BandCoach    Band = "coach"
)

var (
	AirBands = []Band{BandDomestic, BandShort, BandLong}
	BusBands = []Band{BandLocal, BandCoach}
)

var ErrMissingFactor = errors.New("missing_emission_factor")

// GasFactors holds kg-per-km factors for a single gas. Scalar modes are pointers
// so an absent entry can be told apart from a zero factor.
type GasFactors struct {
	Car   *float64         `mapstructure:"car" json:"car"`
	Taxi  *float64         `mapstructure:"taxi" json:"taxi"`
	Train *float64         `mapstructure:"train" json:"train"`
	Air   map[Band]float64 `mapstructure:"air" json:"air"`
	Bus   map[Band]float64 `mapstructure:"bus" json:"bus"`
}

// FactorTable maps each gas to its per-mode factors.
type FactorTable map[Gas]GasFactors

// FactorProvider supplies the current factor table. Implementations may reload it.
type FactorProvider interface {
	Get() FactorTable
}

// StaticFactors serves a fixed table.
type StaticFactors FactorTable

func (s StaticFactors) Get() FactorTable { return FactorTable(s) }

// Validate checks that every gas carries every mode and band.
func (t FactorTable) Validate() error {
	for _, gas := range AllGases {
		gf, ok := t[gas]
		if !ok {
			return fmt.Errorf("%w: gas %s", ErrMissingFactor, gas)
		}
		if gf.Car == nil || gf.Taxi == nil || gf.Train == nil {
			return fmt.Errorf("%w: gas %s requires car, taxi and train", ErrMissingFactor, gas)
		}
		for _, band := range AirBands {
			if _, ok := gf.Air[band]; !ok {
				return fmt.Errorf("%w: gas %s air band %s", ErrMissingFactor, gas, band)
			}
		}
		for _, band := range BusBands {
			if _, ok := gf.Bus[band]; !ok {
				return fmt.Errorf("%w: gas %s bus band %s", ErrMissingFactor, gas, band)
			}
		}
	}
	return nil
}

func f64(v float64) *float64 { return &v }

// DefaultFactors is the DEFRA conversion table in kg per passenger-km.
func DefaultFactors() FactorTable {
	return FactorTable{
		GasCO2e: {
			Car: f64(0.1714), Taxi: f64(0.20369), Train: f64(0.03694),
			Air: map[Band]float64{BandDomestic: 0.2443, BandShort: 0.15553, BandLong: 0.19085},
			Bus: map[Band]float64{BandLocal: 0.10312, BandCoach: 0.02732},
		},
		GasCO2: {
			Car: f64(0.17015), Taxi: f64(0.20185), Train: f64(0.03659),
			Air: map[Band]float64{BandDomestic: 0.24298, BandShort: 0.15475, BandLong: 0.18989},
			Bus: map[Band]float64{BandLocal: 0.10231, BandCoach: 0.02679},
		},
		GasCH4: {
			Car: f64(0.00016), Taxi: f64(0.00000349), Train: f64(0.00006),
			Air: map[Band]float64{BandDomestic: 0.00011, BandShort: 0.00001, BandLong: 0.00001},
			Bus: map[Band]float64{BandLocal: 0.00002, BandCoach: 0.00001},
		},
		GasN2O: {
			Car: f64(0.00109), Taxi: f64(0.00184), Train: f64(0.00006),
			Air: map[Band]float64{BandDomestic: 0.00121, BandShort: 0.00077, BandLong: 0.00095},
			Bus: map[Band]float64{BandLocal: 0.00079, BandCoach: 0.00052},
		},
	}
}
