package domain

import (
	"fmt"

	expensedomain "github.com/smallbiznis/canopact/internal/expense/domain"
)

// AirBand picks the flight band: domestic up to 500 km, short-haul up to 2500 km,
// long-haul otherwise. Non-positive distances fall through to long-haul.
func AirBand(distanceKm float64) Band {
	switch {
	case distanceKm > 0 && distanceKm <= 500:
		return BandDomestic
	case distanceKm > 500 && distanceKm <= 2500:
		return BandShort
	default:
		return BandLong
	}
}

// BusBand picks local bus up to 25 km and coach beyond.
func BusBand(distanceKm float64) Band {
	if distanceKm > 0 && distanceKm <= 25 {
		return BandLocal
	}
	return BandCoach
}

// Compute converts a distance in km into per-gas emissions for the category.
func Compute(distanceKm float64, category expensedomain.Category, factors FactorTable) (Gases, error) {
	mode, err := category.Mode()
	if err != nil {
		return Gases{}, err
	}

	var out Gases
	for _, gas := range AllGases {
		gf, ok := factors[gas]
		if !ok {
			return Gases{}, fmt.Errorf("%w: gas %s", ErrMissingFactor, gas)
		}
		factor, err := gf.factorFor(mode, distanceKm)
		if err != nil {
			return Gases{}, fmt.Errorf("gas %s: %w", gas, err)
		}
		value := distanceKm * factor
		switch gas {
		case GasCO2e:
			out.CO2e = value
		case GasCO2:
			out.CO2 = value
		case GasCH4:
			out.CH4 = value
		case GasN2O:
			out.N2O = value
		}
	}
	return out, nil
}

func (gf GasFactors) factorFor(mode expensedomain.TravelMode, distanceKm float64) (float64, error) {
	var scalar *float64
	switch mode {
	case expensedomain.ModeCar:
		scalar = gf.Car
	case expensedomain.ModeTaxi:
		scalar = gf.Taxi
	case expensedomain.ModeTrain:
		scalar = gf.Train
	case expensedomain.ModeAir:
		return banded(gf.Air, AirBand(distanceKm), mode)
	case expensedomain.ModeBus:
		return banded(gf.Bus, BusBand(distanceKm), mode)
	default:
		return 0, fmt.Errorf("%w: mode %s", ErrMissingFactor, mode)
	}
	if scalar == nil {
		return 0, fmt.Errorf("%w: mode %s", ErrMissingFactor, mode)
	}
	return *scalar, nil
}

func banded(bands map[Band]float64, band Band, mode expensedomain.TravelMode) (float64, error) {
	factor, ok := bands[band]
	if !ok {
		return 0, fmt.Errorf("%w: mode %s band %s", ErrMissingFactor, mode, band)
	}
	return factor, nil
}
