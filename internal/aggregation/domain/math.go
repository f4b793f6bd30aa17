package domain

import (
	"math"

	emissionsdomain "github.com/smallbiznis/canopact/internal/emissions/domain"
)

// RoundToN rounds v to n significant figures. Zero stays zero.
func RoundToN(v float64, n int) float64 {
	if v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	if n <= 0 {
		n = 1
	}
	digits := n - 1 - int(math.Floor(math.Log10(math.Abs(v))))
	pow := math.Pow(10, float64(digits))
	return math.Round(v*pow) / pow
}

// RoundNullable treats a missing value as zero.
func RoundNullable(v *float64, n int) float64 {
	if v == nil {
		return 0
	}
	return RoundToN(*v, n)
}

func RoundGases(g emissionsdomain.Gases, n int) emissionsdomain.Gases {
	return g.Map(func(_ emissionsdomain.Gas, v float64) float64 { return RoundToN(v, n) })
}

// PercentChange is the change from prev to cur relative to cur. A zero current
// value reports 0 when prev is zero too, otherwise -100.
func PercentChange(cur, prev float64) float64 {
	if cur == 0 {
		if prev == 0 {
			return 0
		}
		return -100
	}
	return 100 * (cur - prev) / cur
}

func EmissionsPercentageDiff(cur, prev emissionsdomain.Gases) emissionsdomain.Gases {
	return cur.Map(func(gas emissionsdomain.Gas, v float64) float64 {
		return PercentChange(v, prev.Value(gas))
	})
}

// EmissionsPerDistance divides every gas by km; zero distance yields zeros.
func EmissionsPerDistance(g emissionsdomain.Gases, km float64) emissionsdomain.Gases {
	return divide(g, km)
}

// EmissionsPerJourney divides every gas by the journey count; no journeys yields zeros.
func EmissionsPerJourney(g emissionsdomain.Gases, journeys int64) emissionsdomain.Gases {
	return divide(g, float64(journeys))
}

func divide(g emissionsdomain.Gases, denominator float64) emissionsdomain.Gases {
	if denominator == 0 {
		return emissionsdomain.Gases{}
	}
	return g.Map(func(_ emissionsdomain.Gas, v float64) float64 { return v / denominator })
}

func safeDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

// Share returns part as a percentage of total rounded to decimals places.
func Share(part, total float64, decimals int) float64 {
	if total == 0 {
		return 0
	}
	pow := math.Pow(10, float64(decimals))
	return math.Round(100*part/total*pow) / pow
}
