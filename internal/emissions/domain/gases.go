package domain

// Gases is one value per reported gas, in kilograms unless stated otherwise.
type Gases struct {
	CO2e float64 `json:"co2e"`
	CO2  float64 `json:"co2"`
	CH4  float64 `json:"ch4"`
	N2O  float64 `json:"n2o"`
}

func (g Gases) Value(gas Gas) float64 {
	switch gas {
	case GasCO2e:
		return g.CO2e
	case GasCO2:
		return g.CO2
	case GasCH4:
		return g.CH4
	case GasN2O:
		return g.N2O
	default:
		return 0
	}
}

// Map applies fn to every gas.
func (g Gases) Map(fn func(Gas, float64) float64) Gases {
	return Gases{
		CO2e: fn(GasCO2e, g.CO2e),
		CO2:  fn(GasCO2, g.CO2),
		CH4:  fn(GasCH4, g.CH4),
		N2O:  fn(GasN2O, g.N2O),
	}
}

func (g Gases) Add(o Gases) Gases {
	return Gases{
		CO2e: g.CO2e + o.CO2e,
		CO2:  g.CO2 + o.CO2,
		CH4:  g.CH4 + o.CH4,
		N2O:  g.N2O + o.N2O,
	}
}
