package livedata

import (
	"math"
	"math/rand"
)

// metric draws a uniform random value from [min, max] rounded to the given
// number of decimals.
func metric(min, max float64, decimals int) float64 {
	v := rand.Float64()*(max-min) + min //nolint:gosec // simulation data, not crypto
	pow := math.Pow10(decimals)

	return math.Round(v*pow) / pow
}

// Generate synthesizes one reading. Ranges and precisions per metric are
// fixed; see the dashboard widgets for the units they assume.
func Generate() Reading {
	return Reading{
		AirQuality: AirQuality{
			PM25: metric(0, 50, 1),
			PM10: metric(0, 100, 1),
			CO:   metric(0, 10, 2),
			NO2:  metric(0, 100, 1),
			O3:   metric(0, 100, 1),
		},
		Weather: Weather{
			Temperature:   metric(-10, 40, 1),
			Humidity:      metric(0, 100, 0),
			Pressure:      metric(950, 1050, 0),
			WindSpeed:     metric(0, 20, 1),
			Precipitation: metric(0, 10, 1),
		},
		Energy: Energy{
			Consumption:     metric(0, 10, 2),
			SolarGeneration: metric(0, 8, 2),
		},
		Water: Water{
			Consumption: metric(0, 1000, 0),
			PH:          metric(6, 8, 1),
			Turbidity:   metric(0, 5, 1),
		},
		Waste: Waste{
			GeneralWaste: metric(0, 50, 0),
			Recycling:    metric(0, 30, 0),
			Compost:      metric(0, 20, 0),
		},
	}
}
