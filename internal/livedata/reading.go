// Package livedata synthesizes environmental sensor readings and defines
// the payload pushed to dashboard clients. Readings are generated fresh per
// request; nothing is persisted and no history is kept server side.
package livedata

// AirQuality groups the air pollution metrics of a reading.
type AirQuality struct {
	PM25 float64 `json:"pm25"`
	PM10 float64 `json:"pm10"`
	CO   float64 `json:"co"`
	NO2  float64 `json:"no2"`
	O3   float64 `json:"o3"`
}

// Weather groups the meteorological metrics of a reading.
type Weather struct {
	Temperature   float64 `json:"temperature"`
	Humidity      float64 `json:"humidity"`
	Pressure      float64 `json:"pressure"`
	WindSpeed     float64 `json:"windSpeed"`
	Precipitation float64 `json:"precipitation"`
}

// Energy groups the power metrics of a reading.
type Energy struct {
	Consumption     float64 `json:"consumption"`
	SolarGeneration float64 `json:"solarGeneration"`
}

// Water groups the water quality and usage metrics of a reading.
type Water struct {
	Consumption float64 `json:"consumption"`
	PH          float64 `json:"pH"`
	Turbidity   float64 `json:"turbidity"`
}

// Waste groups the waste stream metrics of a reading.
type Waste struct {
	GeneralWaste float64 `json:"generalWaste"`
	Recycling    float64 `json:"recycling"`
	Compost      float64 `json:"compost"`
}

// Reading is one synthetic multi-domain sensor reading. It is a value
// object: no identity, no history.
type Reading struct {
	AirQuality AirQuality `json:"airQuality"`
	Weather    Weather    `json:"weather"`
	Energy     Energy     `json:"energy"`
	Water      Water      `json:"water"`
	Waste      Waste      `json:"waste"`
}
