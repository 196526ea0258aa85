package weather

import (
	"strconv"

	"github.com/tedlu-tw/townpass-dev/internal/shared/geo"
)

// cwaResponse is the envelope of the CWA 36-hour forecast dataset
// (F-C0032-001).
type cwaResponse struct {
	Success string `json:"success"`
	Records struct {
		Location []ForecastLocation `json:"location"`
	} `json:"records"`
}

// ForecastLocation is one city's forecast, element-major the way CWA
// serves it.
type ForecastLocation struct {
	LocationName   string           `json:"locationName"`
	WeatherElement []WeatherElement `json:"weatherElement"`
}

type WeatherElement struct {
	ElementName string        `json:"elementName"`
	Time        []ElementTime `json:"time"`
}

type ElementTime struct {
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Parameter struct {
		ParameterName string `json:"parameterName"`
		ParameterUnit string `json:"parameterUnit"`
	} `json:"parameter"`
}

// ForecastPeriod is a time-major view of one forecast window, pivoted from
// the element-major CWA layout.
type ForecastPeriod struct {
	StartTime        string `json:"start_time"`
	EndTime          string `json:"end_time"`
	WeatherCondition string `json:"weather_condition,omitempty"`
	RainProbability  int    `json:"rain_probability"`
	MinTemperature   string `json:"min_temperature,omitempty"`
	MaxTemperature   string `json:"max_temperature,omitempty"`
	ComfortIndex     string `json:"comfort_index,omitempty"`
}

// aqiResponse is the MOENV aqx_p_432 dataset envelope.
type aqiResponse struct {
	Records []AQIStation `json:"records"`
}

// AQIStation is one air quality monitoring site. The upstream serves every
// field as a string, coordinates included.
type AQIStation struct {
	SiteName    string `json:"sitename"`
	County      string `json:"county"`
	AQI         string `json:"aqi"`
	Status      string `json:"status"`
	PM25        string `json:"pm2.5"`
	Pollutant   string `json:"pollutant"`
	PublishTime string `json:"publishtime"`
	Latitude    string `json:"latitude"`
	Longitude   string `json:"longitude"`
}

// Location parses the station coordinates. Unparseable values collapse to
// the zero point, which the nearest-match search skips.
func (s AQIStation) Location() geo.Point {
	lat, err := strconv.ParseFloat(s.Latitude, 64)
	if err != nil {
		return geo.Point{}
	}
	lng, err := strconv.ParseFloat(s.Longitude, 64)
	if err != nil {
		return geo.Point{}
	}
	return geo.Point{Lat: lat, Lng: lng}
}
