package weather

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/tedlu-tw/townpass-dev/internal/shared/geo"
)

const forecastTimeLayout = "2006-01-02 15:04:05"

var timeNow = time.Now

// ReportQuery selects what the combined weather report covers.
type ReportQuery struct {
	Location   string
	Lat        *float64
	Lng        *float64
	IncludeAQI bool
}

// Service assembles the combined weather and air quality report riders see
// before and after a ride. Either upstream failing degrades its own section
// instead of failing the whole report.
type Service struct {
	forecasts ForecastSource
	aqi       AQISource
}

func NewService(forecasts ForecastSource, aqi AQISource) *Service {
	return &Service{forecasts: forecasts, aqi: aqi}
}

func (s *Service) Report(ctx context.Context, q ReportQuery) map[string]any {
	if q.Location == "" {
		q.Location = "臺北市"
	}

	report := map[string]any{
		"location":  q.Location,
		"timestamp": timeNow().Format(time.RFC3339),
	}
	report["weather"] = s.weatherSection(ctx, q.Location)
	if q.IncludeAQI {
		report["aqi"] = s.aqiSection(ctx, q)
	}
	return report
}

func (s *Service) weatherSection(ctx context.Context, location string) map[string]any {
	loc, err := s.forecasts.Forecast(ctx, location)
	if err != nil {
		return map[string]any{"error": err.Error()}
	}

	periods := parsePeriods(loc)
	if len(periods) == 0 {
		return map[string]any{"error": "unable to parse weather data"}
	}
	current := periods[0]

	temperature := "N/A"
	if t, ok := currentTemperature(current); ok {
		temperature = fmt.Sprintf("%g°C", t)
	}

	return map[string]any{
		"location_name":       loc.LocationName,
		"temperature":         temperature,
		"weather_condition":   current.WeatherCondition,
		"rain_probability_3h": fmt.Sprintf("%g%%", averagePoP(periods, timeNow())),
		"comfort_index":       current.ComfortIndex,
		"forecast_period": map[string]any{
			"start_time": current.StartTime,
			"end_time":   current.EndTime,
		},
	}
}

func (s *Service) aqiSection(ctx context.Context, q ReportQuery) map[string]any {
	stations, err := s.aqi.Stations(ctx)
	if err != nil {
		return map[string]any{"error": err.Error()}
	}

	if q.Lat != nil && q.Lng != nil {
		station, _, ok := geo.Nearest(geo.Point{Lat: *q.Lat, Lng: *q.Lng}, stations)
		if !ok {
			return map[string]any{"message": "no AQI station found near the provided coordinates"}
		}
		return formatAQI(station)
	}

	for _, st := range stations {
		if st.County == q.Location {
			return formatAQI(st)
		}
	}
	for _, st := range stations {
		if st.SiteName == q.Location {
			return formatAQI(st)
		}
	}
	return map[string]any{"message": "no AQI data available for this location"}
}

// parsePeriods pivots the element-major CWA payload into time-major
// periods, using the first element's time axis.
func parsePeriods(loc ForecastLocation) []ForecastPeriod {
	if len(loc.WeatherElement) == 0 {
		return nil
	}

	axis := loc.WeatherElement[0].Time
	periods := make([]ForecastPeriod, 0, len(axis))
	for i, window := range axis {
		p := ForecastPeriod{StartTime: window.StartTime, EndTime: window.EndTime}
		for _, el := range loc.WeatherElement {
			if i >= len(el.Time) {
				continue
			}
			value := el.Time[i].Parameter.ParameterName
			switch el.ElementName {
			case "Wx":
				p.WeatherCondition = value
			case "PoP":
				if pop, err := strconv.Atoi(value); err == nil {
					p.RainProbability = pop
				}
			case "MinT":
				p.MinTemperature = value
			case "MaxT":
				p.MaxTemperature = value
			case "CI":
				p.ComfortIndex = value
			}
		}
		periods = append(periods, p)
	}
	return periods
}

// currentTemperature estimates the present temperature as the midpoint of
// the period's min and max, rounded to one decimal.
func currentTemperature(p ForecastPeriod) (float64, bool) {
	minT, err := strconv.ParseFloat(p.MinTemperature, 64)
	if err != nil {
		return 0, false
	}
	maxT, err := strconv.ParseFloat(p.MaxTemperature, 64)
	if err != nil {
		return 0, false
	}
	return math.Round((minT+maxT)/2*10) / 10, true
}

// averagePoP averages rain probability over the periods near now: anything
// starting within the last 12 hours (the currently running window) up to 3
// hours ahead.
func averagePoP(periods []ForecastPeriod, now time.Time) float64 {
	var sum, n float64
	for _, p := range periods {
		start, err := time.ParseInLocation(forecastTimeLayout, p.StartTime, now.Location())
		if err != nil {
			continue
		}
		diff := start.Sub(now).Hours()
		if diff >= -12 && diff <= 3 {
			sum += float64(p.RainProbability)
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return math.Round(sum/n*10) / 10
}

func aqiLevelName(raw string) string {
	aqi, err := strconv.Atoi(raw)
	if err != nil {
		return "未知 (Unknown)"
	}
	switch {
	case aqi <= 50:
		return "良好 (Good)"
	case aqi <= 100:
		return "普通 (Moderate)"
	case aqi <= 150:
		return "對敏感族群不健康 (Unhealthy for Sensitive Groups)"
	case aqi <= 200:
		return "對所有族群不健康 (Unhealthy)"
	case aqi <= 300:
		return "非常不健康 (Very Unhealthy)"
	default:
		return "危害 (Hazardous)"
	}
}

func formatAQI(st AQIStation) map[string]any {
	return map[string]any{
		"site_name":    st.SiteName,
		"county":       st.County,
		"aqi":          st.AQI,
		"aqi_level":    aqiLevelName(st.AQI),
		"status":       st.Status,
		"pm25":         st.PM25,
		"pollutant":    st.Pollutant,
		"publish_time": st.PublishTime,
	}
}
