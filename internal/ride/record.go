package ride

import (
	"math"
	"time"
)

// Record is the durable shape of a completed ride. Distance, duration and
// calories are whole numbers; speeds stay floating point. The route is
// carried over verbatim and the weather payload is opaque.
type Record struct {
	StartTime     time.Time      `json:"start_time"`
	EndTime       time.Time      `json:"end_time"`
	Duration      int            `json:"duration"`
	Distance      int            `json:"distance"`
	Calories      int            `json:"calories"`
	AvgSpeed      float64        `json:"avg_speed"`
	MaxSpeed      float64        `json:"max_speed"`
	Route         []RoutePoint   `json:"route"`
	StartLocation *Location      `json:"start_location"`
	EndLocation   *Location      `json:"end_location"`
	Weather       map[string]any `json:"weather"`
}

// NewRecord converts a live session into its durable form at finish time.
func NewRecord(s *Session, endTime time.Time, activeDuration, avgSpeed float64, endLocation *Location, weather map[string]any) Record {
	if weather == nil {
		weather = map[string]any{}
	}
	route := s.Route
	if route == nil {
		route = []RoutePoint{}
	}
	return Record{
		StartTime:     s.StartTime,
		EndTime:       endTime,
		Duration:      int(math.Round(activeDuration)),
		Distance:      int(math.Round(s.Distance)),
		Calories:      int(math.Round(s.Calories)),
		AvgSpeed:      roundTo(avgSpeed, 2),
		MaxSpeed:      s.MaxSpeed,
		Route:         route,
		StartLocation: s.StartLocation,
		EndLocation:   endLocation,
		Weather:       weather,
	}
}

func roundTo(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
