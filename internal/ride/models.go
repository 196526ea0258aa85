package ride

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	StatusActive = "active"
	StatusPaused = "paused"
)

// Location is a GPS coordinate pair.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// RoutePoint is one entry of a session's GPS trace.
type RoutePoint struct {
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	Timestamp time.Time `json:"timestamp"`
}

// Session is the live, mutable state of one in-progress ride. Cumulative
// metrics hold caller-supplied running totals, not deltas.
type Session struct {
	RideID           string       `json:"ride_id"`
	UserID           string       `json:"user_id"`
	StartTime        time.Time    `json:"start_time"`
	StartLocation    *Location    `json:"start_location"`
	CurrentLocation  *Location    `json:"current_location,omitempty"`
	Distance         float64      `json:"distance"`
	MaxSpeed         float64      `json:"max_speed"`
	Calories         float64      `json:"calories"`
	PausedTime       float64      `json:"paused_time"`
	ElevationProfile []float64    `json:"elevation_profile"`
	Route            []RoutePoint `json:"route"`
	Status           string       `json:"status"`
	CreatedAt        time.Time    `json:"created_at"`
}

// Metric is a telemetry number that also accepts quoted numeric strings,
// matching what mobile clients actually send. Anything else fails the
// update with ErrInvalidMetric.
type Metric float64

func (m *Metric) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		return nil
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidMetric, s)
	}
	*m = Metric(v)
	return nil
}

// UpdateRequest is a sparse telemetry snapshot. Nil fields are left
// untouched on the session.
type UpdateRequest struct {
	RideID          string    `json:"ride_id"`
	Distance        *Metric   `json:"distance"`
	Speed           *Metric   `json:"speed"`
	Calories        *Metric   `json:"calories"`
	PausedTime      *Metric   `json:"paused_time"`
	Elevation       *Metric   `json:"elevation"`
	CurrentLocation *Location `json:"current_location"`
}

// FinishRequest closes a session.
type FinishRequest struct {
	RideID      string         `json:"ride_id"`
	EndLocation *Location      `json:"end_location"`
	Weather     map[string]any `json:"weather"`
}

// Summary is the display view returned when a ride finishes.
type Summary struct {
	DurationMinutes float64 `json:"duration_minutes"`
	DistanceKm      float64 `json:"distance_km"`
	AvgSpeedKmh     float64 `json:"avg_speed_kmh"`
	MaxSpeedKmh     float64 `json:"max_speed_kmh"`
	Calories        float64 `json:"calories"`
	CarbonSavedKg   float64 `json:"carbon_saved_kg"`
}
