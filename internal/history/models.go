package history

import (
	"time"

	"github.com/tedlu-tw/townpass-dev/internal/ride"
)

// StoredRide is a completed ride as read back from the archive.
type StoredRide struct {
	ID            string            `json:"ride_id"`
	UserID        string            `json:"user_id"`
	StartTime     time.Time         `json:"start_time"`
	EndTime       time.Time         `json:"end_time"`
	Duration      int               `json:"duration"`
	Distance      int               `json:"distance"`
	Calories      int               `json:"calories"`
	AvgSpeed      float64           `json:"avg_speed"`
	MaxSpeed      float64           `json:"max_speed"`
	Route         []ride.RoutePoint `json:"route"`
	StartLocation *ride.Location    `json:"start_location"`
	EndLocation   *ride.Location    `json:"end_location"`
	Weather       map[string]any    `json:"weather"`
	CreatedAt     time.Time         `json:"created_at"`
}

// Stats is a user's lifetime riding aggregate. Averages divide by at least
// one ride so a fresh user reads as zeros, not NaNs.
type Stats struct {
	TotalRides    int64      `json:"total_rides"`
	TotalDistance int64      `json:"total_distance"`
	TotalDuration int64      `json:"total_duration"`
	TotalCalories int64      `json:"total_calories"`
	AvgDistance   float64    `json:"avg_distance"`
	AvgDuration   float64    `json:"avg_duration"`
	TotalCarbonKg float64    `json:"total_carbon_saved_kg"`
	LastRideAt    *time.Time `json:"last_ride_at"`
	MemberSince   time.Time  `json:"member_since"`
}
