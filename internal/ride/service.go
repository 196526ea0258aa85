package ride

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/tedlu-tw/townpass-dev/internal/stream"

	"github.com/google/uuid"
)

// carbonPerKm is the emissions avoided per kilometer not driven by car, in
// kilograms of CO2.
const carbonPerKm = 0.12

var timeNow = time.Now

// Archive is the durable side of the engine: completed rides and per-user
// lifetime aggregates.
type Archive interface {
	EnsureUser(ctx context.Context, userID string) error
	SaveRide(ctx context.Context, userID string, rec Record) (string, error)
}

// Service is the ride telemetry session engine. Every operation re-reads the
// persisted session before mutating it; there is no in-process session state.
type Service struct {
	sessions SessionStore
	archive  Archive
	hub      *stream.Hub
}

func NewService(sessions SessionStore, archive Archive, hub *stream.Hub) *Service {
	return &Service{sessions: sessions, archive: archive, hub: hub}
}

// Start creates a fresh active session. user id and start location are both
// mandatory; the start time comes from the engine clock.
func (s *Service) Start(ctx context.Context, userID string, startLocation *Location) (*Session, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user_id is required", ErrValidation)
	}
	if startLocation == nil {
		return nil, fmt.Errorf("%w: start_location is required", ErrValidation)
	}

	if err := s.archive.EnsureUser(ctx, userID); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	now := timeNow()
	sess := &Session{
		RideID:           uuid.NewString(),
		UserID:           userID,
		StartTime:        now,
		StartLocation:    startLocation,
		ElevationProfile: []float64{},
		Route:            []RoutePoint{},
		Status:           StatusActive,
		CreatedAt:        now,
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Update applies a sparse telemetry snapshot to a live session. Cumulative
// fields are replaced with the caller's running totals; speed only advances
// max_speed; elevation and current_location append. The session is persisted
// before the call returns.
func (s *Service) Update(ctx context.Context, req UpdateRequest) (map[string]any, error) {
	sess, err := s.sessions.Get(ctx, req.RideID)
	if err != nil {
		return nil, err
	}

	updated := map[string]any{}

	if req.Distance != nil {
		sess.Distance = float64(*req.Distance)
		updated["distance"] = sess.Distance
	}
	if req.Speed != nil {
		speed := float64(*req.Speed)
		if speed > sess.MaxSpeed {
			sess.MaxSpeed = speed
		}
		updated["current_speed"] = speed
		updated["max_speed"] = sess.MaxSpeed
	}
	if req.Calories != nil {
		sess.Calories = float64(*req.Calories)
		updated["calories"] = sess.Calories
	}
	if req.PausedTime != nil {
		sess.PausedTime = float64(*req.PausedTime)
		updated["paused_time"] = sess.PausedTime
	}
	if req.Elevation != nil {
		sess.ElevationProfile = append(sess.ElevationProfile, float64(*req.Elevation))
		updated["elevation_added"] = true
	}
	if req.CurrentLocation != nil {
		sess.CurrentLocation = req.CurrentLocation
		sess.Route = append(sess.Route, RoutePoint{
			Lat:       req.CurrentLocation.Lat,
			Lng:       req.CurrentLocation.Lng,
			Timestamp: timeNow(),
		})
		updated["current_location"] = req.CurrentLocation
		updated["route_point_added"] = true
	}

	if err := s.sessions.Put(ctx, sess); err != nil {
		return nil, err
	}

	if s.hub != nil {
		payload, _ := json.Marshal(map[string]any{
			"ride_id":        sess.RideID,
			"updated_fields": updated,
		})
		s.hub.Broadcast(sess.RideID, payload)
	}

	return updated, nil
}

// Pause marks the session paused. Pausing an already-paused session simply
// re-asserts the status.
func (s *Service) Pause(ctx context.Context, rideID string) error {
	return s.setStatus(ctx, rideID, StatusPaused)
}

// Resume marks the session active again.
func (s *Service) Resume(ctx context.Context, rideID string) error {
	return s.setStatus(ctx, rideID, StatusActive)
}

func (s *Service) setStatus(ctx context.Context, rideID, status string) error {
	sess, err := s.sessions.Get(ctx, rideID)
	if err != nil {
		return err
	}
	sess.Status = status
	return s.sessions.Put(ctx, sess)
}

// Finish closes a session: derives the final metrics, persists the durable
// ride record together with the user's aggregate increments, then deletes
// the session. On a persistence failure the session is kept so finishing can
// be retried without losing the ride.
func (s *Service) Finish(ctx context.Context, rideID string, endLocation *Location, weather map[string]any) (Summary, error) {
	sess, err := s.sessions.Get(ctx, rideID)
	if err != nil {
		return Summary{}, err
	}

	endTime := timeNow()
	totalElapsed := endTime.Sub(sess.StartTime).Seconds()
	// paused_time exceeding wall time produces a negative active duration;
	// it is passed through deliberately, only the speed division is guarded.
	activeDuration := totalElapsed - sess.PausedTime

	distanceKm := sess.Distance / 1000
	avgSpeed := 0.0
	if activeDuration > 0 {
		avgSpeed = distanceKm / (activeDuration / 3600)
	}
	carbonSaved := distanceKm * carbonPerKm

	rec := NewRecord(sess, endTime, activeDuration, avgSpeed, endLocation, weather)
	if _, err := s.archive.SaveRide(ctx, sess.UserID, rec); err != nil {
		return Summary{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	if err := s.sessions.Delete(ctx, rideID); err != nil {
		// The durable record already exists; a leaked session is the lesser
		// problem.
		log.Printf("delete session %s: %v", rideID, err)
	}

	return Summary{
		DurationMinutes: roundTo(activeDuration/60, 1),
		DistanceKm:      roundTo(distanceKm, 2),
		AvgSpeedKmh:     roundTo(avgSpeed, 2),
		MaxSpeedKmh:     roundTo(sess.MaxSpeed, 2),
		Calories:        roundTo(sess.Calories, 2),
		CarbonSavedKg:   roundTo(carbonSaved, 3),
	}, nil
}

// Active lists in-flight sessions, optionally scoped to one user.
func (s *Service) Active(ctx context.Context, userID string) ([]*Session, error) {
	return s.sessions.List(ctx, userID)
}
