package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/tedlu-tw/townpass-dev/internal/db"
	"github.com/tedlu-tw/townpass-dev/internal/ride"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const carbonPerKm = 0.12

// ErrRideNotFound is returned when a ride id does not exist or belongs to
// another user.
var ErrRideNotFound = errors.New("ride not found")

// Store is the Postgres-backed ride archive. It satisfies ride.Archive for
// the session engine and serves the history endpoints.
type Store struct {
	db db.TxQuerier
}

func NewStore(db db.TxQuerier) *Store {
	return &Store{db: db}
}

func (s *Store) EnsureUser(ctx context.Context, userID string) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO users (user_id) VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING
	`, userID)
	return err
}

// SaveRide writes the completed ride and bumps the user's lifetime
// aggregates in one transaction, so the archive and the stats never drift.
func (s *Store) SaveRide(ctx context.Context, userID string, rec ride.Record) (string, error) {
	route, err := json.Marshal(rec.Route)
	if err != nil {
		return "", err
	}
	weather, err := json.Marshal(rec.Weather)
	if err != nil {
		return "", err
	}
	startLoc, err := marshalLocation(rec.StartLocation)
	if err != nil {
		return "", err
	}
	endLoc, err := marshalLocation(rec.EndLocation)
	if err != nil {
		return "", err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer tx.Rollback(ctx)

	rideID := uuid.NewString()
	_, err = tx.Exec(ctx, `
		INSERT INTO rides (id, user_id, start_time, end_time, duration, distance, calories,
			avg_speed, max_speed, route, start_location, end_location, weather)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	`, rideID, userID, rec.StartTime, rec.EndTime, rec.Duration, rec.Distance, rec.Calories,
		rec.AvgSpeed, rec.MaxSpeed, route, startLoc, endLoc, weather)
	if err != nil {
		return "", err
	}

	_, err = tx.Exec(ctx, `
		UPDATE users
		SET total_rides    = total_rides + 1,
		    total_distance = total_distance + $2,
		    total_duration = total_duration + $3,
		    total_calories = total_calories + $4,
		    last_ride_at   = $5
		WHERE user_id = $1
	`, userID, rec.Distance, rec.Duration, rec.Calories, rec.EndTime)
	if err != nil {
		return "", err
	}

	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return rideID, nil
}

// ListRides returns a user's rides, newest first.
func (s *Store) ListRides(ctx context.Context, userID string, limit, skip int) ([]StoredRide, error) {
	if limit <= 0 {
		limit = 20
	}
	if skip < 0 {
		skip = 0
	}
	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, start_time, end_time, duration, distance, calories,
			avg_speed, max_speed, route, start_location, end_location, weather, created_at
		FROM rides WHERE user_id=$1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, skip)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rides := []StoredRide{}
	for rows.Next() {
		r, err := scanRide(rows)
		if err != nil {
			return nil, err
		}
		rides = append(rides, r)
	}
	return rides, rows.Err()
}

// GetRide looks up one ride. When userID is non-empty the ride must belong
// to that user.
func (s *Store) GetRide(ctx context.Context, rideID, userID string) (StoredRide, error) {
	query := `
		SELECT id, user_id, start_time, end_time, duration, distance, calories,
			avg_speed, max_speed, route, start_location, end_location, weather, created_at
		FROM rides WHERE id=$1`
	args := []any{rideID}
	if userID != "" {
		query += ` AND user_id=$2`
		args = append(args, userID)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return StoredRide{}, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return StoredRide{}, err
		}
		return StoredRide{}, ErrRideNotFound
	}
	return scanRide(rows)
}

// DeleteRide removes a user's ride. The user scope is mandatory here; one
// rider cannot delete another's history.
func (s *Store) DeleteRide(ctx context.Context, rideID, userID string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM rides WHERE id=$1 AND user_id=$2`, rideID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRideNotFound
	}
	return nil
}

// Stats reads the user's lifetime aggregates.
func (s *Store) Stats(ctx context.Context, userID string) (Stats, error) {
	row := s.db.QueryRow(ctx, `
		SELECT total_rides, total_distance, total_duration, total_calories, last_ride_at, created_at
		FROM users WHERE user_id=$1
	`, userID)

	var st Stats
	if err := row.Scan(&st.TotalRides, &st.TotalDistance, &st.TotalDuration, &st.TotalCalories, &st.LastRideAt, &st.MemberSince); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Stats{}, fmt.Errorf("user %s: %w", userID, ErrRideNotFound)
		}
		return Stats{}, err
	}

	rides := st.TotalRides
	if rides < 1 {
		rides = 1
	}
	st.AvgDistance = round2(float64(st.TotalDistance) / float64(rides))
	st.AvgDuration = round2(float64(st.TotalDuration) / float64(rides))
	st.TotalCarbonKg = round2(float64(st.TotalDistance) / 1000 * carbonPerKm)
	return st, nil
}

func scanRide(rows pgx.Rows) (StoredRide, error) {
	var (
		r                StoredRide
		route, weather   []byte
		startLoc, endLoc []byte
	)
	err := rows.Scan(&r.ID, &r.UserID, &r.StartTime, &r.EndTime, &r.Duration, &r.Distance,
		&r.Calories, &r.AvgSpeed, &r.MaxSpeed, &route, &startLoc, &endLoc, &weather, &r.CreatedAt)
	if err != nil {
		return StoredRide{}, err
	}
	if err := json.Unmarshal(route, &r.Route); err != nil {
		return StoredRide{}, err
	}
	if err := json.Unmarshal(weather, &r.Weather); err != nil {
		return StoredRide{}, err
	}
	if startLoc != nil {
		if err := json.Unmarshal(startLoc, &r.StartLocation); err != nil {
			return StoredRide{}, err
		}
	}
	if endLoc != nil {
		if err := json.Unmarshal(endLoc, &r.EndLocation); err != nil {
			return StoredRide{}, err
		}
	}
	return r, nil
}

func marshalLocation(loc *ride.Location) ([]byte, error) {
	if loc == nil {
		return nil, nil
	}
	return json.Marshal(loc)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
