package station

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/tedlu-tw/townpass-dev/internal/shared/geo"

	"github.com/mmcloughlin/geohash"
	"github.com/redis/go-redis/v9"
)

// ErrStationNotFound is returned for an unknown station id.
var ErrStationNotFound = errors.New("station not found")

// nearbyCachePrecision buckets nearby queries into ~1.2km x 600m geohash
// cells, coarse enough that riders in the same block share a cache entry.
const nearbyCachePrecision = 6

// NearbyQuery holds the parameters of a proximity search.
type NearbyQuery struct {
	Lat      float64
	Lng      float64
	RadiusM  float64
	Limit    int
	Type     string
	MinBikes int
}

// Service answers station queries from the live feed, with a short redis
// cache in front of the proximity search.
type Service struct {
	source StationSource
	redis  *redis.Client
	ttl    time.Duration
}

func NewService(source StationSource, redisClient *redis.Client, cacheTTL time.Duration) *Service {
	return &Service{source: source, redis: redisClient, ttl: cacheTTL}
}

// Nearby finds stations within q.RadiusM of the query point, closest first.
// Type "available" keeps stations holding at least MinBikes bikes, "empty"
// keeps stations with a free dock.
func (s *Service) Nearby(ctx context.Context, q NearbyQuery) (FeatureCollection, error) {
	if q.RadiusM <= 0 {
		q.RadiusM = 1000
	}
	if q.Limit <= 0 {
		q.Limit = 10
	}
	if q.MinBikes <= 0 {
		q.MinBikes = 1
	}

	cacheKey := s.nearbyCacheKey(q)
	if cached, ok := s.cacheGet(ctx, cacheKey); ok {
		return cached, nil
	}

	stations, err := s.source.Stations(ctx)
	if err != nil {
		return FeatureCollection{}, err
	}

	matches := geo.WithinRadius(geo.Point{Lat: q.Lat, Lng: q.Lng}, stations, q.RadiusM, 0)

	features := make([]Feature, 0, q.Limit)
	for _, m := range matches {
		if len(features) == q.Limit {
			break
		}
		switch q.Type {
		case "available":
			if m.Record.AvailableBikes < q.MinBikes {
				continue
			}
		case "empty":
			if m.Record.AvailableDocks <= 0 {
				continue
			}
		}
		features = append(features, m.Record.ToFeature(math.Round(m.DistanceM*100)/100))
	}

	result := FeatureCollection{
		Type:     "FeatureCollection",
		Features: features,
		Metadata: map[string]any{
			"count": len(features),
			"query": map[string]any{
				"lat":    q.Lat,
				"lng":    q.Lng,
				"radius": q.RadiusM,
				"type":   q.Type,
			},
		},
	}
	s.cachePut(ctx, cacheKey, result)
	return result, nil
}

// ByID returns one station as a GeoJSON feature.
func (s *Service) ByID(ctx context.Context, sno string) (Feature, error) {
	stations, err := s.source.Stations(ctx)
	if err != nil {
		return Feature{}, err
	}
	for _, st := range stations {
		if st.SNo == sno {
			return st.ToFeature(-1), nil
		}
	}
	return Feature{}, fmt.Errorf("%w: %s", ErrStationNotFound, sno)
}

// ByArea returns every station in a district, matched against the Chinese
// or English area name.
func (s *Service) ByArea(ctx context.Context, area string) (FeatureCollection, error) {
	stations, err := s.source.Stations(ctx)
	if err != nil {
		return FeatureCollection{}, err
	}

	var hits []Station
	for _, st := range stations {
		if st.Area == area || st.AreaEn == area {
			hits = append(hits, st)
		}
	}

	result := toCollection(hits)
	result.Metadata = map[string]any{
		"count": len(hits),
		"area":  area,
	}
	return result, nil
}

// Available returns stations holding at least minBikes bikes.
func (s *Service) Available(ctx context.Context, minBikes, limit int) (FeatureCollection, error) {
	if minBikes <= 0 {
		minBikes = 1
	}
	stations, err := s.source.Stations(ctx)
	if err != nil {
		return FeatureCollection{}, err
	}

	var hits []Station
	for _, st := range stations {
		if st.AvailableBikes >= minBikes {
			hits = append(hits, st)
		}
	}
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}

	result := toCollection(hits)
	result.Metadata = map[string]any{
		"count":     len(hits),
		"min_bikes": minBikes,
	}
	return result, nil
}

// SystemStats is the network-wide availability summary.
type SystemStats struct {
	TotalStations  int    `json:"total_stations"`
	ActiveStations int    `json:"active_stations"`
	TotalBikes     int    `json:"total_bikes"`
	TotalSpaces    int    `json:"total_spaces"`
	UpdateTime     string `json:"update_time"`
}

// Stats aggregates the whole network.
func (s *Service) Stats(ctx context.Context) (SystemStats, error) {
	stations, err := s.source.Stations(ctx)
	if err != nil {
		return SystemStats{}, err
	}

	var stats SystemStats
	stats.TotalStations = len(stations)
	for _, st := range stations {
		if st.Active() {
			stats.ActiveStations++
		}
		stats.TotalBikes += st.AvailableBikes
		stats.TotalSpaces += st.AvailableDocks
		if st.UpdateTime > stats.UpdateTime {
			stats.UpdateTime = st.UpdateTime
		}
	}
	return stats, nil
}

func (s *Service) nearbyCacheKey(q NearbyQuery) string {
	cell := geohash.EncodeWithPrecision(q.Lat, q.Lng, nearbyCachePrecision)
	return fmt.Sprintf("station:nearby:%s:%.0f:%d:%s:%d", cell, q.RadiusM, q.Limit, q.Type, q.MinBikes)
}

func (s *Service) cacheGet(ctx context.Context, key string) (FeatureCollection, bool) {
	if s.redis == nil {
		return FeatureCollection{}, false
	}
	payload, err := s.redis.Get(ctx, key).Bytes()
	if err != nil {
		return FeatureCollection{}, false
	}
	var fc FeatureCollection
	if err := json.Unmarshal(payload, &fc); err != nil {
		return FeatureCollection{}, false
	}
	return fc, true
}

func (s *Service) cachePut(ctx context.Context, key string, fc FeatureCollection) {
	if s.redis == nil {
		return
	}
	payload, err := json.Marshal(fc)
	if err != nil {
		return
	}
	_ = s.redis.Set(ctx, key, payload, s.ttl).Err()
}
