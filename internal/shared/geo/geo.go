package geo

import (
	"sort"

	"github.com/golang/geo/s2"
)

// EarthRadiusM is the spherical-Earth radius used for all distance math.
const EarthRadiusM = 6371000.0

// Point is a WGS84 coordinate pair in degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// IsZero reports whether the point is the 0/0 sentinel upstream feeds use
// for "location unknown". Records at 0/0 are never nearest-match candidates.
func (p Point) IsZero() bool {
	return p.Lat == 0 && p.Lng == 0
}

// Located is any record carrying a coordinate. Records whose coordinates
// could not be parsed must return the zero Point.
type Located interface {
	Location() Point
}

// HaversineM returns the great-circle distance between two coordinates in
// meters on a sphere of radius EarthRadiusM.
func HaversineM(lat1, lng1, lat2, lng2 float64) float64 {
	p1 := s2.LatLngFromDegrees(lat1, lng1)
	p2 := s2.LatLngFromDegrees(lat2, lng2)
	return p1.Distance(p2).Radians() * EarthRadiusM
}

// DistanceM returns the distance in meters between two points.
func DistanceM(a, b Point) float64 {
	return HaversineM(a.Lat, a.Lng, b.Lat, b.Lng)
}

// Match pairs a record with its distance from the query origin.
type Match[T Located] struct {
	Record    T
	DistanceM float64
}

// Nearest scans records linearly and returns the one closest to origin along
// with its distance. Records at the 0/0 sentinel are skipped. When two
// records are exactly equidistant the first one in input order wins. The
// boolean is false when no valid candidate exists.
func Nearest[T Located](origin Point, records []T) (T, float64, bool) {
	var (
		best     T
		bestDist float64
		found    bool
	)
	for _, r := range records {
		loc := r.Location()
		if loc.IsZero() {
			continue
		}
		d := DistanceM(origin, loc)
		if !found || d < bestDist {
			best = r
			bestDist = d
			found = true
		}
	}
	return best, bestDist, found
}

// WithinRadius returns every valid record within radiusM of origin, sorted
// ascending by distance. Equidistant records keep their input order. A limit
// of zero or less means no cap.
func WithinRadius[T Located](origin Point, records []T, radiusM float64, limit int) []Match[T] {
	var matches []Match[T]
	for _, r := range records {
		loc := r.Location()
		if loc.IsZero() {
			continue
		}
		d := DistanceM(origin, loc)
		if d <= radiusM {
			matches = append(matches, Match[T]{Record: r, DistanceM: d})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].DistanceM < matches[j].DistanceM
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}
