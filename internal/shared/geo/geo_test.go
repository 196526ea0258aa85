package geo

import (
	"math"
	"testing"
)

type site struct {
	name string
	at   Point
}

func (s site) Location() Point { return s.at }

func TestHaversineM(t *testing.T) {
	// Taipei Main Station (25.0478, 121.5170) to Taipei 101 (25.0339, 121.5645) ~ 5 km
	d := HaversineM(25.0478, 121.5170, 25.0339, 121.5645)
	if d < 4000 || d > 6000 {
		t.Fatalf("unexpected distance: %v", d)
	}
}

func TestHaversineMZeroDistance(t *testing.T) {
	if d := HaversineM(25.0478, 121.5170, 25.0478, 121.5170); d != 0 {
		t.Fatalf("expected zero distance, got %v", d)
	}
}

func TestNearest(t *testing.T) {
	origin := Point{Lat: 25.0478, Lng: 121.5170}
	sites := []site{
		{name: "far", at: Point{Lat: 24.1477, Lng: 120.6736}},
		{name: "near", at: Point{Lat: 25.0460, Lng: 121.5180}},
		{name: "mid", at: Point{Lat: 25.0339, Lng: 121.5645}},
	}

	got, dist, ok := Nearest(origin, sites)
	if !ok {
		t.Fatalf("expected a match")
	}
	if got.name != "near" {
		t.Fatalf("expected nearest site, got %s", got.name)
	}
	if dist <= 0 || dist > 1000 {
		t.Fatalf("unexpected distance: %v", dist)
	}
}

func TestNearestEmpty(t *testing.T) {
	if _, _, ok := Nearest(Point{Lat: 25, Lng: 121}, []site(nil)); ok {
		t.Fatalf("expected no match for empty set")
	}
}

func TestNearestSkipsZeroSentinel(t *testing.T) {
	origin := Point{Lat: 0.001, Lng: 0.001}
	sites := []site{
		{name: "unknown", at: Point{}},
		{name: "valid", at: Point{Lat: 10, Lng: 10}},
	}

	got, _, ok := Nearest(origin, sites)
	if !ok || got.name != "valid" {
		t.Fatalf("expected the 0/0 record to be skipped, got %+v ok=%v", got, ok)
	}

	if _, _, ok := Nearest(origin, []site{{name: "unknown", at: Point{}}}); ok {
		t.Fatalf("expected no match when every record is degenerate")
	}
}

func TestNearestSingleRecordAnyDistance(t *testing.T) {
	origin := Point{Lat: 25.0478, Lng: 121.5170}
	sites := []site{{name: "antipode-ish", at: Point{Lat: -25, Lng: -58}}}

	got, _, ok := Nearest(origin, sites)
	if !ok || got.name != "antipode-ish" {
		t.Fatalf("expected the only valid record regardless of distance")
	}
}

func TestNearestTieKeepsFirstInputOrder(t *testing.T) {
	// Two candidates mirrored east/west of the origin: identical distance.
	origin := Point{Lat: 25, Lng: 121}
	first := site{name: "west", at: Point{Lat: 25, Lng: 120.99}}
	second := site{name: "east", at: Point{Lat: 25, Lng: 121.01}}

	dw := DistanceM(origin, first.at)
	de := DistanceM(origin, second.at)
	if math.Abs(dw-de) > 1e-9 {
		t.Fatalf("fixtures are not equidistant: %v vs %v", dw, de)
	}

	got, _, ok := Nearest(origin, []site{first, second})
	if !ok || got.name != "west" {
		t.Fatalf("expected first-encountered candidate on a tie, got %s", got.name)
	}

	got, _, ok = Nearest(origin, []site{second, first})
	if !ok || got.name != "east" {
		t.Fatalf("expected first-encountered candidate on a tie, got %s", got.name)
	}
}

func TestWithinRadius(t *testing.T) {
	origin := Point{Lat: 25.0478, Lng: 121.5170}
	sites := []site{
		{name: "a", at: Point{Lat: 25.0339, Lng: 121.5645}}, // ~5 km
		{name: "b", at: Point{Lat: 25.0460, Lng: 121.5180}}, // ~200 m
		{name: "c", at: Point{Lat: 24.1477, Lng: 120.6736}}, // ~130 km
		{name: "unknown", at: Point{}},
	}

	matches := WithinRadius(origin, sites, 10000, 0)
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	if matches[0].Record.name != "b" || matches[1].Record.name != "a" {
		t.Fatalf("expected ascending distance order, got %s %s", matches[0].Record.name, matches[1].Record.name)
	}
	if matches[0].DistanceM >= matches[1].DistanceM {
		t.Fatalf("distances not ascending")
	}
}

func TestWithinRadiusLimit(t *testing.T) {
	origin := Point{Lat: 25.0478, Lng: 121.5170}
	sites := []site{
		{name: "a", at: Point{Lat: 25.0339, Lng: 121.5645}},
		{name: "b", at: Point{Lat: 25.0460, Lng: 121.5180}},
	}

	matches := WithinRadius(origin, sites, 10000, 1)
	if len(matches) != 1 {
		t.Fatalf("expected limit to cap results, got %d", len(matches))
	}
	if matches[0].Record.name != "b" {
		t.Fatalf("expected closest record retained after cap")
	}
}

func TestWithinRadiusTieStable(t *testing.T) {
	origin := Point{Lat: 25, Lng: 121}
	sites := []site{
		{name: "west", at: Point{Lat: 25, Lng: 120.99}},
		{name: "east", at: Point{Lat: 25, Lng: 121.01}},
	}

	matches := WithinRadius(origin, sites, 5000, 0)
	if len(matches) != 2 {
		t.Fatalf("expected both equidistant records, got %d", len(matches))
	}
	if matches[0].Record.name != "west" || matches[1].Record.name != "east" {
		t.Fatalf("expected input order preserved on ties")
	}
}
