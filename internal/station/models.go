package station

import (
	"strings"

	"github.com/tedlu-tw/townpass-dev/internal/shared/geo"
)

const namePrefix = "YouBike2.0_"

// Station mirrors one entry of the Taipei YouBike realtime feed.
type Station struct {
	SNo            string  `json:"sno"`
	Name           string  `json:"sna"`
	NameEn         string  `json:"snaen"`
	Area           string  `json:"sarea"`
	AreaEn         string  `json:"sareaen"`
	Address        string  `json:"ar"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	Capacity       int     `json:"Quantity"`
	AvailableBikes int     `json:"available_rent_bikes"`
	AvailableDocks int     `json:"available_return_bikes"`
	Act            string  `json:"act"`
	UpdateTime     string  `json:"updateTime"`
}

func (s Station) Location() geo.Point {
	return geo.Point{Lat: s.Latitude, Lng: s.Longitude}
}

func (s Station) Active() bool {
	return s.Act == "1"
}

// DisplayName strips the operator prefix the feed puts in front of every
// station name.
func (s Station) DisplayName() string {
	return strings.TrimPrefix(s.Name, namePrefix)
}

// Color is the map marker color: red when no dock is free, yellow when no
// bike is left, green otherwise.
func (s Station) Color() string {
	switch {
	case s.AvailableDocks == 0:
		return "red"
	case s.AvailableBikes == 0:
		return "yellow"
	default:
		return "green"
	}
}

// Feature is a GeoJSON point feature for one station.
type Feature struct {
	Type       string         `json:"type"`
	Geometry   Geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

type Geometry struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

// FeatureCollection is the GeoJSON payload served to map clients.
type FeatureCollection struct {
	Type     string         `json:"type"`
	Features []Feature      `json:"features"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// ToFeature renders the station as GeoJSON. distanceM < 0 means "no
// distance", used by the non-proximity endpoints.
func (s Station) ToFeature(distanceM float64) Feature {
	props := map[string]any{
		"id":              s.SNo,
		"name":            s.DisplayName(),
		"site":            s.Address,
		"icon":            s.Color(),
		"available_bikes": s.AvailableBikes,
		"available_docks": s.AvailableDocks,
		"area":            s.Area,
		"update_time":     s.UpdateTime,
		"active":          s.Active(),
	}
	if distanceM >= 0 {
		props["distance"] = distanceM
	}
	return Feature{
		Type: "Feature",
		Geometry: Geometry{
			Type:        "Point",
			Coordinates: [2]float64{s.Longitude, s.Latitude},
		},
		Properties: props,
	}
}

func toCollection(stations []Station) FeatureCollection {
	features := make([]Feature, 0, len(stations))
	for _, s := range stations {
		features = append(features, s.ToFeature(-1))
	}
	return FeatureCollection{Type: "FeatureCollection", Features: features}
}
