package station

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
)

func newTestApp(t *testing.T, src StationSource) *fiber.App {
	t.Helper()
	app := fiber.New()
	RegisterRoutes(app.Group("/api/station"), NewService(src, nil, time.Minute))
	return app
}

func get(t *testing.T, app *fiber.App, path string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	var payload map[string]any
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &payload)
	}
	return resp.StatusCode, payload
}

func TestNearbyEndpoint(t *testing.T) {
	app := newTestApp(t, &fakeSource{stations: taipeiStations()})

	code, body := get(t, app, "/api/station/nearby?lat=25.0408&lng=121.5678&radius=1000")
	if code != fiber.StatusOK {
		t.Fatalf("status %d, body %v", code, body)
	}
	if body["type"] != "FeatureCollection" {
		t.Fatalf("expected geojson, got %v", body)
	}
	features, _ := body["features"].([]any)
	if len(features) != 2 {
		t.Fatalf("expected 2 features, got %d", len(features))
	}
}

func TestNearbyEndpointRequiresCoordinates(t *testing.T) {
	app := newTestApp(t, &fakeSource{stations: taipeiStations()})

	code, _ := get(t, app, "/api/station/nearby?lat=25.0408")
	if code != fiber.StatusBadRequest {
		t.Fatalf("status %d, want 400", code)
	}
}

func TestNearbyEndpointFeedDown(t *testing.T) {
	app := newTestApp(t, &fakeSource{err: ErrFeedUnavailable})

	code, _ := get(t, app, "/api/station/nearby?lat=25.0408&lng=121.5678")
	if code != fiber.StatusServiceUnavailable {
		t.Fatalf("status %d, want 503", code)
	}
}

func TestStationByIDEndpoint(t *testing.T) {
	app := newTestApp(t, &fakeSource{stations: taipeiStations()})

	code, body := get(t, app, "/api/station/s-near")
	if code != fiber.StatusOK {
		t.Fatalf("status %d, body %v", code, body)
	}
	props, _ := body["properties"].(map[string]any)
	if props["id"] != "s-near" || props["icon"] != "red" {
		t.Fatalf("unexpected properties: %v", props)
	}

	code, _ = get(t, app, "/api/station/unknown")
	if code != fiber.StatusNotFound {
		t.Fatalf("status %d, want 404", code)
	}
}

func TestAreaEndpoint(t *testing.T) {
	app := newTestApp(t, &fakeSource{stations: taipeiStations()})

	code, body := get(t, app, "/api/station/area/"+url.PathEscape("信義區"))
	if code != fiber.StatusOK {
		t.Fatalf("status %d, body %v", code, body)
	}
	meta, _ := body["metadata"].(map[string]any)
	if meta["count"] != 2.0 || meta["area"] != "信義區" {
		t.Fatalf("unexpected metadata: %v", meta)
	}
}

func TestAvailableEndpoint(t *testing.T) {
	app := newTestApp(t, &fakeSource{stations: taipeiStations()})

	code, body := get(t, app, "/api/station/available?min_bikes=6")
	if code != fiber.StatusOK {
		t.Fatalf("status %d, body %v", code, body)
	}
	features, _ := body["features"].([]any)
	if len(features) != 1 {
		t.Fatalf("expected 1 station with 6+ bikes, got %d", len(features))
	}
}

func TestStatsEndpoint(t *testing.T) {
	app := newTestApp(t, &fakeSource{stations: taipeiStations()})

	code, body := get(t, app, "/api/station/stats")
	if code != fiber.StatusOK {
		t.Fatalf("status %d, body %v", code, body)
	}
	if body["total_stations"] != 3.0 || body["total_bikes"] != 17.0 {
		t.Fatalf("unexpected stats: %v", body)
	}
}
