package history

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/pashagolub/pgxmock/v3"
)

func newTestApp(t *testing.T) (*fiber.App, pgxmock.PgxPoolIface) {
	t.Helper()
	mock := newMock(t)
	app := fiber.New()
	RegisterRoutes(app.Group("/api/ride"), NewStore(mock))
	return app, mock
}

func do(t *testing.T, app *fiber.App, method, path string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	var payload map[string]any
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &payload)
	}
	return resp.StatusCode, payload
}

func TestSaveRideEndpoint(t *testing.T) {
	app, mock := newTestApp(t)
	rec := sampleRecord()

	mock.ExpectExec(`INSERT INTO users`).WithArgs("user-1").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO rides`).
		WithArgs(pgxmock.AnyArg(), "user-1", rec.StartTime, rec.EndTime, rec.Duration, rec.Distance,
			rec.Calories, rec.AvgSpeed, rec.MaxSpeed, pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`UPDATE users`).
		WithArgs("user-1", rec.Distance, rec.Duration, rec.Calories, rec.EndTime).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	payload, _ := json.Marshal(saveRideRequest{UserID: "user-1", Record: rec})
	req := httptest.NewRequest("POST", "/api/ride/rides", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("save ride request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("status %d, want 201", resp.StatusCode)
	}
	var body map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&body)
	if body["success"] != true || body["ride_id"] == "" {
		t.Fatalf("unexpected body: %v", body)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSaveRideEndpointRequiresUser(t *testing.T) {
	app, _ := newTestApp(t)

	req := httptest.NewRequest("POST", "/api/ride/rides", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("save ride request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status %d, want 400", resp.StatusCode)
	}
}

func TestListRidesEndpoint(t *testing.T) {
	app, mock := newTestApp(t)
	rec := sampleRecord()

	mock.ExpectQuery(`SELECT id, user_id, start_time, end_time, duration, distance, calories`).
		WithArgs("user-1", 5, 0).
		WillReturnRows(pgxmock.NewRows(rideColumns()).AddRow(storedRideRow(rec, "ride-1")...))

	code, body := do(t, app, "GET", "/api/ride/rides?user_id=user-1&limit=5")
	if code != fiber.StatusOK {
		t.Fatalf("status %d, body %v", code, body)
	}
	if body["count"] != 1.0 || body["user_id"] != "user-1" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestListRidesEndpointRequiresUser(t *testing.T) {
	app, _ := newTestApp(t)

	code, _ := do(t, app, "GET", "/api/ride/rides")
	if code != fiber.StatusBadRequest {
		t.Fatalf("status %d, want 400", code)
	}
}

func TestGetRideEndpoint(t *testing.T) {
	app, mock := newTestApp(t)
	rec := sampleRecord()

	mock.ExpectQuery(`SELECT id, user_id, start_time, end_time, duration, distance, calories`).
		WithArgs("ride-1").
		WillReturnRows(pgxmock.NewRows(rideColumns()).AddRow(storedRideRow(rec, "ride-1")...))

	code, body := do(t, app, "GET", "/api/ride/rides/ride-1")
	if code != fiber.StatusOK {
		t.Fatalf("status %d, body %v", code, body)
	}
	ride, _ := body["ride"].(map[string]any)
	if ride == nil || ride["ride_id"] != "ride-1" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestGetRideEndpointNotFound(t *testing.T) {
	app, mock := newTestApp(t)

	mock.ExpectQuery(`SELECT id, user_id, start_time, end_time, duration, distance, calories`).
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows(rideColumns()))

	code, _ := do(t, app, "GET", "/api/ride/rides/missing")
	if code != fiber.StatusNotFound {
		t.Fatalf("status %d, want 404", code)
	}
}

func TestDeleteRideEndpoint(t *testing.T) {
	app, mock := newTestApp(t)

	mock.ExpectExec(`DELETE FROM rides`).WithArgs("ride-1", "user-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	code, body := do(t, app, "DELETE", "/api/ride/rides/ride-1?user_id=user-1")
	if code != fiber.StatusOK || body["success"] != true {
		t.Fatalf("status %d, body %v", code, body)
	}

	code, _ = do(t, app, "DELETE", "/api/ride/rides/ride-1")
	if code != fiber.StatusBadRequest {
		t.Fatalf("delete without user_id: status %d", code)
	}
}

func TestStatsEndpoint(t *testing.T) {
	app, mock := newTestApp(t)

	mock.ExpectQuery(`SELECT total_rides, total_distance, total_duration, total_calories`).
		WithArgs("user-1").
		WillReturnRows(pgxmock.NewRows([]string{"total_rides", "total_distance", "total_duration", "total_calories", "last_ride_at", "created_at"}).
			AddRow(int64(2), int64(10000), int64(3600), int64(400), nil, sampleRecord().StartTime))

	code, body := do(t, app, "GET", "/api/ride/stats?user_id=user-1")
	if code != fiber.StatusOK {
		t.Fatalf("status %d, body %v", code, body)
	}
	stats, _ := body["stats"].(map[string]any)
	if stats == nil || stats["total_rides"] != 2.0 {
		t.Fatalf("unexpected body: %v", body)
	}
	if stats["total_carbon_saved_kg"] != 1.2 {
		t.Fatalf("carbon: got %v", stats["total_carbon_saved_kg"])
	}
}
