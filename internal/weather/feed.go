package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

var (
	// ErrWeatherUnavailable is returned when the CWA forecast API cannot
	// be reached or rejects the request.
	ErrWeatherUnavailable = errors.New("weather feed unavailable")
	// ErrAQIUnavailable is the same for the MOENV air quality API.
	ErrAQIUnavailable = errors.New("aqi feed unavailable")
	// ErrLocationUnknown is returned when CWA has no forecast for the
	// requested location name.
	ErrLocationUnknown = errors.New("no forecast for location")
)

const (
	cwaBaseURL   = "https://opendata.cwa.gov.tw/api/v1/rest/datastore/F-C0032-001"
	moenvBaseURL = "https://data.moenv.gov.tw/api/v2/aqx_p_432"

	cwaElements = "Wx,PoP,CI,MinT,MaxT"
)

// ForecastSource supplies the 36-hour forecast for one location.
type ForecastSource interface {
	Forecast(ctx context.Context, location string) (ForecastLocation, error)
}

// AQISource supplies the realtime air quality snapshot.
type AQISource interface {
	Stations(ctx context.Context) ([]AQIStation, error)
}

// CWAClient calls the Central Weather Administration open data API.
type CWAClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewCWAClient(apiKey string) *CWAClient {
	return &CWAClient{
		baseURL: cwaBaseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *CWAClient) Forecast(ctx context.Context, location string) (ForecastLocation, error) {
	params := url.Values{}
	params.Set("Authorization", c.apiKey)
	params.Set("format", "JSON")
	params.Set("locationName", location)
	params.Set("elementName", cwaElements)

	var resp cwaResponse
	if err := getJSON(ctx, c.client, c.baseURL+"?"+params.Encode(), &resp); err != nil {
		return ForecastLocation{}, fmt.Errorf("%w: %v", ErrWeatherUnavailable, err)
	}
	if resp.Success != "true" {
		return ForecastLocation{}, fmt.Errorf("%w: upstream success=%q", ErrWeatherUnavailable, resp.Success)
	}
	for _, loc := range resp.Records.Location {
		if loc.LocationName == location {
			return loc, nil
		}
	}
	return ForecastLocation{}, fmt.Errorf("%w: %s", ErrLocationUnknown, location)
}

// MOENVClient calls the Ministry of Environment air quality API.
type MOENVClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewMOENVClient(apiKey string) *MOENVClient {
	return &MOENVClient{
		baseURL: moenvBaseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *MOENVClient) Stations(ctx context.Context) ([]AQIStation, error) {
	params := url.Values{}
	params.Set("api_key", c.apiKey)
	params.Set("language", "zh")

	var resp aqiResponse
	if err := getJSON(ctx, c.client, c.baseURL+"?"+params.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAQIUnavailable, err)
	}
	return resp.Records, nil
}

func getJSON(ctx context.Context, client *http.Client, u string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("upstream status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}
