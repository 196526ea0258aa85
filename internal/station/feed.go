package station

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// ErrFeedUnavailable is returned when the upstream YouBike feed cannot be
// reached or parsed.
var ErrFeedUnavailable = errors.New("station feed unavailable")

// StationSource supplies the current station snapshot.
type StationSource interface {
	Stations(ctx context.Context) ([]Station, error)
}

// Feed fetches the YouBike realtime feed over HTTP and caches the snapshot
// in memory for a short TTL, since the upstream only refreshes about once a
// minute anyway.
type Feed struct {
	url    string
	client *http.Client
	ttl    time.Duration

	mu        sync.Mutex
	snapshot  []Station
	fetchedAt time.Time
}

func NewFeed(url string, ttl time.Duration) *Feed {
	return &Feed{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
		ttl:    ttl,
	}
}

func (f *Feed) Stations(ctx context.Context) ([]Station, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.snapshot != nil && time.Since(f.fetchedAt) < f.ttl {
		return f.snapshot, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFeedUnavailable, err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFeedUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: upstream status %d", ErrFeedUnavailable, resp.StatusCode)
	}

	var stations []Station
	if err := json.NewDecoder(resp.Body).Decode(&stations); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFeedUnavailable, err)
	}

	f.snapshot = stations
	f.fetchedAt = time.Now()
	return stations, nil
}
