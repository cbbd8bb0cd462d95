package nominatim

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// MockGeocoder returns fixed places for testing
type MockGeocoder struct {
	mu      sync.Mutex
	places  []Place
	err     error
	queries []string
}

// NewMockGeocoder creates a mock returning places for every non-empty query
func NewMockGeocoder(places []Place, err error) *MockGeocoder {
	return &MockGeocoder{places: places, err: err}
}

// Search records the query and returns the configured result
func (m *MockGeocoder) Search(ctx context.Context, query string, limit int) ([]Place, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, query)
	if m.err != nil {
		return nil, m.err
	}
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("empty geocoding query")
	}
	if limit > 0 && limit < len(m.places) {
		return m.places[:limit], nil
	}
	return m.places, nil
}

// Queries returns the queries seen so far
func (m *MockGeocoder) Queries() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.queries...)
}

var _ Geocoder = (*MockGeocoder)(nil)
