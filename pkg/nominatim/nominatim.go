// Package nominatim geocodes free-text addresses through OpenStreetMap
// Nominatim. Requests are throttled below one per second as the public
// usage policy demands.
package nominatim

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/abrezinsky/bisadmin/internal/logger"
	"github.com/abrezinsky/bisadmin/internal/models"
)

// DefaultBaseURL is the public Nominatim instance
const DefaultBaseURL = "https://nominatim.openstreetmap.org"

// MinInterval is the minimum spacing between two requests
const MinInterval = 1100 * time.Millisecond

// Place is one search hit
type Place struct {
	PlaceID     int64  `json:"place_id"`
	DisplayName string `json:"display_name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	Category    string `json:"category"`
	Type        string `json:"type"`
}

// Point converts the hit's coordinates to a GeoJSON point
func (p Place) Point() (*models.Coordinates, error) {
	lat, err := strconv.ParseFloat(p.Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid latitude %q: %w", p.Lat, err)
	}
	lon, err := strconv.ParseFloat(p.Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid longitude %q: %w", p.Lon, err)
	}
	return models.NewPoint(lat, lon), nil
}

// Geocoder resolves addresses to places
type Geocoder interface {
	Search(ctx context.Context, query string, limit int) ([]Place, error)
}

// Client is a throttled Nominatim HTTP client
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
	log        logger.Logger
}

// NewClient creates a client allowing one request per MinInterval
func NewClient(baseURL, userAgent string, log logger.Logger) *Client {
	return NewClientWithHTTPClient(baseURL, userAgent, &http.Client{Timeout: 10 * time.Second},
		rate.NewLimiter(rate.Every(MinInterval), 1), log)
}

// NewClientWithHTTPClient creates a client with a custom http.Client and limiter
func NewClientWithHTTPClient(baseURL, userAgent string, httpClient *http.Client, limiter *rate.Limiter, log logger.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  userAgent,
		httpClient: httpClient,
		limiter:    limiter,
		log:        log,
	}
}

// Search looks up query and returns at most limit places. It blocks until
// the rate limiter admits the request or ctx is done.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]Place, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("empty geocoding query")
	}
	if limit <= 0 {
		limit = 5
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("geocoding throttled: %w", err)
	}

	params := url.Values{}
	params.Set("format", "jsonv2")
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(limit))
	reqURL := c.baseURL + "/search?" + params.Encode()

	c.log.Debug("Nominatim request", "url", reqURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept-Language", "cs")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Nominatim: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Nominatim returned status %d", resp.StatusCode)
	}

	var places []Place
	if err := json.Unmarshal(body, &places); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return places, nil
}

var _ Geocoder = (*Client)(nil)
